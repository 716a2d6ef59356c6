package halo

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"slices"
	"testing"
	"time"

	"gridsim/pkg/core"
	"gridsim/pkg/grid"
)

type lifeRule struct{}

func (lifeRule) Directions() *core.Set { return core.Moore }
func (lifeRule) Padding() uint8        { return 0 }
func (lifeRule) Apply(cell uint8, n core.Neighborhood[*uint8]) uint8 {
	alive := 0
	n.Each(func(_ core.Direction, c *uint8) { alive += int(*c) })
	if alive == 3 || (cell == 1 && alive == 2) {
		return 1
	}
	return 0
}

// spread moves a sixteenth of a cell's mass to every lighter neighbor, so
// every border cell both sends and receives flows.
type spread struct{}

func (spread) Directions() *core.Set { return core.Moore }
func (spread) CellPadding() int64    { return 0 }
func (spread) FlowPadding() int64    { return 0 }

func (spread) Compute(c *int64, n core.Neighborhood[*int64]) (core.Neighborhood[int64], error) {
	return core.NewNeighborhood(core.Moore, func(d core.Direction) int64 {
		if *n.At(d) < *c {
			return *c / 16
		}
		return 0
	}), nil
}

func (spread) Egress(c *int64, out core.Neighborhood[int64]) (core.Neighborhood[int64], error) {
	for _, v := range out.Values() {
		*c -= v
	}
	return out, nil
}

func (spread) Ingress(c *int64, in core.Neighborhood[int64]) error {
	for _, v := range in.Values() {
		*c += v
	}
	return nil
}

// reference steps cells on a single wrapped grid.
func reference[C, D, F any](t *testing.T, w, h int, cells []C, sim core.Sim[C, D, F], steps int) []C {
	t.Helper()
	g, err := grid.New(w, h, sim.Directions(), slices.Clone(cells), grid.Wrap, sim.CellPadding())
	if err != nil {
		t.Fatal(err)
	}
	s, err := grid.NewStepper(g, sim)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < steps; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	return g.Cells()
}

func clustered[C, D, F any](t *testing.T, topo Topology, w, h int, cells []C, sim core.Sim[C, D, F], codec Codec, steps int) []C {
	t.Helper()
	cl, err := NewCluster(topo, w, h, slices.Clone(cells), sim, codec, grid.WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	defer cl.Close()
	for i := 0; i < steps; i++ {
		if err := cl.Step(); err != nil {
			t.Fatalf("%dx%d step %d: %v", topo.Cols, topo.Rows, i, err)
		}
	}
	for _, tile := range cl.Tiles() {
		if tile.Steps() != steps {
			t.Fatalf("tile %v ran %d steps, expected %d", tile.Coord(), tile.Steps(), steps)
		}
	}
	return cl.Cells()
}

var topologies = []Topology{{1, 1}, {2, 1}, {1, 2}, {2, 2}, {3, 3}}

var codecs = map[string]Codec{
	"gob":    Gob,
	"binary": Binary(binary.LittleEndian),
}

func TestTiledLifeMatchesSingleGrid(t *testing.T) {
	const w, h, steps = 6, 6, 12
	cells := core.Fill(core.NewRNG(3), w, h, core.Binary(0.4))
	sim := core.FromRule[uint8](lifeRule{})
	want := reference(t, w, h, cells, sim, steps)

	for name, codec := range codecs {
		for _, topo := range topologies {
			got := clustered(t, topo, w, h, cells, sim, codec, steps)
			if !slices.Equal(got, want) {
				t.Fatalf("%s %dx%d tiles diverged from single grid", name, topo.Cols, topo.Rows)
			}
		}
	}
}

func TestTiledFlowsMatchSingleGrid(t *testing.T) {
	const w, h, steps = 6, 6, 10
	cells := core.Fill(core.NewRNG(5), w, h, func(r *core.RNG) int64 { return int64(r.Intn(4096)) })
	want := reference[int64, core.Neighborhood[int64], int64](t, w, h, cells, spread{}, steps)

	for name, codec := range codecs {
		for _, topo := range topologies {
			got := clustered[int64, core.Neighborhood[int64], int64](t, topo, w, h, cells, spread{}, codec, steps)
			if !slices.Equal(got, want) {
				t.Fatalf("%s %dx%d tiles diverged from single grid:\n got %v\nwant %v", name, topo.Cols, topo.Rows, got, want)
			}
		}
	}
}

func TestOneCellTiles(t *testing.T) {
	const w, h, steps = 3, 3, 4
	cells := []int64{900, 0, 0, 0, 0, 0, 0, 0, 16}
	want := reference[int64, core.Neighborhood[int64], int64](t, w, h, cells, spread{}, steps)
	got := clustered[int64, core.Neighborhood[int64], int64](t, Topology{3, 3}, w, h, cells, spread{}, Gob, steps)
	if !slices.Equal(got, want) {
		t.Fatalf("1x1 tiles got %v, expected %v", got, want)
	}
}

func TestPartitionAssemble(t *testing.T) {
	cells := make([]int, 6*4)
	for i := range cells {
		cells[i] = i
	}
	topo := Topology{3, 2}
	tiles, tw, th, err := Partition(cells, 6, 4, topo)
	if err != nil {
		t.Fatal(err)
	}
	if tw != 2 || th != 2 {
		t.Fatalf("tile size %dx%d, expected 2x2", tw, th)
	}
	// Tile (1,1) covers x 2..3, y 2..3.
	if got, want := tiles[topo.Index(Coord{1, 1})], []int{14, 15, 20, 21}; !slices.Equal(got, want) {
		t.Fatalf("tile (1,1) = %v, expected %v", got, want)
	}
	if got := Assemble(tiles, tw, th, topo); !slices.Equal(got, cells) {
		t.Fatalf("Assemble = %v", got)
	}

	if _, _, _, err := Partition(cells, 6, 4, Topology{4, 1}); !errors.Is(err, ErrUneven) {
		t.Fatalf("6 columns over 4 tiles: err = %v", err)
	}
	if _, _, _, err := Partition(cells, 6, 4, Topology{0, 1}); !errors.Is(err, ErrTopology) {
		t.Fatalf("empty topology: err = %v", err)
	}
}

func TestTopologyNeighborWraps(t *testing.T) {
	topo := Topology{3, 2}
	cases := []struct {
		from Coord
		dir  core.Direction
		want Coord
	}{
		{Coord{0, 0}, core.West, Coord{2, 0}},
		{Coord{0, 0}, core.North, Coord{0, 1}},
		{Coord{2, 1}, core.SouthEast, Coord{0, 0}},
		{Coord{1, 0}, core.NorthWest, Coord{0, 1}},
	}
	for _, tc := range cases {
		if got := topo.Neighbor(tc.from, core.Moore.Offset(tc.dir)); got != tc.want {
			t.Fatalf("%v toward %s = %v, expected %v", tc.from, directionName(tc.dir), got, tc.want)
		}
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	type flow struct {
		Mass  int64
		Heat  float32
		Dirty bool
	}
	src := []flow{{1, 0.5, true}, {-7, 2, false}, {0, 0, false}}
	for name, codec := range codecs {
		var buf bytes.Buffer
		enc, dec := codec.NewEncoder(&buf), codec.NewDecoder(&buf)
		for i := 0; i < 2; i++ {
			if err := enc.Encode(src); err != nil {
				t.Fatalf("%s: encode: %v", name, err)
			}
			dst := make([]flow, len(src))
			if err := dec.Decode(&dst); err != nil {
				t.Fatalf("%s: decode: %v", name, err)
			}
			if !slices.Equal(dst, src) {
				t.Fatalf("%s: decoded %v, expected %v", name, dst, src)
			}
		}
	}
}

func TestNewTileValidates(t *testing.T) {
	sim := core.FromRule[uint8](lifeRule{})
	mesh, err := PipeMesh(Topology{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	defer mesh[0].Close()

	wrapped, _ := grid.New(2, 2, core.Moore, make([]uint8, 4), grid.Wrap, 0)
	if _, err := NewTile(Coord{}, Topology{1, 1}, wrapped, sim, mesh[0].Links(), Gob); !errors.Is(err, ErrMode) {
		t.Fatalf("wrap grid: err = %v", err)
	}

	g, _ := grid.New(2, 2, core.Moore, make([]uint8, 4), grid.Halo, 0)
	if _, err := NewTile(Coord{1, 0}, Topology{1, 1}, g, sim, mesh[0].Links(), Gob); !errors.Is(err, ErrTopology) {
		t.Fatalf("coord outside topology: err = %v", err)
	}
	links := mesh[0].Links()
	links[core.SouthWest] = nil
	if _, err := NewTile(Coord{}, Topology{1, 1}, g, sim, links, Gob); !errors.Is(err, ErrTopology) {
		t.Fatalf("missing link: err = %v", err)
	}
}

func TestClosedLinkFailsCluster(t *testing.T) {
	cells := make([]uint8, 16)
	cl, err := NewCluster(Topology{2, 2}, 4, 4, cells, core.FromRule[uint8](lifeRule{}), Gob)
	if err != nil {
		t.Fatal(err)
	}
	if err := cl.Step(); err != nil {
		t.Fatal(err)
	}
	cl.Close()

	err = cl.Step()
	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("step over closed links: err = %v, expected a LinkError", err)
	}
	if le.Stage != "cells" {
		t.Fatalf("failed in stage %q, expected cells", le.Stage)
	}
	if err := cl.Step(); !errors.Is(err, ErrClusterFailed) {
		t.Fatalf("step after failure: err = %v", err)
	}
}

func TestDialMeshLoopback(t *testing.T) {
	const w, h, steps = 8, 4, 6
	topo := Topology{2, 1}
	cells := core.Fill(core.NewRNG(11), w, h, core.Binary(0.35))
	sim := core.FromRule[uint8](lifeRule{})
	want := reference(t, w, h, cells, sim, steps)

	parts, tw, th, err := Partition(cells, w, h, topo)
	if err != nil {
		t.Fatal(err)
	}
	lns := make([]net.Listener, topo.Len())
	addrs := make([]string, topo.Len())
	for i := range lns {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer ln.Close()
		lns[i], addrs[i] = ln, ln.Addr().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	type result struct {
		cells []uint8
		err   error
	}
	results := make([]chan result, topo.Len())
	for i := range results {
		results[i] = make(chan result, 1)
		go func() {
			cells, err := runNode(ctx, topo, topo.Coord(i), addrs, lns[i], parts[i], tw, th, steps)
			results[i] <- result{cells, err}
		}()
	}
	got := make([][]uint8, topo.Len())
	for i, ch := range results {
		r := <-ch
		if r.err != nil {
			t.Fatalf("tile %v: %v", topo.Coord(i), r.err)
		}
		got[i] = r.cells
	}
	if cells := Assemble(got, tw, th, topo); !slices.Equal(cells, want) {
		t.Fatalf("TCP tiles diverged from single grid")
	}
}

func runNode(ctx context.Context, topo Topology, self Coord, addrs []string, ln net.Listener, cells []uint8, tw, th, steps int) ([]uint8, error) {
	conns, err := DialMesh(ctx, topo, self, addrs, ln)
	if err != nil {
		return nil, err
	}
	defer conns.Close()
	g, err := grid.New(tw, th, core.Moore, cells, grid.Halo, 0)
	if err != nil {
		return nil, err
	}
	tile, err := NewTile(self, topo, g, core.FromRule[uint8](lifeRule{}), conns.Links(), Binary(binary.BigEndian))
	if err != nil {
		return nil, err
	}
	for i := 0; i < steps; i++ {
		if err := tile.Step(); err != nil {
			return nil, err
		}
	}
	return g.Cells(), nil
}
