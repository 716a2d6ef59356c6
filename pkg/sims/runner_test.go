package sims_test

import (
	"errors"
	"slices"
	"testing"

	"gridsim/pkg/core"
	"gridsim/pkg/halo"
	"gridsim/pkg/sims"
	_ "gridsim/pkg/sims/briansbrain"
	_ "gridsim/pkg/sims/diffusion"
	_ "gridsim/pkg/sims/life"
)

func TestParseTiles(t *testing.T) {
	cases := []struct {
		in   string
		want halo.Topology
		ok   bool
	}{
		{"1x1", halo.Topology{Cols: 1, Rows: 1}, true},
		{"3X2", halo.Topology{Cols: 3, Rows: 2}, true},
		{"0x2", halo.Topology{}, false},
		{"4", halo.Topology{}, false},
		{"ax2", halo.Topology{}, false},
	}
	for _, tc := range cases {
		got, err := sims.ParseTiles(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseTiles(%q) err = %v", tc.in, err)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseTiles(%q) = %+v, expected %+v", tc.in, got, tc.want)
		}
		if !tc.ok && !errors.Is(err, halo.ErrTopology) {
			t.Fatalf("ParseTiles(%q) err = %v, expected ErrTopology", tc.in, err)
		}
	}
}

func TestOptionsFromMapKeepsDefaultsOnBadInput(t *testing.T) {
	o := sims.OptionsFromMap(map[string]string{"tiles": "nope", "workers": "-2", "codec": "xml"})
	if o != sims.DefaultOptions() {
		t.Fatalf("bad input changed options: %+v", o)
	}
	o = sims.OptionsFromMap(map[string]string{"tiles": "2x4", "workers": "3", "codec": "binary"})
	want := sims.Options{Tiles: halo.Topology{Cols: 2, Rows: 4}, Workers: 3, Codec: "binary"}
	if o != want {
		t.Fatalf("OptionsFromMap = %+v, expected %+v", o, want)
	}
}

func TestRegistryBuildsEverySim(t *testing.T) {
	if got, want := core.Names(), []string{"briansbrain", "diffusion", "life"}; !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, expected %v", got, want)
	}
	cfg := map[string]string{"w": "8", "h": "8", "tiles": "2x2"}
	for _, name := range core.Names() {
		r, err := core.Sims()[name](cfg)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if r.Name() != name {
			t.Fatalf("runner for %s calls itself %s", name, r.Name())
		}
		if r.Size() != (core.Size{W: 8, H: 8}) {
			t.Fatalf("%s size %+v", name, r.Size())
		}
		r.Reset(1)
		for i := 0; i < 3; i++ {
			if err := r.Step(); err != nil {
				t.Fatalf("%s step %d: %v", name, i, err)
			}
		}
		if r.Steps() != 3 || len(r.Cells()) != 64 {
			t.Fatalf("%s: steps %d, %d cells", name, r.Steps(), len(r.Cells()))
		}
	}
}

func TestUnevenTilesFail(t *testing.T) {
	_, err := core.Sims()["life"](map[string]string{"w": "9", "h": "8", "tiles": "2x2"})
	if !errors.Is(err, halo.ErrUneven) {
		t.Fatalf("9 columns over 2 tiles: err = %v", err)
	}
}

func TestClosedRunnerRefusesToStep(t *testing.T) {
	r, err := core.Sims()["life"](map[string]string{"w": "4", "h": "4"})
	if err != nil {
		t.Fatal(err)
	}
	closer := r.(interface{ Close() error })
	closer.Close()
	if err := r.Step(); !errors.Is(err, sims.ErrClosed) {
		t.Fatalf("step after close: err = %v", err)
	}
	r.Reset(2)
	if err := r.Step(); err != nil {
		t.Fatalf("step after reset: %v", err)
	}
}

func TestJoinedRunnersMatchCluster(t *testing.T) {
	cfg := map[string]string{"w": "12", "h": "6", "tiles": "3x1", "codec": "binary"}
	const seed, steps = 17, 8

	whole, err := core.Sims()["diffusion"](cfg)
	if err != nil {
		t.Fatal(err)
	}
	whole.Reset(seed)
	for i := 0; i < steps; i++ {
		if err := whole.Step(); err != nil {
			t.Fatal(err)
		}
	}

	topo := halo.Topology{Cols: 3, Rows: 1}
	mesh, err := halo.PipeMesh(topo)
	if err != nil {
		t.Fatal(err)
	}
	nodes := make([]sims.Joiner, topo.Len())
	for i := range nodes {
		defer mesh[i].Close()
		r, err := core.Sims()["diffusion"](cfg)
		if err != nil {
			t.Fatal(err)
		}
		nodes[i] = r.(sims.Joiner)
		nodes[i].Reset(seed)
		if err := nodes[i].Join(topo.Coord(i), mesh[i].Links()); err != nil {
			t.Fatal(err)
		}
	}
	errs := make(chan error, len(nodes))
	for _, n := range nodes {
		go func() {
			for i := 0; i < steps; i++ {
				if err := n.Step(); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}
	for range nodes {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}

	parts := make([][]uint8, len(nodes))
	for i, n := range nodes {
		parts[i] = slices.Clone(n.Cells())
	}
	if got := halo.Assemble(parts, 4, 6, topo); !slices.Equal(got, whole.Cells()) {
		t.Fatalf("joined tiles diverged from the in-process cluster")
	}
}
