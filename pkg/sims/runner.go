// Package sims drives core.Sim implementations as core.Runner values, either
// on one wrapped grid or split over an in-process mesh of halo tiles.
package sims

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gridsim/pkg/core"
	"gridsim/pkg/grid"
	"gridsim/pkg/halo"
)

// ErrClosed is returned by Step after Close.
var ErrClosed = errors.New("runner is closed")

// Options selects how a simulation is stepped.
type Options struct {
	Tiles   halo.Topology
	Workers int
	Codec   string
}

// DefaultOptions runs on a single tile with one worker per CPU.
func DefaultOptions() Options {
	return Options{Tiles: halo.Topology{Cols: 1, Rows: 1}, Codec: "gob"}
}

// OptionsFromMap reads the "tiles" (CxR), "workers" and "codec" keys.
func OptionsFromMap(cfg map[string]string) Options {
	o := DefaultOptions()
	if cfg == nil {
		return o
	}
	if v, ok := cfg["tiles"]; ok {
		if topo, err := ParseTiles(v); err == nil {
			o.Tiles = topo
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			o.Workers = parsed
		}
	}
	if v, ok := cfg["codec"]; ok {
		if _, err := CodecByName(v); err == nil {
			o.Codec = v
		}
	}
	return o
}

// ParseTiles parses a topology written as "CxR", e.g. "2x3".
func ParseTiles(s string) (halo.Topology, error) {
	cols, rows, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return halo.Topology{}, fmt.Errorf("%w: %q is not CxR", halo.ErrTopology, s)
	}
	c, err := strconv.Atoi(cols)
	if err != nil {
		return halo.Topology{}, fmt.Errorf("%w: %q: %v", halo.ErrTopology, s, err)
	}
	r, err := strconv.Atoi(rows)
	if err != nil {
		return halo.Topology{}, fmt.Errorf("%w: %q: %v", halo.ErrTopology, s, err)
	}
	topo := halo.Topology{Cols: c, Rows: r}
	return topo, topo.Validate()
}

// CodecByName returns the halo codec called "gob" or "binary". The binary
// codec uses big-endian byte order.
func CodecByName(name string) (halo.Codec, error) {
	switch name {
	case "gob", "":
		return halo.Gob, nil
	case "binary":
		return halo.Binary(binary.BigEndian), nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// Spec describes one simulation for the runner.
type Spec[C, D, F any] struct {
	Name   string
	Width  int
	Height int
	Sim    core.Sim[C, D, F]
	// Seed generates one initial cell.
	Seed func(*core.RNG) C
	// View maps a cell to the byte shown by renderers.
	View func(C) uint8
}

type stepper interface {
	Step() error
}

// Joiner is a runner that can step a single tile of a mesh spanning
// several processes.
type Joiner interface {
	core.Runner
	Join(self halo.Coord, links halo.Links) error
}

// Runner implements core.Runner for a Spec.
type Runner[C, D, F any] struct {
	spec    Spec[C, D, F]
	opts    Options
	codec   halo.Codec
	single  *grid.Grid[C]
	cluster *halo.Cluster[C, D, F]
	tile    *halo.Tile[C, D, F]
	seed    int64
	stepper stepper
	steps   int
	err     error
	view    []uint8
}

// New builds a runner and seeds it with seed 0.
func New[C, D, F any](spec Spec[C, D, F], opts Options) (*Runner[C, D, F], error) {
	codec, err := CodecByName(opts.Codec)
	if err != nil {
		return nil, err
	}
	if err := opts.Tiles.Validate(); err != nil {
		return nil, err
	}
	r := &Runner[C, D, F]{spec: spec, opts: opts, codec: codec}
	if err := r.reset(0); err != nil {
		return nil, err
	}
	return r, nil
}

// Name returns the simulation name.
func (r *Runner[C, D, F]) Name() string { return r.spec.Name }

// Size returns the logical grid size.
func (r *Runner[C, D, F]) Size() core.Size { return core.Size{W: r.spec.Width, H: r.spec.Height} }

// Tiles returns the tile topology the runner steps over.
func (r *Runner[C, D, F]) Tiles() halo.Topology { return r.opts.Tiles }

// Steps returns the number of steps since the last reset.
func (r *Runner[C, D, F]) Steps() int { return r.steps }

// Reset reseeds the grid. Errors surface on the next Step.
func (r *Runner[C, D, F]) Reset(seed int64) {
	r.err = r.reset(seed)
}

// Load replaces the grid with cells, a row-major Width x Height array.
func (r *Runner[C, D, F]) Load(cells []C) error {
	r.err = r.load(cells)
	return r.err
}

func (r *Runner[C, D, F]) reset(seed int64) error {
	r.seed = seed
	rng := core.NewRNG(seed)
	return r.load(core.Fill(rng, r.spec.Width, r.spec.Height, r.spec.Seed))
}

func (r *Runner[C, D, F]) load(cells []C) error {
	r.close()
	r.steps = 0
	opts := []grid.Option{grid.WithWorkers(r.opts.Workers)}
	if r.opts.Tiles.Len() == 1 {
		g, err := grid.New(r.spec.Width, r.spec.Height, r.spec.Sim.Directions(), cells, grid.Wrap, r.spec.Sim.CellPadding())
		if err != nil {
			return err
		}
		s, err := grid.NewStepper(g, r.spec.Sim, opts...)
		if err != nil {
			return err
		}
		r.single, r.stepper = g, s
		return nil
	}
	cl, err := halo.NewCluster(r.opts.Tiles, r.spec.Width, r.spec.Height, cells, r.spec.Sim, r.codec, opts...)
	if err != nil {
		return err
	}
	r.cluster, r.stepper = cl, cl
	return nil
}

// Join narrows the runner to the tile at self of its topology, linked to
// the neighbor tiles through links. Every process seeds the same logical
// grid from the last reset's seed and keeps only its own partition. From
// then on Values and Cells cover that tile alone.
func (r *Runner[C, D, F]) Join(self halo.Coord, links halo.Links) error {
	cells := core.Fill(core.NewRNG(r.seed), r.spec.Width, r.spec.Height, r.spec.Seed)
	parts, tw, th, err := halo.Partition(cells, r.spec.Width, r.spec.Height, r.opts.Tiles)
	if err != nil {
		return err
	}
	if self.X < 0 || self.X >= r.opts.Tiles.Cols || self.Y < 0 || self.Y >= r.opts.Tiles.Rows {
		return fmt.Errorf("%w: tile %v outside %dx%d", halo.ErrTopology, self, r.opts.Tiles.Cols, r.opts.Tiles.Rows)
	}
	r.close()
	r.steps = 0
	g, err := grid.New(tw, th, r.spec.Sim.Directions(), parts[r.opts.Tiles.Index(self)], grid.Halo, r.spec.Sim.CellPadding())
	if err != nil {
		return err
	}
	tile, err := halo.NewTile(self, r.opts.Tiles, g, r.spec.Sim, links, r.codec, grid.WithWorkers(r.opts.Workers))
	if err != nil {
		return err
	}
	r.tile, r.stepper, r.err = tile, tile, nil
	return nil
}

func (r *Runner[C, D, F]) close() {
	if r.cluster != nil {
		r.cluster.Close()
	}
	r.single, r.cluster, r.tile, r.stepper = nil, nil, nil, nil
}

// Step advances every tile by one step.
func (r *Runner[C, D, F]) Step() error {
	if r.err != nil {
		return r.err
	}
	if r.stepper == nil {
		return ErrClosed
	}
	if err := r.stepper.Step(); err != nil {
		return err
	}
	r.steps++
	return nil
}

// Values returns a row-major copy of the logical grid.
func (r *Runner[C, D, F]) Values() []C {
	if r.cluster != nil {
		return r.cluster.Cells()
	}
	if r.single != nil {
		return r.single.Cells()
	}
	if r.tile != nil {
		return r.tile.Grid().Cells()
	}
	return nil
}

// Cells returns the logical grid mapped through the Spec's View. The slice
// is reused between calls.
func (r *Runner[C, D, F]) Cells() []uint8 {
	vals := r.Values()
	if cap(r.view) < len(vals) {
		r.view = make([]uint8, len(vals))
	}
	r.view = r.view[:len(vals)]
	for i, v := range vals {
		r.view[i] = r.spec.View(v)
	}
	return r.view
}

// Close releases the tile mesh. Reset or Load reopens the runner.
func (r *Runner[C, D, F]) Close() error {
	r.close()
	return nil
}
