package halo

import (
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	"gridsim/pkg/core"
	"gridsim/pkg/grid"
)

// ErrMode reports a tile built on a grid that is not in halo mode.
var ErrMode = errors.New("tile grid must use halo padding")

// LinkError reports a failed send or receive on one link.
type LinkError struct {
	Dir   core.Direction
	Stage string // "cells" or "flows"
	Op    string // "send" or "recv"
	Err   error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("halo %s %s on %s link: %v", e.Stage, e.Op, directionName(e.Dir), e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

type link struct {
	enc Encoder
	dec Decoder
}

// Tile steps one partition of a logical grid. Before compute it fills its
// border from the neighbor tiles' edge cells; after egress it fills its
// border flow slots from the neighbor tiles' edge flows.
type Tile[C, D, F any] struct {
	coord    Coord
	topo     Topology
	grid     *grid.Grid[C]
	stepper  *grid.Stepper[C, D, F]
	links    [8]link
	flowless bool
}

// NewTile wires g to its neighbor tiles through links. The grid must be in
// grid.Halo mode and every link must be set.
func NewTile[C, D, F any](coord Coord, topo Topology, g *grid.Grid[C], sim core.Sim[C, D, F], links Links, codec Codec, opts ...grid.Option) (*Tile[C, D, F], error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if coord.X < 0 || coord.X >= topo.Cols || coord.Y < 0 || coord.Y >= topo.Rows {
		return nil, fmt.Errorf("%w: tile %v outside %dx%d", ErrTopology, coord, topo.Cols, topo.Rows)
	}
	if g.Mode() != grid.Halo {
		return nil, fmt.Errorf("%w: got %v", ErrMode, g.Mode())
	}
	stepper, err := grid.NewStepper(g, sim, opts...)
	if err != nil {
		return nil, err
	}
	t := &Tile[C, D, F]{
		coord:    coord,
		topo:     topo,
		grid:     g,
		stepper:  stepper,
		flowless: reflect.TypeFor[F]().Size() == 0,
	}
	for d, rw := range links {
		if rw == nil {
			return nil, fmt.Errorf("%w: tile %v has no %s link", ErrTopology, coord, directionName(core.Direction(d)))
		}
		t.links[d] = link{enc: codec.NewEncoder(rw), dec: codec.NewDecoder(rw)}
	}
	stepper.SetBoundary(t)
	return t, nil
}

// Coord returns the tile's position in the topology.
func (t *Tile[C, D, F]) Coord() Coord { return t.coord }

// Grid returns the tile's grid.
func (t *Tile[C, D, F]) Grid() *grid.Grid[C] { return t.grid }

// Steps returns the number of completed steps.
func (t *Tile[C, D, F]) Steps() int { return t.stepper.Steps() }

// Step exchanges halos with the neighbor tiles and advances the tile by one
// step. Every tile of the topology must call Step the same number of times.
func (t *Tile[C, D, F]) Step() error { return t.stepper.Step() }

// RefreshCells sends this tile's edge cells and receives the neighbors'
// edge cells into the border.
func (t *Tile[C, D, F]) RefreshCells(g *grid.Grid[C]) error {
	return t.exchange("cells",
		func(d core.Direction, enc Encoder) error {
			return enc.Encode(g.CopyOut(g.Edge(grid.Regions.Offset(d), false)))
		},
		func(d core.Direction, dec Decoder) error {
			win := g.Edge(grid.Regions.Offset(d), true)
			buf := make([]C, win.Len())
			if err := dec.Decode(&buf); err != nil {
				return err
			}
			return g.CopyIn(win, buf)
		})
}

// RefreshFlows sends the outbound flows of this tile's edge cells and
// receives the neighbors' into the border flow slots.
func (t *Tile[C, D, F]) RefreshFlows(g *grid.Grid[C], flows *grid.Flows[F]) error {
	if t.flowless {
		var zero F
		for _, d := range grid.Regions.Directions() {
			if err := flows.Fill(g.Edge(grid.Regions.Offset(d), true), zero); err != nil {
				return err
			}
		}
		return nil
	}
	return t.exchange("flows",
		func(d core.Direction, enc Encoder) error {
			vals, err := flows.Out(g.Edge(grid.Regions.Offset(d), false))
			if err != nil {
				return err
			}
			return enc.Encode(vals)
		},
		func(d core.Direction, dec Decoder) error {
			win := g.Edge(grid.Regions.Offset(d), true)
			buf := make([]F, win.Len()*flows.PerCell())
			if err := dec.Decode(&buf); err != nil {
				return err
			}
			return flows.In(win, buf)
		})
}

// exchange starts a send on every link before receiving on any. Sends run
// concurrently so unbuffered links cannot deadlock; receives then run in
// Moore order. The sends only read the interior and the receives only write
// the border, so the two never touch the same memory.
func (t *Tile[C, D, F]) exchange(stage string, send func(core.Direction, Encoder) error, recv func(core.Direction, Decoder) error) error {
	var sends errgroup.Group
	for _, d := range grid.Regions.Directions() {
		enc := t.links[d].enc
		sends.Go(func() error {
			if err := send(d, enc); err != nil {
				return &LinkError{Dir: d, Stage: stage, Op: "send", Err: err}
			}
			return nil
		})
	}
	for _, d := range grid.Regions.Directions() {
		if err := recv(d, t.links[d].dec); err != nil {
			// Pending sends end when the owner closes the links.
			return &LinkError{Dir: d, Stage: stage, Op: "recv", Err: err}
		}
	}
	return sends.Wait()
}
