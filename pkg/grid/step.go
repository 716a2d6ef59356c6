package grid

import (
	"context"
	"errors"
	"fmt"

	"gridsim/pkg/core"
)

var (
	// ErrFailed is returned by every Step after one has failed. A failed step
	// is not rolled back, so the grid can no longer be trusted.
	ErrFailed = errors.New("stepper failed in an earlier step")
	// ErrNoBoundary reports a halo grid stepped without a tile boundary.
	ErrNoBoundary = errors.New("halo grid has no boundary")
)

// PhaseError locates a failure inside one phase of a step.
type PhaseError struct {
	Phase string
	X, Y  int
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase at (%d,%d): %v", e.Phase, e.X, e.Y, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Boundary populates a grid's border cells before compute and its border
// flow slots before the flow exchange.
type Boundary[C, F any] interface {
	RefreshCells(g *Grid[C]) error
	RefreshFlows(g *Grid[C], flows *Flows[F]) error
}

type localBoundary[C, F any] struct {
	padding F
}

func (b localBoundary[C, F]) RefreshCells(g *Grid[C]) error {
	if g.Mode() == Halo {
		return ErrNoBoundary
	}
	g.RefreshPadding()
	return nil
}

func (b localBoundary[C, F]) RefreshFlows(g *Grid[C], flows *Flows[F]) error {
	switch g.Mode() {
	case Wrap:
		return flows.wrapBorder(g)
	case Fixed:
		return flows.fillBorder(g, b.padding)
	}
	return ErrNoBoundary
}

// Option configures a Stepper.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers sets the number of goroutines each phase is split across.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Stepper advances a grid with a simulation. Each phase is split into row
// bands that are handed to separate workers; a band's worker is the only
// writer of that band's cells, diffs and flow slots.
type Stepper[C, D, F any] struct {
	g        *Grid[C]
	sim      core.Sim[C, D, F]
	set      *core.Set
	pool     *Pool
	boundary Boundary[C, F]
	pairs    []swapPair

	diffs []slot[D]
	flows *Flows[F]

	// order, when set, visits interior cells sequentially in this order
	// instead of in parallel bands.
	order []int

	steps  int
	failed error
}

// NewStepper prepares per-step storage for stepping g with sim.
func NewStepper[C, D, F any](g *Grid[C], sim core.Sim[C, D, F], opts ...Option) (*Stepper[C, D, F], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	set := sim.Directions()
	if set != g.Directions() {
		return nil, fmt.Errorf("%w: simulation uses %s, grid uses %s", core.ErrDirections, set, g.Directions())
	}
	for _, d := range set.Directions() {
		if _, ok := set.Index(set.Offset(d).Neg()); !ok {
			return nil, fmt.Errorf("%w: %s has no opposite for %v", core.ErrDirections, set, set.Offset(d))
		}
	}
	return &Stepper[C, D, F]{
		g:        g,
		sim:      sim,
		set:      set,
		pool:     NewPool(o.workers),
		boundary: localBoundary[C, F]{padding: sim.FlowPadding()},
		pairs:    blockPairs(set),
		diffs:    make([]slot[D], g.w*g.h),
		flows:    newFlows[F](g.w, g.h, g.pad, set.Total()),
	}, nil
}

// SetBoundary replaces the local wrap/fixed border handling.
func (s *Stepper[C, D, F]) SetBoundary(b Boundary[C, F]) { s.boundary = b }

// Grid returns the grid being stepped.
func (s *Stepper[C, D, F]) Grid() *Grid[C] { return s.g }

// Workers returns the number of goroutines per phase.
func (s *Stepper[C, D, F]) Workers() int { return s.pool.Workers() }

// Steps returns the number of completed steps.
func (s *Stepper[C, D, F]) Steps() int { return s.steps }

// Step advances the grid by one step. If any phase fails the step is
// abandoned and the stepper refuses to run again.
func (s *Stepper[C, D, F]) Step() error {
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrFailed, s.failed)
	}
	if err := s.step(); err != nil {
		s.failed = err
		return err
	}
	s.steps++
	return nil
}

func (s *Stepper[C, D, F]) step() error {
	if err := s.boundary.RefreshCells(s.g); err != nil {
		return fmt.Errorf("refresh cells: %w", err)
	}
	if err := s.each("compute", s.compute); err != nil {
		return err
	}
	if err := s.each("egress", s.egress); err != nil {
		return err
	}
	if err := s.boundary.RefreshFlows(s.g, s.flows); err != nil {
		return fmt.Errorf("refresh flows: %w", err)
	}
	if err := s.exchange(); err != nil {
		return err
	}
	if err := s.each("ingress", s.ingress); err != nil {
		return err
	}
	for _, d := range Regions.Directions() {
		s.flows.reset(s.g.Edge(Regions.Offset(d), true))
	}
	return nil
}

func (s *Stepper[C, D, F]) compute(x, y int) error {
	diff, err := s.sim.Compute(s.g.Cell(x, y), s.g.Neighbors(x, y))
	if err != nil {
		return err
	}
	return s.diffs[y*s.g.w+x].put(diff)
}

func (s *Stepper[C, D, F]) egress(x, y int) error {
	diff, err := s.diffs[y*s.g.w+x].take()
	if err != nil {
		return err
	}
	out, err := s.sim.Egress(s.g.Cell(x, y), diff)
	if err != nil {
		return err
	}
	if out.Len() != s.set.Total() {
		return fmt.Errorf("%w: egress returned %d flows, want %d", core.ErrNeighborhoodSize, out.Len(), s.set.Total())
	}
	base := s.flows.base(x, y)
	for i, v := range out.Values() {
		if err := s.flows.slots[base+i].put(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stepper[C, D, F]) ingress(x, y int) error {
	var in [core.MaxDirections]F
	n := s.set.Total()
	base := s.flows.base(x, y)
	for i := 0; i < n; i++ {
		v, err := s.flows.slots[base+i].take()
		if err != nil {
			return err
		}
		in[i] = v
	}
	flows, err := core.FromSlice(s.set, in[:n])
	if err != nil {
		return err
	}
	return s.sim.Ingress(s.g.Cell(x, y), flows)
}

// each runs fn over every interior cell, one row band per worker.
func (s *Stepper[C, D, F]) each(phase string, fn func(x, y int) error) error {
	wrap := func(x, y int, err error) error {
		return &PhaseError{Phase: phase, X: x, Y: y, Err: err}
	}
	if s.order != nil {
		for _, i := range s.order {
			x, y := i%s.g.w, i/s.g.w
			if err := fn(x, y); err != nil {
				return wrap(x, y, err)
			}
		}
		return nil
	}
	bands := s.g.Interior().Rows(s.pool.Workers())
	return s.pool.Run(len(bands), func(ctx context.Context, i int) error {
		b := bands[i]
		for y := b.Y0; y < b.Y1; y++ {
			if ctx.Err() != nil {
				return nil
			}
			for x := b.X0; x < b.X1; x++ {
				if err := fn(x, y); err != nil {
					return wrap(x, y, err)
				}
			}
		}
		return nil
	})
}

// exchange moves every flow to the slot of the cell it is addressed to. The
// whole array, border included, is cut into 2x2 blocks; swapping the pairs
// listed in s.pairs inside each block, under four shifts of the partition,
// swaps every adjacent pair once. Blocks of one shift never overlap, so each
// shift runs in parallel without locks.
func (s *Stepper[C, D, F]) exchange() error {
	cols := s.g.w + 2*s.g.pad
	rows := s.g.h + 2*s.g.pad
	n := s.flows.n
	for _, shift := range blockOffsets {
		blockRows := (rows - shift.DY) / 2
		blockCols := (cols - shift.DX) / 2
		bands := Window{X1: 1, Y1: blockRows}.Rows(s.pool.Workers())
		err := s.pool.Run(len(bands), func(_ context.Context, i int) error {
			for by := bands[i].Y0; by < bands[i].Y1; by++ {
				py := shift.DY + 2*by
				for bx := 0; bx < blockCols; bx++ {
					px := shift.DX + 2*bx
					for _, p := range s.pairs {
						a := ((py+p.a.DY)*cols + px + p.a.DX) * n
						b := ((py+p.b.DY)*cols + px + p.b.DX) * n
						if err := s.flows.swap(a+int(p.da), b+int(p.db)); err != nil {
							return &PhaseError{Phase: "exchange", X: px + p.a.DX - s.g.pad, Y: py + p.a.DY - s.g.pad, Err: err}
						}
					}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Flows exposes the flow slots to boundary implementations.
func (s *Stepper[C, D, F]) Flows() *Flows[F] { return s.flows }
