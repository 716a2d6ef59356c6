package grid

import (
	"errors"
	"fmt"

	"gridsim/pkg/core"
)

var (
	// ErrSlotFull reports a Diff or Flow produced twice in one step.
	ErrSlotFull = errors.New("slot already filled")
	// ErrSlotEmpty reports a Diff or Flow consumed before it was produced,
	// or consumed twice.
	ErrSlotEmpty = errors.New("slot is empty")
)

// slot holds a value that is put exactly once and taken exactly once.
type slot[T any] struct {
	v  T
	ok bool
}

func (s *slot[T]) put(v T) error {
	if s.ok {
		return ErrSlotFull
	}
	s.v, s.ok = v, true
	return nil
}

func (s *slot[T]) take() (T, error) {
	var zero T
	if !s.ok {
		return zero, ErrSlotEmpty
	}
	v := s.v
	s.v, s.ok = zero, false
	return v, nil
}

// Flows stores one slot per direction for every cell of a grid, border
// included. After egress a cell's slot d holds what it sends toward d; after
// the exchange it holds what it receives from d.
type Flows[F any] struct {
	n      int
	pad    int
	stride int
	slots  []slot[F]
}

func newFlows[F any](w, h, pad, n int) *Flows[F] {
	stride := w + 2*pad
	return &Flows[F]{
		n:      n,
		pad:    pad,
		stride: stride,
		slots:  make([]slot[F], stride*(h+2*pad)*n),
	}
}

// PerCell returns the number of slots each cell owns.
func (f *Flows[F]) PerCell() int { return f.n }

func (f *Flows[F]) base(x, y int) int { return ((y+f.pad)*f.stride + x + f.pad) * f.n }

// Out copies the slots of every cell in win, row-major and PerCell values per
// cell, without consuming them.
func (f *Flows[F]) Out(win Window) ([]F, error) {
	out := make([]F, 0, win.Len()*f.n)
	var err error
	win.Each(func(x, y int) {
		b := f.base(x, y)
		for i := b; i < b+f.n; i++ {
			if !f.slots[i].ok && err == nil {
				err = fmt.Errorf("flow (%d,%d)[%d]: %w", x, y, i-b, ErrSlotEmpty)
			}
			out = append(out, f.slots[i].v)
		}
	})
	return out, err
}

// In fills the slots of every cell in win from vals, laid out as Out returns
// them. The slots must be empty.
func (f *Flows[F]) In(win Window, vals []F) error {
	if len(vals) != win.Len()*f.n {
		return fmt.Errorf("%w: window %v needs %d flows, got %d", ErrCellCount, win, win.Len()*f.n, len(vals))
	}
	var err error
	k := 0
	win.Each(func(x, y int) {
		b := f.base(x, y)
		for i := b; i < b+f.n; i++ {
			if perr := f.slots[i].put(vals[k]); perr != nil && err == nil {
				err = fmt.Errorf("flow (%d,%d)[%d]: %w", x, y, i-b, perr)
			}
			k++
		}
	})
	return err
}

// Fill puts v into every slot of every cell in win.
func (f *Flows[F]) Fill(win Window, v F) error {
	vals := make([]F, win.Len()*f.n)
	for i := range vals {
		vals[i] = v
	}
	return f.In(win, vals)
}

func (f *Flows[F]) reset(win Window) {
	win.Each(func(x, y int) {
		b := f.base(x, y)
		clear(f.slots[b : b+f.n])
	})
}

func (f *Flows[F]) swap(i, j int) error {
	a, b := &f.slots[i], &f.slots[j]
	if !a.ok || !b.ok {
		return ErrSlotEmpty
	}
	a.v, b.v = b.v, a.v
	return nil
}

// edger locates border regions; *Grid satisfies it for any cell type.
type edger interface {
	Edge(off core.Offset, outer bool) Window
}

// wrapBorder fills the border slots from the opposite interior edge.
func (f *Flows[F]) wrapBorder(g edger) error {
	for _, d := range Regions.Directions() {
		off := Regions.Offset(d)
		vals, err := f.Out(g.Edge(off.Neg(), false))
		if err != nil {
			return err
		}
		if err := f.In(g.Edge(off, true), vals); err != nil {
			return err
		}
	}
	return nil
}

// fillBorder puts v into every border slot.
func (f *Flows[F]) fillBorder(g edger, v F) error {
	for _, d := range Regions.Directions() {
		if err := f.Fill(g.Edge(Regions.Offset(d), true), v); err != nil {
			return err
		}
	}
	return nil
}

// swapPair names two slots, inside one 2x2 block, that trade values.
type swapPair struct {
	a, b   core.Offset
	da, db core.Direction
}

// blockPairs lists the exchanges performed inside a 2x2 block: the bottom
// edge, the right edge and both diagonals. Offsets the set lacks are skipped.
func blockPairs(set *core.Set) []swapPair {
	candidates := []struct{ at, dir core.Offset }{
		{at: core.Offset{DX: 0, DY: 1}, dir: core.Offset{DX: 1, DY: 0}},
		{at: core.Offset{DX: 1, DY: 0}, dir: core.Offset{DX: 0, DY: 1}},
		{at: core.Offset{DX: 0, DY: 0}, dir: core.Offset{DX: 1, DY: 1}},
		{at: core.Offset{DX: 1, DY: 0}, dir: core.Offset{DX: -1, DY: 1}},
	}
	var pairs []swapPair
	for _, c := range candidates {
		da, ok := set.Index(c.dir)
		if !ok {
			continue
		}
		db, _ := set.Index(c.dir.Neg())
		pairs = append(pairs, swapPair{a: c.at, b: c.at.Add(c.dir), da: da, db: db})
	}
	return pairs
}

// blockOffsets are the four shifts of the 2x2 partition. Together they reach
// every adjacent pair exactly once.
var blockOffsets = [4]core.Offset{{DX: 0, DY: 0}, {DX: 1, DY: 0}, {DX: 0, DY: 1}, {DX: 1, DY: 1}}
