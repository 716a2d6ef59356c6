package grid

import (
	"errors"
	"fmt"

	"gridsim/pkg/core"
)

// Mode selects how a grid's padding border is populated.
type Mode int

const (
	// Wrap copies the opposite interior edge into the border (a torus).
	Wrap Mode = iota
	// Fixed keeps the border at a constant padding cell (a true boundary).
	Fixed
	// Halo leaves the border to be filled from neighboring tiles.
	Halo
)

func (m Mode) String() string {
	switch m {
	case Wrap:
		return "wrap"
	case Fixed:
		return "fixed"
	case Halo:
		return "halo"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

var (
	// ErrDimensions reports a grid smaller than 1x1.
	ErrDimensions = errors.New("invalid grid dimensions")
	// ErrCellCount reports a cell array that does not match the grid size.
	ErrCellCount = errors.New("cell count does not match grid dimensions")
)

// Regions are the eight border regions around the interior, in Moore order.
var Regions = core.Moore

// Grid stores an interior of cells surrounded by a padding border, all in one
// row-major array.
type Grid[C any] struct {
	w, h    int
	pad     int
	stride  int
	set     *core.Set
	mode    Mode
	padding C
	cells   []C
}

// New allocates a grid and fills its interior from cells (row-major).
func New[C any](width, height int, set *core.Set, cells []C, mode Mode, padding C) (*Grid[C], error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("%w: %dx%d needs %d cells, got %d", ErrCellCount, width, height, width*height, len(cells))
	}
	pad := set.Radius()
	g := &Grid[C]{
		w:       width,
		h:       height,
		pad:     pad,
		stride:  width + 2*pad,
		set:     set,
		mode:    mode,
		padding: padding,
	}
	g.cells = make([]C, g.stride*(height+2*pad))
	for i := range g.cells {
		g.cells[i] = padding
	}
	for y := 0; y < height; y++ {
		copy(g.cells[g.index(0, y):g.index(width, y)], cells[y*width:(y+1)*width])
	}
	return g, nil
}

// FromPoints builds a grid of background cells with value placed at each
// point. Points outside the interior wrap around.
func FromPoints[C any](width, height int, set *core.Set, mode Mode, background, value C, points ...[2]int) (*Grid[C], error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	cells := make([]C, width*height)
	for i := range cells {
		cells[i] = background
	}
	for _, p := range points {
		x := (p[0]%width + width) % width
		y := (p[1]%height + height) % height
		cells[y*width+x] = value
	}
	return New(width, height, set, cells, mode, background)
}

// Width returns the interior width.
func (g *Grid[C]) Width() int { return g.w }

// Height returns the interior height.
func (g *Grid[C]) Height() int { return g.h }

// Pad returns the border thickness.
func (g *Grid[C]) Pad() int { return g.pad }

// Directions returns the neighborhood the grid is laid out for.
func (g *Grid[C]) Directions() *core.Set { return g.set }

// Mode reports how the border is refreshed.
func (g *Grid[C]) Mode() Mode { return g.mode }

// Interior returns the window covering every interior cell.
func (g *Grid[C]) Interior() Window { return Window{X1: g.w, Y1: g.h} }

// Bounds returns the window covering interior and border.
func (g *Grid[C]) Bounds() Window {
	return Window{X0: -g.pad, Y0: -g.pad, X1: g.w + g.pad, Y1: g.h + g.pad}
}

func (g *Grid[C]) index(x, y int) int { return (y+g.pad)*g.stride + x + g.pad }

// Cell returns a pointer to the cell at (x, y). Border positions are allowed.
func (g *Grid[C]) Cell(x, y int) *C { return &g.cells[g.index(x, y)] }

// At returns the cell at (x, y).
func (g *Grid[C]) At(x, y int) C { return g.cells[g.index(x, y)] }

// Set replaces the cell at (x, y).
func (g *Grid[C]) Set(x, y int, c C) { g.cells[g.index(x, y)] = c }

// Cells returns a row-major copy of the interior.
func (g *Grid[C]) Cells() []C { return g.CopyOut(g.Interior()) }

// Neighbors returns pointers to the cells around (x, y), read through the
// border so wrapped and halo edges look the same.
func (g *Grid[C]) Neighbors(x, y int) core.Neighborhood[*C] {
	i := g.index(x, y)
	return core.NewNeighborhood(g.set, func(d core.Direction) *C {
		o := g.set.Offset(d)
		return &g.cells[i+o.DY*g.stride+o.DX]
	})
}

// Edge returns the border-facing region in the direction of off. The inner
// region lies inside the interior along that side; the outer region is the
// padding beyond it. Diagonal offsets select corners.
func (g *Grid[C]) Edge(off core.Offset, outer bool) Window {
	x0, x1 := span(off.DX, g.w, g.pad, outer)
	y0, y1 := span(off.DY, g.h, g.pad, outer)
	return Window{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func span(d, n, pad int, outer bool) (int, int) {
	switch {
	case d > 0 && outer:
		return n, n + pad
	case d > 0:
		return n - pad, n
	case d < 0 && outer:
		return -pad, 0
	case d < 0:
		return 0, pad
	}
	return 0, n
}

// CopyOut returns the cells of a window in row-major order.
func (g *Grid[C]) CopyOut(win Window) []C {
	out := make([]C, 0, win.Len())
	for y := win.Y0; y < win.Y1; y++ {
		out = append(out, g.cells[g.index(win.X0, y):g.index(win.X1, y)]...)
	}
	return out
}

// CopyIn overwrites the cells of a window from a row-major slice.
func (g *Grid[C]) CopyIn(win Window, src []C) error {
	if len(src) != win.Len() {
		return fmt.Errorf("%w: window %v needs %d cells, got %d", ErrCellCount, win, win.Len(), len(src))
	}
	w := win.W()
	for y := win.Y0; y < win.Y1; y++ {
		off := (y - win.Y0) * w
		copy(g.cells[g.index(win.X0, y):g.index(win.X1, y)], src[off:off+w])
	}
	return nil
}

// RefreshPadding repopulates the border for the grid's mode. Halo grids are
// left untouched; their border is written by the tile exchange.
func (g *Grid[C]) RefreshPadding() {
	switch g.mode {
	case Wrap:
		for _, d := range Regions.Directions() {
			off := Regions.Offset(d)
			dst, src := g.Edge(off, true), g.Edge(off.Neg(), false)
			for y := 0; y < dst.H(); y++ {
				copy(g.cells[g.index(dst.X0, dst.Y0+y):g.index(dst.X1, dst.Y0+y)],
					g.cells[g.index(src.X0, src.Y0+y):g.index(src.X1, src.Y0+y)])
			}
		}
	case Fixed:
		for _, d := range Regions.Directions() {
			g.Edge(Regions.Offset(d), true).Each(func(x, y int) {
				g.cells[g.index(x, y)] = g.padding
			})
		}
	}
}
