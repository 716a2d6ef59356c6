package grid

// Window is a half-open rectangle of grid positions, [X0,X1) x [Y0,Y1).
// Interior cells sit at 0 <= x < Width, 0 <= y < Height; padding cells use
// coordinates just outside that range.
type Window struct {
	X0, Y0, X1, Y1 int
}

// W returns the window width.
func (w Window) W() int { return max(w.X1-w.X0, 0) }

// H returns the window height.
func (w Window) H() int { return max(w.Y1-w.Y0, 0) }

// Len returns the number of positions in the window.
func (w Window) Len() int { return w.W() * w.H() }

// Each visits every position in row-major order.
func (w Window) Each(f func(x, y int)) {
	for y := w.Y0; y < w.Y1; y++ {
		for x := w.X0; x < w.X1; x++ {
			f(x, y)
		}
	}
}

// Rows splits the window into at most n contiguous row bands. Bands are
// disjoint, cover the window and differ in height by at most one row.
func (w Window) Rows(n int) []Window {
	h := w.H()
	if n > h {
		n = h
	}
	if n < 1 {
		return nil
	}
	bands := make([]Window, 0, n)
	each, extra := h/n, h%n
	y := w.Y0
	for i := 0; i < n; i++ {
		rows := each
		if i < extra {
			rows++
		}
		bands = append(bands, Window{X0: w.X0, Y0: y, X1: w.X1, Y1: y + rows})
		y += rows
	}
	return bands
}
