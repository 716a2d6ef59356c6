package render

import "image/color"

// Palettes maps simulation names to the colors of their cell values.
// Simulations without an entry are drawn with Gray.
var Palettes = map[string][]color.RGBA{
	"life":        {{0, 0, 0, 255}, {255, 255, 255, 255}},
	"briansbrain": {{0, 0, 0, 255}, {255, 255, 255, 255}, {40, 90, 220, 255}},
}

// Gray is a 256-step ramp from black to white.
var Gray = func() []color.RGBA {
	p := make([]color.RGBA, 256)
	for i := range p {
		p[i] = color.RGBA{uint8(i), uint8(i), uint8(i), 255}
	}
	return p
}()

// PaletteFor returns the palette registered for name, or Gray.
func PaletteFor(name string) []color.RGBA {
	if p, ok := Palettes[name]; ok {
		return p
	}
	return Gray
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette.
// Values past the end of the palette use its last color. When the palette
// is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		col := palette[min(int(c), last)]
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
