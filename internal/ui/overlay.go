//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const lineHeight = 14

// Overlay draws the run status in the top-left corner. Tab toggles it.
type Overlay struct {
	hidden bool
	panel  *ebiten.Image
}

// NewOverlay constructs a visible overlay.
func NewOverlay() *Overlay { return &Overlay{} }

// Update handles the visibility toggle.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		o.hidden = !o.hidden
	}
}

// Draw renders s over dst.
func (o *Overlay) Draw(dst *ebiten.Image, s Status) {
	if o.hidden {
		return
	}
	lines := s.Lines()
	width := 0
	for _, l := range lines {
		width = max(width, text.BoundString(basicfont.Face7x13, l).Dx())
	}
	w, h := width+8, len(lines)*lineHeight+6
	if o.panel == nil || o.panel.Bounds().Dx() != w || o.panel.Bounds().Dy() != h {
		o.panel = ebiten.NewImage(w, h)
	}
	o.panel.Fill(color.RGBA{0, 0, 0, 160})
	for i, l := range lines {
		text.Draw(o.panel, l, basicfont.Face7x13, 4, (i+1)*lineHeight, color.White)
	}
	dst.DrawImage(o.panel, nil)
}
