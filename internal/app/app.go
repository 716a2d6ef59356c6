//go:build ebiten

package app

import (
	"time"

	"gridsim/internal/core"
	"gridsim/internal/render"
	"gridsim/internal/ui"
	simcore "gridsim/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a simulation runner to the ebiten.Game interface.
type Game struct {
	sim     simcore.Runner
	painter *render.GridPainter
	overlay *ui.Overlay
	pace    *core.FixedStep

	scale    int
	tiles    string
	paused   bool
	tickOnce bool
	seed     int64
	err      error
}

// New constructs a Game for the provided runner.
func New(sim simcore.Runner, cfg *Config) *Game {
	size := sim.Size()
	return &Game{
		sim:     sim,
		painter: render.NewGridPainter(size.W, size.H, render.PaletteFor(sim.Name())),
		overlay: ui.NewOverlay(),
		pace:    core.NewFixedStep(cfg.TPS),
		scale:   cfg.Scale,
		tiles:   cfg.Tiles,
		seed:    cfg.Seed,
	}
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	g.err = nil
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	g.overlay.Update()

	// A failed step leaves the grid untrusted; keep showing it until reset.
	if g.err != nil {
		return nil
	}
	if g.tickOnce || (!g.paused && g.pace.ShouldStep()) {
		g.err = g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.scale)
	g.overlay.Draw(screen, ui.Status{
		Sim:    g.sim.Name(),
		Steps:  g.sim.Steps(),
		Tiles:  g.tiles,
		TPS:    g.pace.TPS(),
		Paused: g.paused,
		Err:    g.err,
	})
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W * g.scale, s.H * g.scale
}
