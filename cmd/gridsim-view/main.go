//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"gridsim/internal/app"
	"gridsim/pkg/core"
	_ "gridsim/pkg/sims/briansbrain"
	_ "gridsim/pkg/sims/diffusion"
	_ "gridsim/pkg/sims/life"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q", cfg.Sim)
	}
	sim, err := factory(cfg.SimConfig())
	if err != nil {
		log.Fatalf("%s: %v", cfg.Sim, err)
	}
	sim.Reset(cfg.Seed)

	game := app.New(sim, cfg)
	size := sim.Size()

	ebiten.SetWindowTitle("gridsim - " + sim.Name())
	ebiten.SetWindowSize(size.W*cfg.Scale, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
