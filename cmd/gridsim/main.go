package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"gridsim/internal/app"
	"gridsim/internal/core"
	simcore "gridsim/pkg/core"
	_ "gridsim/pkg/sims/briansbrain"
	_ "gridsim/pkg/sims/diffusion"
	_ "gridsim/pkg/sims/life"
)

func main() {
	cfg := app.NewConfig()
	cfg.TPS = 0
	cfg.Bind(flag.CommandLine)
	list := flag.Bool("list", false, "list simulations and exit")
	show := flag.Bool("show", false, "print the final grid")
	every := flag.Int("log-every", 0, "log progress every N steps, 0 to disable")
	flag.Parse()

	if *list {
		fmt.Println(strings.Join(simcore.Names(), "\n"))
		return
	}

	factory, ok := simcore.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q (have %s)", cfg.Sim, strings.Join(simcore.Names(), ", "))
	}
	sim, err := factory(cfg.SimConfig())
	if err != nil {
		log.Fatalf("%s: %v", cfg.Sim, err)
	}
	sim.Reset(cfg.Seed)
	log.Printf("running %s for %d steps", cfg, cfg.Steps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pace := core.NewFixedStep(cfg.TPS)
	start := time.Now()
	for sim.Steps() < cfg.Steps {
		if err := pace.Wait(ctx); err != nil {
			log.Printf("interrupted after %d steps", sim.Steps())
			break
		}
		if err := sim.Step(); err != nil {
			log.Fatalf("step %d: %v", sim.Steps()+1, err)
		}
		if *every > 0 && sim.Steps()%*every == 0 {
			log.Printf("step %d: %d active cells", sim.Steps(), active(sim.Cells()))
		}
	}
	elapsed := time.Since(start)

	cells := sim.Cells()
	rate := float64(sim.Steps()) / max(elapsed.Seconds(), 1e-9)
	fmt.Printf("%s: %d steps in %v (%.1f steps/s), %d active cells, checksum %08x\n",
		sim.Name(), sim.Steps(), elapsed.Round(time.Millisecond), rate, active(cells), crc32.ChecksumIEEE(cells))
	if *show {
		fmt.Print(render(cells, sim.Size().W))
	}
}

func active(cells []uint8) int {
	n := 0
	for _, c := range cells {
		if c != 0 {
			n++
		}
	}
	return n
}

const shades = " .:-=+*#%@"

// render draws cells as text, shading each against the brightest cell.
func render(cells []uint8, w int) string {
	peak := 1
	for _, c := range cells {
		peak = max(peak, int(c))
	}
	var b strings.Builder
	for i, c := range cells {
		b.WriteByte(shades[int(c)*(len(shades)-1)/peak])
		if (i+1)%w == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
