package life

import (
	"strconv"

	"gridsim/pkg/core"
	"gridsim/pkg/sims"
)

// Config holds the parameters for a Life run.
type Config struct {
	Width   int
	Height  int
	Density float64
}

// DefaultConfig returns a 256x256 board about one third alive.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, Density: 0.35}
}

// FromMap populates a Config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Density = parsed
		}
	}
	return c
}

// Rule is Conway's Game of Life: a live cell survives with two or three live
// neighbors and a dead cell is born with exactly three.
type Rule struct{}

// Directions returns the Moore neighborhood.
func (Rule) Directions() *core.Set { return core.Moore }

// Padding treats cells past a fixed edge as dead.
func (Rule) Padding() uint8 { return 0 }

// Apply returns the next state of cell.
func (Rule) Apply(cell uint8, n core.Neighborhood[*uint8]) uint8 {
	neighbors := 0
	n.Each(func(_ core.Direction, c *uint8) { neighbors += int(*c) })
	if (cell == 1 && (neighbors == 2 || neighbors == 3)) || (cell == 0 && neighbors == 3) {
		return 1
	}
	return 0
}

// New returns a Life runner.
func New(c Config, opts sims.Options) (*sims.Runner[uint8, uint8, struct{}], error) {
	return sims.New(sims.Spec[uint8, uint8, struct{}]{
		Name:   "life",
		Width:  c.Width,
		Height: c.Height,
		Sim:    core.FromRule[uint8](Rule{}),
		Seed:   core.Binary(c.Density),
		View:   func(v uint8) uint8 { return v },
	}, opts)
}

func init() {
	core.Register("life", func(cfg map[string]string) (core.Runner, error) {
		r, err := New(FromMap(cfg), sims.OptionsFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
