package briansbrain

import (
	"strconv"

	"gridsim/pkg/core"
	"gridsim/pkg/sims"
)

const (
	stateDead  = 0
	stateOn    = 1
	stateDying = 2
)

// Config holds the parameters for a Brian's Brain run.
type Config struct {
	Width  int
	Height int
	// Fire is the share of cells that start firing.
	Fire float64
}

// DefaultConfig returns a 256x256 board with one cell in eight firing.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, Fire: 0.125}
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
	if v, ok := cfg["fire"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Fire = parsed
		}
	}
	return c
}

// Rule implements Brian's Brain. Firing cells start dying, dying cells die,
// and dead cells fire when exactly two neighbors are firing.
type Rule struct{}

func (Rule) Directions() *core.Set { return core.Moore }
func (Rule) Padding() uint8        { return stateDead }

func (Rule) Apply(cell uint8, n core.Neighborhood[*uint8]) uint8 {
	switch cell {
	case stateOn:
		return stateDying
	case stateDying:
		return stateDead
	}
	firing := 0
	n.Each(func(_ core.Direction, c *uint8) {
		if *c == stateOn {
			firing++
		}
	})
	if firing == 2 {
		return stateOn
	}
	return stateDead
}

// New returns a Brian's Brain runner.
func New(c Config, opts sims.Options) (*sims.Runner[uint8, uint8, struct{}], error) {
	return sims.New(sims.Spec[uint8, uint8, struct{}]{
		Name:   "briansbrain",
		Width:  c.Width,
		Height: c.Height,
		Sim:    core.FromRule[uint8](Rule{}),
		Seed: func(r *core.RNG) uint8 {
			if r.Chance(c.Fire) {
				return stateOn
			}
			return stateDead
		},
		View: func(v uint8) uint8 { return v },
	}, opts)
}

func init() {
	core.Register("briansbrain", func(cfg map[string]string) (core.Runner, error) {
		r, err := New(FromMap(cfg), sims.OptionsFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
