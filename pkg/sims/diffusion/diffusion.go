// Package diffusion spreads an integer mass over the grid. Every step a cell
// hands a share of its mass to each lighter neighbor, so mass moves as flows
// and the total never changes.
package diffusion

import (
	"strconv"

	"gridsim/pkg/core"
	"gridsim/pkg/sims"
)

// Config holds the parameters for a diffusion run.
type Config struct {
	Width  int
	Height int
	// Retain weighs how much mass a cell keeps against what it sends to
	// each neighbor.
	Retain int64
	// Peak is the mass drawn at full brightness.
	Peak int64
	// Sources is the share of cells seeded with Peak mass.
	Sources float64
	// Orthogonal restricts flows to the four edge neighbors.
	Orthogonal bool
}

// DefaultConfig returns a 256x256 board with a few percent of cells loaded.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, Retain: 4, Peak: 4096, Sources: 0.02}
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
	if v, ok := cfg["retain"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed >= 0 {
			c.Retain = parsed
		}
	}
	if v, ok := cfg["peak"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			c.Peak = parsed
		}
	}
	if v, ok := cfg["sources"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Sources = parsed
		}
	}
	if v, ok := cfg["orthogonal"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Orthogonal = parsed
		}
	}
	return c
}

// Cell holds the mass at one grid position.
type Cell struct {
	Mass int64
}

// Sim moves mass downhill. Compute decides the share, Egress takes it out of
// the cell and Ingress adds what the neighbors sent.
type Sim struct {
	set    *core.Set
	retain int64
}

// NewSim returns a diffusion Sim over set.
func NewSim(set *core.Set, retain int64) Sim {
	return Sim{set: set, retain: retain}
}

func (s Sim) Directions() *core.Set { return s.set }
func (s Sim) CellPadding() Cell     { return Cell{} }
func (s Sim) FlowPadding() int64    { return 0 }

// Compute returns the mass to send in every direction.
func (s Sim) Compute(c *Cell, n core.Neighborhood[*Cell]) (core.Neighborhood[int64], error) {
	share := c.Mass / (int64(s.set.Total()) + s.retain)
	return core.NewNeighborhood(s.set, func(d core.Direction) int64 {
		if n.At(d).Mass < c.Mass {
			return share
		}
		return 0
	}), nil
}

func (s Sim) Egress(c *Cell, out core.Neighborhood[int64]) (core.Neighborhood[int64], error) {
	for _, v := range out.Values() {
		c.Mass -= v
	}
	return out, nil
}

func (s Sim) Ingress(c *Cell, in core.Neighborhood[int64]) error {
	for _, v := range in.Values() {
		c.Mass += v
	}
	return nil
}

// New returns a diffusion runner.
func New(c Config, opts sims.Options) (*sims.Runner[Cell, core.Neighborhood[int64], int64], error) {
	set := core.Moore
	if c.Orthogonal {
		set = core.Orthogonal
	}
	return sims.New(sims.Spec[Cell, core.Neighborhood[int64], int64]{
		Name:   "diffusion",
		Width:  c.Width,
		Height: c.Height,
		Sim:    NewSim(set, c.Retain),
		Seed: func(r *core.RNG) Cell {
			if r.Chance(c.Sources) {
				return Cell{Mass: c.Peak}
			}
			return Cell{}
		},
		View: func(v Cell) uint8 {
			if v.Mass >= c.Peak {
				return 255
			}
			return uint8(v.Mass * 255 / c.Peak)
		},
	}, opts)
}

// Total sums the mass of cells.
func Total(cells []Cell) int64 {
	var sum int64
	for _, c := range cells {
		sum += c.Mass
	}
	return sum
}

func init() {
	core.Register("diffusion", func(cfg map[string]string) (core.Runner, error) {
		r, err := New(FromMap(cfg), sims.OptionsFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
