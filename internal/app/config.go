package app

import (
	"flag"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Config represents the command-line parameters shared by the gridsim tools.
type Config struct {
	Sim     string
	Scale   int
	TPS     int
	Seed    int64
	Steps   int
	Tiles   string
	Workers int
	Codec   string
	// Params holds simulation parameters passed through -set key=value.
	Params map[string]string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "life", Scale: 3, TPS: 60, Seed: 42, Steps: 100, Tiles: "1x1", Codec: "gob", Params: map[string]string{}}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "steps per second, 0 for as fast as possible")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.Steps, "steps", c.Steps, "steps to run before exiting")
	fs.StringVar(&c.Tiles, "tiles", c.Tiles, "tile topology as COLSxROWS")
	fs.IntVar(&c.Workers, "workers", c.Workers, "workers per tile, 0 for one per CPU")
	fs.StringVar(&c.Codec, "codec", c.Codec, "halo codec: gob or binary")
	fs.Func("set", "simulation parameter as key=value (repeatable)", c.setParam)
}

func (c *Config) setParam(kv string) error {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", kv)
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	c.Params[k] = v
	return nil
}

// SimConfig returns the map handed to a simulation factory: the -set
// parameters plus the stepping options.
func (c *Config) SimConfig() map[string]string {
	cfg := maps.Clone(c.Params)
	if cfg == nil {
		cfg = map[string]string{}
	}
	cfg["tiles"] = c.Tiles
	cfg["workers"] = strconv.Itoa(c.Workers)
	cfg["codec"] = c.Codec
	return cfg
}

// String lists the configuration in flag form.
func (c *Config) String() string {
	parts := []string{
		"sim=" + c.Sim,
		"seed=" + strconv.FormatInt(c.Seed, 10),
		"tiles=" + c.Tiles,
		"codec=" + c.Codec,
	}
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+c.Params[k])
	}
	return strings.Join(parts, " ")
}
