package core

import "sort"

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Runner is a configured simulation the command-line tools can drive.
type Runner interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step() error
	Steps() int
	Cells() []uint8
}

// Factory constructs a Runner using an optional configuration map.
type Factory func(cfg map[string]string) (Runner, error)

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// Names lists registered simulations alphabetically.
func Names() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
