package core

import "math/rand/v2"

// RNG wraps a PCG source so initial grids can be reproduced from a seed on
// every process that needs them.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.r.Float64() < p
}

// Intn returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Fill builds a row-major w*h cell array by calling gen once per cell.
func Fill[C any](r *RNG, w, h int, gen func(*RNG) C) []C {
	cells := make([]C, w*h)
	for i := range cells {
		cells[i] = gen(r)
	}
	return cells
}

// Binary returns 1 with probability density and 0 otherwise.
func Binary(density float64) func(*RNG) uint8 {
	return func(r *RNG) uint8 {
		if r.Chance(density) {
			return 1
		}
		return 0
	}
}
