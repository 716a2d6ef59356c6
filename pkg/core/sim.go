package core

// Sim is the three-phase transition a simulation implements. Each step runs
// Compute for every cell, then Egress for every cell, then Ingress for every
// cell.
//
// Compute must only read: the cell and its neighbors hold the previous step's
// state, and the Diff it returns may not depend on the order cells are
// visited in. Egress applies the Diff to its own cell and returns the Flow to
// send toward each direction. Ingress receives, at direction d, the Flow the
// neighbor at d sent toward the opposite direction.
type Sim[C, D, F any] interface {
	Directions() *Set
	Compute(cell *C, neighbors Neighborhood[*C]) (D, error)
	Egress(cell *C, diff D) (Neighborhood[F], error)
	Ingress(cell *C, flows Neighborhood[F]) error

	// CellPadding is the cell seen beyond a fixed boundary.
	CellPadding() C
	// FlowPadding is the flow received from beyond a fixed boundary.
	FlowPadding() F
}

// Rule is a stateless transition that maps a cell and its neighbors to the
// cell's next value.
type Rule[C any] interface {
	Directions() *Set
	Apply(cell C, neighbors Neighborhood[*C]) C
	Padding() C
}

// FromRule adapts a Rule to the Sim contract. The Diff is the next cell and
// no flows are exchanged.
func FromRule[C any](r Rule[C]) Sim[C, C, struct{}] {
	return ruleSim[C]{r}
}

type ruleSim[C any] struct {
	rule Rule[C]
}

func (s ruleSim[C]) Directions() *Set { return s.rule.Directions() }

func (s ruleSim[C]) Compute(cell *C, neighbors Neighborhood[*C]) (C, error) {
	return s.rule.Apply(*cell, neighbors), nil
}

func (s ruleSim[C]) Egress(cell *C, next C) (Neighborhood[struct{}], error) {
	*cell = next
	return Neighborhood[struct{}]{set: s.rule.Directions()}, nil
}

func (s ruleSim[C]) Ingress(*C, Neighborhood[struct{}]) error { return nil }

func (s ruleSim[C]) CellPadding() C { return s.rule.Padding() }

func (s ruleSim[C]) FlowPadding() struct{} { return struct{}{} }
