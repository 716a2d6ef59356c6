package core

import (
	"errors"
	"fmt"
)

// ErrNeighborhoodSize reports a neighborhood built from the wrong number of values.
var ErrNeighborhoodSize = errors.New("neighborhood size mismatch")

// Neighborhood maps every direction of a Set to a value.
type Neighborhood[T any] struct {
	set  *Set
	vals [MaxDirections]T
}

// NewNeighborhood calls f once per direction, in canonical order.
func NewNeighborhood[T any](set *Set, f func(Direction) T) Neighborhood[T] {
	n := Neighborhood[T]{set: set}
	for i := range set.offsets {
		n.vals[i] = f(Direction(i))
	}
	return n
}

// FromSlice builds a neighborhood from exactly set.Total() values.
func FromSlice[T any](set *Set, vals []T) (Neighborhood[T], error) {
	if len(vals) != set.Total() {
		return Neighborhood[T]{}, fmt.Errorf("%w: %s needs %d values, got %d", ErrNeighborhoodSize, set.name, set.Total(), len(vals))
	}
	n := Neighborhood[T]{set: set}
	copy(n.vals[:], vals)
	return n, nil
}

// Owned copies every referenced value into a neighborhood of values.
func Owned[T any](n Neighborhood[*T]) Neighborhood[T] {
	return NewNeighborhood(n.set, func(d Direction) T { return *n.vals[d] })
}

// Directions returns the set the neighborhood is built over.
func (n Neighborhood[T]) Directions() *Set { return n.set }

// Len returns the number of slots.
func (n Neighborhood[T]) Len() int {
	if n.set == nil {
		return 0
	}
	return n.set.Total()
}

// At returns the value in direction d.
func (n Neighborhood[T]) At(d Direction) T { return n.vals[d] }

// Put replaces the value in direction d.
func (n *Neighborhood[T]) Put(d Direction, v T) { n.vals[d] = v }

// Ptr returns a pointer to the slot in direction d.
func (n *Neighborhood[T]) Ptr(d Direction) *T { return &n.vals[d] }

// Values returns the slots in canonical order.
func (n Neighborhood[T]) Values() []T {
	return append([]T(nil), n.vals[:n.Len()]...)
}

// Each calls f with every (direction, value) pair in canonical order.
func (n Neighborhood[T]) Each(f func(Direction, T)) {
	for i := 0; i < n.Len(); i++ {
		f(Direction(i), n.vals[i])
	}
}
