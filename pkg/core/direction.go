package core

import (
	"errors"
	"fmt"
)

// MaxDirections bounds the number of directions a Set may hold.
const MaxDirections = 8

// ErrDirections reports an invalid direction set.
var ErrDirections = errors.New("invalid direction set")

// Direction indexes a neighbor offset within a Set.
type Direction uint8

// Orthogonal directions, in counter-clockwise order.
const (
	Right Direction = iota
	Up
	Left
	Down
)

// Moore directions, in counter-clockwise order.
const (
	East Direction = iota
	NorthEast
	North
	NorthWest
	West
	SouthWest
	South
	SouthEast
)

// Offset is a relative cell position. Y grows downwards.
type Offset struct {
	DX, DY int
}

// Add returns the component-wise sum of two offsets.
func (o Offset) Add(p Offset) Offset { return Offset{DX: o.DX + p.DX, DY: o.DY + p.DY} }

// Neg returns the opposite offset.
func (o Offset) Neg() Offset { return Offset{DX: -o.DX, DY: -o.DY} }

// Set is an ordered collection of neighbor offsets.
//
// Offsets must be listed so that consecutive entries rotate counter-clockwise
// and the opposite of entry i sits at i+N/2. Inv, TurnCW and TurnCCW rely on
// that ordering; NewSet does not verify it.
type Set struct {
	name    string
	offsets []Offset
}

// Orthogonal is the 4-neighborhood: Right, Up, Left, Down.
var Orthogonal = mustSet("orthogonal",
	Offset{1, 0}, Offset{0, -1}, Offset{-1, 0}, Offset{0, 1})

// Moore is the 8-neighborhood starting at East and turning counter-clockwise.
var Moore = mustSet("moore",
	Offset{1, 0}, Offset{1, -1}, Offset{0, -1}, Offset{-1, -1},
	Offset{-1, 0}, Offset{-1, 1}, Offset{0, 1}, Offset{1, 1})

// NewSet validates and builds a direction set.
func NewSet(name string, offsets ...Offset) (*Set, error) {
	n := len(offsets)
	if n < 2 || n > MaxDirections || n%2 != 0 {
		return nil, fmt.Errorf("%w: %s has %d directions, want an even count in [2,%d]", ErrDirections, name, n, MaxDirections)
	}
	seen := make(map[Offset]bool, n)
	for _, o := range offsets {
		if o == (Offset{}) || o.DX < -1 || o.DX > 1 || o.DY < -1 || o.DY > 1 {
			return nil, fmt.Errorf("%w: %s has offset %v outside the unit ring", ErrDirections, name, o)
		}
		if seen[o] {
			return nil, fmt.Errorf("%w: %s repeats offset %v", ErrDirections, name, o)
		}
		seen[o] = true
	}
	return &Set{name: name, offsets: append([]Offset(nil), offsets...)}, nil
}

func mustSet(name string, offsets ...Offset) *Set {
	s, err := NewSet(name, offsets...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name identifies the set.
func (s *Set) Name() string { return s.name }

// Total returns the number of directions.
func (s *Set) Total() int { return len(s.offsets) }

// Radius returns the padding thickness a grid needs for this set.
func (s *Set) Radius() int { return 1 }

// Directions lists every direction in canonical order.
func (s *Set) Directions() []Direction {
	dirs := make([]Direction, len(s.offsets))
	for i := range dirs {
		dirs[i] = Direction(i)
	}
	return dirs
}

// Offset returns the relative position of the neighbor in direction d.
func (s *Set) Offset(d Direction) Offset { return s.offsets[d] }

// Index finds the direction with the given offset.
func (s *Set) Index(o Offset) (Direction, bool) {
	for i, off := range s.offsets {
		if off == o {
			return Direction(i), true
		}
	}
	return 0, false
}

// Inv returns the opposite direction.
func (s *Set) Inv(d Direction) Direction {
	n := len(s.offsets)
	return Direction((int(d) + n/2) % n)
}

// TurnCW rotates d one step clockwise.
func (s *Set) TurnCW(d Direction) Direction {
	n := len(s.offsets)
	return Direction((int(d) + n - 1) % n)
}

// TurnCCW rotates d one step counter-clockwise.
func (s *Set) TurnCCW(d Direction) Direction {
	n := len(s.offsets)
	return Direction((int(d) + 1) % n)
}

func (s *Set) String() string { return s.name }
