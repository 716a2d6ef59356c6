// Package halo runs one grid per tile of a larger toroidal grid. Tiles keep
// their borders current by exchanging edge cells, and edge flows, with their
// eight neighbor tiles over ordered byte streams.
package halo

import (
	"errors"
	"fmt"
	"io"

	"gridsim/pkg/core"
)

var (
	// ErrTopology reports an unusable tile arrangement.
	ErrTopology = errors.New("invalid tile topology")
	// ErrUneven reports a logical grid that does not split into equal tiles.
	ErrUneven = errors.New("grid does not divide evenly into tiles")
)

// Coord locates a tile in the topology.
type Coord struct {
	X, Y int
}

// Topology arranges Cols x Rows tiles on a torus.
type Topology struct {
	Cols, Rows int
}

// Validate checks that the topology holds at least one tile.
func (t Topology) Validate() error {
	if t.Cols < 1 || t.Rows < 1 {
		return fmt.Errorf("%w: %dx%d", ErrTopology, t.Cols, t.Rows)
	}
	return nil
}

// Len returns the number of tiles.
func (t Topology) Len() int { return t.Cols * t.Rows }

// Index returns the row-major position of c.
func (t Topology) Index(c Coord) int { return c.Y*t.Cols + c.X }

// Coord is the inverse of Index.
func (t Topology) Coord(i int) Coord { return Coord{X: i % t.Cols, Y: i / t.Cols} }

// Neighbor returns the tile at off from c, wrapping around the torus.
func (t Topology) Neighbor(c Coord, off core.Offset) Coord {
	return Coord{
		X: ((c.X+off.DX)%t.Cols + t.Cols) % t.Cols,
		Y: ((c.Y+off.DY)%t.Rows + t.Rows) % t.Rows,
	}
}

// Links holds one byte stream per Moore direction. Link d of a tile must be
// connected to link Inv(d) of the tile in direction d.
type Links [8]io.ReadWriter

var directionNames = [8]string{"east", "north-east", "north", "north-west", "west", "south-west", "south", "south-east"}

func directionName(d core.Direction) string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction %d", d)
}
