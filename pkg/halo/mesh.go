package halo

import (
	"errors"
	"net"

	"gridsim/pkg/core"
)

// Conns holds one connection per Moore direction.
type Conns [8]net.Conn

// Links exposes the connections as tile links.
func (c *Conns) Links() Links {
	var l Links
	for d, conn := range c {
		if conn != nil {
			l[d] = conn
		}
	}
	return l
}

// Close closes every connection, ignoring ones that are already closed.
func (c *Conns) Close() error {
	var errs []error
	for _, conn := range c {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// outbound are the directions a tile opens links toward; their opposites are
// opened by the neighbors.
var outbound = []core.Direction{core.East, core.NorthEast, core.North, core.NorthWest}

// PipeMesh connects every tile of topo to its neighbors with in-memory
// net.Pipe links, indexed by Topology.Index.
func PipeMesh(topo Topology) ([]Conns, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	mesh := make([]Conns, topo.Len())
	for i := range mesh {
		c := topo.Coord(i)
		for _, d := range outbound {
			j := topo.Index(topo.Neighbor(c, core.Moore.Offset(d)))
			a, b := net.Pipe()
			mesh[i][d] = a
			mesh[j][core.Moore.Inv(d)] = b
		}
	}
	return mesh, nil
}
