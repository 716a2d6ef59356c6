package halo

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gridsim/pkg/core"
	"gridsim/pkg/grid"
)

// ErrClusterFailed is returned by every Step after one has failed.
var ErrClusterFailed = errors.New("cluster failed in an earlier step")

// Cluster runs every tile of a topology in one process over a PipeMesh.
type Cluster[C, D, F any] struct {
	topo   Topology
	tw, th int
	tiles  []*Tile[C, D, F]
	mesh   []Conns
	failed error
}

// NewCluster partitions a logical width x height grid into topo tiles and
// links them in memory.
func NewCluster[C, D, F any](topo Topology, width, height int, cells []C, sim core.Sim[C, D, F], codec Codec, opts ...grid.Option) (*Cluster[C, D, F], error) {
	parts, tw, th, err := Partition(cells, width, height, topo)
	if err != nil {
		return nil, err
	}
	mesh, err := PipeMesh(topo)
	if err != nil {
		return nil, err
	}
	cl := &Cluster[C, D, F]{topo: topo, tw: tw, th: th, mesh: mesh}
	for i, part := range parts {
		g, err := grid.New(tw, th, sim.Directions(), part, grid.Halo, sim.CellPadding())
		if err != nil {
			cl.Close()
			return nil, err
		}
		tile, err := NewTile(topo.Coord(i), topo, g, sim, mesh[i].Links(), codec, opts...)
		if err != nil {
			cl.Close()
			return nil, err
		}
		cl.tiles = append(cl.tiles, tile)
	}
	return cl, nil
}

// Tiles returns the cluster's tiles, indexed by Topology.Index.
func (cl *Cluster[C, D, F]) Tiles() []*Tile[C, D, F] { return cl.tiles }

// Step advances every tile by one step concurrently. When a tile fails the
// mesh is torn down so its neighbors stop waiting on it, and the cluster
// refuses to step again.
func (cl *Cluster[C, D, F]) Step() error {
	if cl.failed != nil {
		return fmt.Errorf("%w: %w", ErrClusterFailed, cl.failed)
	}
	var g errgroup.Group
	for _, tile := range cl.tiles {
		g.Go(func() error {
			if err := tile.Step(); err != nil {
				cl.Close()
				return fmt.Errorf("tile %v: %w", tile.Coord(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cl.failed = err
		return err
	}
	return nil
}

// Cells assembles the logical grid from every tile's interior.
func (cl *Cluster[C, D, F]) Cells() []C {
	parts := make([][]C, len(cl.tiles))
	for i, tile := range cl.tiles {
		parts[i] = tile.Grid().Cells()
	}
	return Assemble(parts, cl.tw, cl.th, cl.topo)
}

// Close tears down the mesh.
func (cl *Cluster[C, D, F]) Close() error {
	var errs []error
	for i := range cl.mesh {
		errs = append(errs, cl.mesh[i].Close())
	}
	return errors.Join(errs...)
}
