package halo

import "fmt"

// Partition splits a row-major width x height cell array into one row-major
// array per tile, indexed by Topology.Index, and returns the tile size.
func Partition[C any](cells []C, width, height int, topo Topology) ([][]C, int, int, error) {
	if err := topo.Validate(); err != nil {
		return nil, 0, 0, err
	}
	if len(cells) != width*height {
		return nil, 0, 0, fmt.Errorf("%w: %d cells for %dx%d", ErrUneven, len(cells), width, height)
	}
	if width%topo.Cols != 0 || height%topo.Rows != 0 {
		return nil, 0, 0, fmt.Errorf("%w: %dx%d over %dx%d tiles", ErrUneven, width, height, topo.Cols, topo.Rows)
	}
	tw, th := width/topo.Cols, height/topo.Rows
	tiles := make([][]C, topo.Len())
	for i := range tiles {
		c := topo.Coord(i)
		tile := make([]C, 0, tw*th)
		for y := c.Y * th; y < (c.Y+1)*th; y++ {
			row := y*width + c.X*tw
			tile = append(tile, cells[row:row+tw]...)
		}
		tiles[i] = tile
	}
	return tiles, tw, th, nil
}

// Assemble is the inverse of Partition.
func Assemble[C any](tiles [][]C, tw, th int, topo Topology) []C {
	width := tw * topo.Cols
	cells := make([]C, width*th*topo.Rows)
	for i, tile := range tiles {
		c := topo.Coord(i)
		for y := 0; y < th; y++ {
			row := (c.Y*th+y)*width + c.X*tw
			copy(cells[row:row+tw], tile[y*tw:(y+1)*tw])
		}
	}
	return cells
}
