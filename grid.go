/*
Copyright © 2019 the Terrain authors.
This file is part of Terrain.

Terrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Terrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Terrain.  If not, see <http://www.gnu.org/licenses/>.
*/

package terrain

import (
	"fmt"
	"sort"
)

// Names of the grid fields used by the model.
const (
	ElevationField    = "topographic__elevation"
	DrainageAreaField = "drainage_area"
	ReceiverField     = "flow__receiver_node"
)

// RasterGrid is a regular grid of square cells stored in row-major order.
// Nodes along the perimeter are fixed-value boundary nodes; the rest are
// core nodes.
type RasterGrid struct {
	NRows, NCols int
	Dx           float64 // node spacing

	fields map[string][]float64
}

// NewRasterGrid creates a grid with the given shape and node spacing.
func NewRasterGrid(nrows, ncols int, dx float64) (*RasterGrid, error) {
	if nrows < 3 || ncols < 3 {
		return nil, fmt.Errorf("terrain: grid must have at least 3 rows and 3 columns but has %d and %d", nrows, ncols)
	}
	if !(dx > 0) {
		return nil, fmt.Errorf("terrain: grid spacing must be greater than zero but is %g", dx)
	}
	return &RasterGrid{
		NRows:  nrows,
		NCols:  ncols,
		Dx:     dx,
		fields: make(map[string][]float64),
	}, nil
}

// NumNodes returns the number of nodes in the grid.
func (g *RasterGrid) NumNodes() int { return g.NRows * g.NCols }

// AddZeros adds a field of zeros called name, replacing any existing
// field with the same name, and returns it.
func (g *RasterGrid) AddZeros(name string) []float64 {
	f := make([]float64, g.NumNodes())
	g.fields[name] = f
	return f
}

// HasField returns whether the grid has a field called name.
func (g *RasterGrid) HasField(name string) bool {
	_, ok := g.fields[name]
	return ok
}

// Field returns the field called name. Changes to the returned
// slice change the field.
func (g *RasterGrid) Field(name string) ([]float64, error) {
	f, ok := g.fields[name]
	if !ok {
		return nil, fmt.Errorf("terrain: grid has no field %q", name)
	}
	return f, nil
}

// FieldNames returns the names of the grid fields in sorted order.
func (g *RasterGrid) FieldNames() []string {
	names := make([]string, 0, len(g.fields))
	for n := range g.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsBoundary returns whether node i is on the grid perimeter.
func (g *RasterGrid) IsBoundary(i int) bool {
	r, c := i/g.NCols, i%g.NCols
	return r == 0 || c == 0 || r == g.NRows-1 || c == g.NCols-1
}

// CoreNodes returns the indices of the nodes that are not on the
// perimeter.
func (g *RasterGrid) CoreNodes() []int {
	o := make([]int, 0, (g.NRows-2)*(g.NCols-2))
	for r := 1; r < g.NRows-1; r++ {
		for c := 1; c < g.NCols-1; c++ {
			o = append(o, r*g.NCols+c)
		}
	}
	return o
}

// Neighbors appends the indices of the nodes to the east, north, west and
// south of node i to buf and returns it. Nodes outside the grid are
// left out.
func (g *RasterGrid) Neighbors(i int, buf []int) []int {
	buf = buf[:0]
	r, c := i/g.NCols, i%g.NCols
	if c < g.NCols-1 {
		buf = append(buf, i+1)
	}
	if r < g.NRows-1 {
		buf = append(buf, i+g.NCols)
	}
	if c > 0 {
		buf = append(buf, i-1)
	}
	if r > 0 {
		buf = append(buf, i-g.NCols)
	}
	return buf
}

// Row returns a copy of row r of the field called name.
func (g *RasterGrid) Row(name string, r int) ([]float64, error) {
	f, err := g.Field(name)
	if err != nil {
		return nil, err
	}
	if r < 0 || r >= g.NRows {
		return nil, fmt.Errorf("terrain: row %d out of range [0, %d)", r, g.NRows)
	}
	o := make([]float64, g.NCols)
	copy(o, f[r*g.NCols:(r+1)*g.NCols])
	return o, nil
}
