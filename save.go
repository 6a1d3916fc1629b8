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
	"encoding/gob"
	"fmt"
	"io"
)

// gridState is the saved form of a model.
type gridState struct {
	NRows, NCols int
	Dx           float64
	Time         float64
	Fields       map[string][]float64
}

// Save returns a function that saves the grid and model time to a gob file
// (format description at https://golang.org/pkg/encoding/gob/).
func Save(w io.Writer) ModelManipulator {
	return func(m *Model) error {
		s := gridState{
			NRows:  m.Grid.NRows,
			NCols:  m.Grid.NCols,
			Dx:     m.Grid.Dx,
			Time:   m.Time,
			Fields: m.Grid.fields,
		}
		if err := gob.NewEncoder(w).Encode(s); err != nil {
			return fmt.Errorf("terrain.Model.Save: %v", err)
		}
		return nil
	}
}

// Load returns a function that sets the grid fields of a model to those
// previously saved with Save. The saved grid must have the same shape as
// the model grid. The model time is not changed.
func Load(r io.Reader) ModelManipulator {
	return func(m *Model) error {
		g, err := LoadGrid(r)
		if err != nil {
			return err
		}
		if g.NRows != m.Grid.NRows || g.NCols != m.Grid.NCols {
			return fmt.Errorf("terrain.Model.Load: saved grid is %dx%d but model grid is %dx%d",
				g.NRows, g.NCols, m.Grid.NRows, m.Grid.NCols)
		}
		for name, f := range g.fields {
			if dst, ok := m.Grid.fields[name]; ok {
				copy(dst, f)
			} else {
				m.Grid.fields[name] = f
			}
		}
		return nil
	}
}

// LoadGrid reads a grid previously saved with Save.
func LoadGrid(r io.Reader) (*RasterGrid, error) {
	var s gridState
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("terrain.LoadGrid: %v", err)
	}
	g, err := NewRasterGrid(s.NRows, s.NCols, s.Dx)
	if err != nil {
		return nil, fmt.Errorf("terrain.LoadGrid: %v", err)
	}
	for name, f := range s.Fields {
		if len(f) != g.NumNodes() {
			return nil, fmt.Errorf("terrain.LoadGrid: field %s has %d values but the grid has %d nodes", name, len(f), g.NumNodes())
		}
		g.fields[name] = f
	}
	return g, nil
}
