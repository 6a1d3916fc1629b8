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
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/terrain/output"
	"gonum.org/v1/gonum/floats"
)

// StatusWriter logs the model time and elevation range each time it runs.
// It does not keep its own schedule; wrap it with output.NewClassAdapter
// to run it at a fixed interval.
type StatusWriter struct {
	model *Model
	Log   logrus.FieldLogger
}

// NewStatusWriter creates a StatusWriter. It is an output.ClassAdapter
// constructor.
func NewStatusWriter(m output.Model) (output.Stepper, error) {
	mm, ok := m.(*Model)
	if !ok {
		return nil, fmt.Errorf("terrain: status writer requires a *terrain.Model, not %T", m)
	}
	return &StatusWriter{model: mm, Log: mm.log()}, nil
}

// RunOneStep logs the model status.
func (s *StatusWriter) RunOneStep() error {
	z, err := s.model.Grid.Field(ElevationField)
	if err != nil {
		return err
	}
	s.Log.WithFields(logrus.Fields{
		"time":          s.model.Time,
		"iteration":     s.model.Iteration(),
		"min_elevation": floats.Min(z),
		"max_elevation": floats.Max(z),
	}).Info("terrain status")
	return nil
}

// SaveGrid saves the model grid to a gob file named with the model
// output prefix and iteration in the model output directory. Files written
// this way are not tracked by any writer. It can be run at a fixed
// interval with output.NewFunctionAdapter.
func SaveGrid(m output.Model) error {
	mm, ok := m.(*Model)
	if !ok {
		return fmt.Errorf("terrain: SaveGrid requires a *terrain.Model, not %T", m)
	}
	if err := os.MkdirAll(mm.outputDir(), os.ModePerm); err != nil {
		return fmt.Errorf("terrain: creating output directory: %v", err)
	}
	path := filepath.Join(mm.outputDir(), fmt.Sprintf("%s_grid_iter-%05d.gob", mm.OutputPrefix(), mm.Iteration()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: creating grid file: %v", err)
	}
	if err := Save(f)(mm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
