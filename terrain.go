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

// Package terrain is a landscape evolution model. It advances a
// topographic surface through time under uplift, stream power erosion
// and hillslope diffusion, and writes output at scheduled model times.
package terrain

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/terrain/output"
)

// Version gives the version number.
const Version = "0.3.0"

// ModelManipulator is a class of functions that operate on the entire
// model.
type ModelManipulator func(m *Model) error

// Model holds the current state of a simulation.
type Model struct {
	// Clock specifies the start, stop and step of the simulation.
	Clock Clock

	// Grid is the computational grid.
	Grid *RasterGrid

	// InitFuncs are run once when the model is initialized.
	InitFuncs []ModelManipulator

	// RunFuncs are run at every time step, in order.
	RunFuncs []ModelManipulator

	// CleanupFuncs are run once when the simulation is finished.
	CleanupFuncs []ModelManipulator

	// Prefix is prepended to the names of output files.
	// It defaults to "terrain".
	Prefix string

	// OutputDir is the directory where writers that do not manage their
	// own files save output. It defaults to "output".
	OutputDir string

	// Log receives status messages. It defaults to
	// logrus.StandardLogger().
	Log logrus.FieldLogger

	// Time is the current model time.
	Time float64

	// Dt is the duration of the current time step.
	Dt float64

	iteration int
	session   *output.Session
}

// StopTime returns the time at which the simulation ends.
func (m *Model) StopTime() float64 { return m.Clock.Stop }

// OutputPrefix returns the prefix for output file names.
func (m *Model) OutputPrefix() string {
	if m.Prefix == "" {
		return "terrain"
	}
	return m.Prefix
}

// Iteration returns the number of output pauses the simulation has taken.
func (m *Model) Iteration() int { return m.iteration }

// Session returns the output writers of this simulation.
func (m *Model) Session() *output.Session {
	if m.session == nil {
		m.session = output.NewSession()
	}
	return m.session
}

// AddWriter adds output writers to the simulation.
func (m *Model) AddWriter(w ...output.Writer) {
	for _, ww := range w {
		m.Session().Add(ww)
	}
}

// Writers returns the output writers of the simulation.
func (m *Model) Writers() []output.Writer { return m.Session().Writers() }

func (m *Model) log() logrus.FieldLogger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

// outputDir returns the directory for unmanaged output files.
func (m *Model) outputDir() string {
	if m.OutputDir == "" {
		return "output"
	}
	return m.OutputDir
}

// Init checks the clock, sets the model time to the start time, and
// runs the InitFuncs.
func (m *Model) Init() error {
	if err := m.Clock.Check(); err != nil {
		return err
	}
	if m.Grid == nil {
		return fmt.Errorf("terrain: model has no grid")
	}
	m.Time = m.Clock.Start
	m.iteration = 0
	for i, f := range m.InitFuncs {
		if err := f(m); err != nil {
			return fmt.Errorf("terrain: running init function %d: %v", i, err)
		}
	}
	return nil
}

// Cleanup runs the CleanupFuncs.
func (m *Model) Cleanup() error {
	for i, f := range m.CleanupFuncs {
		if err := f(m); err != nil {
			return fmt.Errorf("terrain: running cleanup function %d: %v", i, err)
		}
	}
	return nil
}

// RemoveOutputFiles deletes the output files of all writers with extension
// ext, or all of their files if ext is empty. Every writer is attempted
// even if some fail.
func (m *Model) RemoveOutputFiles(ext string) error {
	var firstErr error
	for _, w := range m.Writers() {
		if err := w.DeleteOutputFiles(ext); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
