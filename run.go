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
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/terrain/output"
)

// Run runs the simulation from the current model time to the clock stop
// time. The simulation pauses at every time any writer is scheduled to
// write output, and the writers due at that time are run in the order
// they were added.
func (m *Model) Run() error {
	writers := m.Writers()
	for _, w := range writers {
		if _, _, err := w.Advance(); err != nil {
			return err
		}
	}
	if err := m.writeOutput(writers, true); err != nil {
		return err
	}
	for m.Time < m.Clock.Stop {
		pause := m.Clock.Stop
		for _, w := range writers {
			if t, ok := w.NextOutputTime(); ok && t > m.Time && t < pause {
				pause = t
			}
		}
		if err := m.RunFor(m.Clock.Step, pause-m.Time); err != nil {
			return err
		}
		m.Time = pause
		m.iteration++
		if err := m.writeOutput(writers, false); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput runs the writers whose next output time has been reached and
// advances their schedules. Output times before the current model time
// are skipped with a warning, except that at the start of the simulation
// a first output time of zero is written at the start time.
func (m *Model) writeOutput(writers []output.Writer, start bool) error {
	for _, w := range writers {
		t, ok := w.NextOutputTime()
		if ok && !(start && t == 0) {
			var err error
			if t, ok, err = m.skipPassed(w, false); err != nil {
				return err
			}
		}
		if !ok || t > m.Time {
			continue
		}
		if err := w.RunOneStep(); err != nil {
			return fmt.Errorf("terrain: writing output with %s at time %g: %v", w.Name(), m.Time, err)
		}
		if _, _, err := w.Advance(); err != nil {
			return err
		}
		if _, _, err := m.skipPassed(w, true); err != nil {
			return err
		}
	}
	return nil
}

// skipPassed advances w past output times that are before the current
// model time, or also equal to it if written is true, and returns its
// next output time.
func (m *Model) skipPassed(w output.Writer, written bool) (float64, bool, error) {
	t, ok := w.NextOutputTime()
	for ok && (t < m.Time || written && t == m.Time) {
		m.log().WithFields(logrus.Fields{
			"writer": w.Name(),
			"time":   m.Time,
		}).Warnf("skipping output time %g, which has already passed", t)
		var err error
		if t, ok, err = w.Advance(); err != nil {
			return 0, false, err
		}
	}
	return t, ok, nil
}

// RunFor advances the model by runtime in steps no longer than step.
// The last step is shortened so the model ends exactly at the requested
// time.
func (m *Model) RunFor(step, runtime float64) error {
	if !(step > 0) {
		return fmt.Errorf("terrain: step must be greater than zero but is %g", step)
	}
	if runtime <= 0 {
		return nil
	}
	end := m.Time + runtime
	n := int(math.Ceil(runtime/step - 1e-9))
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		dt := step
		if i == n-1 {
			dt = end - m.Time
		}
		if err := m.RunOneStep(dt); err != nil {
			return err
		}
	}
	m.Time = end
	return nil
}

// RunOneStep runs the RunFuncs for a single time step of length dt.
func (m *Model) RunOneStep(dt float64) error {
	m.Dt = dt
	for i, f := range m.RunFuncs {
		if err := f(m); err != nil {
			return fmt.Errorf("terrain: running function %d at time %g: %v", i, m.Time, err)
		}
	}
	m.Time += dt
	return nil
}

// StepProcesses returns a function that runs the given processes for
// each time step.
func StepProcesses(p ...Process) ModelManipulator {
	procs := Processes(p)
	return func(m *Model) error {
		return procs.RunOneStep(m.Dt)
	}
}

// SetInitialTopography returns a function that creates the elevation field
// if it does not exist and adds uniformly distributed random noise between
// zero and amplitude to the core nodes.
func SetInitialTopography(seed int64, amplitude float64) ModelManipulator {
	return func(m *Model) error {
		z, err := m.Grid.Field(ElevationField)
		if err != nil {
			z = m.Grid.AddZeros(ElevationField)
		}
		r := rand.New(rand.NewSource(seed))
		for _, i := range m.Grid.CoreNodes() {
			z[i] += r.Float64() * amplitude
		}
		return nil
	}
}

// Log returns a function that logs the simulation status at each
// time step.
func Log(l logrus.FieldLogger) ModelManipulator {
	startTime := time.Now()
	stepTime := time.Now()
	step := 0
	return func(m *Model) error {
		step++
		l.WithFields(logrus.Fields{
			"step":      step,
			"time":      m.Time,
			"dt":        m.Dt,
			"iteration": m.iteration,
			"walltime":  time.Since(startTime).Hours(),
			"Δwalltime": time.Since(stepTime).Seconds(),
		}).Debug("terrain time step")
		stepTime = time.Now()
		return nil
	}
}
