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

package output

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// MaxSkips is the number of consecutive non-increasing times a TimeSource
// may produce in a single call to Advance. Reaching it is an error.
const MaxSkips = 5

// Scheduler decides the simulation times at which an output writer
// should create output. It wraps a TimeSource, skipping times that are
// not later than the previous output time and clamping times that are
// past the end of the simulation.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	// Log receives skip warnings. It defaults to logrus.StandardLogger().
	Log logrus.FieldLogger

	stopTime  float64
	saveFirst bool
	saveLast  bool

	source TimeSource

	next, prev       float64
	hasNext, hasPrev bool
	exhausted        bool
}

// NewScheduler creates a new Scheduler for a simulation ending at
// stopTime. If saveFirstTimestep is true, the first output time is
// zero regardless of the registered TimeSource. If saveLastTimestep is
// true, stopTime is always an output time, even when the TimeSource
// ends early or jumps past it.
func NewScheduler(stopTime float64, saveFirstTimestep, saveLastTimestep bool) *Scheduler {
	return &Scheduler{
		Log:       logrus.StandardLogger(),
		stopTime:  stopTime,
		saveFirst: saveFirstTimestep,
		saveLast:  saveLastTimestep,
	}
}

// Register sets the TimeSource for s. It must be called exactly once,
// before the first call to Advance.
func (s *Scheduler) Register(src TimeSource) error {
	if s.source != nil {
		return ErrAlreadyRegistered
	}
	if src == nil {
		return fmt.Errorf("terrain/output: registering a nil output time source")
	}
	s.source = src
	return nil
}

// Registered returns whether a TimeSource has been registered.
func (s *Scheduler) Registered() bool { return s.source != nil }

// StopTime returns the simulation end time.
func (s *Scheduler) StopTime() float64 { return s.stopTime }

// NextOutputTime returns the time when output is next due. ok is false
// if Advance has not been called yet or the schedule is finished.
// It does not advance the schedule.
func (s *Scheduler) NextOutputTime() (t float64, ok bool) { return s.next, s.hasNext }

// PrevOutputTime returns the last output time that has been consumed.
// ok is false if no output time has been consumed yet.
func (s *Scheduler) PrevOutputTime() (t float64, ok bool) { return s.prev, s.hasPrev }

// Exhausted returns whether the schedule is finished.
func (s *Scheduler) Exhausted() bool { return s.exhausted }

// Advance consumes the pending output time, if any, and moves to the next
// one. It returns the new output time, or ok == false if there are no
// more output times for this simulation. Once Advance has returned
// ok == false, it always does.
func (s *Scheduler) Advance() (t float64, ok bool, err error) {
	if s.source == nil {
		return 0, false, ErrNotRegistered
	}
	if s.exhausted {
		return 0, false, nil
	}

	if s.hasNext {
		if s.next > s.stopTime {
			return 0, false, fmt.Errorf("terrain/output: pending output time %g is after stop time %g", s.next, s.stopTime)
		}
		s.prev, s.hasPrev = s.next, true
	}

	if s.hasNext && s.next == s.stopTime {
		// The output at the stop time has already happened. The source may
		// still have values, but they can only be out of order now.
		ok = false
	} else {
		t, ok, err = s.resolve()
		if err != nil {
			return 0, false, err
		}
	}

	if !ok {
		s.exhausted = true
		t = 0
	}
	s.next, s.hasNext = t, ok
	return t, ok, nil
}

// resolve pulls values from the source until it finds a valid next time,
// the source ends, or too many values have been skipped.
func (s *Scheduler) resolve() (float64, bool, error) {
	if s.saveFirst {
		s.saveFirst = false
		if s.stopTime < 0 {
			// The simulation ends before time zero.
			return s.finalTime()
		}
		return 0, true, nil
	}

	for skips := 0; ; {
		t, err := s.source.Next()
		if err == io.EOF {
			return s.finalTime()
		} else if err != nil {
			return 0, false, fmt.Errorf("terrain/output: getting next output time: %v", err)
		}
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false, fmt.Errorf("%w: got %g", ErrInvalidTime, t)
		}

		switch {
		case t > s.stopTime:
			// The source is longer than the simulation.
			return s.finalTime()
		case s.hasPrev && t <= s.prev:
			skips++
			if skips >= MaxSkips {
				return 0, false, ErrTooManySkips
			}
			if !(t == 0 && s.prev == 0) {
				w := SkipWarning{Next: t, Prev: s.prev}
				s.Log.WithFields(logrus.Fields{
					"next": w.Next,
					"prev": w.Prev,
				}).Warn(w.Message())
			}
		default:
			return t, true, nil
		}
	}
}

// finalTime returns the stop time if it still needs to be output.
func (s *Scheduler) finalTime() (float64, bool, error) {
	if s.saveLast && (!s.hasPrev || s.prev < s.stopTime) {
		return s.stopTime, true, nil
	}
	return 0, false, nil
}
