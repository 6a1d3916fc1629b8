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
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered is returned when a Scheduler is advanced before
	// a TimeSource has been registered with it.
	ErrNotRegistered = errors.New("terrain/output: no output time source has been registered")

	// ErrAlreadyRegistered is returned when a second TimeSource is
	// registered with a Scheduler.
	ErrAlreadyRegistered = errors.New("terrain/output: an output time source is already registered")

	// ErrInvalidTime is returned when a TimeSource produces a value that is
	// not a finite number.
	ErrInvalidTime = errors.New("terrain/output: output time source produced a non-finite time")

	// ErrTooManySkips is returned when a TimeSource produces too many
	// consecutive times that are not later than the previous output time.
	ErrTooManySkips = errors.New("terrain/output: too many output times skipped")
)

// ScheduleError records which writer failed to schedule its next
// output time.
type ScheduleError struct {
	Writer string
	Err    error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("terrain/output: scheduling output for writer %s: %v", e.Writer, e.Err)
}

// Unwrap returns the underlying scheduling error.
func (e *ScheduleError) Unwrap() error { return e.Err }

// SkipWarning describes an output time that was skipped because it was not
// later than the previous output time.
type SkipWarning struct {
	Next, Prev float64
}

// Message returns the user-facing description of the skip.
func (w SkipWarning) Message() string {
	return fmt.Sprintf("Next output time %g is <= previous output time %g. Skipping...", w.Next, w.Prev)
}

func (w SkipWarning) String() string { return w.Message() }
