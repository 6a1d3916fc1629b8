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
)

// TimeSource is an interface for types that produce a sequence of
// candidate output times. The sequence may be finite or infinite and is
// not required to be sorted.
type TimeSource interface {
	// Next returns the next candidate time, or io.EOF when there
	// are no more times.
	Next() (float64, error)
}

// SourceFunc is an adapter that allows an ordinary function to be used
// as a TimeSource.
type SourceFunc func() (float64, error)

// Next calls f().
func (f SourceFunc) Next() (float64, error) { return f() }

// Times creates a TimeSource that returns the given times in order.
func Times(times ...float64) TimeSource {
	t := make([]float64, len(times))
	copy(t, times)
	return &sliceSource{times: t}
}

type sliceSource struct {
	times []float64
	i     int
}

func (s *sliceSource) Next() (float64, error) {
	if s.i == len(s.times) {
		return 0, io.EOF
	}
	t := s.times[s.i]
	s.i++
	return t, nil
}

// Every creates an infinite TimeSource returning interval, 2*interval,
// 3*interval, and so on. Each time is computed as a multiple of interval
// so that floating point error does not accumulate.
func Every(interval float64) TimeSource {
	return &everySource{interval: interval}
}

type everySource struct {
	interval float64
	k        int
}

func (s *everySource) Next() (float64, error) {
	s.k++
	return float64(s.k) * s.interval, nil
}

// Intervals creates a TimeSource whose times are the cumulative sums of
// intervals. If repeat is true the intervals are cycled forever. A single
// interval is always repeated.
func Intervals(intervals []float64, repeat bool) TimeSource {
	if len(intervals) == 1 {
		return Every(intervals[0])
	}
	iv := make([]float64, len(intervals))
	copy(iv, intervals)
	return &intervalSource{intervals: iv, repeat: repeat}
}

type intervalSource struct {
	intervals []float64
	repeat    bool
	i         int
	t         float64
}

func (s *intervalSource) Next() (float64, error) {
	if len(s.intervals) == 0 {
		return 0, io.EOF
	}
	if s.i == len(s.intervals) {
		if !s.repeat {
			return 0, io.EOF
		}
		s.i = 0
	}
	s.t += s.intervals[s.i]
	s.i++
	return s.t, nil
}

// StaticConfig specifies a fixed schedule of output times, either as a set
// of intervals between outputs or as a list of explicit output times.
// Exactly one of Intervals and Times must be set.
type StaticConfig struct {
	// Intervals are the durations between consecutive outputs.
	Intervals []float64

	// IntervalsRepeat specifies whether Intervals should be cycled
	// until the end of the simulation.
	IntervalsRepeat bool

	// Times are explicit output times.
	Times []float64
}

// NewStaticSource checks c and creates the TimeSource it describes.
func NewStaticSource(c StaticConfig) (TimeSource, error) {
	switch {
	case len(c.Intervals) > 0 && len(c.Times) > 0:
		return nil, fmt.Errorf("terrain/output: only one of output intervals and output times may be specified")
	case len(c.Intervals) > 0:
		for _, iv := range c.Intervals {
			if !(iv > 0) {
				return nil, fmt.Errorf("terrain/output: output intervals must be greater than zero but one is %g", iv)
			}
		}
		return Intervals(c.Intervals, c.IntervalsRepeat), nil
	case len(c.Times) > 0:
		return Times(c.Times...), nil
	default:
		return nil, fmt.Errorf("terrain/output: either output intervals or output times must be specified")
	}
}
