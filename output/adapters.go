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

import "fmt"

// Stepper is implemented by older output writers that manage their own
// output but not their own schedule.
type Stepper interface {
	RunOneStep() error
}

// ClassAdapter runs an older Stepper-style writer at a fixed interval.
type ClassAdapter struct {
	*Base
	Stepper Stepper
}

// NewClassAdapter creates a ClassAdapter that runs the Stepper created by
// newStepper every interval time units. If c.Name is empty,
// "class-output-writer" is used.
func NewClassAdapter(m Model, interval float64, newStepper func(Model) (Stepper, error), c WriterConfig) (*ClassAdapter, error) {
	if newStepper == nil {
		return nil, fmt.Errorf("terrain/output: class adapter requires a writer constructor")
	}
	if c.Name == "" {
		c.Name = "class-output-writer"
	}
	c.AddID = true
	b, err := NewStaticBase(m, c, StaticConfig{Intervals: []float64{interval}})
	if err != nil {
		return nil, err
	}
	s, err := newStepper(m)
	if err != nil {
		return nil, fmt.Errorf("terrain/output: creating adapted writer: %v", err)
	}
	return &ClassAdapter{Base: b, Stepper: s}, nil
}

// RunOneStep runs the adapted writer.
func (a *ClassAdapter) RunOneStep() error { return a.Stepper.RunOneStep() }

// FunctionAdapter runs an older function-style writer at a fixed interval.
type FunctionAdapter struct {
	*Base
	Func func(Model) error
}

// NewFunctionAdapter creates a FunctionAdapter that calls f with the model
// every interval time units. If c.Name is empty, "function-output-writer"
// is used.
func NewFunctionAdapter(m Model, interval float64, f func(Model) error, c WriterConfig) (*FunctionAdapter, error) {
	if f == nil {
		return nil, fmt.Errorf("terrain/output: function adapter requires a writer function")
	}
	if c.Name == "" {
		c.Name = "function-output-writer"
	}
	c.AddID = true
	b, err := NewStaticBase(m, c, StaticConfig{Intervals: []float64{interval}})
	if err != nil {
		return nil, err
	}
	return &FunctionAdapter{Base: b, Func: f}, nil
}

// RunOneStep calls the adapted function with the model.
func (a *FunctionAdapter) RunOneStep() error { return a.Func(a.Model()) }
