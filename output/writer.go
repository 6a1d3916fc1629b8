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

// Package output decides when a landscape evolution simulation should
// write output and keeps track of the files that output writers create.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Model is the part of a simulation that output writers depend on.
type Model interface {
	// StopTime is the time at which the simulation ends.
	StopTime() float64

	// OutputPrefix is prepended to all output file names.
	OutputPrefix() string

	// Iteration is the number of output pauses the simulation has taken.
	Iteration() int

	// Session holds the writers of the current run.
	Session() *Session
}

// Writer is an interface for types that write simulation output at
// scheduled times.
type Writer interface {
	ID() int
	Name() string

	// NextOutputTime returns the time at which the writer should next
	// run. ok is false when the writer is finished.
	NextOutputTime() (t float64, ok bool)

	// Advance moves the writer to its next output time.
	Advance() (t float64, ok bool, err error)

	// RunOneStep writes output for the current model state.
	RunOneStep() error

	// OutputFilepaths returns the files the writer has created, optionally
	// only those with extension ext (without the leading dot).
	OutputFilepaths(ext string) []string

	// DeleteOutputFiles deletes the files the writer has created,
	// optionally only those with extension ext.
	DeleteOutputFiles(ext string) error
}

// WriterConfig holds the settings common to all output writers.
type WriterConfig struct {
	// Name is used when creating output file names.
	Name string

	// AddID specifies whether the writer ID should be appended to the
	// name, in the form "-id{ID}". This is useful when there are multiple
	// writers of the same type.
	AddID bool

	// SaveFirstTimestep specifies whether the first output time is zero.
	SaveFirstTimestep bool

	// SaveLastTimestep specifies whether output is always written at the
	// simulation stop time.
	SaveLastTimestep bool

	// OutputDir is the directory output files are written to. If it is
	// empty, "output" in the working directory is used.
	OutputDir string
}

// DefaultWriterConfig returns the default writer settings.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Name:             "output-writer",
		AddID:            true,
		SaveLastTimestep: true,
	}
}

// Base implements the scheduling and file bookkeeping parts of Writer.
// Concrete writers embed it and add a RunOneStep method.
type Base struct {
	*Scheduler
	files

	model     Model
	id        int
	name      string
	outputDir string
}

// NewBase creates a Base for a writer of model m. The caller must register
// a TimeSource with the returned value before it is first advanced.
func NewBase(m Model, c WriterConfig) (*Base, error) {
	if m == nil {
		return nil, fmt.Errorf("terrain/output: output writers require a model")
	}
	b := &Base{
		Scheduler: NewScheduler(m.StopTime(), c.SaveFirstTimestep, c.SaveLastTimestep),
		model:     m,
		id:        m.Session().NextID(),
		name:      c.Name,
	}
	if b.name == "" {
		b.name = "output-writer"
	}
	if c.AddID {
		b.name += fmt.Sprintf("-id%d", b.id)
	}

	b.outputDir = c.OutputDir
	if b.outputDir == "" {
		b.outputDir = "output"
	}
	if err := os.MkdirAll(b.outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("terrain/output: creating output directory: %v", err)
	}
	return b, nil
}

// NewStaticBase creates a Base with the static schedule described by s
// already registered.
func NewStaticBase(m Model, c WriterConfig, s StaticConfig) (*Base, error) {
	src, err := NewStaticSource(s)
	if err != nil {
		return nil, err
	}
	b, err := NewBase(m, c)
	if err != nil {
		return nil, err
	}
	if err := b.Register(src); err != nil {
		return nil, err
	}
	return b, nil
}

// ID returns the writer ID.
func (b *Base) ID() int { return b.id }

// Name returns the writer name.
func (b *Base) Name() string { return b.name }

// Model returns the model the writer belongs to.
func (b *Base) Model() Model { return b.model }

// OutputDir returns the directory output files are written to.
func (b *Base) OutputDir() string { return b.outputDir }

// Advance moves the writer to its next output time. Errors are wrapped in
// a *ScheduleError naming the writer.
func (b *Base) Advance() (float64, bool, error) {
	t, ok, err := b.Scheduler.Advance()
	if err != nil {
		return 0, false, &ScheduleError{Writer: b.name, Err: err}
	}
	return t, ok, nil
}

// FilenamePrefix returns the file name prefix for the current model
// iteration, in the form "{model prefix}_{writer name}_iter-{iteration}".
func (b *Base) FilenamePrefix() string {
	return strings.Join([]string{
		b.model.OutputPrefix(),
		b.name,
		fmt.Sprintf("iter-%05d", b.model.Iteration()),
	}, "_")
}

// OutputPath returns the path in the output directory of a file named
// with FilenamePrefix and extension ext.
func (b *Base) OutputPath(ext string) string {
	return filepath.Join(b.outputDir, b.FilenamePrefix()+"."+strings.TrimPrefix(ext, "."))
}
