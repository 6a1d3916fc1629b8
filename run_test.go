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
	"io/ioutil"
	"math"
	"os"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/terrain/output"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "terrain")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// recordWriter records the model time and iteration each time it runs.
type recordWriter struct {
	*output.Base
	m      *Model
	events *[]string
}

func (w *recordWriter) RunOneStep() error {
	*w.events = append(*w.events, fmt.Sprintf("%s@%g#%d", w.Name(), w.m.Time, w.m.Iteration()))
	return nil
}

func newRecordWriter(t *testing.T, m *Model, name string, first, last bool, s output.StaticConfig, events *[]string) *recordWriter {
	c := output.WriterConfig{
		Name:              name,
		SaveFirstTimestep: first,
		SaveLastTimestep:  last,
		OutputDir:         m.OutputDir,
	}
	b, err := output.NewStaticBase(m, c, s)
	if err != nil {
		t.Fatal(err)
	}
	return &recordWriter{Base: b, m: m, events: events}
}

func newTestModel(t *testing.T, clock Clock, dir string) *Model {
	g, err := NewRasterGrid(5, 6, 10)
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	return &Model{
		Clock:     clock,
		Grid:      g,
		OutputDir: dir,
		Log:       logger,
	}
}

func TestRun(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(t, Clock{Start: 0, Stop: 10, Step: 1}, dir)
	var steps []float64
	m.RunFuncs = []ModelManipulator{
		func(m *Model) error {
			steps = append(steps, m.Dt)
			return nil
		},
	}
	var events []string
	m.AddWriter(
		newRecordWriter(t, m, "a", true, true, output.StaticConfig{Intervals: []float64{3}}, &events),
		newRecordWriter(t, m, "b", false, false, output.StaticConfig{Times: []float64{2.5, 6}}, &events),
	)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	want := []string{"a@0#0", "b@2.5#1", "a@3#2", "a@6#3", "b@6#3", "a@9#4", "a@10#5"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events:\nhave %v\nwant %v", events, want)
	}
	if m.Time != 10 {
		t.Errorf("final time %g", m.Time)
	}
	wantSteps := []float64{1, 1, 0.5, 0.5, 1, 1, 1, 1, 1, 1, 1}
	if len(steps) != len(wantSteps) {
		t.Fatalf("steps: have %v, want %v", steps, wantSteps)
	}
	for i, s := range steps {
		if different(s, wantSteps[i]) {
			t.Errorf("step %d: have %g, want %g", i, s, wantSteps[i])
		}
	}
	for _, w := range m.Writers() {
		if _, ok := w.NextOutputTime(); ok {
			t.Errorf("writer %s has output remaining", w.Name())
		}
	}
}

func TestRunNoWriters(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(t, Clock{Start: 5, Stop: 8, Step: 2}, dir)
	n := 0
	m.RunFuncs = []ModelManipulator{func(*Model) error { n++; return nil }}
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	if n != 2 || m.Time != 8 || m.Iteration() != 1 {
		t.Errorf("steps %d, time %g, iteration %d", n, m.Time, m.Iteration())
	}
}

func TestRunError(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(t, Clock{Start: 0, Stop: 10, Step: 1}, dir)
	var events []string
	w := newRecordWriter(t, m, "bad", false, true, output.StaticConfig{Times: []float64{1, 0.9, 0.8, 0.7, 0.6, 0.5}}, &events)
	m.AddWriter(w)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	err := m.Run()
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*output.ScheduleError); !ok {
		t.Errorf("have error %T, want *output.ScheduleError", err)
	}
	if !reflect.DeepEqual(events, []string{"bad@1#1"}) {
		t.Errorf("events: %v", events)
	}
}

func TestRunFor(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(t, Clock{Start: 0, Stop: 10, Step: 1}, dir)
	var steps []float64
	m.RunFuncs = []ModelManipulator{func(m *Model) error {
		steps = append(steps, m.Dt)
		return nil
	}}
	if err := m.RunFor(0.3, 1); err != nil {
		t.Fatal(err)
	}
	if len(steps) != 4 || different(steps[3], 0.1) {
		t.Errorf("steps: %v", steps)
	}
	if m.Time != 1 {
		t.Errorf("time: %g", m.Time)
	}
	if err := m.RunFor(0, 1); err == nil {
		t.Error("zero step should be an error")
	}

	// A runtime much shorter than the step still takes one step.
	steps = nil
	if err := m.RunFor(1e6, 1e-4); err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 || different(steps[0], 1e-4) {
		t.Errorf("short runtime steps: %v", steps)
	}
	if different(m.Time, 1+1e-4) {
		t.Errorf("time after short runtime: %g", m.Time)
	}
}

func TestRunPassedOutputTimes(t *testing.T) {
	for _, tc := range []struct {
		name     string
		first    bool
		want     []string
		warnings int
	}{
		{name: "without first timestep", want: []string{"a@7#1"}, warnings: 1},
		{name: "with first timestep", first: true, want: []string{"a@5#0", "a@7#1"}, warnings: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := tempDir(t)
			defer os.RemoveAll(dir)
			m := newTestModel(t, Clock{Start: 5, Stop: 10, Step: 1}, dir)
			logger, hook := test.NewNullLogger()
			m.Log = logger
			var events []string
			m.AddWriter(newRecordWriter(t, m, "a", tc.first, false, output.StaticConfig{Times: []float64{2, 7}}, &events))
			if err := m.Init(); err != nil {
				t.Fatal(err)
			}
			if err := m.Run(); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(events, tc.want) {
				t.Errorf("events: have %v, want %v", events, tc.want)
			}
			if n := len(hook.AllEntries()); n != tc.warnings {
				t.Errorf("warnings: have %d, want %d", n, tc.warnings)
			}
		})
	}
}

func TestClockCheck(t *testing.T) {
	for i, c := range []Clock{
		{Start: 0, Stop: -1, Step: 1},
		{Start: 0, Stop: 1, Step: 0},
		{Start: math.NaN(), Stop: 1, Step: 1},
		{Start: 0, Stop: math.Inf(1), Step: 1},
	} {
		if err := c.Check(); err == nil {
			t.Errorf("clock %d: expected an error", i)
		}
	}
	if err := (Clock{Start: 0, Stop: 0, Step: 1}).Check(); err != nil {
		t.Error(err)
	}
}

func TestBasic(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	g, err := NewRasterGrid(8, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	m, err := Basic(Clock{Start: 0, Stop: 2000, Step: 10}, g, DefaultBasicParams(),
		SetInitialTopography(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	m.Log = logger
	m.OutputDir = dir
	m.RunFuncs = append(m.RunFuncs, Log(logger))

	z, _ := g.Field(ElevationField)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	initial := append([]float64{}, z...)
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	changed := false
	for i, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("node %d: elevation %g", i, v)
		}
		if g.IsBoundary(i) && v != 0 {
			t.Errorf("boundary node %d: elevation %g", i, v)
		}
		if v != initial[i] {
			changed = true
		}
	}
	if !changed {
		t.Error("elevation did not change")
	}
	if n := len(hook.AllEntries()); n != 200 {
		t.Errorf("logged %d steps, want 200", n)
	}

	if _, err := Basic(Clock{}, nil, DefaultBasicParams()); err == nil {
		t.Error("missing grid should be an error")
	}
}

func TestSetInitialTopography(t *testing.T) {
	run := func() []float64 {
		g, err := NewRasterGrid(4, 4, 1)
		if err != nil {
			t.Fatal(err)
		}
		m := &Model{Clock: Clock{Stop: 1, Step: 1}, Grid: g,
			InitFuncs: []ModelManipulator{SetInitialTopography(7, 2)}}
		if err := m.Init(); err != nil {
			t.Fatal(err)
		}
		z, _ := g.Field(ElevationField)
		return z
	}
	z1, z2 := run(), run()
	if !reflect.DeepEqual(z1, z2) {
		t.Error("the same seed should give the same topography")
	}
	for _, i := range []int{5, 6, 9, 10} {
		if z1[i] < 0 || z1[i] >= 2 {
			t.Errorf("node %d: elevation %g", i, z1[i])
		}
	}
	if z1[0] != 0 {
		t.Errorf("boundary elevation %g", z1[0])
	}
}
