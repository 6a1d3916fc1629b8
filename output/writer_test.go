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
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

type testModel struct {
	stop      float64
	prefix    string
	iteration int
	session   *Session
}

func newTestModel(stop float64) *testModel {
	return &testModel{stop: stop, prefix: "model", session: NewSession()}
}

func (m *testModel) StopTime() float64 { return m.stop }
func (m *testModel) OutputPrefix() string { return m.prefix }
func (m *testModel) Iteration() int { return m.iteration }
func (m *testModel) Session() *Session { return m.session }

// touchWriter creates an empty file each time it runs.
type touchWriter struct {
	*Base
	ext  string
	runs int
}

func (w *touchWriter) RunOneStep() error {
	w.runs++
	p := w.OutputPath(w.ext)
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	w.RegisterOutputFilepath(p)
	return f.Close()
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "terrain_output")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestWriterNames(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)

	c := DefaultWriterConfig()
	c.OutputDir = dir
	b0, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}
	b1, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}
	c.Name = "netcdf"
	c.AddID = false
	b2, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}

	for i, b := range []*Base{b0, b1, b2} {
		if b.ID() != i {
			t.Errorf("writer %d: id %d", i, b.ID())
		}
	}
	names := []string{b0.Name(), b1.Name(), b2.Name()}
	want := []string{"output-writer-id0", "output-writer-id1", "netcdf"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names: have %v, want %v", names, want)
	}

	m.iteration = 7
	if p := b0.FilenamePrefix(); p != "model_output-writer-id0_iter-00007" {
		t.Errorf("prefix: %s", p)
	}
	if p := b2.OutputPath(".nc"); p != filepath.Join(dir, "model_netcdf_iter-00007.nc") {
		t.Errorf("path: %s", p)
	}

	// A new run starts counting again.
	b3, err := NewBase(newTestModel(10), c)
	if err != nil {
		t.Fatal(err)
	}
	if b3.ID() != 0 {
		t.Errorf("new session id: %d", b3.ID())
	}
}

func TestWriterRegistry(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)
	c := DefaultWriterConfig()
	c.OutputDir = dir
	b, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"a.nc", "b.png", "a.nc", "c.nc", "noext"} {
		b.RegisterOutputFilepath(p)
	}
	if !b.IsFileRegistered("b.png") || b.IsFileRegistered("d.nc") {
		t.Error("registration check failed")
	}
	tests := []struct {
		ext  string
		want []string
	}{
		{"", []string{"a.nc", "b.png", "c.nc", "noext"}},
		{"nc", []string{"a.nc", "c.nc"}},
		{".png", []string{"b.png"}},
		{"txt", nil},
	}
	for _, tt := range tests {
		have := b.OutputFilepaths(tt.ext)
		if !reflect.DeepEqual(have, tt.want) {
			t.Errorf("%q: have %v, want %v", tt.ext, have, tt.want)
		}
	}

	// The returned slice is a copy.
	fs := b.OutputFilepaths("")
	fs[0] = "changed"
	if b.OutputFilepaths("")[0] != "a.nc" {
		t.Error("registry modified through returned slice")
	}
}

func TestDeleteOutputFiles(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)
	c := DefaultWriterConfig()
	c.OutputDir = dir
	b, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	b.Log = logger

	var paths []string
	for _, n := range []string{"a.nc", "b.png", "c.nc"} {
		p := filepath.Join(dir, n)
		if err := ioutil.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		b.RegisterOutputFilepath(p)
		paths = append(paths, p)
	}
	// A non-empty directory cannot be removed.
	locked := filepath.Join(dir, "locked.nc")
	if err := os.Mkdir(locked, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(locked, "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	b.RegisterOutputFilepath(locked)
	// A file that is already gone is simply forgotten.
	b.RegisterOutputFilepath(filepath.Join(dir, "missing.nc"))

	err = b.DeleteOutputFiles("nc")
	if err == nil {
		t.Error("expected an error for the file that could not be deleted")
	}
	if len(hook.AllEntries()) != 1 {
		t.Errorf("have %d log entries, want 1", len(hook.AllEntries()))
	}
	for _, p := range []string{paths[0], paths[2]} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should have been deleted", p)
		}
	}
	if _, err := os.Stat(paths[1]); err != nil {
		t.Errorf("%s should not have been deleted: %v", paths[1], err)
	}
	want := []string{paths[1], locked}
	if have := b.OutputFilepaths(""); !reflect.DeepEqual(have, want) {
		t.Errorf("remaining files: have %v, want %v", have, want)
	}

	if err := os.RemoveAll(locked); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteOutputFiles(""); err != nil {
		t.Error(err)
	}
	if have := b.OutputFilepaths(""); len(have) != 0 {
		t.Errorf("files remain registered: %v", have)
	}
}

func TestWriterAdvance(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)
	c := DefaultWriterConfig()
	c.OutputDir = dir
	b, err := NewBase(m, c)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = b.Advance()
	var se *ScheduleError
	if !errors.As(err, &se) || se.Writer != b.Name() {
		t.Errorf("have error %v, want a ScheduleError", err)
	}
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("have error %v, want %v", err, ErrNotRegistered)
	}
}

func TestStaticWriter(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)
	c := DefaultWriterConfig()
	c.OutputDir = dir
	c.SaveFirstTimestep = true
	b, err := NewStaticBase(m, c, StaticConfig{Intervals: []float64{4}})
	if err != nil {
		t.Fatal(err)
	}
	w := &touchWriter{Base: b, ext: "txt"}
	m.Session().Add(w)
	m.Session().Add(w)
	if n := len(m.Session().Writers()); n != 1 {
		t.Errorf("session has %d writers, want 1", n)
	}

	var times []float64
	for {
		tt, ok, err := w.Advance()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		times = append(times, tt)
		m.iteration++
		if err := w.RunOneStep(); err != nil {
			t.Fatal(err)
		}
	}
	sequenceEqual(t, times, []float64{0, 4, 8, 10})
	if fs := w.OutputFilepaths("txt"); len(fs) != 4 {
		t.Errorf("have %d files, want 4", len(fs))
	}
	if err := w.DeleteOutputFiles(""); err != nil {
		t.Error(err)
	}
}

func TestNewStaticSource(t *testing.T) {
	bad := []StaticConfig{
		{},
		{Intervals: []float64{1}, Times: []float64{1}},
		{Intervals: []float64{1, 0}},
		{Intervals: []float64{-1}},
	}
	for i, c := range bad {
		if _, err := NewStaticSource(c); err == nil {
			t.Errorf("config %d: expected an error", i)
		}
	}
}

type legacyWriter struct {
	m    Model
	runs int
}

func (l *legacyWriter) RunOneStep() error {
	l.runs++
	return nil
}

func TestAdapters(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	m := newTestModel(10)
	c := DefaultWriterConfig()
	c.Name = ""
	c.OutputDir = dir

	var legacy *legacyWriter
	ca, err := NewClassAdapter(m, 3, func(m Model) (Stepper, error) {
		legacy = &legacyWriter{m: m}
		return legacy, nil
	}, c)
	if err != nil {
		t.Fatal(err)
	}
	var calls []int
	fa, err := NewFunctionAdapter(m, 5, func(m Model) error {
		calls = append(calls, m.Iteration())
		return nil
	}, c)
	if err != nil {
		t.Fatal(err)
	}
	if ca.Name() != "class-output-writer-id0" || fa.Name() != "function-output-writer-id1" {
		t.Errorf("names: %s, %s", ca.Name(), fa.Name())
	}
	if legacy.m != Model(m) {
		t.Error("legacy writer did not receive the model")
	}

	for _, w := range []Writer{ca, fa} {
		for {
			_, ok, err := w.Advance()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				break
			}
			m.iteration++
			if err := w.RunOneStep(); err != nil {
				t.Fatal(err)
			}
		}
	}
	// 3, 6, 9, 10
	if legacy.runs != 4 {
		t.Errorf("class adapter ran %d times, want 4", legacy.runs)
	}
	// 5, 10
	if !reflect.DeepEqual(calls, []int{5, 6}) {
		t.Errorf("function adapter calls: %v", calls)
	}

	if _, err := NewFunctionAdapter(m, 0, func(Model) error { return nil }, c); err == nil {
		t.Error("a zero interval should be an error")
	}
	if _, err := NewClassAdapter(m, 1, nil, c); err == nil {
		t.Error("a missing constructor should be an error")
	}
}

func TestIntervals(t *testing.T) {
	for _, tc := range []struct {
		name      string
		intervals []float64
		repeat    bool
		want      []float64
	}{
		{name: "once", intervals: []float64{1, 2, 4}, want: []float64{1, 3, 7, 20}},
		{name: "repeat", intervals: []float64{1, 2, 4}, repeat: true, want: []float64{1, 3, 7, 8, 10, 14, 15, 17, 20}},
		{name: "single interval", intervals: []float64{6}, want: []float64{6, 12, 18, 20}},
		{name: "empty", intervals: nil, want: []float64{20}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestScheduler(t, 20, false, true, Intervals(tc.intervals, tc.repeat))
			sequenceEqual(t, drain(t, s, 100), tc.want)
		})
		t.Run(tc.name+" static", func(t *testing.T) {
			if len(tc.intervals) == 0 {
				return
			}
			src, err := NewStaticSource(StaticConfig{Intervals: tc.intervals, IntervalsRepeat: tc.repeat})
			if err != nil {
				t.Fatal(err)
			}
			s, _ := newTestScheduler(t, 20, false, true, src)
			sequenceEqual(t, drain(t, s, 100), tc.want)
		})
	}
}

func TestIntervalsEmpty(t *testing.T) {
	for _, repeat := range []bool{false, true} {
		src := Intervals([]float64{}, repeat)
		for i := 0; i < 2; i++ {
			if _, err := src.Next(); err != io.EOF {
				t.Errorf("repeat=%v: have error %v, want io.EOF", repeat, err)
			}
		}
	}
}
