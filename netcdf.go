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
	"sort"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/terrain/output"
)

// fieldUnits are the units of the grid fields with known units.
var fieldUnits = map[string]string{
	ElevationField:    "m",
	DrainageAreaField: "m2",
	ReceiverField:     "node index",
}

// NetCDFWriter saves grid fields to a NetCDF file at each output time.
type NetCDFWriter struct {
	*output.Base
	model *Model

	// Fields are the names of the grid fields to save. If empty,
	// all fields are saved.
	Fields []string

	// Expressions maps the names of derived variables to the
	// expressions that calculate them from the grid fields.
	// See RasterGrid.Evaluate for the expression syntax.
	Expressions map[string]string
}

// NewNetCDFWriter creates a writer that saves the given fields on the
// schedule described by s. If c.Name is empty, "netcdf" is used.
func NewNetCDFWriter(m *Model, c output.WriterConfig, s output.StaticConfig, fields ...string) (*NetCDFWriter, error) {
	if c.Name == "" {
		c.Name = "netcdf"
	}
	b, err := output.NewStaticBase(m, c, s)
	if err != nil {
		return nil, err
	}
	return &NetCDFWriter{Base: b, model: m, Fields: fields}, nil
}

// RunOneStep writes the current state of the grid to a new file.
func (w *NetCDFWriter) RunOneStep() error {
	g := w.model.Grid
	fields := w.Fields
	if len(fields) == 0 {
		fields = g.FieldNames()
	}
	data := make([][]float64, len(fields))
	for i, f := range fields {
		d, err := g.Field(f)
		if err != nil {
			return err
		}
		data[i] = d
	}
	derived := make([]string, 0, len(w.Expressions))
	for name := range w.Expressions {
		derived = append(derived, name)
	}
	sort.Strings(derived)
	for _, name := range derived {
		d, err := g.Evaluate(w.Expressions[name])
		if err != nil {
			return err
		}
		data = append(data, d)
	}

	h := cdf.NewHeader([]string{"time", "y", "x"}, []int{1, g.NRows, g.NCols})
	h.AddAttribute("", "title", "Terrain model output")
	h.AddAttribute("", "iteration", []int32{int32(w.model.Iteration())})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "description", "Model time")
	for _, f := range fields {
		h.AddVariable(f, []string{"time", "y", "x"}, []float64{0})
		h.AddAttribute(f, "description", fmt.Sprintf("Grid field %s", f))
		if u, ok := fieldUnits[f]; ok {
			h.AddAttribute(f, "units", u)
		}
	}
	for _, name := range derived {
		h.AddVariable(name, []string{"time", "y", "x"}, []float64{0})
		h.AddAttribute(name, "description", w.Expressions[name])
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("terrain: creating netcdf header: %v", err)
	}

	path := w.OutputPath("nc")
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: creating netcdf file: %v", err)
	}
	w.RegisterOutputFilepath(path)
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("terrain: creating netcdf file: %v", err)
	}
	tw := f.Writer("time", []int{0}, []int{1})
	if _, err := tw.Write([]float64{w.model.Time}); err != nil {
		ff.Close()
		return fmt.Errorf("terrain: writing netcdf time: %v", err)
	}
	names := append(append([]string{}, fields...), derived...)
	for i, v := range names {
		vw := f.Writer(v, []int{0, 0, 0}, []int{1, g.NRows, g.NCols})
		if _, err := vw.Write(data[i]); err != nil {
			ff.Close()
			return fmt.Errorf("terrain: writing variable %s to netcdf file: %v", v, err)
		}
	}
	return ff.Close()
}

// SynthesisPath returns the path of the file written by SaveSynthesis
// when it is run by Synthesize.
func (w *NetCDFWriter) SynthesisPath() string {
	return filepath.Join(w.OutputDir(), fmt.Sprintf("%s_%s.nc", w.model.OutputPrefix(), w.Name()))
}

// SaveSynthesis combines the files written so far by w into a single
// NetCDF file at path, with the files stacked along the leading time
// dimension in the order they were written. timeUnit is stored as the
// units of the time variable, and spaceUnit as the units of the x and y
// coordinate variables. The combined file is not registered as output
// of w.
func (w *NetCDFWriter) SaveSynthesis(path, timeUnit, spaceUnit string) error {
	files := w.OutputFilepaths("nc")
	if len(files) == 0 {
		return fmt.Errorf("terrain: writer %s has no netcdf output to combine", w.Name())
	}
	inputs := make([]*cdf.File, len(files))
	for i, p := range files {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("terrain: opening netcdf output: %v", err)
		}
		defer f.Close()
		if inputs[i], err = cdf.Open(f); err != nil {
			return fmt.Errorf("terrain: reading netcdf file %s: %v", p, err)
		}
	}

	first := inputs[0].Header
	var vars []string
	for _, v := range first.Variables() {
		if v != "time" {
			vars = append(vars, v)
		}
	}
	ny, nx := w.model.Grid.NRows, w.model.Grid.NCols
	dx := w.model.Grid.Dx
	if d, ok := first.GetAttribute("", "dx").([]float64); ok && len(d) == 1 {
		dx = d[0]
	}
	for i, in := range inputs {
		for _, v := range vars {
			if l := in.Header.Lengths(v); len(l) != 3 || l[0] != 1 || l[1] != ny || l[2] != nx {
				return fmt.Errorf("terrain: variable %s in %s has dimensions %v; want [1 %d %d]", v, files[i], l, ny, nx)
			}
		}
	}

	h := cdf.NewHeader([]string{"time", "y", "x"}, []int{len(files), ny, nx})
	for _, a := range first.Attributes("") {
		if a != "iteration" {
			h.AddAttribute("", a, first.GetAttribute("", a))
		}
	}
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "description", "Model time")
	h.AddVariable("y", []string{"y"}, []float64{0})
	h.AddAttribute("y", "description", "Distance from the first row")
	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddAttribute("x", "description", "Distance from the first column")
	if timeUnit != "" {
		h.AddAttribute("time", "units", timeUnit)
	}
	if spaceUnit != "" {
		h.AddAttribute("y", "units", spaceUnit)
		h.AddAttribute("x", "units", spaceUnit)
	}
	for _, v := range vars {
		h.AddVariable(v, []string{"time", "y", "x"}, []float64{0})
		for _, a := range first.Attributes(v) {
			h.AddAttribute(v, a, first.GetAttribute(v, a))
		}
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("terrain: creating netcdf header: %v", err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: creating netcdf file: %v", err)
	}
	out, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("terrain: creating netcdf file: %v", err)
	}
	times := make([]float64, len(inputs))
	for i, in := range inputs {
		r := in.Reader("time", nil, nil)
		buf := r.Zero(-1)
		if _, err := r.Read(buf); err != nil {
			ff.Close()
			return fmt.Errorf("terrain: reading time from %s: %v", files[i], err)
		}
		times[i] = buf.([]float64)[0]
	}
	coords := map[string][]float64{
		"time": times,
		"y":    make([]float64, ny),
		"x":    make([]float64, nx),
	}
	for r := range coords["y"] {
		coords["y"][r] = float64(r) * dx
	}
	for c := range coords["x"] {
		coords["x"][c] = float64(c) * dx
	}
	for _, v := range []string{"time", "y", "x"} {
		cw := out.Writer(v, nil, nil)
		if _, err := cw.Write(coords[v]); err != nil {
			ff.Close()
			return fmt.Errorf("terrain: writing netcdf variable %s: %v", v, err)
		}
	}
	for _, v := range vars {
		for i, in := range inputs {
			r := in.Reader(v, nil, nil)
			buf := r.Zero(-1)
			if _, err := r.Read(buf); err != nil {
				ff.Close()
				return fmt.Errorf("terrain: reading variable %s from %s: %v", v, files[i], err)
			}
			vw := out.Writer(v, []int{i, 0, 0}, []int{i + 1, ny, nx})
			if _, err := vw.Write(buf); err != nil {
				ff.Close()
				return fmt.Errorf("terrain: writing variable %s to netcdf file: %v", v, err)
			}
		}
	}
	return ff.Close()
}

// Synthesize returns a function that runs w.SaveSynthesis, writing to
// w.SynthesisPath. It is meant to be one of the model's CleanupFuncs.
func Synthesize(w *NetCDFWriter, timeUnit, spaceUnit string) ModelManipulator {
	return func(m *Model) error {
		return w.SaveSynthesis(w.SynthesisPath(), timeUnit, spaceUnit)
	}
}
