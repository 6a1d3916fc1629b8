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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spatialmodel/terrain/output"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// summaryHeader is the first line of a summary file.
var summaryHeader = []string{"iteration", "time", "mean_elevation", "std_elevation",
	"min_elevation", "max_elevation", "relief", "max_drainage_area"}

// SummaryWriter appends statistics of the core node elevations to a
// single CSV file at each output time.
type SummaryWriter struct {
	*output.Base
	model *Model
	path  string
}

// NewSummaryWriter creates a writer that records elevation statistics on
// the schedule described by s. If c.Name is empty, "summary" is used.
func NewSummaryWriter(m *Model, c output.WriterConfig, s output.StaticConfig) (*SummaryWriter, error) {
	if c.Name == "" {
		c.Name = "summary"
	}
	b, err := output.NewStaticBase(m, c, s)
	if err != nil {
		return nil, err
	}
	w := &SummaryWriter{Base: b, model: m}
	w.path = filepath.Join(b.OutputDir(), fmt.Sprintf("%s_%s.csv", m.OutputPrefix(), b.Name()))
	return w, nil
}

// Path returns the location of the summary file.
func (w *SummaryWriter) Path() string { return w.path }

// RunOneStep appends a line to the summary file, creating it with a
// header line the first time.
func (w *SummaryWriter) RunOneStep() error {
	g := w.model.Grid
	z, err := g.Field(ElevationField)
	if err != nil {
		return err
	}
	core := g.CoreNodes()
	zc := make([]float64, len(core))
	for i, n := range core {
		zc[i] = z[n]
	}
	mean, std := stat.MeanStdDev(zc, nil)
	maxArea := 0.
	if a, err := g.Field(DrainageAreaField); err == nil {
		maxArea = floats.Max(a)
	}

	newFile := !w.IsFileRegistered(w.path)
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if newFile {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(w.path, flag, 0644)
	if err != nil {
		return fmt.Errorf("terrain: opening summary file: %v", err)
	}
	w.RegisterOutputFilepath(w.path)
	cw := csv.NewWriter(f)
	if newFile {
		if err := cw.Write(summaryHeader); err != nil {
			f.Close()
			return err
		}
	}
	rec := []string{strconv.Itoa(w.model.Iteration())}
	lo, hi := floats.Min(zc), floats.Max(zc)
	for _, v := range []float64{w.model.Time, mean, std, lo, hi, hi - lo, maxArea} {
		rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := cw.Write(rec); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("terrain: writing summary file: %v", err)
	}
	return f.Close()
}
