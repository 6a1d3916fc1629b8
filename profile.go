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

	"github.com/spatialmodel/terrain/output"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	profileWidth  = 6 * vg.Inch
	profileHeight = 3 * vg.Inch
)

// ProfileWriter plots the elevation along one grid row to a PNG image at
// each output time.
type ProfileWriter struct {
	*output.Base
	model *Model

	// Row is the grid row to plot. If it is negative, the middle row
	// is used.
	Row int
}

// NewProfileWriter creates a writer that plots the middle grid row on the
// schedule described by s. If c.Name is empty, "profile" is used.
func NewProfileWriter(m *Model, c output.WriterConfig, s output.StaticConfig) (*ProfileWriter, error) {
	if c.Name == "" {
		c.Name = "profile"
	}
	b, err := output.NewStaticBase(m, c, s)
	if err != nil {
		return nil, err
	}
	return &ProfileWriter{Base: b, model: m, Row: -1}, nil
}

// RunOneStep saves the current elevation profile.
func (w *ProfileWriter) RunOneStep() error {
	g := w.model.Grid
	row := w.Row
	if row < 0 {
		row = g.NRows / 2
	}
	z, err := g.Row(ElevationField, row)
	if err != nil {
		return err
	}
	xys := make(plotter.XYs, len(z))
	for i, v := range z {
		xys[i].X = float64(i) * g.Dx
		xys[i].Y = v
	}

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("terrain: creating profile plot: %v", err)
	}
	p.Title.Text = fmt.Sprintf("Row %d, time %g", row, w.model.Time)
	p.X.Label.Text = "Distance"
	p.Y.Label.Text = "Elevation"
	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("terrain: creating profile line: %v", err)
	}
	p.Add(l)

	path := w.OutputPath("png")
	if err := p.Save(profileWidth, profileHeight, path); err != nil {
		return fmt.Errorf("terrain: saving profile plot: %v", err)
	}
	w.RegisterOutputFilepath(path)
	return nil
}
