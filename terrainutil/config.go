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

package terrainutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/terrain"
	"github.com/spatialmodel/terrain/output"
	"github.com/spf13/cast"
)

// WriterSpec specifies an output writer. It is read from the [[Writers]]
// tables of the configuration file.
type WriterSpec struct {
	// Type is one of netcdf, profile, summary, status, or grid.
	Type string

	// Name is used in output file names. If it is empty, the type is used
	// with the writer ID appended.
	Name string

	// Intervals and Times specify the output schedule, as in
	// output.StaticConfig. The status and grid types only accept a
	// single interval.
	Intervals       []float64
	IntervalsRepeat bool
	Times           []float64

	// SaveFirstTimestep and SaveLastTimestep override the global
	// options of the same names if they are set.
	SaveFirstTimestep *bool
	SaveLastTimestep  *bool

	// Fields are the grid fields saved by the netcdf type.
	Fields []string

	// Expressions are derived variables saved by the netcdf type, as
	// in terrain.NetCDFWriter.
	Expressions map[string]string

	// Synthesis specifies whether the files of the netcdf type are
	// combined into one file along the time dimension when the
	// simulation finishes. TimeUnit and SpaceUnit are the units stored
	// in that file. They default to "years" and "meter".
	Synthesis bool
	TimeUnit  string
	SpaceUnit string

	// Row is the grid row plotted by the profile type.
	Row *int
}

// writerSpecs returns the writers specified in the [[Writers]] tables of
// the configuration file, or if there are none, one writer for each of
// the OutputFormats, each with an interval of OutputInterval.
func writerSpecs(cfg *viper.Viper) ([]WriterSpec, error) {
	if path := cfg.GetString("config"); path != "" {
		var f struct {
			Writers []WriterSpec
		}
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("terrain: reading Writers from configuration file: %v", err)
		}
		if len(f.Writers) > 0 {
			return f.Writers, nil
		}
	}
	formats, err := cast.ToStringSliceE(cfg.Get("OutputFormats"))
	if err != nil {
		return nil, fmt.Errorf("terrain: reading OutputFormats: %v", err)
	}
	interval := cfg.GetFloat64("OutputInterval")
	specs := make([]WriterSpec, len(formats))
	for i, f := range formats {
		specs[i] = WriterSpec{
			Type:      strings.TrimSpace(f),
			Intervals: []float64{interval},
		}
	}
	return specs, nil
}

// newWriter creates the writer described by s. first and last are the
// defaults for the timestep options.
func newWriter(m *terrain.Model, s WriterSpec, dir string, first, last bool, log logrus.FieldLogger) (output.Writer, error) {
	c := output.DefaultWriterConfig()
	c.Name = s.Name
	c.AddID = s.Name == ""
	if c.Name == "" {
		c.Name = s.Type
	}
	c.OutputDir = dir
	c.SaveFirstTimestep = first
	if s.SaveFirstTimestep != nil {
		c.SaveFirstTimestep = *s.SaveFirstTimestep
	}
	c.SaveLastTimestep = last
	if s.SaveLastTimestep != nil {
		c.SaveLastTimestep = *s.SaveLastTimestep
	}
	sc := output.StaticConfig{
		Intervals:       s.Intervals,
		IntervalsRepeat: s.IntervalsRepeat,
		Times:           s.Times,
	}

	var w output.Writer
	var b *output.Base
	switch s.Type {
	case "netcdf":
		nw, err := terrain.NewNetCDFWriter(m, c, sc, s.Fields...)
		if err != nil {
			return nil, err
		}
		nw.Expressions = s.Expressions
		if s.Synthesis {
			tu, su := s.TimeUnit, s.SpaceUnit
			if tu == "" {
				tu = "years"
			}
			if su == "" {
				su = "meter"
			}
			m.CleanupFuncs = append(m.CleanupFuncs, terrain.Synthesize(nw, tu, su))
		}
		w, b = nw, nw.Base
	case "profile":
		pw, err := terrain.NewProfileWriter(m, c, sc)
		if err != nil {
			return nil, err
		}
		if s.Row != nil {
			pw.Row = *s.Row
		}
		w, b = pw, pw.Base
	case "summary":
		sw, err := terrain.NewSummaryWriter(m, c, sc)
		if err != nil {
			return nil, err
		}
		w, b = sw, sw.Base
	case "status", "grid":
		if len(s.Intervals) != 1 || len(s.Times) != 0 {
			return nil, fmt.Errorf("terrain: %s writers require exactly one interval", s.Type)
		}
		if s.Type == "status" {
			a, err := output.NewClassAdapter(m, s.Intervals[0], terrain.NewStatusWriter, c)
			if err != nil {
				return nil, err
			}
			w, b = a, a.Base
		} else {
			a, err := output.NewFunctionAdapter(m, s.Intervals[0], terrain.SaveGrid, c)
			if err != nil {
				return nil, err
			}
			w, b = a, a.Base
		}
	default:
		return nil, fmt.Errorf("terrain: invalid writer type %q; options are netcdf, profile, summary, status, and grid", s.Type)
	}
	b.Log = log
	return w, nil
}

// modelConfig reads the clock, grid and parameters from cfg. The returned
// init functions create the initial topography.
func modelConfig(cfg *viper.Viper) (terrain.Clock, *terrain.RasterGrid, terrain.BasicParams, []terrain.ModelManipulator, error) {
	clock := terrain.Clock{
		Start: cfg.GetFloat64("Clock.Start"),
		Stop:  cfg.GetFloat64("Clock.Stop"),
		Step:  cfg.GetFloat64("Clock.Step"),
	}
	params := terrain.BasicParams{
		UpliftRate:                 cfg.GetFloat64("Params.UpliftRate"),
		WaterErodibility:           cfg.GetFloat64("Params.WaterErodibility"),
		MSP:                        cfg.GetFloat64("Params.MSP"),
		RegolithTransportParameter: cfg.GetFloat64("Params.RegolithTransportParameter"),
	}
	if err := clock.Check(); err != nil {
		return clock, nil, params, nil, err
	}

	if path := os.ExpandEnv(cfg.GetString("Grid.InitialGrid")); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return clock, nil, params, nil, fmt.Errorf("terrain: opening initial grid: %v", err)
		}
		defer f.Close()
		g, err := terrain.LoadGrid(f)
		if err != nil {
			return clock, nil, params, nil, err
		}
		return clock, g, params, nil, nil
	}
	g, err := terrain.NewRasterGrid(cfg.GetInt("Grid.NRows"), cfg.GetInt("Grid.NCols"), cfg.GetFloat64("Grid.Dx"))
	if err != nil {
		return clock, nil, params, nil, err
	}
	var init []terrain.ModelManipulator
	if expr := cfg.GetString("Grid.InitialElevation"); expr != "" {
		init = append(init, terrain.SetTopographyExpression(expr))
	}
	init = append(init, terrain.SetInitialTopography(int64(cfg.GetInt("Grid.Seed")), cfg.GetFloat64("Grid.NoiseAmplitude")))
	return clock, g, params, init, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputDir, prefix string) string {
	if logFile == "" {
		return filepath.Join(outputDir, prefix+".log")
	}
	return os.ExpandEnv(logFile)
}
