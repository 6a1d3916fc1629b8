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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/terrain"
	"github.com/spf13/cobra"
)

// Run runs a simulation of the Basic model as configured in cfg, with
// the writers specified by specs.
//
// CobraCommand is the cobra.Command instance where Run is called from.
// Log messages are printed to its output as well as to the log file.
func Run(CobraCommand *cobra.Command, cfg *viper.Viper, specs []WriterSpec) error {
	startTime := time.Now()

	var upload uploader
	outputDir := upload.maybeUpload(os.ExpandEnv(cfg.GetString("OutputDir")))
	if upload.err != nil {
		return fmt.Errorf("terrain: preparing output upload: %v", upload.err)
	}
	if upload.dest != "" {
		defer os.RemoveAll(outputDir)
	}
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("terrain: creating output directory: %v", err)
	}
	prefix := cfg.GetString("OutputPrefix")

	logfile, err := os.Create(checkLogFile(cfg.GetString("LogFile"), outputDir, prefix))
	if err != nil {
		return fmt.Errorf("terrain: problem creating log file: %v", err)
	}
	defer logfile.Close()
	var out io.Writer = os.Stdout
	if CobraCommand != nil {
		out = CobraCommand.OutOrStdout()
	}
	log := logrus.New()
	log.Out = io.MultiWriter(out, logfile)
	log.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	level, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("terrain: %v", err)
	}
	log.SetLevel(level)

	clock, grid, params, initFuncs, err := modelConfig(cfg)
	if err != nil {
		return err
	}
	m, err := terrain.Basic(clock, grid, params, initFuncs...)
	if err != nil {
		return err
	}
	m.Log = log
	m.Prefix = prefix
	m.OutputDir = outputDir
	m.RunFuncs = append(m.RunFuncs, terrain.Log(log))

	first, last := cfg.GetBool("SaveFirstTimestep"), cfg.GetBool("SaveLastTimestep")
	for _, s := range specs {
		w, err := newWriter(m, s, outputDir, first, last, log)
		if err != nil {
			return err
		}
		m.AddWriter(w)
	}
	m.CleanupFuncs = append(m.CleanupFuncs, logOutputFiles(log))
	if upload.dest != "" {
		m.CleanupFuncs = append(m.CleanupFuncs, UploadOutput(upload.dest))
	}

	log.WithFields(logrus.Fields{
		"rows":    grid.NRows,
		"cols":    grid.NCols,
		"start":   clock.Start,
		"stop":    clock.Stop,
		"writers": len(m.Writers()),
	}).Infof("starting Terrain v%s", terrain.Version)
	if err := m.Init(); err != nil {
		return err
	}
	if err := m.Run(); err != nil {
		return err
	}
	log.Infof("Terrain simulation completed in %v", time.Since(startTime))
	return m.Cleanup()
}

// logOutputFiles returns a function that logs the files each writer has
// created.
func logOutputFiles(log logrus.FieldLogger) terrain.ModelManipulator {
	return func(m *terrain.Model) error {
		for _, w := range m.Writers() {
			log.WithFields(logrus.Fields{
				"writer": w.Name(),
				"files":  len(w.OutputFilepaths("")),
			}).Info("output written")
		}
		return nil
	}
}

// Clean deletes the files in dir whose names begin with prefix followed by
// an underscore, and the log file prefix.log. It returns the files that
// were removed.
func Clean(dir, prefix string) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("terrain: clean requires an output prefix")
	}
	if IsBlob(dir) {
		return cleanBucket(dir, prefix)
	}
	files, err := filepath.Glob(filepath.Join(dir, prefix+"_*"))
	if err != nil {
		return nil, err
	}
	files = append(files, filepath.Join(dir, prefix+".log"))
	var removed []string
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("terrain: removing output file: %v", err)
		}
		removed = append(removed, f)
	}
	return removed, nil
}
