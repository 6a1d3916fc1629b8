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

// Package terrainutil contains the command-line interface and
// configuration handling for the Terrain landscape evolution model.
package terrainutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/terrain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Terrain.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print.
              It can be one of panic, fatal, error, warning, info, or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Clock.Start",
			usage: `
              Clock.Start is the model start time.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Clock.Stop",
			usage: `
              Clock.Stop is the model stop time. Output is always written
              at this time unless SaveLastTimestep is false.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Clock.Step",
			usage: `
              Clock.Step is the model time step. Steps are shortened
              where needed to stop exactly at output times.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.NRows",
			usage: `
              Grid.NRows is the number of grid rows.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.NCols",
			usage: `
              Grid.NCols is the number of grid columns.`,
			defaultVal: 30,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.Dx",
			usage: `
              Grid.Dx is the grid node spacing.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.Seed",
			usage: `
              Grid.Seed is the random seed for the initial topography.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.NoiseAmplitude",
			usage: `
              Grid.NoiseAmplitude is the maximum height of the random
              noise added to the initial topography.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.InitialElevation",
			usage: `
              Grid.InitialElevation is an expression for the initial
              elevation of each node, before noise is added. It can use the
              node coordinates x and y and the functions exp, log, sqrt,
              abs, sin, and cos. For example, "0.01 * x" creates a surface
              that slopes up to the east.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.InitialGrid",
			usage: `
              Grid.InitialGrid is the path to a grid saved by the "grid"
              output format to use as the initial condition. If it is
              specified, the other Grid options are ignored.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Params.UpliftRate",
			usage: `
              Params.UpliftRate is the rock uplift rate.`,
			defaultVal: terrain.DefaultBasicParams().UpliftRate,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Params.WaterErodibility",
			usage: `
              Params.WaterErodibility is the stream power erodibility
              coefficient.`,
			defaultVal: terrain.DefaultBasicParams().WaterErodibility,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Params.MSP",
			usage: `
              Params.MSP is the drainage area exponent of the stream
              power law.`,
			defaultVal: terrain.DefaultBasicParams().MSP,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Params.RegolithTransportParameter",
			usage: `
              Params.RegolithTransportParameter is the hillslope
              diffusivity.`,
			defaultVal: terrain.DefaultBasicParams().RegolithTransportParameter,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory output files are written to. It
              can be a blob storage location (for example,
              s3://bucket/path or file:///tmp/path), in which case output
              is written to a temporary directory and uploaded when the
              simulation finishes. It can include environment variables.`,
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), cleanCmd.Flags()},
		},
		{
			name: "OutputPrefix",
			usage: `
              OutputPrefix is prepended to the names of all output files.`,
			defaultVal: "terrain",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), cleanCmd.Flags()},
		},
		{
			name: "OutputInterval",
			usage: `
              OutputInterval is the model time between outputs for the
              writers specified by OutputFormats.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFormats",
			usage: `
              OutputFormats are the types of output to write. Options
              are netcdf, profile, summary, status, and grid. They are
              ignored if the configuration file has a [[Writers]] table.`,
			defaultVal: []string{"netcdf"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SaveFirstTimestep",
			usage: `
              SaveFirstTimestep specifies whether output should be written
              at the start of the simulation.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SaveLastTimestep",
			usage: `
              SaveLastTimestep specifies whether output should be written
              at the end of the simulation.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. If it
              is empty, the log is written to {OutputPrefix}.log in the
              output directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TERRAIN")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(cleanCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("terrain: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "terrain",
	Short: "A landscape evolution model.",
	Long: `Terrain is a landscape evolution model that simulates the evolution of
topography under rock uplift, river incision, and hillslope diffusion.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'TERRAIN_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Terrain.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Terrain v%s\n", terrain.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run runs a Terrain simulation with the Basic model and writes
output as specified by the OutputFormats option or the [[Writers]]
table of the configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := writerSpecs(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, Cfg, specs)
	},
	DisableAutoGenTag: true,
}

// cleanCmd is a command that deletes output files.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete output files.",
	Long: `clean deletes the files in OutputDir whose names start with
OutputPrefix, as written by a previous run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := Clean(os.ExpandEnv(Cfg.GetString("OutputDir")), Cfg.GetString("OutputPrefix"))
		for _, f := range removed {
			cmd.Printf("removed %s\n", f)
		}
		return err
	},
	DisableAutoGenTag: true,
}
