/*
Copyright © 2019 the watermass authors.
This file is part of watermass.

watermass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

watermass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with watermass.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package wmutil contains the command-line interface and configuration
// handling for the watermass diagnostics.
package wmutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/watermass"
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
	// Options are the configuration options available to watermass.
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
			name: "MeshFile",
			usage: `
              MeshFile is the path to the NEMO mesh_mask file holding the
              grid cell dimensions, latitudes, longitudes and level depths.
              It can include environment variables, and it can be a URL
              (http://, https://, gs://, s3://, or file://).`,
			defaultVal: "mesh_mask.nc",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MeshVariables",
			usage: `
              MeshVariables overrides the names of the grid variables in
              MeshFile. Valid keys are E1, E2, E3, Lat, Lon, and LevelDepth.
              The default names are e1t, e2t, e3t, gphit, glamt, and gdept_1d.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the NetCDF file the results are
              written to. It can include environment variables, and it can
              be a blob storage URL (gs://, s3://, or file://).`,
			shorthand:  "o",
			defaultVal: "watermass.nc",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages: debug, info,
              warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile, if set, is the path to a PNG file where a time
              series plot of the results will be written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BeginStep",
			usage: `
              BeginStep is the first time step of the input fields to
              analyze.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "EndStep",
			usage: `
              EndStep is one past the last time step of the input fields to
              analyze. A negative value analyzes through the last step.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DataFile",
			usage: `
              DataFile is the path to the model output file to analyze:
              a trajectory climatology for census and streamfunction, a
              tangent-linear output file for tracer, or an adjoint output
              file for ventilation.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{censusCmd.Flags(), tracerCmd.Flags(), ventilationCmd.Flags(), streamFunctionCmd.Flags()},
		},
		{
			name: "WaterMassCatalog",
			usage: `
              WaterMassCatalog is the path to a TOML file of water-mass
              definitions. If it is empty, the built-in definitions of
              North Atlantic Deep Water (NADW) and North Atlantic Subtropical
              Mode Water (NASMW) are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{censusCmd.Flags()},
		},
		{
			name: "WaterMasses",
			usage: `
              WaterMasses are the names of the water masses in the catalog
              to classify. If it is empty, all of them are classified.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{censusCmd.Flags()},
		},
		{
			name: "VariableNames",
			usage: `
              VariableNames maps the field names used in water-mass
              constraints to the variable names in DataFile or MeshFile.
              Fields that are not in either file under the mapped name are
              looked up under their own name.`,
			defaultVal: map[string]string{"votemper": "tn", "vosaline": "sn"},
			flagsets:   []*pflag.FlagSet{censusCmd.Flags()},
		},
		{
			name: "BasinFile",
			usage: `
              BasinFile is the path to the file holding the basin mask. If it
              is empty, the whole domain is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{censusCmd.Flags(), streamFunctionCmd.Flags()},
		},
		{
			name: "BasinVariable",
			usage: `
              BasinVariable is the name of the basin mask in BasinFile.`,
			defaultVal: "atlmsk",
			flagsets:   []*pflag.FlagSet{censusCmd.Flags(), streamFunctionCmd.Flags()},
		},
		{
			name: "BasinMinLat",
			usage: `
              BasinMinLat is the southernmost latitude [degrees] of the basin
              used for the stream functions. The default of 0 restricts the
              Atlantic mask to the North Atlantic.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{streamFunctionCmd.Flags()},
		},
		{
			name: "CensusBasinMinLat",
			usage: `
              CensusBasinMinLat is the southernmost latitude [degrees] of the
              basin used for the census. The default of -90 keeps the whole
              basin; water masses restricted to a hemisphere carry their own
              latitude constraint.`,
			defaultVal: -90.0,
			flagsets:   []*pflag.FlagSet{censusCmd.Flags()},
		},
		{
			name: "SchemeName",
			usage: `
              SchemeName is the name of the tracer in DataFile. It is used
              as the prefix of the output variable names.`,
			defaultVal: "tangent_linear",
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags()},
		},
		{
			name: "SchemeFiles",
			usage: `
              SchemeFiles maps advection scheme names to the output files
              of the model runs that used them, for example
              {"TVD":"adv_TVD_output.nc","upwind":"adv_upwind_output.nc"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "Reference",
			usage: `
              Reference is the scheme in SchemeFiles the others are compared
              against. If it is empty, the first scheme in alphabetical
              order is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "ConcentrationVariable",
			usage: `
              ConcentrationVariable is the name of the passive tracer
              concentration variable.`,
			defaultVal: "pt_conc_tl",
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags()},
		},
		{
			name: "TemperatureVariable",
			usage: `
              TemperatureVariable is the name of the trajectory potential
              temperature variable [°C].`,
			defaultVal: "tn",
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "SalinityVariable",
			usage: `
              SalinityVariable is the name of the trajectory salinity
              variable [psu].`,
			defaultVal: "sn",
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "EarthRadius",
			usage: `
              EarthRadius is the radius [km] of the sphere that tracer
              centers of mass and lateral spreads are calculated on.`,
			defaultVal: watermass.EarthRadius,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags()},
		},
		{
			name: "NumProcessors",
			usage: `
              NumProcessors is the number of time steps that are analyzed
              concurrently.`,
			defaultVal: watermass.NumProcessors,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags()},
		},
		{
			name: "PlotVariable",
			usage: `
              PlotVariable is the tracer diagnostic that is plotted to
              PlotFile, e.g. total_volume, depth, lateral_spread, or
              vertical_spread.`,
			defaultVal: "total_volume",
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags()},
		},
		{
			name: "TSHistogram.TemperatureMin",
			usage: `
              TSHistogram.TemperatureMin is the lower edge [°C] of the
              first temperature bin of the temperature-salinity histogram.`,
			defaultVal: -2.0,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "TSHistogram.TemperatureMax",
			usage: `
              TSHistogram.TemperatureMax is the upper edge [°C] of the
              last temperature bin.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "TSHistogram.TemperatureBins",
			usage: `
              TSHistogram.TemperatureBins is the number of temperature bins.`,
			defaultVal: 28,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "TSHistogram.SalinityMin",
			usage: `
              TSHistogram.SalinityMin is the lower edge [psu] of the
              first salinity bin.`,
			defaultVal: 34.5,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "TSHistogram.SalinityMax",
			usage: `
              TSHistogram.SalinityMax is the upper edge [psu] of the
              last salinity bin.`,
			defaultVal: 35.5,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "TSHistogram.SalinityBins",
			usage: `
              TSHistogram.SalinityBins is the number of salinity bins.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{tracerCmd.Flags(), compareCmd.Flags(), ventilationCmd.Flags()},
		},
		{
			name: "VolumeVariable",
			usage: `
              VolumeVariable is the name of the adjoint tracer volume
              variable.`,
			defaultVal: "pt_vol_ad",
			flagsets:   []*pflag.FlagSet{ventilationCmd.Flags()},
		},
		{
			name: "VentilationVariable",
			usage: `
              VentilationVariable is the name of the adjoint ventilated
              volume variable.`,
			defaultVal: "pt_vent_ad",
			flagsets:   []*pflag.FlagSet{ventilationCmd.Flags()},
		},
		{
			name: "VelocityVariable",
			usage: `
              VelocityVariable is the name of the meridional velocity
              variable [m/s].`,
			defaultVal: "vn",
			flagsets:   []*pflag.FlagSet{streamFunctionCmd.Flags()},
		},
		{
			name: "E1VVariable",
			usage: `
              E1VVariable is the name of the zonal width of the V cells [m]
              in MeshFile.`,
			defaultVal: "e1v",
			flagsets:   []*pflag.FlagSet{streamFunctionCmd.Flags()},
		},
		{
			name: "E3VVariable",
			usage: `
              E3VVariable is the name of the thickness of the V cells [m]
              in MeshFile.`,
			defaultVal: "e3v",
			flagsets:   []*pflag.FlagSet{streamFunctionCmd.Flags()},
		},
		{
			name: "StreamFunctionFactor",
			usage: `
              StreamFunctionFactor converts volume transport from m³/s to
              the output units. The default converts to Sverdrups.`,
			defaultVal: watermass.StreamFunctionFactor,
			flagsets:   []*pflag.FlagSet{streamFunctionCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("WATERMASS")

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
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
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
	Root.AddCommand(censusCmd)
	Root.AddCommand(tracerCmd)
	Root.AddCommand(compareCmd)
	Root.AddCommand(ventilationCmd)
	Root.AddCommand(streamFunctionCmd)
	Root.AddCommand(guiCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("watermass: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "watermass",
	Short: "Ocean water-mass diagnostics.",
	Long: `watermass calculates water-mass diagnostics from NEMO ocean model output:
water-mass census from climatologies, passive tracer diagnostics from
tangent-linear runs, advection scheme comparisons, ventilation diagnostics
from adjoint runs, and barotropic and overturning stream functions.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'WATERMASS_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of watermass.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("watermass v%s\n", watermass.Version)
	},
	DisableAutoGenTag: true,
}

var censusCmd = &cobra.Command{
	Use:   "census",
	Short: "Classify water masses in a climatology.",
	Long: `census classifies the cells of a temperature and salinity climatology
into water masses and calculates the volume and outcrop area of each
water mass at each time step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := censusConfig(Cfg)
		if err != nil {
			return err
		}
		return Census(context.TODO(), cmd.OutOrStdout(), *c)
	},
	DisableAutoGenTag: true,
}

var tracerCmd = &cobra.Command{
	Use:   "tracer",
	Short: "Calculate passive tracer diagnostics.",
	Long: `tracer calculates the volume, center of mass, spread, and
temperature-salinity distribution of the passive tracer in a
tangent-linear model run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := tracerConfig(Cfg, false)
		if err != nil {
			return err
		}
		return Tracer(context.TODO(), cmd.OutOrStdout(), *c)
	},
	DisableAutoGenTag: true,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare advection schemes.",
	Long: `compare calculates the passive tracer diagnostics of model runs that
used different advection schemes and compares them against a reference scheme.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := tracerConfig(Cfg, true)
		if err != nil {
			return err
		}
		return Tracer(context.TODO(), cmd.OutOrStdout(), *c)
	},
	DisableAutoGenTag: true,
}

var ventilationCmd = &cobra.Command{
	Use:   "ventilation",
	Short: "Calculate adjoint ventilation diagnostics.",
	Long: `ventilation calculates when, where, and at which surface temperature and
salinity the water in an adjoint passive tracer was last in contact with
the surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ventilationConfig(Cfg)
		if err != nil {
			return err
		}
		return Ventilation(context.TODO(), cmd.OutOrStdout(), *c)
	},
	DisableAutoGenTag: true,
}

var streamFunctionCmd = &cobra.Command{
	Use:   "streamfunction",
	Short: "Calculate stream functions.",
	Long: `streamfunction calculates the barotropic and meridional overturning
stream functions of the time-mean meridional velocity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := streamFunctionConfig(Cfg)
		if err != nil {
			return err
		}
		return StreamFunction(context.TODO(), cmd.OutOrStdout(), *c)
	},
	DisableAutoGenTag: true,
}
