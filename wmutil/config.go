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

package wmutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/watermass"
	"github.com/spatialmodel/watermass/cloud"
	"github.com/spf13/cast"
)

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="census.nc")`)
	}
	f = os.ExpandEnv(f)
	if cloud.IsBlob(f) {
		i := strings.Index(f, "://")
		bucket := f
		if j := strings.Index(f[i+3:], "/"); j >= 0 {
			bucket = f[:i+3+j]
		}
		if _, err := cloud.OpenBucket(context.TODO(), bucket); err != nil {
			return f, fmt.Errorf("wmutil: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("wmutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("wmutil: parsing configuration variable %s: %v", varName, err)
		}
		return o, nil
	case nil:
		return make(map[string]string), nil
	default:
		return nil, fmt.Errorf("wmutil: invalid type for configuration variable %s: %#v", varName, i)
	}
}

// geometryVariables returns the names of the grid variables in the mesh
// file, starting from the NEMO names and replacing the ones that are
// set in the MeshVariables configuration.
func geometryVariables(cfg *viper.Viper) (watermass.GeometryVariables, error) {
	names := watermass.DefaultGeometryVariables
	m, err := GetStringMapString("MeshVariables", cfg)
	if err != nil {
		return names, err
	}
	for k, v := range m {
		v = os.ExpandEnv(v)
		switch strings.ToLower(k) {
		case "e1":
			names.E1 = v
		case "e2":
			names.E2 = v
		case "e3":
			names.E3 = v
		case "lat":
			names.Lat = v
		case "lon":
			names.Lon = v
		case "leveldepth":
			names.LevelDepth = v
		default:
			return names, fmt.Errorf("wmutil: invalid MeshVariables key '%s'; valid keys are E1, E2, E3, Lat, Lon, and LevelDepth", k)
		}
	}
	return names, nil
}

// binEdges returns the temperature-salinity histogram bins specified in
// cfg.
func binEdges(cfg *viper.Viper) (watermass.BinEdges, error) {
	tBins := cfg.GetInt("TSHistogram.TemperatureBins")
	sBins := cfg.GetInt("TSHistogram.SalinityBins")
	if tBins < 1 || sBins < 1 {
		return watermass.BinEdges{}, fmt.Errorf("wmutil: TSHistogram.TemperatureBins=%d and TSHistogram.SalinityBins=%d must both be at least 1", tBins, sBins)
	}
	b := watermass.BinEdges{
		Temperature: watermass.Linspace(cfg.GetFloat64("TSHistogram.TemperatureMin"), cfg.GetFloat64("TSHistogram.TemperatureMax"), tBins+1),
		Salinity:    watermass.Linspace(cfg.GetFloat64("TSHistogram.SalinityMin"), cfg.GetFloat64("TSHistogram.SalinityMax"), sBins+1),
	}
	if err := b.Validate(); err != nil {
		return b, fmt.Errorf("wmutil: %v", err)
	}
	return b, nil
}

// catalog is the layout of a water-mass catalog file, for example:
//
//	[[WaterMass]]
//	Name = "NADW"
//	Description = "North Atlantic Deep Water"
//	[[WaterMass.Constraint]]
//	Variable = "tn"
//	Low = 2.0
//	High = 4.0
//
// A constraint without Low or High is unbounded on that side.
type catalog struct {
	WaterMass []struct {
		Name         string
		Description  string
		MinThickness float64
		Constraint   []struct {
			Variable  string
			Low, High *float64
		}
	}
}

// LoadCatalog reads water-mass definitions in TOML format from r.
func LoadCatalog(r io.Reader) ([]*watermass.WaterMass, error) {
	var c catalog
	if _, err := toml.DecodeReader(r, &c); err != nil {
		return nil, fmt.Errorf("wmutil: reading water-mass catalog: %v", err)
	}
	if len(c.WaterMass) == 0 {
		return nil, fmt.Errorf("wmutil: water-mass catalog has no entries")
	}
	out := make([]*watermass.WaterMass, len(c.WaterMass))
	seen := make(map[string]bool)
	for i, e := range c.WaterMass {
		w := &watermass.WaterMass{
			Name:         e.Name,
			Description:  e.Description,
			MinThickness: e.MinThickness,
		}
		for _, ec := range e.Constraint {
			con := watermass.Constraint{Variable: ec.Variable, Low: math.Inf(-1), High: math.Inf(1)}
			if ec.Low != nil {
				con.Low = *ec.Low
			}
			if ec.High != nil {
				con.High = *ec.High
			}
			w.Constraints = append(w.Constraints, con)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("wmutil: water-mass catalog: %v", err)
		}
		if seen[w.Name] {
			return nil, fmt.Errorf("wmutil: water-mass catalog: duplicate water mass %s", w.Name)
		}
		seen[w.Name] = true
		out[i] = w
	}
	return out, nil
}

// waterMasses returns the water masses in catalogFile (or the default
// ones if catalogFile is empty) that are named in names. All of them are
// returned if names is empty.
func waterMasses(catalogFile string, names []string) ([]*watermass.WaterMass, error) {
	all := watermass.DefaultWaterMasses()
	if catalogFile != "" {
		f, err := os.Open(catalogFile)
		if err != nil {
			return nil, fmt.Errorf("wmutil: opening water-mass catalog: %v", err)
		}
		defer f.Close()
		if all, err = LoadCatalog(f); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]*watermass.WaterMass, len(all))
	for _, w := range all {
		byName[w.Name] = w
	}
	out := make([]*watermass.WaterMass, len(names))
	for i, n := range names {
		w, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("wmutil: unknown water mass '%s'", n)
		}
		out[i] = w
	}
	return out, nil
}

// commonConfig reads the settings shared by all of the analysis commands.
func commonConfig(cfg *viper.Viper) (Common, error) {
	var c Common
	var err error
	if c.MeshVariables, err = geometryVariables(cfg); err != nil {
		return c, err
	}
	if c.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return c, err
	}
	c.MeshFile = os.ExpandEnv(cfg.GetString("MeshFile"))
	c.LogFile = checkLogFile(cfg.GetString("LogFile"), c.OutputFile)
	c.LogLevel = cfg.GetString("LogLevel")
	c.PlotFile = os.ExpandEnv(cfg.GetString("PlotFile"))
	c.BeginStep = cfg.GetInt("BeginStep")
	c.EndStep = cfg.GetInt("EndStep")
	if c.MeshFile == "" {
		return c, fmt.Errorf("wmutil: you need to specify the MeshFile configuration variable")
	}
	if c.BeginStep < 0 || (c.EndStep >= 0 && c.EndStep <= c.BeginStep) {
		return c, fmt.Errorf("wmutil: BeginStep=%d and EndStep=%d select no time steps", c.BeginStep, c.EndStep)
	}
	return c, nil
}

// censusConfig reads the settings of the census command.
func censusConfig(cfg *viper.Viper) (*CensusConfig, error) {
	common, err := commonConfig(cfg)
	if err != nil {
		return nil, err
	}
	c := &CensusConfig{
		Common:        common,
		DataFile:      os.ExpandEnv(cfg.GetString("DataFile")),
		BasinFile:     os.ExpandEnv(cfg.GetString("BasinFile")),
		BasinVariable: os.ExpandEnv(cfg.GetString("BasinVariable")),
		BasinMinLat:   cfg.GetFloat64("CensusBasinMinLat"),
	}
	if c.VariableNames, err = GetStringMapString("VariableNames", cfg); err != nil {
		return nil, err
	}
	c.WaterMasses, err = waterMasses(os.ExpandEnv(cfg.GetString("WaterMassCatalog")),
		expandStringSlice(cfg.GetStringSlice("WaterMasses")))
	if err != nil {
		return nil, err
	}
	if c.DataFile == "" {
		return nil, fmt.Errorf("wmutil: you need to specify the DataFile configuration variable")
	}
	return c, nil
}

// tracerConfig reads the settings of the tracer command, or of the
// compare command if compare is true.
func tracerConfig(cfg *viper.Viper, compare bool) (*TracerConfig, error) {
	common, err := commonConfig(cfg)
	if err != nil {
		return nil, err
	}
	c := &TracerConfig{
		Common:                common,
		ConcentrationVariable: os.ExpandEnv(cfg.GetString("ConcentrationVariable")),
		TemperatureVariable:   os.ExpandEnv(cfg.GetString("TemperatureVariable")),
		SalinityVariable:      os.ExpandEnv(cfg.GetString("SalinityVariable")),
		Radius:                cfg.GetFloat64("EarthRadius"),
		NumProcessors:         cfg.GetInt("NumProcessors"),
		PlotVariable:          cfg.GetString("PlotVariable"),
	}
	if c.Edges, err = binEdges(cfg); err != nil {
		return nil, err
	}
	if !(c.Radius > 0) {
		return nil, fmt.Errorf("wmutil: EarthRadius=%g but should be >0", c.Radius)
	}
	if compare {
		files, err := GetStringMapString("SchemeFiles", cfg)
		if err != nil {
			return nil, err
		}
		if len(files) < 2 {
			return nil, fmt.Errorf("wmutil: SchemeFiles needs at least two schemes to compare but has %d", len(files))
		}
		c.SchemeFiles = make(map[string]string, len(files))
		for k, v := range files {
			c.SchemeFiles[os.ExpandEnv(k)] = os.ExpandEnv(v)
		}
		c.Reference = os.ExpandEnv(cfg.GetString("Reference"))
		return c, nil
	}
	dataFile := os.ExpandEnv(cfg.GetString("DataFile"))
	if dataFile == "" {
		return nil, fmt.Errorf("wmutil: you need to specify the DataFile configuration variable")
	}
	c.SchemeFiles = map[string]string{cfg.GetString("SchemeName"): dataFile}
	return c, nil
}

// ventilationConfig reads the settings of the ventilation command.
func ventilationConfig(cfg *viper.Viper) (*VentilationConfig, error) {
	common, err := commonConfig(cfg)
	if err != nil {
		return nil, err
	}
	c := &VentilationConfig{
		Common:              common,
		DataFile:            os.ExpandEnv(cfg.GetString("DataFile")),
		VolumeVariable:      os.ExpandEnv(cfg.GetString("VolumeVariable")),
		VentilationVariable: os.ExpandEnv(cfg.GetString("VentilationVariable")),
		TemperatureVariable: os.ExpandEnv(cfg.GetString("TemperatureVariable")),
		SalinityVariable:    os.ExpandEnv(cfg.GetString("SalinityVariable")),
	}
	if c.Edges, err = binEdges(cfg); err != nil {
		return nil, err
	}
	if c.DataFile == "" {
		return nil, fmt.Errorf("wmutil: you need to specify the DataFile configuration variable")
	}
	return c, nil
}

// streamFunctionConfig reads the settings of the streamfunction command.
func streamFunctionConfig(cfg *viper.Viper) (*StreamFunctionConfig, error) {
	common, err := commonConfig(cfg)
	if err != nil {
		return nil, err
	}
	c := &StreamFunctionConfig{
		Common:           common,
		DataFile:         os.ExpandEnv(cfg.GetString("DataFile")),
		VelocityVariable: os.ExpandEnv(cfg.GetString("VelocityVariable")),
		E1VVariable:      os.ExpandEnv(cfg.GetString("E1VVariable")),
		E3VVariable:      os.ExpandEnv(cfg.GetString("E3VVariable")),
		BasinFile:        os.ExpandEnv(cfg.GetString("BasinFile")),
		BasinVariable:    os.ExpandEnv(cfg.GetString("BasinVariable")),
		BasinMinLat:      cfg.GetFloat64("BasinMinLat"),
		Factor:           cfg.GetFloat64("StreamFunctionFactor"),
	}
	if c.DataFile == "" {
		return nil, fmt.Errorf("wmutil: you need to specify the DataFile configuration variable")
	}
	return c, nil
}
