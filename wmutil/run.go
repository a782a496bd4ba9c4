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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/watermass"
	"github.com/spatialmodel/watermass/cloud"
	"gonum.org/v1/gonum/floats"
)

// Common holds the settings shared by all of the analysis commands.
type Common struct {
	// MeshFile is the path or URL of the NEMO mesh_mask file.
	MeshFile string

	// MeshVariables are the names of the grid variables in MeshFile.
	MeshVariables watermass.GeometryVariables

	// OutputFile is the path or URL the NetCDF results are written to,
	// and LogFile is where the log is written in addition to the
	// console.
	OutputFile, LogFile string

	// LogLevel is the minimum level of logged messages, e.g. "info".
	LogLevel string

	// PlotFile, if not empty, is the path or URL of a PNG time series
	// plot of the results.
	PlotFile string

	// BeginStep and EndStep select the time steps [BeginStep, EndStep)
	// of the input fields. A negative EndStep selects through the last
	// step.
	BeginStep, EndStep int
}

// session holds the state of a single analysis command.
type session struct {
	ctx     context.Context
	c       Common
	t       transfer
	log     *logrus.Logger
	logFile *os.File
	start   time.Time
}

func newSession(ctx context.Context, out io.Writer, c Common) (*session, error) {
	s := &session{ctx: ctx, c: c, start: time.Now()}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("wmutil: %v", err)
	}
	logPath, err := s.t.maybeUpload(c.LogFile)
	if err != nil {
		return nil, err
	}
	if s.logFile, err = os.Create(logPath); err != nil {
		s.t.cleanup()
		return nil, fmt.Errorf("wmutil: problem creating log file: %v", err)
	}
	s.log = logrus.New()
	s.log.Out = io.MultiWriter(out, s.logFile)
	s.log.Level = level
	s.log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	cloud.Log = s.log
	return s, nil
}

// open opens an input dataset, logging the file name.
func (s *session) open(path string) (*watermass.Dataset, error) {
	s.log.WithField("file", path).Info("opening input file")
	return s.t.open(s.ctx, os.ExpandEnv(path))
}

// geometry reads the grid geometry from the mesh file.
func (s *session) geometry() (*watermass.Geometry, *watermass.Dataset, error) {
	mesh, err := s.open(s.c.MeshFile)
	if err != nil {
		return nil, nil, err
	}
	g, err := watermass.LoadGeometry(mesh, s.c.MeshVariables)
	if err != nil {
		mesh.Close()
		return nil, nil, err
	}
	s.log.WithFields(logrus.Fields{
		"nz": g.Nz,
		"ny": g.Ny,
		"nx": g.Nx,
	}).Info("loaded grid geometry")
	return g, mesh, nil
}

// readField reads variable v from the first of datasets that contains it.
func (s *session) readField(v string, datasets ...*watermass.Dataset) (*sparse.DenseArray, error) {
	for _, ds := range datasets {
		if ds == nil || !ds.Has(v) {
			continue
		}
		start := time.Now()
		a, err := ds.ReadField(v, s.c.BeginStep, s.c.EndStep)
		if err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"variable": v,
			"file":     ds.Name(),
			"shape":    a.Shape,
		}).Info("read variable")
		s.log.WithField("duration", time.Since(start)).Debug("finished reading " + v)
		return a, nil
	}
	return nil, fmt.Errorf("wmutil: none of the input files contain variable '%s'", v)
}

// finish writes the results and the plot, uploads any output that is
// bound for blob storage, and removes the temporary files.
func (s *session) finish(r *watermass.Results, plotSuffix string, runErr error) (err error) {
	defer s.t.cleanup()
	defer func() {
		if err != nil {
			s.log.WithError(err).Error("analysis failed")
		}
		s.logFile.Close()
		if uerr := s.t.upload(s.ctx); err == nil {
			err = uerr
		}
	}()
	if runErr != nil {
		return runErr
	}
	outPath, err := s.t.maybeUpload(s.c.OutputFile)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("wmutil: creating output file: %v", err)
	}
	if err = r.Write(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("wmutil: closing output file: %v", err)
	}
	s.log.WithFields(logrus.Fields{
		"file":      s.c.OutputFile,
		"variables": len(r.Data),
	}).Info("wrote results")

	if s.c.PlotFile != "" && plotSuffix != "" {
		plotPath, err := s.t.maybeUpload(s.c.PlotFile)
		if err != nil {
			return err
		}
		if err = plotResults(plotPath, r, plotSuffix); err != nil {
			return err
		}
		s.log.WithField("file", s.c.PlotFile).Info("wrote plot")
	}
	s.log.WithField("duration", time.Since(s.start)).Info("finished")
	return nil
}

// CensusConfig holds the settings of a water-mass census.
type CensusConfig struct {
	Common

	// DataFile holds the temperature and salinity fields, e.g. a
	// trajectory climatology.
	DataFile string

	// BasinFile, if not empty, holds basin mask variable BasinVariable.
	// Cells south of BasinMinLat are removed from the basin.
	BasinFile, BasinVariable string
	BasinMinLat              float64

	// VariableNames maps the field names used in the water-mass
	// constraints to the names of the variables in the input files.
	VariableNames map[string]string

	WaterMasses []*watermass.WaterMass
}

// Census classifies the water masses in c and writes their masks,
// volumes and outcrop areas.
func Census(ctx context.Context, out io.Writer, c CensusConfig) error {
	s, err := newSession(ctx, out, c.Common)
	if err != nil {
		return err
	}
	r, err := census(s, c)
	return s.finish(r, "volume", err)
}

func census(s *session, c CensusConfig) (*watermass.Results, error) {
	g, mesh, err := s.geometry()
	if err != nil {
		return nil, err
	}
	defer mesh.Close()
	data, err := s.open(c.DataFile)
	if err != nil {
		return nil, err
	}
	defer data.Close()

	var basin *sparse.DenseArray
	if c.BasinFile != "" {
		bds, err := s.open(c.BasinFile)
		if err != nil {
			return nil, err
		}
		basin, err = watermass.LoadBasinMask(bds, c.BasinVariable, g, c.BasinMinLat)
		bds.Close()
		if err != nil {
			return nil, err
		}
	}

	r := watermass.NewResults()
	r.Attributes["title"] = "water-mass census"
	vars := make(map[string]*sparse.DenseArray)
	for _, w := range c.WaterMasses {
		names, err := w.Variables()
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if _, ok := vars[n]; ok {
				continue
			}
			fileVar := n
			if v, ok := c.VariableNames[n]; ok && (data.Has(v) || mesh.Has(v)) {
				fileVar = v
			}
			if vars[n], err = s.readField(fileVar, data, mesh); err != nil {
				return nil, err
			}
		}
		mask, err := w.Classify(g, vars, basin)
		if err != nil {
			return nil, err
		}
		volume, outcrop, err := watermass.Census(g, mask)
		if err != nil {
			return nil, err
		}
		if len(volume) == 0 {
			return nil, fmt.Errorf("wmutil: census: no time steps in [%d, %d)", s.c.BeginStep, s.c.EndStep)
		}
		thickness, err := watermass.ColumnThickness(mask, g.E3)
		if err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"water_mass":     w.Name,
			"steps":          len(volume),
			"initial_volume": volume[0],
		}).Info("classified water mass")
		if err = addCensus(r, w, mask, thickness, volume, outcrop); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func addCensus(r *watermass.Results, w *watermass.WaterMass, mask, thickness *sparse.DenseArray, volume, outcrop []float64) error {
	if err := r.AddVariable(w.Name+"_mask", []string{"time", "z", "y", "x"}, w.Description+" mask", "1", mask); err != nil {
		return err
	}
	if err := r.AddVariable(w.Name+"_thickness", []string{"time", "y", "x"}, w.Description+" column thickness", "m", thickness); err != nil {
		return err
	}
	if err := r.AddSeries(w.Name+"_volume", w.Description+" volume", "m3", volume); err != nil {
		return err
	}
	return r.AddSeries(w.Name+"_outcrop_area", w.Description+" outcrop area", "km2", outcrop)
}

// TracerConfig holds the settings of a tangent-linear tracer analysis.
type TracerConfig struct {
	Common

	// SchemeFiles maps scheme names to the files holding their tracer
	// concentrations. The tracer command uses a single scheme.
	SchemeFiles map[string]string

	// Reference is the scheme the others are compared against. If it is
	// empty, the first scheme in alphabetical order is used.
	Reference string

	// ConcentrationVariable is the tracer concentration in each scheme
	// file. TemperatureVariable and SalinityVariable, if present in the
	// scheme file, are used for the temperature-salinity diagnostics.
	ConcentrationVariable, TemperatureVariable, SalinityVariable string

	Edges         watermass.BinEdges
	Radius        float64
	NumProcessors int

	// PlotVariable is the diagnostic time series that is plotted, e.g.
	// "total_volume" or "lateral_spread".
	PlotVariable string
}

// Tracer calculates the diagnostics of the passive tracers in c.
// With more than one scheme, the schemes are also compared against
// c.Reference.
func Tracer(ctx context.Context, out io.Writer, c TracerConfig) error {
	s, err := newSession(ctx, out, c.Common)
	if err != nil {
		return err
	}
	r, err := tracer(s, c)
	return s.finish(r, c.PlotVariable, err)
}

func tracer(s *session, c TracerConfig) (*watermass.Results, error) {
	if len(c.SchemeFiles) == 0 {
		return nil, fmt.Errorf("wmutil: no tracer files specified")
	}
	g, mesh, err := s.geometry()
	if err != nil {
		return nil, err
	}
	defer mesh.Close()

	names := sortedKeys(c.SchemeFiles)
	reference := c.Reference
	if reference == "" {
		reference = names[0]
	}
	o := watermass.TracerOptions{
		Radius:        c.Radius,
		NumProcessors: c.NumProcessors,
		Edges:         c.Edges,
	}
	schemes := make([]watermass.Scheme, len(names))
	for i, name := range names {
		ds, err := s.open(c.SchemeFiles[name])
		if err != nil {
			return nil, err
		}
		schemes[i], err = readScheme(s, ds, name, name == reference, c, &o)
		ds.Close()
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	stats, err := watermass.CompareSchemes(g, schemes, o)
	if err != nil {
		return nil, err
	}
	s.log.WithField("duration", time.Since(start)).Debug("finished tracer analysis")

	r := watermass.NewResults()
	r.Attributes["title"] = "passive tracer diagnostics"
	for _, name := range names {
		st := stats[name]
		s.log.WithFields(logrus.Fields{
			"scheme":         name,
			"steps":          len(st.TotalVolume),
			"initial_volume": st.InitialVolume,
		}).Info("analyzed tracer")
		if err = st.AddTo(r); err != nil {
			return nil, err
		}
	}
	if len(stats) > 1 {
		r.Attributes["reference_scheme"] = reference
		if err := compareSchemes(s.log, r, stats, reference); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// readScheme reads the tracer concentration of a scheme. The trajectory
// temperature and salinity, which all schemes share, are read from the
// reference scheme's file when it has them.
func readScheme(s *session, ds *watermass.Dataset, name string, reference bool, c TracerConfig, o *watermass.TracerOptions) (watermass.Scheme, error) {
	sc := watermass.Scheme{Name: name}
	var err error
	if sc.Concentration, err = s.readField(c.ConcentrationVariable, ds); err != nil {
		return sc, err
	}
	if !reference || c.TemperatureVariable == "" || c.SalinityVariable == "" ||
		!ds.Has(c.TemperatureVariable) || !ds.Has(c.SalinityVariable) {
		return sc, nil
	}
	if o.Temperature, err = s.readField(c.TemperatureVariable, ds); err != nil {
		return sc, err
	}
	if o.Salinity, err = s.readField(c.SalinityVariable, ds); err != nil {
		return sc, err
	}
	return sc, nil
}

// VentilationConfig holds the settings of an adjoint ventilation
// analysis.
type VentilationConfig struct {
	Common

	// DataFile holds the adjoint tracer volume, the ventilated volume
	// and the temperature and salinity of the trajectory, in model time
	// order.
	DataFile string

	VolumeVariable, VentilationVariable   string
	TemperatureVariable, SalinityVariable string

	Edges watermass.BinEdges
}

// Ventilation calculates where, when, and at which surface temperature
// and salinity the water in the adjoint tracer was ventilated.
func Ventilation(ctx context.Context, out io.Writer, c VentilationConfig) error {
	s, err := newSession(ctx, out, c.Common)
	if err != nil {
		return err
	}
	r, err := ventilation(s, c)
	return s.finish(r, "age_probability", err)
}

func ventilation(s *session, c VentilationConfig) (*watermass.Results, error) {
	g, mesh, err := s.geometry()
	if err != nil {
		return nil, err
	}
	defer mesh.Close()
	ds, err := s.open(c.DataFile)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	vol, err := s.readField(c.VolumeVariable, ds)
	if err != nil {
		return nil, err
	}
	vent, err := s.readField(c.VentilationVariable, ds)
	if err != nil {
		return nil, err
	}
	sst, err := ds.ReadSurface(c.TemperatureVariable, s.c.BeginStep, s.c.EndStep)
	if err != nil {
		return nil, err
	}
	sss, err := ds.ReadSurface(c.SalinityVariable, s.c.BeginStep, s.c.EndStep)
	if err != nil {
		return nil, err
	}
	v, err := watermass.AnalyzeVentilation(g, watermass.FlipTime(vol), watermass.FlipTime(vent),
		watermass.FlipTime(sst), watermass.FlipTime(sss), c.Edges)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"ages":           len(v.AgeProbability),
		"initial_volume": v.InitialVolume,
	}).Info("analyzed ventilation")
	r := watermass.NewResults()
	r.Attributes["title"] = "adjoint ventilation diagnostics"
	return r, v.AddTo(r)
}

// StreamFunctionConfig holds the settings of a stream function
// calculation.
type StreamFunctionConfig struct {
	Common

	// DataFile holds the meridional velocity VelocityVariable, which is
	// averaged over the selected time steps.
	DataFile, VelocityVariable string

	// E1VVariable and E3VVariable are the V cell width and thickness in
	// the mesh file.
	E1VVariable, E3VVariable string

	BasinFile, BasinVariable string
	BasinMinLat              float64

	// Factor converts m³/s to the output units.
	Factor float64
}

// StreamFunction calculates the barotropic and meridional overturning
// stream functions of the time-mean velocity.
func StreamFunction(ctx context.Context, out io.Writer, c StreamFunctionConfig) error {
	s, err := newSession(ctx, out, c.Common)
	if err != nil {
		return err
	}
	r, err := streamFunction(s, c)
	return s.finish(r, "", err)
}

func streamFunction(s *session, c StreamFunctionConfig) (*watermass.Results, error) {
	g, mesh, err := s.geometry()
	if err != nil {
		return nil, err
	}
	defer mesh.Close()
	ds, err := s.open(c.DataFile)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	v, err := s.readField(c.VelocityVariable, ds)
	if err != nil {
		return nil, err
	}
	vBar, err := watermass.TimeMean(v)
	if err != nil {
		return nil, err
	}
	e1v, err := mesh.ReadStatic(c.E1VVariable)
	if err != nil {
		return nil, err
	}
	e3v, err := mesh.ReadStatic(c.E3VVariable)
	if err != nil {
		return nil, err
	}
	var basin *sparse.DenseArray
	if c.BasinFile != "" {
		bds, err := s.open(c.BasinFile)
		if err != nil {
			return nil, err
		}
		basin, err = watermass.LoadBasinMask(bds, c.BasinVariable, g, c.BasinMinLat)
		bds.Close()
		if err != nil {
			return nil, err
		}
	}
	bsf, err := watermass.BarotropicStreamFunction(e1v, e3v, vBar, basin, c.Factor)
	if err != nil {
		return nil, err
	}
	msf, err := watermass.OverturningStreamFunction(e1v, e3v, vBar, basin, c.Factor)
	if err != nil {
		return nil, err
	}
	s.log.WithField("max_overturning", floats.Max(msf.Elements)).Info("calculated stream functions")

	r := watermass.NewResults()
	r.Attributes["title"] = "stream functions"
	if err := r.AddVariable("barotropic_stream_function", []string{"y", "x"},
		"Barotropic stream function integrated from west to east", "Sv", bsf); err != nil {
		return nil, err
	}
	if err := r.AddVariable("overturning_stream_function", []string{"z", "y"},
		"Meridional overturning stream function", "Sv", msf); err != nil {
		return nil, err
	}
	return r, nil
}
