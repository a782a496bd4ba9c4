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

package watermass

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scheme is a passive tracer field produced by one configuration of the
// model, for example one advection scheme.
type Scheme struct {
	Name string

	// Concentration is the tracer concentration, (t, z, y, x).
	Concentration *sparse.DenseArray
}

// TracerOptions holds the settings of a tracer analysis.
type TracerOptions struct {
	// Radius is the radius of the sphere the centroid and the lateral
	// spread are calculated on. Zero means EarthRadius.
	Radius float64

	// NumProcessors is the number of time steps that are analyzed at
	// the same time. Zero means NumProcessors.
	NumProcessors int

	// Temperature and Salinity are optional (t, z, y, x) fields. When both
	// are given, the tracer-weighted mean temperature and salinity and the
	// temperature-salinity histogram of tracer volume are calculated.
	Temperature, Salinity *sparse.DenseArray

	// Edges are the histogram bin edges. If they are empty,
	// DefaultBinEdges are used.
	Edges BinEdges
}

// TracerStats holds the diagnostics of a single tracer.
type TracerStats struct {
	Scheme string

	// Volume is the tracer concentration times the cell volume
	// (t, z, y, x), DepthIntegrated is its sum over depth (t, y, x) and
	// HorizontalIntegrated is its sum over the horizontal axes (t, z).
	Volume, DepthIntegrated, HorizontalIntegrated *sparse.DenseArray

	// TotalVolume is the sum of Volume at each time step. PositiveVolume
	// is the sum of its positive part and NegativeVolume is the magnitude
	// of the sum of its negative part, so both are non-negative.
	TotalVolume, PositiveVolume, NegativeVolume []float64

	// InitialVolume is TotalVolume at the first time step.
	InitialVolume float64

	// ProbabilityDensity is DepthIntegrated divided by InitialVolume and
	// the cell area [m⁻²], (t, y, x).
	ProbabilityDensity *sparse.DenseArray

	// Lat, Lon [degrees] and Depth [m] are the center of mass of the
	// tracer at each time step.
	Lat, Lon, Depth []float64

	// LateralSpread [km, or the units of the radius] and VerticalSpread
	// [m] are the root-mean-square distances of the tracer from its
	// center of mass.
	LateralSpread, VerticalSpread []float64

	// MeanTemperature and MeanSalinity are weighted by tracer volume.
	// TSHistogram is the (t, temperature, salinity) histogram of tracer
	// volume. They are nil if no temperature and salinity were given.
	MeanTemperature, MeanSalinity []float64
	TSHistogram                   *sparse.DenseArray
}

// AnalyzeTracer calculates the diagnostics of a single tracer scheme.
// Time steps are analyzed concurrently; the results do not depend on
// the number of processors used.
func AnalyzeTracer(g *Geometry, s Scheme, o TracerOptions) (*TracerStats, error) {
	nt, err := g.checkField("tracer "+s.Name, s.Concentration)
	if err != nil {
		return nil, err
	}
	if nt == 0 {
		return nil, fmt.Errorf("watermass: tracer %s has no time steps", s.Name)
	}
	radius := o.Radius
	if radius == 0 {
		radius = EarthRadius
	}
	nprocs := o.NumProcessors
	if nprocs == 0 {
		nprocs = NumProcessors
	}
	withTS := o.Temperature != nil || o.Salinity != nil
	edges := o.Edges
	if withTS {
		if err = checkShape("tracer temperature", o.Temperature, s.Concentration.Shape...); err != nil {
			return nil, err
		}
		if err = checkShape("tracer salinity", o.Salinity, s.Concentration.Shape...); err != nil {
			return nil, err
		}
		if len(edges.Temperature) == 0 && len(edges.Salinity) == 0 {
			edges = DefaultBinEdges()
		}
		if err = edges.Validate(); err != nil {
			return nil, err
		}
	}

	r := &TracerStats{
		Scheme:         s.Name,
		TotalVolume:    make([]float64, nt),
		PositiveVolume: make([]float64, nt),
		NegativeVolume: make([]float64, nt),
		Lat:            make([]float64, nt),
		Lon:            make([]float64, nt),
		Depth:          make([]float64, nt),
		LateralSpread:  make([]float64, nt),
		VerticalSpread: make([]float64, nt),
	}
	if r.Volume, err = Volume(g, s.Concentration); err != nil {
		return nil, err
	}
	if r.DepthIntegrated, err = DepthIntegrated(r.Volume); err != nil {
		return nil, err
	}
	if r.HorizontalIntegrated, err = HorizontalIntegrated(r.Volume); err != nil {
		return nil, err
	}
	if withTS {
		r.MeanTemperature = make([]float64, nt)
		r.MeanSalinity = make([]float64, nt)
		r.TSHistogram = sparse.ZerosDense(nt, len(edges.Temperature)-1, len(edges.Salinity)-1)
	}

	p := NewProjection(g, radius)
	forEachStep(nt, nprocs, func(t int) {
		vol := stepSlice(r.Volume, t)
		di := stepSlice(r.DepthIntegrated, t)
		total := floats.Sum(vol)
		r.TotalVolume[t] = total
		r.PositiveVolume[t], r.NegativeVolume[t] = signedSum(vol)
		r.Lat[t], r.Lon[t] = p.centroidStep(di, total)
		r.Depth[t] = meanDepthStep(vol, g.Depth.Elements, total)
		r.LateralSpread[t] = lateralSpreadStep(g, di, total, r.Lat[t], r.Lon[t], radius)
		r.VerticalSpread[t] = verticalSpreadStep(g.LevelDepth, stepSlice(r.HorizontalIntegrated, t), total, r.Depth[t])
		if withTS {
			temp := stepSlice(o.Temperature, t)
			sal := stepSlice(o.Salinity, t)
			r.MeanTemperature[t] = weightedMean(temp, vol, total)
			r.MeanSalinity[t] = weightedMean(sal, vol, total)
			tsHistogramStep(stepSlice(r.TSHistogram, t), temp, sal, vol, edges)
		}
	})

	r.InitialVolume = r.TotalVolume[0]
	if r.ProbabilityDensity, err = ProbabilityDensity(g, r.DepthIntegrated, r.InitialVolume); err != nil {
		return nil, err
	}
	return r, nil
}

func weightedMean(x, w []float64, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return stat.Mean(x, w)
}

// CompareSchemes runs AnalyzeTracer for each scheme. The results are
// keyed by scheme name.
func CompareSchemes(g *Geometry, schemes []Scheme, o TracerOptions) (map[string]*TracerStats, error) {
	out := make(map[string]*TracerStats, len(schemes))
	for _, s := range schemes {
		if s.Name == "" {
			return nil, fmt.Errorf("watermass: tracer scheme has no name")
		}
		if _, ok := out[s.Name]; ok {
			return nil, fmt.Errorf("watermass: duplicate tracer scheme %s", s.Name)
		}
		st, err := AnalyzeTracer(g, s, o)
		if err != nil {
			return nil, fmt.Errorf("watermass: scheme %s: %v", s.Name, err)
		}
		out[s.Name] = st
	}
	return out, nil
}

// AddTo adds the diagnostics to r, with variable names prefixed by the
// scheme name.
func (s *TracerStats) AddTo(r *Results) error {
	type seriesVar struct {
		name, desc, units string
		data              []float64
	}
	p := s.Scheme + "_"
	series := []seriesVar{
		{"total_volume", "Total tracer volume", "m3", s.TotalVolume},
		{"positive_volume", "Volume of positive tracer", "m3", s.PositiveVolume},
		{"negative_volume", "Magnitude of the volume of negative tracer", "m3", s.NegativeVolume},
		{"lat", "Latitude of the tracer center of mass", "degrees_north", s.Lat},
		{"lon", "Longitude of the tracer center of mass", "degrees_east", s.Lon},
		{"depth", "Depth of the tracer center of mass", "m", s.Depth},
		{"lateral_spread", "Root-mean-square lateral distance from the center of mass", "km", s.LateralSpread},
		{"vertical_spread", "Root-mean-square vertical distance from the mean depth", "m", s.VerticalSpread},
	}
	if s.MeanTemperature != nil {
		series = append(series,
			seriesVar{"mean_temperature", "Tracer-weighted mean temperature", "degC", s.MeanTemperature},
			seriesVar{"mean_salinity", "Tracer-weighted mean salinity", "psu", s.MeanSalinity},
		)
	}
	for _, v := range series {
		if err := r.AddSeries(p+v.name, v.desc, v.units, v.data); err != nil {
			return err
		}
	}
	fields := []struct {
		name  string
		dims  []string
		desc  string
		units string
		data  *sparse.DenseArray
	}{
		{"depth_integrated", []string{"time", "y", "x"}, "Depth-integrated tracer volume", "m3", s.DepthIntegrated},
		{"horizontal_integrated", []string{"time", "z"}, "Horizontally-integrated tracer volume", "m3", s.HorizontalIntegrated},
		{"prob_density", []string{"time", "y", "x"}, "Probability density of depth-integrated tracer", "m-2", s.ProbabilityDensity},
		{"ts_histogram", []string{"time", "temperature_bin", "salinity_bin"}, "Tracer volume binned by temperature and salinity", "m3", s.TSHistogram},
	}
	for _, f := range fields {
		if f.data == nil {
			continue
		}
		if err := r.AddVariable(p+f.name, f.dims, f.desc, f.units, f.data); err != nil {
			return err
		}
	}
	return nil
}
