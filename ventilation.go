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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// VentilationStats holds the diagnostics of an adjoint ventilation run.
// The time axis of every field is tracer age: index 0 is the water that
// was ventilated most recently.
type VentilationStats struct {
	// InitialVolume is the total tracer volume at age zero.
	InitialVolume float64

	// ProbabilityDensity is the ventilated volume divided by the initial
	// volume and the cell area [m⁻²], (age, y, x).
	ProbabilityDensity *sparse.DenseArray

	// AgeProbability is the fraction of the initial volume that was
	// ventilated at each age.
	AgeProbability []float64

	// TSHistogram is the ventilated volume binned by the surface
	// temperature and salinity at the time of ventilation,
	// (age, temperature, salinity).
	TSHistogram *sparse.DenseArray
}

// AnalyzeVentilation calculates ventilation diagnostics. vol is the
// adjoint tracer volume (age, z, y, x), vent is the volume ventilated
// through each surface cell (age, y, x), and sst and sss are the surface
// temperature and salinity (age, y, x). Fields read in model time order
// should be reversed with FlipTime first.
func AnalyzeVentilation(g *Geometry, vol, vent, sst, sss *sparse.DenseArray, edges BinEdges) (*VentilationStats, error) {
	nt, err := g.checkField("ventilation volume", vol)
	if err != nil {
		return nil, err
	}
	for name, a := range map[string]*sparse.DenseArray{"ventilation": vent, "surface temperature": sst, "surface salinity": sss} {
		if err = checkShape(name, a, nt, g.Ny, g.Nx); err != nil {
			return nil, err
		}
	}
	if len(edges.Temperature) == 0 && len(edges.Salinity) == 0 {
		edges = DefaultBinEdges()
	}
	s := &VentilationStats{AgeProbability: make([]float64, nt)}
	if nt > 0 {
		s.InitialVolume = floats.Sum(stepSlice(vol, 0))
	}
	if s.ProbabilityDensity, err = ProbabilityDensity(g, vent, s.InitialVolume); err != nil {
		return nil, err
	}
	for t := 0; t < nt; t++ {
		s.AgeProbability[t] = ratio(floats.Sum(stepSlice(vent, t)), s.InitialVolume)
	}
	if s.TSHistogram, err = TSHistogram(sst, sss, vent, edges); err != nil {
		return nil, err
	}
	return s, nil
}

// AddTo adds the diagnostics to r.
func (s *VentilationStats) AddTo(r *Results) error {
	if err := r.AddSeries("age_probability", "Fraction of the initial volume ventilated at each age", "1", s.AgeProbability); err != nil {
		return err
	}
	if err := r.AddVariable("vent_prob_density", []string{"time", "y", "x"}, "Probability density of ventilation", "m-2", s.ProbabilityDensity); err != nil {
		return err
	}
	if err := r.AddVariable("vent_ts_histogram", []string{"time", "temperature_bin", "salinity_bin"},
		"Ventilated volume binned by surface temperature and salinity", "m3", s.TSHistogram); err != nil {
		return err
	}
	iv := sparse.ZerosDense(1)
	iv.Elements[0] = s.InitialVolume
	return r.AddVariable("initial_volume", []string{"one"}, "Tracer volume at age zero", "m3", iv)
}
