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
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestAnalyzeVentilation(t *testing.T) {
	g := testGeometry(t, 1, 2, []float64{30, 30}, []float64{-40, -39}, 1000, []float64{10, 10})
	// Model time order: the last step is age zero.
	vol := newDense([]float64{
		0, 0, 0, 0,
		1e7, 1e7, 2e7, 0,
		2e7, 2e7, 2e7, 2e7,
	}, 3, 2, 1, 2)
	vent := newDense([]float64{
		1e6, 3e6,
		2e6, 2e6,
		0, 0,
	}, 3, 1, 2)
	sst := newDense([]float64{
		0, 4,
		1, 1,
		1, 1,
	}, 3, 1, 2)
	sss := newDense([]float64{
		34.6, 35.4,
		35, 35,
		35, 35,
	}, 3, 1, 2)
	edges := BinEdges{Temperature: []float64{0, 2, 4}, Salinity: []float64{34.5, 35, 35.5}}

	s, err := AnalyzeVentilation(g, FlipTime(vol), FlipTime(vent), FlipTime(sst), FlipTime(sss), edges)
	if err != nil {
		t.Fatal(err)
	}
	if different(s.InitialVolume, 8e7, testTolerance) {
		t.Errorf("initial volume = %g; want 8e7", s.InitialVolume)
	}
	if want := []float64{0, 0.05, 0.05}; !floats.EqualApprox(s.AgeProbability, want, testTolerance) {
		t.Errorf("age probability = %v; want %v", s.AgeProbability, want)
	}
	// Age 2: 1e6 / (8e7 · 1e6 m²)
	if v := s.ProbabilityDensity.Get(2, 0, 0); different(v, 1.25e-8, testTolerance) {
		t.Errorf("probability density = %g; want 1.25e-8", v)
	}
	// Age 1: both cells at (1, 35) fall in temperature bin 0, salinity bin 1.
	if v := s.TSHistogram.Get(1, 0, 1); different(v, 4e6, testTolerance) {
		t.Errorf("age 1 histogram = %g; want 4e6", v)
	}
	// Age 2: (0, 34.6) and the upper corner (4, 35.4).
	if v := s.TSHistogram.Get(2, 0, 0); different(v, 1e6, testTolerance) {
		t.Errorf("age 2 histogram [0, 0] = %g; want 1e6", v)
	}
	if v := s.TSHistogram.Get(2, 1, 1); different(v, 3e6, testTolerance) {
		t.Errorf("age 2 histogram [1, 1] = %g; want 3e6", v)
	}

	res := NewResults()
	if err := s.AddTo(res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 4 {
		t.Errorf("results: %v", res.Names())
	}
}

func TestAnalyzeVentilationZeroVolume(t *testing.T) {
	g := testGeometry(t, 1, 2, []float64{30, 30}, []float64{-40, -39}, 1000, []float64{10})
	s, err := AnalyzeVentilation(g, filled(0, 2, 1, 1, 2), filled(1, 2, 1, 2),
		filled(1, 2, 1, 2), filled(35, 2, 1, 2), BinEdges{})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range s.AgeProbability {
		if !math.IsNaN(p) {
			t.Errorf("age probability = %g; want NaN", p)
		}
	}
	if _, err := AnalyzeVentilation(g, filled(0, 2, 1, 1, 2), filled(1, 3, 1, 2),
		filled(1, 2, 1, 2), filled(35, 2, 1, 2), BinEdges{}); err == nil {
		t.Error("expected a shape error")
	}
}
