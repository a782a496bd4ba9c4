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
)

// Linspace returns n evenly spaced values from min to max, inclusive.
func Linspace(min, max float64, n int) []float64 {
	if n < 2 {
		s := make([]float64, n)
		if n == 1 {
			s[0] = min
		}
		return s
	}
	return floats.Span(make([]float64, n), min, max)
}

// BinEdges holds the bin edges of a temperature-salinity histogram.
// Each bin includes its lower edge; the last bin along each axis also
// includes its upper edge.
type BinEdges struct {
	Temperature, Salinity []float64
}

// DefaultBinEdges returns 28 temperature bins between -2 and 5 °C and
// 20 salinity bins between 34.5 and 35.5 psu.
func DefaultBinEdges() BinEdges {
	return BinEdges{
		Temperature: Linspace(-2, 5, 29),
		Salinity:    Linspace(34.5, 35.5, 21),
	}
}

// Validate checks that both sets of edges have at least two strictly
// increasing values.
func (b BinEdges) Validate() error {
	for _, e := range []struct {
		name  string
		edges []float64
	}{{"temperature", b.Temperature}, {"salinity", b.Salinity}} {
		if len(e.edges) < 2 {
			return fmt.Errorf("watermass: %s histogram needs at least 2 bin edges but has %d", e.name, len(e.edges))
		}
		for i := 1; i < len(e.edges); i++ {
			if !(e.edges[i] > e.edges[i-1]) {
				return fmt.Errorf("watermass: %s histogram bin edges are not strictly increasing: %v", e.name, e.edges)
			}
		}
	}
	return nil
}

// bin returns the bin of edges that v falls in, or -1 if it is out of
// range or NaN.
func bin(edges []float64, v float64) int {
	if math.IsNaN(v) {
		return -1
	}
	if v == edges[len(edges)-1] {
		return len(edges) - 2
	}
	return floats.Within(edges, v)
}

// tsHistogramStep adds the weights w of the cells with temperature temp
// and salinity sal to the (nT, nS) histogram h.
func tsHistogramStep(h, temp, sal, w []float64, b BinEdges) {
	ns := len(b.Salinity) - 1
	for i, wt := range w {
		it := bin(b.Temperature, temp[i])
		if it < 0 {
			continue
		}
		is := bin(b.Salinity, sal[i])
		if is < 0 {
			continue
		}
		h[it*ns+is] += wt
	}
}

// TSHistogram returns the weighted two-dimensional histogram of
// temperature and salinity at each time step. temp, sal and weight must
// have the same shape, with time as the leading axis. The result has
// shape (t, len(Temperature)-1, len(Salinity)-1). Cells with temperature
// or salinity outside of the edges are dropped.
func TSHistogram(temp, sal, weight *sparse.DenseArray, b BinEdges) (*sparse.DenseArray, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if temp == nil || len(temp.Shape) < 1 {
		return nil, fmt.Errorf("watermass: ts histogram: missing temperature")
	}
	if err := checkShape("ts histogram salinity", sal, temp.Shape...); err != nil {
		return nil, err
	}
	if err := checkShape("ts histogram weight", weight, temp.Shape...); err != nil {
		return nil, err
	}
	nt := temp.Shape[0]
	out := sparse.ZerosDense(nt, len(b.Temperature)-1, len(b.Salinity)-1)
	for t := 0; t < nt; t++ {
		tsHistogramStep(stepSlice(out, t), stepSlice(temp, t), stepSlice(sal, t), stepSlice(weight, t), b)
	}
	return out, nil
}
