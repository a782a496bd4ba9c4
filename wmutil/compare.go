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
	"fmt"
	"math"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/watermass"
)

// Agreement describes how closely one diagnostic time series of a
// scheme follows the same series of the reference scheme.
type Agreement struct {
	Slope, Intercept, RSquared float64

	// MaxDifference is the largest absolute difference between the
	// two series.
	MaxDifference float64
}

// compared are the time series that schemes are compared on.
var compared = []struct {
	name string
	f    func(*watermass.TracerStats) []float64
}{
	{"total_volume", func(s *watermass.TracerStats) []float64 { return s.TotalVolume }},
	{"depth", func(s *watermass.TracerStats) []float64 { return s.Depth }},
	{"lateral_spread", func(s *watermass.TracerStats) []float64 { return s.LateralSpread }},
	{"vertical_spread", func(s *watermass.TracerStats) []float64 { return s.VerticalSpread }},
}

// agreement regresses y against the reference series x, skipping time
// steps where either is NaN.
func agreement(x, y []float64) (Agreement, error) {
	if len(x) != len(y) {
		return Agreement{}, fmt.Errorf("wmutil: comparing series of length %d and %d", len(x), len(y))
	}
	var xs, ys []float64
	var a Agreement
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
		a.MaxDifference = math.Max(a.MaxDifference, math.Abs(y[i]-x[i]))
	}
	if len(xs) < 2 {
		return Agreement{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN(), MaxDifference: math.NaN()}, nil
	}
	a.Slope, a.Intercept, a.RSquared, _, _, _ = stats.LinearRegression(xs, ys)
	return a, nil
}

// compareSchemes compares every scheme in s against the reference
// scheme, logs the results and stores them as global attributes of r.
func compareSchemes(log logrus.FieldLogger, r *watermass.Results, s map[string]*watermass.TracerStats, reference string) error {
	ref, ok := s[reference]
	if !ok {
		return fmt.Errorf("wmutil: reference scheme '%s' is not one of the schemes %v", reference, sortedStatsKeys(s))
	}
	for _, name := range sortedStatsKeys(s) {
		if name == reference {
			continue
		}
		for _, c := range compared {
			a, err := agreement(c.f(ref), c.f(s[name]))
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"scheme":         name,
				"reference":      reference,
				"diagnostic":     c.name,
				"slope":          a.Slope,
				"r_squared":      a.RSquared,
				"max_difference": a.MaxDifference,
			}).Info("compared schemes")
			p := fmt.Sprintf("%s_vs_%s_%s_", name, reference, c.name)
			r.Attributes[p+"slope"] = fmt.Sprint(a.Slope)
			r.Attributes[p+"intercept"] = fmt.Sprint(a.Intercept)
			r.Attributes[p+"r_squared"] = fmt.Sprint(a.RSquared)
			r.Attributes[p+"max_difference"] = fmt.Sprint(a.MaxDifference)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStatsKeys(m map[string]*watermass.TracerStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
