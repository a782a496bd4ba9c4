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

	"github.com/ctessum/sparse"
)

// Haversine returns the great-circle distance between two points on a
// sphere of the given radius. Coordinates are in degrees.
func Haversine(lon1, lat1, lon2, lat2, radius float64) float64 {
	dlon := (lon2 - lon1) * deg2rad
	dlat := (lat2 - lat1) * deg2rad
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * radius * math.Asin(math.Sqrt(a))
}

// lateralSpreadStep returns the volume-weighted root-mean-square
// great-circle distance of the water columns in w from (latBar, lonBar).
func lateralSpreadStep(g *Geometry, w []float64, total, latBar, lonBar, radius float64) float64 {
	if total == 0 || math.IsNaN(latBar) || math.IsNaN(lonBar) {
		return math.NaN()
	}
	var sum float64
	for i, v := range w {
		if v == 0 {
			continue
		}
		d := Haversine(lonBar, latBar, g.Lon.Elements[i], g.Lat.Elements[i], radius)
		sum += d * d * v
	}
	return math.Sqrt(sum / total)
}

// LateralSpread returns the root-mean-square great-circle distance [in
// the units of radius] of a (t, y, x) depth-integrated volume from its
// centroid at each time step.
func LateralSpread(g *Geometry, depthIntegrated *sparse.DenseArray, total, lat, lon []float64, radius float64) ([]float64, error) {
	nt, err := g.checkSurface("lateral spread", depthIntegrated)
	if err != nil {
		return nil, err
	}
	if len(total) != nt || len(lat) != nt || len(lon) != nt {
		return nil, &ShapeError{Op: "lateral spread time series", Want: []int{nt}, Got: []int{len(total), len(lat), len(lon)}}
	}
	out := make([]float64, nt)
	for t := range out {
		out[t] = lateralSpreadStep(g, stepSlice(depthIntegrated, t), total[t], lat[t], lon[t], radius)
	}
	return out, nil
}

// verticalSpreadStep returns the volume-weighted root-mean-square
// distance of the levels in h from depth depBar.
func verticalSpreadStep(levelDepth, h []float64, total, depBar float64) float64 {
	if total == 0 || math.IsNaN(depBar) {
		return math.NaN()
	}
	var sum float64
	for k, v := range h {
		d := levelDepth[k] - depBar
		sum += d * d * v
	}
	return math.Sqrt(sum / total)
}

// VerticalSpread returns the root-mean-square distance [m] of a (t, z)
// horizontally-integrated volume from its mean depth at each time step.
// Distances are measured from the nominal depth of each model level.
func VerticalSpread(g *Geometry, horizontalIntegrated *sparse.DenseArray, total, depth []float64) ([]float64, error) {
	nt := len(total)
	if err := checkShape("vertical spread", horizontalIntegrated, nt, g.Nz); err != nil {
		return nil, err
	}
	if len(depth) != nt {
		return nil, &ShapeError{Op: "vertical spread mean depth", Want: []int{nt}, Got: []int{len(depth)}}
	}
	out := make([]float64, nt)
	for t := range out {
		out[t] = verticalSpreadStep(g.LevelDepth, stepSlice(horizontalIntegrated, t), total[t], depth[t])
	}
	return out, nil
}
