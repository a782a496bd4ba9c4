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
	"gonum.org/v1/gonum/floats"
)

const deg2rad = math.Pi / 180

// ToCartesian projects a point at latitude lat and longitude lon
// [degrees] onto a sphere of the given radius.
func ToCartesian(lat, lon, radius float64) (x, y, z float64) {
	colat := (lat + 90) * deg2rad
	phi := (lon + 180) * deg2rad
	x = radius * math.Sin(colat) * math.Cos(phi)
	y = radius * math.Sin(colat) * math.Sin(phi)
	z = radius * math.Cos(colat)
	return
}

// ToSpherical is the inverse of ToCartesian. The returned longitude is
// within [-180, 180).
func ToSpherical(x, y, z float64) (lat, lon float64) {
	r := math.Sqrt(x*x + y*y + z*z)
	lat = math.Acos(z/r)/deg2rad - 90
	lon = math.Atan2(y, x)/deg2rad - 180
	lon = math.Mod(lon+540, 360) - 180
	return
}

// Projection holds the Cartesian coordinates of the grid cell centers.
type Projection struct {
	X, Y, Z []float64
	Radius  float64

	ny, nx int
}

// NewProjection projects the cell centers of g onto a sphere of the
// given radius.
func NewProjection(g *Geometry, radius float64) *Projection {
	n := g.Ny * g.Nx
	p := &Projection{
		X:      make([]float64, n),
		Y:      make([]float64, n),
		Z:      make([]float64, n),
		Radius: radius,
		ny:     g.Ny,
		nx:     g.Nx,
	}
	for i := 0; i < n; i++ {
		p.X[i], p.Y[i], p.Z[i] = ToCartesian(g.Lat.Elements[i], g.Lon.Elements[i], radius)
	}
	return p
}

// centroidStep returns the centroid of a single time step of
// depth-integrated volume w with total volume total.
func (p *Projection) centroidStep(w []float64, total float64) (lat, lon float64) {
	if total == 0 {
		return math.NaN(), math.NaN()
	}
	x := floats.Dot(w, p.X) / total
	y := floats.Dot(w, p.Y) / total
	z := floats.Dot(w, p.Z) / total
	return ToSpherical(x, y, z)
}

// Centroid returns the volume-weighted horizontal center of mass of a
// (t, y, x) depth-integrated volume at each time step. The mean position
// is found in Cartesian space and projected back onto the sphere. total
// holds the total volume at each time step; where it is zero the
// centroid is NaN.
func (p *Projection) Centroid(depthIntegrated *sparse.DenseArray, total []float64) (lat, lon []float64, err error) {
	if err = checkShape("centroid", depthIntegrated, len(total), p.ny, p.nx); err != nil {
		return nil, nil, err
	}
	lat = make([]float64, len(total))
	lon = make([]float64, len(total))
	for t := range total {
		lat[t], lon[t] = p.centroidStep(stepSlice(depthIntegrated, t), total[t])
	}
	return lat, lon, nil
}

// meanDepthStep returns Σ(vol·depth)/total for a single (z, y, x) time
// step.
func meanDepthStep(vol, depth []float64, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return floats.Dot(vol, depth) / total
}

// MeanDepth returns the volume-weighted mean of the cumulative cell depth
// of a (t, z, y, x) volume field at each time step.
func MeanDepth(g *Geometry, vol *sparse.DenseArray, total []float64) ([]float64, error) {
	nt, err := g.checkField("mean depth", vol)
	if err != nil {
		return nil, err
	}
	if nt != len(total) {
		return nil, &ShapeError{Op: "mean depth total", Want: []int{nt}, Got: []int{len(total)}}
	}
	out := make([]float64, nt)
	for t := range out {
		out[t] = meanDepthStep(stepSlice(vol, t), g.Depth.Elements, total[t])
	}
	return out, nil
}
