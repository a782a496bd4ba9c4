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
)

// Volume multiplies a (t, z, y, x) field, such as a mask or a tracer
// concentration, by the cell volumes.
func Volume(g *Geometry, field *sparse.DenseArray) (*sparse.DenseArray, error) {
	if _, err := g.checkField("volume", field); err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(append([]int{}, field.Shape...)...)
	cv := g.CellVolume()
	for i, v := range field.Elements {
		out.Elements[i] = v * at(cv, i)
	}
	return out, nil
}

// TotalVolume sums a (t, z, y, x) volume field over space.
func TotalVolume(vol *sparse.DenseArray) ([]float64, error) {
	r, err := Reduce(vol, DepthAxis, LatAxis, LonAxis)
	if err != nil {
		return nil, err
	}
	return r.Elements, nil
}

// DepthIntegrated sums a (t, z, y, x) volume field over depth, returning
// a (t, y, x) field.
func DepthIntegrated(vol *sparse.DenseArray) (*sparse.DenseArray, error) {
	return Reduce(vol, DepthAxis)
}

// HorizontalIntegrated sums a (t, z, y, x) volume field over the
// horizontal axes, returning a (t, z) field.
func HorizontalIntegrated(vol *sparse.DenseArray) (*sparse.DenseArray, error) {
	return Reduce(vol, LatAxis, LonAxis)
}

// SignedVolume returns the sum of the positive elements and the magnitude
// of the sum of the negative elements of a (t, z, y, x) volume field at
// each time step. Both are non-negative; the total is positive - negative.
func SignedVolume(vol *sparse.DenseArray) (positive, negative []float64) {
	nt := vol.Shape[0]
	positive = make([]float64, nt)
	negative = make([]float64, nt)
	for t := 0; t < nt; t++ {
		positive[t], negative[t] = signedSum(stepSlice(vol, t))
	}
	return
}

func signedSum(v []float64) (pos, neg float64) {
	for _, x := range v {
		if x > 0 {
			pos += x
		} else {
			neg -= x
		}
	}
	return
}

// OutcropArea returns the horizontal area of the top model level that is
// covered by a (t, z, y, x) mask, multiplied by factor.
func OutcropArea(g *Geometry, mask *sparse.DenseArray, factor float64) ([]float64, error) {
	nt, err := g.checkField("outcrop area", mask)
	if err != nil {
		return nil, err
	}
	area := g.CellArea().Elements
	out := make([]float64, nt)
	for t := 0; t < nt; t++ {
		top := stepSlice(mask, t)[:len(area)]
		for j, m := range top {
			out[t] += m * area[j]
		}
		out[t] *= factor
	}
	return out, nil
}

// Surface returns the top model level of a (t, z, y, x) field as a
// (t, y, x) field.
func Surface(f *sparse.DenseArray) *sparse.DenseArray {
	nt, ny, nx := f.Shape[0], f.Shape[2], f.Shape[3]
	out := sparse.ZerosDense(nt, ny, nx)
	for t := 0; t < nt; t++ {
		copy(stepSlice(out, t), stepSlice(f, t)[:ny*nx])
	}
	return out
}

// ProbabilityDensity divides a (t, y, x) depth-integrated volume by the
// initial volume and the cell area, giving the probability per unit area
// [m⁻²] of finding the tracer in each water column. The result is NaN
// everywhere if the initial volume is zero.
func ProbabilityDensity(g *Geometry, depthIntegrated *sparse.DenseArray, initial float64) (*sparse.DenseArray, error) {
	nt, err := g.checkSurface("probability density", depthIntegrated)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(nt, g.Ny, g.Nx)
	area := g.CellArea()
	for i, v := range depthIntegrated.Elements {
		out.Elements[i] = ratio(v, initial*at(area, i))
	}
	return out, nil
}
