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

	"github.com/ctessum/sparse"
)

// TimeMean averages a field over its leading (time) axis.
func TimeMean(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(a.Shape) < 1 || a.Shape[0] == 0 {
		return nil, fmt.Errorf("watermass: time mean: array with shape %v has no time steps", a.Shape)
	}
	out, err := Reduce(a, TimeAxis)
	if err != nil {
		return nil, err
	}
	out.Scale(1 / float64(a.Shape[0]))
	return out, nil
}

// meridionalTransport returns e3v·e1v·v·mask on V points, (z, y, x).
// e1v is the zonal width of the V cells [m], (y, x), e3v is their
// thickness [m], (z, y, x), and v is the time-mean meridional velocity
// [m/s], (z, y, x). mask must broadcast to (z, y, x); if it is nil it is
// ignored.
func meridionalTransport(e1v, e3v, v, mask *sparse.DenseArray) (*sparse.DenseArray, error) {
	if e3v == nil || len(e3v.Shape) != 3 {
		return nil, fmt.Errorf("watermass: stream function: V cell thickness must be three-dimensional")
	}
	shape := e3v.Shape
	if err := checkShape("stream function velocity", v, shape...); err != nil {
		return nil, err
	}
	if err := checkShape("stream function e1v", e1v, shape[1:]...); err != nil {
		return nil, err
	}
	if mask != nil {
		if err := checkBroadcast("stream function mask", mask, shape); err != nil {
			return nil, err
		}
	}
	out := sparse.ZerosDense(shape[0], shape[1], shape[2])
	for i := range out.Elements {
		tr := e3v.Elements[i] * at(e1v, i) * v.Elements[i]
		if mask != nil {
			tr *= at(mask, i)
		}
		out.Elements[i] = tr
	}
	return out, nil
}

// BarotropicStreamFunction returns the depth-integrated meridional
// transport accumulated from west to east, multiplied by factor, (y, x).
func BarotropicStreamFunction(e1v, e3v, v, mask *sparse.DenseArray, factor float64) (*sparse.DenseArray, error) {
	tr, err := meridionalTransport(e1v, e3v, v, mask)
	if err != nil {
		return nil, err
	}
	psi, err := Reduce(tr, 0)
	if err != nil {
		return nil, err
	}
	ny, nx := psi.Shape[0], psi.Shape[1]
	for j := 0; j < ny; j++ {
		row := psi.Elements[j*nx : (j+1)*nx]
		for i := 1; i < nx; i++ {
			row[i] += row[i-1]
		}
	}
	psi.Scale(factor)
	return psi, nil
}

// OverturningStreamFunction returns the zonally-integrated meridional
// transport accumulated from the surface downward, multiplied by factor,
// (z, y).
func OverturningStreamFunction(e1v, e3v, v, mask *sparse.DenseArray, factor float64) (*sparse.DenseArray, error) {
	tr, err := meridionalTransport(e1v, e3v, v, mask)
	if err != nil {
		return nil, err
	}
	psi, err := Reduce(tr, 2)
	if err != nil {
		return nil, err
	}
	nz, ny := psi.Shape[0], psi.Shape[1]
	for k := 1; k < nz; k++ {
		for j := 0; j < ny; j++ {
			psi.Elements[k*ny+j] += psi.Elements[(k-1)*ny+j]
		}
	}
	psi.Scale(factor)
	return psi, nil
}
