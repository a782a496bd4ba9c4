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
	"sync/atomic"
	"testing"

	"github.com/ctessum/sparse"
)

const testTolerance = 1.e-9

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func newDense(data []float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, data)
	return a
}

func filled(v float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	for i := range a.Elements {
		a.Elements[i] = v
	}
	return a
}

// testGeometry creates a grid with square cells of width dx [m] and
// levels with the given thicknesses. lat and lon hold the (y, x) cell
// centers.
func testGeometry(t *testing.T, ny, nx int, lat, lon []float64, dx float64, dz []float64) *Geometry {
	nz := len(dz)
	e3 := sparse.ZerosDense(nz, ny, nx)
	levelDepth := make([]float64, nz)
	var d float64
	for k, h := range dz {
		levelDepth[k] = d + h/2
		d += h
		for j := 0; j < ny*nx; j++ {
			e3.Elements[k*ny*nx+j] = h
		}
	}
	g, err := NewGeometry(filled(dx, ny, nx), filled(dx, ny, nx), e3,
		newDense(lat, ny, nx), newDense(lon, ny, nx), levelDepth)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestForEachStep(t *testing.T) {
	for _, nprocs := range []int{0, 1, 3, 16} {
		var sum int64
		done := make([]bool, 10)
		forEachStep(10, nprocs, func(i int) {
			atomic.AddInt64(&sum, int64(i))
			done[i] = true
		})
		if sum != 45 {
			t.Errorf("nprocs %d: sum = %d; want 45", nprocs, sum)
		}
		for i, d := range done {
			if !d {
				t.Errorf("nprocs %d: step %d was not run", nprocs, i)
			}
		}
	}
}

func TestRatio(t *testing.T) {
	if r := ratio(1, 0); !math.IsNaN(r) {
		t.Errorf("ratio(1, 0) = %g; want NaN", r)
	}
	if r := ratio(0, 0); !math.IsNaN(r) {
		t.Errorf("ratio(0, 0) = %g; want NaN", r)
	}
	if r := ratio(3, 2); r != 1.5 {
		t.Errorf("ratio(3, 2) = %g; want 1.5", r)
	}
}
