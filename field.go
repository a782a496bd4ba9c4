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

// ShapeError is returned when the shapes of two arrays are incompatible.
type ShapeError struct {
	// Op is the operation that was being carried out.
	Op string
	// Want is the expected shape and Got is the shape that was given.
	Want, Got []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("watermass: %s: incompatible array shape %v; expected %v", e.Op, e.Got, e.Want)
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isSuffix reports whether short is equal to the trailing axes of long.
func isSuffix(short, long []int) bool {
	if len(short) > len(long) {
		return false
	}
	return sameShape(short, long[len(long)-len(short):])
}

// checkShape returns a *ShapeError if a does not have the given shape.
func checkShape(op string, a *sparse.DenseArray, shape ...int) error {
	if a == nil {
		return fmt.Errorf("watermass: %s: missing array", op)
	}
	if !sameShape(a.Shape, shape) {
		return &ShapeError{Op: op, Want: shape, Got: a.Shape}
	}
	return nil
}

// checkBroadcast returns a *ShapeError if a cannot be broadcast to shape.
func checkBroadcast(op string, a *sparse.DenseArray, shape []int) error {
	if a == nil {
		return fmt.Errorf("watermass: %s: missing array", op)
	}
	if !isSuffix(a.Shape, shape) {
		return &ShapeError{Op: op, Want: shape, Got: a.Shape}
	}
	return nil
}

// broadcastShape returns the shape of the array among arrays with the most
// axes, checking that all of the others broadcast to it.
func broadcastShape(op string, arrays ...*sparse.DenseArray) ([]int, error) {
	var shape []int
	for _, a := range arrays {
		if a == nil {
			return nil, fmt.Errorf("watermass: %s: missing array", op)
		}
		if len(a.Shape) > len(shape) {
			shape = a.Shape
		}
	}
	for _, a := range arrays {
		if err := checkBroadcast(op, a, shape); err != nil {
			return nil, err
		}
	}
	return append([]int{}, shape...), nil
}

// at returns the element of a that aligns with flat index i of an
// array that a broadcasts to.
func at(a *sparse.DenseArray, i int) float64 {
	return a.Elements[i%len(a.Elements)]
}

// stepSlice returns the elements of time step t of an array whose leading
// axis is time.
func stepSlice(a *sparse.DenseArray, t int) []float64 {
	n := len(a.Elements) / a.Shape[0]
	return a.Elements[t*n : (t+1)*n]
}

// promote prepends singleton axes to a until it has ndims axes.
func promote(a *sparse.DenseArray, ndims int) *sparse.DenseArray {
	if len(a.Shape) >= ndims {
		return a
	}
	shape := make([]int, ndims)
	for i := range shape {
		shape[i] = 1
	}
	copy(shape[ndims-len(a.Shape):], a.Shape)
	out := sparse.ZerosDense(shape...)
	copy(out.Elements, a.Elements)
	return out
}

// FlipTime returns a copy of a with the order of its leading (time) axis
// reversed.
func FlipTime(a *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(append([]int{}, a.Shape...)...)
	if len(a.Shape) == 0 || a.Shape[0] == 0 {
		return out
	}
	nt := a.Shape[0]
	for t := 0; t < nt; t++ {
		copy(stepSlice(out, nt-1-t), stepSlice(a, t))
	}
	return out
}

// Reduce sums a over the given axes, returning an array whose shape
// is the shape of a with those axes removed.
func Reduce(a *sparse.DenseArray, axes ...int) (*sparse.DenseArray, error) {
	ndims := len(a.Shape)
	drop := make([]bool, ndims)
	for _, ax := range axes {
		if ax < 0 || ax >= ndims {
			return nil, fmt.Errorf("watermass: reduce: axis %d out of range for array with shape %v", ax, a.Shape)
		}
		drop[ax] = true
	}
	var outShape []int
	for i, d := range a.Shape {
		if !drop[i] {
			outShape = append(outShape, d)
		}
	}
	out := sparse.ZerosDense(outShape...)

	// Stride of each input axis in the output array; zero for reduced axes.
	strides := make([]int, ndims)
	s := 1
	for i := ndims - 1; i >= 0; i-- {
		if !drop[i] {
			strides[i] = s
			s *= a.Shape[i]
		}
	}
	index := make([]int, ndims)
	o := 0
	for _, v := range a.Elements {
		out.Elements[o] += v
		// Advance the multi-dimensional index.
		for ax := ndims - 1; ax >= 0; ax-- {
			index[ax]++
			o += strides[ax]
			if index[ax] < a.Shape[ax] {
				break
			}
			o -= strides[ax] * index[ax]
			index[ax] = 0
		}
	}
	return out, nil
}
