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
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestReduceUniform(t *testing.T) {
	const v = 2.5
	a := filled(v, 3, 4, 5, 6)
	r, err := Reduce(a, 0, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Elements) != 1 {
		t.Fatalf("reduced array has %d elements", len(r.Elements))
	}
	if want := v * 3 * 4 * 5 * 6; different(r.Elements[0], want, testTolerance) {
		t.Errorf("have %g, want %g", r.Elements[0], want)
	}
}

func TestReduceAxes(t *testing.T) {
	// a[i][j][k] = 100i + 10j + k
	a := newDense(nil, 2, 3, 4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				a.Set(float64(100*i+10*j+k), i, j, k)
			}
		}
	}
	tests := []struct {
		axes  []int
		shape []int
		want  []float64
	}{
		{
			axes:  []int{1},
			shape: []int{2, 4},
			want:  []float64{30, 33, 36, 39, 330, 333, 336, 339},
		},
		{
			axes:  []int{1, 2},
			shape: []int{2},
			want:  []float64{138, 1338},
		},
		{
			axes:  []int{0},
			shape: []int{3, 4},
			want:  []float64{100, 102, 104, 106, 120, 122, 124, 126, 140, 142, 144, 146},
		},
		{
			axes:  []int{2},
			shape: []int{2, 3},
			want:  []float64{6, 46, 86, 406, 446, 486},
		},
	}
	for _, test := range tests {
		r, err := Reduce(a, test.axes...)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(r.Shape, test.shape) {
			t.Errorf("axes %v: shape %v, want %v", test.axes, r.Shape, test.shape)
			continue
		}
		if !floats.EqualApprox(r.Elements, test.want, testTolerance) {
			t.Errorf("axes %v: have %v, want %v", test.axes, r.Elements, test.want)
		}
	}
}

func TestReduceBadAxis(t *testing.T) {
	if _, err := Reduce(filled(1, 2, 2), 2); err == nil {
		t.Error("expected an error for an out-of-range axis")
	}
}

func TestFlipTime(t *testing.T) {
	a := newDense([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	f := FlipTime(a)
	want := []float64{5, 6, 3, 4, 1, 2}
	if !reflect.DeepEqual(f.Elements, want) {
		t.Errorf("have %v, want %v", f.Elements, want)
	}
	if a.Elements[0] != 1 {
		t.Error("FlipTime modified its input")
	}
	if !reflect.DeepEqual(FlipTime(f).Elements, a.Elements) {
		t.Error("flipping twice should return the original order")
	}
}

func TestBroadcastShape(t *testing.T) {
	shape, err := broadcastShape("test", filled(1, 4, 3, 2), filled(1, 2), filled(1, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(shape, []int{4, 3, 2}) {
		t.Errorf("shape = %v", shape)
	}
	_, err = broadcastShape("test", filled(1, 4, 3, 2), filled(1, 3))
	if _, ok := err.(*ShapeError); !ok {
		t.Errorf("expected a *ShapeError, got %v", err)
	}
}

func TestPromote(t *testing.T) {
	a := newDense([]float64{1, 2, 3, 4}, 2, 2)
	p := promote(a, 4)
	if !reflect.DeepEqual(p.Shape, []int{1, 1, 2, 2}) {
		t.Errorf("shape = %v", p.Shape)
	}
	if !reflect.DeepEqual(p.Elements, a.Elements) {
		t.Errorf("elements = %v", p.Elements)
	}
}
