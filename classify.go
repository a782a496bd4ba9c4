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
)

// Constraint is a closed interval [Low, High] on the values of the field
// named Variable. Variable may also be an arithmetic expression of
// several fields; see DerivedField. Use math.Inf for one-sided bounds.
type Constraint struct {
	Variable  string
	Low, High float64
}

// Validate returns an error if the constraint cannot match anything.
func (c Constraint) Validate() error {
	if c.Variable == "" {
		return fmt.Errorf("watermass: constraint has no variable")
	}
	if math.IsNaN(c.Low) || math.IsNaN(c.High) || c.Low > c.High {
		return fmt.Errorf("watermass: invalid interval [%g, %g] for variable %s", c.Low, c.High, c.Variable)
	}
	return nil
}

// Contains returns whether v is within the interval. NaN values are never
// within the interval.
func (c Constraint) Contains(v float64) bool { return v >= c.Low && v <= c.High }

// Classify returns a mask with the shape of field that is 1 where basin is
// nonzero and low <= field <= high, and 0 elsewhere. basin must broadcast
// to the shape of field; if it is nil, every cell is in the basin.
func Classify(field, basin *sparse.DenseArray, low, high float64) (*sparse.DenseArray, error) {
	if field == nil {
		return nil, fmt.Errorf("watermass: classify: missing field")
	}
	if basin != nil {
		if err := checkBroadcast("classify basin", basin, field.Shape); err != nil {
			return nil, err
		}
	}
	c := Constraint{Variable: "field", Low: low, High: high}
	out := sparse.ZerosDense(append([]int{}, field.Shape...)...)
	for i, v := range field.Elements {
		if basin != nil && at(basin, i) == 0 {
			continue
		}
		if c.Contains(v) {
			out.Elements[i] = 1
		}
	}
	return out, nil
}

// And returns the element-wise product of the given masks. The result has
// the shape of the mask with the most axes; all other masks must broadcast
// to it.
func And(masks ...*sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("watermass: and: no masks")
	}
	shape, err := broadcastShape("and", masks...)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(shape...)
	for i := range out.Elements {
		v := 1.
		for _, m := range masks {
			v *= at(m, i)
		}
		out.Elements[i] = v
	}
	return out, nil
}

// ColumnThickness returns the thickness of the part of each water
// column that is covered by mask: Σ_z mask·e3. mask has shape
// (t, z, y, x) and e3 has shape (z, y, x). The result has shape (t, y, x).
func ColumnThickness(mask, e3 *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(mask.Shape) != 4 {
		return nil, &ShapeError{Op: "column thickness", Want: []int{-1, -1, -1, -1}, Got: mask.Shape}
	}
	if err := checkShape("column thickness", e3, mask.Shape[1:]...); err != nil {
		return nil, err
	}
	h := sparse.ZerosDense(mask.Shape[0], mask.Shape[2], mask.Shape[3])
	n3 := len(e3.Elements)
	n2 := mask.Shape[2] * mask.Shape[3]
	for i, m := range mask.Elements {
		if m == 0 {
			continue
		}
		t := i / n3
		j := i % n2
		h.Elements[t*n2+j] += m * e3.Elements[i%n3]
	}
	return h, nil
}

// ThicknessFilter returns a copy of mask where every water column that
// is thinner than minThickness is set to zero at all depths.
func ThicknessFilter(mask, e3 *sparse.DenseArray, minThickness float64) (*sparse.DenseArray, error) {
	h, err := ColumnThickness(mask, e3)
	if err != nil {
		return nil, err
	}
	keep, err := Classify(h, nil, minThickness, math.Inf(1))
	if err != nil {
		return nil, err
	}
	out := mask.Copy()
	n3 := len(e3.Elements)
	n2 := mask.Shape[2] * mask.Shape[3]
	for i := range out.Elements {
		out.Elements[i] *= keep.Elements[(i/n3)*n2+i%n2]
	}
	return out, nil
}

// WaterMass is a named set of constraints on model fields, optionally
// combined with a minimum column thickness.
type WaterMass struct {
	Name        string
	Description string
	Constraints []Constraint

	// MinThickness is the minimum thickness [m] of the part of a water
	// column that satisfies the constraints. Columns that are thinner are
	// removed from the water mass. Zero disables the filter.
	MinThickness float64
}

// Validate checks the water mass definition.
func (w *WaterMass) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("watermass: water mass has no name")
	}
	if len(w.Constraints) == 0 {
		return fmt.Errorf("watermass: water mass %s has no constraints", w.Name)
	}
	for _, c := range w.Constraints {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("watermass: water mass %s: %v", w.Name, err)
		}
	}
	if w.MinThickness < 0 || math.IsNaN(w.MinThickness) {
		return fmt.Errorf("watermass: water mass %s: invalid minimum thickness %g", w.Name, w.MinThickness)
	}
	return nil
}

// Variables returns the names of the fields the constraints of w
// refer to.
func (w *WaterMass) Variables() ([]string, error) {
	var names []string
	for _, c := range w.Constraints {
		v, err := Variables(c.Variable)
		if err != nil {
			return nil, fmt.Errorf("watermass: water mass %s: %v", w.Name, err)
		}
		names = append(names, v...)
	}
	return removeDuplicates(names), nil
}

// Classify returns the (t, z, y, x) mask of the cells that belong to the
// water mass. vars holds the fields the constraints refer to; each must
// broadcast to (t, z, y, x). basin may be nil.
func (w *WaterMass) Classify(g *Geometry, vars map[string]*sparse.DenseArray, basin *sparse.DenseArray) (*sparse.DenseArray, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	masks := make([]*sparse.DenseArray, len(w.Constraints))
	for i, c := range w.Constraints {
		f, err := DerivedField(c.Variable, vars)
		if err != nil {
			return nil, fmt.Errorf("watermass: water mass %s: %v", w.Name, err)
		}
		if !isSuffix(f.Shape, g.Shape()) && !(len(f.Shape) == 4 && isSuffix(g.Shape(), f.Shape)) {
			return nil, &ShapeError{Op: "classify " + w.Name + " " + c.Variable, Want: []int{-1, g.Nz, g.Ny, g.Nx}, Got: f.Shape}
		}
		m, err := Classify(f, nil, c.Low, c.High)
		if err != nil {
			return nil, err
		}
		masks[i] = m
	}
	if basin != nil {
		masks = append(masks, basin)
	}
	mask, err := And(masks...)
	if err != nil {
		return nil, err
	}
	mask = promote(mask, 4)
	if len(mask.Shape) != 4 || !isSuffix(g.Shape(), mask.Shape) {
		// Constraints on horizontal fields only.
		full := sparse.ZerosDense(mask.Shape[0], g.Nz, g.Ny, g.Nx)
		n2 := g.Ny * g.Nx
		for i := range full.Elements {
			full.Elements[i] = mask.Elements[(i/(g.Nz*n2))*n2+i%n2]
		}
		mask = full
	}
	for i, v := range mask.Elements {
		if v != 0 {
			mask.Elements[i] = 1
		}
	}
	if w.MinThickness > 0 {
		return ThicknessFilter(mask, g.E3, w.MinThickness)
	}
	return mask, nil
}

// Census returns the volume [m³] and surface outcrop area [km²] of the
// water mass described by mask at each time step.
func Census(g *Geometry, mask *sparse.DenseArray) (volume, outcrop []float64, err error) {
	vol, err := Volume(g, mask)
	if err != nil {
		return nil, nil, err
	}
	volume, err = TotalVolume(vol)
	if err != nil {
		return nil, nil, err
	}
	outcrop, err = OutcropArea(g, mask, OutcropAreaFactor)
	if err != nil {
		return nil, nil, err
	}
	return volume, outcrop, nil
}

// DefaultWaterMasses returns the definitions of North Atlantic Deep
// Water and North Atlantic Subtropical Mode Water. The constraints refer
// to the fields "votemper" (potential temperature [°C]), "vosaline"
// (salinity [psu]), "nav_lon" and "nav_lat" (degrees). NADW is meant to
// be classified with the Atlantic basin mask.
func DefaultWaterMasses() []*WaterMass {
	inf := math.Inf(1)
	return []*WaterMass{
		{
			Name:        "NADW",
			Description: "North Atlantic Deep Water",
			Constraints: []Constraint{
				{Variable: "votemper", Low: 2, High: 4},
				{Variable: "vosaline", Low: 34.9, High: 35.0},
			},
		},
		{
			Name:        "NASMW",
			Description: "North Atlantic Subtropical Mode Water",
			Constraints: []Constraint{
				{Variable: "votemper", Low: 17, High: 19},
				{Variable: "vosaline", Low: 36.4, High: 36.6},
				{Variable: "nav_lon", Low: -inf, High: -35},
				{Variable: "nav_lat", Low: 0, High: inf},
			},
			MinThickness: 125,
		},
	}
}
