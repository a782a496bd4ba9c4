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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Dataset is a NetCDF classic file of model output or grid information.
type Dataset struct {
	f       *os.File
	cdf     *cdf.File
	numRecs int
}

// OpenDataset opens the NetCDF file at path for reading.
func OpenDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("watermass: opening dataset: %v", err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("watermass: opening dataset %s: %v", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("watermass: opening dataset %s: %v", path, err)
	}
	return &Dataset{
		f:       f,
		cdf:     cf,
		numRecs: int(cf.Header.NumRecs(fi.Size())),
	}, nil
}

// Close closes the underlying file.
func (d *Dataset) Close() error { return d.f.Close() }

// Name returns the path of the underlying file.
func (d *Dataset) Name() string { return d.f.Name() }

// Variables returns the names of the variables in the dataset.
func (d *Dataset) Variables() []string { return d.cdf.Header.Variables() }

// Has returns whether the dataset contains variable v.
func (d *Dataset) Has(v string) bool {
	for _, name := range d.cdf.Header.Variables() {
		if name == v {
			return true
		}
	}
	return false
}

// Shape returns the dimension lengths of variable v, with the length of
// the record dimension resolved from the size of the file.
func (d *Dataset) Shape(v string) ([]int, error) {
	if !d.Has(v) {
		return nil, fmt.Errorf("watermass: dataset %s has no variable '%s'", d.Name(), v)
	}
	shape := append([]int{}, d.cdf.Header.Lengths(v)...)
	if d.cdf.Header.IsRecordVariable(v) {
		shape[0] = d.numRecs
	}
	return shape, nil
}

// NumSteps returns the length of the leading (time) dimension of v.
func (d *Dataset) NumSteps(v string) (int, error) {
	shape, err := d.Shape(v)
	if err != nil {
		return 0, err
	}
	if len(shape) == 0 {
		return 0, fmt.Errorf("watermass: variable '%s' is a scalar", v)
	}
	return shape[0], nil
}

// Read reads the whole of variable v, converting it to float64.
func (d *Dataset) Read(v string) (*sparse.DenseArray, error) {
	shape, err := d.Shape(v)
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		return d.read(v, shape, nil, nil)
	}
	return d.ReadSteps(v, 0, shape[0])
}

// ReadStatic reads variable v and drops its leading axis if it has a
// length of one, as for grid variables that are stored with a time axis.
func (d *Dataset) ReadStatic(v string) (*sparse.DenseArray, error) {
	a, err := d.Read(v)
	if err != nil {
		return nil, err
	}
	if len(a.Shape) > 1 && a.Shape[0] == 1 {
		out := sparse.ZerosDense(append([]int{}, a.Shape[1:]...)...)
		copy(out.Elements, a.Elements)
		return out, nil
	}
	return a, nil
}

// ReadSteps reads time steps [begin, end) of variable v. A negative end
// reads through the last time step.
func (d *Dataset) ReadSteps(v string, begin, end int) (*sparse.DenseArray, error) {
	shape, err := d.Shape(v)
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("watermass: variable '%s' is a scalar", v)
	}
	if end < 0 {
		end = shape[0]
	}
	if begin < 0 || begin > end || end > shape[0] {
		return nil, fmt.Errorf("watermass: time steps [%d, %d) out of range for variable '%s' with %d steps", begin, end, v, shape[0])
	}
	shape[0] = end - begin
	if end == begin {
		return sparse.ZerosDense(shape...), nil
	}
	first := make([]int, len(shape))
	first[0] = begin
	last := make([]int, len(shape))
	last[0] = end - 1
	for i := 1; i < len(shape); i++ {
		last[i] = shape[i] - 1
	}
	return d.read(v, shape, first, last)
}

// ReadField reads v as a model field. Record variables and variables
// with four axes are read for time steps [begin, end); any other
// variable is read whole as with ReadStatic.
func (d *Dataset) ReadField(v string, begin, end int) (*sparse.DenseArray, error) {
	shape, err := d.Shape(v)
	if err != nil {
		return nil, err
	}
	if d.cdf.Header.IsRecordVariable(v) || len(shape) == 4 {
		return d.ReadSteps(v, begin, end)
	}
	return d.ReadStatic(v)
}

// ReadSurface reads time steps [begin, end) of the top level of a
// (t, z, y, x) variable v, returning a (t, y, x) array.
func (d *Dataset) ReadSurface(v string, begin, end int) (*sparse.DenseArray, error) {
	a, err := d.ReadSteps(v, begin, end)
	if err != nil {
		return nil, err
	}
	if len(a.Shape) != 4 {
		return nil, &ShapeError{Op: "read surface " + v, Want: []int{-1, -1, -1, -1}, Got: a.Shape}
	}
	return Surface(a), nil
}

// read reads the block of v between the corners first and last
// (inclusive), which has the given shape.
func (d *Dataset) read(v string, shape, first, last []int) (*sparse.DenseArray, error) {
	out := sparse.ZerosDense(shape...)
	r := d.cdf.Reader(v, first, last)
	if r == nil {
		return nil, fmt.Errorf("watermass: dataset %s has no variable '%s'", d.Name(), v)
	}
	buf := r.Zero(len(out.Elements))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("watermass: reading variable '%s' from %s: %v", v, d.Name(), err)
	}
	switch b := buf.(type) {
	case []float64:
		copy(out.Elements, b)
	case []float32:
		for i, e := range b {
			out.Elements[i] = float64(e)
		}
	case []int32:
		for i, e := range b {
			out.Elements[i] = float64(e)
		}
	case []int16:
		for i, e := range b {
			out.Elements[i] = float64(e)
		}
	case []uint8:
		for i, e := range b {
			out.Elements[i] = float64(e)
		}
	default:
		return nil, fmt.Errorf("watermass: variable '%s' has unsupported type %T", v, buf)
	}
	return out, nil
}

// GeometryVariables holds the names of the grid variables in a mesh
// file.
type GeometryVariables struct {
	E1, E2, E3, Lat, Lon, LevelDepth string
}

// DefaultGeometryVariables are the names used in NEMO mesh files.
var DefaultGeometryVariables = GeometryVariables{
	E1:         "e1t",
	E2:         "e2t",
	E3:         "e3t",
	Lat:        "gphit",
	Lon:        "glamt",
	LevelDepth: "gdept_1d",
}

// LoadGeometry reads the grid variables from mesh and creates a Geometry.
func LoadGeometry(mesh *Dataset, names GeometryVariables) (*Geometry, error) {
	var arrays [6]*sparse.DenseArray
	for i, v := range []string{names.E1, names.E2, names.E3, names.Lat, names.Lon, names.LevelDepth} {
		a, err := mesh.ReadStatic(v)
		if err != nil {
			return nil, fmt.Errorf("watermass: loading grid geometry: %v", err)
		}
		arrays[i] = a
	}
	lev := arrays[5]
	if len(lev.Shape) != 1 {
		return nil, &ShapeError{Op: "level depth " + names.LevelDepth, Want: []int{-1}, Got: lev.Shape}
	}
	return NewGeometry(arrays[0], arrays[1], arrays[2], arrays[3], arrays[4], lev.Elements)
}

// LoadBasinMask reads the basin mask variable v from ds and removes the
// cells of g south of latMin. Use math.Inf(-1) to keep all latitudes.
// The mask has shape (y, x), or (z, y, x) if the file holds a
// three-dimensional mask.
func LoadBasinMask(ds *Dataset, v string, g *Geometry, latMin float64) (*sparse.DenseArray, error) {
	m, err := ds.ReadStatic(v)
	if err != nil {
		return nil, fmt.Errorf("watermass: loading basin mask: %v", err)
	}
	if err := checkBroadcast("basin mask "+v, g.Lat, m.Shape); err != nil {
		return nil, err
	}
	if !math.IsInf(latMin, -1) {
		for i := range m.Elements {
			if at(g.Lat, i) < latMin {
				m.Elements[i] = 0
			}
		}
	}
	return m, nil
}
