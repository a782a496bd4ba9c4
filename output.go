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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Result is a single diagnostic variable.
type Result struct {
	Dims        []string           // netcdf dimensions for this variable
	Description string             // variable description
	Units       string             // variable units
	Data        *sparse.DenseArray // variable data
}

// Results holds the diagnostics of an analysis run.
type Results struct {
	// Data holds the results, with the keys being the variable names.
	Data map[string]Result

	// Attributes are global attributes that will be written to the
	// output file.
	Attributes map[string]string

	dims map[string]int
}

// NewResults initializes a new holder for results.
func NewResults() *Results {
	return &Results{
		Data:       make(map[string]Result),
		Attributes: make(map[string]string),
		dims:       make(map[string]int),
	}
}

// AddVariable adds data for a new variable to r. Each dimension must have
// the same length in every variable that uses it.
func (r *Results) AddVariable(name string, dims []string, description, units string, data *sparse.DenseArray) error {
	if len(dims) != len(data.Shape) {
		return fmt.Errorf("watermass: result variable %s has %d dimensions %v but data has shape %v", name, len(dims), dims, data.Shape)
	}
	for i, d := range dims {
		if n, ok := r.dims[d]; ok && n != data.Shape[i] {
			return fmt.Errorf("watermass: result variable %s: dimension %s has length %d, but it was already defined with length %d", name, d, data.Shape[i], n)
		}
	}
	for i, d := range dims {
		r.dims[d] = data.Shape[i]
	}
	r.Data[name] = Result{
		Dims:        dims,
		Description: description,
		Units:       units,
		Data:        data,
	}
	return nil
}

// AddSeries adds a time series to r.
func (r *Results) AddSeries(name, description, units string, data []float64) error {
	a := sparse.ZerosDense(len(data))
	copy(a.Elements, data)
	return r.AddVariable(name, []string{"time"}, description, units, a)
}

// Names returns the sorted names of the variables in r.
func (r *Results) Names() []string {
	names := make([]string, 0, len(r.Data))
	for n := range r.Data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Write writes r to netcdf file w.
func (r *Results) Write(w *os.File) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("watermass: no results to write")
	}
	dimNames := make([]string, 0, len(r.dims))
	for d := range r.dims {
		dimNames = append(dimNames, d)
	}
	sort.Strings(dimNames)
	lengths := make([]int, len(dimNames))
	for i, d := range dimNames {
		lengths[i] = r.dims[d]
		if lengths[i] == 0 {
			return fmt.Errorf("watermass: result dimension %s has length zero", d)
		}
	}
	h := cdf.NewHeader(dimNames, lengths)
	attrs := map[string]string{
		"comment":           "watermass diagnostics",
		"watermass_version": Version,
	}
	for a, v := range r.Attributes {
		attrs[a] = v
	}
	attrNames := make([]string, 0, len(attrs))
	for a := range attrs {
		attrNames = append(attrNames, a)
	}
	sort.Strings(attrNames)
	for _, a := range attrNames {
		if attrs[a] != "" {
			h.AddAttribute("", a, attrs[a])
		}
	}

	// Sort the names so they write in the same order every time.
	names := r.Names()
	for _, name := range names {
		d := r.Data[name]
		h.AddVariable(name, d.Dims, []float64{0})
		if d.Description != "" {
			h.AddAttribute(name, "description", d.Description)
		}
		if d.Units != "" {
			h.AddAttribute(name, "units", d.Units)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("watermass: writing results: %v", err)
	}
	for _, name := range names {
		if err = writeNCF(f, name, r.Data[name].Data); err != nil {
			return fmt.Errorf("watermass: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	if n := shapeSize(data.Shape); len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	_, err := w.Write(data.Elements)
	return err
}
