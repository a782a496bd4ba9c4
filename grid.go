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

// Geometry holds the static description of the model grid on T points.
// The arrays it holds are shared and must not be modified after the
// Geometry is created.
type Geometry struct {
	// E1 and E2 are the zonal and meridional cell widths [m], (y, x).
	E1, E2 *sparse.DenseArray

	// E3 is the cell thickness [m], (z, y, x).
	E3 *sparse.DenseArray

	// Lat and Lon are the cell-center coordinates [degrees], (y, x).
	Lat, Lon *sparse.DenseArray

	// LevelDepth is the nominal depth of each model level [m].
	LevelDepth []float64

	// Depth is the cumulative sum of E3 from the surface downward [m],
	// (z, y, x).
	Depth *sparse.DenseArray

	volume, area *sparse.DenseArray

	Nz, Ny, Nx int
}

// NewGeometry checks the shapes of the grid arrays and derives the cell
// areas, cell volumes and cumulative depths from them.
func NewGeometry(e1, e2, e3, lat, lon *sparse.DenseArray, levelDepth []float64) (*Geometry, error) {
	if e3 == nil || len(e3.Shape) != 3 {
		var got []int
		if e3 != nil {
			got = e3.Shape
		}
		return nil, &ShapeError{Op: "geometry e3t", Want: []int{-1, -1, -1}, Got: got}
	}
	g := &Geometry{
		E1: e1, E2: e2, E3: e3, Lat: lat, Lon: lon,
		LevelDepth: levelDepth,
		Nz:         e3.Shape[0], Ny: e3.Shape[1], Nx: e3.Shape[2],
	}
	for name, a := range map[string]*sparse.DenseArray{"e1t": e1, "e2t": e2, "lat": lat, "lon": lon} {
		if err := checkShape("geometry "+name, a, g.Ny, g.Nx); err != nil {
			return nil, err
		}
	}
	if len(levelDepth) != g.Nz {
		return nil, &ShapeError{Op: "geometry level depth", Want: []int{g.Nz}, Got: []int{len(levelDepth)}}
	}

	g.area = sparse.ZerosDense(g.Ny, g.Nx)
	for i := range g.area.Elements {
		g.area.Elements[i] = e1.Elements[i] * e2.Elements[i]
	}
	g.volume = sparse.ZerosDense(g.Nz, g.Ny, g.Nx)
	g.Depth = sparse.ZerosDense(g.Nz, g.Ny, g.Nx)
	n2 := g.Ny * g.Nx
	for k := 0; k < g.Nz; k++ {
		for j := 0; j < n2; j++ {
			i := k*n2 + j
			g.volume.Elements[i] = g.area.Elements[j] * e3.Elements[i]
			g.Depth.Elements[i] = e3.Elements[i]
			if k > 0 {
				g.Depth.Elements[i] += g.Depth.Elements[i-n2]
			}
		}
	}
	return g, nil
}

// Shape returns the (z, y, x) shape of the grid.
func (g *Geometry) Shape() []int { return []int{g.Nz, g.Ny, g.Nx} }

// CellArea returns the horizontal area of each grid cell [m²], (y, x).
func (g *Geometry) CellArea() *sparse.DenseArray { return g.area }

// CellVolume returns the volume of each grid cell [m³], (z, y, x).
func (g *Geometry) CellVolume() *sparse.DenseArray { return g.volume }

// checkField makes sure that f has shape (t, z, y, x) for this grid
// and returns the number of time steps.
func (g *Geometry) checkField(op string, f *sparse.DenseArray) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("watermass: %s: missing array", op)
	}
	if len(f.Shape) != 4 || !isSuffix(g.Shape(), f.Shape) {
		return 0, &ShapeError{Op: op, Want: []int{-1, g.Nz, g.Ny, g.Nx}, Got: f.Shape}
	}
	return f.Shape[0], nil
}

// checkSurface makes sure that f has shape (t, y, x) for this grid
// and returns the number of time steps.
func (g *Geometry) checkSurface(op string, f *sparse.DenseArray) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("watermass: %s: missing array", op)
	}
	if len(f.Shape) != 3 || f.Shape[1] != g.Ny || f.Shape[2] != g.Nx {
		return 0, &ShapeError{Op: op, Want: []int{-1, g.Ny, g.Nx}, Got: f.Shape}
	}
	return f.Shape[0], nil
}
