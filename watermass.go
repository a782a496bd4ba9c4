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

// Package watermass computes diagnostics of water masses and passive
// tracers on the curvilinear grid of an ocean general circulation model.
//
// Gridded fields are held in *sparse.DenseArray values whose axes are
// ordered (time, depth, latitude, longitude). Static fields drop the
// leading axes they do not vary along: cell widths are (y, x), cell
// thicknesses are (z, y, x). A field whose shape is a trailing suffix of
// another field's shape broadcasts against it.
package watermass

import (
	"math"
	"runtime"
	"sync"
)

// Version gives the version number.
const Version = "0.3.0"

const (
	// EarthRadius is the radius of the Earth [km] used for the
	// Cartesian projection and great-circle distances.
	EarthRadius = 6371.

	// OutcropAreaFactor converts surface areas from m² to km².
	OutcropAreaFactor = 1.e-6

	// StreamFunctionFactor converts transports from m³/s to Sverdrups.
	StreamFunctionFactor = 1.e-6
)

// Axes of a four-dimensional model field.
const (
	TimeAxis = iota
	DepthAxis
	LatAxis
	LonAxis
)

// NumProcessors is the default number of time steps that are analyzed
// concurrently.
var NumProcessors = runtime.GOMAXPROCS(-1)

// ratio returns num/den, or NaN when den is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

type empty struct{}

// forEachStep calls f for every t in [0, n), running up to nprocs calls
// at the same time.
func forEachStep(n, nprocs int, f func(t int)) {
	if nprocs < 1 {
		nprocs = 1
	}
	sem := make(chan empty, nprocs)
	var wg sync.WaitGroup
	wg.Add(n)
	for t := 0; t < n; t++ {
		sem <- empty{}
		go func(t int) {
			f(t)
			<-sem
			wg.Done()
		}(t)
	}
	wg.Wait()
}
