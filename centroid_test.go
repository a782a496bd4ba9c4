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
	"testing"
)

func TestSphericalRoundTrip(t *testing.T) {
	points := []struct{ lat, lon float64 }{
		{0, 0}, {30, 10}, {-60, -170}, {45.5, 179.5}, {-89, 33}, {89.9, -90}, {12, -35},
	}
	for _, p := range points {
		x, y, z := ToCartesian(p.lat, p.lon, EarthRadius)
		if r := math.Sqrt(x*x + y*y + z*z); different(r, EarthRadius, testTolerance) {
			t.Errorf("(%g, %g): radius %g", p.lat, p.lon, r)
		}
		lat, lon := ToSpherical(x, y, z)
		if absDifferent(lat, p.lat, testTolerance) || absDifferent(lon, p.lon, testTolerance) {
			t.Errorf("(%g, %g) came back as (%g, %g)", p.lat, p.lon, lat, lon)
		}
	}
}

func TestCentroidEquator(t *testing.T) {
	g := testGeometry(t, 1, 2, []float64{0, 0}, []float64{0, 10}, 1, []float64{1})
	vol, err := Volume(g, filled(1, 1, 1, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	total, err := TotalVolume(vol)
	if err != nil {
		t.Fatal(err)
	}
	if total[0] != 2 {
		t.Fatalf("total volume = %g", total[0])
	}
	di, err := DepthIntegrated(vol)
	if err != nil {
		t.Fatal(err)
	}
	lat, lon, err := NewProjection(g, EarthRadius).Centroid(di, total)
	if err != nil {
		t.Fatal(err)
	}
	if absDifferent(lat[0], 0, testTolerance) {
		t.Errorf("latitude = %g; want 0", lat[0])
	}
	if absDifferent(lon[0], 5, testTolerance) {
		t.Errorf("longitude = %g; want 5", lon[0])
	}
}

func TestCentroidSingleCell(t *testing.T) {
	lat := []float64{10, 20, 30, 40, 50, 60}
	lon := []float64{-20, -10, 0, 10, 20, 30}
	g := testGeometry(t, 2, 3, lat, lon, 5000, []float64{10, 10})
	p := NewProjection(g, EarthRadius)
	for j := range lat {
		conc := newDense(nil, 1, 2, 2, 3)
		conc.Set(1, 0, 1, j/3, j%3)
		vol, err := Volume(g, conc)
		if err != nil {
			t.Fatal(err)
		}
		total, _ := TotalVolume(vol)
		di, _ := DepthIntegrated(vol)
		clat, clon, err := p.Centroid(di, total)
		if err != nil {
			t.Fatal(err)
		}
		if absDifferent(clat[0], lat[j], testTolerance) || absDifferent(clon[0], lon[j], testTolerance) {
			t.Errorf("cell %d: centroid (%g, %g); want (%g, %g)", j, clat[0], clon[0], lat[j], lon[j])
		}
	}
}

func TestCentroidZeroVolume(t *testing.T) {
	g := testGeometry(t, 1, 2, []float64{0, 0}, []float64{0, 10}, 1, []float64{1})
	p := NewProjection(g, EarthRadius)
	lat, lon, err := p.Centroid(filled(0, 2, 1, 2), []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	for i := range lat {
		if !math.IsNaN(lat[i]) || !math.IsNaN(lon[i]) {
			t.Errorf("step %d: centroid (%g, %g); want NaN", i, lat[i], lon[i])
		}
	}
	if _, _, err := p.Centroid(filled(0, 2, 2, 1), []float64{0, 0}); err == nil {
		t.Error("expected a shape error")
	}
}

func TestMeanDepth(t *testing.T) {
	g := testGeometry(t, 1, 1, []float64{0}, []float64{0}, 1, []float64{10, 20, 30})
	// Cumulative depths are 10, 30 and 60 m.
	conc := newDense([]float64{
		1, 0, 1,
		0, 0, 0,
	}, 2, 3, 1, 1)
	vol, err := Volume(g, conc)
	if err != nil {
		t.Fatal(err)
	}
	total, _ := TotalVolume(vol)
	d, err := MeanDepth(g, vol, total)
	if err != nil {
		t.Fatal(err)
	}
	// (10·10 + 30·60) / 40
	if different(d[0], 47.5, testTolerance) {
		t.Errorf("mean depth = %g; want 47.5", d[0])
	}
	if !math.IsNaN(d[1]) {
		t.Errorf("mean depth of an empty step = %g; want NaN", d[1])
	}
}
