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

package wmutil

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spatialmodel/watermass"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	plotWidth  = 7 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// series returns the one-dimensional variables in r that are named
// suffix or end in "_"+suffix, keyed by the name without the suffix.
func series(r *watermass.Results, suffix string) (map[string]watermass.Result, []string) {
	out := make(map[string]watermass.Result)
	var labels []string
	for _, name := range r.Names() {
		v := r.Data[name]
		if len(v.Dims) != 1 {
			continue
		}
		label := ""
		switch {
		case name == suffix:
			label = suffix
		case strings.HasSuffix(name, "_"+suffix):
			label = strings.TrimSuffix(name, "_"+suffix)
		default:
			continue
		}
		out[label] = v
		labels = append(labels, label)
	}
	return out, labels
}

// PlotSeries draws the time series in r whose names end in suffix as
// lines of a PNG image written to w.
func PlotSeries(w io.Writer, r *watermass.Results, suffix string) error {
	data, labels := series(r, suffix)
	if len(labels) == 0 {
		return fmt.Errorf("wmutil: no time series named '%s' to plot", suffix)
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	first := data[labels[0]]
	p.Title.Text = strings.Replace(suffix, "_", " ", -1)
	p.X.Label.Text = first.Dims[0]
	p.Y.Label.Text = first.Units
	p.Legend.Top = true
	for i, label := range labels {
		v := data[label]
		xy := make(plotter.XYs, 0, len(v.Data.Elements))
		for t, y := range v.Data.Elements {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			xy = append(xy, struct{ X, Y float64 }{X: float64(t), Y: y})
		}
		l, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("wmutil: plotting %s: %v", label, err)
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i)
		p.Add(l)
		p.Legend.Add(label, l)
	}
	img := vgimg.New(plotWidth, plotHeight)
	p.Draw(draw.New(img))
	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}

// plotResults writes a plot of the series in r ending in suffix to the
// PNG file at path.
func plotResults(path string, r *watermass.Results, suffix string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wmutil: creating plot file: %v", err)
	}
	if err = PlotSeries(f, r, suffix); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
