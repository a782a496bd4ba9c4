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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/watermass"
)

const testCatalog = `
[[WaterMass]]
Name = "AABW"
Description = "Antarctic Bottom Water"
MinThickness = 50.0
[[WaterMass.Constraint]]
Variable = "tn"
High = 0.0
[[WaterMass.Constraint]]
Variable = "nav_lat"
High = -60.0

[[WaterMass]]
Name = "SAMW"
[[WaterMass.Constraint]]
Variable = "tn"
Low = 4.0
High = 14.0
`

func TestLoadCatalog(t *testing.T) {
	w, err := LoadCatalog(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	want := []*watermass.WaterMass{
		{
			Name:         "AABW",
			Description:  "Antarctic Bottom Water",
			MinThickness: 50,
			Constraints: []watermass.Constraint{
				{Variable: "tn", Low: math.Inf(-1), High: 0},
				{Variable: "nav_lat", Low: math.Inf(-1), High: -60},
			},
		},
		{
			Name: "SAMW",
			Constraints: []watermass.Constraint{
				{Variable: "tn", Low: 4, High: 14},
			},
		},
	}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("catalog doesn't match:\n%v", pretty.Diff(w, want))
	}
}

func TestLoadCatalogInvalid(t *testing.T) {
	for name, c := range map[string]string{
		"empty":          "",
		"no constraints": "[[WaterMass]]\nName = \"X\"\n",
		"duplicate":      testCatalog + "\n[[WaterMass]]\nName = \"SAMW\"\n[[WaterMass.Constraint]]\nVariable = \"sn\"\n",
		"inverted":       "[[WaterMass]]\nName = \"X\"\n[[WaterMass.Constraint]]\nVariable = \"tn\"\nLow = 5.0\nHigh = 1.0\n",
		"syntax":         "[[WaterMass]\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(strings.NewReader(c)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWaterMasses(t *testing.T) {
	w, err := waterMasses("", []string{"NASMW"})
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 1 || w[0].Name != "NASMW" {
		t.Errorf("selected %v; want NASMW", w)
	}
	if w, err = waterMasses("", nil); err != nil || len(w) != 2 {
		t.Errorf("got %d default water masses (err %v); want 2", len(w), err)
	}
	if _, err = waterMasses("", []string{"AAIW"}); err == nil {
		t.Error("expected an error for an unknown water mass")
	}

	dir := tempDir(t)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "catalog.toml")
	if err = ioutil.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	w, err = waterMasses(path, []string{"SAMW", "AABW"})
	if err != nil {
		t.Fatal(err)
	}
	if w[0].Name != "SAMW" || w[1].Name != "AABW" {
		t.Errorf("selected %s and %s; want SAMW and AABW", w[0].Name, w[1].Name)
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	tests := []struct {
		in   interface{}
		want map[string]string
	}{
		{in: `{"votemper":"tn","vosaline":"sn"}`, want: map[string]string{"votemper": "tn", "vosaline": "sn"}},
		{in: map[string]interface{}{"votemper": "tn"}, want: map[string]string{"votemper": "tn"}},
		{in: map[string]string{"a": "b"}, want: map[string]string{"a": "b"}},
		{in: "", want: map[string]string{}},
	}
	for i, test := range tests {
		cfg.Set("VariableNames", test.in)
		got, err := GetStringMapString("VariableNames", cfg)
		if err != nil {
			t.Errorf("%d: %v", i, err)
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%d: got %v; want %v", i, got, test.want)
		}
	}
	cfg.Set("VariableNames", "{votemper")
	if _, err := GetStringMapString("VariableNames", cfg); err == nil {
		t.Error("expected an error for invalid JSON")
	}
	cfg.Set("VariableNames", 3)
	if _, err := GetStringMapString("VariableNames", cfg); err == nil {
		t.Error("expected an error for an invalid type")
	}
}

func TestGeometryVariables(t *testing.T) {
	cfg := viper.New()
	cfg.Set("MeshVariables", `{"lat":"nav_lat","LevelDepth":"deptht"}`)
	names, err := geometryVariables(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := watermass.DefaultGeometryVariables
	want.Lat = "nav_lat"
	want.LevelDepth = "deptht"
	if names != want {
		t.Errorf("got %+v; want %+v", names, want)
	}
	cfg.Set("MeshVariables", `{"e4":"x"}`)
	if _, err = geometryVariables(cfg); err == nil {
		t.Error("expected an error for an invalid key")
	}
}

func TestBinEdges(t *testing.T) {
	cfg := viper.New()
	cfg.Set("TSHistogram.TemperatureMin", -2.0)
	cfg.Set("TSHistogram.TemperatureMax", 5.0)
	cfg.Set("TSHistogram.TemperatureBins", 28)
	cfg.Set("TSHistogram.SalinityMin", 34.5)
	cfg.Set("TSHistogram.SalinityMax", 35.5)
	cfg.Set("TSHistogram.SalinityBins", 20)
	b, err := binEdges(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := watermass.DefaultBinEdges()
	for i := range want.Temperature {
		if b.Temperature[i] != want.Temperature[i] && different(b.Temperature[i], want.Temperature[i], tolerance) {
			t.Errorf("temperature edge %d: %g != %g", i, b.Temperature[i], want.Temperature[i])
		}
	}
	if len(b.Salinity) != len(want.Salinity) {
		t.Errorf("%d salinity edges; want %d", len(b.Salinity), len(want.Salinity))
	}

	cfg.Set("TSHistogram.SalinityBins", 0)
	if _, err = binEdges(cfg); err == nil {
		t.Error("expected an error for zero bins")
	}
	cfg.Set("TSHistogram.SalinityBins", 20)
	cfg.Set("TSHistogram.TemperatureMax", -5.0)
	if _, err = binEdges(cfg); err == nil {
		t.Error("expected an error for decreasing edges")
	}
}

func TestCheckLogFile(t *testing.T) {
	os.Setenv("WATERMASS_TEST_DIR", "/tmp/wm")
	defer os.Unsetenv("WATERMASS_TEST_DIR")
	tests := []struct{ log, out, want string }{
		{"", "census.nc", "census.log"},
		{"", "gs://bucket/run/out.nc", "gs://bucket/run/out.log"},
		{"${WATERMASS_TEST_DIR}/x.log", "census.nc", "/tmp/wm/x.log"},
	}
	for _, test := range tests {
		if got := checkLogFile(test.log, test.out); got != test.want {
			t.Errorf("checkLogFile(%q, %q) = %q; want %q", test.log, test.out, got, test.want)
		}
	}
}

func TestCheckOutputFile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected an error for an empty output file")
	}
	if _, err := checkOutputFile(filepath.Join(dir, "out.nc")); err != nil {
		t.Error(err)
	}
	if _, err := checkOutputFile(filepath.Join(dir, "missing", "out.nc")); err == nil {
		t.Error("expected an error for a missing directory")
	}
	if _, err := checkOutputFile("file://watermass-missing-bucket/out.nc"); err == nil {
		t.Error("expected an error for a missing bucket")
	}
}

func TestTracerConfigCompare(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	cfg := viper.New()
	cfg.Set("MeshFile", "mesh_mask.nc")
	cfg.Set("OutputFile", filepath.Join(dir, "compare.nc"))
	cfg.Set("EarthRadius", watermass.EarthRadius)
	cfg.Set("TSHistogram.TemperatureMin", -2.0)
	cfg.Set("TSHistogram.TemperatureMax", 5.0)
	cfg.Set("TSHistogram.TemperatureBins", 28)
	cfg.Set("TSHistogram.SalinityMin", 34.5)
	cfg.Set("TSHistogram.SalinityMax", 35.5)
	cfg.Set("TSHistogram.SalinityBins", 20)
	cfg.Set("SchemeFiles", `{"tvd":"a.nc"}`)
	if _, err := tracerConfig(cfg, true); err == nil {
		t.Error("expected an error for a single scheme")
	}
	cfg.Set("SchemeFiles", `{"tvd":"a.nc","upwind":"b.nc"}`)
	cfg.Set("Reference", "tvd")
	c, err := tracerConfig(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	if c.Reference != "tvd" || len(c.SchemeFiles) != 2 {
		t.Errorf("config = %# v", pretty.Formatter(c))
	}
	if c.LogFile != filepath.Join(dir, "compare.log") {
		t.Errorf("log file = %s", c.LogFile)
	}

	if _, err := tracerConfig(cfg, false); err == nil {
		t.Error("expected an error for a missing DataFile")
	}
	cfg.Set("EarthRadius", 0.0)
	if _, err := tracerConfig(cfg, true); err == nil {
		t.Error("expected an error for a zero radius")
	}
}

func TestExampleCatalog(t *testing.T) {
	f, err := os.Open("../cmd/watermass/watermasses.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w, err := LoadCatalog(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := watermass.DefaultWaterMasses(); !reflect.DeepEqual(w, want) {
		t.Errorf("example catalog doesn't match the default water masses:\n%v", pretty.Diff(w, want))
	}
}

func TestCommonConfigSteps(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	cfg := viper.New()
	cfg.Set("MeshFile", "mesh_mask.nc")
	cfg.Set("OutputFile", filepath.Join(dir, "out.nc"))
	for _, test := range []struct {
		begin, end int
		ok         bool
	}{
		{0, -1, true},
		{1, 3, true},
		{1, 1, false},
		{2, 1, false},
		{-1, -1, false},
	} {
		cfg.Set("BeginStep", test.begin)
		cfg.Set("EndStep", test.end)
		_, err := commonConfig(cfg)
		if (err == nil) != test.ok {
			t.Errorf("steps [%d, %d): error %v", test.begin, test.end, err)
		}
	}
}
