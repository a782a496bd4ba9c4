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
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/watermass"
)

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "watermass v" + watermass.Version; !strings.Contains(b.String(), want) {
		t.Errorf("output %q doesn't contain %q", b.String(), want)
	}
}

func TestCensusCommand(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeMesh(t, dir)
	writeClimatology(t, dir)
	config := filepath.Join(dir, "census.toml")
	err := ioutil.WriteFile(config, []byte(fmt.Sprintf(`
MeshFile = "%[1]s/mesh_mask.nc"
DataFile = "%[1]s/TRAJ_CLIMATOLOGY.nc"
OutputFile = "%[1]s/census.nc"
WaterMasses = ["NADW"]
BasinFile = ""

[VariableNames]
votemper = "tn"
vosaline = "sn"
`, dir)), 0644)
	if err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", config)
	defer Cfg.Set("config", "")
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"census"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	vol := readOutput(t, filepath.Join(dir, "census.nc"), "NADW_volume")
	if different(vol.Elements[0], 135000, tolerance) {
		t.Errorf("NADW volume = %g; want 135000", vol.Elements[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "census.log")); err != nil {
		t.Errorf("log file was not written: %v", err)
	}
}

func TestCensusCommandWholeBasin(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeMesh(t, dir)
	writeClimatology(t, dir)
	config := filepath.Join(dir, "census.toml")
	err := ioutil.WriteFile(config, []byte(fmt.Sprintf(`
MeshFile = "%[1]s/mesh_mask.nc"
DataFile = "%[1]s/TRAJ_CLIMATOLOGY.nc"
OutputFile = "%[1]s/census.nc"
WaterMasses = ["NADW"]
BasinFile = "%[1]s/mesh_mask.nc"

[VariableNames]
votemper = "tn"
vosaline = "sn"
`, dir)), 0644)
	if err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", config)
	defer Cfg.Set("config", "")
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"census"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	// By default the whole Atlantic mask is used, including the southern
	// row; only the cell outside of the mask is dropped.
	vol := readOutput(t, filepath.Join(dir, "census.nc"), "NADW_volume")
	if different(vol.Elements[0], 120000, tolerance) {
		t.Errorf("NADW volume = %g; want 120000", vol.Elements[0])
	}
}

func TestStreamFunctionCommandMissingData(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	Cfg.Set("OutputFile", filepath.Join(dir, "sf.nc"))
	Cfg.Set("DataFile", "")
	defer Cfg.Set("OutputFile", "watermass.nc")
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"streamfunction"})
	if err := Root.Execute(); err == nil {
		t.Error("expected an error for a missing DataFile")
	}
}
