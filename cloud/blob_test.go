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

package cloud

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// inTempDir runs the test from a new temporary directory, so that
// file:// buckets resolve inside of it.
func inTempDir(t *testing.T) func() {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir, err := ioutil.TempDir("", "watermass_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	return func() {
		os.Chdir(wd)
		os.RemoveAll(dir)
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/grid_T.nc": true,
		"s3://bucket/grid_T.nc": true,
		"file://bucket/x.nc":    true,
		"/data/grid_T.nc":       false,
		"http://host/grid_T.nc": false,
	} {
		if IsBlob(path) != want {
			t.Errorf("%s: IsBlob = %v", path, !want)
		}
	}
}

func TestUploadDownload(t *testing.T) {
	defer inTempDir(t)()
	ctx := context.Background()

	if err := os.Mkdir("bucket", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	want := []byte("census results")
	if err := ioutil.WriteFile("out.nc", want, 0644); err != nil {
		t.Fatal(err)
	}
	if err := Upload(ctx, "out.nc", "file://bucket/census.nc"); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir("download", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	local, err := Fetch(ctx, "file://bucket/census.nc", "download")
	if err != nil {
		t.Fatal(err)
	}
	if local != filepath.Join("download", "census.nc") {
		t.Errorf("local path = %s", local)
	}
	got, err := ioutil.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("downloaded %q; want %q", got, want)
	}

	// Existing local files are used in place.
	if p, err := Fetch(ctx, "out.nc", "download"); err != nil || p != "out.nc" {
		t.Errorf("local fetch = %s, %v", p, err)
	}
	if _, err := Fetch(ctx, "missing.nc", "download"); err == nil {
		t.Error("expected an error for a missing local file")
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenBucket(ctx, "ftp://bucket"); err == nil {
		t.Error("expected an error for an invalid provider")
	}
	if err := Upload(ctx, "out.nc", "file://bucket"); err == nil {
		t.Error("expected an error for a url without a key")
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grid_T.nc" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("CDF"))
	}))
	defer srv.Close()
	dir, err := ioutil.TempDir("", "watermass_cloud")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	local, err := Fetch(context.Background(), srv.URL+"/grid_T.nc", dir)
	if err != nil {
		t.Fatal(err)
	}
	if b, err := ioutil.ReadFile(local); err != nil || string(b) != "CDF" {
		t.Errorf("downloaded %q, %v", b, err)
	}
	if _, err := Fetch(context.Background(), srv.URL+"/missing.nc", dir); err == nil {
		t.Error("expected an error for a missing remote file")
	}
}
