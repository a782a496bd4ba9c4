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
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/spatialmodel/watermass"
	"github.com/spatialmodel/watermass/cloud"
)

// transfer keeps track of the temporary copies of remote input and
// output files.
type transfer struct {
	// uploads is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	uploads [][2]string
	dir     string
}

func (t *transfer) tempDir() (string, error) {
	if t.dir == "" {
		dir, err := ioutil.TempDir("", "watermass")
		if err != nil {
			return "", fmt.Errorf("wmutil: creating temporary directory: %v", err)
		}
		t.dir = dir
	}
	return t.dir, nil
}

// fetch returns a local path for the input file at path, downloading it
// first if it is a URL.
func (t *transfer) fetch(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("wmutil: missing input file name")
	}
	dir, err := t.tempDir()
	if err != nil {
		return "", err
	}
	return cloud.Fetch(ctx, path, dir)
}

// open fetches the input file at path and opens it as a dataset.
func (t *transfer) open(ctx context.Context, path string) (*watermass.Dataset, error) {
	local, err := t.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return watermass.OpenDataset(local)
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// the upload method is run.
func (t *transfer) maybeUpload(path string) (string, error) {
	if !cloud.IsBlob(path) {
		return path, nil
	}
	dir, err := t.tempDir()
	if err != nil {
		return "", err
	}
	local := filepath.Join(dir, "upload_"+filepath.Base(path))
	t.uploads = append(t.uploads, [2]string{local, path})
	return local, nil
}

// upload copies the output files to blob storage.
func (t *transfer) upload(ctx context.Context) error {
	for _, files := range t.uploads {
		if err := cloud.Upload(ctx, files[0], files[1]); err != nil {
			return fmt.Errorf("wmutil: uploading '%s': %v", files[1], err)
		}
	}
	return nil
}

// cleanup removes the temporary files.
func (t *transfer) cleanup() {
	if t.dir != "" {
		os.RemoveAll(t.dir)
	}
}
