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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
)

// Log receives messages about retried transfers.
var Log logrus.FieldLogger = logrus.StandardLogger()

// MaxRetryTime is the longest time a failing transfer is retried for.
var MaxRetryTime = 2 * time.Minute

// retry runs f until it succeeds or the exponential backoff gives up.
func retry(op, path string, f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = MaxRetryTime
	return backoff.RetryNotify(f, b,
		func(err error, d time.Duration) {
			Log.WithError(err).WithFields(logrus.Fields{
				"operation": op,
				"path":      path,
			}).Warnf("retrying in %v", d)
		},
	)
}

// Fetch makes the file at path available on the local filesystem.
// If path is an existing local file it is returned unchanged. HTTP(S) URLs
// and blob URLs are downloaded into dir, and the path to the local copy
// is returned.
func Fetch(ctx context.Context, path, dir string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return downloadHTTP(path, dir)
	case IsBlob(path):
		return Download(ctx, path, dir)
	}
	return "", fmt.Errorf("cloud: file '%s' does not exist", path)
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(path, dir string) (string, error) {
	local := filepath.Join(dir, filepath.Base(path))
	err := retry("download", path, func() error {
		resp, err := http.Get(path)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("cloud: downloading '%s': %s", path, resp.Status))
		}
		return copyToFile(local, resp.Body)
	})
	if err != nil {
		return "", err
	}
	return local, nil
}

// Download copies the blob at url (in the format
// 'provider://bucket/key') into directory dir and returns the path
// of the local copy.
func Download(ctx context.Context, url, dir string) (string, error) {
	bucketName, key, err := splitURL(url)
	if err != nil {
		return "", err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return "", err
	}
	local := filepath.Join(dir, filepath.Base(key))
	err = retry("download", url, func() error {
		r, err := bucket.NewReader(ctx, key)
		if err != nil {
			return fmt.Errorf("cloud: reading blob '%s': %v", url, err)
		}
		defer r.Close()
		return copyToFile(local, r)
	})
	if err != nil {
		return "", err
	}
	return local, nil
}

// Upload copies the local file at localPath to the blob at url (in the
// format 'provider://bucket/key').
func Upload(ctx context.Context, localPath, url string) error {
	bucketName, key, err := splitURL(url)
	if err != nil {
		return err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	return retry("upload", url, func() error {
		r, err := os.Open(localPath)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("cloud: opening file '%s' for upload: %v", localPath, err))
		}
		defer r.Close()
		return writeBlob(ctx, bucket, key, r)
	})
}

// writeBlob writes the contents of r to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, r io.Reader) error {
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

func copyToFile(path string, r io.Reader) error {
	w, err := os.Create(path)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("cloud: creating file for download: %v", err))
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
