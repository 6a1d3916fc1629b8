/*
Copyright © 2019 the Terrain authors.
This file is part of Terrain.

Terrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Terrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Terrain.  If not, see <http://www.gnu.org/licenses/>.
*/

package terrainutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff"
	"github.com/spatialmodel/terrain"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// uploadAttempts is the number of times each file upload is tried.
const uploadAttempts = 3

// IsBlob returns whether path refers to a blob storage location.
func IsBlob(path string) bool {
	for _, p := range []string{"gs://", "s3://", "file://", "mem://"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// OpenBucket returns the blob storage bucket at location loc, which must
// be in the format 'provider://name/path', and the key prefix given by
// path. The accepted providers are "file" for the local filesystem, where
// the whole path is the bucket directory, "mem" for an in-memory bucket
// (for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, loc string) (*blob.Bucket, string, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, "", fmt.Errorf("terrainutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		if err := os.MkdirAll(u.Path, os.ModePerm); err != nil {
			return nil, "", fmt.Errorf("terrainutil.OpenBucket: %v", err)
		}
		b, err := fileblob.OpenBucket(u.Path, nil)
		return b, "", err
	case "mem":
		return memblob.OpenBucket(nil), strings.Trim(u.Host+u.Path, "/"), nil
	case "gs", "s3":
		bucketURL := u.Scheme + "://" + u.Host
		if u.RawQuery != "" {
			bucketURL += "?" + u.RawQuery
		}
		b, err := blob.OpenBucket(ctx, bucketURL)
		return b, strings.Trim(u.Path, "/"), err
	default:
		return nil, "", fmt.Errorf("terrainutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

// uploader writes output to a local temporary directory when the
// requested output location is in blob storage.
type uploader struct {
	dest string // blob storage location
	dir  string // local directory
	err  error
}

// maybeUpload checks whether the given output directory refers to
// a blob storage location. If it does, then a temporary directory is
// returned, whose contents should be uploaded with UploadOutput when the
// simulation is finished.
func (u *uploader) maybeUpload(dir string) string {
	if !IsBlob(dir) {
		return dir
	}
	u.dest = dir
	u.dir, u.err = ioutil.TempDir("", "terrain")
	return u.dir
}

// UploadOutput returns a function that copies every file in the model
// output directory to the blob storage location dest.
func UploadOutput(dest string) terrain.ModelManipulator {
	return func(m *terrain.Model) error {
		ctx := context.TODO()
		bucket, prefix, err := OpenBucket(ctx, dest)
		if err != nil {
			return fmt.Errorf("terrainutil: opening bucket to upload output: %v", err)
		}
		defer bucket.Close()
		return uploadDir(ctx, bucket, prefix, m.OutputDir)
	}
}

// uploadDir copies the files in dir to bucket, with keys formed from
// prefix and each file's path relative to dir.
func uploadDir(ctx context.Context, bucket *blob.Bucket, prefix, dir string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		op := func() error { return uploadFile(ctx, bucket, key, p) }
		return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uploadAttempts))
	})
}

func uploadFile(ctx context.Context, bucket *blob.Bucket, key, file string) error {
	r, err := os.Open(file)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("terrainutil: opening file '%s' for upload: %v", file, err))
	}
	defer r.Close()
	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("terrainutil: opening writer to upload file '%s': %v", key, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("terrainutil: uploading file '%s' to '%s': %v", file, key, err)
	}
	return w.Close()
}

// cleanBucket deletes the objects at loc whose names begin with prefix
// followed by an underscore, and the log file prefix.log.
func cleanBucket(loc, prefix string) ([]string, error) {
	ctx := context.TODO()
	bucket, keyPrefix, err := OpenBucket(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer bucket.Close()
	var removed []string
	for _, p := range []string{prefix + "_", prefix + ".log"} {
		iter := bucket.List(&blob.ListOptions{Prefix: path.Join(keyPrefix, p)})
		for {
			obj, err := iter.Next(ctx)
			if err == io.EOF {
				break
			} else if err != nil {
				return removed, fmt.Errorf("terrainutil: listing output files: %v", err)
			}
			if err := bucket.Delete(ctx, obj.Key); err != nil {
				return removed, fmt.Errorf("terrainutil: removing output file: %v", err)
			}
			removed = append(removed, obj.Key)
		}
	}
	return removed, nil
}
