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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob/memblob"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/run":   true,
		"s3://bucket/run":   true,
		"file:///tmp/run":   true,
		"mem://run":         true,
		"output":            false,
		"/tmp/output":       false,
		"${HOME}/gs://fake": false,
	} {
		if have := IsBlob(path); have != want {
			t.Errorf("IsBlob(%q) = %v, want %v", path, have, want)
		}
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, _, err := OpenBucket(context.Background(), "ftp://bucket/run"); err == nil {
		t.Error("expected an error for an unsupported provider")
	}
}

func TestUploadDir(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	if err := os.Mkdir(filepath.Join(dir, "sub"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"a.txt":     "aaa",
		"sub/b.txt": "bb",
	}
	for name, content := range files {
		if err := ioutil.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	if err := uploadDir(ctx, bucket, "runs/test", dir); err != nil {
		t.Fatal(err)
	}
	for name, want := range files {
		b, err := bucket.ReadAll(ctx, "runs/test/"+name)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != want {
			t.Errorf("%s: have %q, want %q", name, b, want)
		}
	}
}

func TestUploadDirMissing(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	err := uploadDir(context.Background(), bucket, "", filepath.Join(os.TempDir(), "terrain-does-not-exist"))
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestRunUpload(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	setTestConfig("file://" + dir)
	defer Cfg.Set("OutputDir", "output")

	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{
		"terrain.log",
		"terrain_netcdf-id0_iter-00000.nc",
		"terrain_netcdf-id0_iter-00001.nc",
		"terrain_netcdf-id0_iter-00002.nc",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("uploaded file %s: %v", f, err)
		}
	}

	removed, err := Clean("file://"+dir, "terrain")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 4 {
		t.Errorf("removed %d files, want 4: %v", len(removed), removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "terrain.log")); !os.IsNotExist(err) {
		t.Errorf("terrain.log was not removed: %v", err)
	}
}
