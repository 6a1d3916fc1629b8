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

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// files is an ordered set of output file paths.
type files struct {
	paths []string
}

// IsFileRegistered returns whether path has already been registered.
func (f *files) IsFileRegistered(path string) bool {
	for _, p := range f.paths {
		if p == path {
			return true
		}
	}
	return false
}

// RegisterOutputFilepath records that path was created by the writer.
// Registering a path more than once has no effect.
func (f *files) RegisterOutputFilepath(path string) {
	if !f.IsFileRegistered(path) {
		f.paths = append(f.paths, path)
	}
}

// OutputFilepaths returns the registered file paths with extension ext,
// or all of them if ext is empty.
func (f *files) OutputFilepaths(ext string) []string {
	var o []string
	for _, p := range f.paths {
		if matchExt(p, ext) {
			o = append(o, p)
		}
	}
	return o
}

// matchExt returns whether path has extension ext, ignoring any leading
// dot in ext. An empty ext matches everything.
func matchExt(path, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.TrimPrefix(filepath.Ext(path), ".") == strings.TrimPrefix(ext, ".")
}

// removeAttempts is the number of times deleting a file is retried.
const removeAttempts = 3

// DeleteOutputFiles deletes the registered files with extension ext, or
// all of them if ext is empty. Files that cannot be deleted are logged,
// kept in the registry, and reported in the returned error; the rest of
// the files are still deleted. Files that no longer exist are dropped
// from the registry.
func (b *Base) DeleteOutputFiles(ext string) error {
	var keep, failed []string
	for _, p := range b.paths {
		if !matchExt(p, ext) {
			keep = append(keep, p)
			continue
		}
		err := backoff.Retry(func() error {
			err := os.Remove(p)
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}, backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), removeAttempts))
		if err != nil {
			b.Log.WithFields(logrus.Fields{
				"writer": b.name,
				"file":   p,
			}).Warnf("could not delete output file: %v", err)
			keep = append(keep, p)
			failed = append(failed, p)
		}
	}
	b.paths = keep
	if len(failed) > 0 {
		return fmt.Errorf("terrain/output: writer %s could not delete %d output files: %s",
			b.name, len(failed), strings.Join(failed, ", "))
	}
	return nil
}
