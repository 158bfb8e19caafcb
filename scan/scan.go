// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package scan finds the diffs waiting in a diff directory and pairs
// each of them with the list file it applies to.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
)

const (
	contextfulSuffix = ".list"
	strippedSuffix   = ".diff"

	// names of this length or shorter cannot be a list name plus
	// suffix and are ignored
	minNameLen = 8
)

// ErrSameDir is returned when the list and diff directories are the
// same directory.
var ErrSameDir = errors.New("list and diff directories must differ")

// Filter selects list files by name. An empty Include selects all of
// them; Exclude wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

// Validate checks that all patterns are well formed.
func (f *Filter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid pattern %q", p)
		}
	}
	return nil
}

// Match reports whether the list file name passes the filter.
func (f *Filter) Match(name string) bool {
	if f == nil {
		return true
	}
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Diffs returns one record per diff found in diffDir, sorted by list
// file name. A diff named <name>.list is a contextful diff for
// listDir/<name>.list and one named <name>.diff is a stripped diff for
// listDir/<name>.list.
func Diffs(listDir, diffDir string, filter *Filter) ([]*diffs.Record, error) {
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}
	if !osutil.IsDirectory(listDir) {
		return nil, fmt.Errorf("%s is not a directory", listDir)
	}
	if osutil.SameFile(listDir, diffDir) {
		return nil, ErrSameDir
	}
	entries, err := os.ReadDir(diffDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read diff directory: %v", err)
	}

	var recs []*diffs.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || len(name) <= minNameLen {
			continue
		}
		var list string
		var f *diffs.Format
		switch {
		case strings.HasSuffix(name, contextfulSuffix):
			list, f = name, diffs.Contextful
		case strings.HasSuffix(name, strippedSuffix):
			list, f = strings.TrimSuffix(name, strippedSuffix)+contextfulSuffix, diffs.Stripped
		default:
			continue
		}
		if !filter.Match(list) {
			logger.Debugf("skipping %s: filtered out", name)
			continue
		}
		recs = append(recs, diffs.NewRecord(filepath.Join(listDir, list), filepath.Join(diffDir, name), f))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if a, b := recs[i].Name(), recs[j].Name(); a != b {
			return a < b
		}
		return recs[i].Diff < recs[j].Diff
	})
	return recs, nil
}

// Lists returns the list files to verify at path: path itself if it
// is a file, or every *.list file in it, sorted, if it is a directory.
func Lists(path string, filter *Filter) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}
	names, err := doublestar.Glob(os.DirFS(path), "*"+contextfulSuffix)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	lists := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(path, name)
		if osutil.IsDirectory(p) || !filter.Match(name) {
			continue
		}
		lists = append(lists, p)
	}
	return lists, nil
}
