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

package diffs

import (
	"path/filepath"
)

// Record tracks one list file and the diff to apply to it through a
// batch run.
type Record struct {
	// List is the path of the list file, Diff the path of the diff.
	List   string
	Diff   string
	Format *Format

	Status  Status
	Added   int
	Removed int
	// CRC is set when the checksum of the list file was verified
	// before applying.
	CRC *CRCInfo
	// Err describes the last failure, if any.
	Err error
}

// NewRecord returns a record for list and diff with status OK.
func NewRecord(list, diff string, f *Format) *Record {
	return &Record{List: list, Diff: diff, Format: f, Status: OK}
}

// Name is the file name of the list file.
func (r *Record) Name() string {
	return filepath.Base(r.List)
}

func (r *Record) fail(err error) {
	r.Status = StatusOf(err)
	r.Err = err
	r.Added = 0
	r.Removed = 0
}
