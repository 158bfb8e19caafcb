// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2014-2015 Canonical Ltd
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

package osutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/listsync/applydiffs/randutil"
)

// Unit tests may skip the fsync calls, which are slow on some
// filesystems.
var unsafeIO = len(os.Args) > 0 && strings.HasSuffix(os.Args[0], ".test") && GetenvBool("APPLYDIFFS_UNSAFE_IO")

// An AtomicWriter replaces a file in one step. Everything written
// goes to a temporary file, Finalize moves it over the target and
// Cancel throws it away. After a crash the target holds either its
// old or its new content, never a mix.
type AtomicWriter interface {
	io.WriteCloser

	// Finalize makes the new content permanent and closes the
	// writer. If it fails, Cancel must still be called.
	Finalize() error

	// Cancel closes the writer and removes the temporary file. It
	// fails once Finalize has moved the file into place.
	Cancel() error

	// TempName is where the content lives until Finalize.
	TempName() string
}

// AtomicFile is the AtomicWriter returned by NewAtomicFile.
type AtomicFile struct {
	*os.File

	target  string
	tmpname string
	renamed bool
	closed  bool
}

// tempSuffixLen is the length of the random suffix of temporary
// files.
const tempSuffixLen = 12

// NewAtomicFile creates the temporary file that becomes target with
// the given permissions once finalized. It lives in the directory of
// target so the final rename never crosses filesystems. A symlink at
// target is replaced, not followed.
//
// Callers clean up on error by calling Cancel.
func NewAtomicFile(target string, perm os.FileMode) (*AtomicFile, error) {
	tmp := target + "." + randutil.RandomString(tempSuffixLen)
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{
		File:    fd,
		target:  target,
		tmpname: tmp,
	}, nil
}

// ErrCannotCancel is returned by Cancel after the new content was
// moved into place.
var ErrCannotCancel = errors.New("cannot cancel: file has already been renamed")

func (aw *AtomicFile) TempName() string {
	return aw.tmpname
}

// Target is the name the content gets on Finalize.
func (aw *AtomicFile) Target() string {
	return aw.target
}

// Close closes the temporary file without finalizing it. Calling it
// again is a no-op.
func (aw *AtomicFile) Close() error {
	if aw.closed {
		return nil
	}
	aw.closed = true
	return aw.File.Close()
}

func (aw *AtomicFile) Cancel() error {
	if aw.renamed {
		aw.Close()
		return ErrCannotCancel
	}
	closeErr := aw.Close()
	if err := os.Remove(aw.tmpname); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// Finalize syncs the temporary file, renames it over the target and
// syncs the directory so the rename survives a crash. The file is
// closed whenever the rename happened, even if the directory sync
// then fails. Cancel reports ErrCannotCancel in that case.
func (aw *AtomicFile) Finalize() error {
	if unsafeIO {
		if err := osRename(aw.tmpname, aw.target); err != nil {
			return err
		}
		aw.renamed = true
		return aw.Close()
	}

	dir, err := os.Open(filepath.Dir(aw.target))
	if err != nil {
		return err
	}
	defer dir.Close()
	if err := aw.Sync(); err != nil {
		return err
	}
	if err := osRename(aw.tmpname, aw.target); err != nil {
		return err
	}
	aw.renamed = true
	syncErr := syncDir(dir)
	closeErr := aw.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

var syncDir = (*os.File).Sync

var osRename = os.Rename

// AtomicWrite copies r into target through an AtomicFile. Nothing is
// left behind if reading fails.
func AtomicWrite(target string, r io.Reader, perm os.FileMode) (err error) {
	aw, err := NewAtomicFile(target, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			aw.Cancel()
		}
	}()

	if _, err := io.Copy(aw, r); err != nil {
		return err
	}
	return aw.Finalize()
}
