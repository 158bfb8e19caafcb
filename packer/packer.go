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

// Package packer keeps list files gzip compressed on disk and expands
// them for the duration of a patch.
package packer

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"

	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
)

// Ext is appended to the name of a compressed list file.
const Ext = ".gz"

// DefaultLevel is the compression level used when Level is zero.
const DefaultLevel = 4

// Gzip packs list files as <name>.gz next to where the plain file
// would be. Exactly one of the two forms exists outside of a patch.
type Gzip struct {
	// Level is the gzip compression level, DefaultLevel if zero.
	Level int
}

// Compressed reports whether list only exists in packed form.
func (g *Gzip) Compressed(list string) bool {
	return !osutil.FileExists(list) && osutil.FileExists(list+Ext)
}

// Unpack expands list.gz into list and removes list.gz.
func (g *Gzip) Unpack(list string) error {
	packed := list + Ext
	f, err := os.Open(packed)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		return xerrors.Errorf("cannot read %s: %w", packed, err)
	}
	defer zr.Close()

	if err := osutil.AtomicWrite(list, zr, fi.Mode().Perm()); err != nil {
		return xerrors.Errorf("cannot uncompress %s: %w", packed, err)
	}
	if err := os.Remove(packed); err != nil {
		return err
	}
	logger.Debugf("uncompressed %s", packed)
	return nil
}

// Repack compresses list into list.gz and removes list.
func (g *Gzip) Repack(list string) error {
	level := g.Level
	if level == 0 {
		level = DefaultLevel
	}
	f, err := os.Open(list)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	aw, err := osutil.NewAtomicFile(list+Ext, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer aw.Cancel()

	zw, err := gzip.NewWriterLevel(aw, level)
	if err != nil {
		return err
	}
	zw.Name = fi.Name()
	zw.ModTime = fi.ModTime()
	if _, err := io.Copy(zw, f); err != nil {
		return xerrors.Errorf("cannot compress %s: %w", list, err)
	}
	if err := zw.Close(); err != nil {
		return xerrors.Errorf("cannot compress %s: %w", list, err)
	}
	if err := aw.Finalize(); err != nil {
		return err
	}
	if err := os.Remove(list); err != nil {
		return err
	}
	logger.Debugf("compressed %s", list)
	return nil
}
