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

package diffs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"

	. "gopkg.in/check.v1"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
	"github.com/listsync/applydiffs/testutil"
)

type applySuite struct {
	lists, diffs string
	list, diff   string

	restore []func()
}

var _ = Suite(&applySuite{})

// a diff that rewrites the checksum line only
const badChecksumDiff = `1c1
< CRC: 0x60312105  File: greek.list  Date: Fri Sep 27 01:00:00 1996
---
> CRC: 0x00000000
`

func (s *applySuite) SetUpTest(c *C) {
	dir := c.MkDir()
	s.lists = filepath.Join(dir, "lists")
	s.diffs = filepath.Join(dir, "diffs")
	c.Assert(os.Mkdir(s.lists, 0755), IsNil)
	c.Assert(os.Mkdir(s.diffs, 0755), IsNil)
	s.list = writeFile(c, s.lists, "greek.list", greekA)
	s.diff = writeFile(c, s.diffs, "greek.list", contextfulAB)

	_, restore := logger.MockLogger()
	s.restore = []func(){restore}
}

func (s *applySuite) TearDownTest(c *C) {
	for _, f := range s.restore {
		f()
	}
}

func (s *applySuite) record() *diffs.Record {
	return diffs.NewRecord(s.list, s.diff, diffs.Contextful)
}

func (s *applySuite) TestApply(c *C) {
	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Assert(err, IsNil)
	c.Check(rec.Status, Equals, diffs.OK)
	c.Check(rec.Err, IsNil)
	c.Check(rec.Added, Equals, 3)
	c.Check(rec.Removed, Equals, 2)
	c.Check(s.list, testutil.FileEquals, greekB)
	c.Check(s.diff, testutil.FileAbsent)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestApplyStripped(c *C) {
	writeFile(c, s.diffs, "greek.diff", strippedAB)
	rec := diffs.NewRecord(s.list, filepath.Join(s.diffs, "greek.diff"), diffs.Stripped)
	c.Assert((&diffs.Applier{}).ApplyFile(context.Background(), rec), IsNil)
	c.Check(rec.Status, Equals, diffs.OK)
	c.Check(s.list, testutil.FileEquals, greekB)
}

func (s *applySuite) TestApplyKeep(c *C) {
	rec := s.record()
	err := (&diffs.Applier{Keep: true}).ApplyFile(context.Background(), rec)
	c.Assert(err, IsNil)
	c.Check(s.list, testutil.FileEquals, greekB)
	c.Check(filepath.Join(s.lists, "greek.old"), testutil.FileEquals, greekA)
	c.Check(s.diff, testutil.FileEquals, contextfulAB)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list", "greek.old"})
}

func (s *applySuite) TestApplyReplacesBackup(c *C) {
	old := writeFile(c, s.lists, "greek.old", "stale\n")

	c.Assert((&diffs.Applier{Keep: true}).ApplyFile(context.Background(), s.record()), IsNil)
	c.Check(old, testutil.FileEquals, greekA)
}

func (s *applySuite) TestApplyDropsStaleBackup(c *C) {
	old := writeFile(c, s.lists, "greek.old", "stale\n")

	c.Assert((&diffs.Applier{}).ApplyFile(context.Background(), s.record()), IsNil)
	c.Check(old, testutil.FileAbsent)
}

func (s *applySuite) TestApplyNewFile(c *C) {
	c.Assert(os.Remove(s.list), IsNil)
	writeFile(c, s.diffs, "greek.list", contextfulNew)

	rec := s.record()
	err := (&diffs.Applier{Keep: true}).ApplyFile(context.Background(), rec)
	c.Assert(err, IsNil)
	c.Check(rec.Status, Equals, diffs.New)
	c.Check(rec.Added, Equals, 3)
	c.Check(s.list, testutil.FileEquals, created)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})

	fi, err := os.Stat(s.list)
	c.Assert(err, IsNil)
	c.Check(fi.Mode().Perm(), Equals, os.FileMode(0644))
}

func (s *applySuite) TestApplyPreservesPermissions(c *C) {
	c.Assert(os.Chmod(s.list, 0600), IsNil)

	c.Assert((&diffs.Applier{}).ApplyFile(context.Background(), s.record()), IsNil)
	fi, err := os.Stat(s.list)
	c.Assert(err, IsNil)
	c.Check(fi.Mode().Perm(), Equals, os.FileMode(0600))
}

func (s *applySuite) TestChecksumMismatchRollsBack(c *C) {
	writeFile(c, s.diffs, "greek.list", badChecksumDiff)

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Check(err, ErrorMatches, `merged list has CRC: 0x60312105 but declares "CRC: 0x00000000"`)
	c.Check(err, testutil.ErrorIs, diffs.ErrChecksumMismatch)
	c.Check(rec.Status, Equals, diffs.ChecksumMismatch)
	c.Check(rec.Err, Equals, err)
	c.Check(rec.Added, Equals, 0)
	c.Check(rec.Removed, Equals, 0)
	c.Check(s.list, testutil.FileEquals, greekA)
	c.Check(s.diff, testutil.FilePresent)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestForceCommitsMismatch(c *C) {
	writeFile(c, s.diffs, "greek.list", badChecksumDiff)
	buf, restore := logger.MockLogger()
	defer restore()

	rec := s.record()
	err := (&diffs.Applier{Force: true}).ApplyFile(context.Background(), rec)
	c.Assert(err, IsNil)
	c.Check(rec.Status, Equals, diffs.OK)
	c.Check(rec.Added, Equals, 1)
	c.Check(rec.Removed, Equals, 1)
	c.Check(s.list, testutil.FileEquals, "CRC: 0x00000000\nalpha\nbeta\ngamma\ndelta\n")
	c.Check(buf.String(), testutil.Contains, "greek.list: keeping result despite checksum CRC: 0x60312105")
}

func (s *applySuite) TestVersionMismatchLeavesListAlone(c *C) {
	writeFile(c, s.lists, "greek.list", greekB)

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Check(err, testutil.ErrorIs, diffs.ErrVersionMismatch)
	c.Check(rec.Status, Equals, diffs.VersionMismatch)
	c.Check(s.list, testutil.FileEquals, greekB)
	c.Check(s.diff, testutil.FilePresent)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestMissingDiff(c *C) {
	c.Assert(os.Remove(s.diff), IsNil)

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Check(err, ErrorMatches, "cannot open diff: .*")
	c.Check(rec.Status, Equals, diffs.IOError)
	c.Check(s.list, testutil.FileEquals, greekA)
}

type failingWriter struct {
	osutil.AtomicWriter
	left int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.left {
		return 0, errors.New("no space left on device")
	}
	w.left -= len(p)
	return w.AtomicWriter.Write(p)
}

type syncFailWriter struct {
	osutil.AtomicWriter
	rename bool
}

func (w *syncFailWriter) Finalize() error {
	if w.rename {
		if err := w.AtomicWriter.Finalize(); err != nil {
			return err
		}
	}
	return errors.New("input/output error")
}

func (s *applySuite) mockFinalizeFailure(rename bool) {
	restore := diffs.MockNewAtomicFile(func(name string, perm os.FileMode) (osutil.AtomicWriter, error) {
		aw, err := diffs.RealNewAtomicFile(name, perm)
		if err != nil {
			return nil, err
		}
		return &syncFailWriter{AtomicWriter: aw, rename: rename}, nil
	})
	s.restore = append(s.restore, restore)
}

func (s *applySuite) TestFinalizeFailureAfterRenameCommits(c *C) {
	s.mockFinalizeFailure(true)

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Assert(err, IsNil)
	c.Check(rec.Status, Equals, diffs.OK)
	c.Check(rec.Added, Equals, 3)
	c.Check(rec.Removed, Equals, 2)
	c.Check(s.list, testutil.FileEquals, greekB)
	c.Check(s.diff, testutil.FileAbsent)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestFinalizeFailureBeforeRenameRollsBack(c *C) {
	s.mockFinalizeFailure(false)

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(context.Background(), rec)
	c.Check(err, ErrorMatches, ".*cannot replace list file: input/output error")
	c.Check(rec.Status, Equals, diffs.IOError)
	c.Check(rec.Added, Equals, 0)
	c.Check(s.list, testutil.FileEquals, greekA)
	c.Check(s.diff, testutil.FileEquals, contextfulAB)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestKeepCopiesWithoutHardLinks(c *C) {
	c.Assert(os.Chmod(s.list, 0640), IsNil)
	restore := diffs.MockOsLink(func(oldname, newname string) error {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: syscall.EPERM}
	})
	defer restore()

	rec := s.record()
	c.Assert((&diffs.Applier{Keep: true}).ApplyFile(context.Background(), rec), IsNil)
	old := filepath.Join(s.lists, "greek.old")
	c.Check(old, testutil.FileEquals, greekA)
	c.Check(s.list, testutil.FileEquals, greekB)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list", "greek.old"})

	fi, err := os.Stat(old)
	c.Assert(err, IsNil)
	c.Check(fi.Mode().Perm(), Equals, os.FileMode(0640))
}

func (s *applySuite) TestWriteFailureIsAtomic(c *C) {
	var temp string
	restore := diffs.MockNewAtomicFile(func(name string, perm os.FileMode) (osutil.AtomicWriter, error) {
		aw, err := diffs.RealNewAtomicFile(name, perm)
		if err != nil {
			return nil, err
		}
		temp = aw.TempName()
		return &failingWriter{AtomicWriter: aw, left: 40}, nil
	})
	defer restore()

	rec := s.record()
	err := (&diffs.Applier{Capacity: 32}).ApplyFile(context.Background(), rec)
	c.Check(err, ErrorMatches, ".*cannot write output: no space left on device")
	c.Check(rec.Status, Equals, diffs.IOError)
	c.Check(s.list, testutil.FileEquals, greekA)
	c.Check(temp, Not(Equals), "")
	c.Check(temp, testutil.FileAbsent)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}

func (s *applySuite) TestProgress(c *C) {
	var seen []int
	a := &diffs.Applier{
		Progress: func(rec *diffs.Record, pct int) {
			c.Check(rec.Name(), Equals, "greek.list")
			seen = append(seen, pct)
		},
	}
	c.Assert(a.ApplyFile(context.Background(), s.record()), IsNil)
	c.Assert(seen, Not(HasLen), 0)
	c.Check(seen[len(seen)-1], Equals, 100)
}

func (s *applySuite) TestCancelled(c *C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := s.record()
	err := (&diffs.Applier{}).ApplyFile(ctx, rec)
	c.Check(err, testutil.ErrorIs, context.Canceled)
	c.Check(rec.Status, Equals, diffs.IOError)
	c.Check(s.list, testutil.FileEquals, greekA)
	c.Check(dirEntries(c, s.lists), DeepEquals, []string{"greek.list"})
}
