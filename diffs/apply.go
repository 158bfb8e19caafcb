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
	"context"
	"fmt"
	"os"

	"github.com/listsync/applydiffs/linebuf"
	"github.com/listsync/applydiffs/listcrc"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
)

// Applier applies diffs to list files and commits the results.
type Applier struct {
	// Keep preserves the previous list file as <name>.old and leaves
	// the diff in place.
	Keep bool
	// Force commits results whose checksum does not match and lets
	// header mismatches through.
	Force bool
	// Capacity is the buffer size used for every file.
	Capacity int
	// Table is the checksum table, DefaultTable if nil.
	Table *listcrc.Table
	// Progress, if set, is called with the percentage of the diff
	// consumed whenever it changes.
	Progress func(rec *Record, pct int)
}

var newAtomicFile = func(name string, perm os.FileMode) (osutil.AtomicWriter, error) {
	aw, err := osutil.NewAtomicFile(name, perm)
	if err != nil {
		return nil, err
	}
	return aw, nil
}

// ApplyFile applies rec.Diff to rec.List. On success the merged list
// replaces rec.List, rec holds the counters and its status is OK, or
// New if there was no list file before. On failure rec.List is
// untouched, the counters are zero and the returned error is also
// stored in rec.Err.
func (a *Applier) ApplyFile(ctx context.Context, rec *Record) error {
	created, err := a.applyFile(ctx, rec)
	if err != nil {
		rec.fail(err)
		logger.Debugf("cannot apply %s: %v", rec.Diff, err)
		return err
	}
	if created {
		rec.Status = New
	} else {
		rec.Status = OK
	}
	rec.Err = nil
	return nil
}

func (a *Applier) applyFile(ctx context.Context, rec *Record) (created bool, err error) {
	diff, err := linebuf.Open(rec.Diff, linebuf.ModeRead|linebuf.GetSize, a.Capacity)
	if err != nil {
		return false, ioError(0, err, "cannot open diff")
	}
	defer diff.Close()

	var base *linebuf.Buffer
	perm := os.FileMode(0644)
	if fi, err := os.Stat(rec.List); err == nil {
		perm = fi.Mode().Perm()
		base, err = linebuf.Open(rec.List, linebuf.ModeRead, a.Capacity)
		if err != nil {
			return false, ioError(0, err, "cannot open list file")
		}
		defer base.Close()
	} else if !os.IsNotExist(err) {
		return false, ioError(0, err, "cannot access list file")
	}

	aw, err := newAtomicFile(rec.List, perm)
	if err != nil {
		return false, ioError(0, err, "cannot create output")
	}
	committed := false
	defer func() {
		if !committed {
			if cerr := aw.Cancel(); cerr != nil {
				logger.Noticef("cannot remove %s: %v", aw.TempName(), cerr)
			}
		}
	}()

	out := linebuf.NewWriter(aw, a.Capacity)
	p := &Patcher{
		Format:  rec.Format,
		Table:   a.Table,
		Lenient: a.Force,
	}
	if a.Progress != nil && diff.Size() > 0 {
		last := -1
		size := diff.Size()
		p.Progress = func(off int64) {
			if pct := int(off * 100 / size); pct != last {
				last = pct
				a.Progress(rec, pct)
			}
		}
	}

	res, err := p.Apply(ctx, base, diff, out)
	if err != nil {
		return false, err
	}
	if err := out.Flush(); err != nil {
		return false, ioError(0, err, "cannot write %s", aw.TempName())
	}

	if !res.ChecksumOK() {
		if !a.Force {
			return false, &Error{
				Kind: ChecksumMismatch,
				Msg:  fmt.Sprintf("merged list has %s but declares %q", res.Computed, res.Declared),
			}
		}
		logger.Noticef("%s: keeping result despite checksum %s (declared %q)", rec.Name(), res.Computed, res.Declared)
	}

	if err := a.commit(rec, aw, base != nil); err != nil {
		return false, err
	}
	committed = true
	rec.Added = res.Added
	rec.Removed = res.Removed
	return base == nil, nil
}

// commit moves the finished output over the list file. The previous
// version becomes <name>.old if requested; the list path always holds
// either the old or the new content. Once the rename is done the
// commit stands, even if making it durable fails.
func (a *Applier) commit(rec *Record, aw osutil.AtomicWriter, hadBase bool) error {
	backup := osutil.ChangeSuffix(rec.List, ".old")
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return ioError(0, err, "cannot remove old backup")
	}
	if a.Keep && hadBase {
		if err := keepBackup(rec.List, backup); err != nil {
			return ioError(0, err, "cannot keep backup")
		}
	}
	if err := aw.Finalize(); err != nil {
		if aw.Cancel() != osutil.ErrCannotCancel {
			return ioError(0, err, "cannot replace list file")
		}
		logger.Noticef("%s was replaced but may not survive a crash: %v", rec.List, err)
	}
	if !a.Keep {
		if err := os.Remove(rec.Diff); err != nil && !os.IsNotExist(err) {
			logger.Noticef("cannot remove %s: %v", rec.Diff, err)
		}
	}
	return nil
}

var osLink = os.Link

// keepBackup makes backup a hard link to list, or a copy where the
// filesystem has no hard links.
func keepBackup(list, backup string) error {
	lerr := osLink(list, backup)
	if lerr == nil {
		return nil
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
	if err := osutil.AtomicWrite(backup, f, fi.Mode().Perm()); err != nil {
		return err
	}
	logger.Debugf("copied %s to %s, cannot link: %v", list, backup, lerr)
	return nil
}
