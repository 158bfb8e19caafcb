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

	"golang.org/x/xerrors"

	"github.com/listsync/applydiffs/listcrc"
	"github.com/listsync/applydiffs/logger"
)

// RunResult is the overall outcome of a batch, doubling as exit code.
type RunResult int

const (
	ResultOK      RunResult = 0
	ResultWarning RunResult = 10
	ResultError   RunResult = 20
)

// Packer handles list files kept compressed on disk.
type Packer interface {
	// Compressed reports whether list only exists in packed form.
	Compressed(list string) bool
	// Unpack restores list from its packed form.
	Unpack(list string) error
	// Repack replaces list by its packed form.
	Repack(list string) error
}

// Journal keeps a trail of batch outcomes.
type Journal interface {
	Record(rec *Record) error
}

// Batch checks and applies a set of diffs. Files are processed one at
// a time in the order given.
type Batch struct {
	// CheckCRC verifies the checksum of every list file before
	// anything is applied.
	CheckCRC bool
	// Force skips the compatibility checks and commits results even
	// if their checksum does not match.
	Force bool
	// Keep preserves previous list files and the applied diffs.
	Keep bool

	Capacity int
	Table    *listcrc.Table

	// Packer, if set, handles compressed list files.
	Packer Packer
	// Journal, if set, receives every record after the apply phase.
	Journal Journal

	// Checking is called before a record is checked, Applying before
	// it is applied and Done after its outcome is final.
	Checking func(rec *Record)
	Applying func(rec *Record)
	Done     func(rec *Record)
	// Progress reports how much of the current diff was applied.
	Progress func(rec *Record, pct int)
}

// Run processes recs. Failures are recorded per file and do not stop
// the batch; the returned error is only set when ctx is done.
//
// If any file fails the checks, no diff at all is applied and the
// result is ResultWarning. Otherwise every diff is applied and the
// result is ResultWarning if any of them failed.
func (b *Batch) Run(ctx context.Context, recs []*Record) (RunResult, error) {
	if err := b.check(ctx, recs); err != nil {
		return ResultError, err
	}
	for _, rec := range recs {
		if !rec.Status.Applicable() {
			logger.Noticef("%s did not pass the checks (%s), not applying any diff", rec.Name(), rec.Status)
			b.journal(recs)
			return ResultWarning, nil
		}
	}

	result := ResultOK
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return ResultError, xerrors.Errorf("batch stopped before %s: %w", rec.Name(), err)
		}
		// a started file is finished, cancellation only stops the
		// batch between files
		b.apply(context.WithoutCancel(ctx), rec)
		if b.Done != nil {
			b.Done(rec)
		}
		if rec.Status.Warning() {
			result = ResultWarning
		}
	}
	b.journal(recs)
	return result, nil
}

func (b *Batch) check(ctx context.Context, recs []*Record) error {
	checker := &Checker{Table: b.Table, Capacity: b.Capacity}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("batch stopped while checking %s: %w", rec.Name(), err)
		}
		if b.Checking != nil {
			b.Checking(rec)
		}
		rec.Status = OK
		rec.Err = nil
		if b.Packer != nil && b.Packer.Compressed(rec.List) {
			logger.Noticef("skipping checks of %s: file is compressed", rec.Name())
			rec.Status = Unknown
			continue
		}
		if !b.Force {
			rec.Status, rec.Err = CheckMatch(rec.List, rec.Diff, rec.Format)
			logger.Debugf("%s matches %s: %s", rec.Diff, rec.Name(), rec.Status)
		}
		if b.CheckCRC && rec.Status == OK {
			info, err := checker.Check(rec.List)
			rec.CRC = info
			switch info.Status {
			case ChecksumMismatch:
				rec.Status = ChecksumMismatch
				rec.Err = &Error{Kind: ChecksumMismatch, Msg: "list file has " + info.Computed + " but declares " + info.Declared}
			case IOError:
				rec.Status = IOError
				rec.Err = err
			}
		}
	}
	return nil
}

func (b *Batch) apply(ctx context.Context, rec *Record) {
	compressed := rec.Status == Unknown && b.Packer != nil
	if compressed {
		if err := b.Packer.Unpack(rec.List); err != nil {
			rec.fail(ioError(0, err, "cannot uncompress list file"))
			return
		}
		rec.Status = OK
	}
	if b.Applying != nil {
		b.Applying(rec)
	}

	a := &Applier{
		Keep:     b.Keep,
		Force:    b.Force,
		Capacity: b.Capacity,
		Table:    b.Table,
		Progress: b.Progress,
	}
	a.ApplyFile(ctx, rec)

	if compressed {
		if err := b.Packer.Repack(rec.List); err != nil {
			// the diff was applied, only packing failed
			rec.Status = IOError
			rec.Err = ioError(0, err, "cannot compress list file")
		}
	}
}

func (b *Batch) journal(recs []*Record) {
	if b.Journal == nil {
		return
	}
	for _, rec := range recs {
		if err := b.Journal.Record(rec); err != nil {
			logger.Noticef("cannot record outcome of %s: %v", rec.Name(), err)
		}
	}
}
