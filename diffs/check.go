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
	"io"

	"golang.org/x/xerrors"

	"github.com/listsync/applydiffs/linebuf"
	"github.com/listsync/applydiffs/listcrc"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
)

// CheckMatch tells whether the diff at diffPath was made for the list
// file at listPath. It returns OK when it was, New when there is no
// list file and the diff creates one, and VersionMismatch or IOError
// otherwise, together with an error describing the problem.
func CheckMatch(listPath, diffPath string, f *Format) (Status, error) {
	diff, err := linebuf.Open(diffPath, linebuf.ModeRead, 0)
	if err != nil {
		return IOError, ioError(0, err, "cannot open diff")
	}
	defer diff.Close()

	if !osutil.FileExists(listPath) {
		return checkCreates(diff, f)
	}

	list, err := linebuf.Open(listPath, linebuf.ModeRead, 0)
	if err != nil {
		return IOError, ioError(0, err, "cannot open list file")
	}
	defer list.Close()

	var ref string
	for i := 0; i < f.MatchLine; i++ {
		if ref, err = diff.ReadLine(); err != nil {
			return IOError, ioError(i+1, eofAsUnexpected(err), "cannot read diff")
		}
	}
	first, err := list.ReadLine()
	if err != nil {
		return IOError, ioError(0, eofAsUnexpected(err), "cannot read list file")
	}
	if want := f.reference(ref); want != first {
		logMismatch(1, want, first)
		return VersionMismatch, newError(VersionMismatch, f.MatchLine, "diff was made for another list version")
	}
	return OK, nil
}

func checkCreates(diff *linebuf.Buffer, f *Format) (Status, error) {
	if f.Header != "" {
		hdr, err := diff.ReadLine()
		if err != nil {
			return IOError, ioError(1, eofAsUnexpected(err), "cannot read diff")
		}
		if hdr != NewFileSentinel {
			return VersionMismatch, newError(VersionMismatch, 1, "list file is missing and the diff does not create it")
		}
		return New, nil
	}
	for n := 1; ; n++ {
		line, err := diff.ReadLine()
		if err == io.EOF {
			return New, nil
		}
		if err != nil {
			return IOError, ioError(n, err, "cannot read diff")
		}
		if f.RemoveMarker != 0 && len(line) > 0 && line[0] == f.RemoveMarker {
			return VersionMismatch, newError(VersionMismatch, n, "list file is missing and the diff removes lines")
		}
	}
}

func eofAsUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// CRCInfo is the outcome of verifying the checksum of a list file.
type CRCInfo struct {
	Status Status
	// Size is the file size in bytes.
	Size int64
	// Date is the "Date: " token of the checksum line, if any.
	Date string
	// Declared is the checksum key read from the first line.
	Declared string
	// Computed is the checksum over all following lines.
	Computed string
}

// Checker verifies list files against their own checksum line.
type Checker struct {
	// Table is the checksum table, DefaultTable if nil.
	Table *listcrc.Table
	// Capacity is the read buffer size, linebuf.DefaultCapacity if 0.
	Capacity int
	// Progress, if set, is called with the percentage read whenever
	// it changes.
	Progress func(pct int)
}

// Check verifies the list file at path. The returned info is never
// nil. Its status is OK, ChecksumMismatch, NoChecksum or IOError; the
// error is only set for the last one.
func (ch *Checker) Check(path string) (*CRCInfo, error) {
	info := &CRCInfo{Status: IOError}

	list, err := linebuf.Open(path, linebuf.ModeRead|linebuf.GetSize, ch.Capacity)
	if err != nil {
		return info, ioError(0, err, "cannot open list file")
	}
	defer list.Close()
	info.Size = list.Size()

	first, err := list.ReadLine()
	if err == io.EOF {
		info.Status = NoChecksum
		return info, nil
	}
	if err != nil {
		return info, ioError(1, err, "cannot read list file")
	}
	key, ok := listcrc.Line(first)
	if !ok {
		info.Status = NoChecksum
		return info, nil
	}
	info.Declared = key
	info.Date = listcrc.DateOf(first)

	sum := listcrc.New(ch.Table)
	pct := -1
	for n := 2; ; n++ {
		line, err := list.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, ioError(0, err, "cannot read list line %d", n)
		}
		sum.AddLine(line)
		if ch.Progress != nil && info.Size > 0 {
			if p := int(list.Offset() * 100 / info.Size); p != pct {
				pct = p
				ch.Progress(p)
			}
		}
	}
	info.Computed = sum.String()
	if info.Computed == info.Declared {
		info.Status = OK
	} else {
		logger.Debugf("checksum of %s is %s, declared %s", path, info.Computed, info.Declared)
		info.Status = ChecksumMismatch
	}
	return info, nil
}

// CheckCRC verifies the list file at path with the default table.
func CheckCRC(path string) (*CRCInfo, error) {
	info, err := (&Checker{}).Check(path)
	if err != nil {
		return info, xerrors.Errorf("cannot check %s: %w", path, err)
	}
	return info, nil
}
