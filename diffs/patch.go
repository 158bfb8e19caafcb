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
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/listsync/applydiffs/linebuf"
	"github.com/listsync/applydiffs/listcrc"
	"github.com/listsync/applydiffs/logger"
)

// Patcher merges a list file with a diff into a new list file.
type Patcher struct {
	Format *Format
	// Table is the checksum table, DefaultTable if nil.
	Table *listcrc.Table
	// Lenient turns a mismatching header line into a notice instead
	// of a failure. Cross-checks of removed lines still apply.
	Lenient bool
	// Progress, if set, is called with the diff offset after every
	// line taken from the diff.
	Progress func(offset int64)
}

// Result describes a finished merge.
type Result struct {
	// Added counts lines taken from the diff.
	Added int
	// Removed counts list file lines dropped.
	Removed int
	// Lines is the number of lines written.
	Lines int
	// Declared is the checksum key of the first output line, empty if
	// that line is not a checksum line.
	Declared string
	// Computed is the checksum of every output line but the first.
	Computed string
}

// ChecksumOK reports whether the output matches its declared checksum.
func (r *Result) ChecksumOK() bool {
	return r.Declared != "" && r.Declared == r.Computed
}

// Apply merges base and diff into out. A nil base means there is no
// list file yet, in which case the diff must create one. base must
// support Position when the format has a header line or base is nil
// for a contextful diff; the diff is rewound in the latter case.
//
// Errors are of type *Error. The returned result holds the counters
// reached so far even on failure.
func (p *Patcher) Apply(ctx context.Context, base, diff, out *linebuf.Buffer) (*Result, error) {
	tab := p.Table
	if tab == nil {
		tab = listcrc.DefaultTable()
	}
	m := &merge{
		f:        p.Format,
		lenient:  p.Lenient,
		progress: p.Progress,
		base:     base,
		diff:     diff,
		out:      out,
		sum:      listcrc.New(tab),
		baseLine: 1,
		res:      &Result{},
	}
	if err := m.run(ctx); err != nil {
		return m.res, err
	}
	m.res.Computed = m.sum.String()
	return m.res, nil
}

// merge is the state of one Apply call. The phases of the merge are
// the methods below: header, copyTo (copying), remove, insert,
// separator and trailing.
type merge struct {
	f        *Format
	lenient  bool
	progress func(int64)

	base, diff, out *linebuf.Buffer
	sum             *listcrc.Digest

	// baseLine is the number of the next list file line, outLine the
	// number of lines written and diffLine the number of diff lines
	// read.
	baseLine int
	outLine  int
	diffLine int

	res *Result
}

func (m *merge) run(ctx context.Context) error {
	if err := m.header(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return ioError(m.diffLine, err, "patch interrupted")
		}
		line, err := m.readDiff()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		d, err := ParseDirective(line)
		if err != nil {
			err.(*Error).Line = m.diffLine
			return err
		}
		if err := m.apply(d); err != nil {
			return err
		}
	}
	return m.trailing()
}

func (m *merge) readDiff() (string, error) {
	line, err := m.diff.ReadLine()
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", ioError(m.diffLine+1, err, "cannot read diff")
	}
	m.diffLine++
	if m.progress != nil {
		m.progress(m.diff.Offset())
	}
	return line, nil
}

// mustReadDiff reads a line that the current directive requires.
func (m *merge) mustReadDiff(d Directive) (string, error) {
	line, err := m.readDiff()
	if err == io.EOF {
		return "", ioError(m.diffLine, io.ErrUnexpectedEOF, "diff ends inside %s", d)
	}
	return line, err
}

func (m *merge) readBase() (string, error) {
	line, err := m.base.ReadLine()
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", ioError(m.diffLine, err, "cannot read list line %d", m.baseLine)
	}
	return line, nil
}

// emit writes one output line. The first line is never folded into
// the checksum; if it is a checksum line it declares the expected
// value.
func (m *merge) emit(line string) error {
	if err := m.out.WriteLine(line); err != nil {
		return ioError(m.diffLine, err, "cannot write output")
	}
	if m.outLine == 0 {
		if key, ok := listcrc.Line(line); ok {
			m.res.Declared = key
		}
	} else {
		m.sum.AddLine(line)
	}
	m.outLine++
	m.res.Lines++
	return nil
}

func (m *merge) header() error {
	if m.f.Header != "" {
		return m.checkHeader()
	}
	if m.base == nil && m.f.RemoveMarker != 0 {
		return m.checkCreates()
	}
	return nil
}

// checkHeader consumes the header line of the diff and verifies it
// against the first line of the list file, which is then rewound.
func (m *merge) checkHeader() error {
	hdr, err := m.readDiff()
	if err == io.EOF {
		return ioError(0, io.ErrUnexpectedEOF, "diff is empty")
	}
	if err != nil {
		return err
	}
	if m.base == nil {
		if hdr != NewFileSentinel {
			return m.mismatch(newError(VersionMismatch, 1, "diff does not create a new list file"))
		}
		return nil
	}
	first, err := m.readBase()
	if err == io.EOF {
		return ioError(1, io.ErrUnexpectedEOF, "list file is empty")
	}
	if err != nil {
		return err
	}
	if want := m.f.reference(hdr); want != first {
		logMismatch(1, want, first)
		if err := m.mismatch(newError(VersionMismatch, 1, "diff was made for another list version")); err != nil {
			return err
		}
	}
	if err := m.base.Position(0); err != nil {
		return ioError(1, err, "cannot rewind list file")
	}
	return nil
}

// checkCreates verifies that a diff applied without a list file
// removes nothing, then rewinds the diff.
func (m *merge) checkCreates() error {
	progress := m.progress
	m.progress = nil
	defer func() { m.progress = progress }()
	for {
		line, err := m.readDiff()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(line) > 0 && line[0] == m.f.RemoveMarker {
			if err := m.mismatch(newError(VersionMismatch, m.diffLine, "diff removes lines but there is no list file")); err != nil {
				return err
			}
			break
		}
	}
	if err := m.diff.Position(0); err != nil {
		return ioError(0, err, "cannot rewind diff")
	}
	m.diffLine = 0
	return nil
}

func (m *merge) mismatch(err *Error) error {
	if m.lenient {
		logger.Noticef("ignoring: %v", err)
		return nil
	}
	return err
}

func (m *merge) apply(d Directive) error {
	if d.LeadingInsert() {
		return m.insert(d)
	}
	if m.base == nil {
		return newError(VersionMismatch, m.diffLine, "cannot apply %s without a list file", d)
	}
	if d.Base.Start < m.baseLine || d.Base.Start > d.Base.End ||
		d.Result.Start < m.outLine || d.Result.Start > d.Result.End {
		return newError(SyntaxError, m.diffLine, "directive %s out of order (list line %d, output line %d)", d, m.baseLine, m.outLine)
	}
	if err := m.copyTo(d.Base.Start); err != nil {
		return err
	}

	switch d.Cmd {
	case CmdDelete:
		return m.remove(d)
	case CmdAdd:
		// the anchor line stays, the new lines follow it
		if err := m.copyTo(d.Base.Start + 1); err != nil {
			return err
		}
		return m.insert(d)
	case CmdChange:
		if err := m.remove(d); err != nil {
			return err
		}
		if err := m.separator(d); err != nil {
			return err
		}
		return m.insert(d)
	default:
		return newError(SyntaxError, m.diffLine, "unknown command %q in %s", rune(d.Cmd), d)
	}
}

// copyTo copies list file lines until line n is the next one.
func (m *merge) copyTo(n int) error {
	for m.baseLine < n {
		line, err := m.readBase()
		if err == io.EOF {
			return ioError(m.diffLine, io.ErrUnexpectedEOF, "list file ends before line %d", n)
		}
		if err != nil {
			return err
		}
		if err := m.emit(line); err != nil {
			return err
		}
		m.baseLine++
	}
	return nil
}

func (m *merge) remove(d Directive) error {
	for i := d.Base.Start; i <= d.Base.End; i++ {
		var echo string
		if m.f.CrossCheck {
			l, err := m.mustReadDiff(d)
			if err != nil {
				return err
			}
			echo = m.f.content(l)
		}
		line, err := m.readBase()
		if err == io.EOF {
			return ioError(m.diffLine, io.ErrUnexpectedEOF, "list file ends before line %d", i)
		}
		if err != nil {
			return err
		}
		if m.f.CrossCheck && echo != line {
			logMismatch(i, echo, line)
			return newError(VersionMismatch, m.diffLine, "list line %d does not match the diff", i)
		}
		m.baseLine++
		m.res.Removed++
	}
	return nil
}

func (m *merge) separator(d Directive) error {
	if m.f.Separator == "" {
		return nil
	}
	line, err := m.mustReadDiff(d)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, m.f.Separator) {
		return newError(SyntaxError, m.diffLine, "missing %q separator in %s", m.f.Separator, d)
	}
	return nil
}

func (m *merge) insert(d Directive) error {
	for i := d.Result.Start; i <= d.Result.End; i++ {
		line, err := m.mustReadDiff(d)
		if err != nil {
			return err
		}
		if err := m.emit(m.f.content(line)); err != nil {
			return err
		}
		m.res.Added++
	}
	return nil
}

func (m *merge) trailing() error {
	if m.base == nil {
		return nil
	}
	for {
		line, err := m.readBase()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := m.emit(line); err != nil {
			return err
		}
		m.baseLine++
	}
}

// logMismatch shows how two lines that should be equal differ, with
// removed text in [-...-] and added text in {+...+}.
func logMismatch(n int, want, got string) {
	dmp := diffmatchpatch.New()
	var sb strings.Builder
	for _, d := range dmp.DiffMain(want, got, false) {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	logger.Debugf("list line %d differs from the diff: %s", n, sb.String())
}
