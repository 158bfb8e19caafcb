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

// Package report renders the outcome of a batch or a checksum run as
// a statistics table, and as YAML for other tools.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/linebuf"
	"github.com/listsync/applydiffs/strutil"
)

// TimeFormat matches what ctime(3) prints.
const TimeFormat = "Mon Jan _2 15:04:05 2006"

var rule = strings.Repeat("-", 60)

// Table writes statistics tables.
type Table struct {
	// Color highlights the status column.
	Color bool
	// HumanSizes prints file sizes with a unit suffix.
	HumanSizes bool
	// NameWidth truncates list file names wider than this many
	// columns, if positive.
	NameWidth int
}

func (t *Table) paint(st diffs.Status, s string) string {
	if !t.Color {
		return s
	}
	var c *color.Color
	switch {
	case st == diffs.OK || st == diffs.New:
		c = color.New(color.FgGreen)
	case st.Warning():
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgYellow)
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (t *Table) name(name string) string {
	if t.NameWidth > 0 {
		return runewidth.Truncate(name, t.NameWidth, "…")
	}
	return name
}

func header(w io.Writer, title string, now time.Time) {
	if now.IsZero() {
		fmt.Fprintf(w, "%s Statistics\n", title)
		return
	}
	fmt.Fprintf(w, "%s Statistics - %s\n", title, now.Format(TimeFormat))
}

// WriteApply writes the per file outcome of a batch.
func (t *Table) WriteApply(w io.Writer, recs []*diffs.Record, now time.Time) error {
	ew := &errWriter{w: w}
	header(ew, "ApplyDiff", now)
	fmt.Fprintf(ew, "\n            Lines    Lines\n")
	fmt.Fprintf(ew, "Status      Removed  Added Listfile\n")
	fmt.Fprintln(ew, rule)
	for _, rec := range recs {
		label := runewidth.FillRight(rec.Status.String(), 12)
		fmt.Fprintf(ew, "%s %6d %6d %s\n", t.paint(rec.Status, label), rec.Removed, rec.Added, t.name(rec.Name()))
	}
	return ew.err
}

// CheckEntry is one verified list file.
type CheckEntry struct {
	Name string
	Info *diffs.CRCInfo
}

// CheckLabel is the status column of a check report.
func CheckLabel(st diffs.Status) string {
	switch st {
	case diffs.OK:
		return "CRC OK"
	case diffs.ChecksumMismatch:
		return "CRC-Error"
	}
	return st.String()
}

// WriteCheck writes the outcome of verifying list files.
func (t *Table) WriteCheck(w io.Writer, entries []CheckEntry, now time.Time) error {
	ew := &errWriter{w: w}
	header(ew, "CheckCRC", now)
	fmt.Fprintf(ew, "\nStatus   Filesize  Filedate                  Listfile\n")
	fmt.Fprintln(ew, rule)
	for _, e := range entries {
		label := runewidth.FillRight(CheckLabel(e.Info.Status), 9)
		size := fmt.Sprint(e.Info.Size)
		if t.HumanSizes {
			size = strutil.SizeToStr(e.Info.Size)
		}
		date := runewidth.FillRight(e.Info.Date, 24)
		fmt.Fprintf(ew, "%s%8s  %s  %s\n", t.paint(e.Info.Status, label), size, date, t.name(e.Name))
	}
	return ew.err
}

// AppendLog appends whatever write produces to the log file at path,
// separated from earlier runs by an empty line.
func AppendLog(path string, write func(w io.Writer) error) error {
	b, err := linebuf.Open(path, linebuf.ModeAppend, 0)
	if err != nil {
		return err
	}
	if err := b.WriteLine(""); err != nil {
		b.Close()
		return err
	}
	if err := write(b); err != nil {
		b.Close()
		return err
	}
	return b.Close()
}

// errWriter remembers the first write error and drops everything
// after it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}
