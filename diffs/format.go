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

// NewFileSentinel is the first line of a stripped diff that creates
// a list file from scratch.
const NewFileSentinel = "Apply on: ---"

// Format describes one diff dialect. Both dialects use the same hunk
// headers and are applied by the same engine. They differ in how much
// of the replaced content the diff repeats.
type Format struct {
	Name string

	// Header is the literal prefix of a header line that precedes
	// the first directive. The engine consumes that line and checks
	// it against the list file. Empty means there is no header.
	Header string
	// Prefix is the number of marker bytes in front of every content
	// line, such as "> " or "< ".
	Prefix int
	// CrossCheck is set when removed lines are echoed in the diff and
	// must equal the list file lines they remove.
	CrossCheck bool
	// Separator starts the line between the removed and added halves
	// of a change. Empty means there is none.
	Separator string
	// RemoveMarker starts every echoed removed line. A diff holding
	// such a line cannot create a new list file.
	RemoveMarker byte

	// MatchLine is the 1-based diff line that repeats the first line
	// of the list file the diff was made against, with MatchStrip
	// bytes in front of it.
	MatchLine  int
	MatchStrip int
}

var (
	// Contextful is the format written by a plain diff run: removed
	// lines are echoed with "< ", added lines carry "> " and changes
	// are split by "---".
	Contextful = &Format{
		Name:         "contextful",
		Prefix:       2,
		CrossCheck:   true,
		Separator:    "---",
		RemoveMarker: '<',
		MatchLine:    2,
		MatchStrip:   2,
	}

	// Stripped diffs start with an "Apply on: " line naming the list
	// version, carry added lines without markers and omit removed
	// lines entirely.
	Stripped = &Format{
		Name:       "stripped",
		Header:     "Apply on: ",
		MatchLine:  1,
		MatchStrip: len("Apply on: "),
	}
)

func (f *Format) String() string {
	return f.Name
}

// FormatByName returns the format with the given name, or nil.
func FormatByName(name string) *Format {
	switch name {
	case Contextful.Name:
		return Contextful
	case Stripped.Name:
		return Stripped
	}
	return nil
}

func strip(line string, n int) string {
	if n > len(line) {
		n = len(line)
	}
	return line[n:]
}

// content returns the payload of a content line.
func (f *Format) content(line string) string {
	return strip(line, f.Prefix)
}

// reference returns the list file line echoed by the match line.
func (f *Format) reference(line string) string {
	return strip(line, f.MatchStrip)
}
