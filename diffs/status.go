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
	"fmt"
)

// Status is the terminal outcome of checking or patching one list file.
type Status int

const (
	// OK means the patch was applied and its checksum verified.
	OK Status = iota
	// New means there was no list file and the diff creates it.
	New
	// ChecksumMismatch means the merged output disagrees with the
	// checksum it declares.
	ChecksumMismatch
	// IOError means a read, write or open failed, or a stream was
	// truncated.
	IOError
	// VersionMismatch means the diff was made for another version of
	// the list file.
	VersionMismatch
	// SyntaxError means the diff is malformed.
	SyntaxError
	// Unknown means the file was left alone for an external reason,
	// such as being compressed.
	Unknown
	// NoChecksum means the list file has no checksum line.
	NoChecksum
)

var statusLabels = map[Status]string{
	OK:               "OK",
	New:              "New File",
	ChecksumMismatch: "CRC-Error",
	IOError:          "IO-Error",
	VersionMismatch:  "Wrong Diffs",
	SyntaxError:      "Syntax Error",
	Unknown:          "N/A",
	NoChecksum:       "CRC n/a",
}

var statusNames = map[Status]string{
	OK:               "ok",
	New:              "new",
	ChecksumMismatch: "checksum-mismatch",
	IOError:          "io-error",
	VersionMismatch:  "version-mismatch",
	SyntaxError:      "syntax-error",
	Unknown:          "unknown",
	NoChecksum:       "no-checksum",
}

// String returns the label used in reports.
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Name returns a stable lowercase identifier, used for serialization.
func (s Status) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status-%d", int(s))
}

// ParseStatus is the inverse of Name.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return Unknown, fmt.Errorf("cannot parse status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Warning reports whether the status should make a run finish with a
// warning.
func (s Status) Warning() bool {
	switch s {
	case ChecksumMismatch, IOError, VersionMismatch, SyntaxError:
		return true
	}
	return false
}

// Applicable reports whether a file in this state may go on to the
// apply phase.
func (s Status) Applicable() bool {
	return s == OK || s == New || s == Unknown
}
