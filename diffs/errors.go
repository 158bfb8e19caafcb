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
	"errors"
	"fmt"
)

type kindError Status

func (k kindError) Error() string {
	return Status(k).String()
}

// Sentinels for errors.Is against an *Error of the matching kind.
var (
	ErrChecksumMismatch error = kindError(ChecksumMismatch)
	ErrIO               error = kindError(IOError)
	ErrVersionMismatch  error = kindError(VersionMismatch)
	ErrSyntax           error = kindError(SyntaxError)
)

// Error describes why a diff could not be checked or applied.
type Error struct {
	Kind Status
	// Line is the 1-based diff line the problem was found on, or 0.
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && Status(k) == e.Kind
}

func newError(kind Status, line int, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, v...)}
}

func ioError(line int, err error, format string, v ...interface{}) *Error {
	return &Error{Kind: IOError, Line: line, Msg: fmt.Sprintf(format, v...), Err: err}
}

// StatusOf maps err to the status it stands for. A nil error is OK and
// any error that is not an *Error counts as an I/O failure.
func StatusOf(err error) Status {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IOError
}
