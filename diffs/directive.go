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
	"strconv"

	"github.com/listsync/applydiffs/logger"
)

// Command is the edit letter of a directive.
type Command byte

const (
	CmdAdd    Command = 'a'
	CmdDelete Command = 'd'
	CmdChange Command = 'c'
)

func (c Command) String() string {
	return string(rune(c))
}

// Range is an inclusive, 1-based span of line numbers.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, r.End)
}

// Len is the number of lines in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Directive is one hunk header such as "8,10c8,11". Base refers to
// the numbering of the list file being patched and Result to the
// numbering of the output.
type Directive struct {
	Cmd    Command
	Base   Range
	Result Range
}

func (d Directive) String() string {
	return d.Base.String() + d.Cmd.String() + d.Result.String()
}

// LeadingInsert reports whether d inserts lines before the first line
// of the list file.
func (d Directive) LeadingInsert() bool {
	return d.Base.Start == 0 && d.Cmd == CmdAdd
}

// ParseDirective parses a hunk header of the form
// <base-range><command><result-range>, where a range is N or N,M.
// The command letter is kept as is, even if it is not one of a, d
// or c, and range ordering is not validated here. Anything after
// the result range is ignored.
func ParseDirective(line string) (Directive, error) {
	var d Directive
	p := directiveParser{s: line}

	base, err := p.rng()
	if err != nil {
		return d, err
	}
	if p.eof() {
		return d, p.errorf("missing command")
	}
	d.Cmd = Command(p.s[p.pos])
	p.pos++
	res, err := p.rng()
	if err != nil {
		return d, err
	}
	if !p.eof() {
		// a trailing "\r" from CRLF diffs and anything else after
		// the result range is ignored
		logger.Debugf("ignoring %q after directive %q", p.s[p.pos:], p.s[:p.pos])
	}
	d.Base = base
	d.Result = res
	return d, nil
}

type directiveParser struct {
	s   string
	pos int
}

func (p *directiveParser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *directiveParser) errorf(format string, v ...interface{}) error {
	return &Error{
		Kind: SyntaxError,
		Msg:  fmt.Sprintf("cannot parse directive %q: ", p.s) + fmt.Sprintf(format, v...),
	}
}

func (p *directiveParser) num() (int, error) {
	start := p.pos
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		if p.eof() {
			return 0, p.errorf("missing line number")
		}
		return 0, p.errorf("expected line number at %q", p.s[p.pos:])
	}
	n, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, p.errorf("line number %s out of range", p.s[start:p.pos])
	}
	return n, nil
}

func (p *directiveParser) rng() (Range, error) {
	start, err := p.num()
	if err != nil {
		return Range{}, err
	}
	r := Range{Start: start, End: start}
	if !p.eof() && p.s[p.pos] == ',' {
		p.pos++
		if r.End, err = p.num(); err != nil {
			return Range{}, err
		}
	}
	return r, nil
}
