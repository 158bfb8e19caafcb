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
	. "gopkg.in/check.v1"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/testutil"
)

type directiveSuite struct{}

var _ = Suite(&directiveSuite{})

func (s *directiveSuite) TestParse(c *C) {
	for _, t := range []struct {
		in  string
		out diffs.Directive
	}{
		{"8,10c8,11", diffs.Directive{Cmd: diffs.CmdChange, Base: diffs.Range{8, 10}, Result: diffs.Range{8, 11}}},
		{"13d13", diffs.Directive{Cmd: diffs.CmdDelete, Base: diffs.Range{13, 13}, Result: diffs.Range{13, 13}}},
		{"14a15", diffs.Directive{Cmd: diffs.CmdAdd, Base: diffs.Range{14, 14}, Result: diffs.Range{15, 15}}},
		{"0a1,3", diffs.Directive{Cmd: diffs.CmdAdd, Base: diffs.Range{0, 0}, Result: diffs.Range{1, 3}}},
		{"5,7d4", diffs.Directive{Cmd: diffs.CmdDelete, Base: diffs.Range{5, 7}, Result: diffs.Range{4, 4}}},
	} {
		d, err := diffs.ParseDirective(t.in)
		c.Assert(err, IsNil, Commentf(t.in))
		c.Check(d, Equals, t.out, Commentf(t.in))
		c.Check(d.String(), Equals, t.in)
	}
}

func (s *directiveSuite) TestLeadingInsert(c *C) {
	for in, leading := range map[string]bool{
		"0a1,3": true,
		"0a1":   true,
		"14a15": false,
		"0d0":   false,
		"1a2":   false,
	} {
		d, err := diffs.ParseDirective(in)
		c.Assert(err, IsNil)
		c.Check(d.LeadingInsert(), Equals, leading, Commentf(in))
	}
}

func (s *directiveSuite) TestUnknownCommandKept(c *C) {
	d, err := diffs.ParseDirective("3x4")
	c.Assert(err, IsNil)
	c.Check(d.Cmd, Equals, diffs.Command('x'))
	c.Check(d.Base, Equals, diffs.Range{3, 3})
	c.Check(d.Result, Equals, diffs.Range{4, 4})
}

func (s *directiveSuite) TestNoOrderValidation(c *C) {
	d, err := diffs.ParseDirective("10,2c7,1")
	c.Assert(err, IsNil)
	c.Check(d.Base, Equals, diffs.Range{10, 2})
	c.Check(d.Result, Equals, diffs.Range{7, 1})
}

func (s *directiveSuite) TestParseErrors(c *C) {
	for _, t := range []struct {
		in  string
		err string
	}{
		{"", `cannot parse directive "": missing line number`},
		{"12", `cannot parse directive "12": missing command`},
		{"12a", `cannot parse directive "12a": missing line number`},
		{"a12", `cannot parse directive "a12": expected line number at "a12"`},
		{"1,a2", `cannot parse directive "1,a2": expected line number at "a2"`},
		{"< alpha", `cannot parse directive "< alpha": expected line number at "< alpha"`},
		{"99999999999999999999a1", `cannot parse directive "99999999999999999999a1": line number 99999999999999999999 out of range`},
	} {
		_, err := diffs.ParseDirective(t.in)
		c.Check(err, ErrorMatches, t.err, Commentf("%q", t.in))
		c.Check(err, testutil.ErrorIs, diffs.ErrSyntax)
		c.Check(diffs.StatusOf(err), Equals, diffs.SyntaxError)
	}
}

func (s *directiveSuite) TestTrailingBytesIgnored(c *C) {
	for _, t := range []struct {
		in  string
		out diffs.Directive
	}{
		{"8,10c8,11\r", diffs.Directive{Cmd: diffs.CmdChange, Base: diffs.Range{8, 10}, Result: diffs.Range{8, 11}}},
		{"0a1\r", diffs.Directive{Cmd: diffs.CmdAdd, Base: diffs.Range{0, 0}, Result: diffs.Range{1, 1}}},
		{"1a2junk", diffs.Directive{Cmd: diffs.CmdAdd, Base: diffs.Range{1, 1}, Result: diffs.Range{2, 2}}},
	} {
		d, err := diffs.ParseDirective(t.in)
		c.Assert(err, IsNil, Commentf("%q", t.in))
		c.Check(d, Equals, t.out, Commentf("%q", t.in))
	}
}

func (s *directiveSuite) TestRange(c *C) {
	c.Check(diffs.Range{3, 3}.Len(), Equals, 1)
	c.Check(diffs.Range{3, 7}.Len(), Equals, 5)
	c.Check(diffs.Range{3, 7}.String(), Equals, "3,7")
	c.Check(diffs.Range{3, 3}.String(), Equals, "3")
}
