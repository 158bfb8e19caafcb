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
	"errors"
	"fmt"
	"io"

	. "gopkg.in/check.v1"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/testutil"
)

type statusSuite struct{}

var _ = Suite(&statusSuite{})

func (s *statusSuite) TestLabels(c *C) {
	for st, label := range map[diffs.Status]string{
		diffs.OK:               "OK",
		diffs.New:              "New File",
		diffs.ChecksumMismatch: "CRC-Error",
		diffs.IOError:          "IO-Error",
		diffs.VersionMismatch:  "Wrong Diffs",
		diffs.SyntaxError:      "Syntax Error",
		diffs.Unknown:          "N/A",
		diffs.NoChecksum:       "CRC n/a",
		diffs.Status(42):       "Status(42)",
	} {
		c.Check(st.String(), Equals, label)
	}
}

func (s *statusSuite) TestWarning(c *C) {
	for _, st := range []diffs.Status{diffs.OK, diffs.New, diffs.Unknown, diffs.NoChecksum} {
		c.Check(st.Warning(), Equals, false, Commentf("%s", st))
	}
	for _, st := range []diffs.Status{diffs.ChecksumMismatch, diffs.IOError, diffs.VersionMismatch, diffs.SyntaxError} {
		c.Check(st.Warning(), Equals, true, Commentf("%s", st))
	}
}

func (s *statusSuite) TestApplicable(c *C) {
	c.Check(diffs.OK.Applicable(), Equals, true)
	c.Check(diffs.New.Applicable(), Equals, true)
	c.Check(diffs.Unknown.Applicable(), Equals, true)
	c.Check(diffs.NoChecksum.Applicable(), Equals, false)
	c.Check(diffs.VersionMismatch.Applicable(), Equals, false)
}

func (s *statusSuite) TestText(c *C) {
	for _, st := range []diffs.Status{diffs.OK, diffs.New, diffs.ChecksumMismatch, diffs.IOError,
		diffs.VersionMismatch, diffs.SyntaxError, diffs.Unknown, diffs.NoChecksum} {
		text, err := st.MarshalText()
		c.Assert(err, IsNil)
		var back diffs.Status
		c.Assert(back.UnmarshalText(text), IsNil)
		c.Check(back, Equals, st)
	}
	c.Check(diffs.VersionMismatch.Name(), Equals, "version-mismatch")

	_, err := diffs.ParseStatus("potato")
	c.Check(err, ErrorMatches, `cannot parse status "potato"`)
}

func (s *statusSuite) TestError(c *C) {
	err := &diffs.Error{Kind: diffs.VersionMismatch, Line: 3, Msg: "list line 2 does not match the diff"}
	c.Check(err, ErrorMatches, "line 3: list line 2 does not match the diff")
	c.Check(err, testutil.ErrorIs, diffs.ErrVersionMismatch)
	c.Check(errors.Is(err, diffs.ErrSyntax), Equals, false)

	wrapped := fmt.Errorf("greek.list: %w", err)
	c.Check(wrapped, testutil.ErrorIs, diffs.ErrVersionMismatch)
	c.Check(diffs.StatusOf(wrapped), Equals, diffs.VersionMismatch)

	ioErr := &diffs.Error{Kind: diffs.IOError, Msg: "diff ends inside 3c3", Err: io.ErrUnexpectedEOF}
	c.Check(ioErr, ErrorMatches, "diff ends inside 3c3: unexpected EOF")
	c.Check(ioErr, testutil.ErrorIs, io.ErrUnexpectedEOF)
	c.Check(ioErr, testutil.ErrorIs, diffs.ErrIO)

	c.Check(diffs.StatusOf(nil), Equals, diffs.OK)
	c.Check(diffs.StatusOf(errors.New("other")), Equals, diffs.IOError)
	c.Check(diffs.ErrChecksumMismatch, ErrorMatches, "CRC-Error")
}
