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

package main_test

import (
	"path/filepath"

	. "gopkg.in/check.v1"

	applydiffs "github.com/listsync/applydiffs/cmd/applydiffs"
	"github.com/listsync/applydiffs/testutil"
)

type checkSuite struct {
	BaseSuite
}

var _ = Suite(&checkSuite{})

const checkTableHeader = `
CheckCRC Statistics - Sun Mar  1 12:00:00 2026

Status   Filesize  Filedate                  Listfile
------------------------------------------------------------
`

func (s *checkSuite) TestCheckDir(c *C) {
	writeFile(c, s.listDir, "greek.list", greekB)
	writeFile(c, s.listDir, "created.list", created)

	code, err := applydiffs.RunArgs([]string{"check", s.listDir})
	c.Assert(err, IsNil)
	c.Check(code, Equals, 0)
	c.Check(s.Stdout(), Equals, `Check CRC of File created.list - CRC OK
Check CRC of File greek.list - CRC OK
`+checkTableHeader+
		"CRC OK         32                            created.list\n"+
		"CRC OK         97  Fri Oct 04 01:00:00 1996  greek.list\n")
}

func (s *checkSuite) TestCheckDamaged(c *C) {
	damaged := greekB[:len(greekB)-len("epsilon\n")]
	list := writeFile(c, s.listDir, "greek.list", damaged)

	code, err := applydiffs.RunArgs([]string{"check", "--quiet", "--no-stats", list})
	c.Assert(err, IsNil)
	c.Check(code, Equals, 10)
	c.Check(s.Stdout(), Equals, "\nWARNING: CheckCRC found damaged list files.\n")
}

func (s *checkSuite) TestCheckLogfileAndFilter(c *C) {
	writeFile(c, s.listDir, "greek.list", greekB)
	writeFile(c, s.listDir, "created.list", created)
	logfile := filepath.Join(s.stateDir, "check.log")

	code, err := applydiffs.RunArgs([]string{"check", "--quiet", "--no-stats", "--include", "gr*", "--logfile", logfile, s.listDir})
	c.Assert(err, IsNil)
	c.Check(code, Equals, 0)
	c.Check(s.Stdout(), Equals, "")
	c.Check(logfile, testutil.FileEquals, "\n"+checkTableHeader[1:]+
		"CRC OK         97  Fri Oct 04 01:00:00 1996  greek.list\n")
}

func (s *checkSuite) TestCheckMissing(c *C) {
	code, err := applydiffs.RunArgs([]string{"check", filepath.Join(s.listDir, "nope.list")})
	c.Check(err, ErrorMatches, ".*nope.list: no such file or directory")
	c.Check(code, Equals, 20)
}
