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
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "gopkg.in/check.v1"

	applydiffs "github.com/listsync/applydiffs/cmd/applydiffs"
	"github.com/listsync/applydiffs/testutil"
)

type fetchSuite struct {
	BaseSuite
}

var _ = Suite(&fetchSuite{})

func (s *fetchSuite) mirror(c *C) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/diffs/greek.list":
			io.WriteString(w, contextfulAB)
		case "/diffs/greek.diff":
			io.WriteString(w, strippedAB)
		default:
			http.NotFound(w, r)
		}
	}))
}

func (s *fetchSuite) TestFetch(c *C) {
	srv := s.mirror(c)
	defer srv.Close()

	code, err := applydiffs.RunArgs([]string{"fetch", "--mirror", srv.URL + "/diffs/", s.diffDir, "greek.list", "greek.diff"})
	c.Assert(err, IsNil)
	c.Check(code, Equals, 0)
	c.Check(filepath.Join(s.diffDir, "greek.list"), testutil.FileEquals, contextfulAB)
	c.Check(filepath.Join(s.diffDir, "greek.diff"), testutil.FileEquals, strippedAB)
	c.Check(s.Stdout(), Equals, "Fetched greek.list (180B)\nFetched greek.diff (167B)\n")
}

func (s *fetchSuite) TestFetchMissing(c *C) {
	srv := s.mirror(c)
	defer srv.Close()
	writeFile(c, s.stateDir, "applydiffs.conf", "[applydiffs]\nmirror = "+srv.URL+"/diffs\n")

	code, err := applydiffs.RunArgs([]string{"fetch", "--quiet", s.diffDir, "greek.list", "latin.list"})
	c.Assert(err, IsNil)
	c.Check(code, Equals, 10)
	c.Check(filepath.Join(s.diffDir, "greek.list"), testutil.FilePresent)
	c.Check(filepath.Join(s.diffDir, "latin.list"), testutil.FileAbsent)
	c.Check(s.Stdout(), Equals, "")
	c.Check(s.Stderr(), Matches, `cannot fetch latin.list: received an unexpected http response code \(404\) .*\n`)
}

func (s *fetchSuite) TestFetchNoMirror(c *C) {
	_, err := applydiffs.RunArgs([]string{"fetch", s.diffDir, "greek.list"})
	c.Check(err, ErrorMatches, "no mirror given, use --mirror or set one in the configuration")
}

func (s *fetchSuite) TestFetchNoDir(c *C) {
	code, err := applydiffs.RunArgs([]string{"fetch", "--mirror", "http://127.0.0.1:1/", filepath.Join(s.diffDir, "nope"), "greek.list"})
	c.Check(err, ErrorMatches, ".*nope is not a directory")
	c.Check(code, Equals, 20)
}
