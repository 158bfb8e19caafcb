// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2016-2017 Canonical Ltd
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

package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	. "gopkg.in/check.v1"
	"gopkg.in/retry.v1"

	"github.com/listsync/applydiffs/httputil"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/testutil"
)

type retrySuite struct{}

var _ = Suite(&retrySuite{})

var testRetryStrategy = retry.LimitCount(2, retry.LimitTime(1*time.Second,
	retry.Exponential{
		Initial: 1 * time.Millisecond,
		Factor:  1,
	},
))

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (s *retrySuite) TestShouldRetryError(c *C) {
	for _, t := range []struct {
		err   error
		retry bool
	}{
		{nil, false},
		{io.EOF, true},
		{io.ErrUnexpectedEOF, true},
		{fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), true},
		{&net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, true},
		{&net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, true},
		{&net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ENETUNREACH)}, true},
		{timeoutError{}, true},
		{&net.DNSError{Err: "no such host", Name: "mirror.example", IsNotFound: true}, false},
		{&net.DNSError{Err: "server misbehaving", Name: "mirror.example", IsTemporary: true}, true},
		{context.Canceled, false},
		{errors.New("permission denied"), false},
	} {
		c.Check(httputil.ShouldRetryError(t.err), Equals, t.retry, Commentf("%v", t.err))
	}
}

func (s *retrySuite) TestShouldRetryAttempt(c *C) {
	attempt := retry.Start(testRetryStrategy, nil)
	c.Assert(attempt.Next(), Equals, true)
	c.Check(httputil.ShouldRetryAttempt(attempt, io.EOF), Equals, true)
	c.Check(httputil.ShouldRetryAttempt(attempt, errors.New("nope")), Equals, false)

	c.Assert(attempt.Next(), Equals, true)
	c.Check(httputil.ShouldRetryAttempt(attempt, io.EOF), Equals, false)
}

func (s *retrySuite) TestShouldRetryHttpResponse(c *C) {
	attempt := retry.Start(testRetryStrategy, nil)
	c.Assert(attempt.Next(), Equals, true)
	for code, want := range map[int]bool{
		200: false,
		404: false,
		429: true,
		500: true,
		503: true,
	} {
		c.Check(httputil.ShouldRetryHttpResponse(attempt, &http.Response{StatusCode: code}), Equals, want, Commentf("%d", code))
	}

	c.Assert(attempt.Next(), Equals, true)
	c.Check(httputil.ShouldRetryHttpResponse(attempt, &http.Response{StatusCode: 500}), Equals, false)
}

func (s *retrySuite) TestMaybeLogRetryAttempt(c *C) {
	buf, restore := logger.MockDebugLogger()
	defer restore()

	attempt := retry.Start(testRetryStrategy, nil)
	attempt.Next()
	httputil.MaybeLogRetryAttempt("http://mirror/movies.list", attempt, time.Now())
	c.Check(buf.String(), Equals, "")

	attempt.Next()
	httputil.MaybeLogRetryAttempt("http://mirror/movies.list", attempt, time.Now())
	c.Check(buf.String(), testutil.Contains, "Retrying http://mirror/movies.list, attempt 2")
}
