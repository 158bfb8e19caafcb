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

package httputil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"gopkg.in/retry.v1"

	"github.com/listsync/applydiffs/logger"
)

// MaybeLogRetryAttempt logs every attempt after the first one.
func MaybeLogRetryAttempt(url string, attempt *retry.Attempt, startTime time.Time) {
	if attempt.Count() > 1 {
		delta := time.Since(startTime) / time.Millisecond
		logger.Debugf("Retrying %s, attempt %d, elapsed time=%v ms", url, attempt.Count(), delta)
	}
}

func isNetworkDown(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var errno syscall.Errno
	if errors.As(opErr.Err, &errno) {
		return errno == syscall.ENETUNREACH || errno == syscall.EHOSTUNREACH
	}
	return false
}

// ShouldRetryError reports whether err is a transient failure of the
// network or the server.
func ShouldRetryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if isNetworkDown(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return false
}

// ShouldRetryAttempt reports whether another attempt should follow
// one that failed with err.
func ShouldRetryAttempt(attempt *retry.Attempt, err error) bool {
	return attempt.More() && ShouldRetryError(err)
}

// ShouldRetryHttpResponse reports whether another attempt should
// follow one that got resp.
func ShouldRetryHttpResponse(attempt *retry.Attempt, resp *http.Response) bool {
	if !attempt.More() {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}
