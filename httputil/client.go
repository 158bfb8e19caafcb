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
// Package httputil builds the HTTP clients used to talk to diff
// mirrors and decides which failures are worth retrying.
package httputil

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"strconv"
	"time"

	"github.com/listsync/applydiffs/logger"
)

// DebugEnv is a bit mask selecting what LoggedTransport writes to the
// debug log: 1 for requests, 2 for responses, 4 to include bodies.
const DebugEnv = "APPLYDIFFS_DEBUG_HTTP"

const (
	logRequests = 1 << iota
	logResponses
	logBodies
)

// UserAgent is set on requests that carry none.
var UserAgent = "applydiffs"

// LoggedTransport wraps Transport, adding the User-Agent and dumping
// round trips as selected by DebugEnv.
type LoggedTransport struct {
	Transport http.RoundTripper
	// MayLogBody permits body dumps when DebugEnv asks for them.
	MayLogBody bool
}

func (tr *LoggedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.UserAgent() == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}

	mask, _ := strconv.Atoi(os.Getenv(DebugEnv))
	body := tr.MayLogBody && mask&logBodies != 0
	if mask&logRequests != 0 {
		dump, _ := httputil.DumpRequestOut(req, body)
		logger.Debugf("> %q", dump)
	}
	rsp, err := tr.Transport.RoundTrip(req)
	if err == nil && mask&logResponses != 0 {
		dump, _ := httputil.DumpResponse(rsp, body)
		logger.Debugf("< %q", dump)
	}
	return rsp, err
}

// ClientOptions tune the clients made by NewHTTPClient.
type ClientOptions struct {
	// Timeout bounds a whole request including reading the body.
	// Zero means no limit.
	Timeout time.Duration
	// MayLogBody is passed on to the LoggedTransport.
	MayLogBody bool
	// MaxRedirects defaults to 10.
	MaxRedirects int
}

// NewHTTPClient returns a client going through a LoggedTransport. A
// Range header survives redirects so resumed downloads stay resumed.
func NewHTTPClient(opts *ClientOptions) *http.Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	return &http.Client{
		Transport: &LoggedTransport{
			Transport:  http.DefaultTransport.(*http.Transport).Clone(),
			MayLogBody: opts.MayLogBody,
		},
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if r := via[0].Header.Get("Range"); r != "" {
				req.Header.Set("Range", r)
			}
			return nil
		},
	}
}
