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

// Package fetch downloads diff files from a mirror into the diff
// directory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/ratelimit"
	"golang.org/x/xerrors"
	"gopkg.in/retry.v1"

	"github.com/listsync/applydiffs/httputil"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
	"github.com/listsync/applydiffs/strutil"
)

var fetchRetryStrategy = retry.LimitCount(5, retry.LimitTime(90*time.Second,
	retry.Exponential{
		Initial: 500 * time.Millisecond,
		Factor:  2.5,
	},
))

var ratelimitReader = ratelimit.Reader

// DownloadError is returned when the mirror answers with an
// unexpected status code.
type DownloadError struct {
	Code int
	URL  *url.URL
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("received an unexpected http response code (%v) when trying to download %s", e.Code, e.URL)
}

// Fetcher downloads files from a mirror.
type Fetcher struct {
	// Mirror is the base URL the file names are resolved against.
	Mirror string
	// Client is used for all requests, httputil.NewHTTPClient(nil)
	// if nil.
	Client *http.Client
	// RateLimit caps the download speed in bytes per second, if
	// positive.
	RateLimit int64
	// Progress, if set, is called as data arrives. total is -1 when
	// the mirror does not announce a size.
	Progress func(name string, done, total int64)
}

// Result is the outcome of fetching one file.
type Result struct {
	Name string
	Path string
	Size int64
	Err  error
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

func (f *Fetcher) url(name string) (*url.URL, error) {
	base, err := url.Parse(f.Mirror)
	if err != nil {
		return nil, xerrors.Errorf("cannot parse mirror: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("cannot use mirror %q: not an absolute URL", f.Mirror)
	}
	return base.JoinPath(name), nil
}

// Fetch downloads name from the mirror to dest. dest only appears
// once the download is complete.
func (f *Fetcher) Fetch(ctx context.Context, name, dest string) (size int64, err error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	u, err := f.url(name)
	if err != nil {
		return 0, err
	}
	cli := f.Client
	if cli == nil {
		cli = httputil.NewHTTPClient(nil)
	}

	aw, err := osutil.NewAtomicFile(dest, 0644)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			aw.Cancel()
		}
	}()

	var resume int64
	startTime := time.Now()
	for attempt := retry.Start(fetchRetryStrategy, nil); attempt.Next(); {
		httputil.MaybeLogRetryAttempt(u.String(), attempt, startTime)
		if err := ctx.Err(); err != nil {
			return 0, xerrors.Errorf("download of %s cancelled: %w", name, err)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		if err != nil {
			return 0, err
		}
		if resume > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resume))
		}
		resp, err := cli.Do(req)
		if err != nil {
			if httputil.ShouldRetryAttempt(attempt, err) {
				continue
			}
			return 0, err
		}
		if httputil.ShouldRetryHttpResponse(attempt, resp) {
			resp.Body.Close()
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if resume > 0 {
				logger.Debugf("mirror does not support resume, restarting %s", name)
			}
			if err := restart(aw); err != nil {
				resp.Body.Close()
				return 0, err
			}
			resume = 0
		case resp.StatusCode == http.StatusPartialContent && resume > 0:
		default:
			resp.Body.Close()
			return 0, &DownloadError{Code: resp.StatusCode, URL: u}
		}

		total := int64(-1)
		if resp.ContentLength >= 0 {
			total = resume + resp.ContentLength
		}
		var body io.Reader = resp.Body
		if f.RateLimit > 0 {
			bucket := ratelimit.NewBucketWithRate(float64(f.RateLimit), 2*f.RateLimit)
			body = ratelimitReader(resp.Body, bucket)
		}
		n, err := io.Copy(&progressWriter{w: aw, name: name, done: resume, total: total, report: f.Progress}, body)
		resp.Body.Close()
		resume += n
		if err != nil {
			if httputil.ShouldRetryAttempt(attempt, err) {
				continue
			}
			return 0, xerrors.Errorf("cannot download %s: %w", name, err)
		}
		if total >= 0 && resume != total {
			if attempt.More() {
				continue
			}
			return 0, xerrors.Errorf("cannot download %s: %w", name, io.ErrUnexpectedEOF)
		}
		if err := aw.Finalize(); err != nil {
			return 0, err
		}
		logger.Debugf("Downloaded %s in %.03fs (%s).", name, time.Since(startTime).Seconds(), strutil.RateToStr(resume, time.Since(startTime)))
		return resume, nil
	}
	return 0, xerrors.Errorf("cannot download %s: giving up after retries", name)
}

func restart(aw *osutil.AtomicFile) error {
	if err := aw.Truncate(0); err != nil {
		return err
	}
	_, err := aw.Seek(0, io.SeekStart)
	return err
}

// FetchAll downloads every name into dir, one after the other. It
// stops early only when ctx is done, in which case the remaining
// results carry the context error.
func (f *Fetcher) FetchAll(ctx context.Context, names []string, dir string) []*Result {
	results := make([]*Result, 0, len(names))
	for _, name := range names {
		res := &Result{Name: name, Path: filepath.Join(dir, name)}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Size, res.Err = f.Fetch(ctx, name, res.Path)
		}
		if res.Err != nil {
			logger.Noticef("cannot fetch %s: %v", name, res.Err)
		}
		results = append(results, res)
	}
	return results
}

type progressWriter struct {
	w      io.Writer
	name   string
	done   int64
	total  int64
	report func(name string, done, total int64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.done += int64(n)
	if pw.report != nil && n > 0 {
		pw.report(pw.name, pw.done, pw.total)
	}
	return n, err
}
