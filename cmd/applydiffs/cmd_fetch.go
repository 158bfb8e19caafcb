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

package main

import (
	"context"
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/listsync/applydiffs/fetch"
	"github.com/listsync/applydiffs/httputil"
	"github.com/listsync/applydiffs/osutil"
	"github.com/listsync/applydiffs/strutil"
)

type cmdFetch struct {
	Mirror    string `long:"mirror" value-name:"<url>"`
	RateLimit int64  `long:"rate-limit" value-name:"<bytes/s>"`
	Quiet     bool   `long:"quiet"`

	Positional struct {
		DiffDir string
		Names   []string `required:"1"`
	} `positional-args:"true" required:"true"`
}

var shortFetchHelp = "Download diffs from a mirror"
var longFetchHelp = `
The fetch command downloads the named diffs from a mirror into
<diffdir>, ready for apply. Interrupted downloads are resumed and
failed ones retried a few times.
`

func init() {
	addCommand("fetch", shortFetchHelp, longFetchHelp, func() flags.Commander {
		return &cmdFetch{}
	}, map[string]string{
		"mirror":     "Base URL of the mirror",
		"rate-limit": "Limit the download speed to this many bytes per second",
		"quiet":      "Only print errors",
	}, []argDesc{{
		name: "<diffdir>",
		desc: "Directory the diffs are saved in",
	}, {
		name: "<name>",
		desc: "File name of a diff on the mirror",
	}})
}


func (x *cmdFetch) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if x.Mirror == "" {
		x.Mirror = cfg.Mirror
	}
	if x.RateLimit == 0 {
		x.RateLimit = cfg.RateLimit
	}
	setupLogging(x.Quiet)

	if x.Mirror == "" {
		return fmt.Errorf("no mirror given, use --mirror or set one in the configuration")
	}
	if x.RateLimit < 0 {
		return fmt.Errorf("cannot use a negative rate limit")
	}
	dir := x.Positional.DiffDir
	if !osutil.IsDirectory(dir) {
		return &fatalError{fmt.Errorf("%s is not a directory", dir)}
	}

	f := &fetch.Fetcher{
		Mirror:    x.Mirror,
		Client:    httputil.NewHTTPClient(nil),
		RateLimit: x.RateLimit,
	}
	var results []*fetch.Result
	err = runUntilSignal(func(ctx context.Context) error {
		results = f.FetchAll(ctx, x.Positional.Names, dir)
		return ctx.Err()
	})
	if err != nil {
		return &fatalError{err}
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(Stderr, "cannot fetch %s: %v\n", res.Name, res.Err)
			continue
		}
		if !x.Quiet {
			fmt.Fprintf(Stdout, "Fetched %s (%s)\n", res.Name, strutil.SizeToStr(res.Size))
		}
	}
	if failed > 0 {
		panic(&exitStatus{10})
	}
	return nil
}
