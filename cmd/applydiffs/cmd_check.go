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
	"io"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"golang.org/x/xerrors"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/report"
	"github.com/listsync/applydiffs/scan"
)

const checkWarning = "WARNING: CheckCRC found damaged list files."

type cmdCheck struct {
	outputMixin
	Human bool `long:"human"`

	Positional struct {
		Path string
	} `positional-args:"true" required:"true"`
}

var shortCheckHelp = "Verify the checksum of list files"
var longCheckHelp = `
The check command verifies list files against the checksum line they
start with. Given a directory it checks every .list file in it.

The exit status is 10 when a list file is damaged or unreadable.
`

func init() {
	addCommand("check", shortCheckHelp, longCheckHelp, func() flags.Commander {
		return &cmdCheck{}
	}, outputDescs.also(map[string]string{
		"human": "Print file sizes with a unit",
	}), []argDesc{{
		name: "<list-or-dir>",
		desc: "A list file or a directory of list files",
	}})
}

func (x *cmdCheck) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	x.merge(cfg)
	setupLogging(x.Quiet)

	lists, err := scan.Lists(x.Positional.Path, x.filter())
	if err != nil {
		return &fatalError{err}
	}

	checker := &diffs.Checker{Capacity: cfg.BufferSize}
	var p *progress
	if !x.Quiet {
		p = &progress{w: Stdout, tty: isTTY}
		checker.Progress = p.percent
	}
	entries := make([]report.CheckEntry, 0, len(lists))
	result := diffs.ResultOK
	err = runUntilSignal(func(ctx context.Context) error {
		for _, list := range lists {
			name := filepath.Base(list)
			if err := ctx.Err(); err != nil {
				return xerrors.Errorf("check stopped before %s: %w", name, err)
			}
			if p != nil {
				p.begin("Check CRC of File %s", name)
			}
			info, err := checker.Check(list)
			if err != nil {
				logger.Noticef("%s: %v", name, err)
			}
			if p != nil {
				p.end(report.CheckLabel(info.Status))
			}
			if info.Status == diffs.ChecksumMismatch || info.Status == diffs.IOError {
				result = diffs.ResultWarning
			}
			entries = append(entries, report.CheckEntry{Name: name, Info: info})
		}
		return nil
	})
	if err != nil {
		return &fatalError{err}
	}

	now := timeNow()
	warning := ""
	if result != diffs.ResultOK {
		warning = checkWarning
	}
	err = x.write(func(w io.Writer, t *report.Table) error {
		t.HumanSizes = x.Human
		return t.WriteCheck(w, entries, now)
	}, func(w io.Writer, t *report.Table) error {
		return report.WriteCheckYAML(w, entries, result, now)
	}, warning)
	if err != nil {
		return err
	}
	if result != diffs.ResultOK {
		panic(&exitStatus{int(result)})
	}
	return nil
}
