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
	"io"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/listsync/applydiffs/config"
	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/history"
	"github.com/listsync/applydiffs/logger"
	"github.com/listsync/applydiffs/osutil"
	"github.com/listsync/applydiffs/packer"
	"github.com/listsync/applydiffs/report"
	"github.com/listsync/applydiffs/scan"
)

// lockName is the lock file kept in the list directory while a batch
// runs.
const lockName = ".applydiffs.lock"

const applyWarning = "WARNING: ApplyDiffs could not successfully apply all diffs."

type cmdApply struct {
	outputMixin
	CheckCRC bool   `long:"check-crc"`
	Force    bool   `long:"force"`
	Keep     bool   `long:"keep"`
	Journal  string `long:"journal" value-name:"<file>"`

	Positional struct {
		ListDir string
		DiffDir string
	} `positional-args:"true" required:"true"`
}

var shortApplyHelp = "Apply diffs to list files"
var longApplyHelp = `
The apply command applies every diff found in <diffdir> to the list
file of the same name in <listdir>. Files ending in .list are plain
diffs, files ending in .diff are stripped diffs of the matching .list
file.

All diffs are checked against their list files first. If any of them
does not fit, nothing is applied. A patched list file only replaces the
original when its checksum verifies, and the applied diff is removed
unless --keep is given.

The exit status is 0 when everything was applied, 10 when some diffs
could not be applied and 20 when the run could not be done at all.
`

func init() {
	addCommand("apply", shortApplyHelp, longApplyHelp, func() flags.Commander {
		return &cmdApply{}
	}, outputDescs.also(map[string]string{
		"check-crc": "Verify the checksum of every list file before applying",
		"force":     "Skip the checks and keep results with a wrong checksum",
		"keep":      "Keep the previous list files as .old and keep the diffs",
		"journal":   "Record every outcome in this history database",
	}), []argDesc{{
		name: "<listdir>",
		desc: "Directory holding the list files",
	}, {
		name: "<diffdir>",
		desc: "Directory holding the diffs",
	}})
}

// merge fills in whatever the command line left unset from cfg.
func (x *cmdApply) merge(cfg *config.Config) {
	x.CheckCRC = x.CheckCRC || cfg.CheckCRC
	x.Force = x.Force || cfg.Force
	x.Keep = x.Keep || cfg.Keep
	if x.Journal == "" {
		x.Journal = cfg.Journal
	}
	x.outputMixin.merge(cfg)
}

func lockDir(dir string) (*osutil.FileLock, error) {
	lock, err := osutil.NewFileLock(filepath.Join(dir, lockName))
	if err != nil {
		return nil, fmt.Errorf("cannot lock %s: %v", dir, err)
	}
	if err := lock.TryLock(); err != nil {
		lock.Close()
		if err == osutil.ErrAlreadyLocked {
			return nil, fmt.Errorf("%s is in use by another applydiffs run", dir)
		}
		return nil, fmt.Errorf("cannot lock %s: %v", dir, err)
	}
	return lock, nil
}

func (x *cmdApply) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	x.merge(cfg)
	setupLogging(x.Quiet)

	listDir, diffDir := x.Positional.ListDir, x.Positional.DiffDir
	recs, err := scan.Diffs(listDir, diffDir, x.filter())
	if err != nil {
		return &fatalError{err}
	}
	if len(recs) == 0 {
		logger.Noticef("no diffs found in %s", diffDir)
	}

	lock, err := lockDir(listDir)
	if err != nil {
		return &fatalError{err}
	}
	defer lock.Close()

	batch := &diffs.Batch{
		CheckCRC: x.CheckCRC,
		Force:    x.Force,
		Keep:     x.Keep,
		Capacity: cfg.BufferSize,
		Packer:   &packer.Gzip{Level: packer.DefaultLevel},
	}
	var journal *history.Journal
	if x.Journal != "" {
		journal, err = history.Open(x.Journal)
		if err != nil {
			return &fatalError{err}
		}
		defer journal.Close()
		batch.Journal = journal
	}
	if !x.Quiet {
		p := &progress{w: Stdout, tty: isTTY}
		batch.Checking = p.checking
		batch.Applying = p.applying
		batch.Progress = func(_ *diffs.Record, pct int) { p.percent(pct) }
		batch.Done = p.done
	}

	var result diffs.RunResult
	err = runUntilSignal(func(ctx context.Context) error {
		var err error
		result, err = batch.Run(ctx, recs)
		return err
	})
	if err != nil {
		return &fatalError{err}
	}
	if journal != nil && cfg.HistoryKeep > 0 {
		if err := journal.Prune(cfg.HistoryKeep); err != nil {
			logger.Noticef("cannot prune journal: %v", err)
		}
	}

	now := timeNow()
	warning := ""
	if result != diffs.ResultOK {
		warning = applyWarning
	}
	err = x.write(func(w io.Writer, t *report.Table) error {
		return t.WriteApply(w, recs, now)
	}, func(w io.Writer, t *report.Table) error {
		return report.WriteApplyYAML(w, recs, result, now)
	}, warning)
	if err != nil {
		return err
	}
	if result != diffs.ResultOK {
		panic(&exitStatus{int(result)})
	}
	return nil
}
