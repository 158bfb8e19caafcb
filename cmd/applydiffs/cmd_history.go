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
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/listsync/applydiffs/history"
)

type cmdHistory struct {
	Journal string `long:"journal" value-name:"<file>"`

	Positional struct {
		List string
	} `positional-args:"true"`
}

var shortHistoryHelp = "Show the recorded outcomes of earlier runs"
var longHistoryHelp = `
The history command lists the list files with recorded outcomes, or
every recorded outcome of the given list file, oldest first.
`

func init() {
	addCommand("history", shortHistoryHelp, longHistoryHelp, func() flags.Commander {
		return &cmdHistory{}
	}, map[string]string{
		"journal": "History database to read",
	}, []argDesc{{
		name: "<list>",
		desc: "Name of a list file",
	}})
}

func (x *cmdHistory) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if x.Journal == "" {
		x.Journal = cfg.Journal
	}
	setupLogging(false)
	if x.Journal == "" {
		return fmt.Errorf("no journal given, use --journal or set one in the configuration")
	}

	j, err := history.OpenReadOnly(x.Journal)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no history recorded in %s", x.Journal)
	}
	if err != nil {
		return err
	}
	defer j.Close()

	if x.Positional.List != "" {
		return x.showList(j, x.Positional.List)
	}
	return x.showLists(j)
}

func (x *cmdHistory) showLists(j *history.Journal) error {
	names, err := j.Lists()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no history recorded in %s", x.Journal)
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "List\tRuns\tLast Status\tLast Time\n")
	for _, name := range names {
		entries, err := j.Entries(name)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, len(entries), last.Status, last.Time.UTC().Format(time.RFC3339))
	}
	return nil
}

func (x *cmdHistory) showList(j *history.Journal, name string) error {
	entries, err := j.Entries(name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no history recorded for %s", name)
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Time\tStatus\tRemoved\tAdded\tDiff\tError\n")
	for _, e := range entries {
		msg := e.Error
		if msg == "" {
			msg = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", e.Time.UTC().Format(time.RFC3339), e.Status, e.Removed, e.Added, e.Diff, msg)
	}
	return nil
}
