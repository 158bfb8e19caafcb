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
	"fmt"
	"io"

	"github.com/listsync/applydiffs/config"
	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/report"
	"github.com/listsync/applydiffs/scan"
)

type outputMixin struct {
	colorMixin
	NoStats bool     `long:"no-stats"`
	Quiet   bool     `long:"quiet"`
	Logfile string   `long:"logfile" value-name:"<file>"`
	Format  string   `long:"format" default:"table" choice:"table" choice:"yaml"`
	Include []string `long:"include" value-name:"<glob>"`
	Exclude []string `long:"exclude" value-name:"<glob>"`
}

var outputDescs = colorDescs.also(map[string]string{
	"no-stats": "Do not print the statistics table",
	"quiet":    "Only print the statistics and errors",
	"logfile":  "Append the statistics to this file",
	"format":   "Print the statistics as a table or as YAML",
	"include":  "Only process list files matching this pattern",
	"exclude":  "Skip list files matching this pattern",
})

func (x *outputMixin) filter() *scan.Filter {
	return &scan.Filter{Include: x.Include, Exclude: x.Exclude}
}

// write emits the statistics on stdout and appends them to the log
// file, if there is one. The log file always gets the plain table.
// A non-empty warning follows the statistics.
func (x *outputMixin) write(table, yaml func(w io.Writer, t *report.Table) error, warning string) error {
	warnTo := Stdout
	if !x.NoStats {
		w := table
		if x.Format == "yaml" {
			w = yaml
			warnTo = Stderr
		} else {
			fmt.Fprintln(Stdout)
		}
		if err := w(Stdout, &report.Table{Color: x.useColor()}); err != nil {
			return err
		}
	}
	if warning != "" {
		fmt.Fprintf(warnTo, "\n%s\n", warning)
	}
	if x.Logfile != "" {
		err := report.AppendLog(x.Logfile, func(w io.Writer) error {
			if err := table(w, &report.Table{}); err != nil {
				return err
			}
			if warning != "" {
				_, err := fmt.Fprintf(w, "\n%s\n", warning)
				return err
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("cannot write log file: %v", err)
		}
	}
	return nil
}

// progress prints what a run does, one line per file, with a running
// percentage on terminals.
type progress struct {
	w   io.Writer
	tty bool

	open bool
}

func (p *progress) begin(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
	if p.tty {
		fmt.Fprint(p.w, " (000%)")
	}
	p.open = true
}

func (p *progress) percent(pct int) {
	if p.open && p.tty {
		fmt.Fprintf(p.w, "\b\b\b\b\b\b(%03d%%)", pct)
	}
}

func (p *progress) end(outcome string) {
	fmt.Fprintf(p.w, " - %s\n", outcome)
	p.open = false
}

func (p *progress) checking(rec *diffs.Record) {
	fmt.Fprintf(p.w, "Test File %s\n", rec.Name())
}

func (p *progress) applying(rec *diffs.Record) {
	p.begin("Apply diffs on file %s", rec.Name())
}

func (p *progress) done(rec *diffs.Record) {
	if !p.open {
		// unpacking failed before the diff was applied
		fmt.Fprintf(p.w, "Apply diffs on file %s", rec.Name())
	}
	p.end("Status: " + rec.Status.String())
}

func (x *outputMixin) merge(cfg *config.Config) {
	if x.Logfile == "" {
		x.Logfile = cfg.Logfile
	}
	if x.Include == nil {
		x.Include = cfg.Include
	}
	if x.Exclude == nil {
		x.Exclude = cfg.Exclude
	}
}
