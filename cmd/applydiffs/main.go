// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2014-2015 Canonical Ltd
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
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/jessevdk/go-flags"

	"github.com/listsync/applydiffs/config"
	"github.com/listsync/applydiffs/logger"
)

// Version is overridden at build time.
var Version = "2.5+git"

// Standard streams, redirected for testing.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	timeNow     = time.Now
	loggerSetup = logger.Setup
)

type options struct {
	Version func() `long:"version"`
	Debug   bool   `long:"debug"`
	Config  string `long:"config" value-name:"<file>"`
}

// argDesc names and describes one positional argument.
type argDesc struct {
	name string
	desc string
}

var optionsData options

// ErrExtraArgs is returned when a command gets more arguments than it
// takes.
var ErrExtraArgs = errors.New("too many arguments for command")

// cmdInfo is a registered command. Commands are kept as builders so
// every Parser gets fresh command state.
type cmdInfo struct {
	name, shortHelp, longHelp string
	builder                   func() flags.Commander
	optDescs                  map[string]string
	argDescs                  []argDesc
}

var commands []*cmdInfo

// addCommand registers a command for every future Parser. Option and
// argument help lives in optDescs and argDescs, never in struct tags.
func addCommand(name, shortHelp, longHelp string, builder func() flags.Commander, optDescs map[string]string, argDescs []argDesc) *cmdInfo {
	info := &cmdInfo{
		name:      name,
		shortHelp: shortHelp,
		longHelp:  longHelp,
		builder:   builder,
		optDescs:  optDescs,
		argDescs:  argDescs,
	}
	commands = append(commands, info)
	return info
}

func checkDesc(cmdName, name, desc, tagDesc string) {
	switch {
	case name == "":
		logger.Panicf("%s: option without a name", cmdName)
	case tagDesc != "":
		logger.Panicf("%s: %q is described by its tag (%q)", cmdName, name, tagDesc)
	case desc != "" && !unicode.IsUpper([]rune(desc)[0]):
		logger.Panicf("%s: description of %q must start uppercase: %q", cmdName, name, desc)
	}
}

func (c *cmdInfo) describeOptions(cmd *flags.Command) {
	opts := cmd.Options()
	if c.optDescs != nil && len(opts) != len(c.optDescs) {
		logger.Panicf("%s: %d options but %d descriptions", c.name, len(opts), len(c.optDescs))
	}
	for _, opt := range opts {
		name := opt.LongName
		if name == "" {
			name = string(opt.ShortName)
		}
		desc, ok := c.optDescs[name]
		if c.optDescs != nil && !ok {
			logger.Panicf("%s: no description for %q", c.name, name)
		}
		checkDesc(c.name, name, desc, opt.Description)
		if desc != "" {
			opt.Description = desc
		}
	}
}

func (c *cmdInfo) describeArgs(cmd *flags.Command) {
	args := cmd.Args()
	if c.argDescs != nil && len(args) != len(c.argDescs) {
		logger.Panicf("%s: %d arguments but %d descriptions", c.name, len(args), len(c.argDescs))
	}
	for i, arg := range args {
		name, desc := arg.Name, ""
		if c.argDescs != nil {
			name, desc = c.argDescs[i].name, c.argDescs[i].desc
		}
		checkDesc(c.name, name, desc, arg.Description)
		if !strings.HasPrefix(name, "<") || !strings.HasSuffix(name, ">") {
			logger.Panicf("%s: argument %q needs <>s", c.name, name)
		}
		arg.Name = name
		arg.Description = desc
	}
}

// Parser returns a parser with every registered command. Each call
// starts from zeroed global options.
func Parser() *flags.Parser {
	optionsData = options{
		Version: func() {
			fmt.Fprintf(Stdout, "applydiffs %s\n", Version)
			panic(&exitStatus{0})
		},
	}
	parser := flags.NewParser(&optionsData, flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.ShortDescription = "Bring list files up to date by applying diffs"
	parser.LongDescription = `
applydiffs applies a directory of diff files to a directory of list
files. Every list file carries a checksum line, and a patched list only
replaces the original when its checksum verifies.
`
	for name, desc := range map[string]string{
		"version": "Print the version and exit",
		"debug":   "Show debug messages",
		"config":  "Read settings from this file instead of the default one",
	} {
		parser.FindOptionByLongName(name).Description = desc
	}

	for _, c := range commands {
		cmd, err := parser.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), c.builder())
		if err != nil {
			logger.Panicf("cannot add command %q: %v", c.name, err)
		}
		c.describeOptions(cmd)
		c.describeArgs(cmd)
	}
	return parser
}

// loadConfig reads the file named by --config, or the default
// configuration file.
func loadConfig() (*config.Config, error) {
	path := optionsData.Config
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot use configuration %q: %v", path, err)
	}
	return config.Load(path)
}

func setupLogging(quiet bool) {
	loggerSetup(&logger.Options{Debug: optionsData.Debug, Quiet: quiet})
}

func init() {
	logger.Setup(nil)
}

func main() {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*exitStatus); ok {
				os.Exit(e.code)
			}
			panic(v)
		}
	}()

	if err := run(); err != nil {
		fmt.Fprintf(Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("internal error: exitStatus{%d} being handled as normal error", e.code)
}

// fatalError is a failure that aborts a whole run, as opposed to a
// usage error.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var fe *fatalError
	if errors.As(err, &fe) {
		return 20
	}
	return 1
}

func run() error {
	parser := Parser()
	_, err := parser.Parse()
	var ferr *flags.Error
	if !errors.As(err, &ferr) {
		return err
	}
	switch ferr.Type {
	case flags.ErrHelp, flags.ErrCommandRequired:
		if parser.Command.Active != nil && parser.Command.Active.Name == "help" {
			parser.Command.Active = nil
		}
		parser.WriteHelp(Stdout)
		return nil
	case flags.ErrUnknownCommand:
		return fmt.Errorf(`unknown command %q, see "applydiffs --help"`, os.Args[1])
	}
	return err
}
