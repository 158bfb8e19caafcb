// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2014,2015,2017 Canonical Ltd
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
package logger

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/listsync/applydiffs/osutil"
)

// A Logger receives formatted messages from the package level
// functions.
type Logger interface {
	// Notice is for messages the user should see.
	Notice(msg string)
	// Debug is for messages that help when tracking down a problem.
	Debug(msg string)
}

const (
	// DefaultFlags are used for the console logger when running in a
	// terminal.
	DefaultFlags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

	// DebugEnv enables debug output when set to a true value.
	DebugEnv = "APPLYDIFFS_DEBUG"
)

type nullLogger struct{}

func (nullLogger) Notice(string) {}
func (nullLogger) Debug(string)  {}

// NullLogger discards everything.
var NullLogger Logger = nullLogger{}

var (
	logger Logger = NullLogger
	lock   sync.Mutex
)

// Panicf logs a notice and panics with the same message.
func Panicf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	lock.Lock()
	defer lock.Unlock()

	logger.Notice("PANIC " + msg)
	panic(msg)
}

func Noticef(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	lock.Lock()
	defer lock.Unlock()

	logger.Notice(msg)
}

func Debugf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	lock.Lock()
	defer lock.Unlock()

	logger.Debug(msg)
}

// SetLogger replaces the global logger.
func SetLogger(l Logger) {
	lock.Lock()
	defer lock.Unlock()

	logger = l
}

func mock(l Logger) (restore func()) {
	lock.Lock()
	old := logger
	logger = l
	lock.Unlock()
	return func() {
		SetLogger(old)
	}
}

// MockLogger installs a logger writing into the returned buffer.
func MockLogger() (buf *bytes.Buffer, restore func()) {
	buf = &bytes.Buffer{}
	return buf, mock(New(buf, DefaultFlags))
}

// MockDebugLogger is like MockLogger but debug messages are always
// written.
func MockDebugLogger() (buf *bytes.Buffer, restore func()) {
	buf = &bytes.Buffer{}
	l := New(buf, DefaultFlags)
	l.debug = true
	return buf, mock(l)
}

// Log is the Logger writing to a standard log.Logger.
type Log struct {
	log *log.Logger

	debug bool
	quiet bool
}

// New returns a Log writing to w with the given log flags.
func New(w io.Writer, flag int) *Log {
	return &Log{log: log.New(w, "", flag)}
}

func (l *Log) debugEnabled() bool {
	return l.debug || osutil.GetenvBool(DebugEnv)
}

// Debug writes msg only when debugging was requested at setup or
// through APPLYDIFFS_DEBUG.
func (l *Log) Debug(msg string) {
	if l.debugEnabled() {
		l.log.Output(3, "DEBUG: "+msg)
	}
}

// Notice writes msg unless the log is quiet. Debugging overrides
// quiet.
func (l *Log) Notice(msg string) {
	if !l.quiet || l.debugEnabled() {
		l.log.Output(3, msg)
	}
}

// Options tune the console logger installed by Setup.
type Options struct {
	// Debug enables debug messages regardless of the environment.
	Debug bool
	// Quiet suppresses notices unless debugging is enabled.
	Quiet bool
}

// Setup installs a console logger on stderr. Timestamps are only
// added when TERM is set.
func Setup(opts *Options) {
	if opts == nil {
		opts = &Options{}
	}
	flags := log.Lshortfile
	if os.Getenv("TERM") != "" {
		flags = DefaultFlags
	}
	l := New(os.Stderr, flags)
	l.debug = opts.Debug
	l.quiet = opts.Quiet
	SetLogger(l)
}
