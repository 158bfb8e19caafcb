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
	"os"
	"time"

	"github.com/listsync/applydiffs/logger"
)

var (
	RunUntilSignal = runUntilSignal
	ExitCode       = exitCode
)

// RunArgs parses and runs args like main does, returning the exit
// code main would use.
func RunArgs(args []string) (code int, err error) {
	defer func() {
		if v := recover(); v != nil {
			e, ok := v.(*exitStatus)
			if !ok {
				panic(v)
			}
			code = e.code
		}
	}()
	_, err = Parser().ParseArgs(args)
	if err != nil {
		code = exitCode(err)
	}
	return code, err
}

func MockTimeNow(f func() time.Time) (restore func()) {
	old := timeNow
	timeNow = f
	return func() {
		timeNow = old
	}
}

func MockIsTTY(t bool) (restore func()) {
	old := isTTY
	isTTY = t
	return func() {
		isTTY = old
	}
}

func MockLoggerSetup(f func(opts *logger.Options)) (restore func()) {
	old := loggerSetup
	loggerSetup = f
	return func() {
		loggerSetup = old
	}
}

func MockSignalNotify(f func(c chan<- os.Signal, sig ...os.Signal)) (restore func()) {
	old := signalNotify
	signalNotify = f
	return func() {
		signalNotify = old
	}
}

func NewFatalError(err error) error {
	return &fatalError{err}
}


var LockDir = lockDir
