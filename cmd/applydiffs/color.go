// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2018 Canonical Ltd
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

	"golang.org/x/crypto/ssh/terminal"
)

type colorMixin struct {
	Color string `long:"color" default:"auto" choice:"auto" choice:"never" choice:"always"`
}

var isTTY = terminal.IsTerminal(1)

// useColor decides whether status columns get highlighted.
func (mx colorMixin) useColor() bool {
	switch mx.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if !isTTY {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		// http://no-color.org/
		return false
	}
	if term := os.Getenv("TERM"); term == "dumb" || term == "xterm-mono" || term == "linux-m" {
		return false
	}
	return true
}

type mixinDescs map[string]string

func (mxd mixinDescs) also(m map[string]string) mixinDescs {
	n := make(map[string]string, len(mxd)+len(m))
	for k, v := range mxd {
		n[k] = v
	}
	for k, v := range m {
		n[k] = v
	}
	return n
}

var colorDescs = mixinDescs{
	"color": "Highlight the status column",
}
