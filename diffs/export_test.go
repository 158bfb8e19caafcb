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

package diffs

import (
	"os"

	"github.com/listsync/applydiffs/osutil"
)

var RealNewAtomicFile = newAtomicFile

func MockNewAtomicFile(f func(name string, perm os.FileMode) (osutil.AtomicWriter, error)) (restore func()) {
	old := newAtomicFile
	newAtomicFile = f
	return func() {
		newAtomicFile = old
	}
}

func MockOsLink(f func(oldname, newname string) error) (restore func()) {
	old := osLink
	osLink = f
	return func() {
		osLink = old
	}
}
