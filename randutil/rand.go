// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2014-2020 Canonical Ltd
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
// Package randutil produces the random suffixes of temporary files.
package randutil

import (
	"math/rand/v2"
)

// Vowels are left out so no words appear by chance.
const letters = "BCDFGHJKLMNPQRSTVWXYbcdfghjklmnpqrstvwxy0123456789"

var intN = rand.IntN

// RandomString returns length characters drawn from letters. It is
// not suitable for secrets.
func RandomString(length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = letters[intN(len(letters))]
	}
	return string(out)
}
