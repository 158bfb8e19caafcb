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

package strutil

import (
	"fmt"
	"time"
)

var sizeSuffixes = []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}

// SizeToStr converts the given size in bytes to a readable string.
func SizeToStr(size int64) string {
	for _, suf := range sizeSuffixes {
		if size < 1000 {
			return fmt.Sprintf("%d%s", size, suf)
		}
		size /= 1000
	}
	// unreachable for an int64
	return fmt.Sprintf("%dZB", size)
}

// RateToStr renders n bytes moved in d as a readable rate.
func RateToStr(n int64, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return SizeToStr(int64(float64(n)/d.Seconds())) + "/s"
}
