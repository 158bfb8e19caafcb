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


// Package listcrc computes the line based checksum embedded in the
// first line of list files.
//
// The checksum is a 32 bit table driven CRC. The table is the MSB
// first CRC-32 table for polynomial 0x04C11DB7, while the update step
// shifts right, exactly as the list tools that produce these files
// do. The state starts at all ones and is never inverted at the end.
// Every line is folded together with an implied trailing newline, so
// a file checksums the same whether or not its last line is
// terminated on disk.
package listcrc

import (
	"fmt"
	"hash"
	"strings"
	"sync"
)

// Size of a checksum in bytes.
const Size = 4

// Initial is the value a fresh accumulator starts with.
const Initial uint32 = 0xFFFFFFFF

// Poly is the generator polynomial of the table, in MSB first form.
const Poly uint32 = 0x04C11DB7

// Prefix starts every checksum line.
const Prefix = "CRC: "

// keyLen is the length of "CRC: 0x" followed by eight hex digits.
const keyLen = len(Prefix) + 2 + 8

// Table is a 256 entry lookup table. It is never modified after
// MakeTable returns.
type Table [256]uint32

// MakeTable builds the lookup table used by the list tools.
func MakeTable() *Table {
	t := new(Table)
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ Poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the process wide table, building it on first use.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		defaultTable = MakeTable()
	})
	return defaultTable
}

// UpdateBytes folds p into crc without adding a newline.
func UpdateBytes(crc uint32, tab *Table, p []byte) uint32 {
	for _, b := range p {
		crc = crc>>8 ^ tab[byte(crc)^b]
	}
	return crc
}

// Update folds line into crc, followed by an implied newline. The line
// must not carry its own terminator.
func Update(crc uint32, tab *Table, line string) uint32 {
	for i := 0; i < len(line); i++ {
		crc = crc>>8 ^ tab[byte(crc)^line[i]]
	}
	return crc>>8 ^ tab[byte(crc)^'\n']
}

// Digest accumulates a checksum over a sequence of lines. The zero
// value is not usable, use New.
type Digest struct {
	crc uint32
	tab *Table
}

var _ hash.Hash32 = (*Digest)(nil)

// New returns a Digest reset to Initial. A nil table selects
// DefaultTable.
func New(tab *Table) *Digest {
	if tab == nil {
		tab = DefaultTable()
	}
	return &Digest{crc: Initial, tab: tab}
}

// AddLine folds one line plus its implied newline.
func (d *Digest) AddLine(line string) {
	d.crc = Update(d.crc, d.tab, line)
}

// Write folds raw bytes. Newlines in p are folded like any other
// byte, so writing "a\nb\n" is the same as adding the lines "a" and "b".
func (d *Digest) Write(p []byte) (int, error) {
	d.crc = UpdateBytes(d.crc, d.tab, p)
	return len(p), nil
}

func (d *Digest) Size() int { return Size }

func (d *Digest) BlockSize() int { return 1 }

func (d *Digest) Reset() { d.crc = Initial }

func (d *Digest) Sum32() uint32 { return d.crc }

func (d *Digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

// String returns the canonical text form of the current value.
func (d *Digest) String() string {
	return Format(d.crc)
}

// Format renders sum the way it appears at the start of a list file.
func Format(sum uint32) string {
	return fmt.Sprintf("CRC: 0x%08X", sum)
}

// Line reports whether line is a checksum line and, if so, returns
// its comparison key: the prefix plus the hex value, without any
// metadata that follows.
func Line(line string) (key string, ok bool) {
	if !strings.HasPrefix(line, Prefix) {
		return "", false
	}
	if len(line) > keyLen {
		line = line[:keyLen]
	}
	return line, true
}

// DateOf returns the value of the "Date: " token of a checksum line,
// or the empty string.
func DateOf(line string) string {
	i := strings.Index(line, "Date: ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+len("Date: "):])
}
