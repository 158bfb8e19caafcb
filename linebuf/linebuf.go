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

// Package linebuf implements buffered, line oriented access to large
// text files. A Buffer is opened either for reading, where it hands
// out one line at a time and supports cheap repositioning inside the
// resident window, or for writing, where it collects bytes and flushes
// them whenever the buffer would overflow.
package linebuf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Flag selects the mode a Buffer is opened in, optionally combined
// with GetSize.
type Flag uint

const (
	// ModeRead opens an existing file for reading lines.
	ModeRead Flag = 0
	// ModeWrite creates or truncates a file for writing.
	ModeWrite Flag = 1
	// ModeAppend creates a file or appends to an existing one.
	ModeAppend Flag = 2

	// GetSize asks a ModeRead buffer to record the file size on open.
	GetSize Flag = 1 << 4

	modeMask Flag = 3
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 512 * 1024

var (
	// ErrLineTooLong is returned by ReadLine when a line fills the
	// whole buffer without a terminating newline. This usually means
	// the file is not a text file.
	ErrLineTooLong = errors.New("line exceeds buffer capacity")
	// ErrWrongMode is returned when reading from a write buffer or the
	// other way around.
	ErrWrongMode = errors.New("operation not supported in this buffer mode")
	// ErrNotSeekable is returned by Position when the underlying
	// reader cannot seek.
	ErrNotSeekable = errors.New("cannot reposition a non-seekable stream")
)

// Buffer is a buffered reader or writer over a single stream. It is
// not safe for concurrent use.
type Buffer struct {
	name string
	mode Flag

	r io.Reader
	w io.Writer
	c io.Closer

	buf []byte
	// pos is the cursor inside buf, n the number of valid bytes.
	pos int
	n   int
	// offset is the stream offset that corresponds to buf[pos].
	offset int64
	size   int64
	eof    bool
}

// Open opens the named file in the given mode with a buffer of the
// given capacity.
func Open(name string, flags Flag, capacity int) (*Buffer, error) {
	var oflag int
	mode := flags & modeMask
	switch mode {
	case ModeRead:
		oflag = os.O_RDONLY
	case ModeWrite:
		oflag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		oflag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return nil, fmt.Errorf("cannot open %q: invalid buffer mode %d", name, mode)
	}

	f, err := os.OpenFile(name, oflag, 0644)
	if err != nil {
		return nil, err
	}

	b := newBuffer(name, mode, capacity)
	b.c = f
	if mode == ModeRead {
		b.r = f
		if flags&GetSize != 0 {
			fi, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, err
			}
			b.size = fi.Size()
		}
	} else {
		b.w = f
		if mode == ModeAppend {
			if off, err := f.Seek(0, io.SeekEnd); err == nil {
				b.offset = off
			}
		}
	}
	return b, nil
}

// NewReader returns a read buffer over r. Close does not close r.
func NewReader(r io.Reader, capacity int) *Buffer {
	b := newBuffer("", ModeRead, capacity)
	b.r = r
	return b
}

// NewWriter returns a write buffer over w. Close flushes but does not
// close w.
func NewWriter(w io.Writer, capacity int) *Buffer {
	b := newBuffer("", ModeWrite, capacity)
	b.w = w
	return b
}

// NewWriteCloser is like NewWriter but Close also closes w.
func NewWriteCloser(w io.WriteCloser, capacity int) *Buffer {
	b := NewWriter(w, capacity)
	b.c = w
	return b
}

func newBuffer(name string, mode Flag, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		name: name,
		mode: mode,
		buf:  make([]byte, capacity),
	}
}

// Name returns the file name the buffer was opened with, if any.
func (b *Buffer) Name() string {
	return b.name
}

// Capacity returns the size of the internal buffer.
func (b *Buffer) Capacity() int {
	return len(b.buf)
}

// Offset returns the stream offset of the next byte to be read or
// written.
func (b *Buffer) Offset() int64 {
	return b.offset
}

// Size returns the file size recorded by GetSize, or zero.
func (b *Buffer) Size() int64 {
	return b.size
}

// ReadLine returns the next line without its trailing newline. At the
// end of the stream it returns io.EOF. A last line that has no
// newline is returned as a regular line.
func (b *Buffer) ReadLine() (string, error) {
	if b.mode != ModeRead {
		return "", ErrWrongMode
	}
	if b.buf == nil {
		return "", os.ErrClosed
	}
	for {
		if i := bytes.IndexByte(b.buf[b.pos:b.n], '\n'); i >= 0 {
			line := string(b.buf[b.pos : b.pos+i])
			b.pos += i + 1
			b.offset += int64(i + 1)
			return line, nil
		}
		pending := b.n - b.pos
		if pending >= len(b.buf) {
			return "", ErrLineTooLong
		}
		if b.eof {
			if pending == 0 {
				return "", io.EOF
			}
			line := string(b.buf[b.pos:b.n])
			b.pos = b.n
			b.offset += int64(pending)
			return line, nil
		}
		if err := b.fill(); err != nil {
			return "", err
		}
	}
}

// fill moves the unread bytes to the front of the buffer and reads
// more data behind them.
func (b *Buffer) fill() error {
	if b.pos > 0 {
		copy(b.buf, b.buf[b.pos:b.n])
		b.n -= b.pos
		b.pos = 0
	}
	for b.n < len(b.buf) {
		m, err := b.r.Read(b.buf[b.n:])
		b.n += m
		if err == io.EOF {
			b.eof = true
			return nil
		}
		if err != nil {
			return err
		}
		if m > 0 {
			return nil
		}
	}
	return nil
}

// Position moves the read cursor to the given stream offset. If the
// offset is inside the bytes currently held in memory no I/O happens.
func (b *Buffer) Position(offset int64) error {
	if b.mode != ModeRead {
		return ErrWrongMode
	}
	if offset < 0 {
		return fmt.Errorf("cannot position at negative offset %d", offset)
	}
	start := b.offset - int64(b.pos)
	if offset >= start && offset <= start+int64(b.n) {
		b.pos = int(offset - start)
		b.offset = offset
		return nil
	}

	s, ok := b.r.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	b.pos = 0
	b.n = 0
	b.eof = false
	b.offset = offset
	return b.fill()
}

// Write buffers p. When p does not fit into the free space the
// buffer is flushed first, and data larger than the whole buffer is
// written straight through.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.mode != ModeWrite && b.mode != ModeAppend {
		return 0, ErrWrongMode
	}
	if b.buf == nil {
		return 0, os.ErrClosed
	}
	if len(p) <= len(b.buf)-b.n {
		b.n += copy(b.buf[b.n:], p)
		b.offset += int64(len(p))
		return len(p), nil
	}
	if err := b.Flush(); err != nil {
		return 0, err
	}
	if len(p) > len(b.buf) {
		m, err := b.w.Write(p)
		b.offset += int64(m)
		if err == nil && m != len(p) {
			err = io.ErrShortWrite
		}
		return m, err
	}
	b.n = copy(b.buf, p)
	b.offset += int64(len(p))
	return len(p), nil
}

var newline = []byte{'\n'}

// WriteLine writes s followed by a newline.
func (b *Buffer) WriteLine(s string) error {
	if _, err := b.Write([]byte(s)); err != nil {
		return err
	}
	_, err := b.Write(newline)
	return err
}

// Flush writes any buffered bytes to the underlying stream.
func (b *Buffer) Flush() error {
	if b.mode == ModeRead || b.n == 0 {
		return nil
	}
	m, err := b.w.Write(b.buf[:b.n])
	if err == nil && m != b.n {
		err = io.ErrShortWrite
	}
	if err != nil {
		if m > 0 && m < b.n {
			copy(b.buf, b.buf[m:b.n])
		}
		if m > 0 {
			b.n -= m
		}
		return err
	}
	b.n = 0
	return nil
}

// Close flushes pending writes and releases the underlying file, even
// when the flush fails. The flush error takes precedence.
func (b *Buffer) Close() error {
	if b.buf == nil {
		return nil
	}
	err := b.Flush()
	if b.c != nil {
		if cerr := b.c.Close(); err == nil {
			err = cerr
		}
	}
	b.buf = nil
	b.r = nil
	b.w = nil
	b.c = nil
	return err
}
