// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2017 Canonical Ltd
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
package osutil

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// FileLock is an advisory flock(2) lock held on an open file.
type FileLock struct {
	file *os.File
}

// ErrAlreadyLocked is returned by TryLock while another open file
// description holds the lock.
var ErrAlreadyLocked = errors.New("cannot acquire lock, already locked")

// NewFileLock opens or creates the lock file at path with mode 0600.
// The file is not locked yet. A symlink at path is refused.
func NewFileLock(path string) (*FileLock, error) {
	flag := unix.O_RDWR | unix.O_CREAT | unix.O_NOFOLLOW | unix.O_CLOEXEC
	file, err := os.OpenFile(path, flag, 0600)
	if err != nil {
		return nil, err
	}
	return &FileLock{file: file}, nil
}

func (l *FileLock) Path() string {
	return l.file.Name()
}

// TryLock takes the exclusive lock without waiting.
func (l *FileLock) TryLock() error {
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrAlreadyLocked
	}
	return err
}

func (l *FileLock) Unlock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}

// Close releases the lock along with the file. The lock file itself
// stays on disk.
func (l *FileLock) Close() error {
	return l.file.Close()
}
