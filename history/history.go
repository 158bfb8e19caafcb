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

// Package history keeps a journal of applied diffs in a bolt
// database, one bucket per list file.
package history

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"

	"github.com/listsync/applydiffs/diffs"
	"github.com/listsync/applydiffs/osutil"
)

var timeNow = time.Now

// Entry is one journaled outcome.
type Entry struct {
	Time    time.Time    `json:"time"`
	Diff    string       `json:"diff"`
	Format  string       `json:"format,omitempty"`
	Status  diffs.Status `json:"status"`
	Added   int          `json:"added"`
	Removed int          `json:"removed"`
	Error   string       `json:"error,omitempty"`
}

// Journal records batch outcomes. It implements diffs.Journal.
type Journal struct {
	db *bolt.DB
}

// Open opens the journal at path, creating it if needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, xerrors.Errorf("cannot create journal directory: %w", err)
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, xerrors.Errorf("cannot open journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// OpenReadOnly opens an existing journal for reading. It returns an
// error satisfying errors.Is(err, os.ErrNotExist) if there is none.
func OpenReadOnly(path string) (*Journal, error) {
	// bolt creates the file even in read only mode
	if !osutil.FileExists(path) {
		return nil, xerrors.Errorf("cannot open journal %s: %w", path, os.ErrNotExist)
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{
		ReadOnly: true,
		Timeout:  1 * time.Second,
	})
	if err != nil {
		return nil, xerrors.Errorf("cannot open journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// Record appends the outcome of rec to the bucket of its list file.
func (j *Journal) Record(rec *diffs.Record) error {
	e := Entry{
		Time:    timeNow().UTC(),
		Diff:    rec.Diff,
		Status:  rec.Status,
		Added:   rec.Added,
		Removed: rec.Removed,
	}
	if rec.Format != nil {
		e.Format = rec.Format.Name
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
	}
	row, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(rec.Name()))
		if err != nil {
			return xerrors.Errorf("cannot record %s: %w", rec.Name(), err)
		}
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(n), row)
	})
}

// Entries returns the journal of the named list file, oldest first.
// An unknown list has no entries.
func (j *Journal) Entries(list string) ([]*Entry, error) {
	var entries []*Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(list))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return xerrors.Errorf("cannot decode journal entry %d of %s: %w", binary.BigEndian.Uint64(k), list, err)
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Lists returns the names of all list files with journal entries.
func (j *Journal) Lists() ([]string, error) {
	var names []string
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Prune drops all but the newest keep entries of every list.
func (j *Journal) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			excess := b.Stats().KeyN - keep
			c := b.Cursor()
			for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
				if err := c.Delete(); err != nil {
					return xerrors.Errorf("cannot prune %s: %w", name, err)
				}
				excess--
			}
			return nil
		})
	})
}
