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

package report

import (
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/listsync/applydiffs/diffs"
)

type crcEntry struct {
	Status   string `yaml:"status"`
	Size     int64  `yaml:"size"`
	Date     string `yaml:"date,omitempty"`
	Declared string `yaml:"declared,omitempty"`
	Computed string `yaml:"computed,omitempty"`
}

type entry struct {
	List    string    `yaml:"list"`
	Diff    string    `yaml:"diff,omitempty"`
	Format  string    `yaml:"format,omitempty"`
	Status  string    `yaml:"status"`
	Added   int       `yaml:"added"`
	Removed int       `yaml:"removed"`
	CRC     *crcEntry `yaml:"crc,omitempty"`
	Error   string    `yaml:"error,omitempty"`
}

type document struct {
	Time    string  `yaml:"time,omitempty"`
	Result  int     `yaml:"result"`
	Entries []entry `yaml:"files"`
}

func crcOf(info *diffs.CRCInfo) *crcEntry {
	if info == nil {
		return nil
	}
	return &crcEntry{
		Status:   info.Status.Name(),
		Size:     info.Size,
		Date:     info.Date,
		Declared: info.Declared,
		Computed: info.Computed,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeYAML(w io.Writer, doc *document, now time.Time) error {
	if !now.IsZero() {
		doc.Time = now.UTC().Format(time.RFC3339)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// WriteApplyYAML writes the outcome of a batch as a YAML document.
func WriteApplyYAML(w io.Writer, recs []*diffs.Record, result diffs.RunResult, now time.Time) error {
	doc := &document{Result: int(result), Entries: make([]entry, 0, len(recs))}
	for _, rec := range recs {
		format := ""
		if rec.Format != nil {
			format = rec.Format.Name
		}
		doc.Entries = append(doc.Entries, entry{
			List:    rec.Name(),
			Diff:    rec.Diff,
			Format:  format,
			Status:  rec.Status.Name(),
			Added:   rec.Added,
			Removed: rec.Removed,
			CRC:     crcOf(rec.CRC),
			Error:   errString(rec.Err),
		})
	}
	return writeYAML(w, doc, now)
}

// WriteCheckYAML writes the outcome of verifying list files as a YAML
// document.
func WriteCheckYAML(w io.Writer, entries []CheckEntry, result diffs.RunResult, now time.Time) error {
	doc := &document{Result: int(result), Entries: make([]entry, 0, len(entries))}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, entry{
			List:   e.Name,
			Status: e.Info.Status.Name(),
			CRC:    crcOf(e.Info),
		})
	}
	return writeYAML(w, doc, now)
}
