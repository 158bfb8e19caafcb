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

// Package config loads the optional applydiffs configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mvo5/goconfigparser"

	"github.com/listsync/applydiffs/linebuf"
	"github.com/listsync/applydiffs/osutil"
)

// Section is the INI section all settings live in.
const Section = "applydiffs"

// PathEnv overrides the default configuration path.
const PathEnv = "APPLYDIFFS_CONFIG"

// Config holds the settings the command line starts from.
type Config struct {
	BufferSize int
	Keep       bool
	CheckCRC   bool
	Force      bool
	Logfile    string
	Include    []string
	Exclude    []string
	// Journal is the path of the history database, empty for none.
	Journal string
	// HistoryKeep bounds the number of journal entries kept per
	// list file, zero means unbounded.
	HistoryKeep int
	Mirror      string
	RateLimit   int64
}

// Default returns the settings used when there is no configuration
// file.
func Default() *Config {
	return &Config{
		BufferSize: linebuf.DefaultCapacity,
	}
}

var userHomeDir = os.UserHomeDir

// DefaultPath is $APPLYDIFFS_CONFIG if set, or
// ~/.config/applydiffs.conf.
func DefaultPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	home, err := userHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "applydiffs.conf")
}

// Load reads the configuration at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" || !osutil.FileExists(path) {
		return cfg, nil
	}
	parser := goconfigparser.New()
	if err := parser.ReadFile(path); err != nil {
		return nil, fmt.Errorf("cannot read configuration %q: %v", path, err)
	}
	if err := cfg.merge(parser); err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %v", path, err)
	}
	return cfg, nil
}

func get(parser *goconfigparser.ConfigParser, key string) (string, bool) {
	v, err := parser.Get(Section, key)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func getBool(parser *goconfigparser.ConfigParser, key string, dst *bool) error {
	v, ok := get(parser, key)
	if !ok {
		return nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off", "":
		*dst = false
	default:
		return fmt.Errorf("%s: cannot parse %q as a boolean", key, v)
	}
	return nil
}

func getInt(parser *goconfigparser.ConfigParser, key string, min int64, dst *int64) error {
	v, ok := get(parser, key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: cannot parse %q as a number", key, v)
	}
	if n < min {
		return fmt.Errorf("%s: %d is below the minimum of %d", key, n, min)
	}
	*dst = n
	return nil
}

// patterns splits a comma or whitespace separated list.
func patterns(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func (cfg *Config) merge(parser *goconfigparser.ConfigParser) error {
	bufSize := int64(cfg.BufferSize)
	if err := getInt(parser, "buffer-size", 1024, &bufSize); err != nil {
		return err
	}
	cfg.BufferSize = int(bufSize)
	for key, dst := range map[string]*bool{
		"keep":      &cfg.Keep,
		"check-crc": &cfg.CheckCRC,
		"force":     &cfg.Force,
	} {
		if err := getBool(parser, key, dst); err != nil {
			return err
		}
	}
	if v, ok := get(parser, "logfile"); ok {
		cfg.Logfile = v
	}
	if v, ok := get(parser, "include"); ok {
		cfg.Include = patterns(v)
	}
	if v, ok := get(parser, "exclude"); ok {
		cfg.Exclude = patterns(v)
	}
	if v, ok := get(parser, "journal"); ok {
		cfg.Journal = v
	}
	keep := int64(cfg.HistoryKeep)
	if err := getInt(parser, "history-keep", 0, &keep); err != nil {
		return err
	}
	cfg.HistoryKeep = int(keep)
	if v, ok := get(parser, "mirror"); ok {
		cfg.Mirror = v
	}
	return getInt(parser, "rate-limit", 0, &cfg.RateLimit)
}
