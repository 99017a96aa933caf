// This file is part of matstrip
//
// Package config loads the CLI's default settings from YAML, grounded
// on the teacher's config.go: an environment-variable override for the
// search path, a fixed list of candidate files tried in order, and a
// merge of the first file found over compiled-in defaults.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package config

import (
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"matstrip/internal/archive"
	"matstrip/internal/stripper"
)

// Config holds the CLI's default settings, loaded once at startup and
// overridden per-invocation by flags.
type Config struct {
	Add2Archive        bool     `yaml:"add2archive"`
	Backup             bool     `yaml:"backup"`
	LowPDFQuality      bool     `yaml:"low_pdf_quality"`
	Whitelist          []string `yaml:"whitelist"`
	BeginningBlacklist []string `yaml:"beginning_blacklist"`
	EndingBlacklist    []string `yaml:"ending_blacklist"`

	// Status codes, in the teacher's style. They are loaded and merged
	// like every other field, but cmd/mat does not read them: it exits
	// with status 1 whenever any file fails.
	StatusOK                int `yaml:"status_ok"`
	StatusUnsupportedFormat int `yaml:"status_unsupported_format"`
	StatusSourceUnreadable  int `yaml:"status_source_unreadable"`
	StatusStripFailed       int `yaml:"status_strip_failed"`
}

// DefaultConfig returns the compiled-in defaults: nothing whitelisted
// or blacklisted, backups on, add2archive off, matching spec.md §6's
// CLI default behavior.
func DefaultConfig() *Config {
	return &Config{
		Add2Archive:             false,
		Backup:                  true,
		LowPDFQuality:           false,
		Whitelist:               nil,
		BeginningBlacklist:      nil,
		EndingBlacklist:         nil,
		StatusOK:                0,
		StatusUnsupportedFormat: 1,
		StatusSourceUnreadable:  2,
		StatusStripFailed:       3,
	}
}

// searchPaths returns the candidate configuration file paths, in the
// order they are tried. MATSTRIP_CONFIG, if set, is a colon-separated
// override list; otherwise the current directory and
// $XDG_CONFIG_HOME/mat are tried.
func searchPaths() []string {
	if override := os.Getenv("MATSTRIP_CONFIG"); override != "" {
		return strings.Split(override, ":")
	}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdg = filepath.Join(home, ".config")
		}
	}

	paths := []string{"./.matconfig.yml"}
	if xdg != "" {
		paths = append(paths, filepath.Join(xdg, "mat", "config.yml"))
	}
	return paths
}

// Load searches the candidate paths in order and merges the first
// readable, valid YAML file found over DefaultConfig. A missing or
// unreadable file at every candidate path is not an error: the
// defaults alone are a valid configuration.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range searchPaths() {
		f, err := os.Open(path)
		if err != nil {
			continue
		}

		loaded := DefaultConfig()
		err = yaml.NewDecoder(f).Decode(loaded)
		f.Close()
		if err != nil {
			continue
		}

		mergeConfigs(cfg, loaded)
		break
	}

	return cfg, nil
}

// mergeConfigs overlays onto dst every scalar field of src whose value
// differs from DefaultConfig, and every non-empty list field of src, so
// that a file setting e.g. backup: false still takes effect.
func mergeConfigs(dst, src *Config) {
	def := DefaultConfig()

	if src.Add2Archive != def.Add2Archive {
		dst.Add2Archive = src.Add2Archive
	}
	if src.Backup != def.Backup {
		dst.Backup = src.Backup
	}
	if src.LowPDFQuality != def.LowPDFQuality {
		dst.LowPDFQuality = src.LowPDFQuality
	}
	if len(src.Whitelist) > 0 {
		dst.Whitelist = src.Whitelist
	}
	if len(src.BeginningBlacklist) > 0 {
		dst.BeginningBlacklist = src.BeginningBlacklist
	}
	if len(src.EndingBlacklist) > 0 {
		dst.EndingBlacklist = src.EndingBlacklist
	}
	if src.StatusOK != def.StatusOK {
		dst.StatusOK = src.StatusOK
	}
	if src.StatusUnsupportedFormat != def.StatusUnsupportedFormat {
		dst.StatusUnsupportedFormat = src.StatusUnsupportedFormat
	}
	if src.StatusSourceUnreadable != def.StatusSourceUnreadable {
		dst.StatusSourceUnreadable = src.StatusSourceUnreadable
	}
	if src.StatusStripFailed != def.StatusStripFailed {
		dst.StatusStripFailed = src.StatusStripFailed
	}
}

// Policy builds the archive.Policy the CLI's default whitelist/
// blacklist settings describe.
func (c *Config) Policy() archive.Policy {
	return archive.Policy{
		Whitelist:          c.Whitelist,
		BeginningBlacklist: c.BeginningBlacklist,
		EndingBlacklist:    c.EndingBlacklist,
	}
}

// Options builds the stripper.Options the CLI's default settings
// describe, before any per-invocation flag overrides are applied.
func (c *Config) Options() stripper.Options {
	return stripper.Options{
		Add2Archive:   c.Add2Archive,
		LowPDFQuality: c.LowPDFQuality,
		Backup:        c.Backup,
		Policy:        c.Policy(),
	}
}
