// This file is part of matstrip
//
// Package stripper defines the capability every format handler, leaf or
// container, satisfies: GetMeta, IsClean, IsCleanListing, RemoveAll. It
// also carries the per-file handle state (source/output paths, scratch
// directory, options) shared by every concrete stripper.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package stripper

import (
	"os"

	"matstrip/internal/archive"
	"matstrip/internal/fsutil"
)

// Stripper is the capability every concrete format handler implements.
// No operation takes any input beyond the handle itself; there is no
// hidden global state.
type Stripper interface {
	// GetMeta returns a key/value view of metadata fields currently
	// present in the file. An empty map means nothing harmful was found.
	GetMeta() (map[string]string, error)

	// IsClean reports whether the file contains no harmful metadata.
	IsClean() (bool, error)

	// IsCleanListing returns the names of entries whose format is
	// unsupported or unknown. Meaningful only for containers; leaves
	// always return an empty slice.
	IsCleanListing() ([]string, error)

	// RemoveAll produces a sanitized sibling of the handle's source
	// file and publishes it in place. It returns true on success; a
	// false return leaves the source file untouched, except when the
	// final install fails after the original was secure-removed (no
	// backup requested; see fsutil.Publish).
	RemoveAll() (bool, error)
}

// Options is the configuration record passed to every CreateStripper
// call.
type Options struct {
	// Add2Archive includes entries of unsupported/unknown format in the
	// rebuilt archive anyway, instead of dropping them.
	Add2Archive bool

	// LowPDFQuality is forwarded to the (out-of-scope) leaf PDF
	// handler; the core never reads it.
	LowPDFQuality bool

	// Backup requests a sourcePath+".bak" sibling on every publish, at
	// every recursion depth (spec.md §4.4). Threaded unchanged through
	// every ChildFactory call alongside the rest of Options.
	Backup bool

	// Policy carries the user-configured whitelist/blacklist rules
	// (spec.md §3). Container strippers apply it directly; the
	// Terminal-ZIP specializations in zipengine build their own fixed
	// archive.Policy instead of reading this field.
	Policy archive.Policy
}

// ChildFactory constructs a Stripper for a path discovered inside a
// container, without the container package importing the registry
// package directly (which would create an import cycle: the registry
// needs to know about every container type to dispatch to it, and a
// container needs the registry to recurse). The registry injects this
// closure into every container stripper it builds.
type ChildFactory func(path string, writable bool, opts Options) (Stripper, error)

// Handle holds the per-file state common to every concrete stripper,
// matching the data model in spec.md §3.
type Handle struct {
	SourcePath string
	MIME       string
	Writable   bool
	Backup     bool
	OutputPath string
	Options    Options

	// ScratchDir is set only for container strippers.
	ScratchDir string

	// CompressionTag is set only for tar-family strippers: one of
	// "none", "gzip", "bzip2".
	CompressionTag string

	Resources *fsutil.ResourceManager
}

// NewHandle allocates a fresh, exclusively-owned output temp file (and,
// when wantScratchDir is true, a scratch directory) for sourcePath. Both
// are tracked on the returned handle's ResourceManager so that any exit
// path releases them unless RemoveAll explicitly publishes the output
// and forgets it.
func NewHandle(sourcePath, mime string, writable, backup bool, opts Options, wantScratchDir bool) (*Handle, error) {
	rm := fsutil.NewResourceManager()

	outFile, err := os.CreateTemp("", "matstrip-out-*")
	if err != nil {
		return nil, err
	}
	outPath := outFile.Name()
	outFile.Close()
	rm.TrackFile(outPath)

	h := &Handle{
		SourcePath: sourcePath,
		MIME:       mime,
		Writable:   writable,
		Backup:     backup,
		OutputPath: outPath,
		Options:    opts,
		Resources:  rm,
	}

	if wantScratchDir {
		dir, err := os.MkdirTemp("", "matstrip-scratch-*")
		if err != nil {
			rm.Release()
			return nil, err
		}
		h.ScratchDir = dir
		rm.TrackDir(dir)
	}

	return h, nil
}

// Release cleans up every scratch resource the handle owns. Safe to
// call multiple times and after a successful Publish (the output temp
// file is forgotten by Publish before Release runs).
func (h *Handle) Release() error {
	return h.Resources.Release()
}

// Publish installs h.OutputPath as the new content of h.SourcePath,
// honoring h.Backup, and stops tracking the output temp file on
// success since it no longer exists at its original path.
func (h *Handle) Publish() error {
	if err := fsutil.Publish(h.SourcePath, h.OutputPath, h.Backup); err != nil {
		return err
	}
	h.Resources.Forget(h.OutputPath)
	return nil
}
