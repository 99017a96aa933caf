// This file is part of matstrip
//
// Package registry is the dispatch layer (spec.md C3): given a path, it
// decides which concrete Stripper handles it and builds one, injecting
// a ChildFactory closure so container strippers can recurse without
// importing this package themselves.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package registry

import (
	"errors"

	"matstrip/internal/archive/tarengine"
	"matstrip/internal/archive/zipengine"
	"matstrip/internal/fsutil"
	"matstrip/internal/stripper"
)

// ErrUnsupported is returned by CreateStripper when no constructor
// matches path. Callers translate this into spec.md §4.2's "unsupported
// or harmless format" outcome.
var ErrUnsupported = errors.New("registry: no stripper registered for this format")

// CreateStripper resolves path to a Kind and builds the matching
// Stripper, wiring itself in as the ChildFactory so any container the
// new Stripper encounters recurses back through this same function.
// writable is recorded on the handle; every container handle gets a
// scratch directory regardless of it, since IsClean and GetMeta extract
// entries just as RemoveAll does. opts.Policy is the caller's whitelist/
// blacklist configuration, overridden by a fixed policy for the
// Terminal-ZIP specializations.
func CreateStripper(path string, writable bool, opts stripper.Options) (stripper.Stripper, error) {
	if err := fsutil.ValidateReadable(path); err != nil {
		return nil, stripper.NewStripError("CreateStripper", path, stripper.ErrUnreadableSource, err)
	}

	kind, err := Detect(path)
	if err != nil {
		return nil, stripper.NewStripError("CreateStripper", path, stripper.ErrUnreadableSource, err)
	}

	switch kind {
	case KindZip:
		h, err := newHandle(path, "application/zip", writable, opts, true)
		if err != nil {
			return nil, err
		}
		return zipengine.New(h, opts.Policy, CreateStripper), nil

	case KindOpenDocument:
		h, err := newHandle(path, "application/vnd.oasis.opendocument", writable, opts, true)
		if err != nil {
			return nil, err
		}
		return zipengine.NewOpenDocument(h, CreateStripper), nil

	case KindOfficeOpenXML:
		h, err := newHandle(path, "application/vnd.openxmlformats-officedocument", writable, opts, true)
		if err != nil {
			return nil, err
		}
		return zipengine.NewOfficeOpenXML(h, CreateStripper), nil

	case KindTarPlain, KindTarGzip, KindTarBzip2:
		h, err := newHandle(path, "application/x-tar", writable, opts, true)
		if err != nil {
			return nil, err
		}
		h.CompressionTag = compressionTagFor(kind)
		return tarengine.New(h, opts.Policy, CreateStripper), nil

	default:
		return nil, ErrUnsupported
	}
}

func compressionTagFor(kind Kind) string {
	switch kind {
	case KindTarGzip:
		return tarengine.CompressionGzip
	case KindTarBzip2:
		return tarengine.CompressionBzip2
	default:
		return tarengine.CompressionNone
	}
}

func newHandle(path, mime string, writable bool, opts stripper.Options, wantScratchDir bool) (*stripper.Handle, error) {
	h, err := stripper.NewHandle(path, mime, writable, opts.Backup, opts, wantScratchDir)
	if err != nil {
		return nil, stripper.NewStripError("CreateStripper", path, stripper.ErrWriteFailure, err)
	}
	return h, nil
}
