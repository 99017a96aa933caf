// This file is part of matstrip
//
// Package tarengine implements the POSIX tar container engine (spec.md
// C6): the same recursive shape as zipengine, with tar envelope
// semantics and optional gzip/bzip2 compression.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package tarengine

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"

	"matstrip/internal/archive"
	"matstrip/internal/fsutil"
	"matstrip/internal/obslog"
	"matstrip/internal/stripper"
)

// CompressionNone, CompressionGzip and CompressionBzip2 are the three
// compression tags from spec.md §3/§4.6.
const (
	CompressionNone  = "none"
	CompressionGzip  = "gzip"
	CompressionBzip2 = "bzip2"
)

// Stripper is the TAR-family Stripper.
type Stripper struct {
	Handle *stripper.Handle
	Policy archive.Policy
	Child  stripper.ChildFactory
}

// New builds a TAR stripper for an already-allocated handle. The
// handle's CompressionTag selects the read/write stream mode.
func New(h *stripper.Handle, policy archive.Policy, child stripper.ChildFactory) *Stripper {
	return &Stripper{Handle: h, Policy: policy, Child: child}
}

// IsContainerFormat marks Stripper as a container.
func (s *Stripper) IsContainerFormat() bool { return true }

// Release cleans up the scratch directory and any unpublished output
// temp file the handle owns.
func (s *Stripper) Release() error { return s.Handle.Release() }

func (s *Stripper) openReader() (*tar.Reader, io.Closer, error) {
	f, err := os.Open(s.Handle.SourcePath)
	if err != nil {
		return nil, nil, err
	}

	switch s.Handle.CompressionTag {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return tar.NewReader(gz), multiCloser{gz, f}, nil
	case CompressionBzip2:
		// compress/bzip2 is decode-only in the standard library; that
		// is sufficient for reading, and matches nabbar-golib's own
		// archive/bz2 reader, which uses the same stdlib package.
		return tar.NewReader(bzip2.NewReader(f)), f, nil
	default:
		return tar.NewReader(f), f, nil
	}
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Stripper) openWriter(out io.Writer) (*tar.Writer, io.Closer, error) {
	switch s.Handle.CompressionTag {
	case CompressionGzip:
		gz := gzip.NewWriter(out)
		return tar.NewWriter(gz), gz, nil
	case CompressionBzip2:
		// The standard library cannot write bzip2; dsnet/compress is
		// the library nabbar-golib/archive/compress wires for the same
		// gap, so matstrip uses it too rather than inventing its own.
		bz, err := dsnetbzip2.NewWriter(out, nil)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewWriter(bz), bz, nil
	default:
		return tar.NewWriter(out), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RemoveAll rebuilds the tarball with every entry's envelope zeroed and
// every recognized regular file replaced by its own sanitized bytes.
func (s *Stripper) RemoveAll() (bool, error) {
	tr, rc, err := s.openReader()
	if err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer rc.Close()

	out, err := os.Create(s.Handle.OutputPath)
	if err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}

	tw, wc, err := s.openWriter(out)
	if err != nil {
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}

	if err := s.rebuildEntries(tr, tw); err != nil {
		tw.Close()
		wc.Close()
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, err
	}

	if err := tw.Close(); err != nil {
		wc.Close()
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}
	if err := wc.Close(); err != nil {
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}
	if err := out.Close(); err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}

	if err := s.Handle.Publish(); err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrPublicationFailure, err)
	}
	return true, nil
}

func (s *Stripper) rebuildEntries(tr *tar.Reader, tw *tar.Writer) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
		}

		name := hdr.Name

		if s.Policy.Blacklisted(name) {
			obslog.EntrySkipped(s.Handle.SourcePath, name, "blacklisted entry")
			continue
		}

		extracted, err := extractEntry(hdr, tr, s.Handle.ScratchDir)
		if err != nil {
			return stripper.NewStripError("RemoveAll", name, stripper.ErrCorruptContainer, err)
		}

		zeroEnvelope(hdr)

		if hdr.Typeflag != tar.TypeReg {
			if err := tw.WriteHeader(hdr); err != nil {
				return stripper.NewStripError("RemoveAll", name, stripper.ErrWriteFailure, err)
			}
			continue
		}

		keep, err := s.resolveEntry(extracted, os.FileMode(hdr.Mode), name)
		if err != nil {
			return err
		}
		if !keep {
			obslog.EntrySkipped(s.Handle.SourcePath, name, "unsupported format, not kept by policy")
			continue
		}

		if err := writeNormalizedEntry(tw, hdr, extracted); err != nil {
			return stripper.NewStripError("RemoveAll", name, stripper.ErrWriteFailure, err)
		}
	}
}

// resolveEntry recurses into extracted through the child factory. A
// nested container starts from a zero archive.Policy rather than
// inheriting the caller's whitelist/blacklist: only the fixed,
// hardcoded policy of a Terminal-ZIP specialization survives past one
// recursion level (matching the reference implementation, where every
// nested remove_all() call takes no policy arguments of its own).
func (s *Stripper) resolveEntry(extracted string, mode os.FileMode, name string) (bool, error) {
	childOpts := s.Handle.Options
	childOpts.Policy = archive.Policy{}
	child, cerr := s.Child(extracted, true, childOpts)
	if cerr == nil && (!s.Policy.Terminal || !stripper.IsContainer(child)) {
		if err := os.Chmod(extracted, mode|0o200); err != nil {
			return false, stripper.NewStripError("RemoveAll", name, stripper.ErrWriteFailure, err)
		}
		ok, rerr := child.RemoveAll()
		_ = os.Chmod(extracted, mode)
		if rerr != nil || !ok {
			obslog.NestedFailure(s.Handle.SourcePath, name, rerr)
			return false, stripper.NewStripError("RemoveAll", name, stripper.ErrNestedFailure, rerr)
		}
		return true, nil
	}

	return s.Policy.KeepUnsupported(name, s.Handle.Options.Add2Archive), nil
}

func extractEntry(hdr *tar.Header, tr *tar.Reader, scratchDir string) (string, error) {
	safe := fsutil.SanitizeEntryPath(hdr.Name)
	target := filepath.Join(scratchDir, safe)

	switch hdr.Typeflag {
	case tar.TypeDir:
		return target, os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		mode := os.FileMode(hdr.Mode).Perm()
		if mode == 0 {
			mode = 0o644
		}
		f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return "", err
		}
		defer f.Close()
		_, err = io.Copy(f, tr)
		return target, err
	default:
		// Symlinks, devices, etc: not recursed, re-added with a
		// normalized envelope only (spec.md §4.6).
		return target, nil
	}
}

// zeroEnvelope clears the per-entry metadata tarfile itself would
// otherwise carry, per spec.md §6.5.
func zeroEnvelope(hdr *tar.Header) {
	hdr.ModTime = archive.TarEpoch
	hdr.AccessTime = archive.TarEpoch
	hdr.ChangeTime = archive.TarEpoch
	hdr.Uid = 0
	hdr.Gid = 0
	hdr.Uname = ""
	hdr.Gname = ""
}

func writeNormalizedEntry(tw *tar.Writer, hdr *tar.Header, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr.Size = info.Size()

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
