// This file is part of matstrip
//
// Package zipengine implements the ZIP container engine (spec.md C5):
// iterate entries, recurse into each via an injected child factory,
// rebuild the archive with normalized envelope metadata, and the
// matching cleanliness check.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package zipengine

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"matstrip/internal/archive"
	"matstrip/internal/fsutil"
	"matstrip/internal/obslog"
	"matstrip/internal/stripper"
)

// Stripper is the ZIP-family Stripper (also used, with a different
// Policy, by the Terminal-ZIP specialization in terminal.go).
type Stripper struct {
	Handle *stripper.Handle
	Policy archive.Policy
	Child  stripper.ChildFactory
}

// New builds a ZIP stripper for an already-allocated handle.
func New(h *stripper.Handle, policy archive.Policy, child stripper.ChildFactory) *Stripper {
	return &Stripper{Handle: h, Policy: policy, Child: child}
}

// IsContainerFormat marks Stripper as a container for the Terminal-ZIP
// recursion guard (spec.md §4.7).
func (s *Stripper) IsContainerFormat() bool { return true }

// Release cleans up the scratch directory and any unpublished output
// temp file the handle owns.
func (s *Stripper) Release() error { return s.Handle.Release() }

// RemoveAll rebuilds the archive with every entry's envelope normalized
// and every recognized entry replaced by its own sanitized bytes, then
// publishes the result over the source file.
func (s *Stripper) RemoveAll() (bool, error) {
	zr, err := zip.OpenReader(s.Handle.SourcePath)
	if err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer zr.Close()

	out, err := os.Create(s.Handle.OutputPath)
	if err != nil {
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}

	zw := zip.NewWriter(out)
	if err := zw.SetComment(""); err != nil {
		zw.Close()
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, stripper.NewStripError("RemoveAll", s.Handle.SourcePath, stripper.ErrWriteFailure, err)
	}

	if err := s.rebuildEntries(zr, zw); err != nil {
		zw.Close()
		out.Close()
		obslog.WholeFileFailure(s.Handle.SourcePath, err)
		return false, err
	}

	if err := zw.Close(); err != nil {
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

func (s *Stripper) rebuildEntries(zr *zip.ReadCloser, zw *zip.Writer) error {
	for _, entry := range zr.File {
		name := entry.Name

		if s.Policy.Blacklisted(name) {
			obslog.EntrySkipped(s.Handle.SourcePath, name, "blacklisted entry")
			continue
		}

		extracted, mode, err := extractEntry(entry, s.Handle.ScratchDir)
		if err != nil {
			return stripper.NewStripError("RemoveAll", name, stripper.ErrCorruptContainer, err)
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		keep, sanitized, err := s.resolveEntry(extracted, mode, name)
		if err != nil {
			return err
		}
		if !keep {
			obslog.EntrySkipped(s.Handle.SourcePath, name, "unsupported format, not kept by policy")
			continue
		}

		if err := writeNormalizedEntry(zw, name, extracted, sanitized); err != nil {
			return stripper.NewStripError("RemoveAll", name, stripper.ErrWriteFailure, err)
		}
	}
	return nil
}

// resolveEntry runs the child factory against an extracted entry and
// applies the shared passthrough policy from archive.Policy. It returns
// whether the entry should be kept, and whether it was itself sanitized
// (as opposed to copied through unchanged).
// resolveEntry recurses into extracted through the child factory. A
// nested container starts from a zero archive.Policy rather than
// inheriting the caller's whitelist/blacklist: only the fixed,
// hardcoded policy of a Terminal-ZIP specialization survives past one
// recursion level (matching the reference implementation, where every
// nested remove_all() call takes no policy arguments of its own).
func (s *Stripper) resolveEntry(extracted string, mode os.FileMode, name string) (keep, sanitized bool, err error) {
	childOpts := s.Handle.Options
	childOpts.Policy = archive.Policy{}
	child, cerr := s.Child(extracted, true, childOpts)
	if cerr == nil && (!s.Policy.Terminal || !stripper.IsContainer(child)) {
		if err := os.Chmod(extracted, mode|0o200); err != nil {
			return false, false, stripper.NewStripError("RemoveAll", name, stripper.ErrWriteFailure, err)
		}
		ok, rerr := child.RemoveAll()
		_ = os.Chmod(extracted, mode)
		if rerr != nil || !ok {
			obslog.NestedFailure(s.Handle.SourcePath, name, rerr)
			return false, false, stripper.NewStripError("RemoveAll", name, stripper.ErrNestedFailure, rerr)
		}
		return true, true, nil
	}

	// No stripper matched (or a terminal archive refused to recurse
	// into a nested container): fall back to NOMETA/whitelist/
	// add2archive.
	return s.Policy.KeepUnsupported(name, s.Handle.Options.Add2Archive), false, nil
}

func extractEntry(entry *zip.File, scratchDir string) (path string, mode os.FileMode, err error) {
	safe := fsutil.SanitizeEntryPath(entry.Name)
	target := filepath.Join(scratchDir, safe)

	if entry.FileInfo().IsDir() {
		return target, entry.Mode(), os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", 0, err
	}

	rc, err := entry.Open()
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()

	mode = entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return "", 0, err
	}
	return target, mode, nil
}

// writeNormalizedEntry appends path's current bytes into zw under name,
// with envelope metadata fixed to the sentinels in spec.md §6.4.
func writeNormalizedEntry(zw *zip.Writer, name, path string, wasSanitized bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if info.IsDir() {
		return nil
	}

	fh := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archive.ZipEpoch,
		Comment:  "",
	}
	// High byte of CreatorVersion is the "version made by" host system;
	// force it to UNIX (3) regardless of what produced the source
	// entry or what wasSanitized happens to be.
	fh.CreatorVersion = (archive.ZipHostUnix << 8) | 20

	w, err := zw.CreateHeader(fh)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	_ = wasSanitized // kept for readability at call sites; no branch needed here
	return err
}

// IsClean implements the cleanliness walk of spec.md §4.5's
// "Cleanliness check", including the {"mimetype", ".rels"} basename
// exemption and the terminal-recursion guard inherited from Policy.
func (s *Stripper) IsClean() (bool, error) {
	clean, _, err := s.walkClean(false)
	return clean, err
}

// IsCleanListing returns the names of entries whose format is
// unsupported or unknown, per spec.md §4.1 ("meaningful only for
// containers"). It follows the ZIP convention uniformly, per SPEC_FULL's
// resolution of Open Question 3: any unsupported entry is listed,
// whether or not it happens to be an archive itself.
func (s *Stripper) IsCleanListing() ([]string, error) {
	_, list, err := s.walkClean(true)
	return list, err
}

func (s *Stripper) walkClean(listUnsupported bool) (bool, []string, error) {
	var unsupported []string

	zr, err := zip.OpenReader(s.Handle.SourcePath)
	if err != nil {
		return false, nil, stripper.NewStripError("IsClean", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer zr.Close()

	if zr.Comment != "" && !listUnsupported {
		return false, nil, nil
	}

	for _, entry := range zr.File {
		extracted, _, err := extractEntry(entry, s.Handle.ScratchDir)
		if err != nil {
			return false, nil, stripper.NewStripError("IsClean", entry.Name, stripper.ErrCorruptContainer, err)
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		if !entryEnvelopeClean(entry) && !listUnsupported {
			return false, nil, nil
		}

		child, cerr := s.Child(extracted, false, s.Handle.Options)
		if cerr == nil && (!s.Policy.Terminal || !stripper.IsContainer(child)) {
			ok, err := child.IsClean()
			if err != nil {
				return false, nil, err
			}
			if !ok {
				if !listUnsupported {
					return false, nil, nil
				}
			}
			continue
		}

		base := filepath.Base(entry.Name)
		if base == "mimetype" || base == ".rels" {
			continue
		}
		if archive.HarmlessExtension(entry.Name) {
			continue
		}
		if !listUnsupported {
			return false, nil, nil
		}
		unsupported = append(unsupported, entry.Name)
	}

	if listUnsupported {
		return true, unsupported, nil
	}
	return true, nil, nil
}

func entryEnvelopeClean(entry *zip.File) bool {
	if entry.Comment != "" {
		return false
	}
	if !entry.Modified.Equal(archive.ZipEpoch) {
		return false
	}
	if entry.CreatorVersion>>8 != archive.ZipHostUnix {
		return false
	}
	return true
}

// GetMeta returns a key/value view of the archive's own metadata:
// archive comment and any entry whose envelope deviates from the
// normalized sentinels, plus every nested entry's own metadata.
func (s *Stripper) GetMeta() (map[string]string, error) {
	meta := map[string]string{}

	zr, err := zip.OpenReader(s.Handle.SourcePath)
	if err != nil {
		return nil, stripper.NewStripError("GetMeta", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer zr.Close()

	if zr.Comment != "" {
		meta["comment"] = zr.Comment
	}

	for _, entry := range zr.File {
		if !entryEnvelopeClean(entry) {
			meta[entry.Name+"'s zipinfo"] = fmt.Sprintf("modified=%s comment=%q", entry.Modified, entry.Comment)
		}

		extracted, _, err := extractEntry(entry, s.Handle.ScratchDir)
		if err != nil {
			return nil, stripper.NewStripError("GetMeta", entry.Name, stripper.ErrCorruptContainer, err)
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		child, cerr := s.Child(extracted, false, s.Handle.Options)
		if cerr != nil || (s.Policy.Terminal && stripper.IsContainer(child)) {
			continue
		}
		childMeta, err := child.GetMeta()
		if err != nil {
			return nil, err
		}
		if len(childMeta) > 0 {
			meta[entry.Name] = fmt.Sprintf("%v", childMeta)
		}
	}

	return meta, nil
}
