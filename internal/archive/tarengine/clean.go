// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package tarengine

import (
	"archive/tar"
	"fmt"
	"io"

	"matstrip/internal/archive"
	"matstrip/internal/stripper"
)

// IsClean implements the cleanliness walk of spec.md §4.6/§8 property 2.
func (s *Stripper) IsClean() (bool, error) {
	clean, _, err := s.walkClean(false)
	return clean, err
}

// IsCleanListing returns the names of entries whose format is
// unsupported or unknown, following the ZIP convention uniformly per
// SPEC_FULL's resolution of Open Question 3.
func (s *Stripper) IsCleanListing() ([]string, error) {
	_, list, err := s.walkClean(true)
	return list, err
}

func (s *Stripper) walkClean(listUnsupported bool) (bool, []string, error) {
	var unsupported []string

	tr, rc, err := s.openReader()
	if err != nil {
		return false, nil, stripper.NewStripError("IsClean", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer rc.Close()

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, nil, stripper.NewStripError("IsClean", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
		}

		if !envelopeClean(hdr) && !listUnsupported {
			return false, nil, nil
		}

		extracted, err := extractEntry(hdr, tr, s.Handle.ScratchDir)
		if err != nil {
			return false, nil, stripper.NewStripError("IsClean", hdr.Name, stripper.ErrCorruptContainer, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		child, cerr := s.Child(extracted, false, s.Handle.Options)
		if cerr == nil && (!s.Policy.Terminal || !stripper.IsContainer(child)) {
			ok, err := child.IsClean()
			if err != nil {
				return false, nil, err
			}
			if !ok && !listUnsupported {
				return false, nil, nil
			}
			continue
		}

		if archive.HarmlessExtension(hdr.Name) {
			continue
		}
		if !listUnsupported {
			return false, nil, nil
		}
		unsupported = append(unsupported, hdr.Name)
	}

	if listUnsupported {
		return true, unsupported, nil
	}
	return true, nil, nil
}

func envelopeClean(hdr *tar.Header) bool {
	return hdr.ModTime.Equal(archive.TarEpoch) &&
		hdr.Uid == 0 &&
		hdr.Gid == 0 &&
		hdr.Uname == "" &&
		hdr.Gname == ""
}

// GetMeta returns a key/value view of every entry whose envelope
// deviates from the normalized sentinels, plus each recognized regular
// file's own metadata.
func (s *Stripper) GetMeta() (map[string]string, error) {
	meta := map[string]string{}

	tr, rc, err := s.openReader()
	if err != nil {
		return nil, stripper.NewStripError("GetMeta", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer rc.Close()

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stripper.NewStripError("GetMeta", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
		}

		extracted, err := extractEntry(hdr, tr, s.Handle.ScratchDir)
		if err != nil {
			return nil, stripper.NewStripError("GetMeta", hdr.Name, stripper.ErrCorruptContainer, err)
		}

		current := map[string]string{}
		if hdr.Typeflag == tar.TypeReg {
			child, cerr := s.Child(extracted, false, s.Handle.Options)
			if cerr == nil {
				childMeta, err := child.GetMeta()
				if err != nil {
					return nil, err
				}
				if len(childMeta) > 0 {
					current["file"] = fmt.Sprintf("%v", childMeta)
				}
			}
		}

		if !envelopeClean(hdr) {
			current["mtime"] = hdr.ModTime.String()
			current["uid"] = fmt.Sprintf("%d", hdr.Uid)
			current["gid"] = fmt.Sprintf("%d", hdr.Gid)
			current["uname"] = hdr.Uname
			current["gname"] = hdr.Gname
		}

		if len(current) > 0 {
			meta[hdr.Name] = fmt.Sprintf("%v", current)
		}
	}

	return meta, nil
}
