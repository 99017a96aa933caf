// This file is part of matstrip
//
// Terminal-ZIP specializations (spec.md C7 / §4.7): ZIP containers
// whose entries are never themselves containers, used for OpenDocument
// and Office OpenXML formats.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package zipengine

import (
	"archive/zip"
	"strings"

	"matstrip/internal/archive"
	"matstrip/internal/stripper"
)

// OpenDocumentPolicy returns the policy for .odt/.ods/.odp-family
// files: meta.xml is never re-added.
func OpenDocumentPolicy() archive.Policy {
	return archive.Policy{
		EndingBlacklist: []string{"meta.xml"},
		Terminal:        true,
	}
}

// OfficeOpenXMLPolicy returns the policy for .docx/.xlsx/.pptx-family
// files: docProps/ is never re-added, and any .rels entry is always
// re-added regardless of format support.
func OfficeOpenXMLPolicy() archive.Policy {
	return archive.Policy{
		BeginningBlacklist: []string{"docProps/"},
		Whitelist:          []string{".rels"},
		Terminal:           true,
	}
}

// OpenDocumentStripper is an OpenDocument-flavored Terminal-ZIP.
type OpenDocumentStripper struct {
	*Stripper
}

// NewOpenDocument builds an OpenDocument stripper for h.
func NewOpenDocument(h *stripper.Handle, child stripper.ChildFactory) *OpenDocumentStripper {
	return &OpenDocumentStripper{Stripper: New(h, OpenDocumentPolicy(), child)}
}

// IsClean additionally requires the absence of a meta.xml entry, per
// spec.md §4.7.
func (s *OpenDocumentStripper) IsClean() (bool, error) {
	clean, err := s.Stripper.IsClean()
	if err != nil || !clean {
		return false, err
	}
	has, err := s.hasEntry("meta.xml")
	if err != nil {
		return false, err
	}
	return !has, nil
}

// OfficeOpenXMLStripper is an Office-OpenXML-flavored Terminal-ZIP.
type OfficeOpenXMLStripper struct {
	*Stripper
}

// NewOfficeOpenXML builds an Office OpenXML stripper for h.
func NewOfficeOpenXML(h *stripper.Handle, child stripper.ChildFactory) *OfficeOpenXMLStripper {
	return &OfficeOpenXMLStripper{Stripper: New(h, OfficeOpenXMLPolicy(), child)}
}

// IsClean additionally requires the absence of any docProps/-prefixed
// entry, per spec.md §4.7.
func (s *OfficeOpenXMLStripper) IsClean() (bool, error) {
	clean, err := s.Stripper.IsClean()
	if err != nil || !clean {
		return false, err
	}
	has, err := s.hasEntryPrefix("docProps/")
	if err != nil {
		return false, err
	}
	return !has, nil
}

func (s *Stripper) hasEntry(name string) (bool, error) {
	zr, err := zip.OpenReader(s.Handle.SourcePath)
	if err != nil {
		return false, stripper.NewStripError("IsClean", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer zr.Close()
	for _, entry := range zr.File {
		if entry.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *Stripper) hasEntryPrefix(prefix string) (bool, error) {
	zr, err := zip.OpenReader(s.Handle.SourcePath)
	if err != nil {
		return false, stripper.NewStripError("IsClean", s.Handle.SourcePath, stripper.ErrCorruptContainer, err)
	}
	defer zr.Close()
	for _, entry := range zr.File {
		if strings.HasPrefix(entry.Name, prefix) {
			return true, nil
		}
	}
	return false, nil
}
