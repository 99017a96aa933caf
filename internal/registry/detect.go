// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies which engine a path should be handled by, resolved
// by magic-byte sniffing with an extension fallback. The per-format
// leaf handlers (images, audio, PDF) are an out-of-scope external
// collaborator per spec.md §1; detect.go only needs to tell containers
// apart from each other and from "not a recognized format".
type Kind int

const (
	KindUnknown Kind = iota
	KindZip
	KindOpenDocument
	KindOfficeOpenXML
	KindTarPlain
	KindTarGzip
	KindTarBzip2
)

var (
	zipMagic    = []byte{0x50, 0x4b, 0x03, 0x04}
	gzipMagic   = []byte{0x1f, 0x8b}
	bzip2Magic  = []byte("BZh")
	odtExts     = map[string]bool{".odt": true, ".ods": true, ".odp": true, ".odg": true}
	officeExts  = map[string]bool{".docx": true, ".xlsx": true, ".pptx": true}
	tarGzExts   = map[string]bool{".tgz": true, ".tar.gz": true}
	tarBz2Exts  = map[string]bool{".tbz2": true, ".tar.bz2": true}
	plainTarExt = ".tar"
)

// Detect sniffs path's leading bytes, falling back to its extension
// when sniffing is inconclusive (an empty or very small file).
func Detect(path string) (Kind, error) {
	header, err := readHeader(path, 512)
	if err != nil {
		return KindUnknown, err
	}

	switch {
	case bytes.HasPrefix(header, zipMagic):
		return detectZipFlavor(path), nil
	case bytes.HasPrefix(header, gzipMagic):
		return KindTarGzip, nil
	case bytes.HasPrefix(header, bzip2Magic):
		return KindTarBzip2, nil
	case looksLikeTar(header):
		return KindTarPlain, nil
	}

	return detectByExtension(path), nil
}

func detectZipFlavor(path string) Kind {
	lower := strings.ToLower(path)
	ext := filepath.Ext(lower)
	if odtExts[ext] {
		return KindOpenDocument
	}
	if officeExts[ext] {
		return KindOfficeOpenXML
	}
	return KindZip
}

func detectByExtension(path string) Kind {
	lower := strings.ToLower(path)
	ext := filepath.Ext(lower)

	switch {
	case odtExts[ext]:
		return KindOpenDocument
	case officeExts[ext]:
		return KindOfficeOpenXML
	case ext == ".zip":
		return KindZip
	case tarGzExts[ext] || strings.HasSuffix(lower, ".tar.gz"):
		return KindTarGzip
	case tarBz2Exts[ext] || strings.HasSuffix(lower, ".tar.bz2"):
		return KindTarBzip2
	case ext == plainTarExt:
		return KindTarPlain
	}
	return KindUnknown
}

// looksLikeTar checks for the "ustar" magic at offset 257, present in
// every POSIX tar header regardless of what precedes it.
func looksLikeTar(header []byte) bool {
	const ustarOffset = 257
	if len(header) < ustarOffset+5 {
		return false
	}
	return bytes.Equal(header[ustarOffset:ustarOffset+5], []byte("ustar"))
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && read == 0 {
		// An empty file sniffs as nothing; let extension-based
		// detection decide instead of failing the whole lookup.
		return nil, nil
	}
	return buf[:read], nil
}
