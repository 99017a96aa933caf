// This file is part of matstrip
package zipengine

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"matstrip/internal/stripper"
)

func writeZipWithEntries(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestOpenDocumentIsCleanRejectsPresentMetaXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	writeZipWithEntries(t, path, map[string]string{"content.xml": "<x/>", "meta.xml": "<author>leak</author>"})

	h := newHandleFor(t, path, stripper.Options{Add2Archive: true})
	s := NewOpenDocument(h, noChild)

	clean, err := s.IsClean()
	require.NoError(t, err)
	require.False(t, clean)
}

func TestOpenDocumentRemoveAllStripsMetaXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	writeZipWithEntries(t, path, map[string]string{"content.xml": "<x/>", "meta.xml": "<author>leak</author>"})

	h := newHandleFor(t, path, stripper.Options{Add2Archive: true})
	s := NewOpenDocument(h, noChild)

	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, entry := range zr.File {
		require.NotEqual(t, "meta.xml", entry.Name)
	}
}

func TestOfficeOpenXMLIsCleanRejectsDocPropsPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	writeZipWithEntries(t, path, map[string]string{
		"word/document.xml": "<x/>",
		"docProps/core.xml": "<author>leak</author>",
		"_rels/.rels":       "<rels/>",
	})

	h := newHandleFor(t, path, stripper.Options{Add2Archive: true})
	s := NewOfficeOpenXML(h, noChild)

	clean, err := s.IsClean()
	require.NoError(t, err)
	require.False(t, clean)
}

func TestOfficeOpenXMLRemoveAllDropsDocPropsButKeepsRels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	writeZipWithEntries(t, path, map[string]string{
		"word/document.xml": "<x/>",
		"docProps/core.xml": "<author>leak</author>",
		"_rels/.rels":       "<rels/>",
	})

	h := newHandleFor(t, path, stripper.Options{})
	s := NewOfficeOpenXML(h, noChild)

	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]bool{}
	for _, entry := range zr.File {
		names[entry.Name] = true
	}
	require.False(t, names["docProps/core.xml"])
	require.True(t, names["_rels/.rels"])
}
