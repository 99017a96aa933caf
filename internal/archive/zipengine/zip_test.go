// This file is part of matstrip
package zipengine

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"matstrip/internal/archive"
	"matstrip/internal/stripper"
)

// noChild always declines: no stripper recognizes any nested path. It
// exercises the NOMETA/whitelist/add2archive passthrough path without
// pulling in the registry package (which would import zipengine back).
func noChild(path string, writable bool, opts stripper.Options) (stripper.Stripper, error) {
	return nil, stripper.ErrUnsupportedFormat
}

func writeDirtyZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	require.NoError(t, zw.SetComment("leaked author info"))

	fh := &zip.FileHeader{Name: "readme.txt", Modified: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)}
	fh.SetMode(0o644)
	w, err := zw.CreateHeader(fh)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
}

func newHandleFor(t *testing.T, path string, opts stripper.Options) *stripper.Handle {
	t.Helper()
	h, err := stripper.NewHandle(path, "application/zip", true, opts.Backup, opts, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Release() })
	return h
}

func TestZipIsCleanFalseForDirtyArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirty.zip")
	writeDirtyZip(t, path)

	h := newHandleFor(t, path, stripper.Options{})
	s := New(h, archive.Policy{}, noChild)

	clean, err := s.IsClean()
	require.NoError(t, err)
	require.False(t, clean)
}

func TestZipRemoveAllNormalizesEnvelopeAndPreservesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirty.zip")
	writeDirtyZip(t, path)

	opts := stripper.Options{Add2Archive: true}
	h := newHandleFor(t, path, opts)
	s := New(h, archive.Policy{}, noChild)

	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	require.Equal(t, "", zr.Comment)
	require.Len(t, zr.File, 1)
	entry := zr.File[0]
	require.True(t, entry.Modified.Equal(archive.ZipEpoch))
	require.Equal(t, uint16(archive.ZipHostUnix), entry.CreatorVersion>>8)

	rc, err := entry.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))
}

func TestZipIsCleanTrueAfterRemoveAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirty.zip")
	writeDirtyZip(t, path)

	opts := stripper.Options{Add2Archive: true}
	h := newHandleFor(t, path, opts)
	s := New(h, archive.Policy{}, noChild)
	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	h2 := newHandleFor(t, path, opts)
	s2 := New(h2, archive.Policy{}, noChild)
	clean, err := s2.IsClean()
	require.NoError(t, err)
	require.True(t, clean)
}

func TestZipRemoveAllDropsUnsupportedEntryWithoutAdd2Archive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("photo.jpg")
	require.NoError(t, err)
	_, err = w.Write([]byte("binarydata"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	h := newHandleFor(t, path, stripper.Options{})
	s := New(h, archive.Policy{}, noChild)
	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 0)
}

func TestZipBlacklistedEntryIsDroppedBeforeExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("secret/leak.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	policy := archive.Policy{BeginningBlacklist: []string{"secret/"}}
	h := newHandleFor(t, path, stripper.Options{Policy: policy})
	s := New(h, policy, noChild)
	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 0)
}
