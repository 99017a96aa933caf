// This file is part of matstrip
package registry

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"matstrip/internal/stripper"
)

func writeMinimalZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func writeMinimalTarGz(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "a.txt", Size: 2, Mode: 0o644, Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestDetectRecognizesZipByMagicBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-extension-hint")
	writeMinimalZip(t, path)

	kind, err := Detect(path)
	require.NoError(t, err)
	require.Equal(t, KindZip, kind)
}

func TestDetectRecognizesODTExtensionOverGenericZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.odt")
	writeMinimalZip(t, path)

	kind, err := Detect(path)
	require.NoError(t, err)
	require.Equal(t, KindOpenDocument, kind)
}

func TestDetectRecognizesTarGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.tar.gz")
	writeMinimalTarGz(t, path)

	kind, err := Detect(path)
	require.NoError(t, err)
	require.Equal(t, KindTarGzip, kind)
}

func TestDetectUnknownForUnrecognizedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644))

	kind, err := Detect(path)
	require.NoError(t, err)
	require.Equal(t, KindUnknown, kind)
}

func TestCreateStripperReturnsErrUnsupportedForUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644))

	_, err := CreateStripper(path, true, stripper.Options{})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestCreateStripperBuildsAWorkingZipStripper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	writeMinimalZip(t, path)

	s, err := CreateStripper(path, true, stripper.Options{Add2Archive: true})
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.(interface{ Release() error }).Release()

	ok, err := s.RemoveAll()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestListSupportedFormatsReturnsACopy(t *testing.T) {
	a := ListSupportedFormats()
	a[0].MIME = "mutated"

	b := ListSupportedFormats()
	require.NotEqual(t, "mutated", b[0].MIME)
}
