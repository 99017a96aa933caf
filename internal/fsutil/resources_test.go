// This file is part of matstrip
package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceManagerReleasesTrackedFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scratch.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	rm := NewResourceManager()
	rm.TrackFile(file)
	rm.TrackDir(sub)
	require.Equal(t, 2, rm.Count())

	require.NoError(t, rm.Release())
	require.Equal(t, 0, rm.Count())

	_, err := os.Stat(file)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(sub)
	require.True(t, os.IsNotExist(err))
}

func TestResourceManagerForgetStopsTrackingWithoutReleasing(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "published.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	rm := NewResourceManager()
	rm.TrackFile(file)
	rm.Forget(file)
	require.Equal(t, 0, rm.Count())

	require.NoError(t, rm.Release())

	_, err := os.Stat(file)
	require.NoError(t, err, "Forget must leave the file untouched")
}

func TestResourceManagerReleaseContinuesPastIndividualFailures(t *testing.T) {
	rm := NewResourceManager()
	// A directory tracked as a file cannot be opened for writing, so
	// its SecureRemove fails.
	rm.TrackFile(t.TempDir())

	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0o644))
	rm.TrackFile(real)

	require.Error(t, rm.Release())

	_, err := os.Stat(real)
	require.True(t, os.IsNotExist(err), "a resource that fails to release must not block releasing the rest")
}
