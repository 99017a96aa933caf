// This file is part of matstrip
//
// Package fsutil provides the filesystem primitives the sanitizer core
// builds on: secure deletion, scoped temp-resource tracking, atomic
// publication of a sanitized sibling, and archive-entry path hygiene.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package fsutil

import (
	"io"
	"os"
)

// zeroChunk is reused across SecureRemove calls to avoid reallocating a
// zero-filled buffer for every file.
var zeroChunk = make([]byte, 64*1024)

// SecureRemove overwrites path's current length with zero bytes, flushes,
// then unlinks it. It is a best-effort measure: storage that remaps
// blocks underneath the filesystem (SSD wear-leveling, copy-on-write
// filesystems, snapshots) can still retain the original bytes.
func SecureRemove(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	if err := overwriteZero(f, info.Size()); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

func overwriteZero(f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var written int64
	for written < size {
		n := int64(len(zeroChunk))
		if remaining := size - written; remaining < n {
			n = remaining
		}
		if _, err := f.Write(zeroChunk[:n]); err != nil {
			return err
		}
		written += n
	}
	return nil
}

// SecureRemoveTree walks dir, secure-removing every regular file before
// removing the directory tree itself. Used to release a stripper's
// scratch directory per the data model's invariant that every regular
// file it contains is secure-removed before the directory goes away.
func SecureRemoveTree(dir string) error {
	if _, err := os.Lstat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	err := walkFiles(dir, func(path string) error {
		return SecureRemove(path)
	})
	if err != nil {
		return err
	}

	return os.RemoveAll(dir)
}

func walkFiles(root string, fn func(path string) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		full := root + string(os.PathSeparator) + entry.Name()
		if entry.IsDir() {
			if err := walkFiles(full, fn); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			if err := fn(full); err != nil {
				return err
			}
		}
	}
	return nil
}
