// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package fsutil

import (
	"fmt"
	"sync"
)

// Resource is anything a stripper handle needs released on every exit
// path, success or failure.
type Resource interface {
	Release() error
	String() string
}

// TempFile is a scratch file released by secure-overwrite-then-unlink.
type TempFile struct {
	Path string
}

func (t *TempFile) Release() error { return SecureRemove(t.Path) }
func (t *TempFile) String() string { return fmt.Sprintf("TempFile{%s}", t.Path) }

// TempDir is a scratch directory released by secure-removing every
// regular file it contains before the tree itself is removed.
type TempDir struct {
	Path string
}

func (t *TempDir) Release() error { return SecureRemoveTree(t.Path) }
func (t *TempDir) String() string { return fmt.Sprintf("TempDir{%s}", t.Path) }

// ResourceManager tracks the scratch resources owned by a single
// stripper handle and guarantees their release exactly once, regardless
// of which exit path (success, failure, or panic) the handle takes.
type ResourceManager struct {
	mu        sync.Mutex
	resources []Resource
}

// NewResourceManager returns an empty manager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// Track registers a resource for later release.
func (rm *ResourceManager) Track(r Resource) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.resources = append(rm.resources, r)
}

// TrackFile is a convenience wrapper for Track(&TempFile{Path: path}).
func (rm *ResourceManager) TrackFile(path string) { rm.Track(&TempFile{Path: path}) }

// TrackDir is a convenience wrapper for Track(&TempDir{Path: path}).
func (rm *ResourceManager) TrackDir(path string) { rm.Track(&TempDir{Path: path}) }

// Forget removes a resource from tracking without releasing it, used
// once a temp file has been published (renamed away) and is no longer
// this handle's to clean up.
func (rm *ResourceManager) Forget(path string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for i, r := range rm.resources {
		if resourcePath(r) == path {
			rm.resources = append(rm.resources[:i], rm.resources[i+1:]...)
			return
		}
	}
}

func resourcePath(r Resource) string {
	switch v := r.(type) {
	case *TempFile:
		return v.Path
	case *TempDir:
		return v.Path
	default:
		return ""
	}
}

// Release releases every tracked resource, continuing past individual
// failures so one stuck file can't mask the cleanup of the rest. It
// returns the last error encountered, if any.
func (rm *ResourceManager) Release() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during resource release: %v", r)
		}
	}()

	rm.mu.Lock()
	defer rm.mu.Unlock()

	var last error
	for _, r := range rm.resources {
		if e := r.Release(); e != nil {
			last = e
		}
	}
	rm.resources = nil
	return last
}

// Count reports the number of resources still tracked, mainly for tests
// asserting that a scenario leaves no scratch state behind.
func (rm *ResourceManager) Count() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.resources)
}
