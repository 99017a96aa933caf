// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package fsutil

import (
	"fmt"
	"os"
)

// ValidateReadable reports whether path exists and can be opened for
// reading. It is the first check run against a caller-supplied source
// file before a stripper handle is allocated for it.
func ValidateReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", path, err)
	}
	return f.Close()
}
