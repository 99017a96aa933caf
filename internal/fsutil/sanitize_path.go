// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package fsutil

import (
	"path"
	"strings"
)

// SanitizeEntryPath lexically rewrites an archive entry name so that
// joining it onto a scratch directory can never escape that directory.
// It rejects ".." traversal and absolute-path/drive-letter tricks the
// same way a zip-slip exploit would try to use them, and it normalizes
// backslashes so a Windows-authored archive can't smuggle a traversal
// past a separator check that only looks for "/".
//
// Grounded on the lexical-only approach of a dedicated archive-path
// sanitizer: Join(scratchDir, SanitizeEntryPath(name)) always stays
// under scratchDir, with no filesystem access required to establish
// that guarantee.
func SanitizeEntryPath(name string) string {
	normalized := strings.ReplaceAll(name, `\`, "/")
	normalized = strings.TrimPrefix(path.Clean("/"+normalized), "/")
	if normalized == "." {
		return ""
	}
	return normalized
}
