// This file is part of matstrip
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package archive

import "time"

// ZipEpoch is the sentinel modification timestamp every sanitized ZIP
// entry carries: ZIP's own format floor, 1980-01-01 00:00:00, per
// spec.md §6.4. ZIP cannot represent an earlier date.
var ZipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ZipHostUnix is the "version made by" host-system byte every sanitized
// ZIP entry carries (3 == UNIX), per spec.md §6.4.
const ZipHostUnix = 3

// TarEpoch is the sentinel mtime every sanitized TAR entry carries:
// the Unix epoch, per spec.md §6.5.
var TarEpoch = time.Unix(0, 0).UTC()
