// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build linux

package colstream

import (
	"os"

	"golang.org/x/sys/unix"
)

// openRaw opens path for writing, truncating any existing contents.
// When sizeHint exceeds aioThreshold (and aioThreshold > 0), the file
// is opened with O_DIRECT as a policy hint for large, sequential
// writes; any failure to honor O_DIRECT (unsupported filesystem, odd
// alignment requirements, etc.) silently falls back to a regular
// buffered file, since aio_threshold is documented (spec.md §5) as a
// policy hint, not a correctness property.
func openRaw(path string, aioThreshold, sizeHint int64) (*os.File, error) {
	if aioThreshold > 0 && sizeHint > aioThreshold {
		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_DIRECT, 0644)
		if err == nil {
			return os.NewFile(uintptr(fd), path), nil
		}
		// fall through to the buffered path below
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}
