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

// Package checksum provides the counting+hashing writer shared by
// colstream.FramedOutputStream (hash_A, hash_B) and colstream.MarkLog.
package checksum

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// Writer wraps an io.Writer and accumulates a byte count
// and an xxhash digest of everything written through it.
//
// A Writer is not safe for concurrent use; a part is written
// by a single producer (spec.md §5).
type Writer struct {
	dst   io.Writer
	count int64
	h     xxhash.Digest
}

// NewWriter returns a Writer that tees writes to dst
// while tracking their count and hash.
func NewWriter(dst io.Writer) *Writer {
	w := &Writer{dst: dst}
	w.h.Reset()
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.h.Write(p[:n])
		w.count += int64(n)
	}
	return n, err
}

// Count returns the number of bytes written so far.
func (w *Writer) Count() int64 { return w.count }

// Sum returns the current digest of all bytes written so far.
func (w *Writer) Sum() uint64 { return w.h.Sum64() }
