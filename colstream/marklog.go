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

package colstream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sneller-labs/parttree/internal/checksum"
)

// markSize is the on-disk size of one mark: two little-endian uint64s.
const markSize = 16

// MarkLog is C2: an append-only file of (raw_offset, frame_offset)
// pairs, one per mark, with no header and no footer (spec.md §6).
type MarkLog struct {
	file *os.File
	buf  *bufio.Writer
	cw   *checksum.Writer
}

// NewMarkLog creates path, truncating any existing contents.
func NewMarkLog(path string) (*MarkLog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("colstream: opening %s: %w", path, err)
	}
	buf := bufio.NewWriterSize(f, 4096)
	return &MarkLog{
		file: f,
		buf:  buf,
		cw:   checksum.NewWriter(buf),
	}, nil
}

// Append writes one mark.
func (m *MarkLog) Append(rawOffset, frameOffset uint64) error {
	var b [markSize]byte
	binary.LittleEndian.PutUint64(b[0:8], rawOffset)
	binary.LittleEndian.PutUint64(b[8:16], frameOffset)
	_, err := m.cw.Write(b[:])
	return err
}

// Count returns the number of bytes written so far (16 * marks_count).
func (m *MarkLog) Count() int64 { return m.cw.Count() }

// Hash returns the digest of the bytes written so far.
func (m *MarkLog) Hash() uint64 { return m.cw.Sum() }

// Finalize flushes the buffered writer.
func (m *MarkLog) Finalize() error { return m.buf.Flush() }

// Sync fsyncs the underlying file.
func (m *MarkLog) Sync() error { return m.file.Sync() }

// Close releases the file handle.
func (m *MarkLog) Close() error { return m.file.Close() }
