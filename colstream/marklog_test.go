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
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestMarkLogAppendAndFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.mrk")
	m, err := NewMarkLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Append(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Append(128, 7); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 32 {
		t.Fatalf("Count() = %d, want 32 (I2-style: 16 bytes/mark)", m.Count())
	}
	if err := m.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 32 {
		t.Fatalf("file size = %d, want 32", len(raw))
	}
	if binary.LittleEndian.Uint64(raw[0:8]) != 0 || binary.LittleEndian.Uint64(raw[8:16]) != 0 {
		t.Fatal("first mark should be at origin")
	}
	if binary.LittleEndian.Uint64(raw[16:24]) != 128 || binary.LittleEndian.Uint64(raw[24:32]) != 7 {
		t.Fatal("second mark mismatch")
	}
}
