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

	"github.com/sneller-labs/parttree/internal/compr"
)

func TestFramedOutputStreamRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.bin")
	s, err := NewFramedOutputStream(path, FrameOptions{MinFrameBytes: 4, Compression: "s2"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	payload1 := []byte("abcd")
	payload2 := []byte("efgh")
	if _, err := s.Write(payload1); err != nil {
		t.Fatal(err)
	}
	if err := s.FrameBoundaryIfThreshold(4); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(payload2); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	byteCountA := s.ByteCountA()
	byteCountB := s.ByteCountB()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if byteCountB != int64(len(payload1)+len(payload2)) {
		t.Fatalf("ByteCountB = %d, want %d", byteCountB, len(payload1)+len(payload2))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(raw)) != byteCountA {
		t.Fatalf("file size %d does not match ByteCountA %d (I1)", len(raw), byteCountA)
	}

	off := 0
	var frames [][]byte
	for off < len(raw) {
		ulen := binary.LittleEndian.Uint32(raw[off : off+4])
		clen := binary.LittleEndian.Uint32(raw[off+4 : off+8])
		off += frameHeaderSize
		dst := make([]byte, ulen)
		if err := compr.Decompress(raw[off:off+int(clen)], dst); err != nil {
			t.Fatalf("decompress frame: %v", err)
		}
		frames = append(frames, dst)
		off += int(clen)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if string(frames[0]) != string(payload1) {
		t.Fatalf("frame 0 = %q, want %q", frames[0], payload1)
	}
	if string(frames[1]) != string(payload2) {
		t.Fatalf("frame 1 = %q, want %q", frames[1], payload2)
	}
}

func TestFramedOutputStreamRejectsBadOptions(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFramedOutputStream(filepath.Join(dir, "n.bin"), FrameOptions{MinFrameBytes: 0, Compression: "s2"}, 0); err == nil {
		t.Fatal("expected error for zero MinFrameBytes")
	}
	if _, err := NewFramedOutputStream(filepath.Join(dir, "n.bin"), FrameOptions{MinFrameBytes: 10, MaxFrameBytes: 5, Compression: "s2"}, 0); err == nil {
		t.Fatal("expected error for MaxFrameBytes < MinFrameBytes")
	}
	if _, err := NewFramedOutputStream(filepath.Join(dir, "n.bin"), FrameOptions{MinFrameBytes: 4, Compression: "nope"}, 0); err == nil {
		t.Fatal("expected error for unknown compression method")
	}
}

func TestNextIfAtEndForcesFrameClosure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFramedOutputStream(filepath.Join(dir, "n.bin"), FrameOptions{MinFrameBytes: 1000, MaxFrameBytes: 4, Compression: "s2"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("abcd")); err != nil {
		t.Fatal(err)
	}
	if err := s.NextIfAtEnd(); err != nil {
		t.Fatal(err)
	}
	if s.BufferedBytesInCurrentFrame() != 0 {
		t.Fatalf("expected frame to be force-closed, buffered = %d", s.BufferedBytesInCurrentFrame())
	}
	s.Finalize()
	s.Close()
}
