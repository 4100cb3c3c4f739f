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

// Package manifest encodes and decodes checksums.txt, the per-file
// integrity manifest a part's readers validate before opening it
// (spec.md §3, §6).
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Entry describes one artifact file within a part directory.
type Entry struct {
	Name             string
	Compressed       bool
	CompressedSize   int64
	CompressedHash   uint64
	UncompressedSize int64 // only meaningful when Compressed
	UncompressedHash uint64
}

// Manifest is the ordered set of Entry records that becomes
// checksums.txt.
type Manifest struct {
	entries []Entry
	byName  map[string]int
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{byName: make(map[string]int)}
}

// Add appends e, replacing any prior entry with the same name.
func (m *Manifest) Add(e Entry) {
	if m.byName == nil {
		m.byName = make(map[string]int)
	}
	if i, ok := m.byName[e.Name]; ok {
		m.entries[i] = e
		return
	}
	m.byName[e.Name] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Entries returns the manifest entries in the order they were added.
func (m *Manifest) Entries() []Entry { return append([]Entry(nil), m.entries...) }

// Len reports the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// fields are written as a single tab-separated line per entry, in the
// order described by spec.md §6: file name; whether compressed;
// compressed size; compressed hash; uncompressed size; uncompressed
// hash.
func (e Entry) encode(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%016x\t%d\t%016x\n",
		e.Name, b2i(e.Compressed), e.CompressedSize, e.CompressedHash,
		e.UncompressedSize, e.UncompressedHash)
	return err
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Encode writes the manifest in file-name order, matching how a
// directory listing would naturally enumerate the artifacts.
func (m *Manifest) Encode(w io.Writer) error {
	sorted := append([]Entry(nil), m.entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, e := range sorted {
		if err := e.encode(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile encodes the manifest to path, truncating any existing
// contents.
func (m *Manifest) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("manifest: creating %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := m.Encode(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// Decode parses the checksums.txt wire format.
func Decode(r io.Reader) (*Manifest, error) {
	m := New()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("manifest: malformed line %q", line)
		}
		compressed, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("manifest: bad compressed flag in %q: %w", line, err)
		}
		csize, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest: bad compressed size in %q: %w", line, err)
		}
		chash, err := strconv.ParseUint(fields[3], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest: bad compressed hash in %q: %w", line, err)
		}
		usize, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest: bad uncompressed size in %q: %w", line, err)
		}
		uhash, err := strconv.ParseUint(fields[5], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest: bad uncompressed hash in %q: %w", line, err)
		}
		m.Add(Entry{
			Name:             fields[0],
			Compressed:       compressed != 0,
			CompressedSize:   csize,
			CompressedHash:   chash,
			UncompressedSize: usize,
			UncompressedHash: uhash,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads and parses checksums.txt from dir.
func LoadFile(dir string) (*Manifest, error) {
	f, err := os.Open(filepath.Join(dir, "checksums.txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Verify re-reads every artifact file named in the manifest from dir
// and confirms its size and xxhash digest match (spec.md §8 P5). It
// returns the first mismatch encountered, if any.
func (m *Manifest) Verify(dir string) error {
	for _, e := range m.entries {
		path := filepath.Join(dir, e.Name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("manifest: %s: %w", e.Name, err)
		}
		if int64(len(data)) != e.CompressedSize {
			return fmt.Errorf("manifest: %s: size %d does not match manifest %d", e.Name, len(data), e.CompressedSize)
		}
		if xxhash.Sum64(data) != e.CompressedHash {
			return fmt.Errorf("manifest: %s: hash mismatch", e.Name)
		}
	}
	return nil
}
