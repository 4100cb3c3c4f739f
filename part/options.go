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

package part

// Options is the enumerated configuration surface of spec.md §6: the
// knobs a caller supplies when constructing an Assembler or Append.
type Options struct {
	// Granularity is the number of rows per mark; must be positive.
	Granularity int
	// MinFrameBytes is the buffered-bytes threshold at which a mark
	// boundary forces the current frame closed.
	MinFrameBytes int
	// MaxFrameBytes is the hard cap past which a frame closes even
	// without a pending mark. Zero disables the cap.
	MaxFrameBytes int
	// Compression names the codec passed to internal/compr.
	Compression string
	// AIOThreshold is the size-hint threshold, in bytes, past which a
	// stream's raw file is opened with a direct-I/O hint. Zero
	// disables it.
	AIOThreshold int64
	// SizeHints gives per-logical-column size estimates, consulted
	// when opening that column's streams to decide whether
	// AIOThreshold applies. A missing entry means "no estimate" (0).
	SizeHints map[string]int64
	// SyncOnFinalize, meaningful only for Append, fsyncs every stream
	// before FinalizeAndGetManifest returns.
	SyncOnFinalize bool
}

func (o Options) validate() error {
	if o.Granularity <= 0 {
		return ErrZeroGranularity
	}
	if o.MinFrameBytes <= 0 {
		return ErrBadFrameThresholds
	}
	if o.MaxFrameBytes != 0 && o.MaxFrameBytes < o.MinFrameBytes {
		return ErrBadFrameThresholds
	}
	return nil
}

func (o Options) sizeHint(name string) int64 {
	if o.SizeHints == nil {
		return 0
	}
	return o.SizeHints[name]
}

func checkDuplicates(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return ErrDuplicateSortKey
		}
		seen[n] = true
	}
	return nil
}
