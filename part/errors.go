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

import "errors"

// Sentinel errors matching the taxonomy of spec.md §7: programmer
// misuse (ErrDuplicateSortKey, ErrNotImplemented, ErrAlreadyCommitted)
// and configuration errors (ErrZeroGranularity, ErrBadFrameThresholds),
// all rejected before any I/O happens.
var (
	// ErrDuplicateSortKey is returned when the same column name
	// appears twice in a sort key specification.
	ErrDuplicateSortKey = errors.New("part: duplicate sort key column")

	// ErrNotImplemented is what WriteSuffix always returns; the
	// surface API never supported it and callers must not rely on it
	// succeeding (spec.md §9 open question: preserve the throw).
	ErrNotImplemented = errors.New("part: writeSuffix is not implemented")

	// ErrAlreadyCommitted is returned by Write or FinalizeAndGetManifest
	// once FinalizeAndGetManifest has already been called.
	ErrAlreadyCommitted = errors.New("part: assembler already committed")

	// ErrZeroGranularity is returned at construction when Granularity
	// is not positive.
	ErrZeroGranularity = errors.New("part: granularity must be positive")

	// ErrBadFrameThresholds is returned at construction when
	// MinFrameBytes is not positive, or when MaxFrameBytes is nonzero
	// and smaller than MinFrameBytes.
	ErrBadFrameThresholds = errors.New("part: max_frame_bytes is smaller than min_frame_bytes")
)
