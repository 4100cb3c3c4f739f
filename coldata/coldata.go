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

// Package coldata defines the narrow interfaces the part writer needs
// from a column container. spec.md §1 places the type-system/
// column-container implementation itself out of scope ("assumed to
// provide a binary serializer per type and per column"); this package
// is that assumed contract, not an implementation of it.
package coldata

import "io"

// Column is one logical column's worth of in-memory row data.
type Column interface {
	// Len is the number of logical rows in the column.
	Len() int
	// WriteRange serializes rows [start, end) to w using the
	// column's type-specific binary encoding. It must not be called
	// with start > end or end > Len().
	WriteRange(w io.Writer, start, end int) error
}

// NullMask is the byte-per-row 0/1 null indicator a Nullable column
// also exposes, serialized as its own physical stream ahead of the
// wrapped column's own streams (spec.md §3, §9).
type NullMask interface {
	Column
}

// SortKeyColumn is a Column that additionally knows how to encode a
// single row's value using the sort key's binary format, for
// primary.idx (spec.md §4.6 step 4, §6).
type SortKeyColumn interface {
	Column
	EncodeValue(w io.Writer, row int) error
}

// Permute returns a view of col with rows reordered according to
// perm: the returned column's logical row i is col's row perm[i].
// A Block implementation supplies this; the part writer never
// computes a sort order itself (spec.md §1 Non-goals).
type Permuter interface {
	Permute(perm []int) Column
}

// Block is one in-memory row batch (spec.md §1, "the writer consumes
// one or more in-memory row batches").
type Block interface {
	// Len is the number of rows in the block.
	Len() int
	// Column looks up a logical column by its flattened name (see
	// layout.Flatten for how Nested columns produce dotted names).
	Column(name string) (Column, bool)
}

// NullableColumn is the sub-view a Column must expose when its
// logical type is layout.Nullable: a null-map byte stream written
// ahead of the wrapped column's own streams, and the wrapped column
// itself (spec.md §3, §9).
type NullableColumn interface {
	Column
	NullMask() Column
	Inner() Column
}

// ArrayColumn is the sub-view a Column must expose when its logical
// type is layout.Array: a per-row element-count stream, and the
// concatenated child rows the counts index into (spec.md §3, §4.4).
type ArrayColumn interface {
	Column
	Sizes() Column
	Elements() Column
}

// NestedColumn is the sub-view a Column must expose when its logical
// type is layout.Nested: per-field access by name, used when a Nested
// type appears as an Array's element type (spec.md scenario 5, sibling
// columns of the same nested root sharing one offset-sizes stream).
type NestedColumn interface {
	Column
	Field(name string) (Column, bool)
}
