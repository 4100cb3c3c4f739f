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

// Package granule implements the GranularityController (C5, spec.md
// §4.5): deciding, while serializing a column's rows, where mark
// boundaries fall as a function of granularity, the carried-over
// index_offset, and the current frame's buffered-byte threshold.
package granule

import (
	"fmt"

	"github.com/sneller-labs/parttree/coldata"
	"github.com/sneller-labs/parttree/colstream"
)

// Schedule computes the row positions at which a mark falls for a
// column carrying indexOffset into a block of rowsInBlock rows under
// granularity, and the index_offset to carry into the next block
// (spec.md I5). It depends on nothing but these three numbers, which
// is what lets two independently-driven streams (a Nullable column's
// null-map pass and its wrapped column's pass; the PartAssembler's own
// primary.idx row selection) agree on mark positions without
// communicating (spec.md §9).
func Schedule(rowsInBlock, granularity, indexOffset int) (marks []int, nextIndexOffset int) {
	cursor := 0
	for cursor < rowsInBlock {
		if cursor == 0 && indexOffset != 0 {
			step := indexOffset
			if cursor+step > rowsInBlock {
				step = rowsInBlock - cursor
			}
			cursor += step
			continue
		}
		marks = append(marks, cursor)
		step := granularity
		if cursor+step > rowsInBlock {
			step = rowsInBlock - cursor
		}
		cursor += step
	}
	next := (granularity - ((granularity - indexOffset + rowsInBlock) % granularity)) % granularity
	return marks, next
}

// Write drives one column's rows through stream, placing a mark at
// every row Schedule names, and returns the index_offset to carry into
// the next block (spec.md I5) and the number of marks emitted.
func Write(stream *colstream.ColumnStream, col coldata.Column, rowsInBlock, granularity, indexOffset, minFrameBytes int) (nextIndexOffset, marksEmitted int, err error) {
	if granularity <= 0 {
		return 0, 0, fmt.Errorf("granule: granularity must be positive, got %d", granularity)
	}
	marks, next := Schedule(rowsInBlock, granularity, indexOffset)
	cursor := 0
	mi := 0
	for cursor < rowsInBlock {
		var step int
		if mi < len(marks) && marks[mi] == cursor {
			if err := stream.Data.FrameBoundaryIfThreshold(minFrameBytes); err != nil {
				return 0, mi, err
			}
			raw, frame := stream.Data.MarkCursor()
			if err := stream.Marks.Append(raw, frame); err != nil {
				return 0, mi, err
			}
			mi++
			step = granularity
		} else {
			// cursor == 0, finishing the granule carried over from
			// the previous block; no mark here, it was emitted then.
			step = indexOffset
		}
		if cursor+step > rowsInBlock {
			step = rowsInBlock - cursor
		}
		if err := col.WriteRange(stream.Data, cursor, cursor+step); err != nil {
			return 0, mi, err
		}
		if err := stream.Data.NextIfAtEnd(); err != nil {
			return 0, mi, err
		}
		cursor += step
	}
	return next, len(marks), nil
}
