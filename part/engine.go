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

// Package part implements the PartAssembler (C6) and AppendAssembler
// (C7): the top-level drivers that turn a sequence of in-memory row
// blocks into the finished files of a part directory, coordinating
// layout.Planner and granule.Write per logical column (spec.md §4.6,
// §4.7).
package part

import (
	"fmt"

	"github.com/sneller-labs/parttree/coldata"
	"github.com/sneller-labs/parttree/colstream"
	"github.com/sneller-labs/parttree/granule"
	"github.com/sneller-labs/parttree/layout"
	"github.com/sneller-labs/parttree/manifest"
)

// engine is the shared machinery spec.md §9 calls for ("Append vs
// full assembly... two narrow facades over one shared engine"):
// everything about driving layout.Planner and granule.Write across a
// stream table, independent of whether the caller wants a sort-key
// index and a columns descriptor (Assembler) or neither (Append).
type engine struct {
	dir     string
	opts    Options
	planner *layout.Planner
	streams map[string]*colstream.ColumnStream
	order   []string

	// nestedOffset carries each Array column's element-level
	// index_offset across blocks, keyed by column name and nesting
	// level, independent of the part-level one (spec.md I5 applies per
	// data file; a nested array's elements have a different row
	// cardinality than the part's own blocks).
	nestedOffset map[string]int

	// appendNaming selects the AppendAssembler's naming override
	// (spec.md §4.4): an Array's offset-sizes stream is rooted at the
	// logical name itself rather than its nested_root.
	appendNaming bool
}

func newEngine(dir string, opts Options, appendNaming bool) *engine {
	return &engine{
		dir:          dir,
		opts:         opts,
		planner:      layout.NewPlanner(),
		streams:      make(map[string]*colstream.ColumnStream),
		nestedOffset: make(map[string]int),
		appendNaming: appendNaming,
	}
}

func (e *engine) getOrCreateStream(slot layout.Slot, sizeHint int64) (*colstream.ColumnStream, error) {
	key := slot.PhysicalName + slot.BinSuffix
	if s, ok := e.streams[key]; ok {
		return s, nil
	}
	fo := colstream.FrameOptions{
		MinFrameBytes: e.opts.MinFrameBytes,
		MaxFrameBytes: e.opts.MaxFrameBytes,
		Compression:   e.opts.Compression,
		AIOThreshold:  e.opts.AIOThreshold,
	}
	s, err := colstream.New(e.dir, slot.PhysicalName, slot.BinSuffix, slot.MrkSuffix, fo, sizeHint)
	if err != nil {
		return nil, err
	}
	e.streams[key] = s
	e.order = append(e.order, key)
	return s, nil
}

// writeColumn drives one top-level logical column's rows through the
// stream table, at the part's own (rows, indexOffset) cardinality.
// The physical streams it needs, and whether an array-sizes stream
// among them is shared with an earlier sibling, come from a single
// call into the Planner (C4): this is the one and only place layout
// decisions are made, so there is no second naming/sharing recursion
// in this package to drift out of sync with it (spec.md §4.4, I3).
func (e *engine) writeColumn(name string, t layout.Type, col coldata.Column, rows, indexOffset int, sizeHint int64) error {
	var slots []layout.Slot
	if e.appendNaming {
		slots = e.planner.PlanAppend(name, t)
	} else {
		slots = e.planner.Plan(name, t)
	}
	cursor := 0
	return e.writeSlots(&cursor, slots, name, t, col, rows, indexOffset, 0, sizeHint)
}

// writeSlots walks t and col structurally in exactly the order Planner
// planned them, consuming one Slot per Nullable/Array/Primitive node
// from slots (via cursor) and writing its data; Nested nodes consume
// no slot of their own, matching Planner.plan's Nested case.
func (e *engine) writeSlots(cursor *int, slots []layout.Slot, name string, t layout.Type, col coldata.Column, rows, indexOffset, level int, sizeHint int64) error {
	switch t.Kind {
	case layout.Nullable:
		nc, ok := col.(coldata.NullableColumn)
		if !ok {
			return fmt.Errorf("part: column %q is Nullable but does not implement coldata.NullableColumn", name)
		}
		slot := slots[*cursor]
		*cursor++
		stream, err := e.getOrCreateStream(slot, sizeHint)
		if err != nil {
			return err
		}
		if _, _, err := granule.Write(stream, nc.NullMask(), rows, e.opts.Granularity, indexOffset, e.opts.MinFrameBytes); err != nil {
			return fmt.Errorf("part: writing null mask for %q: %w", name, err)
		}
		return e.writeSlots(cursor, slots, name, *t.Elem, nc.Inner(), rows, indexOffset, level, sizeHint)

	case layout.Array:
		ac, ok := col.(coldata.ArrayColumn)
		if !ok {
			return fmt.Errorf("part: column %q is Array but does not implement coldata.ArrayColumn", name)
		}
		slot := slots[*cursor]
		*cursor++
		if !slot.Shared {
			stream, err := e.getOrCreateStream(slot, sizeHint)
			if err != nil {
				return err
			}
			if _, _, err := granule.Write(stream, ac.Sizes(), rows, e.opts.Granularity, indexOffset, e.opts.MinFrameBytes); err != nil {
				return fmt.Errorf("part: writing array sizes for %q: %w", name, err)
			}
		}
		// This array's element-level index_offset is carried per column
		// name and level, so sibling columns sharing one sizes stream
		// each keep their own (spec.md I5 applies per data file).
		key := fmt.Sprintf("%s/%d", name, level)
		elemOffset := e.nestedOffset[key]
		elemRows := ac.Elements().Len()
		_, next := granule.Schedule(elemRows, e.opts.Granularity, elemOffset)
		if err := e.writeSlots(cursor, slots, name, *t.Elem, ac.Elements(), elemRows, elemOffset, level+1, sizeHint); err != nil {
			return err
		}
		e.nestedOffset[key] = next
		return nil

	case layout.Nested:
		nc, ok := col.(coldata.NestedColumn)
		if !ok {
			return fmt.Errorf("part: column %q is Nested but does not implement coldata.NestedColumn", name)
		}
		for _, f := range t.Fields {
			fcol, ok := nc.Field(f.Name)
			if !ok {
				return fmt.Errorf("part: nested column %q has no field %q", name, f.Name)
			}
			if err := e.writeSlots(cursor, slots, name+"."+f.Name, f.Type, fcol, rows, indexOffset, level, sizeHint); err != nil {
				return err
			}
		}
		return nil

	default: // Primitive
		slot := slots[*cursor]
		*cursor++
		stream, err := e.getOrCreateStream(slot, sizeHint)
		if err != nil {
			return err
		}
		if _, _, err := granule.Write(stream, col, rows, e.opts.Granularity, indexOffset, e.opts.MinFrameBytes); err != nil {
			return fmt.Errorf("part: writing %q: %w", name, err)
		}
		return nil
	}
}

// finalize finalizes every stream in creation order and adds each to
// m.
func (e *engine) finalize(m *manifest.Manifest) error {
	for _, key := range e.order {
		s := e.streams[key]
		if err := s.Finalize(); err != nil {
			return err
		}
		s.AddToManifest(m)
	}
	return nil
}

func (e *engine) sync() error {
	for _, key := range e.order {
		if err := e.streams[key].Sync(); err != nil {
			return err
		}
	}
	return nil
}

// close releases every stream's file handles without requiring a
// prior finalize, for use on abort paths.
func (e *engine) close() {
	for _, key := range e.order {
		e.streams[key].Close()
	}
}
