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

package layout

import "strconv"

// StreamRole distinguishes the three physical stream shapes a logical
// column can require (spec.md §3).
type StreamRole int

const (
	// RoleValue is a plain value stream: name.bin / name.mrk.
	RoleValue StreamRole = iota
	// RoleNull is a nullable column's null-map byte stream:
	// name.null / name.null_mrk.
	RoleNull
	// RoleArraySize is a nesting level's offset-sizes stream, shared
	// across sibling columns rooted at the same nested root.
	RoleArraySize
)

// Slot is one physical stream a logical column's flattening requires.
type Slot struct {
	// PhysicalName is the escaped, suffix-free file stem; the actual
	// files are PhysicalName+BinSuffix and PhysicalName+MrkSuffix.
	PhysicalName string
	Role         StreamRole
	BinSuffix    string
	MrkSuffix    string
	// Level is meaningful only for RoleArraySize: the nesting depth
	// at which this offset-sizes stream lives.
	Level int
	// Shared reports whether this slot's bin/mrk pair was already
	// pinned by an earlier sibling column and should not be written
	// again (spec.md I3: "a shared array-sizes stream is written
	// exactly once per part").
	Shared bool
}

// Planner is C4, the ColumnLayoutPlanner: it flattens a logical
// (name, type) pair into the ordered list of physical streams it
// requires, and tracks which array-sizes streams have already been
// pinned by an earlier sibling so that siblings rooted at the same
// nested root share exactly one stream (spec.md §3, §4.4).
type Planner struct {
	// owner maps a (root, level) array-sizes key to the name of the
	// column that first claimed it. The owner keeps reporting
	// unshared on every later call (one per block, across the whole
	// part's lifetime); any other column's name reports shared.
	owner map[string]string
}

// NewPlanner returns an empty Planner, to be reused across every
// logical column of one part, for every block.
func NewPlanner() *Planner {
	return &Planner{owner: make(map[string]string)}
}

// Plan flattens (name, t) using ordinary naming: an Array's
// offset-sizes stream is named after NestedRoot(name).
func (p *Planner) Plan(name string, t Type) []Slot {
	return p.plan(name, t, 0, false)
}

// PlanAppend flattens (name, t) using the append-assembler naming
// override (spec.md §4.4): the logical name itself, rather than its
// nested root, is used as the escape input for an Array's
// offset-sizes stream, so the new file slots into an existing part
// without colliding with a stream already pinned under the "real"
// nested root's name by a prior, full part-assembly pass.
func (p *Planner) PlanAppend(name string, t Type) []Slot {
	return p.plan(name, t, 0, true)
}

func (p *Planner) plan(name string, t Type, level int, appendNaming bool) []Slot {
	switch t.Kind {
	case Nullable:
		slot := NullSlot(name)
		return append([]Slot{slot}, p.plan(name, *t.Elem, level, appendNaming)...)
	case Array:
		root := NestedRoot(name)
		physRoot := root
		if appendNaming {
			physRoot = name
		}
		shared := p.ClaimArraySize(root, level, name)
		slot := ArraySizeSlot(physRoot, level, shared)
		return append([]Slot{slot}, p.plan(name, *t.Elem, level+1, appendNaming)...)
	case Nested:
		// A Nested type can still appear here even though Flatten
		// expands a *top-level* Nested column before Plan is ever
		// called: an Array's element type may itself be Nested
		// (scenario: sibling columns sharing a nested root whose
		// element is a tuple), and that nesting is only unwrapped at
		// this depth, not by the caller's Flatten pass.
		var out []Slot
		for _, f := range t.Fields {
			out = append(out, p.plan(name+"."+f.Name, f.Type, level, appendNaming)...)
		}
		return out
	default: // Primitive
		return []Slot{ValueSlot(name)}
	}
}

// ClaimArraySize records that the array-sizes stream for (root, level)
// is about to be written by the column named owner, and reports
// whether a *different* column already claimed it (in which case the
// caller must not write it: spec.md I3, "written exactly once per
// part"). The same owner claiming again — once per block, across a
// part's whole lifetime — keeps reporting unshared, since it remains
// the one column responsible for the stream in every block. root
// should already be the column's nested root, not the raw column
// name; under append-assembler naming the stream is physically named
// after the column name instead.
func (p *Planner) ClaimArraySize(root string, level int, owner string) (shared bool) {
	key := root + "%size" + strconv.Itoa(level)
	if existing, ok := p.owner[key]; ok {
		return existing != owner
	}
	p.owner[key] = owner
	return false
}

// NullSlot is the Slot a Nullable column's null-map stream occupies,
// independent of any Planner state (a null-map stream is never shared
// across siblings, so claiming it needs no bookkeeping).
func NullSlot(name string) Slot {
	return Slot{
		PhysicalName: Escape(name),
		Role:         RoleNull,
		BinSuffix:    ".null",
		MrkSuffix:    ".null_mrk",
	}
}

// ArraySizeSlot is the Slot an Array's offset-sizes stream occupies at
// the given nesting level, named after physRoot. shared should come
// from ClaimArraySize against the type's true nested root (which may
// differ from physRoot under append-assembler naming).
func ArraySizeSlot(physRoot string, level int, shared bool) Slot {
	return Slot{
		PhysicalName: Escape(physRoot) + "%size" + strconv.Itoa(level),
		Role:         RoleArraySize,
		BinSuffix:    ".bin",
		MrkSuffix:    ".mrk",
		Level:        level,
		Shared:       shared,
	}
}

// ValueSlot is the Slot a Primitive (or flattened Nested leaf) column
// occupies.
func ValueSlot(name string) Slot {
	return Slot{
		PhysicalName: Escape(name),
		Role:         RoleValue,
		BinSuffix:    ".bin",
		MrkSuffix:    ".mrk",
	}
}

// Flatten expands a Nested type into its dotted-name leaf columns
// ("t", Tuple(x T1, y T2)) -> [("t.x", T1), ("t.y", T2)], recursively,
// so that the caller can drive Plan/PlanAppend once per leaf exactly
// as spec.md §3 describes ("Nested(fields) ... flattening"). Non-Nested
// types flatten to themselves.
func Flatten(name string, t Type) []NamedType {
	if t.Kind != Nested {
		return []NamedType{{Name: name, Type: t}}
	}
	var out []NamedType
	for _, f := range t.Fields {
		out = append(out, Flatten(name+"."+f.Name, f.Type)...)
	}
	return out
}

// NamedType pairs a flattened logical column name with its type.
type NamedType struct {
	Name string
	Type Type
}
