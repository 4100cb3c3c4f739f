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

// Package layout implements the type algebra and the
// ColumnLayoutPlanner (spec.md §3, §4.4): flattening a logical
// (name, type) column into the physical streams a part needs, the
// escape function for turning logical names into filesystem-safe
// physical names, and the columns.txt grammar.
package layout

import (
	"fmt"
	"strings"
)

// Kind tags the four-way type algebra spec.md §3 describes:
// Primitive(p) | Nullable(t) | Array(t) | Nested(fields).
type Kind int

const (
	Primitive Kind = iota
	Nullable
	Array
	Nested
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "Primitive"
	case Nullable:
		return "Nullable"
	case Array:
		return "Array"
	case Nested:
		return "Nested"
	default:
		return "Unknown"
	}
}

// Field is one member of a Nested type.
type Field struct {
	Name string
	Type Type
}

// Type is a tagged variant over the type algebra. The planner
// dispatches on Kind structurally rather than through a class
// hierarchy (spec.md §9, design note "Polymorphic type serializers").
type Type struct {
	Kind   Kind
	Prim   string  // meaningful for Primitive: the engine's type name, e.g. "UInt32"
	Elem   *Type   // meaningful for Nullable and Array: the wrapped type
	Fields []Field // meaningful for Nested
}

// PrimitiveType builds a Primitive(name) type.
func PrimitiveType(name string) Type { return Type{Kind: Primitive, Prim: name} }

// NullableType builds a Nullable(t) type.
func NullableType(t Type) Type { return Type{Kind: Nullable, Elem: &t} }

// ArrayType builds an Array(t) type.
func ArrayType(t Type) Type { return Type{Kind: Array, Elem: &t} }

// NestedType builds a Nested(fields) type.
func NestedType(fields ...Field) Type { return Type{Kind: Nested, Fields: fields} }

// String renders t using the canonical grammar used in columns.txt:
// Primitive names render bare, Nullable/Array wrap their element in
// parens, and Nested renders as Tuple(name Type, ...).
func (t Type) String() string {
	switch t.Kind {
	case Primitive:
		return t.Prim
	case Nullable:
		return "Nullable(" + t.Elem.String() + ")"
	case Array:
		return "Array(" + t.Elem.String() + ")"
	case Nested:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + " " + f.Type.String()
		}
		return "Tuple(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}

// Parse parses the grammar produced by String. It is the reader-side
// counterpart needed to round-trip columns.txt (spec.md §6).
func Parse(s string) (Type, error) {
	t, rest, err := parseType(strings.TrimSpace(s))
	if err != nil {
		return Type{}, err
	}
	if rest != "" {
		return Type{}, fmt.Errorf("layout: trailing input %q after type", rest)
	}
	return t, nil
}

func parseType(s string) (Type, string, error) {
	switch {
	case strings.HasPrefix(s, "Nullable("):
		inner, rest, err := parseType(s[len("Nullable("):])
		if err != nil {
			return Type{}, "", err
		}
		rest, err = expect(rest, ")")
		if err != nil {
			return Type{}, "", err
		}
		return NullableType(inner), rest, nil
	case strings.HasPrefix(s, "Array("):
		inner, rest, err := parseType(s[len("Array("):])
		if err != nil {
			return Type{}, "", err
		}
		rest, err = expect(rest, ")")
		if err != nil {
			return Type{}, "", err
		}
		return ArrayType(inner), rest, nil
	case strings.HasPrefix(s, "Tuple("):
		rest := s[len("Tuple("):]
		var fields []Field
		for {
			rest = strings.TrimLeft(rest, " ")
			if strings.HasPrefix(rest, ")") {
				rest = rest[1:]
				break
			}
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				return Type{}, "", fmt.Errorf("layout: expected field name in %q", rest)
			}
			name := rest[:sp]
			ft, r2, err := parseType(rest[sp+1:])
			if err != nil {
				return Type{}, "", err
			}
			fields = append(fields, Field{Name: name, Type: ft})
			rest = strings.TrimLeft(r2, " ")
			if strings.HasPrefix(rest, ",") {
				rest = rest[1:]
				continue
			}
		}
		return NestedType(fields...), rest, nil
	default:
		end := 0
		for end < len(s) && s[end] != ',' && s[end] != ')' {
			end++
		}
		if end == 0 {
			return Type{}, "", fmt.Errorf("layout: expected a type, got %q", s)
		}
		return PrimitiveType(s[:end]), s[end:], nil
	}
}

func expect(s, tok string) (string, error) {
	if !strings.HasPrefix(s, tok) {
		return "", fmt.Errorf("layout: expected %q, got %q", tok, s)
	}
	return s[len(tok):], nil
}
