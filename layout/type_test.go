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

import "testing"

func TestTypeStringRoundTrip(t *testing.T) {
	cases := []Type{
		PrimitiveType("UInt32"),
		NullableType(PrimitiveType("UInt8")),
		ArrayType(PrimitiveType("UInt8")),
		NullableType(ArrayType(PrimitiveType("UInt8"))),
		NestedType(
			Field{Name: "x", Type: PrimitiveType("UInt8")},
			Field{Name: "y", Type: NullableType(PrimitiveType("Int64"))},
		),
		ArrayType(NestedType(
			Field{Name: "x", Type: PrimitiveType("UInt8")},
			Field{Name: "y", Type: PrimitiveType("UInt8")},
		)),
	}
	for _, want := range cases {
		s := want.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got.String() != s {
			t.Fatalf("round trip mismatch: %q -> %q", s, got.String())
		}
	}
}

func TestParseRejectsTrailingInput(t *testing.T) {
	if _, err := Parse("UInt32, Int64"); err == nil {
		t.Fatal("expected an error for trailing input")
	}
}

func TestFlatten(t *testing.T) {
	ty := NestedType(
		Field{Name: "x", Type: PrimitiveType("UInt8")},
		Field{Name: "y", Type: PrimitiveType("UInt8")},
	)
	got := Flatten("t", ty)
	want := []string{"t.x", "t.y"}
	if len(got) != len(want) {
		t.Fatalf("got %d leaves, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("leaf %d: got %q, want %q", i, got[i].Name, w)
		}
	}
}

func TestFlattenNonNestedIsIdentity(t *testing.T) {
	ty := PrimitiveType("UInt32")
	got := Flatten("n", ty)
	if len(got) != 1 || got[0].Name != "n" || got[0].Type.Kind != Primitive {
		t.Fatalf("unexpected flatten of non-nested type: %+v", got)
	}
}
