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

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	names := []string{
		"plain_name123",
		"a/b.c",
		"t.x",
		"field with spaces",
		"Кириллица",
		"a%size0",
	}
	for _, n := range names {
		esc := Escape(n)
		got, err := Unescape(esc)
		if err != nil {
			t.Fatalf("Unescape(%q): %v", esc, err)
		}
		if got != n {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", n, esc, got)
		}
	}
}

func TestEscapeOnlySafeCharsPassThrough(t *testing.T) {
	if Escape("abc_123") != "abc_123" {
		t.Fatalf("safe name was altered: %q", Escape("abc_123"))
	}
}

func TestUnescapeRejectsTruncatedEscape(t *testing.T) {
	if _, err := Unescape("abc%2"); err == nil {
		t.Fatal("expected error for truncated escape")
	}
}

func TestNestedRoot(t *testing.T) {
	cases := map[string]string{
		"a.b.c": "a.b",
		"a":     "a",
		"a.b":   "a",
	}
	for in, want := range cases {
		if got := NestedRoot(in); got != want {
			t.Errorf("NestedRoot(%q) = %q, want %q", in, got, want)
		}
	}
}
