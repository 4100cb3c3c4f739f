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

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EncodeColumns writes columns.txt: one tab-separated (name, type)
// line per declared logical column, in declaration order, using the
// canonical type grammar (spec.md §6, "sufficient for exact
// round-trip").
func EncodeColumns(w io.Writer, columns []NamedType) error {
	for _, c := range columns {
		if strings.ContainsAny(c.Name, "\t\n") {
			return fmt.Errorf("layout: column name %q cannot contain a tab or newline", c.Name)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Type.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteColumnsFile encodes columns to columns.txt inside dir,
// truncating any existing contents.
func WriteColumnsFile(dir string, columns []NamedType) error {
	f, err := os.OpenFile(filepath.Join(dir, "columns.txt"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("layout: creating columns.txt: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := EncodeColumns(bw, columns); err != nil {
		return err
	}
	return bw.Flush()
}

// DecodeColumns parses the columns.txt wire format.
func DecodeColumns(r io.Reader) ([]NamedType, error) {
	var out []NamedType
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, '\t')
		if i < 0 {
			return nil, fmt.Errorf("layout: malformed columns.txt line %q", line)
		}
		t, err := Parse(line[i+1:])
		if err != nil {
			return nil, fmt.Errorf("layout: columns.txt: %w", err)
		}
		out = append(out, NamedType{Name: line[:i], Type: t})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadColumnsFile reads and parses columns.txt from dir.
func LoadColumnsFile(dir string) ([]NamedType, error) {
	f, err := os.Open(filepath.Join(dir, "columns.txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeColumns(f)
}
