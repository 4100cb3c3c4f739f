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

import (
	"encoding/binary"
	"io"

	"github.com/sneller-labs/parttree/coldata"
)

// byteCol is a one-byte-per-row primitive column, standing in for any
// fixed-width engine type in these tests.
type byteCol []byte

func (c byteCol) Len() int { return len(c) }

func (c byteCol) WriteRange(w io.Writer, start, end int) error {
	_, err := w.Write(c[start:end])
	return err
}

func (c byteCol) Permute(perm []int) coldata.Column {
	out := make(byteCol, len(perm))
	for i, p := range perm {
		out[i] = c[p]
	}
	return out
}

func (c byteCol) EncodeValue(w io.Writer, row int) error {
	_, err := w.Write(c[row : row+1])
	return err
}

// uint32Col is a four-byte-little-endian primitive column.
type uint32Col []uint32

func (c uint32Col) Len() int { return len(c) }

func (c uint32Col) WriteRange(w io.Writer, start, end int) error {
	var buf [4]byte
	for _, v := range c[start:end] {
		binary.LittleEndian.PutUint32(buf[:], v)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func (c uint32Col) Permute(perm []int) coldata.Column {
	out := make(uint32Col, len(perm))
	for i, p := range perm {
		out[i] = c[p]
	}
	return out
}

func (c uint32Col) EncodeValue(w io.Writer, row int) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], c[row])
	_, err := w.Write(buf[:])
	return err
}

// nullableCol wraps an inner column with a byte-per-row null mask.
type nullableCol struct {
	mask  byteCol
	inner coldata.Column
}

func (n nullableCol) Len() int { return n.mask.Len() }

func (n nullableCol) WriteRange(w io.Writer, start, end int) error {
	return n.inner.WriteRange(w, start, end)
}

func (n nullableCol) NullMask() coldata.Column { return n.mask }
func (n nullableCol) Inner() coldata.Column    { return n.inner }

// arrayCol wraps a per-row element-count stream and the concatenated
// child rows those counts index into.
type arrayCol struct {
	sizes    byteCol
	elements coldata.Column
}

func (a arrayCol) Len() int { return a.sizes.Len() }

func (a arrayCol) WriteRange(w io.Writer, start, end int) error {
	return a.elements.WriteRange(w, start, end)
}

func (a arrayCol) Sizes() coldata.Column    { return a.sizes }
func (a arrayCol) Elements() coldata.Column { return a.elements }

// nestedCol exposes named sub-columns for a Tuple/Nested type.
type nestedCol struct {
	rows   int
	fields map[string]coldata.Column
}

func (n nestedCol) Len() int { return n.rows }

func (n nestedCol) WriteRange(w io.Writer, start, end int) error {
	return nil
}

func (n nestedCol) Field(name string) (coldata.Column, bool) {
	c, ok := n.fields[name]
	return c, ok
}

// testBlock is a coldata.Block backed by a plain map.
type testBlock struct {
	rows int
	cols map[string]coldata.Column
}

func (b *testBlock) Len() int { return b.rows }

func (b *testBlock) Column(name string) (coldata.Column, bool) {
	c, ok := b.cols[name]
	return c, ok
}
