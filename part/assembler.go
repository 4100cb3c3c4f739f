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
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sneller-labs/parttree/coldata"
	"github.com/sneller-labs/parttree/granule"
	"github.com/sneller-labs/parttree/internal/checksum"
	"github.com/sneller-labs/parttree/layout"
	"github.com/sneller-labs/parttree/manifest"
)

// Assembler is C6, the PartAssembler: the top-level driver for a full
// part directory, including primary.idx, columns.txt and
// checksums.txt. It does not build an in-memory index_columns table
// (spec.md §4.6 step 4): that structure only serves a reader resolving
// primary.idx entries back to column files, and this package is
// writer-only — columns.txt on disk carries the same information for
// whatever reader eventually needs it.
type Assembler struct {
	dir     string
	columns []layout.NamedType // declared order, as given to columns.txt
	flat    []layout.NamedType // same columns, Nested types expanded
	sortKey []string
	opts    Options

	eng *engine

	idxFile *os.File
	idxBuf  *bufio.Writer
	idxHash *checksum.Writer

	indexOffset int
	marksCount  int
	committed   bool
}

// NewAssembler creates dir (which must not already exist, or must be
// empty) and returns an Assembler ready to accept blocks. sortKey may
// be empty, in which case the part is "unsorted" and no primary.idx
// is created (spec.md §3).
func NewAssembler(dir string, columns []layout.NamedType, sortKey []string, opts Options) (*Assembler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkDuplicates(sortKey); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("part: creating %s: %w", dir, err)
	}
	var flat []layout.NamedType
	for _, c := range columns {
		flat = append(flat, layout.Flatten(c.Name, c.Type)...)
	}
	a := &Assembler{
		dir:     dir,
		columns: columns,
		flat:    flat,
		sortKey: append([]string(nil), sortKey...),
		opts:    opts,
		eng:     newEngine(dir, opts, false),
	}
	if len(sortKey) > 0 {
		f, err := os.OpenFile(filepath.Join(dir, "primary.idx"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("part: creating primary.idx: %w", err)
		}
		a.idxFile = f
		a.idxBuf = bufio.NewWriterSize(f, 1<<16)
		a.idxHash = checksum.NewWriter(a.idxBuf)
	}
	return a, nil
}

// Write ingests one row block (spec.md §4.6, "per input block"). perm
// may be nil, meaning the block is already in the part's final row
// order.
func (a *Assembler) Write(block coldata.Block, perm []int) error {
	if a.committed {
		return ErrAlreadyCommitted
	}
	if err := checkDuplicates(a.sortKey); err != nil {
		return err
	}
	rows := block.Len()

	sortSet := make(map[string]bool, len(a.sortKey))
	for _, n := range a.sortKey {
		sortSet[n] = true
	}

	primary := make(map[string]coldata.SortKeyColumn, len(a.sortKey))
	for _, n := range a.sortKey {
		c, ok := block.Column(n)
		if !ok {
			return fmt.Errorf("part: sort key column %q not found in block", n)
		}
		skc, ok := c.(coldata.SortKeyColumn)
		if !ok {
			return fmt.Errorf("part: sort key column %q does not implement coldata.SortKeyColumn", n)
		}
		if perm != nil {
			pm, ok := skc.(coldata.Permuter)
			if !ok {
				return fmt.Errorf("part: sort key column %q does not support permutation", n)
			}
			permuted, ok := pm.Permute(perm).(coldata.SortKeyColumn)
			if !ok {
				return fmt.Errorf("part: permuted view of sort key column %q is not a coldata.SortKeyColumn", n)
			}
			skc = permuted
		}
		primary[n] = skc
	}

	for _, nt := range a.flat {
		col, ok := block.Column(nt.Name)
		if !ok {
			return fmt.Errorf("part: column %q not found in block", nt.Name)
		}
		var useCol coldata.Column = col
		switch {
		case sortSet[nt.Name]:
			useCol = primary[nt.Name]
		case perm != nil:
			pm, ok := col.(coldata.Permuter)
			if !ok {
				return fmt.Errorf("part: column %q does not support permutation", nt.Name)
			}
			useCol = pm.Permute(perm)
		}
		if err := a.eng.writeColumn(nt.Name, nt.Type, useCol, rows, a.indexOffset, a.opts.sizeHint(nt.Name)); err != nil {
			return err
		}
	}

	marks, next := granule.Schedule(rows, a.opts.Granularity, a.indexOffset)
	if len(a.sortKey) > 0 {
		for _, row := range marks {
			for _, n := range a.sortKey {
				if err := primary[n].EncodeValue(a.idxHash, row); err != nil {
					return fmt.Errorf("part: writing primary.idx: %w", err)
				}
			}
		}
	}
	a.marksCount += len(marks)
	a.indexOffset = next
	return nil
}

// WriteSuffix is not supported by the generic assembler (spec.md §9
// open question: the throwing behavior is preserved deliberately).
func (a *Assembler) WriteSuffix() error {
	return ErrNotImplemented
}

// FinalizeAndGetManifest commits the part (spec.md §4.6 "Commit"). It
// is callable at most once.
func (a *Assembler) FinalizeAndGetManifest() (*manifest.Manifest, error) {
	if a.committed {
		return nil, ErrAlreadyCommitted
	}
	a.committed = true

	m := manifest.New()
	if len(a.sortKey) > 0 {
		if err := a.idxBuf.Flush(); err != nil {
			return nil, fmt.Errorf("part: flushing primary.idx: %w", err)
		}
		m.Add(manifest.Entry{
			Name:           "primary.idx",
			Compressed:     false,
			CompressedSize: a.idxHash.Count(),
			CompressedHash: a.idxHash.Sum(),
		})
	}
	if err := a.eng.finalize(m); err != nil {
		return nil, err
	}

	if a.marksCount == 0 {
		if a.idxFile != nil {
			a.idxFile.Close()
		}
		a.eng.close()
		if err := os.RemoveAll(a.dir); err != nil {
			return nil, fmt.Errorf("part: removing empty part %s: %w", a.dir, err)
		}
		return manifest.New(), nil
	}

	if err := layout.WriteColumnsFile(a.dir, a.columns); err != nil {
		return nil, err
	}
	if err := m.WriteFile(filepath.Join(a.dir, "checksums.txt")); err != nil {
		return nil, err
	}
	if a.idxFile != nil {
		if err := a.idxFile.Close(); err != nil {
			return nil, err
		}
	}
	a.eng.close()
	return m, nil
}

// Abort releases every open file handle without publishing the part.
// The partially-written directory is left in place; removing it is
// the caller's rollback policy (spec.md §5).
func (a *Assembler) Abort() {
	if a.committed {
		return
	}
	a.committed = true
	if a.idxFile != nil {
		a.idxFile.Close()
	}
	a.eng.close()
}
