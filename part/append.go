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
	"fmt"

	"github.com/sneller-labs/parttree/coldata"
	"github.com/sneller-labs/parttree/granule"
	"github.com/sneller-labs/parttree/layout"
	"github.com/sneller-labs/parttree/manifest"
)

// Append is C7, the AppendAssembler: the same engine as Assembler
// minus primary.idx and the columns/checksums descriptors, for a
// merge that adds new columns to an existing part directory. The
// caller is responsible for merging the returned manifest entries
// into the existing part's checksums.txt (spec.md §4.7).
type Append struct {
	dir     string
	columns []layout.NamedType
	flat    []layout.NamedType
	opts    Options

	eng *engine

	indexOffset int
	marksCount  int
	committed   bool
}

// NewAppend returns an Append ready to write columns into an existing
// part directory dir. Unlike Assembler, dir is expected to already
// exist and hold the part being extended.
func NewAppend(dir string, columns []layout.NamedType, opts Options) (*Append, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var flat []layout.NamedType
	for _, c := range columns {
		flat = append(flat, layout.Flatten(c.Name, c.Type)...)
	}
	return &Append{
		dir:     dir,
		columns: columns,
		flat:    flat,
		opts:    opts,
		eng:     newEngine(dir, opts, true),
	}, nil
}

// Write ingests one row block. Streams are opened lazily on first
// use; this call may be repeated to append multiple blocks before
// FinalizeAndGetManifest.
func (p *Append) Write(block coldata.Block, perm []int) error {
	if p.committed {
		return ErrAlreadyCommitted
	}
	rows := block.Len()
	for _, nt := range p.flat {
		col, ok := block.Column(nt.Name)
		if !ok {
			return fmt.Errorf("part: column %q not found in block", nt.Name)
		}
		useCol := coldata.Column(col)
		if perm != nil {
			pm, ok := col.(coldata.Permuter)
			if !ok {
				return fmt.Errorf("part: column %q does not support permutation", nt.Name)
			}
			useCol = pm.Permute(perm)
		}
		if err := p.eng.writeColumn(nt.Name, nt.Type, useCol, rows, p.indexOffset, p.opts.sizeHint(nt.Name)); err != nil {
			return err
		}
	}
	marks, next := granule.Schedule(rows, p.opts.Granularity, p.indexOffset)
	p.marksCount += len(marks)
	p.indexOffset = next
	return nil
}

// WriteSuffix is not supported, matching Assembler (spec.md §9).
func (p *Append) WriteSuffix() error {
	return ErrNotImplemented
}

// FinalizeAndGetManifest finalizes every stream opened by Write and
// returns their manifest entries, without touching primary.idx or
// columns.txt. If SyncOnFinalize is set, every stream is fsync'd
// first (spec.md §4.7).
func (p *Append) FinalizeAndGetManifest() (*manifest.Manifest, error) {
	if p.committed {
		return nil, ErrAlreadyCommitted
	}
	p.committed = true
	if p.opts.SyncOnFinalize {
		if err := p.eng.sync(); err != nil {
			return nil, err
		}
	}
	m := manifest.New()
	if err := p.eng.finalize(m); err != nil {
		return nil, err
	}
	p.eng.close()
	return m, nil
}

// Abort releases every open file handle without finalizing.
func (p *Append) Abort() {
	if p.committed {
		return
	}
	p.committed = true
	p.eng.close()
}
