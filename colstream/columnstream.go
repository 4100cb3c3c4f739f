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

package colstream

import (
	"fmt"
	"path/filepath"

	"github.com/sneller-labs/parttree/manifest"
)

// ColumnStream is C3: the pair of (FramedOutputStream, MarkLog) that
// makes up one physical file of one column.
type ColumnStream struct {
	// PhysicalName is the escaped file stem shared by the .bin/.mrk
	// (or .null/.null_mrk) pair.
	PhysicalName string
	BinSuffix    string
	MrkSuffix    string

	Data  *FramedOutputStream
	Marks *MarkLog
}

// New creates the .bin/.mrk (or .null/.null_mrk, depending on
// binSuffix/mrkSuffix) pair for physicalName inside dir.
func New(dir, physicalName, binSuffix, mrkSuffix string, opts FrameOptions, sizeHint int64) (*ColumnStream, error) {
	data, err := NewFramedOutputStream(filepath.Join(dir, physicalName+binSuffix), opts, sizeHint)
	if err != nil {
		return nil, err
	}
	marks, err := NewMarkLog(filepath.Join(dir, physicalName+mrkSuffix))
	if err != nil {
		data.Close()
		return nil, err
	}
	return &ColumnStream{
		PhysicalName: physicalName,
		BinSuffix:    binSuffix,
		MrkSuffix:    mrkSuffix,
		Data:         data,
		Marks:        marks,
	}, nil
}

// Finalize finalizes both the data stream and the mark log.
func (c *ColumnStream) Finalize() error {
	if err := c.Data.Finalize(); err != nil {
		return fmt.Errorf("colstream: finalizing %s%s: %w", c.PhysicalName, c.BinSuffix, err)
	}
	if err := c.Marks.Finalize(); err != nil {
		return fmt.Errorf("colstream: finalizing %s%s: %w", c.PhysicalName, c.MrkSuffix, err)
	}
	return nil
}

// Sync fsyncs both underlying files.
func (c *ColumnStream) Sync() error {
	if err := c.Data.Sync(); err != nil {
		return err
	}
	return c.Marks.Sync()
}

// Close releases both file handles without flushing, for use on
// error-unwind paths.
func (c *ColumnStream) Close() error {
	err1 := c.Data.Close()
	err2 := c.Marks.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// AddToManifest appends the two manifest entries spec.md §4.3
// describes for this stream: name+BinSuffix with compressed/
// uncompressed size and hash, and name+MrkSuffix with its size and
// hash.
func (c *ColumnStream) AddToManifest(m *manifest.Manifest) {
	m.Add(manifest.Entry{
		Name:             c.PhysicalName + c.BinSuffix,
		Compressed:       true,
		CompressedSize:   c.Data.ByteCountA(),
		CompressedHash:   c.Data.HashA(),
		UncompressedSize: c.Data.ByteCountB(),
		UncompressedHash: c.Data.HashB(),
	})
	m.Add(manifest.Entry{
		Name:           c.PhysicalName + c.MrkSuffix,
		Compressed:     false,
		CompressedSize: c.Marks.Count(),
		CompressedHash: c.Marks.Hash(),
	})
}
