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

// Command partdump prints a summary of a part directory and, with -v,
// verifies its checksums.txt manifest against the files actually on disk.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sneller-labs/parttree/layout"
	"github.com/sneller-labs/parttree/manifest"
)

func main() {
	verify := flag.Bool("v", false, "verify every artifact's hash against checksums.txt")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: partdump [-v] <part-dir>...")
		os.Exit(2)
	}
	status := 0
	for _, dir := range args {
		if err := dump(dir, *verify); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", dir, err)
			status = 1
		}
	}
	os.Exit(status)
}

func dump(dir string, verify bool) error {
	m, err := manifest.LoadFile(dir)
	if err != nil {
		return fmt.Errorf("reading checksums.txt: %w", err)
	}
	columns, err := layout.LoadColumnsFile(dir)
	if err != nil {
		return fmt.Errorf("reading columns.txt: %w", err)
	}

	fmt.Printf("%s: %d columns, %d manifest entries\n", dir, len(columns), m.Len())
	for _, c := range columns {
		fmt.Printf("  %s\t%s\n", c.Name, c.Type.String())
	}
	hasIndex := false
	for _, e := range m.Entries() {
		if e.Name == "primary.idx" {
			hasIndex = true
		}
		kind := "raw"
		if e.Compressed {
			kind = "compressed"
		}
		fmt.Printf("  %s\t%s\t%d bytes\n", e.Name, kind, e.CompressedSize)
	}
	if hasIndex {
		fmt.Println("  sorted: yes")
	} else {
		fmt.Println("  sorted: no")
	}

	if verify {
		if err := m.Verify(dir); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Println("  checksums: OK")
	}
	return nil
}
