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
	"path/filepath"

	"github.com/google/uuid"
)

// NewPartDir returns a fresh, collision-free directory path under base
// for a new part, one per flush or merge (spec.md §1, "the writer
// emits, atomically per part, a directory"). The writer itself never
// picks a part's name — NewAssembler and NewAppend take dir as a
// parameter — this is the naming convention a MergeTree-style caller
// uses to mint one.
func NewPartDir(base string) string {
	return filepath.Join(base, uuid.New().String())
}
