/*
Copyright © 2026 the binned authors.
This file is part of binned.

binned is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

binned is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with binned.  If not, see <http://www.gnu.org/licenses/>.
*/

package binned

import (
	"fmt"

	"github.com/spatialmodel/binned/archive"
)

// RowIndex maps each ISIN row of a window to the range of archive records
// belonging to it. Records are stored sorted by row, so the records of row
// MinRow()+i are [Offset(i), Offset(i)+Count(i)).
type RowIndex struct {
	minRow  int
	offsets []int // len == rows+1
}

// BuildRowIndex scans the row variable of src once, front to back, in
// chunks of chunkSize records, and returns the index of rowCount rows
// starting at minRow. Scanning stops at the first record north of the
// window.
func BuildRowIndex(src archive.IntReader, minRow, rowCount, chunkSize int) (*RowIndex, error) {
	if rowCount < 1 {
		return nil, fmt.Errorf("binned: row index needs at least one row, have %d", rowCount)
	}
	idx := &RowIndex{
		minRow:  minRow,
		offsets: make([]int, rowCount+1),
	}
	slot := 0
	cursor := 0
	s := archive.NewScanner(src, archive.RowVar, chunkSize)
scan:
	for s.Scan() {
		for _, v := range s.Values() {
			for slot <= rowCount && int(v) >= minRow+slot {
				idx.offsets[slot] = cursor
				slot++
			}
			if slot > rowCount {
				break scan
			}
			cursor++
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	for ; slot <= rowCount; slot++ {
		idx.offsets[slot] = cursor
	}
	return idx, nil
}

// MinRow returns the ISIN row of index entry 0.
func (idx *RowIndex) MinRow() int { return idx.minRow }

// Len returns the number of rows in the index.
func (idx *RowIndex) Len() int { return len(idx.offsets) - 1 }

// Offset returns the first record of entry i.
func (idx *RowIndex) Offset(i int) int { return idx.offsets[i] }

// Count returns the number of records of entry i.
func (idx *RowIndex) Count(i int) int { return idx.offsets[i+1] - idx.offsets[i] }

// Records returns the number of records spanned by the whole index.
func (idx *RowIndex) Records() int { return idx.offsets[len(idx.offsets)-1] - idx.offsets[0] }
