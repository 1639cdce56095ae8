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

package binnedutil

import (
	"path/filepath"
	"testing"

	"github.com/spatialmodel/binned/internal/testarchive"
	"github.com/spatialmodel/binned/isin"
)

// testGrid is small enough to check results by hand: 18 rows of 10° and
// 36 columns at the equator.
var testGrid = isin.NewGrid(18)

// writeRowArchive writes an archive covering every cell of testGrid whose
// "row" band holds the ISIN row of each cell and whose "chl" band holds
// the row number too, stored as row/2 with a scale factor of 2.
func writeRowArchive(t *testing.T) string {
	rows, cols := testarchive.Full(0, testGrid.RowCount()-1, testGrid.ColCount)
	chl := make([]float32, len(rows))
	for i, r := range rows {
		chl[i] = float32(r) / 2
	}
	path := filepath.Join(t.TempDir(), "rows.nc")
	err := testarchive.Write(path, testarchive.Spec{
		Rows: rows,
		Cols: cols,
		Vars: map[string]testarchive.Var{
			"chl": {
				Values: chl,
				Attrs: map[string]interface{}{
					"_FillValue":   []float32{-1},
					"scale_factor": []float32{2},
					"units":        "mg m-3",
					"long_name":    "chlorophyll",
				},
			},
		},
		Global: map[string]interface{}{"title": "row test"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return path
}
