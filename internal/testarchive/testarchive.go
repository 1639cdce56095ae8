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

// Package testarchive writes small bin archives for use in tests.
package testarchive

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
)

// Var is a measurement variable. Values must have one element per record
// and one of the types []uint8, []int16, []int32, []float32 or []float64.
type Var struct {
	Values interface{}
	Attrs  map[string]interface{}
}

// Spec describes an archive to write.
type Spec struct {
	Rows, Cols []int16
	Vars       map[string]Var
	Global     map[string]interface{}

	// IntIndex stores row and col as int rather than short.
	IntIndex bool
}

// Write writes s to a new archive at path.
func Write(path string, s Spec) error {
	if len(s.Rows) != len(s.Cols) {
		return fmt.Errorf("testarchive: %d rows but %d cols", len(s.Rows), len(s.Cols))
	}
	n := len(s.Rows)
	h := cdf.NewHeader([]string{"bin"}, []int{n})

	for _, k := range sortedKeys(s.Global) {
		h.AddAttribute("", k, s.Global[k])
	}
	if s.IntIndex {
		h.AddVariable("row", []string{"bin"}, []int32{0})
		h.AddVariable("col", []string{"bin"}, []int32{0})
	} else {
		h.AddVariable("row", []string{"bin"}, []int16{0})
		h.AddVariable("col", []string{"bin"}, []int16{0})
	}
	names := make([]string, 0, len(s.Vars))
	for name := range s.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := s.Vars[name]
		h.AddVariable(name, []string{"bin"}, zero(v.Values))
		for _, k := range sortedKeys(v.Attrs) {
			h.AddAttribute(name, k, v.Attrs[k])
		}
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	rows, cols := interface{}(s.Rows), interface{}(s.Cols)
	if s.IntIndex {
		rows, cols = widen(s.Rows), widen(s.Cols)
	}
	if err := write(f, "row", rows, n); err != nil {
		return err
	}
	if err := write(f, "col", cols, n); err != nil {
		return err
	}
	for _, name := range names {
		if err := write(f, name, s.Vars[name].Values, n); err != nil {
			return err
		}
	}
	return w.Close()
}

func write(f *cdf.File, name string, data interface{}, n int) error {
	if n == 0 {
		return nil
	}
	w := f.Writer(name, []int{0}, []int{n - 1})
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("testarchive: writing %s: %v", name, err)
	}
	return nil
}

func zero(v interface{}) interface{} {
	switch v.(type) {
	case []uint8:
		return []uint8{0}
	case []int16:
		return []int16{0}
	case []int32:
		return []int32{0}
	case []float32:
		return []float32{0}
	case []float64:
		return []float64{0}
	}
	panic(fmt.Errorf("testarchive: unsupported type %T", v))
}

func widen(v []int16) []int32 {
	o := make([]int32, len(v))
	for i, x := range v {
		o[i] = int32(x)
	}
	return o
}

func sortedKeys(m map[string]interface{}) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// Cell is one populated bin.
type Cell struct {
	Row, Col int
}

// Full returns the row and col variables for every bin of rows
// [minRow, maxRow] of a grid, in row-major order. colCount returns the
// number of columns in a row.
func Full(minRow, maxRow int, colCount func(row int) int) (rows, cols []int16) {
	for r := minRow; r <= maxRow; r++ {
		for c := 0; c < colCount(r); c++ {
			rows = append(rows, int16(r))
			cols = append(cols, int16(c))
		}
	}
	return rows, cols
}

// Sparse returns the row and col variables for cells, which must already
// be sorted by row and then col.
func Sparse(cells []Cell) (rows, cols []int16) {
	for _, c := range cells {
		rows = append(rows, int16(c.Row))
		cols = append(cols, int16(c.Col))
	}
	return rows, cols
}
