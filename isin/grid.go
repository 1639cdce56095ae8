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

// Package isin describes the global sinusoidal equal-area ("ISIN") grid used
// to address binned measurements, and the equirectangular windows that are
// cut out of it for display.
package isin

import "math"

// DefaultRowCount is the number of rows in the GlobColour binning grid,
// which gives bins of roughly 4.6 km on a side.
const DefaultRowCount = 4320

// Default is the ISIN grid used by GlobColour binned products.
var Default = NewGrid(DefaultRowCount)

// Grid is an integerized sinusoidal grid. Rows run from south (row 0) to
// north and have equal height; the number of columns in a row shrinks
// with the cosine of the row's centre latitude so that all bins cover
// approximately the same area. A Grid is immutable and may be shared.
type Grid struct {
	rowCount int
	latStep  float64
	colCount []int
	lonStep  []float64
}

// NewGrid creates a grid with the given number of rows. It panics if
// rowCount < 1.
func NewGrid(rowCount int) *Grid {
	if rowCount < 1 {
		panic("isin: grid must have at least one row")
	}
	g := &Grid{
		rowCount: rowCount,
		latStep:  180.0 / float64(rowCount),
		colCount: make([]int, rowCount),
		lonStep:  make([]float64, rowCount),
	}
	for r := 0; r < rowCount; r++ {
		lat := -90.0 + (float64(r)+0.5)*g.latStep
		n := int(math.Floor(2*float64(rowCount)*math.Cos(lat*math.Pi/180) + 0.5))
		if n < 1 {
			n = 1
		}
		g.colCount[r] = n
		g.lonStep[r] = 360.0 / float64(n)
	}
	return g
}

// RowCount returns the number of rows in the grid.
func (g *Grid) RowCount() int { return g.rowCount }

// LatStep returns the height of every row in degrees.
func (g *Grid) LatStep() float64 { return g.latStep }

// ColCount returns the number of columns in the given row.
func (g *Grid) ColCount(row int) int { return g.colCount[g.clampRow(row)] }

// LonStep returns the width in degrees of the columns in the given row.
func (g *Grid) LonStep(row int) float64 { return g.lonStep[g.clampRow(row)] }

// LatSouth returns the latitude of the southern edge of row.
func (g *Grid) LatSouth(row int) float64 {
	return float64(row)*180/float64(g.rowCount) - 90
}

// LonWest returns the longitude of the western edge of column col in row.
func (g *Grid) LonWest(row, col int) float64 {
	n := g.ColCount(row)
	return float64(col)*360/float64(n) - 180
}

// RowOf returns the row containing lat. Latitudes outside of
// [-90, 90] are clamped to the first or last row.
func (g *Grid) RowOf(lat float64) int {
	if math.IsNaN(lat) {
		return 0
	}
	r := g.clampRow(int(math.Floor((lat + 90) * float64(g.rowCount) / 180)))
	// Correct for rounding so that LatSouth(r) <= lat < LatSouth(r+1).
	if r > 0 && g.LatSouth(r) > lat {
		r--
	} else if r < g.rowCount-1 && g.LatSouth(r+1) <= lat {
		r++
	}
	return r
}

// ColOf returns the column of row that contains lon. Both the row and the
// resulting column are clamped to the valid range.
func (g *Grid) ColOf(row int, lon float64) int {
	row = g.clampRow(row)
	if math.IsNaN(lon) {
		return 0
	}
	n := g.colCount[row]
	c := clamp(int(math.Floor((lon+180)*float64(n)/360)), 0, n-1)
	if c > 0 && g.LonWest(row, c) > lon {
		c--
	} else if c < n-1 && g.LonWest(row, c+1) <= lon {
		c++
	}
	return c
}

func (g *Grid) clampRow(row int) int { return clamp(row, 0, g.rowCount-1) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
