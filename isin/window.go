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

package isin

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Window is an equirectangular raster cut out of a Grid. Every output row
// corresponds to exactly one ISIN row; all output columns have the same
// width, taken from the column density of a single reference row (the
// row containing the latitude of true scale). Away from that row this
// distorts the raster horizontally, most strongly near the poles.
//
// Output row 0 is the northernmost row.
type Window struct {
	grid *Grid

	// RowCount and ColCount are the dimensions of the output raster.
	RowCount, ColCount int

	// MinRow and MaxRow are the southernmost and northernmost ISIN rows.
	MinRow, MaxRow int

	// MinCol is the first ISIN column of TrueScaleRow in the window.
	MinCol int

	// TrueScaleRow is the ISIN row whose column density sets LonStep.
	TrueScaleRow int

	// OriginLat and OriginLon are the coordinates of the south-west corner.
	OriginLat, OriginLon float64

	// LatStep and LonStep are the pixel height and width in degrees.
	LatStep, LonStep float64
}

// NewWindow creates the window covering the bounding box b, where b.Min
// holds the western longitude and southern latitude and b.Max the eastern
// longitude and northern latitude. Bounds outside of the grid are clamped.
func NewWindow(g *Grid, b geom.Bounds, latitudeOfTrueScale float64) *Window {
	minLon, maxLon := b.Min.X, b.Max.X
	minLat, maxLat := b.Min.Y, b.Max.Y
	if minLon > maxLon {
		minLon, maxLon = maxLon, minLon
	}
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}

	minRow := g.RowOf(minLat)
	maxRow := g.RowOf(maxLat)
	trueScaleRow := g.RowOf(latitudeOfTrueScale)
	minCol := g.ColOf(trueScaleRow, minLon)
	maxCol := g.ColOf(trueScaleRow, maxLon)

	return &Window{
		grid:         g,
		RowCount:     maxRow - minRow + 1,
		ColCount:     maxCol - minCol + 1,
		MinRow:       minRow,
		MaxRow:       maxRow,
		MinCol:       minCol,
		TrueScaleRow: trueScaleRow,
		OriginLat:    g.LatSouth(minRow),
		OriginLon:    g.LonWest(trueScaleRow, minCol),
		LatStep:      g.LatStep(),
		LonStep:      g.LonStep(trueScaleRow),
	}
}

// Grid returns the grid the window was cut from.
func (w *Window) Grid() *Grid { return w.grid }

// Lon returns the longitude of the centre of output column x.
func (w *Window) Lon(x int) float64 { return w.OriginLon + (float64(x)+0.5)*w.LonStep }

// Lat returns the latitude of the centre of output row y.
func (w *Window) Lat(y int) float64 {
	return w.OriginLat + (float64(w.RowCount-y)-0.5)*w.LatStep
}

// Row returns the ISIN row of output row y.
func (w *Window) Row(y int) int { return w.MaxRow - y }

// Col returns the ISIN column that output pixel (x, y) falls into.
func (w *Window) Col(x, y int) int { return w.grid.ColOf(w.Row(y), w.Lon(x)) }

// Bounds returns the geographic extent of the window.
func (w *Window) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: w.OriginLon, Y: w.OriginLat},
		Max: geom.Point{
			X: w.OriginLon + float64(w.ColCount)*w.LonStep,
			Y: w.OriginLat + float64(w.RowCount)*w.LatStep,
		},
	}
}

func (w *Window) String() string {
	return fmt.Sprintf("%dx%d window at (%g, %g), step (%g, %g), ISIN rows %d-%d",
		w.ColCount, w.RowCount, w.OriginLon, w.OriginLat, w.LonStep, w.LatStep, w.MinRow, w.MaxRow)
}
