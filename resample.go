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
	"context"
	"fmt"

	"github.com/spatialmodel/binned/archive"
	"github.com/spatialmodel/binned/isin"
)

// Region is a rectangle of output pixels. Only unit steps are supported:
// the archive cannot skip records cheaply, so subsampling is left to the
// caller.
type Region struct {
	X, Y          int
	Width, Height int
	StepX, StepY  int
}

// NewRegion returns the region of width by height pixels whose top-left
// pixel is (x, y).
func NewRegion(x, y, width, height int) Region {
	return Region{X: x, Y: y, Width: width, Height: height, StepX: 1, StepY: 1}
}

// Len returns the number of pixels in the region.
func (reg Region) Len() int { return reg.Width * reg.Height }

func (reg Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", reg.Width, reg.Height, reg.X, reg.Y)
}

// check returns an error wrapping ErrInvalidRequest if reg is not a
// readable part of w or cannot be stored in a buffer of length n.
func (reg Region) check(w *isin.Window, n int) error {
	switch {
	case reg.StepX != 1 || reg.StepY != 1:
		return invalidf("subsampling step (%d, %d) is not supported", reg.StepX, reg.StepY)
	case reg.Width < 1 || reg.Height < 1:
		return invalidf("empty region %v", reg)
	case reg.X < 0 || reg.Y < 0 || reg.X+reg.Width > w.ColCount || reg.Y+reg.Height > w.RowCount:
		return invalidf("region %v is outside of the %dx%d raster", reg, w.ColCount, w.RowCount)
	case n != reg.Len():
		return invalidf("destination holds %d samples but region %v has %d", n, reg, reg.Len())
	}
	return nil
}

// rangeReader reads record ranges of archive variables.
type rangeReader interface {
	archive.IntReader
	ReadFloats(name string, start, count int) ([]float64, error)
}

// resampler reads equirectangular pixels out of the binned records.
type resampler struct {
	src   rangeReader
	win   *isin.Window
	index *RowIndex
}

// readRows fills dst, row by row, with the raw values of band b in reg.
// Pixels without a record are set to the band's no-data value.
// Cancellation is checked before every row.
func (rs *resampler) readRows(ctx context.Context, b *Band, reg Region, dst []float64, pm Monitor) error {
	pm.Begin(b.Name, reg.Height)
	defer pm.Done()

	targets := make([]int, reg.Width)
	for j := 0; j < reg.Height; j++ {
		if err := ctx.Err(); err != nil {
			return cancelError{cause: err}
		}
		if pm.Cancelled() {
			return ErrCancelled
		}
		y := reg.Y + j
		out := dst[j*reg.Width : (j+1)*reg.Width]

		i := rs.win.Row(y) - rs.index.MinRow()
		start, count := rs.index.Offset(i), rs.index.Count(i)
		if count == 0 {
			fill(out, b.NoData)
			pm.Worked(1)
			continue
		}
		cols, err := rs.src.ReadInts(archive.ColVar, start, count)
		if err != nil {
			return &ReadError{Band: b.Name, Row: y, Err: err}
		}
		vals, err := rs.src.ReadFloats(b.Name, start, count)
		if err != nil {
			return &ReadError{Band: b.Name, Row: y, Err: err}
		}
		for k := range targets {
			targets[k] = rs.win.Col(reg.X+k, y)
		}
		mergeJoin(cols, vals, targets, b.NoData, out)
		pm.Worked(1)
	}
	return nil
}

// mergeJoin sets dst[x] to the value of the record whose column is
// targets[x], or to noData if there is none. cols must be ascending and so
// must targets; each record is visited at most once per target column.
func mergeJoin(cols []int32, vals []float64, targets []int, noData float64, dst []float64) {
	k := 0
	for x, z := range targets {
		dst[x] = noData
		for ; k < len(cols); k++ {
			c := int(cols[k])
			if c == z {
				dst[x] = vals[k]
				break
			}
			if c > z {
				break
			}
		}
	}
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}
