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
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/binned/isin"
)

func TestMergeJoin(t *testing.T) {
	const nd = -1.
	tests := []struct {
		cols    []int32
		vals    []float64
		targets []int
		want    []float64
	}{
		{
			cols:    []int32{2, 5, 9},
			vals:    []float64{20, 50, 90},
			targets: []int{0, 2, 4, 5, 9, 11},
			want:    []float64{nd, 20, nd, 50, 90, nd},
		},
		{ // repeated targets
			cols:    []int32{1, 3},
			vals:    []float64{10, 30},
			targets: []int{1, 1, 2, 3, 3},
			want:    []float64{10, 10, nd, 30, 30},
		},
		{ // records outside of the targets
			cols:    []int32{0, 7, 8},
			vals:    []float64{0, 70, 80},
			targets: []int{3, 4, 5},
			want:    []float64{nd, nd, nd},
		},
		{
			cols:    nil,
			vals:    nil,
			targets: []int{0, 1},
			want:    []float64{nd, nd},
		},
	}
	for i, test := range tests {
		have := make([]float64, len(test.targets))
		mergeJoin(test.cols, test.vals, test.targets, nd, have)
		if !reflect.DeepEqual(test.want, have) {
			t.Errorf("%d: want %v but have %v", i, test.want, have)
		}
	}
}

// memArchive is an in-memory rangeReader.
type memArchive struct {
	rows, cols []int32
	vals       []float64
	failRow    int32 // reads of records in this row fail
}

func (m *memArchive) Len() int { return len(m.rows) }

func (m *memArchive) ReadInts(name string, start, count int) ([]int32, error) {
	switch name {
	case "row":
		return m.rows[start : start+count], nil
	case "col":
		if count > 0 && m.rows[start] == m.failRow {
			return nil, fmt.Errorf("bad sector")
		}
		return m.cols[start : start+count], nil
	}
	return nil, fmt.Errorf("no variable %s", name)
}

func (m *memArchive) ReadFloats(name string, start, count int) ([]float64, error) {
	return m.vals[start : start+count], nil
}

func newMemArchive(g *isin.Grid, skip map[int]bool) *memArchive {
	m := &memArchive{failRow: -1}
	for r := 0; r < g.RowCount(); r++ {
		if skip[r] {
			continue
		}
		for c := 0; c < g.ColCount(r); c++ {
			m.rows = append(m.rows, int32(r))
			m.cols = append(m.cols, int32(c))
			m.vals = append(m.vals, float64(r*10000+c))
		}
	}
	return m
}

func globalWindow(g *isin.Grid) *isin.Window {
	return isin.NewWindow(g, geom.Bounds{
		Min: geom.Point{X: -180, Y: -90},
		Max: geom.Point{X: 180, Y: 90},
	}, 0)
}

func newTestResampler(t *testing.T, m *memArchive, w *isin.Window) *resampler {
	idx, err := BuildRowIndex(m, w.MinRow, w.RowCount, 7)
	if err != nil {
		t.Fatal(err)
	}
	return &resampler{src: m, win: w, index: idx}
}

var testBand = &Band{Name: "value", NoData: -999, ScaleFactor: 1}

func TestResampleRoundTrip(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, nil), w)

	reg := NewRegion(0, 0, w.ColCount, w.RowCount)
	dst := make([]float64, reg.Len())
	if err := rs.readRows(context.Background(), testBand, reg, dst, NullMonitor{}); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < w.RowCount; y++ {
		for x := 0; x < w.ColCount; x++ {
			v := int(dst[y*w.ColCount+x])
			row, col := v/10000, v%10000
			wantRow := g.RowOf(w.Lat(y))
			wantCol := g.ColOf(wantRow, w.Lon(x))
			if row != wantRow || col != wantCol {
				t.Errorf("pixel (%d, %d): want cell (%d, %d) but have (%d, %d)", x, y, wantRow, wantCol, row, col)
			}
		}
	}
}

func TestResampleGapRow(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, map[int]bool{5: true, 17: true}), w)

	reg := NewRegion(0, 0, w.ColCount, w.RowCount)
	dst := make([]float64, reg.Len())
	if err := rs.readRows(context.Background(), testBand, reg, dst, NullMonitor{}); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < w.RowCount; y++ {
		gap := w.Row(y) == 5 || w.Row(y) == 17
		for x := 0; x < w.ColCount; x++ {
			v := dst[y*w.ColCount+x]
			if gap && v != testBand.NoData {
				t.Errorf("pixel (%d, %d) in gap row has %g", x, y, v)
			}
			if !gap && v == testBand.NoData {
				t.Errorf("pixel (%d, %d) has no data", x, y)
			}
		}
	}
}

func TestResampleSubRegion(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, nil), w)

	full := make([]float64, w.ColCount*w.RowCount)
	if err := rs.readRows(context.Background(), testBand, NewRegion(0, 0, w.ColCount, w.RowCount), full, NullMonitor{}); err != nil {
		t.Fatal(err)
	}
	reg := NewRegion(5, 3, 7, 4)
	sub := make([]float64, reg.Len())
	if err := rs.readRows(context.Background(), testBand, reg, sub, NullMonitor{}); err != nil {
		t.Fatal(err)
	}
	for j := 0; j < reg.Height; j++ {
		for i := 0; i < reg.Width; i++ {
			want := full[(reg.Y+j)*w.ColCount+reg.X+i]
			if have := sub[j*reg.Width+i]; have != want {
				t.Errorf("(%d, %d): want %g but have %g", i, j, want, have)
			}
		}
	}
}

type countingMonitor struct {
	NullMonitor
	total, worked, done int
	cancelAfter         int
}

func (m *countingMonitor) Begin(_ string, total int) { m.total = total }
func (m *countingMonitor) Worked(n int)              { m.worked += n }
func (m *countingMonitor) Done()                     { m.done++ }
func (m *countingMonitor) Cancelled() bool {
	return m.cancelAfter > 0 && m.worked >= m.cancelAfter
}

func TestResampleProgress(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, nil), w)
	reg := NewRegion(0, 0, w.ColCount, w.RowCount)

	pm := &countingMonitor{}
	if err := rs.readRows(context.Background(), testBand, reg, make([]float64, reg.Len()), pm); err != nil {
		t.Fatal(err)
	}
	if pm.total != 18 || pm.worked != 18 || pm.done != 1 {
		t.Errorf("monitor: %+v", pm)
	}

	pm = &countingMonitor{cancelAfter: 3}
	err := rs.readRows(context.Background(), testBand, reg, make([]float64, reg.Len()), pm)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("want ErrCancelled but have %v", err)
	}
	if pm.worked != 3 || pm.done != 1 {
		t.Errorf("monitor: %+v", pm)
	}
}

func TestResampleContextCancelled(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, nil), w)
	reg := NewRegion(0, 0, w.ColCount, w.RowCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rs.readRows(ctx, testBand, reg, make([]float64, reg.Len()), NullMonitor{})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("want ErrCancelled but have %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation cause is lost: %v", err)
	}
}

func TestResampleDeadline(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	rs := newTestResampler(t, newMemArchive(g, nil), w)
	reg := NewRegion(0, 0, w.ColCount, w.RowCount)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	err := rs.readRows(ctx, testBand, reg, make([]float64, reg.Len()), NullMonitor{})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("want ErrCancelled but have %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		t.Errorf("want a deadline cause but have %v", err)
	}
	if want := "binned: read cancelled: context deadline exceeded"; err.Error() != want {
		t.Errorf("want %q but have %q", want, err.Error())
	}
}

func TestResampleReadError(t *testing.T) {
	g := isin.NewGrid(18)
	w := globalWindow(g)
	m := newMemArchive(g, nil)
	m.failRow = 10
	rs := newTestResampler(t, m, w)
	reg := NewRegion(0, 0, w.ColCount, w.RowCount)

	err := rs.readRows(context.Background(), testBand, reg, make([]float64, reg.Len()), NullMonitor{})
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("want ReadError but have %v", err)
	}
	if re.Band != "value" || re.Row != w.MaxRow-10 {
		t.Errorf("error: %+v", re)
	}

	// Rows that do not touch the bad records are still readable.
	reg = NewRegion(0, 0, w.ColCount, 2)
	dst := make([]float64, reg.Len())
	if err := rs.readRows(context.Background(), testBand, reg, dst, NullMonitor{}); err != nil {
		t.Error(err)
	}
	if math.IsNaN(dst[0]) {
		t.Error("unexpected NaN")
	}
}

func TestRegionCheck(t *testing.T) {
	w := globalWindow(isin.NewGrid(18))
	tests := []struct {
		reg Region
		n   int
		ok  bool
	}{
		{reg: NewRegion(0, 0, 36, 18), n: 36 * 18, ok: true},
		{reg: NewRegion(35, 17, 1, 1), n: 1, ok: true},
		{reg: Region{X: 0, Y: 0, Width: 2, Height: 2, StepX: 2, StepY: 1}, n: 4},
		{reg: Region{X: 0, Y: 0, Width: 2, Height: 2, StepX: 1, StepY: 0}, n: 4},
		{reg: NewRegion(0, 0, 2, 2), n: 3},
		{reg: NewRegion(35, 0, 2, 1), n: 2},
		{reg: NewRegion(-1, 0, 1, 1), n: 1},
		{reg: NewRegion(0, 0, 0, 1), n: 0},
	}
	for _, test := range tests {
		err := test.reg.check(w, test.n)
		if test.ok && err != nil {
			t.Errorf("%v: %v", test.reg, err)
		}
		if !test.ok && !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%v: want ErrInvalidRequest but have %v", test.reg, err)
		}
	}
}
