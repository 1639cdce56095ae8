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
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/binned"
)

func openTest(t *testing.T, path string) Opener {
	return func() (*binned.Reader, error) {
		return binned.Open(path, binned.WithGrid(testGrid))
	}
}

func TestStats(t *testing.T) {
	s, err := Stats(context.Background(), openTest(t, writeRowArchive(t)), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 1 || s[0].Band != "chl" {
		t.Fatalf("want stats of chl only but have %+v", s)
	}
	c := s[0]
	// 36 pixels in each of the rows 0-17.
	var vals []float64
	for r := 0; r < 18; r++ {
		for i := 0; i < 36; i++ {
			vals = append(vals, float64(r))
		}
	}
	var sumSq float64
	for _, v := range vals {
		sumSq += (v - 8.5) * (v - 8.5)
	}
	wantSD := math.Sqrt(sumSq / float64(len(vals)-1))

	if c.Pixels != 648 || c.Valid != 648 {
		t.Errorf("want 648 valid pixels but have %d of %d", c.Valid, c.Pixels)
	}
	if c.Min != 0 || c.Max != 17 || c.Sum != 36*153 {
		t.Errorf("min %g max %g sum %g", c.Min, c.Max, c.Sum)
	}
	if c.Mean != 8.5 {
		t.Errorf("want mean 8.5 but have %g", c.Mean)
	}
	if math.Abs(c.StdDev-wantSD) > 1e-9 {
		t.Errorf("want standard deviation %g but have %g", wantSD, c.StdDev)
	}
	if c.Median != 8 || c.P90 != 16 {
		t.Errorf("median %g p90 %g", c.Median, c.P90)
	}
	if c.Unit != "mg m-3" {
		t.Errorf("unit %q", c.Unit)
	}
}

func TestStatsValid(t *testing.T) {
	s, err := Stats(context.Background(), openTest(t, writeRowArchive(t)), []string{"chl", "row"}, "value >= 10 && lat > -100")
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 {
		t.Fatalf("want 2 bands but have %d", len(s))
	}
	for _, c := range s {
		if c.Valid != 8*36 || c.Min != 10 || c.Max != 17 {
			t.Errorf("%s: valid %d min %g max %g", c.Band, c.Valid, c.Min, c.Max)
		}
	}

	s, err = Stats(context.Background(), openTest(t, writeRowArchive(t)), []string{"chl"}, "value > 100")
	if err != nil {
		t.Fatal(err)
	}
	if s[0].Valid != 0 || !math.IsNaN(s[0].Mean) {
		t.Errorf("want no valid pixels but have %+v", s[0])
	}
}

func TestStatsErrors(t *testing.T) {
	open := openTest(t, writeRowArchive(t))
	if _, err := Stats(context.Background(), open, []string{"chl"}, "value >"); err == nil {
		t.Error("want error for malformed expression")
	}
	if _, err := Stats(context.Background(), open, []string{"chl"}, "value + 1"); err == nil {
		t.Error("want error for non-boolean expression")
	}
	if _, err := Stats(context.Background(), open, []string{"nope"}, ""); err == nil {
		t.Error("want error for unknown band")
	}
}

func TestStatsInStrips(t *testing.T) {
	open := openTest(t, writeRowArchive(t))
	whole, err := Stats(context.Background(), open, []string{"chl", "row"}, "lat > 0")
	if err != nil {
		t.Fatal(err)
	}
	if whole[0].Valid != 9*36 || whole[0].Min != 9 {
		t.Fatalf("northern hemisphere: have %+v", whole[0])
	}

	defer func(n int) { stripRows = n }(stripRows)
	stripRows = 5
	strips, err := Stats(context.Background(), open, []string{"chl", "row"}, "lat > 0")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(whole, strips) {
		t.Errorf("reading in strips changed the result: %v", pretty.Diff(whole, strips))
	}
}
