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
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/binned"
)

// pixelFilter decides which pixels of a raster take part in statistics and
// quicklooks. The expression may refer to the geophysical value of the
// pixel as "value" and to the coordinates of its centre as "lon" and "lat".
// Pixels without data are always excluded.
type pixelFilter struct {
	expr *govaluate.EvaluableExpression
}

func newPixelFilter(expression string) (*pixelFilter, error) {
	if expression == "" {
		return &pixelFilter{}, nil
	}
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("binnedutil: parsing valid-pixel expression: %v", err)
	}
	return &pixelFilter{expr: expr}, nil
}

// stripRows is the number of raster rows read at once when a whole band
// is summarized or rendered, which bounds memory use on large grids.
var stripRows = 256

// eachStrip reads band in strips of stripRows rows from north to south,
// masks each with f and passes it to fn along with the raster row of its
// top edge.
func eachStrip(ctx context.Context, r *binned.Reader, band string, f *pixelFilter, fn func(y0 int, a *sparse.DenseArray) error) error {
	for y := 0; y < r.Height(); y += stripRows {
		h := stripRows
		if y+h > r.Height() {
			h = r.Height() - y
		}
		a, err := r.ReadGeophysical(ctx, band, binned.NewRegion(0, y, r.Width(), h), nil)
		if err != nil {
			return err
		}
		if err := f.mask(a, 0, y, r.Geocoding()); err != nil {
			return err
		}
		if err := fn(y, a); err != nil {
			return err
		}
	}
	return nil
}

// appendValid appends the elements of a that are not NaN to dst.
func appendValid(dst []float64, a *sparse.DenseArray) []float64 {
	for _, v := range a.Elements {
		if !math.IsNaN(v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// mask sets the pixels of a that do not pass the filter to NaN. a is
// modified in place.
func (f *pixelFilter) mask(a *sparse.DenseArray, x0, y0 int, geo *binned.Geocoding) error {
	if f.expr == nil {
		return nil
	}
	params := make(map[string]interface{}, 3)
	width := a.Shape[1]
	for i, v := range a.Elements {
		if math.IsNaN(v) {
			continue
		}
		lon, lat := geo.PixelToLonLat(float64(x0+i%width)+0.5, float64(y0+i/width)+0.5)
		params["value"] = v
		params["lon"] = lon
		params["lat"] = lat
		ok, err := f.eval(params)
		if err != nil {
			return err
		}
		if !ok {
			a.Elements[i] = math.NaN()
		}
	}
	return nil
}

func (f *pixelFilter) eval(params map[string]interface{}) (bool, error) {
	result, err := f.expr.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("binnedutil: evaluating valid-pixel expression: %v", err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("binnedutil: valid-pixel expression %q returned %v, not true or false", f.expr.String(), result)
	}
	return ok, nil
}
