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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/ctessum/geom/carto"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/binned"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Quicklook is a colour-mapped rendering of one band.
type Quicklook struct {
	Image *image.NRGBA
	cmap  *carto.ColorMap
	label string
	flat  bool // no non-zero values, so there is no scale
}

// NewQuicklook renders the geophysical values of band. Pixels without
// data, or that fail the valid expression, are transparent.
func NewQuicklook(ctx context.Context, r *binned.Reader, band, valid string) (*Quicklook, error) {
	b, err := r.Band(band)
	if err != nil {
		return nil, err
	}
	filter, err := newPixelFilter(valid)
	if err != nil {
		return nil, err
	}
	// The colour scale needs the range of the whole band, so strips are
	// read twice: once for the scale and once to draw.
	cmap := carto.NewColorMap(carto.Linear)
	flat := true
	err = eachStrip(ctx, r, band, filter, func(_ int, a *sparse.DenseArray) error {
		vals := appendValid(nil, a)
		cmap.AddArray(vals)
		for _, v := range vals {
			if v != 0 {
				flat = false
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cmap.Set()

	img := image.NewNRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	err = eachStrip(ctx, r, band, filter, func(y0 int, a *sparse.DenseArray) error {
		for i, v := range a.Elements {
			x, y := i%r.Width(), y0+i/r.Width()
			if math.IsNaN(v) {
				img.SetNRGBA(x, y, color.NRGBA{})
				continue
			}
			img.SetNRGBA(x, y, cmap.GetColor(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	label := b.Name
	if b.Description != "" {
		label = b.Description
	}
	if b.Unit != "" {
		label = fmt.Sprintf("%s (%s)", label, b.Unit)
	}
	return &Quicklook{Image: img, cmap: cmap, label: label, flat: flat}, nil
}

// WritePNG writes the rendering as a PNG image.
func (q *Quicklook) WritePNG(w io.Writer) error {
	return png.Encode(w, q.Image)
}

// WriteLegend writes the colour scale as a PNG image.
func (q *Quicklook) WriteLegend(w io.Writer) error {
	if q.flat {
		return fmt.Errorf("binnedutil: %s has no range of values to draw a legend for", q.label)
	}
	const legendWidth = 6.2 * vg.Inch
	const legendHeight = legendWidth * 0.1067
	q.cmap.LegendWidth = legendWidth
	q.cmap.LegendHeight = legendHeight
	q.cmap.LineWidth = 0.5
	q.cmap.FontSize = 8

	c := vgimg.New(legendWidth, legendHeight)
	dc := draw.New(c)
	if err := q.cmap.Legend(&dc, q.label); err != nil {
		return err
	}
	_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}
