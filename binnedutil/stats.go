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
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
	"github.com/spatialmodel/binned"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// BandStats summarizes the geophysical values of one band.
type BandStats struct {
	Band   string
	Unit   string
	Pixels int // pixels in the raster
	Valid  int // pixels with data that pass the filter

	Min, Max, Sum, Mean float64
	StdDev              float64 // sample standard deviation
	Median, P90         float64
}

// Opener opens a new, independent handle of an archive.
type Opener func() (*binned.Reader, error)

// Stats computes statistics of each of bands, or of all non-index bands if
// bands is empty. Each band is read on its own handle, concurrently.
// valid is an optional filter expression; see pixelFilter.
func Stats(ctx context.Context, open Opener, bands []string, valid string) ([]BandStats, error) {
	if _, err := newPixelFilter(valid); err != nil {
		return nil, err
	}
	if len(bands) == 0 {
		r, err := open()
		if err != nil {
			return nil, err
		}
		for _, b := range r.Bands() {
			if !b.Pseudo {
				bands = append(bands, b.Name)
			}
		}
		r.Close()
	}

	out := make([]BandStats, len(bands))
	eg, ctx := errgroup.WithContext(ctx)
	for i, band := range bands {
		i, band := i, band
		eg.Go(func() error {
			r, err := open()
			if err != nil {
				return err
			}
			defer r.Close()
			filter, err := newPixelFilter(valid)
			if err != nil {
				return err
			}
			s, err := bandStats(ctx, r, band, filter)
			if err != nil {
				return err
			}
			out[i] = *s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func bandStats(ctx context.Context, r *binned.Reader, band string, filter *pixelFilter) (*BandStats, error) {
	b, err := r.Band(band)
	if err != nil {
		return nil, err
	}
	var vals []float64
	err = eachStrip(ctx, r, band, filter, func(_ int, a *sparse.DenseArray) error {
		vals = appendValid(vals, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s := &BandStats{
		Band:   band,
		Unit:   b.Unit,
		Pixels: r.Width() * r.Height(),
		Valid:  len(vals),
	}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.P90 = nan, nan, nan, nan, nan, nan
		return s, nil
	}
	sort.Float64s(vals)
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Sum = floats.Sum(vals)
	s.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		s.StdDev = stats.StatsSampleStandardDeviation(vals)
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, vals, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, vals, nil)
	return s, nil
}

// WriteStats writes s as a table.
func WriteStats(w io.Writer, s []BandStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "band\tunit\tvalid\tpixels\tmin\tmax\tmean\tstddev\tmedian\tp90\t")
	for _, b := range s {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t\n",
			b.Band, b.Unit, b.Valid, b.Pixels, b.Min, b.Max, b.Mean, b.StdDev, b.Median, b.P90)
	}
	return tw.Flush()
}
