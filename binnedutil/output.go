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

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/binned"
)

type windowInfo struct {
	MinRow, MaxRow       int
	MinCol, TrueScaleRow int
	OriginLon, OriginLat float64
	LonStep, LatStep     float64
}

type bandInfo struct {
	Name, Description, Unit, DataType string
	NoData, ScaleFactor, AddOffset     float64
	Pseudo                             bool
}

type archiveInfo struct {
	Name, Title, ProductType string
	Width, Height            int
	Transform                [6]float64
	Window                   windowInfo
	Bands                    []bandInfo
	Global                   map[string]interface{}
	Variables                map[string]map[string]interface{}
}

// WriteInfo writes a description of the raster of r to w as TOML.
func WriteInfo(w io.Writer, r *binned.Reader) error {
	win := r.Window()
	info := archiveInfo{
		Name:        r.Name(),
		Title:       r.Title(),
		ProductType: r.ProductType(),
		Width:       r.Width(),
		Height:      r.Height(),
		Transform:   r.Geocoding().Transform,
		Window: windowInfo{
			MinRow: win.MinRow, MaxRow: win.MaxRow,
			MinCol: win.MinCol, TrueScaleRow: win.TrueScaleRow,
			OriginLon: win.OriginLon, OriginLat: win.OriginLat,
			LonStep: win.LonStep, LatStep: win.LatStep,
		},
		Global:    r.Metadata().Global,
		Variables: r.Metadata().Variables,
	}
	for _, b := range r.Bands() {
		info.Bands = append(info.Bands, bandInfo{
			Name: b.Name, Description: b.Description, Unit: b.Unit, DataType: b.DataType,
			NoData: b.NoData, ScaleFactor: b.ScaleFactor, AddOffset: b.AddOffset,
			Pseudo: b.Pseudo,
		})
	}
	return toml.NewEncoder(w).Encode(info)
}

// WriteIndex builds the row index of r and writes a summary of the number
// of records per row to w. If perRow is true every row is listed.
func WriteIndex(w io.Writer, r *binned.Reader, perRow bool) error {
	idx, err := r.Index()
	if err != nil {
		return err
	}
	var populated, max int
	for i := 0; i < idx.Len(); i++ {
		n := idx.Count(i)
		if n > 0 {
			populated++
		}
		if n > max {
			max = n
		}
	}
	fmt.Fprintf(w, "rows:            %d (ISIN %d-%d)\n", idx.Len(), idx.MinRow(), idx.MinRow()+idx.Len()-1)
	fmt.Fprintf(w, "populated rows:  %d\n", populated)
	fmt.Fprintf(w, "records:         %d\n", idx.Records())
	fmt.Fprintf(w, "max records/row: %d\n", max)
	if perRow {
		for i := idx.Len() - 1; i >= 0; i-- {
			fmt.Fprintf(w, "%d\t%d\t%d\n", idx.MinRow()+i, idx.Offset(i), idx.Count(i))
		}
	}
	return nil
}

// WriteASCIIGrid writes the raw samples of band in reg to w as an ESRI
// ASCII grid. Rows are written from north to south.
func WriteASCIIGrid(ctx context.Context, w io.Writer, r *binned.Reader, band string, reg binned.Region) error {
	b, err := r.Band(band)
	if err != nil {
		return err
	}
	data := make([]float64, reg.Len())
	if err := r.ReadRaster(ctx, band, reg, data, nil); err != nil {
		return err
	}
	t := r.Geocoding().Transform
	xll := t[0] + float64(reg.X)*t[1]
	yll := t[3] + float64(reg.Y+reg.Height)*t[5]
	fmt.Fprintf(w, "ncols %d\nnrows %d\n", reg.Width, reg.Height)
	fmt.Fprintf(w, "xllcorner %v\nyllcorner %v\n", xll, yll)
	if math.Abs(t[1]+t[5]) < 1e-12*t[1] {
		fmt.Fprintf(w, "cellsize %v\n", t[1])
	} else {
		fmt.Fprintf(w, "dx %v\ndy %v\n", t[1], -t[5])
	}
	fmt.Fprintf(w, "NODATA_value %v\n", b.NoData)
	for j := 0; j < reg.Height; j++ {
		for i := 0; i < reg.Width; i++ {
			if i > 0 {
				if _, err := io.WriteString(w, " "); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(w, data[j*reg.Width+i]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
