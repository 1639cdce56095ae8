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
	"math"

	"github.com/spatialmodel/binned/archive"
)

// Band is one measurement variable of an archive, exposed as a raster
// band. Raw samples are converted to geophysical values with
// Scale(raw) = raw*ScaleFactor + AddOffset.
type Band struct {
	Name        string
	Description string
	Unit        string
	DataType    string // NetCDF storage type

	NoData      float64
	ScaleFactor float64
	AddOffset   float64

	// Pseudo is true for the row and col index variables.
	Pseudo bool
}

// Scale converts raw to a geophysical value.
func (b *Band) Scale(raw float64) float64 { return raw*b.ScaleFactor + b.AddOffset }

// IsNoData reports whether raw is the band's no-data value.
func (b *Band) IsNoData(raw float64) bool {
	if math.IsNaN(b.NoData) {
		return math.IsNaN(raw)
	}
	return raw == b.NoData
}

// numericAttr looks up a numeric band property from the first of names
// present on the variable, falling back to the storage type's default
// fill value if typeFill is set and then to def.
type numericAttr struct {
	names    []string
	typeFill bool
	def      float64
	set      func(b *Band, v float64)
}

type textAttr struct {
	names []string
	set   func(b *Band, v string)
}

var numericAttrs = []numericAttr{
	{names: []string{"_FillValue", "missing_value"}, typeFill: true, set: func(b *Band, v float64) { b.NoData = v }},
	{names: []string{"scale_factor"}, def: 1, set: func(b *Band, v float64) { b.ScaleFactor = v }},
	{names: []string{"add_offset"}, set: func(b *Band, v float64) { b.AddOffset = v }},
}

var textAttrs = []textAttr{
	{names: []string{"units"}, set: func(b *Band, v string) { b.Unit = v }},
	{names: []string{"long_name", "description"}, set: func(b *Band, v string) { b.Description = v }},
}

// pseudoNoData is the no-data value of the row and col bands.
const pseudoNoData = -1

func newBand(a *archive.Archive, name string) *Band {
	b := &Band{Name: name, DataType: a.DataType(name)}
	for _, att := range numericAttrs {
		v, ok := att.def, false
		for _, n := range att.names {
			if v, ok = a.VarFloat(name, n); ok {
				break
			}
		}
		if !ok && att.typeFill {
			v, ok = a.FillValue(name)
		}
		if !ok {
			v = att.def
		}
		att.set(b, v)
	}
	for _, att := range textAttrs {
		for _, n := range att.names {
			if v := a.VarString(name, n, ""); v != "" {
				att.set(b, v)
				break
			}
		}
	}
	if name == archive.RowVar || name == archive.ColVar {
		b.Pseudo = true
		b.NoData = pseudoNoData
	}
	return b
}
