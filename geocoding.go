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
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/binned/isin"
)

// Geographic is the spatial reference of every Reader's raster.
const Geographic = "+proj=longlat +datum=WGS84 +no_defs"

// Geocoding places the raster on the globe.
type Geocoding struct {
	// Transform is the affine transform from pixel to geographic
	// coordinates in GDAL order: origin longitude, pixel width, 0,
	// origin latitude (north edge), 0, negative pixel height.
	Transform [6]float64

	// SR is the spatial reference of the transformed coordinates.
	SR *proj.SR
}

func newGeocoding(w *isin.Window) (*Geocoding, error) {
	sr, err := proj.Parse(Geographic)
	if err != nil {
		return nil, err
	}
	return &Geocoding{
		Transform: [6]float64{
			w.OriginLon, w.LonStep, 0,
			w.OriginLat + float64(w.RowCount)*w.LatStep, 0, -w.LatStep,
		},
		SR: sr,
	}, nil
}

// PixelToLonLat returns the coordinates of pixel position (x, y), where
// (0, 0) is the north-west corner of the raster and (0.5, 0.5) the centre
// of its first pixel.
func (g *Geocoding) PixelToLonLat(x, y float64) (lon, lat float64) {
	t := g.Transform
	return t[0] + x*t[1] + y*t[2], t[3] + x*t[4] + y*t[5]
}

// LonLatToPixel is the inverse of PixelToLonLat.
func (g *Geocoding) LonLatToPixel(lon, lat float64) (x, y float64) {
	t := g.Transform
	return (lon - t[0]) / t[1], (lat - t[3]) / t[5]
}
