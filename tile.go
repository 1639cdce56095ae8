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

	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/binned/internal/hash"
)

type tileRequest struct {
	band   string
	tx, ty int
}

// TileCount returns the number of tiles across and down the raster, or
// zeros if the tile cache is disabled.
func (r *Reader) TileCount() (nx, ny int) {
	if r.tileSize < 1 {
		return 0, 0
	}
	return (r.Width() + r.tileSize - 1) / r.tileSize, (r.Height() + r.tileSize - 1) / r.tileSize
}

// Tile returns the geophysical samples of tile (tx, ty) of band, where
// tile (0, 0) is in the north-west corner. Tiles on the east and south
// edges may be smaller than the tile size. Results are cached and shared
// between callers, so they must not be modified. Tile requires the
// WithTileCache option.
func (r *Reader) Tile(ctx context.Context, band string, tx, ty int) (*sparse.DenseArray, error) {
	if r.State() != Open {
		return nil, ErrClosed
	}
	if r.tileSize < 1 {
		return nil, invalidf("tile cache is not enabled")
	}
	if _, err := r.Band(band); err != nil {
		return nil, err
	}
	nx, ny := r.TileCount()
	if tx < 0 || ty < 0 || tx >= nx || ty >= ny {
		return nil, invalidf("tile (%d, %d) is outside of the %dx%d tile grid", tx, ty, nx, ny)
	}
	tr := tileRequest{band: band, tx: tx, ty: ty}
	req := r.tileCache().NewRequest(ctx, tr, hash.Key(tr))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*sparse.DenseArray), nil
}

// tileCache starts the tile cache on first use. Deduplicate is not used:
// it never releases a key whose request failed, and cancelled tiles must
// be retryable.
func (r *Reader) tileCache() *requestcache.Cache {
	r.tilesOnce.Do(func() {
		r.tiles = requestcache.NewCache(r.processTile, 1, requestcache.Memory(r.maxTiles))
	})
	return r.tiles
}

func (r *Reader) processTile(ctx context.Context, request interface{}) (interface{}, error) {
	req := request.(tileRequest)
	x, y := req.tx*r.tileSize, req.ty*r.tileSize
	w, h := r.tileSize, r.tileSize
	if x+w > r.Width() {
		w = r.Width() - x
	}
	if y+h > r.Height() {
		h = r.Height() - y
	}
	return r.ReadGeophysical(ctx, req.band, NewRegion(x, y, w, h), nil)
}
