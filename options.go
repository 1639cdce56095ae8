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
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/binned/isin"
)

// An Option configures a Reader.
type Option func(*Reader)

// WithGrid sets the ISIN grid the archive is binned on. The default is
// isin.Default.
func WithGrid(g *isin.Grid) Option {
	return func(r *Reader) { r.grid = g }
}

// WithLogger sets the destination of log messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) { r.log = l }
}

// WithChunkSize sets the number of row ids read at once while building
// the row index.
func WithChunkSize(n int) Option {
	return func(r *Reader) { r.chunkSize = n }
}

// WithTileCache enables Tile, keeping up to maxTiles decoded tiles of
// tileSize by tileSize pixels in memory.
//
// The cache is started by the first call to Tile. Its worker goroutines
// and the tiles they hold are not released by Close and live until the
// process exits, so long-running programs should share one tiled Reader
// per archive rather than opening one per request.
func WithTileCache(tileSize, maxTiles int) Option {
	return func(r *Reader) {
		r.tileSize = tileSize
		r.maxTiles = maxTiles
	}
}
