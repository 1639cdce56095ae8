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
	"math"
	"testing"

	"github.com/spatialmodel/binned/isin"
)

func TestTile(t *testing.T) {
	g := isin.NewGrid(18)
	r, err := Open(writeGridArchive(t, g, nil, nil), WithGrid(g), WithTileCache(10, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if nx, ny := r.TileCount(); nx != 4 || ny != 2 {
		t.Fatalf("want 4x2 tiles but have %dx%d", nx, ny)
	}
	ctx := context.Background()
	tile, err := r.Tile(ctx, "value", 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tile.Shape[0] != 8 || tile.Shape[1] != 6 {
		t.Fatalf("want 8x6 edge tile but have shape %v", tile.Shape)
	}
	want, err := r.ReadGeophysical(ctx, "value", NewRegion(30, 10, 6, 8), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range want.Elements {
		if tile.Elements[i] != v && !(math.IsNaN(v) && math.IsNaN(tile.Elements[i])) {
			t.Errorf("element %d: want %g but have %g", i, v, tile.Elements[i])
		}
	}

	again, err := r.Tile(ctx, "value", 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if again != tile {
		t.Error("second request should be served from the cache")
	}

	if _, err := r.Tile(ctx, "value", 4, 0); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("want ErrInvalidRequest but have %v", err)
	}
	if _, err := r.Tile(ctx, "nope", 0, 0); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("want ErrInvalidRequest but have %v", err)
	}

	r.Close()
	if _, err := r.Tile(ctx, "value", 0, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("want ErrClosed but have %v", err)
	}
}

func TestTileCancelledIsRetried(t *testing.T) {
	g := isin.NewGrid(18)
	r, err := Open(writeGridArchive(t, g, nil, nil), WithGrid(g), WithTileCache(10, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Tile(ctx, "value", 0, 0); !errors.Is(err, ErrCancelled) {
		t.Fatalf("want ErrCancelled but have %v", err)
	}
	if _, err := r.Tile(context.Background(), "value", 0, 0); err != nil {
		t.Errorf("retry after cancellation: %v", err)
	}
}

func TestTileDisabled(t *testing.T) {
	g := isin.NewGrid(18)
	r, err := Open(writeGridArchive(t, g, nil, nil), WithGrid(g))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Tile(context.Background(), "value", 0, 0); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("want ErrInvalidRequest but have %v", err)
	}
}

func TestTileCacheStartsOnFirstUse(t *testing.T) {
	g := isin.NewGrid(18)
	r, err := Open(writeGridArchive(t, g, nil, nil), WithGrid(g), WithTileCache(10, 0))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.tiles != nil {
		t.Fatal("tile cache should not run before the first tile")
	}
	ctx := context.Background()
	if _, err := r.Tile(ctx, "value", 9, 9); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest but have %v", err)
	}
	if r.tiles != nil {
		t.Error("an invalid tile should not start the cache")
	}
	if _, err := r.Tile(ctx, "value", 0, 0); err != nil {
		t.Fatal(err)
	}
	if r.tiles == nil || r.maxTiles != 1 {
		t.Errorf("cache not started or size not defaulted: %v, %d", r.tiles, r.maxTiles)
	}
}
