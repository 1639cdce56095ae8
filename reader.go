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

// Package binned reads binned satellite products stored on the ISIN
// sinusoidal grid and presents them as equirectangular rasters.
//
// A bin archive holds one record per populated grid cell: a row id, a
// column id and any number of measurements, sorted by row and then column.
// A Reader indexes the records by row once, on first access, and then
// resamples any rectangle of the output raster with a single merge of the
// records of each row against the columns that the output pixels fall in.
package binned

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/binned/archive"
	"github.com/spatialmodel/binned/isin"
)

// Product types reported by ProductType.
const (
	ProductL3b    = "GlobColour-L3b"
	ProductL3bDDS = "GlobColour-L3b-DDS"
)

// Names of the global attributes describing the window.
const (
	attrSouth     = "max_south_grid"
	attrNorth     = "max_north_grid"
	attrWest      = "max_west_grid"
	attrEast      = "max_east_grid"
	attrTrueScale = "site_latitude"
	attrTitle     = "title"
)

// Global attributes marking a diagnostic data set.
var ddsAttrs = []string{"site_name", "dds_name"}

// State is the life-cycle stage of a Reader.
type State int

const (
	Closed State = iota
	Opening
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reader is an open bin archive. Reads on one Reader are serialized;
// independent Readers, even of the same file, share nothing and can be
// used in parallel.
type Reader struct {
	mu    sync.Mutex
	state State

	src   *archive.Archive
	index *RowIndex

	name        string
	title       string
	productType string
	grid        *isin.Grid
	win         *isin.Window
	geo         *Geocoding
	bands       []*Band
	meta        *Metadata

	chunkSize int
	log       logrus.FieldLogger

	tileSize, maxTiles int
	tilesOnce          sync.Once
	tiles              *requestcache.Cache
}

// Metadata holds the attributes of an archive.
type Metadata struct {
	Global    map[string]interface{}
	Variables map[string]map[string]interface{}
}

// Open opens the archive at path.
func Open(path string, opts ...Option) (*Reader, error) {
	a, err := archive.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return NewReader(a, filepath.Base(path), opts...)
}

// NewReader returns a Reader of a, which it takes ownership of: a is
// closed if NewReader fails.
func NewReader(a *archive.Archive, name string, opts ...Option) (r *Reader, err error) {
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	r = &Reader{
		state:     Opening,
		src:       a,
		name:      name,
		grid:      isin.Default,
		chunkSize: archive.DefaultChunkSize,
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.grid == nil {
		return nil, invalidf("no grid")
	}

	b := geom.Bounds{
		Min: geom.Point{X: a.GlobalFloat(attrWest, -180), Y: a.GlobalFloat(attrSouth, -90)},
		Max: geom.Point{X: a.GlobalFloat(attrEast, 180), Y: a.GlobalFloat(attrNorth, 90)},
	}
	r.win = isin.NewWindow(r.grid, b, a.GlobalFloat(attrTrueScale, 0))

	if r.geo, err = newGeocoding(r.win); err != nil {
		return nil, err
	}
	r.title = a.GlobalString(attrTitle, "")
	r.productType = ProductL3b
	for _, n := range ddsAttrs {
		if a.HasGlobal(n) {
			r.productType = ProductL3bDDS
		}
	}

	r.meta = &Metadata{
		Global:    a.Attributes(""),
		Variables: make(map[string]map[string]interface{}),
	}
	for _, v := range a.Variables() {
		r.bands = append(r.bands, newBand(a, v))
		r.meta.Variables[v] = a.Attributes(v)
	}

	if r.tileSize > 0 && r.maxTiles < 1 {
		r.maxTiles = 1
	}

	r.log = r.log.WithField("archive", name)
	r.log.WithFields(logrus.Fields{
		"records": a.Len(),
		"bands":   len(r.bands),
		"window":  r.win.String(),
		"product": r.productType,
	}).Info("opened bin archive")
	r.state = Open
	return r, nil
}

// State returns the life-cycle stage of r.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Name returns the name r was opened with.
func (r *Reader) Name() string { return r.name }

// Title returns the title of the product.
func (r *Reader) Title() string { return r.title }

// ProductType returns ProductL3b or ProductL3bDDS.
func (r *Reader) ProductType() string { return r.productType }

// Width returns the number of raster columns.
func (r *Reader) Width() int { return r.win.ColCount }

// Height returns the number of raster rows.
func (r *Reader) Height() int { return r.win.RowCount }

// Window returns the window of the grid covered by the raster.
func (r *Reader) Window() *isin.Window { return r.win }

// Geocoding returns the placement of the raster on the globe.
func (r *Reader) Geocoding() *Geocoding { return r.geo }

// Metadata returns the global and per-variable attributes of the archive.
func (r *Reader) Metadata() *Metadata { return r.meta }

// Bands returns the bands of the raster, including the row and col
// pseudo-bands, in archive order.
func (r *Reader) Bands() []*Band {
	o := make([]*Band, len(r.bands))
	copy(o, r.bands)
	return o
}

// Band returns the band called name.
func (r *Reader) Band(name string) (*Band, error) {
	for _, b := range r.bands {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, invalidf("no band %q", name)
}

// Index returns the row index of the raster, building it if necessary.
func (r *Reader) Index() (*RowIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Open {
		return nil, ErrClosed
	}
	return r.rowIndex()
}

// rowIndex builds the row index on first use. r.mu must be held.
func (r *Reader) rowIndex() (*RowIndex, error) {
	if r.index != nil {
		return r.index, nil
	}
	start := time.Now()
	idx, err := BuildRowIndex(r.src, r.win.MinRow, r.win.RowCount, r.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("binned: building row index: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"rows":     idx.Len(),
		"records":  idx.Records(),
		"duration": time.Since(start),
	}).Debug("built row index")
	r.index = idx
	return idx, nil
}

// ReadRaster fills dst with the raw samples of band in reg, row by row
// starting in the north-west. Pixels without a record are set to the
// band's NoData value. pm may be nil.
func (r *Reader) ReadRaster(ctx context.Context, band string, reg Region, dst []float64, pm Monitor) error {
	if pm == nil {
		pm = NullMonitor{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Open {
		return ErrClosed
	}
	b, err := r.Band(band)
	if err != nil {
		return err
	}
	if err := reg.check(r.win, len(dst)); err != nil {
		return err
	}
	idx, err := r.rowIndex()
	if err != nil {
		return err
	}
	rs := &resampler{src: r.src, win: r.win, index: idx}
	err = rs.readRows(ctx, b, reg, dst, pm)
	if errors.Is(err, ErrCancelled) {
		r.log.WithFields(logrus.Fields{"band": band, "region": reg.String()}).Warn("read cancelled")
	}
	return err
}

// ReadGeophysical returns the scaled samples of band in reg as an array of
// shape [reg.Height, reg.Width]. Pixels without data are NaN.
func (r *Reader) ReadGeophysical(ctx context.Context, band string, reg Region, pm Monitor) (*sparse.DenseArray, error) {
	b, err := r.Band(band)
	if err != nil {
		return nil, err
	}
	if err := reg.check(r.win, reg.Len()); err != nil {
		return nil, err
	}
	raw := make([]float64, reg.Len())
	if err := r.ReadRaster(ctx, band, reg, raw, pm); err != nil {
		return nil, err
	}
	o := sparse.ZerosDense(reg.Height, reg.Width)
	for i, v := range raw {
		if b.IsNoData(v) {
			o.Elements[i] = math.NaN()
		} else {
			o.Elements[i] = b.Scale(v)
		}
	}
	return o, nil
}

// Close releases the archive and the row index. It is safe to call Close
// more than once. The raster description remains available after Close.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Closed {
		return nil
	}
	r.state = Closed
	r.index = nil
	err := r.src.Close()
	r.src = nil
	r.log.Debug("closed bin archive")
	return err
}
