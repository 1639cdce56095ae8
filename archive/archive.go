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

// Package archive provides range access to binned measurement archives:
// NetCDF classic files holding parallel one-dimensional variables over a
// shared "bin" dimension. The "row" and "col" variables address each
// record in the ISIN grid; all other numeric variables on the same
// dimension are measurements.
package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// Names of the dimension and variables every archive must provide.
const (
	BinDim = "bin"
	RowVar = "row"
	ColVar = "col"
)

// FormatError reports an archive that cannot be read as a bin archive.
type FormatError struct {
	Name string // archive name, may be empty
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	s := "archive: "
	if e.Name != "" {
		s += e.Name + ": "
	}
	s += e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() error { return e.Err }

// IntReader is implemented by sources that can read integer ranges of a
// named variable. Archive implements it.
type IntReader interface {
	// Len returns the number of records in every variable.
	Len() int
	// ReadInts reads count records of variable name starting at record start.
	ReadInts(name string, start, count int) ([]int32, error)
}

// Archive is an open bin archive. It is safe for concurrent reads only if
// the underlying storage is.
type Archive struct {
	cdf.File

	name   string
	closer io.Closer
	n      int
	vars   []string
}

// OpenFile opens the archive at path. The returned Archive owns the file
// and releases it on Close.
func OpenFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	a, err := open(readOnly{f}, fi.Size(), path)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// Open reads the header from rw, whose total length is size, and checks
// that it describes a bin archive.
func Open(rw cdf.ReaderWriterAt, size int64) (*Archive, error) {
	return open(rw, size, "")
}

func open(rw cdf.ReaderWriterAt, size int64, name string) (*Archive, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, &FormatError{Name: name, Msg: "unreadable header", Err: err}
	}
	a := &Archive{File: *f, name: name}

	dims := f.Header.Dimensions("")
	lengths := f.Header.Lengths("")
	found := false
	for i, d := range dims {
		if d != BinDim {
			continue
		}
		found = true
		a.n = lengths[i]
		if a.n == 0 { // record dimension
			a.n = int(f.Header.NumRecs(size))
		}
	}
	if !found {
		return nil, &FormatError{Name: name, Msg: fmt.Sprintf("missing dimension %q", BinDim)}
	}

	for _, v := range f.Header.Variables() {
		d := f.Header.Dimensions(v)
		if len(d) != 1 || d[0] != BinDim {
			continue
		}
		if _, ok := f.Header.ZeroValue(v, 0).(string); ok {
			continue // character data is never a band
		}
		a.vars = append(a.vars, v)
	}
	for _, req := range []string{RowVar, ColVar} {
		if !a.has(req) {
			return nil, &FormatError{Name: name, Msg: fmt.Sprintf("missing one-dimensional numeric variable %q over %q", req, BinDim)}
		}
	}
	return a, nil
}

func (a *Archive) has(v string) bool {
	for _, vv := range a.vars {
		if vv == v {
			return true
		}
	}
	return false
}

// Name returns the path the archive was opened from, if any.
func (a *Archive) Name() string { return a.name }

// Len returns the number of bin records.
func (a *Archive) Len() int { return a.n }

// Variables returns the numeric variables defined over the bin dimension,
// including "row" and "col", in header order.
func (a *Archive) Variables() []string {
	o := make([]string, len(a.vars))
	copy(o, a.vars)
	return o
}

// DataType returns the NetCDF storage type of variable v: one of "byte",
// "short", "int", "float" or "double", or "" if v does not exist.
func (a *Archive) DataType(v string) string {
	switch a.Header.ZeroValue(v, 0).(type) {
	case []uint8:
		return "byte"
	case []int16:
		return "short"
	case []int32:
		return "int"
	case []float32:
		return "float"
	case []float64:
		return "double"
	}
	return ""
}

// Close releases the underlying file if the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// read reads count records of v starting at start into a slice of the
// variable's storage type.
func (a *Archive) read(v string, start, count int) (interface{}, error) {
	if !a.has(v) {
		return nil, fmt.Errorf("archive: no variable %q over %q", v, BinDim)
	}
	if start < 0 || count < 0 || start+count > a.n {
		return nil, fmt.Errorf("archive: range [%d, %d) of %q out of bounds [0, %d)", start, start+count, v, a.n)
	}
	if count == 0 {
		return a.Header.ZeroValue(v, 0), nil
	}
	r := a.File.Reader(v, []int{start}, []int{start + count - 1})
	buf := r.Zero(count)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("archive: reading %q [%d, %d): %v", v, start, start+count, err)
	}
	return buf, nil
}

// ReadInts reads count records of variable v starting at record start,
// converting them to int32. Floating point values are truncated.
func (a *Archive) ReadInts(v string, start, count int) ([]int32, error) {
	buf, err := a.read(v, start, count)
	if err != nil {
		return nil, err
	}
	switch d := buf.(type) {
	case []int32:
		return d, nil
	case []int16:
		o := make([]int32, len(d))
		for i, x := range d {
			o[i] = int32(x)
		}
		return o, nil
	case []uint8:
		o := make([]int32, len(d))
		for i, x := range d {
			o[i] = int32(int8(x))
		}
		return o, nil
	case []float32:
		o := make([]int32, len(d))
		for i, x := range d {
			o[i] = int32(x)
		}
		return o, nil
	case []float64:
		o := make([]int32, len(d))
		for i, x := range d {
			o[i] = int32(x)
		}
		return o, nil
	}
	return nil, fmt.Errorf("archive: variable %q has unsupported type %T", v, buf)
}

// ReadFloats reads count records of variable v starting at record start,
// converting them to float64.
func (a *Archive) ReadFloats(v string, start, count int) ([]float64, error) {
	buf, err := a.read(v, start, count)
	if err != nil {
		return nil, err
	}
	switch d := buf.(type) {
	case []float64:
		return d, nil
	case []float32:
		o := make([]float64, len(d))
		for i, x := range d {
			o[i] = float64(x)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(d))
		for i, x := range d {
			o[i] = float64(x)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(d))
		for i, x := range d {
			o[i] = float64(x)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(d))
		for i, x := range d {
			o[i] = float64(int8(x))
		}
		return o, nil
	}
	return nil, fmt.Errorf("archive: variable %q has unsupported type %T", v, buf)
}

// readOnly adapts a read-only file to cdf.ReaderWriterAt.
type readOnly struct{ io.ReaderAt }

func (readOnly) WriteAt([]byte, int64) (int, error) {
	return 0, fmt.Errorf("archive: archives are read-only")
}
