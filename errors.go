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
	"errors"
	"fmt"

	"github.com/spatialmodel/binned/archive"
)

// FormatError reports an archive that is missing required dimensions or
// variables, or whose header cannot be read.
type FormatError = archive.FormatError

var (
	// ErrClosed is returned by reads on a Reader that has been closed.
	ErrClosed = errors.New("binned: reader is closed")

	// ErrInvalidRequest is returned, wrapped with details, for requests that
	// can never succeed: unknown bands, regions outside of the raster,
	// subsampling steps other than 1 or destination buffers of the wrong size.
	ErrInvalidRequest = errors.New("binned: invalid request")

	// ErrCancelled is returned when a read is abandoned because its context
	// was cancelled or its Monitor asked to stop. It is not a failure of the
	// archive; repeating the read may succeed.
	ErrCancelled = errors.New("binned: read cancelled")
)

// cancelError is ErrCancelled carrying the context error that caused it,
// so callers can tell a deadline from an explicit cancel.
type cancelError struct{ cause error }

func (e cancelError) Error() string { return ErrCancelled.Error() + ": " + e.cause.Error() }

func (e cancelError) Is(target error) bool { return target == ErrCancelled }

func (e cancelError) Unwrap() error { return e.cause }

func invalidf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRequest}, a...)...)
}

// ReadError reports an I/O failure while reading the records of one output
// row. The Reader remains usable after a ReadError.
type ReadError struct {
	Band string
	Row  int // output row being read
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("binned: reading band %s, row %d: %v", e.Band, e.Row, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
