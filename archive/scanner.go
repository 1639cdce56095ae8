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

package archive

// DefaultChunkSize is the number of records read at once when scanning a
// variable from start to end.
const DefaultChunkSize = 50000

// Scanner reads an integer variable forward in fixed-size chunks so that
// only one chunk is held in memory at a time. It never seeks backward.
//
//	s := NewScanner(a, RowVar, DefaultChunkSize)
//	for s.Scan() {
//		process(s.Offset(), s.Values())
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	r         IntReader
	name      string
	chunkSize int

	next   int
	offset int
	values []int32
	err    error
}

// NewScanner returns a Scanner over variable name of r. Chunk sizes < 1
// are replaced by DefaultChunkSize.
func NewScanner(r IntReader, name string, chunkSize int) *Scanner {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{r: r, name: name, chunkSize: chunkSize}
}

// Scan reads the next chunk. It returns false at the end of the variable
// or after an error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	n := s.r.Len() - s.next
	if n <= 0 {
		s.values = nil
		return false
	}
	if n > s.chunkSize {
		n = s.chunkSize
	}
	s.values, s.err = s.r.ReadInts(s.name, s.next, n)
	if s.err != nil {
		s.values = nil
		return false
	}
	s.offset = s.next
	s.next += n
	return true
}

// Offset returns the record number of the first value of the current chunk.
func (s *Scanner) Offset() int { return s.offset }

// Values returns the current chunk. The slice is only valid until the next
// call to Scan.
func (s *Scanner) Values() []int32 { return s.values }

// Err returns the first error encountered while scanning.
func (s *Scanner) Err() error { return s.err }
