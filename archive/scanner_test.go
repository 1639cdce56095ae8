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

import (
	"fmt"
	"reflect"
	"testing"
)

type sliceReader []int32

func (s sliceReader) Len() int { return len(s) }

func (s sliceReader) ReadInts(_ string, start, count int) ([]int32, error) {
	return s[start : start+count], nil
}

type failingReader struct {
	sliceReader
	failAt int
}

func (f failingReader) ReadInts(name string, start, count int) ([]int32, error) {
	if start >= f.failAt {
		return nil, fmt.Errorf("read failed at %d", start)
	}
	return f.sliceReader.ReadInts(name, start, count)
}

func TestScanner(t *testing.T) {
	src := sliceReader{1, 2, 3, 4, 5, 6, 7}
	for _, chunk := range []int{1, 3, 7, 100} {
		s := NewScanner(src, RowVar, chunk)
		var have []int32
		next := 0
		for s.Scan() {
			if s.Offset() != next {
				t.Errorf("chunk %d: want offset %d but have %d", chunk, next, s.Offset())
			}
			next += len(s.Values())
			have = append(have, s.Values()...)
		}
		if err := s.Err(); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual([]int32(src), have) {
			t.Errorf("chunk %d: want %v but have %v", chunk, src, have)
		}
	}
}

func TestScannerEmpty(t *testing.T) {
	s := NewScanner(sliceReader{}, RowVar, 0)
	if s.Scan() {
		t.Error("empty source should not scan")
	}
	if s.Err() != nil {
		t.Error(s.Err())
	}
}

func TestScannerError(t *testing.T) {
	s := NewScanner(failingReader{sliceReader{1, 2, 3, 4}, 2}, RowVar, 2)
	if !s.Scan() {
		t.Fatal("first chunk should succeed")
	}
	if s.Scan() {
		t.Error("second chunk should fail")
	}
	if s.Err() == nil {
		t.Error("want error")
	}
	if s.Scan() {
		t.Error("scanning should stop after an error")
	}
}
