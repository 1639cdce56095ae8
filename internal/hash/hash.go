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

// Package hash derives short, stable keys from values.
package hash

import (
	"fmt"
	"hash/fnv"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a hexadecimal key for v. Strings are hashed as they are;
// any other value is hashed from its spew representation, which includes
// unexported fields and does not depend on map order or pointer addresses.
func Key(v interface{}) string {
	h := fnv.New64a()
	if s, ok := v.(string); ok {
		io.WriteString(h, s)
	} else {
		printer.Fprintf(h, "%#v", v)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
