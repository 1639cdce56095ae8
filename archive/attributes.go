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
	"strings"

	"github.com/spf13/cast"
)

// globalAttr returns the value of the global attribute whose name matches
// name without regard to case.
func (a *Archive) globalAttr(name string) interface{} {
	for _, att := range a.Header.Attributes("") {
		if strings.EqualFold(att, name) {
			return a.Header.GetAttribute("", att)
		}
	}
	return nil
}

// GlobalFloat returns the first value of the numeric global attribute
// name, or def if the attribute is absent or not numeric.
func (a *Archive) GlobalFloat(name string, def float64) float64 {
	if v, ok := toFloat(a.globalAttr(name)); ok {
		return v
	}
	return def
}

// GlobalString returns the global text attribute name, or def.
func (a *Archive) GlobalString(name, def string) string {
	if s, ok := a.globalAttr(name).(string); ok {
		return strings.TrimRight(s, "\x00")
	}
	return def
}

// HasGlobal reports whether the global attribute name exists.
func (a *Archive) HasGlobal(name string) bool { return a.globalAttr(name) != nil }

// VarFloat returns the first value of the numeric attribute name of
// variable v.
func (a *Archive) VarFloat(v, name string) (float64, bool) {
	return toFloat(a.Header.GetAttribute(v, name))
}

// VarString returns the text attribute name of variable v, or def.
func (a *Archive) VarString(v, name, def string) string {
	if s, ok := a.Header.GetAttribute(v, name).(string); ok {
		return strings.TrimRight(s, "\x00")
	}
	return def
}

// FillValue returns the fill value cdf assigns to variable v: its
// _FillValue attribute when that is a single value of the variable's own
// type, and otherwise the NetCDF default fill for the type. Bytes are
// signed, as in ReadFloats.
func (a *Archive) FillValue(v string) (float64, bool) {
	switch f := a.Header.FillValue(v).(type) {
	case nil:
		return 0, false
	case uint8:
		return float64(int8(f)), true
	default:
		x, err := cast.ToFloat64E(f)
		return x, err == nil
	}
}

// Attributes returns the attributes of variable v, or the global
// attributes if v is empty. Single-element numeric attributes are
// returned as scalars.
func (a *Archive) Attributes(v string) map[string]interface{} {
	o := make(map[string]interface{})
	for _, att := range a.Header.Attributes(v) {
		o[att] = simplify(a.Header.GetAttribute(v, att))
	}
	return o
}

func simplify(val interface{}) interface{} {
	switch d := val.(type) {
	case string:
		return strings.TrimRight(d, "\x00")
	case []uint8:
		o := make([]int64, len(d))
		for i, x := range d {
			o[i] = int64(int8(x))
		}
		return scalarInt(o)
	case []int16:
		o := make([]int64, len(d))
		for i, x := range d {
			o[i] = int64(x)
		}
		return scalarInt(o)
	case []int32:
		o := make([]int64, len(d))
		for i, x := range d {
			o[i] = int64(x)
		}
		return scalarInt(o)
	case []float32:
		o := make([]float64, len(d))
		for i, x := range d {
			o[i] = float64(x)
		}
		return scalarFloat(o)
	case []float64:
		return scalarFloat(d)
	}
	return val
}

func scalarInt(v []int64) interface{} {
	if len(v) == 1 {
		return v[0]
	}
	return v
}

func scalarFloat(v []float64) interface{} {
	if len(v) == 1 {
		return v[0]
	}
	return v
}

// toFloat converts the first element of an attribute value to float64.
// Text attributes holding a number are accepted.
func toFloat(val interface{}) (float64, bool) {
	switch d := val.(type) {
	case nil:
		return 0, false
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(strings.TrimRight(d, "\x00")))
		return f, err == nil
	case []uint8:
		if len(d) > 0 {
			return float64(int8(d[0])), true
		}
	case []int16:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []int32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []float32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []float64:
		if len(d) > 0 {
			return d[0], true
		}
	}
	return 0, false
}
