/*
Copyright © 2024 the WISS authors.
This file is part of WISS.

WISS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

WISS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with WISS.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash computes stable, content-based hash keys, used by the kernel
// to derive a run identifier from a run's starting parameter snapshot so
// that two runs with identical inputs carry the same identifier.
package hash

import (
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hash key for the specified object. A fmt.Stringer is
// returned as its String() unhashed; any other value is hashed from a
// sorted, deterministic dump, so equal maps (NaN values included) hash alike
// whatever their iteration order.
func Hash(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	bKey := h.Sum([]byte{})
	return fmt.Sprintf("%x", bKey[0:h.Size()])
}

// RunID returns a short, report-friendly identifier derived from Hash. It
// fnv-hashes Hash's output rather than truncating it: Hash takes the
// Stringer branch for types like ParXChange, whose String() is a sorted dump
// of every entry, so the first characters of that dump are just the
// alphabetically-first key and say nothing about the rest of the content.
// Hashing before shortening means two different configurations only share a
// run id by actual hash collision, not by sharing a first entry.
func RunID(object interface{}) string {
	full := Hash(object)
	h := fnv.New128a()
	h.Write([]byte(full))
	sum := fmt.Sprintf("%x", h.Sum(nil))
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
