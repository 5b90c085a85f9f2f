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
along with WISS.  If not, see <http://www.gnu.org/licenses/>.
*/

package wiss

import "math"

// Range is an inclusive-or-exclusive numeric bound, used to validate every
// value written to a dynamic or parameter variable.
type Range struct {
	Lower, Upper                   float64
	LowerExclusive, UpperExclusive bool
}

// Contains reports whether v lies within the range, honouring the
// inclusivity flags.
func (r Range) Contains(v float64) bool {
	if r.LowerExclusive {
		if v <= r.Lower {
			return false
		}
	} else if v < r.Lower {
		return false
	}
	if r.UpperExclusive {
		if v >= r.Upper {
			return false
		}
	} else if v > r.Upper {
		return false
	}
	return true
}

// minPositiveNormal marks the exclusive bound of a range preset that
// excludes zero, per spec.md §4.2 ("presets that exclude zero map to a bound
// of MIN_POSITIVE_NORMAL marked exclusive").
const minPositiveNormal = 2.2250738585072014e-308

// Predefined range presets, mirroring spec.md's C2 catalogue.
var (
	RangeAll          = Range{Lower: math.Inf(-1), Upper: math.Inf(1)}
	RangeZeroPositive = Range{Lower: 0, Upper: math.Inf(1)}
	RangePositive     = Range{Lower: minPositiveNormal, Upper: math.Inf(1), LowerExclusive: true}
	RangeZeroNegative = Range{Lower: math.Inf(-1), Upper: 0}
	RangeNegative     = Range{Lower: math.Inf(-1), Upper: -minPositiveNormal, UpperExclusive: true}
	RangeZeroOne      = Range{Lower: 0, Upper: 1}
	RangeTempCelsius  = Range{Lower: -273.15, Upper: math.Inf(1)}
)
