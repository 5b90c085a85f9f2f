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

package wiss

import "testing"

func TestRangeContains(t *testing.T) {
	cases := []struct {
		name string
		r    Range
		v    float64
		want bool
	}{
		{"zero-positive includes zero", RangeZeroPositive, 0, true},
		{"zero-positive excludes negative", RangeZeroPositive, -0.1, false},
		{"positive excludes zero", RangePositive, 0, false},
		{"positive includes small positive", RangePositive, 1e-300, true},
		{"negative excludes zero", RangeNegative, 0, false},
		{"negative includes small negative", RangeNegative, -1e-300, true},
		{"zero-one includes lower bound", RangeZeroOne, 0, true},
		{"zero-one includes upper bound", RangeZeroOne, 1, true},
		{"zero-one excludes above upper bound", RangeZeroOne, 1.0001, false},
		{"all includes large magnitude", RangeAll, -1e300, true},
		{"temp celsius excludes below absolute zero", RangeTempCelsius, -300, false},
		{"temp celsius includes absolute zero", RangeTempCelsius, -273.15, true},
	}
	for _, c := range cases {
		if have := c.r.Contains(c.v); have != c.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", c.name, c.v, have, c.want)
		}
	}
}
