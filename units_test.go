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

import (
	"math"
	"testing"
)

func TestConvertIdentity(t *testing.T) {
	if have := convert("X", 42, Celsius, Celsius); have != 42 {
		t.Errorf("convert same-unit = %v, want 42", have)
	}
}

func TestConvertMissingPassesThrough(t *testing.T) {
	have := convert("X", Missing, Celsius, Fahrenheit)
	if !IsMissing(have) {
		t.Errorf("convert(Missing) = %v, want Missing", have)
	}
}

func TestConvertAffineAndFactor(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		from, to   Unit
		want       float64
	}{
		{"C->F freezing", 0, Celsius, Fahrenheit, 32},
		{"C->F boiling", 100, Celsius, Fahrenheit, 212},
		{"F->C", 68, Fahrenheit, Celsius, 20},
		{"C->K", 0, Celsius, Kelvin, 273.15},
		{"K->C", 273.15, Kelvin, Celsius, 0},
		{"kg/ha->kg/m2", 10000, KgPerHectare, KgPerSquareM, 1},
		{"kg/m2->kg/ha", 1, KgPerSquareM, KgPerHectare, 10000},
		{"g/m2->kg/ha", 1, GramPerSquareM, KgPerHectare, 10},
		{"m->cm", 1, Meter, Centimeter, 100},
		{"mm->cm", 10, Millimeter, Centimeter, 1},
		{"m/s->m/day", 1, MeterPerSecond, MeterPerDay, 86400},
		{"hPa->mbar", 1013.25, Hectopascal, Millibar, 1013.25},
		{"deg->rad", 180, Degree, Radian, math.Pi},
		{"rad->deg", math.Pi, Radian, Degree, 180},
	}
	for _, tt := range tests {
		have := convert(tt.name, tt.value, tt.from, tt.to)
		if math.Abs(have-tt.want) > 1e-9 {
			t.Errorf("%s: convert() = %v, want %v", tt.name, have, tt.want)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	pairs := [][2]Unit{
		{Celsius, Fahrenheit},
		{Celsius, Kelvin},
		{Fahrenheit, Kelvin},
		{KgPerHectare, KgPerSquareM},
		{GramPerSquareM, KgPerSquareM},
		{Meter, Millimeter},
		{MeterPerSecond, MeterPerDay},
		{Degree, Radian},
		{WattPerSquareM, MJPerSquareM},
	}
	for _, p := range pairs {
		v := 12.5
		there := convert("X", v, p[0], p[1])
		back := convert("X", there, p[1], p[0])
		if math.Abs(back-v) > 1e-6 {
			t.Errorf("round trip %v<->%v: started at %v, got back %v", p[0], p[1], v, back)
		}
	}
}

func TestConvertPanicsOnUnregisteredPair(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("convert on an unregistered pair: did not panic")
		}
	}()
	convert("X", 1, Celsius, Meter)
}

func TestConvertPanicsOnNAMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("convert between NA and a physical unit: did not panic")
		}
	}()
	convert("X", 1, NA, Celsius)
}

func TestUnitCaption(t *testing.T) {
	if have := Celsius.Caption(); have != "degrees Celsius" {
		t.Errorf("Celsius.Caption() = %q, want %q", have, "degrees Celsius")
	}
	if have := Unit(9999).Caption(); have != "?" {
		t.Errorf("unknown Unit.Caption() = %q, want %q", have, "?")
	}
}
