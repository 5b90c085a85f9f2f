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

import (
	"fmt"
	"math"
)

// Unit is a closed enumeration of the scientific unit tags the kernel
// understands. Unlike a general SI-dimension system, Unit is a flat tag set:
// conversions are defined pairwise (see convert), which is what lets an
// affine conversion like Celsius<->Fahrenheit exist alongside pure factor
// conversions like kg/m2<->kg/ha.
type Unit int

// The supported unit tags. NA marks values with no physical unit (e.g.
// strings, booleans, dimensionless counters).
const (
	NA Unit = iota
	Celsius
	Fahrenheit
	Kelvin
	KgPerHectare  // mass per area, kg ha^-1
	KgPerSquareM  // mass per area, kg m^-2
	GramPerSquareM
	MJPerSquareM // energy flux, MJ m^-2
	WattPerSquareM
	Meter
	Centimeter
	Millimeter
	MeterPerSecond
	MeterPerDay
	Hectopascal
	Millibar
	Degree // angular
	Radian
	Day
	Fraction // dimensionless, 0-1
	Count    // dimensionless, integer count
)

var unitCaptions = map[Unit]string{
	NA:             "",
	Celsius:        "degrees Celsius",
	Fahrenheit:     "degrees Fahrenheit",
	Kelvin:         "kelvin",
	KgPerHectare:   "kg/ha",
	KgPerSquareM:   "kg/m2",
	GramPerSquareM: "g/m2",
	MJPerSquareM:   "MJ/m2",
	WattPerSquareM: "W/m2",
	Meter:          "m",
	Centimeter:     "cm",
	Millimeter:     "mm",
	MeterPerSecond: "m/s",
	MeterPerDay:    "m/day",
	Hectopascal:    "hPa",
	Millibar:       "mbar",
	Degree:         "deg",
	Radian:         "rad",
	Day:            "day",
	Fraction:       "fraction",
	Count:          "count",
}

// Caption returns the human-readable name of a unit tag, used in report
// headers.
func (u Unit) Caption() string {
	if c, ok := unitCaptions[u]; ok {
		return c
	}
	return "?"
}

func (u Unit) String() string { return u.Caption() }

// converter is a pairwise conversion: either a pure scale factor (affine ==
// false, offset ignored) or a full affine transform out = in*factor+offset.
type converter struct {
	factor, offset float64
	affine         bool
}

// conversionTable lists every supported (from, to) pair. Missing entries are
// a programming error (an unregistered pair), not a runtime possibility: see
// convert.
var conversionTable = map[[2]Unit]converter{
	{Celsius, Fahrenheit}: {factor: 9. / 5., offset: 32, affine: true},
	{Fahrenheit, Celsius}: {factor: 5. / 9., offset: -32 * 5. / 9., affine: true},
	{Celsius, Kelvin}:     {factor: 1, offset: 273.15, affine: true},
	{Kelvin, Celsius}:     {factor: 1, offset: -273.15, affine: true},
	{Fahrenheit, Kelvin}:  {factor: 5. / 9., offset: (-32 * 5. / 9.) + 273.15, affine: true},
	{Kelvin, Fahrenheit}:  {factor: 9. / 5., offset: (-273.15)*(9./5.) + 32, affine: true},

	{KgPerHectare, KgPerSquareM}: {factor: 1. / 10000.},
	{KgPerSquareM, KgPerHectare}: {factor: 10000.},
	{GramPerSquareM, KgPerSquareM}: {factor: 1. / 1000.},
	{KgPerSquareM, GramPerSquareM}: {factor: 1000.},
	{GramPerSquareM, KgPerHectare}: {factor: 10.},
	{KgPerHectare, GramPerSquareM}: {factor: 1. / 10.},

	{Meter, Centimeter}:      {factor: 100.},
	{Centimeter, Meter}:      {factor: 1. / 100.},
	{Meter, Millimeter}:      {factor: 1000.},
	{Millimeter, Meter}:      {factor: 1. / 1000.},
	{Centimeter, Millimeter}: {factor: 10.},
	{Millimeter, Centimeter}: {factor: 1. / 10.},

	{MeterPerSecond, MeterPerDay}: {factor: 86400.},
	{MeterPerDay, MeterPerSecond}: {factor: 1. / 86400.},

	{Hectopascal, Millibar}: {factor: 1.}, // identical scale
	{Millibar, Hectopascal}: {factor: 1.},

	{Degree, Radian}: {factor: math.Pi / 180.},
	{Radian, Degree}: {factor: 180. / math.Pi},

	{WattPerSquareM, MJPerSquareM}: {factor: 86400. / 1e6}, // per day accumulation
	{MJPerSquareM, WattPerSquareM}: {factor: 1e6 / 86400.},
}

// convert converts value from the from unit to the to unit. name is the
// variable name, used only for error context. A missing value (NaN) passes
// through unchanged. convert panics if either side is NA while the other is
// not NA and they differ, or if the pair has no registered conversion: both
// are programming errors per spec, not conditions the caller can recover
// from.
func convert(name string, value float64, from, to Unit) float64 {
	if from == to {
		return value
	}
	if math.IsNaN(value) {
		return value
	}
	if from == NA || to == NA {
		panic(fmt.Sprintf("wiss: unit conversion for %q requested between %s and %s: NA is not convertible to a physical unit", name, from, to))
	}
	c, ok := conversionTable[[2]Unit{from, to}]
	if !ok {
		panic(fmt.Sprintf("wiss: no registered conversion for %q from %s to %s", name, from, to))
	}
	if c.affine {
		return value*c.factor + c.offset
	}
	return value * c.factor
}
