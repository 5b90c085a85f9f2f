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
	"time"

	"gonum.org/v1/gonum/floats"
)

// AggregationY names a statistic computed over a variable's values on a
// day-index window.
type AggregationY int

// The supported value aggregations, per spec.md §4.6.5.
const (
	AggFirst AggregationY = iota
	AggLast
	AggMin
	AggMax
	AggCount
	AggSum
	AggAverage
	AggDelta // last - first
	AggRange // max - min
)

// AggregationDate names which day index within a window to report, as a
// date rather than a value.
type AggregationDate int

// The supported date aggregations.
const (
	DateFirst AggregationDate = iota
	DateLast
	DateMin
	DateMax
)

// windowBounds resolves a trailing window of n days ending at the current
// day into an inclusive [lo, hi] day-index range. n <= 0 means the full
// period recorded so far.
func (s *SimXChange) windowBounds(n int) (lo, hi int) {
	hi = s.currentDay
	if n <= 0 {
		return 0, hi
	}
	lo = hi - n + 1
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

// Aggregate computes a value aggregation for the variable named by token
// over a trailing window of n days (n <= 0 for the full period), converted
// to unit. Aggregated-mode variables answer MIN, MAX, FIRST, LAST, COUNT,
// SUM, AVERAGE, DELTA and RANGE directly from their rolling summary without
// a day-by-day walk, provided the requested window is the full period;
// windowed queries against an aggregated-mode variable are rejected, since
// the rolling summary does not retain intermediate days.
func (s *SimXChange) Aggregate(t Token, unit Unit, agg AggregationY, window int) (float64, error) {
	dv, _, err := s.resolveToken(t)
	if err != nil {
		return 0, err
	}
	if dv.aggregated {
		if window > 0 && window <= s.currentDay {
			return 0, stateErr("SimXChange", "Aggregate", dv.simID, dv.name, "", "aggregated variable %q cannot answer a windowed query", dv.name)
		}
		return s.aggregateFromSummary(dv, agg, unit)
	}
	lo, hi := s.windowBounds(window)
	return s.aggregateFromSeries(dv, agg, unit, lo, hi)
}

func (s *SimXChange) aggregateFromSummary(dv *dynVar, agg AggregationY, unit Unit) (float64, error) {
	a := dv.agg
	if a.count == 0 {
		return Missing, nil
	}
	var v float64
	switch agg {
	case AggFirst:
		v = a.first
	case AggLast:
		v = a.last
	case AggMin:
		v = a.min
	case AggMax:
		v = a.max
	case AggCount:
		return float64(a.count), nil
	case AggSum:
		v = a.sum
	case AggAverage:
		v = a.sum / float64(a.count)
	case AggDelta:
		v = a.last - a.first
	case AggRange:
		v = a.max - a.min
	default:
		return 0, contractErr("SimXChange", "Aggregate", dv.simID, dv.name, "", "unknown aggregation %d", int(agg))
	}
	return convert(dv.name, v, dv.unit, unit), nil
}

func (s *SimXChange) aggregateFromSeries(dv *dynVar, agg AggregationY, unit Unit, lo, hi int) (float64, error) {
	var vals []float64
	for d := lo; d <= hi; d++ {
		if dv.has[d] {
			vals = append(vals, dv.values[d])
		}
	}
	if len(vals) == 0 {
		return Missing, nil
	}
	var v float64
	switch agg {
	case AggFirst:
		v = vals[0]
	case AggLast:
		v = vals[len(vals)-1]
	case AggMin:
		v = floats.Min(vals)
	case AggMax:
		v = floats.Max(vals)
	case AggCount:
		return float64(len(vals)), nil
	case AggSum:
		v = floats.Sum(vals)
	case AggAverage:
		v = floats.Sum(vals) / float64(len(vals))
	case AggDelta:
		v = vals[len(vals)-1] - vals[0]
	case AggRange:
		v = floats.Max(vals) - floats.Min(vals)
	default:
		return 0, contractErr("SimXChange", "Aggregate", dv.simID, dv.name, "", "unknown aggregation %d", int(agg))
	}
	return convert(dv.name, v, dv.unit, unit), nil
}

// AggregateDate reports the day, as a date, on which a date aggregation is
// satisfied over a trailing window of n days (n <= 0 for the full period).
func (s *SimXChange) AggregateDate(t Token, agg AggregationDate, window int) (time.Time, error) {
	dv, _, err := s.resolveToken(t)
	if err != nil {
		return time.Time{}, err
	}
	if dv.aggregated {
		if window > 0 && window <= s.currentDay {
			return time.Time{}, stateErr("SimXChange", "AggregateDate", dv.simID, dv.name, "", "aggregated variable %q cannot answer a windowed query", dv.name)
		}
		a := dv.agg
		if a.count == 0 {
			return time.Time{}, stateErr("SimXChange", "AggregateDate", dv.simID, dv.name, "", "variable %q has no recorded values", dv.name)
		}
		var idx int
		switch agg {
		case DateFirst:
			idx = a.firstIndex
		case DateLast:
			idx = a.lastIndex
		case DateMin:
			idx = a.minIndex
		case DateMax:
			idx = a.maxIndex
		}
		return s.start.AddDate(0, 0, idx), nil
	}
	lo, hi := s.windowBounds(window)
	var idx = -1
	var best float64
	for d := lo; d <= hi; d++ {
		if !dv.has[d] {
			continue
		}
		switch agg {
		case DateFirst:
			if idx == -1 {
				idx = d
			}
		case DateLast:
			idx = d
		case DateMin:
			if idx == -1 || dv.values[d] < best {
				idx, best = d, dv.values[d]
			}
		case DateMax:
			if idx == -1 || dv.values[d] > best {
				idx, best = d, dv.values[d]
			}
		}
	}
	if idx == -1 {
		return time.Time{}, stateErr("SimXChange", "AggregateDate", dv.simID, dv.name, "", "variable %q has no recorded values in the window", dv.name)
	}
	return s.start.AddDate(0, 0, idx), nil
}

// Crossings returns the day indices on which a dense-mode variable's value,
// converted to unit, crosses threshold: strictly below on the earlier day
// and at-or-above on the later day (upward), or the reverse (downward).
// Crossing detection is only meaningful on dense storage, since it must
// compare yesterday against today across the whole run.
func (s *SimXChange) Crossings(t Token, unit Unit, threshold float64, upward bool) ([]int, error) {
	dv, _, err := s.resolveToken(t)
	if err != nil {
		return nil, err
	}
	if dv.aggregated {
		return nil, stateErr("SimXChange", "Crossings", dv.simID, dv.name, "", "aggregated variable %q does not support crossing detection", dv.name)
	}
	var out []int
	haveYesterday := false
	var yesterday float64
	for d := 0; d <= s.currentDay; d++ {
		if !dv.has[d] {
			haveYesterday = false
			continue
		}
		today := convert(dv.name, dv.values[d], dv.unit, unit)
		if haveYesterday {
			if upward && yesterday < threshold && today >= threshold {
				out = append(out, d)
			}
			if !upward && yesterday > threshold && today <= threshold {
				out = append(out, d)
			}
		}
		yesterday = today
		haveYesterday = true
	}
	return out, nil
}

// Point is one (day index, value) sample extracted for interpolation.
type Point struct {
	X int
	Y float64
}

// Series extracts the dense (day-index, value) sequence recorded so far for
// a variable, skipping missing days. When swapXY is true, x and y are
// swapped (useful for inverse lookups, e.g. "on what day did the value
// reach V") and consecutive points sharing the same resulting x (i.e. the
// same value) are deduplicated, keeping the first occurrence, since an
// interpolator requires a strictly defined x axis.
func (s *SimXChange) Series(t Token, swapXY bool) ([]Point, error) {
	dv, _, err := s.resolveToken(t)
	if err != nil {
		return nil, err
	}
	if dv.aggregated {
		return nil, stateErr("SimXChange", "Series", dv.simID, dv.name, "", "aggregated variable %q does not retain a full time series", dv.name)
	}
	var out []Point
	lastX := Missing
	for d := 0; d <= s.currentDay; d++ {
		if !dv.has[d] {
			continue
		}
		p := Point{X: d, Y: dv.values[d]}
		if swapXY {
			p.X, p.Y = int(dv.values[d]), float64(d)
			if !IsMissing(lastX) && float64(p.X) == lastX {
				continue
			}
			lastX = float64(p.X)
		}
		out = append(out, p)
	}
	return out, nil
}
