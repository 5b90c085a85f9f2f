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

import "time"

const dayLayout = "2006-01-02"

// Timer drives the simulation calendar: a start date, an end date, an
// optional debug pause date, and the current date. dateStep is the only way
// the current date moves; it always advances exactly one day.
type Timer struct {
	start, end, cur time.Time
	pauseDate       *time.Time
	terminate       bool
}

// NewTimer creates a timer scoped to [start, end] (inclusive on both ends).
// end must not be before start.
func NewTimer(start, end time.Time) *Timer {
	t := &Timer{start: truncateToDay(start), end: truncateToDay(end)}
	t.reset()
	return t
}

// SetPauseDate installs an optional debug pause date. PauseNow reports
// curDate >= pauseDate once set; it has no effect on simulation semantics.
func (t *Timer) SetPauseDate(d time.Time) {
	pd := truncateToDay(d)
	t.pauseDate = &pd
}

// Reset returns the timer to its start date and clears the terminate flag.
func (t *Timer) Reset() { t.reset() }

func (t *Timer) reset() {
	t.cur = t.start
	t.terminate = false
}

// Date returns the current simulated date.
func (t *Timer) Date() time.Time { return t.cur }

// Year returns the current date's year.
func (t *Timer) Year() int { return t.cur.Year() }

// Month returns the current date's month (1-12).
func (t *Timer) Month() int { return int(t.cur.Month()) }

// DayInMonth returns the current date's day-of-month (1-31).
func (t *Timer) DayInMonth() int { return t.cur.Day() }

// DayInYear returns the current date's day-of-year (1-366).
func (t *Timer) DayInYear() int { return t.cur.YearDay() }

// Elapsed returns the number of whole days since the start date.
func (t *Timer) Elapsed() int {
	return int(t.cur.Sub(t.start).Hours() / 24)
}

// Duration returns end - start in days, inclusive: a one-day run has
// Duration() == 0 and a single valid day index, 0.
func (t *Timer) Duration() int {
	return int(t.end.Sub(t.start).Hours() / 24)
}

// IsOnStartDate reports whether the current date is the start date.
func (t *Timer) IsOnStartDate() bool { return t.cur.Equal(t.start) }

// IsOnEndDate reports whether the current date is the end date.
func (t *Timer) IsOnEndDate() bool { return t.cur.Equal(t.end) }

// PauseNow reports whether the current date has reached the debug pause
// date. It is a debug hook only: it has no effect on simulation semantics.
func (t *Timer) PauseNow() bool {
	if t.pauseDate == nil {
		return false
	}
	return !t.cur.Before(*t.pauseDate)
}

// Terminated reports whether dateStep has advanced the timer past the end
// date.
func (t *Timer) Terminated() bool { return t.terminate }

// DateStep advances the current date by exactly one day. If the increment
// would cross past the end date, the timer sets its terminate flag and
// clamps the current date at the end date instead of overshooting it.
func (t *Timer) DateStep() {
	next := t.cur.AddDate(0, 0, 1)
	if next.After(t.end) {
		t.terminate = true
		t.cur = t.end
		return
	}
	t.cur = next
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
