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
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReportOptions configures SimXChange.WriteReport's text dump, per
// spec.md §6. All three formatting knobs are parameters of the report
// operation, not kernel-wide constants.
type ReportOptions struct {
	RunID         string // identifies the run in the header line; callers typically derive this with internal/hash from the starting ParXChange snapshot
	Separator     string // column separator; defaults to a single comma
	CommentPrefix string // prefix for header/comment lines; defaults to "#"
	EmptyValue    string // placeholder for a missing day; defaults to "NA"
}

func (o *ReportOptions) fillDefaults() {
	if o.Separator == "" {
		o.Separator = ","
	}
	if o.CommentPrefix == "" {
		o.CommentPrefix = "#"
	}
	if o.EmptyValue == "" {
		o.EmptyValue = "NA"
	}
}

// reportColumn is one variable column in the time-series section.
type reportColumn struct {
	dv     *dynVar
	header string
}

// reportColumns builds the ordered, deterministic column list: one per
// registered dynamic variable, qualified with its simID whenever more than
// one dynvar (locked or not) was ever registered under that name, per
// spec.md §6.
func (s *SimXChange) reportColumns() []reportColumn {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	var cols []reportColumn
	for _, n := range names {
		group := s.byName[n]
		qualify := len(group) > 1
		for _, dv := range group {
			header := dv.name
			if qualify {
				header = dv.simID + "." + dv.name
			}
			cols = append(cols, reportColumn{dv: dv, header: header})
		}
	}
	return cols
}

// WriteReport writes the two-section text report: a per-day time-series
// table, then the forced-state ledger. ForceState only appends a ledger
// entry when it actually overwrote a different value, so every entry here
// already satisfies old != new.
func (s *SimXChange) WriteReport(w io.Writer, opts ReportOptions) error {
	opts.fillDefaults()
	cols := s.reportColumns()

	if _, err := fmt.Fprintf(w, "%s WISS report run=%s days=%d\n\n", opts.CommentPrefix, opts.RunID, s.currentDay+1); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s time series of state and auxiliary variables\n", opts.CommentPrefix); err != nil {
		return err
	}
	unitRow := []string{opts.CommentPrefix, "", ""}
	headerRow := []string{"DATE", "ELAPSED"}
	for _, c := range cols {
		unitRow = append(unitRow, c.dv.unit.Caption())
		headerRow = append(headerRow, c.header)
	}
	if _, err := fmt.Fprintln(w, strings.Join(unitRow, opts.Separator)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerRow, opts.Separator)); err != nil {
		return err
	}
	for d := 0; d <= s.currentDay; d++ {
		row := []string{s.dateAt(d), fmt.Sprintf("%d", d)}
		for _, c := range cols {
			v := c.dv.readValue(d)
			if IsMissing(v) {
				row = append(row, opts.EmptyValue)
			} else {
				row = append(row, fmt.Sprintf("%g", v))
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, opts.Separator)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n%s time series of forced state and auxiliary variables\n", opts.CommentPrefix); err != nil {
		return err
	}
	ledgerHeader := []string{"DATE", "VAR", "OldValue", "NewValue", "Unit"}
	if _, err := fmt.Fprintln(w, strings.Join(ledgerHeader, opts.Separator)); err != nil {
		return err
	}
	for _, rec := range s.forced {
		row := []string{
			s.dateAt(rec.dayIndex),
			rec.simID + "." + rec.name,
			fmt.Sprintf("%g", rec.old),
			fmt.Sprintf("%g", rec.new),
			rec.unit.Caption(),
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, opts.Separator)); err != nil {
			return err
		}
	}
	return nil
}
