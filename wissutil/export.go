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

package wissutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/tealeg/xlsx"

	"github.com/wiss-framework/wiss"
)

// WriteTextReport writes the plain-text report to path on fs, acquiring the
// file with guaranteed release on every exit path (spec.md §5: "resource
// scoping"), mirroring the teacher's save.go open/defer-Close discipline.
func WriteTextReport(fs afero.Fs, path string, simX *wiss.SimXChange, opts wiss.ReportOptions) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("wissutil: creating report file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return simX.WriteReport(f, opts)
}

// WriteXLSXReport renders the report WriteTextReport produces as an .xlsx
// workbook with one sheet per blank-line-separated block (the header line,
// the time-series section and the forced-state ledger), using tealeg/xlsx the
// way the teacher's aeputil package reaches for the same library to move
// spreadsheet data in and out of its emissions pipeline. xlsx.File writes
// directly to an OS path, so path is a real filesystem path rather than one
// resolved through afero, unlike WriteTextReport.
func WriteXLSXReport(path string, simX *wiss.SimXChange, opts wiss.ReportOptions) error {
	var buf bytes.Buffer
	opts.Separator = "\x1f" // unit-separator, unambiguous for the intermediate text pass
	if err := simX.WriteReport(&buf, opts); err != nil {
		return err
	}
	sections := bytes.Split(buf.Bytes(), []byte("\n\n"))

	wb := xlsx.NewFile()
	for i, section := range sections {
		sheetName := fmt.Sprintf("section_%d", i+1)
		sheet, err := wb.AddSheet(sheetName)
		if err != nil {
			return fmt.Errorf("wissutil: adding sheet %q: %w", sheetName, err)
		}
		for _, line := range bytes.Split(section, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			row := sheet.AddRow()
			for _, cell := range bytes.Split(line, []byte(opts.Separator)) {
				row.AddCell().SetString(string(cell))
			}
		}
	}

	if err := wb.Save(path); err != nil {
		return fmt.Errorf("wissutil: saving xlsx file %q: %w", path, err)
	}
	return nil
}

// ExportCSV renders the report WriteTextReport produces (header line,
// time-series section, forced-state ledger) as a standard encoding/csv file,
// one empty record between blocks: a minimal-dependency fallback to
// WriteXLSXReport's tealeg/xlsx workbook for callers who just want a
// properly quoted, spreadsheet-importable file without pulling in xlsx.
func ExportCSV(fs afero.Fs, path string, simX *wiss.SimXChange, opts wiss.ReportOptions) (err error) {
	opts.Separator = "\x1f" // unit-separator, unambiguous for the intermediate text pass
	var buf bytes.Buffer
	if err := simX.WriteReport(&buf, opts); err != nil {
		return err
	}
	sections := bytes.Split(buf.Bytes(), []byte("\n\n"))

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("wissutil: creating csv file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(f)
	for i, section := range sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return fmt.Errorf("wissutil: writing csv section separator: %w", err)
			}
		}
		for _, line := range bytes.Split(section, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			if err := cw.Write(strings.Split(string(line), opts.Separator)); err != nil {
				return fmt.Errorf("wissutil: writing csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
