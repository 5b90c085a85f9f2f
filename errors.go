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

import "fmt"

// ContractViolation reports misuse of a public API by a caller: an unknown
// simID, a bad unit conversion request, a rate set twice in one day, a
// calendar day skip, an out-of-bounds value. The kernel never recovers from
// one of these; it aborts the current phase and the error propagates to the
// driver.
type ContractViolation struct {
	Component string // the component raising the error, e.g. "SimXChange"
	Method    string // the method that detected the violation
	SimID     string // offending simID, if any
	VarName   string // offending variable name, if any
	Date      string // current date, formatted, if relevant
	Detail    string // human-readable explanation
}

func (e *ContractViolation) Error() string {
	return formatViolation("contract violation", e.Component, e.Method, e.SimID, e.VarName, e.Date, e.Detail)
}

// StateViolation reports a breach of a data-model invariant: resurrecting a
// missing state, writing a locked variable, reading history on an aggregated
// variable. Like ContractViolation, this is always fatal to the run.
type StateViolation struct {
	Component string
	Method    string
	SimID     string
	VarName   string
	Date      string
	Detail    string
}

func (e *StateViolation) Error() string {
	return formatViolation("state violation", e.Component, e.Method, e.SimID, e.VarName, e.Date, e.Detail)
}

func formatViolation(kind, component, method, simID, varName, date, detail string) string {
	s := fmt.Sprintf("wiss: %s in %s.%s", kind, component, method)
	if simID != "" {
		s += fmt.Sprintf(" simID=%s", simID)
	}
	if varName != "" {
		s += fmt.Sprintf(" var=%s", varName)
	}
	if date != "" {
		s += fmt.Sprintf(" date=%s", date)
	}
	s += ": " + detail
	return s
}

func contractErr(component, method, simID, varName, date, format string, args ...interface{}) error {
	return &ContractViolation{
		Component: component,
		Method:    method,
		SimID:     simID,
		VarName:   varName,
		Date:      date,
		Detail:    fmt.Sprintf(format, args...),
	}
}

func stateErr(component, method, simID, varName, date, format string, args ...interface{}) error {
	return &StateViolation{
		Component: component,
		Method:    method,
		SimID:     simID,
		VarName:   varName,
		Date:      date,
		Detail:    fmt.Sprintf(format, args...),
	}
}
