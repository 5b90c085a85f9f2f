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

// Missing is the NaN sentinel used throughout the dynamic store to mean "no
// value this day".
var Missing = math.NaN()

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// StateHandle declares a module's owned, integrated (state) variable. The
// metadata fields are fixed at construction; V, R and Vp are mutated by the
// owning module between phases. Token starts as InvalidToken and may only
// transition to a valid write token once, on the first successful
// ForceState call.
type StateHandle struct {
	SimID string
	Name  string
	Unit  Unit
	Lower Range

	V  float64 // current value
	R  float64 // pending rate of change, Missing when none is set
	Vp float64 // previous day's value

	token Token
}

// NewStateHandle creates a state handle with an initial value (typically
// Missing until ForceState is called) and a bound.
func NewStateHandle(simID, name string, unit Unit, bound Range) *StateHandle {
	return &StateHandle{SimID: simID, Name: name, Unit: unit, Lower: bound, V: Missing, R: Missing, Vp: Missing}
}

// AuxHandle declares a module's owned, recomputed-each-day (auxiliary)
// variable. It carries no rate or previous-day value: aux variables are
// overwritten, not integrated.
type AuxHandle struct {
	SimID string
	Name  string
	Unit  Unit
	Lower Range

	V float64

	token Token
}

// NewAuxHandle creates an aux handle.
func NewAuxHandle(simID, name string, unit Unit, bound Range) *AuxHandle {
	return &AuxHandle{SimID: simID, Name: name, Unit: unit, Lower: bound, V: Missing}
}

// ExternalHandle is a read-only view of another module's published
// variable, resolved by name. Terminated reports whether the variable's
// current publisher has ended; Token may be refreshed (invalid -> valid
// only) across days if the original publisher stops producing values and a
// new one takes over the name.
type ExternalHandle struct {
	Name   string
	Unit   Unit
	Caller string

	V          float64
	Terminated bool

	token Token
}

// NewExternalHandle creates an external-read handle for the given variable
// name, to be resolved against a SimXChange on each read.
func NewExternalHandle(name, caller string, unit Unit) *ExternalHandle {
	return &ExternalHandle{Name: name, Caller: caller, Unit: unit, V: Missing, token: InvalidToken}
}
