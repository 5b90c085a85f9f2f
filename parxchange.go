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
	"sort"
	"strings"
	"time"
)

// ParType tags the payload variant a ParXChange entry carries, replacing the
// source's run-time reflection on class objects with an explicit enum
// dispatch (Design Notes §9).
type ParType int

// The accepted ParXChange payload variants.
const (
	TDouble ParType = iota
	TInteger
	TDate
	TBoolean
	TString
)

func (t ParType) numeric() bool { return t == TDouble || t == TInteger }

type parKey struct {
	name string
	typ  ParType
}

type parEntry struct {
	value      interface{}
	unit       Unit
	immutable  bool
	tombstoned bool
}

// ParXChange is the static parameter store: a keyed (name, type) map with
// unit, mutability and soft-delete semantics. It is logically single
// threaded and write-once-then-read, per spec.md §5.
type ParXChange struct {
	entries map[parKey]*parEntry
}

// NewParXChange creates an empty parameter store.
func NewParXChange() *ParXChange {
	return &ParXChange{entries: make(map[parKey]*parEntry)}
}

func normalizeParName(name string) string { return strings.ToUpper(name) }

// Set creates or replaces a parameter. It fails if the variable already
// exists, is not tombstoned, and is immutable. Writing a tombstoned entry
// always clears the tombstone, even if the entry was immutable. Numeric
// types require a non-NA unit; non-numeric types always store NA.
func (p *ParXChange) Set(name string, typ ParType, immutable bool, value interface{}, unit Unit) error {
	name = normalizeParName(name)
	if typ.numeric() && unit == NA {
		return contractErr("ParXChange", "Set", "", name, "", "numeric parameter %q requires a non-NA unit", name)
	}
	if !typ.numeric() {
		unit = NA
	}
	k := parKey{name, typ}
	if e, ok := p.entries[k]; ok {
		if !e.tombstoned && e.immutable {
			return contractErr("ParXChange", "Set", "", name, "", "parameter %q is immutable", name)
		}
		e.value, e.unit, e.immutable, e.tombstoned = value, unit, immutable, false
		return nil
	}
	p.entries[k] = &parEntry{value: value, unit: unit, immutable: immutable}
	return nil
}

// lookup resolves (name, typ), applying the Double-falls-back-to-Integer
// rule from spec.md §4.4 when typ is TDouble.
func (p *ParXChange) lookup(name string, typ ParType) (*parEntry, ParType, bool) {
	name = normalizeParName(name)
	if e, ok := p.entries[parKey{name, typ}]; ok {
		return e, typ, true
	}
	if typ == TDouble {
		if e, ok := p.entries[parKey{name, TInteger}]; ok {
			return e, TInteger, true
		}
	}
	return nil, typ, false
}

// Contains reports whether a parameter exists, applying the same
// Double/Integer fallback rule as lookup. Tombstoned entries are excluded
// unless includeDeleted is true.
func (p *ParXChange) Contains(name string, typ ParType, includeDeleted bool) bool {
	e, _, ok := p.lookup(name, typ)
	if !ok {
		return false
	}
	if e.tombstoned && !includeDeleted {
		return false
	}
	return true
}

// Delete tombstones a parameter. It fails if the parameter does not exist or
// is already tombstoned.
func (p *ParXChange) Delete(name string, typ ParType) error {
	name = normalizeParName(name)
	e, ok := p.entries[parKey{name, typ}]
	if !ok {
		return contractErr("ParXChange", "Delete", "", name, "", "parameter %q does not exist", name)
	}
	if e.tombstoned {
		return contractErr("ParXChange", "Delete", "", name, "", "parameter %q is already deleted", name)
	}
	e.tombstoned = true
	return nil
}

// Get returns a non-numeric parameter's raw value. Numeric types must use
// GetConverted, which forces callers to state the unit they want the value
// in.
func (p *ParXChange) Get(name string, caller string, typ ParType) (interface{}, error) {
	if typ.numeric() {
		return nil, contractErr("ParXChange", "Get", "", name, "", "caller %q must use the unit-aware overload for numeric type of %q", caller, name)
	}
	e, _, ok := p.lookup(name, typ)
	if !ok || e.tombstoned {
		return nil, contractErr("ParXChange", "Get", "", name, "", "parameter %q not found for caller %q", name, caller)
	}
	return e.value, nil
}

// GetConverted returns a numeric parameter's value converted to targetUnit.
// When typ is TDouble and no TDouble entry exists, a TInteger entry of the
// same name is widened to float64 before conversion.
func (p *ParXChange) GetConverted(name string, caller string, typ ParType, targetUnit Unit) (float64, error) {
	if !typ.numeric() {
		return 0, contractErr("ParXChange", "GetConverted", "", name, "", "type of %q is not numeric", name)
	}
	e, foundTyp, ok := p.lookup(name, typ)
	if !ok || e.tombstoned {
		return 0, contractErr("ParXChange", "GetConverted", "", name, "", "parameter %q not found for caller %q", name, caller)
	}
	var v float64
	switch foundTyp {
	case TDouble:
		v = e.value.(float64)
	case TInteger:
		v = float64(e.value.(int))
	}
	return convert(name, v, e.unit, targetUnit), nil
}

// SetDouble, SetInteger, SetDate, SetBoolean, SetString are typed
// convenience wrappers over Set.
func (p *ParXChange) SetDouble(name string, immutable bool, value float64, unit Unit) error {
	return p.Set(name, TDouble, immutable, value, unit)
}
func (p *ParXChange) SetInteger(name string, immutable bool, value int, unit Unit) error {
	return p.Set(name, TInteger, immutable, value, unit)
}
func (p *ParXChange) SetDate(name string, immutable bool, value time.Time) error {
	return p.Set(name, TDate, immutable, value, NA)
}
func (p *ParXChange) SetBoolean(name string, immutable bool, value bool) error {
	return p.Set(name, TBoolean, immutable, value, NA)
}
func (p *ParXChange) SetString(name string, immutable bool, value string) error {
	return p.Set(name, TString, immutable, value, NA)
}

// GetDouble, GetInteger are typed convenience wrappers over GetConverted.
func (p *ParXChange) GetDouble(name, caller string, unit Unit) (float64, error) {
	return p.GetConverted(name, caller, TDouble, unit)
}
func (p *ParXChange) GetInteger(name, caller string, unit Unit) (int, error) {
	v, err := p.GetConverted(name, caller, TInteger, unit)
	return int(v), err
}

// GetDate, GetBoolean, GetString are typed convenience wrappers over Get.
func (p *ParXChange) GetDate(name, caller string) (time.Time, error) {
	v, err := p.Get(name, caller, TDate)
	if err != nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}
func (p *ParXChange) GetBoolean(name, caller string) (bool, error) {
	v, err := p.Get(name, caller, TBoolean)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
func (p *ParXChange) GetString(name, caller string) (string, error) {
	v, err := p.Get(name, caller, TString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Keys returns a snapshot of every (name, type) key currently in the store,
// tombstoned or not. Iteration order is unspecified.
func (p *ParXChange) Keys() []struct {
	Name string
	Type ParType
} {
	out := make([]struct {
		Name string
		Type ParType
	}, 0, len(p.entries))
	for k := range p.entries {
		out = append(out, struct {
			Name string
			Type ParType
		}{k.name, k.typ})
	}
	return out
}

// String renders a deterministic, sorted dump of every entry (tombstoned or
// not). It exists so internal/hash.Hash, which prefers fmt.Stringer over
// reflection-based encoding, derives a run id that actually varies with the
// parameter values instead of one computed over ParXChange's unexported
// entries map (which gob would silently encode as empty, having no exported
// fields to walk).
func (p *ParXChange) String() string {
	type row struct {
		key parKey
		e   *parEntry
	}
	rows := make([]row, 0, len(p.entries))
	for k, e := range p.entries {
		rows = append(rows, row{k, e})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].key.name != rows[j].key.name {
			return rows[i].key.name < rows[j].key.name
		}
		return rows[i].key.typ < rows[j].key.typ
	})
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s|%d|%v|%d|%v|%v\n", r.key.name, r.key.typ, r.e.value, r.e.unit, r.e.immutable, r.e.tombstoned)
	}
	return b.String()
}

// Well-known ParXChange keys consumed by TimeDriver, per spec.md §6.
const (
	KeyStartDate    = "STARTDATE"
	KeyEndDate      = "ENDDATE"
	KeyPauseDate    = "PAUSEDATE"
	KeyTraceLogging = "TRACELOGGING"
)
