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

// Package wiss implements the WISS simulation kernel: a deterministic,
// daily-step time driver coupling independent process modules through two
// exchanges, a dynamic one (SimXChange) and a static one (ParXChange).
package wiss

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/groupcache/lru"
)

// SimState is the lifecycle state of a registered simID.
type SimState int

// The three terminal/non-terminal states a simID can be in.
const (
	Running SimState = iota
	TerminatedNormally
	TerminatedError
)

func (s SimState) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case TerminatedNormally:
		return "TERMINATED_NORMALLY"
	case TerminatedError:
		return "TERMINATED_ERROR"
	default:
		return "?"
	}
}

// SimIDInfo is the registration record for a running (or once-running)
// module instance.
type SimIDInfo struct {
	ID            string
	ClassName     string
	StartDayIndex int
	EndDayIndex   *int
	State         SimState
	Message       string
}

// dynVar is one (simID, name) dynamic variable: either a dense day-indexed
// series with a parallel has-value bitmap, or a rolling aggregate, per
// spec.md §4.6.1.
type dynVar struct {
	simID   string
	name    string
	isState bool
	unit    Unit
	bound   Range
	index   int

	locked     bool
	aggregated bool

	values []float64
	has    []bool

	agg *aggState

	pendingRate float64
	lastWriteDay int // -1 until the first write
	exhausted    bool
}

// aggState is the rolling-summary storage for an aggregated-mode variable,
// per spec.md §4.6.1. The first-occurrence tie-break for min/max (Design
// Notes §9, resolved) is enforced by only overwriting on strict inequality.
type aggState struct {
	count      int
	first      float64
	firstIndex int
	previous   float64
	last       float64
	lastIndex  int
	min        float64
	minIndex   int
	max        float64
	maxIndex   int
	sum        float64
}

func newAggState() *aggState {
	return &aggState{lastIndex: -1, firstIndex: -1, minIndex: -1, maxIndex: -1}
}

// record folds a new (dayIndex, value) observation into the rolling
// summary.
func (a *aggState) record(dayIndex int, value float64) {
	if a.count == 0 {
		a.first = value
		a.firstIndex = dayIndex
		a.min, a.minIndex = value, dayIndex
		a.max, a.maxIndex = value, dayIndex
	} else {
		a.previous = a.last
		if value < a.min {
			a.min, a.minIndex = value, dayIndex
		}
		if value > a.max {
			a.max, a.maxIndex = value, dayIndex
		}
	}
	a.last = value
	a.lastIndex = dayIndex
	a.sum += value
	a.count++
}

// forcedRecord is one entry in the append-only forced-state ledger used by
// the report's second section.
type forcedRecord struct {
	dayIndex int
	simID    string
	name     string
	old, new float64
	unit     Unit
}

// SimXChange is the dynamic exchange: a day-indexed, variable-oriented
// store. It is the simulation heart described in spec.md §4.6; everything a
// module reads or writes on a per-day basis goes through it.
type SimXChange struct {
	start         time.Time
	duration      int // inclusive day count; valid day indices are [0, duration]
	currentDay    int
	started       bool // true once any variable has been registered; gates setFullTimeSeries
	terminated    bool

	vars   []*dynVar
	byKey  map[string]*dynVar
	byName map[string][]*dynVar

	fullSeries map[string]bool

	simIDs map[string]*SimIDInfo

	forced []forcedRecord

	codec       *tokenCodec
	publisherCache *lru.Cache

	logger *Logger
}

// SimXChangeOption configures a SimXChange at construction, mirroring the
// teacher's functional-option style (InitOption in framework.go).
type SimXChangeOption func(*SimXChange)

// WithLogger attaches a structured logger used for phase tracing.
func WithLogger(l *Logger) SimXChangeOption {
	return func(s *SimXChange) { s.logger = l }
}

// NewSimXChange creates a dynamic exchange scoped to [start, start+duration]
// inclusive, i.e. duration+1 valid day indices.
func NewSimXChange(start time.Time, duration int, opts ...SimXChangeOption) *SimXChange {
	s := &SimXChange{
		start:      truncateToDay(start),
		duration:   duration,
		fullSeries: make(map[string]bool),
		logger:     noopLogger(),
	}
	s.reset()
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SimXChange) reset() {
	s.currentDay = 0
	s.started = false
	s.terminated = false
	s.vars = nil
	s.byKey = make(map[string]*dynVar)
	s.byName = make(map[string][]*dynVar)
	s.simIDs = make(map[string]*SimIDInfo)
	s.forced = nil
	s.codec = newTokenCodec()
	s.publisherCache = lru.New(256)
}

// Reset clears all per-run state (registered simIDs, dynamic variables, the
// forced-state ledger) and returns the current day to 0. Names declared
// with SetFullTimeSeries are kept across Reset.
func (s *SimXChange) Reset() { s.reset() }

// Terminate releases the store at the end of a run. SimXChange holds no
// external resources, so this is a lifecycle bookkeeping call only (spec.md
// §5: "there is no implicit background work to shut down").
func (s *SimXChange) Terminate() { s.terminated = true }

// SetFullTimeSeries opts a variable name into aggregated (memory-lean)
// storage. It must be called before any variable is registered (i.e.
// before the run starts writing); calling it afterwards is a contract
// violation.
func (s *SimXChange) SetFullTimeSeries(name string) error {
	name = normalizeParName(name)
	if _, ok := s.byName[name]; ok || s.started {
		return contractErr("SimXChange", "SetFullTimeSeries", "", name, "", "variable %q already has data; aggregation must be declared before simulation starts", name)
	}
	s.fullSeries[name] = true
	return nil
}

// RegisterSimID registers a new module instance. simID must be unique
// across the run.
func (s *SimXChange) RegisterSimID(simID, className string, startDay int) error {
	simID = strings.ToUpper(simID)
	if _, ok := s.simIDs[simID]; ok {
		return contractErr("SimXChange", "RegisterSimID", simID, "", "", "simID %q is already registered", simID)
	}
	s.simIDs[simID] = &SimIDInfo{ID: simID, ClassName: className, StartDayIndex: startDay, State: Running}
	return nil
}

// TerminateSimID marks a module instance as ended, either normally or with
// an error, on the given day index.
func (s *SimXChange) TerminateSimID(simID string, dayIndex int, errored bool, message string) error {
	simID = strings.ToUpper(simID)
	info, ok := s.simIDs[simID]
	if !ok {
		return contractErr("SimXChange", "TerminateSimID", simID, "", "", "simID %q is not registered", simID)
	}
	end := dayIndex
	info.EndDayIndex = &end
	if errored {
		info.State = TerminatedError
	} else {
		info.State = TerminatedNormally
	}
	info.Message = message
	return nil
}

// SimIDInfo returns the registration record for simID, if known.
func (s *SimXChange) SimIDInfo(simID string) (*SimIDInfo, bool) {
	info, ok := s.simIDs[strings.ToUpper(simID)]
	return info, ok
}

func dynKey(simID, name string) string { return strings.ToUpper(simID) + "\x00" + strings.ToUpper(name) }

// resolveOrRegister returns the dynvar for (simID, name), creating it on
// first use. Per spec.md §4.6.2, the first forceState/setAux for a name
// locks every subsequently created dynvar of the same name.
func (s *SimXChange) resolveOrRegister(simID, name string, isState bool, unit Unit, bound Range) *dynVar {
	name = normalizeParName(name)
	k := dynKey(simID, name)
	if dv, ok := s.byKey[k]; ok {
		return dv
	}
	dv := &dynVar{
		simID:        strings.ToUpper(simID),
		name:         name,
		isState:      isState,
		unit:         unit,
		bound:        bound,
		index:        len(s.vars),
		lastWriteDay: -1,
		pendingRate:  Missing,
	}
	if s.fullSeries[name] {
		dv.aggregated = true
		dv.agg = newAggState()
	} else {
		dv.values = make([]float64, s.duration+1)
		dv.has = make([]bool, s.duration+1)
		for i := range dv.values {
			dv.values[i] = Missing
		}
	}
	if len(s.byName[name]) > 0 {
		dv.locked = true
	}
	s.vars = append(s.vars, dv)
	s.byKey[k] = dv
	s.byName[name] = append(s.byName[name], dv)
	s.started = true
	return dv
}

func (dv *dynVar) hasValue(day int) bool {
	if dv.aggregated {
		return dv.agg.count > 0 && dv.agg.lastIndex == day
	}
	if day < 0 || day >= len(dv.has) {
		return false
	}
	return dv.has[day]
}

func (dv *dynVar) readValue(day int) float64 {
	if dv.aggregated {
		if dv.agg.lastIndex == day {
			return dv.agg.last
		}
		if dv.agg.lastIndex-1 == day {
			return dv.agg.previous
		}
		return Missing
	}
	if day < 0 || day >= len(dv.values) || !dv.has[day] {
		return Missing
	}
	return dv.values[day]
}

func (dv *dynVar) write(day int, v float64) {
	if dv.aggregated {
		dv.agg.record(day, v)
		dv.lastWriteDay = day
		return
	}
	dv.values[day] = v
	dv.has[day] = true
	dv.lastWriteDay = day
}

// dateKey formats a day index as the date it corresponds to, for error
// messages.
func (s *SimXChange) dateAt(day int) string {
	return s.start.AddDate(0, 0, day).Format(dayLayout)
}

// currentDate returns the calendar date for the store's current day index.
func (s *SimXChange) currentDate() time.Time {
	return s.start.AddDate(0, 0, s.currentDay)
}

// ForceState writes h.V directly to the store for the current day (forcing,
// per the Glossary: "writing a state value directly rather than through
// integration"), either registering the variable on first use or
// overriding the value UpdateToDate already integrated for today. A
// same-day override is exactly forcing's purpose (an INTERVENE-phase
// controller overriding the prior day's rate-driven result before AUX/RATE
// run), so — unlike SetAux — ForceState does not reject a second write for
// today; it only rejects skipping a day no write ever touched. Any override
// that actually changes today's value is recorded to the forced-state
// ledger. See spec.md §4.6.4.
func (s *SimXChange) ForceState(h *StateHandle) error {
	today := s.currentDay
	if IsMissing(h.V) {
		return contractErr("SimXChange", "ForceState", h.SimID, h.Name, s.dateAt(today), "value is missing")
	}
	dv := s.resolveOrRegister(h.SimID, h.Name, true, h.Unit, h.Lower)
	if dv.locked {
		return contractErr("SimXChange", "ForceState", h.SimID, h.Name, s.dateAt(today), "variable %q is already published by another simID", h.Name)
	}
	if dv.exhausted {
		return stateErr("SimXChange", "ForceState", h.SimID, h.Name, s.dateAt(today), "state %q is missing and cannot be resurrected", h.Name)
	}
	if dv.lastWriteDay != -1 && dv.lastWriteDay != today && dv.lastWriteDay != today-1 {
		return contractErr("SimXChange", "ForceState", h.SimID, h.Name, s.dateAt(today), "variable %q must be written on contiguous days", h.Name)
	}
	converted := convert(h.Name, h.V, h.Unit, dv.unit)
	if !dv.bound.Contains(converted) {
		return contractErr("SimXChange", "ForceState", h.SimID, h.Name, s.dateAt(today), "value %g is out of bounds %+v", converted, dv.bound)
	}
	old := dv.readValue(today)
	dv.write(today, converted)
	if !IsMissing(old) && old != converted {
		s.forced = append(s.forced, forcedRecord{dayIndex: today, simID: dv.simID, name: dv.name, old: old, new: converted, unit: dv.unit})
	}
	dv.pendingRate = Missing
	if h.token == InvalidToken {
		h.token = s.codec.encode(dv.index, true)
	}
	h.V = converted
	return nil
}

// SetStateRate stores a pending rate of change for a state that is active
// today. At most one rate may be pending per day; UpdateToDate consumes and
// clears it.
func (s *SimXChange) SetStateRate(h *StateHandle) error {
	today := s.currentDay
	dv, ok := s.byKey[dynKey(h.SimID, h.Name)]
	if !ok {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "variable %q has not been registered", h.Name)
	}
	if dv.locked {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "variable %q is locked", h.Name)
	}
	if !dv.hasValue(today) {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "state %q is not active today", h.Name)
	}
	if !IsMissing(dv.pendingRate) {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "rate for %q is already pending today", h.Name)
	}
	if IsMissing(h.R) {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "rate for %q is missing", h.Name)
	}
	rateNative := convert(h.Name, h.R, h.Unit, dv.unit)
	candidate := dv.readValue(today) + rateNative
	if !dv.bound.Contains(candidate) {
		return contractErr("SimXChange", "SetStateRate", h.SimID, h.Name, s.dateAt(today), "projected value %g is out of bounds %+v", candidate, dv.bound)
	}
	dv.pendingRate = rateNative
	return nil
}

// SetAux writes h.V for the current day. Aux variables are overwritten,
// never integrated, and follow the same contiguity rule as forced states,
// but unlike ForceState a second write for the same day is rejected.
func (s *SimXChange) SetAux(h *AuxHandle) error {
	today := s.currentDay
	if IsMissing(h.V) {
		return contractErr("SimXChange", "SetAux", h.SimID, h.Name, s.dateAt(today), "value is missing")
	}
	dv := s.resolveOrRegister(h.SimID, h.Name, false, h.Unit, h.Lower)
	if dv.locked {
		return contractErr("SimXChange", "SetAux", h.SimID, h.Name, s.dateAt(today), "variable %q is already published by another simID", h.Name)
	}
	if dv.lastWriteDay == today {
		return contractErr("SimXChange", "SetAux", h.SimID, h.Name, s.dateAt(today), "variable %q is already set today", h.Name)
	}
	if dv.lastWriteDay != -1 && dv.lastWriteDay != today-1 {
		return contractErr("SimXChange", "SetAux", h.SimID, h.Name, s.dateAt(today), "variable %q must be written on contiguous days", h.Name)
	}
	converted := convert(h.Name, h.V, h.Unit, dv.unit)
	if !dv.bound.Contains(converted) {
		return contractErr("SimXChange", "SetAux", h.SimID, h.Name, s.dateAt(today), "value %g is out of bounds %+v", converted, dv.bound)
	}
	dv.write(today, converted)
	if h.token == InvalidToken {
		h.token = s.codec.encode(dv.index, true)
	}
	h.V = converted
	return nil
}

// UpdateToDate is the only mutator that advances the current day. date must
// be exactly one day after the store's current date. Every state with a
// valid pending rate and an active previous day is integrated; every other
// state becomes permanently missing from this day forward. It returns the
// number of integrations performed.
func (s *SimXChange) UpdateToDate(date time.Time) (int, error) {
	date = truncateToDay(date)
	wantDay := s.currentDay + 1
	wantDate := s.start.AddDate(0, 0, wantDay)
	if !date.Equal(wantDate) {
		return 0, contractErr("SimXChange", "UpdateToDate", "", "", date.Format(dayLayout), "date must advance by exactly one day; expected %s", wantDate.Format(dayLayout))
	}
	prev := s.currentDay
	count := 0
	for _, dv := range s.vars {
		if !dv.isState || dv.locked {
			continue
		}
		if dv.hasValue(prev) && !IsMissing(dv.pendingRate) {
			dv.write(wantDay, dv.readValue(prev)+dv.pendingRate)
			dv.pendingRate = Missing
			count++
		} else if dv.hasValue(prev) {
			dv.exhausted = true
		}
	}
	s.currentDay = wantDay
	s.logger.tracef("updateToDate date=%s integrated=%d", wantDate.Format(dayLayout), count)
	return count, nil
}

// CurrentDayIndex returns the store's current day index.
func (s *SimXChange) CurrentDayIndex() int { return s.currentDay }

func (s *SimXChange) resolveToken(t Token) (*dynVar, bool, error) {
	idx, writable, ok := s.codec.decode(t)
	if !ok || idx < 0 || idx >= len(s.vars) {
		return nil, false, contractErr("SimXChange", "resolveToken", "", "", "", "invalid token")
	}
	return s.vars[idx], writable, nil
}

// GetValueByDateIndex reads a variable's value on the given absolute day
// index, converted to unit.
func (s *SimXChange) GetValueByDateIndex(t Token, unit Unit, dayIndex int) (float64, error) {
	dv, _, err := s.resolveToken(t)
	if err != nil {
		return 0, err
	}
	if dv.aggregated && dayIndex != dv.agg.lastIndex && dayIndex != dv.agg.lastIndex-1 {
		return 0, stateErr("SimXChange", "GetValueByDateIndex", dv.simID, dv.name, s.dateAt(dayIndex), "aggregated variable %q only exposes the previous and last day", dv.name)
	}
	v := dv.readValue(dayIndex)
	return convert(dv.name, v, dv.unit, unit), nil
}

// GetValueByDate is GetValueByDateIndex addressed by calendar date.
func (s *SimXChange) GetValueByDate(t Token, unit Unit, date time.Time) (float64, error) {
	day := int(truncateToDay(date).Sub(s.start).Hours() / 24)
	return s.GetValueByDateIndex(t, unit, day)
}

// GetValueByDelta reads a variable delta days before the current day; delta
// must be <= 0.
func (s *SimXChange) GetValueByDelta(t Token, unit Unit, delta int) (float64, error) {
	if delta > 0 {
		return 0, contractErr("SimXChange", "GetValueByDelta", "", "", "", "delta must be <= 0, got %d", delta)
	}
	return s.GetValueByDateIndex(t, unit, s.currentDay+delta)
}

// GetSimValueState refreshes h.V (today) and h.Vp (yesterday) in h.Unit.
func (s *SimXChange) GetSimValueState(h *StateHandle) error {
	dv, ok := s.byKey[dynKey(h.SimID, h.Name)]
	if !ok {
		return contractErr("SimXChange", "GetSimValueState", h.SimID, h.Name, "", "variable %q has not been registered", h.Name)
	}
	h.V = convert(dv.name, dv.readValue(s.currentDay), dv.unit, h.Unit)
	h.Vp = convert(dv.name, dv.readValue(s.currentDay-1), dv.unit, h.Unit)
	return nil
}

// resolveActivePublisher returns the unique dynvar publishing name that is
// active (has a value) on dayIndex, memoizing the (name, dayIndex) -> dynvar
// answer in a single-threaded LRU cache (SPEC_FULL.md §4.15).
func (s *SimXChange) resolveActivePublisher(name string, dayIndex int) (*dynVar, error) {
	name = normalizeParName(name)
	cacheKey := fmt.Sprintf("%s@%d", name, dayIndex)
	if v, ok := s.publisherCache.Get(cacheKey); ok {
		dv := v.(*dynVar)
		if dv.hasValue(dayIndex) {
			return dv, nil
		}
		s.publisherCache.Remove(cacheKey)
	}
	var found *dynVar
	for _, dv := range s.byName[name] {
		if dv.hasValue(dayIndex) {
			if found != nil {
				return nil, stateErr("SimXChange", "resolveActivePublisher", "", name, s.dateAt(dayIndex), "more than one active publisher for %q", name)
			}
			found = dv
		}
	}
	if found == nil {
		return nil, contractErr("SimXChange", "resolveActivePublisher", "", name, s.dateAt(dayIndex), "no active publisher for %q", name)
	}
	s.publisherCache.Add(cacheKey, found)
	return found, nil
}

// GetSimValueExternalByVarName refreshes h.V from the unique active
// publisher of h.Name on the given date, re-resolving the publisher if the
// cached token has stopped producing values, and sets h.Terminated
// according to the publisher's end-day.
func (s *SimXChange) GetSimValueExternalByVarName(h *ExternalHandle, date time.Time) error {
	day := int(truncateToDay(date).Sub(s.start).Hours() / 24)
	return s.getSimValueExternalByDay(h, day)
}

// GetSimValueExternalByVarNameDelta is GetSimValueExternalByVarName
// addressed by a <= 0 offset from the current day.
func (s *SimXChange) GetSimValueExternalByVarNameDelta(h *ExternalHandle, delta int) error {
	if delta > 0 {
		return contractErr("SimXChange", "GetSimValueExternalByVarNameDelta", "", h.Name, "", "delta must be <= 0, got %d", delta)
	}
	return s.getSimValueExternalByDay(h, s.currentDay+delta)
}

// GetSimValueExternalByVarNameDate is GetSimValueExternalByVarName addressed
// directly by day index.
func (s *SimXChange) GetSimValueExternalByVarNameDate(h *ExternalHandle, dayIndex int) error {
	return s.getSimValueExternalByDay(h, dayIndex)
}

func (s *SimXChange) getSimValueExternalByDay(h *ExternalHandle, day int) error {
	needsResolve := h.token == InvalidToken
	if !needsResolve {
		dv, _, err := s.resolveToken(h.token)
		if err != nil || !dv.hasValue(day) {
			needsResolve = true
		}
	}
	var dv *dynVar
	if needsResolve {
		found, err := s.resolveActivePublisher(h.Name, day)
		if err != nil {
			return err
		}
		dv = found
		h.token = s.codec.encode(dv.index, false)
	} else {
		dv, _, _ = s.resolveToken(h.token)
	}
	h.V = convert(dv.name, dv.readValue(day), dv.unit, h.Unit)
	if info, ok := s.simIDs[dv.simID]; ok {
		h.Terminated = info.EndDayIndex != nil && day > *info.EndDayIndex
	}
	return nil
}
