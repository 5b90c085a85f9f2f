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

import "fmt"

// Phase names one of the three ordered sub-steps of a simulation day.
type Phase int

// The three phases a day runs through, in order.
const (
	PhaseIntervene Phase = iota
	PhaseAux
	PhaseRate
)

func (p Phase) String() string {
	switch p {
	case PhaseIntervene:
		return "INTERVENE"
	case PhaseAux:
		return "AUX"
	case PhaseRate:
		return "RATE"
	default:
		return "?"
	}
}

// lifecycleState is a module's internal phase state machine position, per
// spec.md §4.7: INITIALISING -> AUX -> RATE -> (next day) -> INTERVENE ->
// AUX -> RATE -> ... -> TERMINATING -> TERMINATED.
type lifecycleState int

const (
	stateInitialising lifecycleState = iota
	stateAux
	stateRate
	stateIntervene
	stateTerminating
	stateTerminated
)

func (s lifecycleState) String() string {
	switch s {
	case stateInitialising:
		return "INITIALISING"
	case stateAux:
		return "AUX"
	case stateRate:
		return "RATE"
	case stateIntervene:
		return "INTERVENE"
	case stateTerminating:
		return "TERMINATING"
	case stateTerminated:
		return "TERMINATED"
	default:
		return "?"
	}
}

// legalPredecessors lists, for each phase action, the lifecycle states a
// module must be in before that action is allowed to run.
//
// INTERVENE additionally accepts stateAux: the lifecycle diagram in
// spec.md §4.7 is INITIALISING -> AUX -> RATE -> (next day) -> INTERVENE ->
// AUX -> RATE -> ..., i.e. a module's very first day runs no INTERVENE at
// all. TimeDriver, however, calls INTERVENE on every running module every
// day, including day one, for every module present before the loop starts
// (spec.md §4.10 does not special-case day one). Accepting stateAux as an
// INTERVENE predecessor makes that first, otherwise-do-nothing INTERVENE
// call legal instead of requiring every module's own Intervene() to special
// case "is this my first day" itself.
//
// AUX additionally accepts stateAux itself: after each spawn round the
// model's AUX spawn-loop runs AUX once more on every module that round just
// added (see Model.DoModelAction), and such a newcomer already ran AUX in
// its own constructor, so it is sitting in stateAux when that call arrives.
var legalPredecessors = map[Phase][]lifecycleState{
	PhaseIntervene: {stateRate, stateAux},
	PhaseAux:       {stateInitialising, stateIntervene, stateAux},
	PhaseRate:      {stateAux},
}

var phaseTarget = map[Phase]lifecycleState{
	PhaseIntervene: stateIntervene,
	PhaseAux:       stateAux,
	PhaseRate:      stateRate,
}

// Module is the capability set a scientific collaborator implements, per
// spec.md §6 and Design Notes §9 ("module capability"). ModuleBase provides
// the lifecycle machinery, SimID and Terminate; embedding types implement
// Intervene, AuxCalculations, RateCalculations and CanContinue themselves.
type Module interface {
	SimID() string
	Intervene() error
	AuxCalculations() error
	RateCalculations() error
	CanContinue() bool
	Terminate(simX *SimXChange, dayIndex int, errored bool, message string) error
}

// ModuleBase implements the phase state machine and simID registration
// shared by every concrete module. Concrete modules embed it and implement
// the remaining Module methods plus their own intervene/aux/rate bodies.
type ModuleBase struct {
	simID       string
	className   string
	title       string
	description string
	majorV      int
	minorV      int

	state lifecycleState
}

// NewModuleBase registers simID with simX and runs the INITIALISING phase.
// The embedding type's constructor must still call AuxCalculations once
// after this returns, per spec.md §4.7 ("constructor ... must end by
// calling auxCalculations once").
func NewModuleBase(simID, className string, simX *SimXChange, startDay int, majorV, minorV int, title, description string) (*ModuleBase, error) {
	if err := simX.RegisterSimID(simID, className, startDay); err != nil {
		return nil, err
	}
	return &ModuleBase{
		simID:       simID,
		className:   className,
		title:       title,
		description: description,
		majorV:      majorV,
		minorV:      minorV,
		state:       stateInitialising,
	}, nil
}

// SimID returns the module's registered identifier.
func (m *ModuleBase) SimID() string { return m.simID }

// ClassName returns the module's class/kind label, as recorded with the
// dynamic store at registration.
func (m *ModuleBase) ClassName() string { return m.className }

// Title, Description, MajorVersion and MinorVersion expose module metadata
// used for reporting and version gating.
func (m *ModuleBase) Title() string        { return m.title }
func (m *ModuleBase) Description() string  { return m.description }
func (m *ModuleBase) MajorVersion() int    { return m.majorV }
func (m *ModuleBase) MinorVersion() int    { return m.minorV }

// CheckMinimalVersion reports whether the module satisfies a caller's
// minimum required (major, minor) version.
func (m *ModuleBase) CheckMinimalVersion(major, minor int) bool {
	if m.majorV != major {
		return m.majorV > major
	}
	return m.minorV >= minor
}

// DoModelAction runs the state-machine transition for phase, invoking body
// only if the module's current lifecycle state legally precedes phase.
// A concrete module's own Intervene/AuxCalculations/RateCalculations method
// should be a thin wrapper that delegates its real work to body through
// DoModelAction, so Model can call the Module interface methods directly
// while the legality check still runs underneath.
func (m *ModuleBase) DoModelAction(phase Phase, body func() error) error {
	if m.state == stateTerminated {
		return stateErr("ModuleBase", "DoModelAction", m.simID, "", "", "module has already terminated")
	}
	ok := false
	for _, legal := range legalPredecessors[phase] {
		if m.state == legal {
			ok = true
			break
		}
	}
	if !ok {
		return stateErr("ModuleBase", "DoModelAction", m.simID, "", "", "phase %s is not legal from state %s", phase, m.state)
	}
	if err := body(); err != nil {
		return err
	}
	m.state = phaseTarget[phase]
	return nil
}

// FinishInitialising transitions a freshly constructed module out of
// INITIALISING once its constructor has run AuxCalculations, matching the
// AUX target state so the first ordinary RATE call is legal.
func (m *ModuleBase) FinishInitialising() {
	m.state = stateAux
}

// Terminate transitions the module to TERMINATED and records the
// termination with the dynamic store.
func (m *ModuleBase) Terminate(simX *SimXChange, dayIndex int, errored bool, message string) error {
	if m.state == stateTerminated {
		return stateErr("ModuleBase", "Terminate", m.simID, "", "", "module has already terminated")
	}
	m.state = stateTerminating
	if err := simX.TerminateSimID(m.simID, dayIndex, errored, message); err != nil {
		return err
	}
	m.state = stateTerminated
	return nil
}

// Terminated reports whether the module has finished its TERMINATING ->
// TERMINATED transition.
func (m *ModuleBase) Terminated() bool { return m.state == stateTerminated }

func (m *ModuleBase) String() string {
	return fmt.Sprintf("%s(%s) [%s]", m.className, m.simID, m.state)
}
