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

// Model holds the running controllers and modules for one simulation run
// and fans out each day's phase actions to them, per spec.md §4.9.
type Model struct {
	controllers []Controller
	running     []Module

	everRun bool

	logger *Logger
}

// NewModel creates an empty model. AddController must be called (typically
// once per scientific concern) before the first day runs.
func NewModel(logger *Logger) *Model {
	if logger == nil {
		logger = noopLogger()
	}
	return &Model{logger: logger}
}

// Running returns the shared running-modules slice. Controllers constructed
// against *Model.RunningRef() operate on this same backing array, per
// spec.md §4.8 ("all operate on shared running-list state").
func (m *Model) Running() []Module { return m.running }

// RunningRef exposes a pointer to the running-modules slice for controller
// construction (see ExpressionController).
func (m *Model) RunningRef() *[]Module { return &m.running }

// AddController registers a controller with the model. Controllers run, and
// are asked to spawn/terminate, in registration order (Design Notes §9:
// "ordering guarantee inside a phase").
func (m *Model) AddController(c Controller) { m.controllers = append(m.controllers, c) }

// doPhase runs phase across mods, in registration order, via each module's
// own state-machine-checked hook.
func (m *Model) doPhase(phase Phase, mods []Module) error {
	for _, mod := range mods {
		var err error
		switch phase {
		case PhaseIntervene:
			err = mod.Intervene()
		case PhaseAux:
			err = mod.AuxCalculations()
		case PhaseRate:
			err = mod.RateCalculations()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DoModelAction runs one day's worth of a single phase: INTERVENE, then AUX
// (looping in spawn rounds until no controller starts anything new), then
// RATE. TimeDriver calls the three phases in order each day; this method
// implements the AUX spawn-loop described in spec.md §4.10 step 2d so that
// newly spawned modules complete their own AUX before the day's RATE phase
// runs. Each spawn round re-runs AUX only for the modules that round just
// added, not the whole running list: a module that already published its aux
// values this day is done for the day, and SimXChange.SetAux rejects a
// second same-day write from the same publisher (spec.md §4.6.4), so
// re-aux'ing an already-aux'd module would fail the run rather than let a
// newcomer catch up.
func (m *Model) DoModelAction(phase Phase) error {
	if err := m.doPhase(phase, m.running); err != nil {
		return err
	}
	if phase != PhaseAux {
		return nil
	}
	for {
		before := len(m.running)
		spawned, err := m.spawnRound()
		if err != nil {
			return err
		}
		if spawned == 0 {
			break
		}
		m.everRun = true
		if err := m.doPhase(PhaseAux, m.running[before:]); err != nil {
			return err
		}
	}
	if len(m.running) > 0 {
		m.everRun = true
	}
	return nil
}

// spawnRound asks every controller, in order, whether it wants to start new
// modules, returning the total spawned this round.
func (m *Model) spawnRound() (int, error) {
	total := 0
	for _, c := range m.controllers {
		n, err := c.TestForSimObjectsToStart()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// TestForSimObjectsToTerminate asks every controller for modules to tear
// down, terminates each returned module, and removes it from the running
// list.
func (m *Model) TestForSimObjectsToTerminate(simX *SimXChange, dayIndex int) error {
	toTerminate := make(map[Module]bool)
	for _, c := range m.controllers {
		list, err := c.TestForSimObjectsToTerminate()
		if err != nil {
			return err
		}
		for _, mod := range list {
			toTerminate[mod] = true
		}
	}
	if len(toTerminate) == 0 {
		return nil
	}
	kept := m.running[:0]
	for _, mod := range m.running {
		if toTerminate[mod] {
			if err := mod.Terminate(simX, dayIndex, false, "terminated by controller"); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, mod)
	}
	m.running = kept
	return nil
}

// TestForTerminateByModel reports whether the run should end because at
// least one module has run in the past and none are running now, per
// spec.md §4.9.
func (m *Model) TestForTerminateByModel() bool {
	return m.everRun && len(m.running) == 0
}

// TerminateAll force-terminates every still-running module, used by
// TimeDriver on loop exit (spec.md §4.10 step 3).
func (m *Model) TerminateAll(simX *SimXChange, dayIndex int) error {
	for _, mod := range m.running {
		if err := mod.Terminate(simX, dayIndex, false, "run ended"); err != nil {
			return err
		}
	}
	m.running = nil
	return nil
}

// ReapSelfTerminating removes and terminates every running module whose
// CanContinue() now reports false, honouring module-requested termination
// alongside controller-requested termination.
func (m *Model) ReapSelfTerminating(simX *SimXChange, dayIndex int) error {
	kept := m.running[:0]
	for _, mod := range m.running {
		if !mod.CanContinue() {
			if err := mod.Terminate(simX, dayIndex, false, "self-terminated"); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, mod)
	}
	m.running = kept
	return nil
}
