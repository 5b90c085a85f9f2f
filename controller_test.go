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

import "testing"

// stubModule is a minimal Module used only to exercise Controller/Model
// plumbing; its phase bodies do nothing.
type stubModule struct {
	*ModuleBase
}

func newStubModule(t *testing.T, s *SimXChange, simID string) *stubModule {
	t.Helper()
	base, err := NewModuleBase(simID, "STUB", s, s.CurrentDayIndex(), 1, 0, "", "")
	if err != nil {
		t.Fatalf("NewModuleBase: %v", err)
	}
	m := &stubModule{ModuleBase: base}
	if err := m.AuxCalculations(); err != nil {
		t.Fatalf("AuxCalculations: %v", err)
	}
	m.FinishInitialising()
	return m
}

func (m *stubModule) Intervene() error {
	return m.ModuleBase.DoModelAction(PhaseIntervene, func() error { return nil })
}
func (m *stubModule) AuxCalculations() error {
	return m.ModuleBase.DoModelAction(PhaseAux, func() error { return nil })
}
func (m *stubModule) RateCalculations() error {
	return m.ModuleBase.DoModelAction(PhaseRate, func() error { return nil })
}
func (m *stubModule) CanContinue() bool { return true }

func TestExpressionControllerSpawnsWhenConditionTrue(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	if err := parX.SetBoolean("SHOULDSPAWN", false, true); err != nil {
		t.Fatalf("SetBoolean: %v", err)
	}

	var running []Module
	factoryCalls := 0
	factory := func(simID string, simX *SimXChange, parX *ParXChange, dayIndex int) (Module, error) {
		factoryCalls++
		return newStubModule(t, simX, simID), nil
	}
	c, err := NewExpressionController(ExpressionControllerConfig{
		ClassName:   "STUB",
		SimIDPrefix: "STUB",
		SpawnWhen:   "SHOULDSPAWN == true",
	}, parX, s, &running, factory)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}

	n, err := c.TestForSimObjectsToStart()
	if err != nil {
		t.Fatalf("TestForSimObjectsToStart: %v", err)
	}
	if want := 1; n != want {
		t.Errorf("TestForSimObjectsToStart() = %d, want %d", n, want)
	}
	if factoryCalls != 1 {
		t.Errorf("factory called %d times, want 1", factoryCalls)
	}
	if len(running) != 1 {
		t.Errorf("len(running) = %d, want 1", len(running))
	}

	// SpawnWhen is re-evaluated every call; it stays true, so a second call
	// spawns a second instance (the controller itself does not debounce).
	n, err = c.TestForSimObjectsToStart()
	if err != nil {
		t.Fatalf("second TestForSimObjectsToStart: %v", err)
	}
	if want := 1; n != want {
		t.Errorf("second TestForSimObjectsToStart() = %d, want %d", n, want)
	}
	if len(running) != 2 {
		t.Errorf("len(running) after second spawn = %d, want 2", len(running))
	}
}

func TestExpressionControllerSpawnWithoutFactoryErrors(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	if err := parX.SetBoolean("SHOULDSPAWN", false, true); err != nil {
		t.Fatalf("SetBoolean: %v", err)
	}
	var running []Module
	c, err := NewExpressionController(ExpressionControllerConfig{
		ClassName:   "STUB",
		SimIDPrefix: "STUB",
		SpawnWhen:   "SHOULDSPAWN == true",
	}, parX, s, &running, nil)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}
	if _, err := c.TestForSimObjectsToStart(); err == nil {
		t.Error("TestForSimObjectsToStart with no factory: have nil error, want an error")
	}
}

func TestExpressionControllerTerminatesByClassName(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	if err := parX.SetBoolean("SHOULDTERMINATE", false, true); err != nil {
		t.Fatalf("SetBoolean: %v", err)
	}
	m1 := newStubModule(t, s, "STUB1")
	running := []Module{m1}

	c, err := NewExpressionController(ExpressionControllerConfig{
		ClassName:     "STUB",
		TerminateWhen: "SHOULDTERMINATE == true",
	}, parX, s, &running, nil)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}

	list, err := c.TestForSimObjectsToTerminate()
	if err != nil {
		t.Fatalf("TestForSimObjectsToTerminate: %v", err)
	}
	if len(list) != 1 || list[0] != m1 {
		t.Errorf("TestForSimObjectsToTerminate() = %v, want [%v]", list, m1)
	}
}

func TestExpressionControllerDOYAndGetPar(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	if err := parX.SetInteger("SOWN", false, 0, Count); err != nil {
		t.Fatalf("SetInteger: %v", err)
	}
	var running []Module
	factoryCalls := 0
	factory := func(simID string, simX *SimXChange, parX *ParXChange, dayIndex int) (Module, error) {
		factoryCalls++
		return newStubModule(t, simX, simID), nil
	}
	// day0() is 2024-01-01, day-of-year 1.
	c, err := NewExpressionController(ExpressionControllerConfig{
		ClassName:   "STUB",
		SimIDPrefix: "STUB",
		SpawnWhen:   `DOY() == 1 && GetPar("SOWN") == 0`,
	}, parX, s, &running, factory)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}

	n, err := c.TestForSimObjectsToStart()
	if err != nil {
		t.Fatalf("TestForSimObjectsToStart: %v", err)
	}
	if n != 1 || factoryCalls != 1 {
		t.Errorf("TestForSimObjectsToStart() = (%d, %v), factoryCalls = %d; want (1, nil), 1", n, err, factoryCalls)
	}

	if err := parX.SetInteger("SOWN", false, 1, Count); err != nil {
		t.Fatalf("SetInteger: %v", err)
	}
	n, err = c.TestForSimObjectsToStart()
	if err != nil {
		t.Fatalf("second TestForSimObjectsToStart: %v", err)
	}
	if n != 0 {
		t.Errorf("TestForSimObjectsToStart() after SOWN changed = %d, want 0", n)
	}
}

func TestExpressionControllerGetParUnknownNameErrors(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	var running []Module
	c, err := NewExpressionController(ExpressionControllerConfig{
		ClassName:   "STUB",
		SimIDPrefix: "STUB",
		SpawnWhen:   `GetPar("MISSING") == 0`,
	}, parX, s, &running, nil)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}
	if _, err := c.TestForSimObjectsToStart(); err == nil {
		t.Error("TestForSimObjectsToStart referencing an unknown parameter: have nil error, want an error")
	}
}

func TestExpressionControllerUnsetExpressionsNeverActs(t *testing.T) {
	s := NewSimXChange(day0(), 5)
	parX := NewParXChange()
	var running []Module
	c, err := NewExpressionController(ExpressionControllerConfig{ClassName: "STUB"}, parX, s, &running, nil)
	if err != nil {
		t.Fatalf("NewExpressionController: %v", err)
	}
	if n, err := c.TestForSimObjectsToStart(); err != nil || n != 0 {
		t.Errorf("TestForSimObjectsToStart() = (%d, %v), want (0, nil)", n, err)
	}
	if list, err := c.TestForSimObjectsToTerminate(); err != nil || list != nil {
		t.Errorf("TestForSimObjectsToTerminate() = (%v, %v), want (nil, nil)", list, err)
	}
}
