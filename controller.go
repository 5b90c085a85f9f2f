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

	"github.com/Knetic/govaluate"
)

// Controller is the capability set a spawn/terminate policy object
// implements, per spec.md §6 and Design Notes §9 ("controller capability").
// A model holds an ordered list of controllers that all operate on shared
// running-list state (spec.md §4.8): each controller is constructed with a
// reference to the same running-modules slice rather than receiving it
// fresh on every call.
type Controller interface {
	// TestForSimObjectsToStart may append newly constructed modules to the
	// shared running list and must complete each new module's
	// INITIALISING+AUX before returning. It returns the number of modules
	// it started.
	TestForSimObjectsToStart() (int, error)
	// TestForSimObjectsToTerminate returns modules the Model should tear
	// down this day.
	TestForSimObjectsToTerminate() ([]Module, error)
}

// ModuleFactory constructs a new Module for the expression controller once
// its spawn condition is satisfied. simID is the controller's SimIDPrefix
// plus its running spawn counter (e.g. "FIELD-3"); dayIndex is the day of
// the spawn.
type ModuleFactory func(simID string, simX *SimXChange, parX *ParXChange, dayIndex int) (Module, error)

// ExpressionControllerConfig configures an ExpressionController from data,
// e.g. a parsed TOML run file (SPEC_FULL.md §4.13): spawn/terminate
// decisions are govaluate boolean expressions evaluated against ParXChange
// parameters, rather than compiled Go.
type ExpressionControllerConfig struct {
	ClassName   string
	SimIDPrefix string
	SpawnWhen   string // govaluate expression; true -> spawn one module
	TerminateWhen string // govaluate expression; true -> terminate every running instance of ClassName
}

// ExpressionController is a Controller whose spawn/terminate policy is
// described by boolean expressions over ParXChange parameters instead of
// Go code, letting a run configuration change admission policy without a
// rebuild.
type ExpressionController struct {
	cfg     ExpressionControllerConfig
	parX    *ParXChange
	simX    *SimXChange
	factory ModuleFactory
	running *[]Module

	spawnExpr     *govaluate.EvaluableExpression
	terminateExpr *govaluate.EvaluableExpression

	spawnCount int
}

// NewExpressionController compiles cfg's expressions once at construction;
// a malformed expression is a configuration error, surfaced immediately
// rather than on first evaluation. running must be the Model's shared
// running-modules slice.
func NewExpressionController(cfg ExpressionControllerConfig, parX *ParXChange, simX *SimXChange, running *[]Module, factory ModuleFactory) (*ExpressionController, error) {
	c := &ExpressionController{cfg: cfg, parX: parX, simX: simX, running: running, factory: factory}
	functions := c.expressionFunctions()
	var err error
	if cfg.SpawnWhen != "" {
		c.spawnExpr, err = govaluate.NewEvaluableExpressionWithFunctions(cfg.SpawnWhen, functions)
		if err != nil {
			return nil, fmt.Errorf("wiss: controller %q: bad SpawnWhen expression: %w", cfg.ClassName, err)
		}
	}
	if cfg.TerminateWhen != "" {
		c.terminateExpr, err = govaluate.NewEvaluableExpressionWithFunctions(cfg.TerminateWhen, functions)
		if err != nil {
			return nil, fmt.Errorf("wiss: controller %q: bad TerminateWhen expression: %w", cfg.ClassName, err)
		}
	}
	return c, nil
}

// expressionFunctions builds the DOY()/GetPar(name) helpers SPEC_FULL.md
// §4.13's example expressions call (e.g. "DOY() == 91 && GetPar(\"SOWN\") ==
// 0"), bound to this controller's own ParXChange/SimXChange.
func (c *ExpressionController) expressionFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"DOY": func(args ...interface{}) (interface{}, error) {
			return float64(c.simX.currentDate().YearDay()), nil
		},
		"GetPar": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("GetPar expects exactly one argument, got %d", len(args))
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("GetPar expects a string argument")
			}
			return c.getParForExpression(name)
		},
	}
}

// getParForExpression resolves name against parX regardless of its stored
// type, widening numeric types to float64 the way parameterSnapshot does.
func (c *ExpressionController) getParForExpression(name string) (interface{}, error) {
	if v, err := c.parX.GetConverted(name, "ExpressionController.GetPar", TDouble, c.unitOf(name)); err == nil {
		return v, nil
	}
	if v, err := c.parX.GetBoolean(name, "ExpressionController.GetPar"); err == nil {
		return v, nil
	}
	if v, err := c.parX.GetString(name, "ExpressionController.GetPar"); err == nil {
		return v, nil
	}
	return nil, fmt.Errorf("wiss: GetPar(%q): parameter not found or not a supported type", name)
}

// parameterSnapshot exposes every numeric and boolean ParXChange parameter
// to govaluate by name, widening integers to float64 (govaluate's numeric
// type) and leaving date/string parameters out of scope for expressions.
func (c *ExpressionController) parameterSnapshot() govaluate.Parameters {
	vals := make(map[string]interface{})
	for _, k := range c.parX.Keys() {
		switch k.Type {
		case TDouble:
			if v, err := c.parX.GetConverted(k.Name, "ExpressionController", TDouble, c.unitOf(k.Name)); err == nil {
				vals[k.Name] = v
			}
		case TInteger:
			if v, err := c.parX.GetInteger(k.Name, "ExpressionController", c.unitOf(k.Name)); err == nil {
				vals[k.Name] = float64(v)
			}
		case TBoolean:
			if v, err := c.parX.GetBoolean(k.Name, "ExpressionController"); err == nil {
				vals[k.Name] = v
			}
		}
	}
	vals["DAYINDEX"] = float64(c.simX.CurrentDayIndex())
	return govaluate.MapParameters(vals)
}

// unitOf looks up the unit a numeric parameter was stored with, so
// expression evaluation reads it back in its own native unit rather than
// forcing a conversion target.
func (c *ExpressionController) unitOf(name string) Unit {
	if e, _, ok := c.parX.lookup(name, TDouble); ok {
		return e.unit
	}
	return NA
}

// TestForSimObjectsToStart spawns one new module, with a simID derived from
// cfg.SimIDPrefix and a running spawn counter, whenever SpawnWhen evaluates
// true. An unset SpawnWhen never spawns.
func (c *ExpressionController) TestForSimObjectsToStart() (int, error) {
	if c.spawnExpr == nil {
		return 0, nil
	}
	result, err := c.spawnExpr.Eval(c.parameterSnapshot())
	if err != nil {
		return 0, fmt.Errorf("wiss: controller %q: SpawnWhen evaluation failed: %w", c.cfg.ClassName, err)
	}
	spawn, ok := result.(bool)
	if !ok {
		return 0, fmt.Errorf("wiss: controller %q: SpawnWhen must evaluate to a boolean", c.cfg.ClassName)
	}
	if !spawn {
		return 0, nil
	}
	if c.factory == nil {
		return 0, fmt.Errorf("wiss: controller %q: SpawnWhen fired but no ModuleFactory was configured", c.cfg.ClassName)
	}
	simID := fmt.Sprintf("%s-%d", c.cfg.SimIDPrefix, c.spawnCount)
	c.spawnCount++
	mod, err := c.factory(simID, c.simX, c.parX, c.simX.CurrentDayIndex())
	if err != nil {
		return 0, err
	}
	*c.running = append(*c.running, mod)
	return 1, nil
}

// classNamed is implemented by any Module that also exposes ClassName, as
// ModuleBase does; TestForSimObjectsToTerminate uses it to filter the
// shared running list down to this controller's own class.
type classNamed interface {
	ClassName() string
}

// TestForSimObjectsToTerminate returns every currently running module of
// cfg.ClassName when TerminateWhen evaluates true. An unset TerminateWhen
// never terminates anything from this controller.
func (c *ExpressionController) TestForSimObjectsToTerminate() ([]Module, error) {
	if c.terminateExpr == nil {
		return nil, nil
	}
	result, err := c.terminateExpr.Eval(c.parameterSnapshot())
	if err != nil {
		return nil, fmt.Errorf("wiss: controller %q: TerminateWhen evaluation failed: %w", c.cfg.ClassName, err)
	}
	terminate, ok := result.(bool)
	if !ok {
		return nil, fmt.Errorf("wiss: controller %q: TerminateWhen must evaluate to a boolean", c.cfg.ClassName)
	}
	if !terminate {
		return nil, nil
	}
	var out []Module
	for _, m := range *c.running {
		if cn, ok := m.(classNamed); ok && cn.ClassName() == c.cfg.ClassName {
			out = append(out, m)
		}
	}
	return out, nil
}
