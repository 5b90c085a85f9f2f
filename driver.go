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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wiss-framework/wiss/internal/hash"
)

// TimeDriver is the outer day loop described in spec.md §4.10. It owns a
// Timer, a SimXChange, a ParXChange and a Model, and drives them through
// exactly the sequence of steps the spec lists; nothing else in the kernel
// advances the calendar.
type TimeDriver struct {
	timer *Timer
	simX  *SimXChange
	parX  *ParXChange
	model *Model

	logger *Logger

	daysRun        int
	totalIntegrations int
	runID          string
}

// NewTimeDriver builds a driver from its four collaborators. start/end/
// pauseDate/traceLogging are read from parX's well-known keys on Run, not
// here, so a driver can be built once and run repeatedly against a changing
// parameter store.
func NewTimeDriver(simX *SimXChange, parX *ParXChange, model *Model, logger *Logger) *TimeDriver {
	if logger == nil {
		logger = noopLogger()
	}
	return &TimeDriver{simX: simX, parX: parX, model: model, logger: logger}
}

// Run executes one full simulation: timer/store reset, then the daily loop
// until either the timer or the model signals termination, then teardown.
// It implements spec.md §4.10 steps 1-3 exactly.
func (d *TimeDriver) Run() error {
	start, err := d.parX.GetDate(KeyStartDate, "TimeDriver")
	if err != nil {
		return err
	}
	end, err := d.parX.GetDate(KeyEndDate, "TimeDriver")
	if err != nil {
		return err
	}
	d.runID = hash.RunID(d.parX)

	// 1. timer.reset(); simXChange.reset(); apply trace-logging flag.
	d.timer = NewTimer(start, end)
	if d.parX.Contains(KeyPauseDate, TDate, false) {
		pause, err := d.parX.GetDate(KeyPauseDate, "TimeDriver")
		if err != nil {
			return err
		}
		d.timer.SetPauseDate(pause)
	}
	d.simX.Reset()
	traceLogging := false
	if d.parX.Contains(KeyTraceLogging, TBoolean, false) {
		traceLogging, err = d.parX.GetBoolean(KeyTraceLogging, "TimeDriver")
		if err != nil {
			return err
		}
	}
	// Keep the caller's logrus logger, raised to Trace level when trace
	// logging is on so the trace entries are not filtered out.
	base := d.logger.entry.Logger
	if traceLogging {
		base.SetLevel(logrus.TraceLevel)
	}
	d.logger = NewLogger(base, traceLogging)
	d.simX.logger = d.logger
	d.daysRun = 0
	d.totalIntegrations = 0

	d.logger.Infof("run %s starting %s through %s", d.runID, start.Format(dayLayout), end.Format(dayLayout))

	// 2. Daily loop.
	for {
		// a. if past start date, integrate pending rates.
		if !d.timer.IsOnStartDate() {
			n, err := d.simX.UpdateToDate(d.timer.Date())
			if err != nil {
				return err
			}
			d.totalIntegrations += n
		}

		// b-c. INTERVENE, then AUX (with its own internal spawn-loop, see
		// Model.DoModelAction).
		if err := d.model.DoModelAction(PhaseIntervene); err != nil {
			return err
		}
		if err := d.model.DoModelAction(PhaseAux); err != nil {
			return err
		}

		// e. RATE.
		if err := d.model.DoModelAction(PhaseRate); err != nil {
			return err
		}

		// f. controller-requested terminations, then self-requested ones.
		if err := d.model.TestForSimObjectsToTerminate(d.simX, d.simX.CurrentDayIndex()); err != nil {
			return err
		}
		if err := d.model.ReapSelfTerminating(d.simX, d.simX.CurrentDayIndex()); err != nil {
			return err
		}

		// g. model-driven termination.
		terminateByModel := d.model.TestForTerminateByModel()

		d.daysRun++
		if d.timer.PauseNow() {
			d.logger.Infof("pause date reached at %s", d.timer.Date().Format(dayLayout))
		}

		if terminateByModel {
			break
		}
		// h. step the calendar.
		d.timer.DateStep()
		if d.timer.Terminated() {
			break
		}
	}

	// 3. Teardown: terminate remaining modules, terminate the dynamic store.
	if err := d.model.TerminateAll(d.simX, d.simX.CurrentDayIndex()); err != nil {
		return err
	}
	d.simX.Terminate()
	d.logger.Infof("run %s finished after %d days, %d integrations", d.runID, d.daysRun, d.totalIntegrations)
	return nil
}

// RunID returns the run identifier computed from the starting ParXChange
// snapshot, for use in report headers.
func (d *TimeDriver) RunID() string { return d.runID }

// Summary is a small, supplemented (not spec-mandated) end-of-run digest:
// SPEC_FULL.md §4.16 adds it so a hosting CLI has something to print
// besides the full report.
type Summary struct {
	RunID             string
	DaysRun           int
	TotalIntegrations int
	StartDate         time.Time
	EndDate           time.Time
}

// Summary reports a snapshot of the just-completed (or in-progress) run.
func (d *TimeDriver) Summary() Summary {
	return Summary{
		RunID:             d.runID,
		DaysRun:           d.daysRun,
		TotalIntegrations: d.totalIntegrations,
		StartDate:         d.timer.start,
		EndDate:           d.timer.end,
	}
}
