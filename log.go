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
	"github.com/sirupsen/logrus"
)

// Logger is the structured-logging facade used throughout the kernel. It
// wraps a logrus.FieldLogger so that TimeDriver, SimXChange and the module
// lifecycle machinery can all be pointed at the caller's own logging setup,
// the way framework.go threads a *log.Logger through the teacher's runner.
type Logger struct {
	entry       *logrus.Entry
	traceLogging bool
}

// NewLogger wraps l, a pre-configured logrus logger, for use by the kernel.
// traceLogging gates the per-day, per-phase Trace-level output described in
// spec.md §4.10 (mirrored from the TRACELOGGING parameter).
func NewLogger(l *logrus.Logger, traceLogging bool) *Logger {
	if l == nil {
		l = logrus.New()
	}
	return &Logger{entry: logrus.NewEntry(l), traceLogging: traceLogging}
}

func noopLogger() *Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return NewLogger(l, false)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// WithField returns a derived logger carrying an additional structured
// field, e.g. simID or phase.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), traceLogging: l.traceLogging}
}

func (l *Logger) tracef(format string, args ...interface{}) {
	if !l.traceLogging {
		return
	}
	l.entry.Tracef(format, args...)
}

// Infof logs a run-level milestone (a day boundary, a module spawn, a
// termination).
func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

// Warnf logs a recoverable anomaly, e.g. a controller declining to spawn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

// Errorf logs at Error level. The kernel returns violations as errors and
// does not call it itself.
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
