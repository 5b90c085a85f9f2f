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

package wissutil

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/wiss-framework/wiss"
)

const sampleConfig = `
StartDate = "2024-01-01"
EndDate = "2024-01-10"
TraceLogging = true

[[Parameters]]
Name = "SOWDAY"
Type = "integer"
Unit = "COUNT"
Immutable = true
Integer = 5

[[Parameters]]
Name = "FIELDNAME"
Type = "string"
String = "north forty"

[[Controllers]]
ClassName = "FieldController"
SimIDPrefix = "CROP"
SpawnWhen = "DAYINDEX == 5"
`

func writeConfig(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("afero.WriteFile: %v", err)
	}
}

func TestLoadRunConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "run.toml", sampleConfig)

	cfg, err := LoadRunConfig(fs, "run.toml")
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.StartDate != "2024-01-01" {
		t.Errorf("StartDate = %q, want %q", cfg.StartDate, "2024-01-01")
	}
	if cfg.EndDate != "2024-01-10" {
		t.Errorf("EndDate = %q, want %q", cfg.EndDate, "2024-01-10")
	}
	if !cfg.TraceLogging {
		t.Error("TraceLogging = false, want true")
	}
	if len(cfg.Parameters) != 2 {
		t.Fatalf("len(Parameters) = %d, want 2", len(cfg.Parameters))
	}
	if cfg.Parameters[0].Name != "SOWDAY" || cfg.Parameters[0].Integer != 5 {
		t.Errorf("Parameters[0] = %+v, want SOWDAY=5", cfg.Parameters[0])
	}
	if len(cfg.Controllers) != 1 {
		t.Fatalf("len(Controllers) = %d, want 1", len(cfg.Controllers))
	}
	if cfg.Controllers[0].ClassName != "FieldController" {
		t.Errorf("Controllers[0].ClassName = %q, want %q", cfg.Controllers[0].ClassName, "FieldController")
	}
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := LoadRunConfig(fs, "does-not-exist.toml"); err == nil {
		t.Error("LoadRunConfig on a missing file: have nil error, want non-nil")
	}
}

func TestLoadRunConfigBadTOML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "bad.toml", "this is not [ valid toml")
	if _, err := LoadRunConfig(fs, "bad.toml"); err == nil {
		t.Error("LoadRunConfig on malformed TOML: have nil error, want non-nil")
	}
}

func TestSeedParXInstallsCalendarKeysAndParameters(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "run.toml", sampleConfig)
	cfg, err := LoadRunConfig(fs, "run.toml")
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}

	parX := wiss.NewParXChange()
	if err := SeedParX(cfg, parX); err != nil {
		t.Fatalf("SeedParX: %v", err)
	}

	start, err := parX.GetDate(wiss.KeyStartDate, "test")
	if err != nil {
		t.Fatalf("GetDate(KeyStartDate): %v", err)
	}
	if want := "2024-01-01"; start.Format(dayLayout) != want {
		t.Errorf("KeyStartDate = %s, want %s", start.Format(dayLayout), want)
	}

	trace, err := parX.GetBoolean(wiss.KeyTraceLogging, "test")
	if err != nil {
		t.Fatalf("GetBoolean(KeyTraceLogging): %v", err)
	}
	if !trace {
		t.Error("KeyTraceLogging = false, want true")
	}

	sowday, err := parX.GetInteger("SOWDAY", "test", wiss.Count)
	if err != nil {
		t.Fatalf("GetInteger(SOWDAY): %v", err)
	}
	if sowday != 5 {
		t.Errorf("SOWDAY = %d, want 5", sowday)
	}

	field, err := parX.GetString("FIELDNAME", "test")
	if err != nil {
		t.Fatalf("GetString(FIELDNAME): %v", err)
	}
	if field != "north forty" {
		t.Errorf("FIELDNAME = %q, want %q", field, "north forty")
	}
}

func TestSeedParXRejectsBadStartDate(t *testing.T) {
	cfg := &RunConfig{StartDate: "not-a-date", EndDate: "2024-01-10"}
	if err := SeedParX(cfg, wiss.NewParXChange()); err == nil {
		t.Error("SeedParX with a malformed StartDate: have nil error, want non-nil")
	}
}

func TestSeedParXRejectsUnknownParameterType(t *testing.T) {
	cfg := &RunConfig{
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-10",
		Parameters: []ParameterConfig{{Name: "X", Type: "complex"}},
	}
	if err := SeedParX(cfg, wiss.NewParXChange()); err == nil {
		t.Error("SeedParX with an unknown parameter type: have nil error, want non-nil")
	}
}

func TestUnitByName(t *testing.T) {
	tests := []struct {
		name string
		want wiss.Unit
	}{
		{"celsius", wiss.Celsius},
		{"CELSIUS", wiss.Celsius},
		{"  Kg_Per_Hectare  ", wiss.KgPerHectare},
		{"count", wiss.Count},
	}
	for _, tt := range tests {
		have, err := UnitByName(tt.name)
		if err != nil {
			t.Errorf("UnitByName(%q): %v", tt.name, err)
			continue
		}
		if have != tt.want {
			t.Errorf("UnitByName(%q) = %v, want %v", tt.name, have, tt.want)
		}
	}
}

func TestUnitByNameUnknown(t *testing.T) {
	if _, err := UnitByName("light-years"); err == nil {
		t.Error("UnitByName on an unknown unit: have nil error, want non-nil")
	}
}
