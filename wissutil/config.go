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

// Package wissutil is the hosting-application layer: a cobra/viper command
// tree, run-configuration loading, and report export, grounded on the
// teacher's inmaputil package. None of this is part of the kernel itself
// (spec.md §6: "the kernel is a library"); it is the ambient stack a real
// deployment of WISS needs around that library.
package wissutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/wiss-framework/wiss"
)

// ParameterConfig describes one ParXChange entry to seed before a run. Only
// one of Double/Integer/Date/Boolean/String is set, per Type.
type ParameterConfig struct {
	Name      string
	Type      string // "double", "integer", "date", "boolean", "string"
	Unit      string // required for "double"/"integer"; ignored otherwise
	Immutable bool

	Double  float64
	Integer int
	Date    string // RFC3339 date, "2006-01-02"
	Boolean bool
	String  string
}

// ControllerConfig is the TOML shape of wiss.ExpressionControllerConfig.
type ControllerConfig struct {
	ClassName     string
	SimIDPrefix   string
	SpawnWhen     string
	TerminateWhen string
}

// RunConfig is the full shape of a run's TOML configuration file: the
// calendar bounds, the seeded parameters, and the expression-driven
// controllers to install.
type RunConfig struct {
	StartDate    string
	EndDate      string
	PauseDate    string
	TraceLogging bool

	Parameters  []ParameterConfig
	Controllers []ControllerConfig
}

// unitsByName maps the TOML-facing unit names to wiss.Unit tags. Names are
// matched case-insensitively.
var unitsByName = map[string]wiss.Unit{
	"NA":              wiss.NA,
	"CELSIUS":         wiss.Celsius,
	"FAHRENHEIT":      wiss.Fahrenheit,
	"KELVIN":          wiss.Kelvin,
	"KG_PER_HECTARE":  wiss.KgPerHectare,
	"KG_PER_SQUARE_M": wiss.KgPerSquareM,
	"GRAM_PER_SQUARE_M": wiss.GramPerSquareM,
	"MJ_PER_SQUARE_M": wiss.MJPerSquareM,
	"WATT_PER_SQUARE_M": wiss.WattPerSquareM,
	"METER":           wiss.Meter,
	"CENTIMETER":      wiss.Centimeter,
	"MILLIMETER":      wiss.Millimeter,
	"METER_PER_SECOND": wiss.MeterPerSecond,
	"METER_PER_DAY":   wiss.MeterPerDay,
	"HECTOPASCAL":     wiss.Hectopascal,
	"MILLIBAR":        wiss.Millibar,
	"DEGREE":          wiss.Degree,
	"RADIAN":          wiss.Radian,
	"DAY":             wiss.Day,
	"FRACTION":        wiss.Fraction,
	"COUNT":           wiss.Count,
}

// UnitByName resolves a config-file unit name to its wiss.Unit tag.
func UnitByName(name string) (wiss.Unit, error) {
	u, ok := unitsByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return wiss.NA, fmt.Errorf("wissutil: unknown unit name %q", name)
	}
	return u, nil
}

// LoadRunConfig reads and decodes a TOML run-configuration file from fs,
// using afero so tests and alternate deployments (e.g. an in-memory or S3
// filesystem) can supply configuration without touching the real disk.
func LoadRunConfig(fs afero.Fs, path string) (*RunConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("wissutil: reading run config %q: %w", path, err)
	}
	var cfg RunConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("wissutil: parsing run config %q: %w", path, err)
	}
	return &cfg, nil
}

// SeedParX applies every parameter in cfg to parX, in file order, and
// installs the well-known calendar keys TimeDriver reads.
func SeedParX(cfg *RunConfig, parX *wiss.ParXChange) error {
	start, err := time.Parse(dayLayout, cfg.StartDate)
	if err != nil {
		return fmt.Errorf("wissutil: bad StartDate %q: %w", cfg.StartDate, err)
	}
	end, err := time.Parse(dayLayout, cfg.EndDate)
	if err != nil {
		return fmt.Errorf("wissutil: bad EndDate %q: %w", cfg.EndDate, err)
	}
	if err := parX.SetDate(wiss.KeyStartDate, true, start); err != nil {
		return err
	}
	if err := parX.SetDate(wiss.KeyEndDate, true, end); err != nil {
		return err
	}
	if cfg.PauseDate != "" {
		pause, err := time.Parse(dayLayout, cfg.PauseDate)
		if err != nil {
			return fmt.Errorf("wissutil: bad PauseDate %q: %w", cfg.PauseDate, err)
		}
		if err := parX.SetDate(wiss.KeyPauseDate, true, pause); err != nil {
			return err
		}
	}
	if err := parX.SetBoolean(wiss.KeyTraceLogging, false, cfg.TraceLogging); err != nil {
		return err
	}
	for _, p := range cfg.Parameters {
		if err := seedOne(p, parX); err != nil {
			return err
		}
	}
	return nil
}

const dayLayout = "2006-01-02"

func seedOne(p ParameterConfig, parX *wiss.ParXChange) error {
	switch strings.ToLower(p.Type) {
	case "double":
		u, err := UnitByName(p.Unit)
		if err != nil {
			return err
		}
		return parX.SetDouble(p.Name, p.Immutable, p.Double, u)
	case "integer":
		u, err := UnitByName(p.Unit)
		if err != nil {
			return err
		}
		return parX.SetInteger(p.Name, p.Immutable, p.Integer, u)
	case "date":
		d, err := time.Parse(dayLayout, p.Date)
		if err != nil {
			return fmt.Errorf("wissutil: bad date parameter %q: %w", p.Name, err)
		}
		return parX.SetDate(p.Name, p.Immutable, d)
	case "boolean":
		return parX.SetBoolean(p.Name, p.Immutable, p.Boolean)
	case "string":
		return parX.SetString(p.Name, p.Immutable, p.String)
	default:
		return fmt.Errorf("wissutil: unknown parameter type %q for %q", p.Type, p.Name)
	}
}
