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
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wiss-framework/wiss"
)

// Version is the CLI's own version string, printed by the version
// subcommand, grounded on the teacher's inmap.Version/versionCmd pairing.
const Version = "0.1.0"

// Cfg holds the command tree and the viper instance backing it, mirroring
// inmaputil.Cfg's shape: a *viper.Viper plus named *cobra.Command fields for
// every subcommand.
type Cfg struct {
	*viper.Viper

	Root, versionCmd, runCmd, reportCmd *cobra.Command

	fs afero.Fs
}

// InitializeConfig builds the wiss command tree: `wiss run --config
// run.toml [--report path --format=text|csv|xlsx]`, `wiss version`, and a
// hidden `wiss report` that has no action of its own.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New(), fs: afero.NewOsFs()}

	cfg.Root = &cobra.Command{
		Use:   "wiss",
		Short: "A deterministic daily-step simulation kernel.",
		Long: `WISS orchestrates independent process modules (crop growth, weather
drivers, soil dynamics, ...) through a single coherent daily-step model run.
Configuration can be supplied with a TOML file via --config, or with
environment variables in the form 'WISS_var'.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}
	cfg.Root.PersistentFlags().String("config", "", "path to a TOML run configuration file")
	bindFlag(cfg, cfg.Root.PersistentFlags(), "config")

	cfg.versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("wiss v%s\n", Version)
		},
	}

	cfg.runCmd = &cobra.Command{
		Use:               "run",
		Short:             "Run a simulation from a TOML configuration file.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runAndReport(cmd)
		},
	}
	cfg.runCmd.Flags().String("report", "", "path to write the text report to; empty skips reporting")
	cfg.runCmd.Flags().String("format", "text", "report format: text, csv, or xlsx")
	bindFlag(cfg, cfg.runCmd.Flags(), "report")
	bindFlag(cfg, cfg.runCmd.Flags(), "format")

	cfg.reportCmd = &cobra.Command{
		Use:               "report",
		Short:             "Placeholder with no action; reports are written by run --report.",
		DisableAutoGenTag: true,
		Hidden:            true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.runCmd, cfg.reportCmd)
	return cfg
}

func bindFlag(cfg *Cfg, flags *pflag.FlagSet, name string) {
	cfg.BindPFlag(name, flags.Lookup(name))
}

func setConfig(cfg *Cfg) error {
	if path := cfg.GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("wiss: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// runAndReport loads the run's own TOML configuration (distinct from the
// CLI's own viper config above: this one seeds ParXChange and describes
// controllers), runs it to completion, and writes the requested report.
func (cfg *Cfg) runAndReport(cmd *cobra.Command) error {
	configPath := cfg.GetString("config")
	if configPath == "" {
		return fmt.Errorf("wiss: run requires --config")
	}
	runCfg, err := LoadRunConfig(cfg.fs, configPath)
	if err != nil {
		return err
	}

	parX := wiss.NewParXChange()
	if err := SeedParX(runCfg, parX); err != nil {
		return err
	}

	start, _ := parX.GetDate(wiss.KeyStartDate, "wissutil")
	end, _ := parX.GetDate(wiss.KeyEndDate, "wissutil")
	duration := int(end.Sub(start).Hours() / 24)
	simX := wiss.NewSimXChange(start, duration)
	model := wiss.NewModel(nil)

	// factory is nil: the generic CLI has no registry mapping ClassName to a
	// concrete Module constructor, so a controller whose SpawnWhen ever fires
	// surfaces wiss's own "no ModuleFactory was configured" error. Spawning
	// controllers from a TOML file requires a host binary that wires its own
	// factories in.
	for _, cc := range runCfg.Controllers {
		controller, err := wiss.NewExpressionController(wiss.ExpressionControllerConfig{
			ClassName:     cc.ClassName,
			SimIDPrefix:   cc.SimIDPrefix,
			SpawnWhen:     cc.SpawnWhen,
			TerminateWhen: cc.TerminateWhen,
		}, parX, simX, model.RunningRef(), nil)
		if err != nil {
			return err
		}
		model.AddController(controller)
	}

	driver := wiss.NewTimeDriver(simX, parX, model, nil)
	if err := driver.Run(); err != nil {
		return err
	}
	summary := driver.Summary()
	cmd.Printf("wiss: run %s complete, %d days, %d integrations\n", summary.RunID, summary.DaysRun, summary.TotalIntegrations)

	reportPath := cfg.GetString("report")
	if reportPath == "" {
		return nil
	}
	opts := wiss.ReportOptions{RunID: summary.RunID}
	switch cfg.GetString("format") {
	case "xlsx":
		return WriteXLSXReport(reportPath, simX, opts)
	case "csv":
		return ExportCSV(cfg.fs, reportPath, simX, opts)
	case "text", "":
		return WriteTextReport(cfg.fs, reportPath, simX, opts)
	default:
		return fmt.Errorf("wiss: unknown report format %q", cfg.GetString("format"))
	}
}
