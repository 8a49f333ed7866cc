package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/iocache"
	"github.com/huangsam/sensorlabel/schema"
)

// runBackendFromConfig reads the run store backend, treating an empty value as disabled.
func runBackendFromConfig() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString("run-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("run-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run history commands.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}

	// No load profile cache for run commands
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for run commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup prepares migrate without opening stores, so a fresh database
// is not given tables the migrations would then try to create.
func runsMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}

	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunDBFilePath()
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// requireRunStore returns the run store or fails when tracking is disabled.
func requireRunStore() contract.RunStore {
	store := iocache.Manager.GetRunStore()
	if store == nil || cfg.RunBackend == schema.NoneBackend {
		contract.LogFatal("Run history is disabled", errors.New("set --run-backend to sqlite, mysql or postgresql"))
	}
	return store
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of labelling runs",
	Long: `Manage the history of operations that changed data.

When a run backend is configured, every label, merge, combine, physio, predict
and dataset run is recorded with its input file, its settings, its duration and
the row counts before and after. Label runs also record one entry per slice with
its subject, location, label and span.

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Examples:
  sensorlabel runs status --run-backend sqlite
  sensorlabel runs export --run-backend sqlite --output-file history.parquet`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and slices",
	Long: `Delete all recorded runs and their slices.

This cannot be undone. Export the history first to keep it.

Examples:
  sensorlabel runs export --run-backend sqlite --output-file backup.parquet
  sensorlabel runs clear --run-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunBackend, contract.GetRunDBFilePath(), cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run history statistics and connection details",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := requireRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs and slices to Parquet",
	Long: `Export the run history as two Parquet files, one for runs and one for slices.
The file names are derived from --output-file.

Examples:
  sensorlabel runs export --run-backend sqlite --output-file history.parquet
  duckdb -c "SELECT label, count(*) FROM read_parquet('history.parquet.slices.parquet') GROUP BY label"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.OutputFile == "" {
			contract.LogFatal("Failed to export run history", errors.New("--output-file is required"))
		}
		if err := iocache.ExecuteRunExport(requireRunStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  sensorlabel runs migrate --run-backend postgresql --run-db-connect "postgres://..."

  # Rollback to initial state
  sensorlabel runs migrate --run-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
