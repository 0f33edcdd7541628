package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/history"
	"github.com/huangsam/phenomask/internal/outwriter"
	"github.com/huangsam/phenomask/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper resolves and validates the history backend settings.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for history operations.
// This is used by commands that need the run store without full shared setup.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	output := schema.OutputMode(strings.ToLower(viper.GetString("output")))
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", output)
	}

	if err := history.InitHistory(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.Output = output
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Precision = viper.GetInt("precision")

	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func runsMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = history.GetDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate command.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runStore returns the initialized run store or fails the command.
func runStore() contract.RunStore {
	store := history.Manager.GetRunStore()
	if store == nil {
		contract.LogFatal("Run history unavailable", fmt.Errorf("backend %q has no store", cfg.HistoryBackend))
	}
	return store
}

// runsCmd focused on run history management.
//
// Note: runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup. Stack paths and phase settings are irrelevant here.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of classification runs",
	Long: `Every classify invocation is recorded with its parameters, timing,
outcome and positive pixel count.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run history statistics
  list    - Show every recorded run
  export  - Export runs to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  phenomask runs status
  phenomask runs export --output-file history`,
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run history statistics and connection details",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := runStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run history status", err)
		}
		if err := outwriter.WriteRunStatus(status, cfg); err != nil {
			contract.LogFatal("Failed to write run history status", err)
		}
	},
}

// runsListCmd lists recorded runs.
var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every recorded run, oldest first",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		records, err := runStore().GetAllRuns()
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.WriteRuns(records, cfg); err != nil {
			contract.LogFatal("Failed to write runs", err)
		}
	},
}

// runsExportCmd exports run history to a Parquet file.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for analytics tools",
	Long: `Write every recorded run to <output-file>.runs.parquet.

Requires: --output-file parameter

Examples:
  phenomask runs export --output-file history
  duckdb -c "SELECT state, count(*) FROM read_parquet('history.runs.parquet') GROUP BY 1"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		result, err := history.ExportRuns(runStore(), cfg.OutputFile)
		if err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
		fmt.Printf("Exported %d runs from %s to %s\n", result.Runs, result.Backend, result.Path)
	},
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete every recorded run. For SQLite the database file is removed;
for MySQL and PostgreSQL the runs table is dropped.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// SQLite connection strings are file paths; runsMigrateSetup fills in the default
		dbFilePath := cfg.HistoryDBConnect
		if err := history.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  phenomask runs migrate
  phenomask runs migrate --target-version 1
  phenomask runs migrate --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := history.Migrate(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(result.String())
	},
}
