package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/iocache"
	"github.com/qpsplot/qpsplot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadAnalysisBackend reads and validates the tracking backend settings.
// An empty backend is treated as NoneBackend.
func loadAnalysisBackend() (schema.DatabaseBackend, string, error) {
	if err := readConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("analysis-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}

	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup loads minimal configuration needed for analysis operations.
// This is used by commands that need analysis access without full shared setup.
func analysisSetup() error {
	backend, connStr, err := loadAnalysisBackend()
	if err != nil {
		return err
	}

	if err := iocache.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup loads minimal configuration needed for migrate operations.
// It does NOT initialize stores or create tables, so migrations can run on a fresh database.
func analysisMigrateSetup() error {
	backend, connStr, err := loadAnalysisBackend()
	if err != nil {
		return err
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	return nil
}

// analysisMigrateSetupWrapper wraps analysisMigrateSetup to provide PreRunE for migrate command.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisMigrateSetup()
}

// sqliteFilePath returns the SQLite file used for run tracking.
func sqliteFilePath() string {
	if cfg.AnalysisDBConnect != "" {
		return cfg.AnalysisDBConnect
	}
	return contract.GetAnalysisDBFilePath()
}

// analysisCmd focused on run tracking data management.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage run tracking and exports",
	Long: `Manage the history of series and window runs.

When enabled with --analysis-backend, qpsplot records one row per run:
- Log file, bucket mode and configuration
- Lines read, matched and skipped
- Number of buckets produced and run duration

Bucket counts themselves are never stored.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Examples:
  # Check tracking status
  qpsplot analysis status --analysis-backend sqlite

  # Export for analysis in pandas/DuckDB
  qpsplot analysis export --analysis-backend sqlite --output-file runs`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run tracking data",
	Long: `Delete every stored run record and the migration history.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  qpsplot analysis export --analysis-backend sqlite --output-file backup
  qpsplot analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite handle before removing its file
		iocache.CloseStores()
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, sqliteFilePath(), cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show the backend, number of stored runs, first and last run times,
total lines matched across runs and table sizes.`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetAnalysisStore()
		if store == nil {
			contract.LogFatal("Failed to get analysis status", errors.New("analysis tracking is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet",
	Long: `Export every stored run to <output-file>.analysis_runs.parquet.

Requires: --output-file parameter

Examples:
  qpsplot analysis export --analysis-backend sqlite --output-file runs
  duckdb -c "SELECT bucket_mode, avg(lines_matched) FROM read_parquet('runs.analysis_runs.parquet') GROUP BY 1"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  qpsplot analysis migrate --analysis-backend sqlite

  # Roll back to the initial state
  qpsplot analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
