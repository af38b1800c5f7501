package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for run tracking.
const (
	analysisRunsTable = "qpsplot_analysis_runs"
	migrationsTable   = "qpsplot_schema_migrations"
)

// analysisTables lists every table owned by run tracking.
var analysisTables = []string{analysisRunsTable, migrationsTable}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, driverName, err := openDatabase(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if _, err := db.Exec(getCreateAnalysisRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", analysisRunsTable, err)
	}

	return &AnalysisStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// openDatabase opens a connection pool for the backend without verifying it.
func openDatabase(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetAnalysisDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, "sqlite", nil

	case schema.MySQLBackend:
		// parseTime lets DATETIME columns scan into time.Time
		db, err := sql.Open("mysql", withMySQLParseTime(connStr))
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		return db, "mysql", nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=... password=...", err)
		}
		return db, "pgx", nil

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for qpsplot_analysis_runs.
// It matches the first schema migration so that either path yields the same table.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				source_path VARCHAR(1024) NOT NULL,
				bucket_mode VARCHAR(16) NOT NULL,
				lines_read BIGINT NOT NULL DEFAULT 0,
				lines_matched BIGINT NOT NULL DEFAULT 0,
				lines_skipped BIGINT NOT NULL DEFAULT 0,
				bucket_count BIGINT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				source_path TEXT NOT NULL,
				bucket_mode TEXT NOT NULL,
				lines_read BIGINT NOT NULL DEFAULT 0,
				lines_matched BIGINT NOT NULL DEFAULT 0,
				lines_skipped BIGINT NOT NULL DEFAULT 0,
				bucket_count BIGINT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				source_path TEXT NOT NULL,
				bucket_mode TEXT NOT NULL,
				lines_read INTEGER NOT NULL DEFAULT 0,
				lines_matched INTEGER NOT NULL DEFAULT 0,
				lines_skipped INTEGER NOT NULL DEFAULT 0,
				bucket_count INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// BeginAnalysis creates a new run record and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, sourcePath string, mode schema.BucketMode, configParams map[string]any) (int64, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	args := []any{formatTime(startTime, as.backend), sourcePath, string(mode), string(configJSON)}

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, source_path, bucket_mode, config_params) VALUES (%s) RETURNING analysis_id`,
			quotedTableName, placeholders(as.backend, len(args)))
		err = as.db.QueryRow(query, args...).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, source_path, bucket_mode, config_params) VALUES (%s)`,
			quotedTableName, placeholders(as.backend, len(args)))
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return analysisID, nil
}

// EndAnalysis updates the run record with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, summary schema.RunSummary) error {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	// First, get the start_time to calculate duration
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholder(as.backend, 1))
	startTime, err := as.scanTime(as.db.QueryRow(query, analysisID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(
		`UPDATE %s SET end_time = %s, run_duration_ms = %s, lines_read = %s, lines_matched = %s, lines_skipped = %s, bucket_count = %s WHERE analysis_id = %s`,
		quotedTableName,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3),
		placeholder(as.backend, 4), placeholder(as.backend, 5), placeholder(as.backend, 6),
		placeholder(as.backend, 7),
	)
	args := []any{
		formatTime(endTime, as.backend), durationMs,
		summary.LinesRead, summary.LinesMatched, summary.LinesSkipped, summary.BucketCount,
		analysisID,
	}

	if _, err := as.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}

	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.backend == schema.NoneBackend || as.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	if err := as.db.QueryRow(runsQuery).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	status.TableSizes[analysisRunsTable] = int64(status.TotalRuns)

	if status.TotalRuns == 0 {
		return status, nil
	}

	lastRunQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", quotedTableName)
	row := as.db.QueryRow(lastRunQuery)
	if as.backend == schema.SQLiteBackend {
		var lastRunTimeStr string
		if err := row.Scan(&status.LastRunID, &lastRunTimeStr); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := time.Parse(time.RFC3339Nano, lastRunTimeStr)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime
	} else if err := row.Scan(&status.LastRunID, &status.LastRunTime); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}

	oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", quotedTableName)
	oldestRunTime, err := as.scanTime(as.db.QueryRow(oldestRunQuery))
	if err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldestRunTime

	linesQuery := fmt.Sprintf("SELECT COALESCE(SUM(lines_matched), 0) FROM %s", quotedTableName)
	if err := as.db.QueryRow(linesQuery).Scan(&status.TotalLinesMatched); err != nil {
		return status, fmt.Errorf("failed to get total lines matched: %w", err)
	}

	return status, nil
}

// GetAllAnalysisRuns retrieves all runs from the store, oldest first.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	query := fmt.Sprintf(`SELECT analysis_id, start_time, end_time, run_duration_ms, source_path, bucket_mode,
		lines_read, lines_matched, lines_skipped, bucket_count, config_params
		FROM %s ORDER BY analysis_id`, quotedTableName)

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord

	for rows.Next() {
		var record schema.AnalysisRunRecord
		counters := []any{
			&record.SourcePath, &record.BucketMode,
			&record.LinesRead, &record.LinesMatched, &record.LinesSkipped, &record.BucketCount,
			&record.ConfigParams,
		}

		switch as.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			dest := append([]any{&record.AnalysisID, &startTimeStr, &endTimeStr, &record.RunDurationMs}, counters...)
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			dest := append([]any{&record.AnalysisID, &record.StartTime, &record.EndTime, &record.RunDurationMs}, counters...)
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return results, nil
}

// scanTime reads a single time column, which SQLite stores as RFC3339 text.
func (as *AnalysisStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if as.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}
