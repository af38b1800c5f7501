package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	return contract.GetAnalysisDBFilePath()
}

// InitStores initializes the global manager.
// An empty analysisBackend leaves run tracking disabled.
func InitStores(analysisBackend schema.DatabaseBackend, analysisConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		if analysisBackend == "" {
			return
		}
		analysisStore, err := NewAnalysisStore(analysisBackend, analysisConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize analysis store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.analysis = analysisStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.analysis != nil {
			_ = Manager.analysis.Close()
		}
	})
}

// ClearAnalysis clears the analysis data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the analysis tables.
// For NoneBackend, it does nothing.
func ClearAnalysis(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, analysisTables...)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, analysisTables...)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported analysis backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(driverName, connStr string, tableNames ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, tableName := range tableNames {
		if err := validateTableName(tableName); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", tableName, err)
		}
	}

	return nil
}
