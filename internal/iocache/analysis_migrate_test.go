package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/qpsplot/qpsplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schemaVersion reads the migration version recorded in a SQLite database file.
func schemaVersion(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var version int
	err = db.QueryRow("SELECT version FROM " + migrationsTable + " LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0
	}
	require.NoError(t, err)
	return version
}

// indexExists reports whether the start_time index is present in a SQLite database file.
func indexExists(t *testing.T, dbPath string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_qpsplot_analysis_runs_start_time'`).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	assert.Equal(t, 2, schemaVersion(t, dbPath))
	assert.True(t, indexExists(t, dbPath))

	// Second run is a no-op
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	assert.Equal(t, 2, schemaVersion(t, dbPath))

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 1))
	assert.Equal(t, 1, schemaVersion(t, dbPath))
	assert.False(t, indexExists(t, dbPath))

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))
	assert.Equal(t, 0, schemaVersion(t, dbPath))

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 2))
	assert.Equal(t, 2, schemaVersion(t, dbPath))
}

func TestMigrateAnalysis_StoreCompatible(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "compat.db")

	// A store created before migrating keeps working after the migration runs
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))

	store, err = NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.BeginAnalysis(time.Now(), "access.log", schema.HourMode, nil)
	assert.NoError(t, err)
}

func TestMigrateAnalysis_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, ":memory:", -1))
}
