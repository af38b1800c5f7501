//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestQpsplotWithMySQL tests run tracking against a MySQL backend.
func TestQpsplotWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "qpsplot",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/qpsplot", host, port.Port())
	runTrackingScenario(t, []string{
		"QPSPLOT_ANALYSIS_BACKEND=mysql",
		"QPSPLOT_ANALYSIS_DB_CONNECT=" + connStr,
	})
}

// TestQpsplotWithPostgres tests run tracking against a PostgreSQL backend.
func TestQpsplotWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runTrackingScenario(t, []string{
		"QPSPLOT_ANALYSIS_BACKEND=postgresql",
		"QPSPLOT_ANALYSIS_DB_CONNECT=" + connStr,
	})
}

// runTrackingScenario clears the store, migrates it, records two runs and exports them.
func runTrackingScenario(t *testing.T, env []string) {
	t.Helper()
	logPath := fixtureLog(t)

	_, err := runQpsplot(t, env, "analysis", "clear")
	require.NoError(t, err)

	_, err = runQpsplot(t, env, "analysis", "migrate")
	require.NoError(t, err)

	_, err = runQpsplot(t, env, "series", logPath, "--mode", "minute", "--output", "json")
	require.NoError(t, err)

	_, err = runQpsplot(t, env, "window", logPath, "--output", "csv")
	require.NoError(t, err)

	out, err := runQpsplot(t, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")
	assert.Contains(t, out, "Total Lines Matched: 156")

	_, err = runQpsplot(t, env, "analysis", "export", "--output-file", t.TempDir()+"/runs")
	require.NoError(t, err)

	// Roll back and forward again to exercise both directions
	_, err = runQpsplot(t, env, "analysis", "migrate", "--target-version", "1")
	require.NoError(t, err)
	_, err = runQpsplot(t, env, "analysis", "migrate")
	require.NoError(t, err)

	_, err = runQpsplot(t, env, "analysis", "clear")
	require.NoError(t, err)
}
