package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/iocache"
	mcp_internal "github.com/qpsplot/qpsplot/internal/mcp"
	"github.com/qpsplot/qpsplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const accessLog = `10.0.0.1 - - [17/May/2024:06:00:05 +0000] "GET / HTTP/1.1" 200 612 "-" "curl/8.0"
10.0.0.2 - - [17/May/2024:06:00:40 +0000] "GET / HTTP/1.1" 200 612 "-" "curl/8.0"
10.0.0.3 - - [17/May/2024:06:01:10 +0000] "GET / HTTP/1.1" 200 612 "-" "curl/8.0"
10.0.0.4 - - [17/May/2024:06:11:00 +0000] "GET / HTTP/1.1" 200 612 "-" "curl/8.0"
not an access log line
10.0.0.5 - - [17/May/2024:07:30:00 +0000] "GET / HTTP/1.1" 200 612 "-" "curl/8.0"
`

func writeAccessLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(accessLog), 0o644))
	return path
}

func callTool(t *testing.T, ctx context.Context, mgr contract.StoreManager, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(&contract.Config{BucketMode: schema.HourMode}, mgr)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func untracked() *iocache.MockStoreManager {
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetAnalysisStore").Return(nil)
	return mgr
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	logPath := writeAccessLog(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{"get_series missing log_path", "get_series", map[string]any{}, "log_path is required"},
		{"get_series missing file", "get_series", map[string]any{"log_path": filepath.Join(t.TempDir(), "nope.log")}, "log file does not exist"},
		{"get_series directory", "get_series", map[string]any{"log_path": t.TempDir()}, "log path is a directory"},
		{"get_series invalid mode", "get_series", map[string]any{"log_path": logPath, "mode": "second"}, "unknown mode"},
		{"get_window missing log_path", "get_window", map[string]any{"window": 10.0}, "log_path is required"},
		{"get_window negative size", "get_window", map[string]any{"log_path": logPath, "window": -5.0}, "size must be at least 1"},
		{"get_window bad start", "get_window", map[string]any{"log_path": logPath, "start": "6:00"}, "start \"6:00\" is not HH:MM"},
		{"get_window reversed range", "get_window", map[string]any{"log_path": logPath, "start": "18:00", "end": "06:00"}, "is after end"},
		{"get_window unknown strategy", "get_window", map[string]any{"log_path": logPath, "strategy": "rolling"}, "unknown strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation failures never reach the store
			mgr := &iocache.MockStoreManager{}
			res := callTool(t, ctx, mgr, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.contains)
			mgr.AssertNotCalled(t, "GetAnalysisStore")
		})
	}
}

func TestMCPServerGetSeries(t *testing.T) {
	logPath := writeAccessLog(t)

	t.Run("default hour mode", func(t *testing.T) {
		res := callTool(t, context.Background(), untracked(), "get_series", map[string]any{"log_path": logPath})
		require.False(t, res.IsError, resultText(t, res))

		var result schema.SeriesResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, schema.HourMode, result.Mode)
		assert.Equal(t, []schema.Bucket{
			{Label: "17/May/2024:06", Count: 4},
			{Label: "17/May/2024:07", Count: 1},
		}, result.Buckets)
		assert.Equal(t, schema.AggregateStats{LinesRead: 6, LinesMatched: 5, LinesSkipped: 1}, result.Stats)
	})

	t.Run("minute mode", func(t *testing.T) {
		res := callTool(t, context.Background(), untracked(), "get_series", map[string]any{"log_path": logPath, "mode": "minute"})
		require.False(t, res.IsError, resultText(t, res))

		var result schema.SeriesResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, schema.MinuteMode, result.Mode)
		require.Len(t, result.Buckets, 4)
		assert.Equal(t, schema.Bucket{Label: "17/May/2024:06:00", Count: 2}, result.Buckets[0])
	})

	t.Run("run is tracked", func(t *testing.T) {
		store := &iocache.MockAnalysisStore{}
		store.On("BeginAnalysis", mock.AnythingOfType("time.Time"), logPath, schema.HourMode, mock.Anything).Return(int64(3), nil)
		store.On("EndAnalysis", int64(3), mock.AnythingOfType("time.Time"), schema.RunSummary{
			LinesRead: 6, LinesMatched: 5, LinesSkipped: 1, BucketCount: 2,
		}).Return(nil)
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetAnalysisStore").Return(store)

		res := callTool(t, context.Background(), mgr, "get_series", map[string]any{"log_path": logPath})
		require.False(t, res.IsError, resultText(t, res))
		store.AssertExpectations(t)
	})
}

func TestMCPServerGetWindow(t *testing.T) {
	logPath := writeAccessLog(t)

	t.Run("defaults", func(t *testing.T) {
		res := callTool(t, context.Background(), untracked(), "get_window", map[string]any{"log_path": logPath})
		require.False(t, res.IsError, resultText(t, res))

		var result schema.WindowResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, 10, result.Window)
		assert.Equal(t, "06:00", result.Start)
		assert.Equal(t, "18:30", result.End)
		assert.Equal(t, schema.PositionalStrategy, result.Strategy)
		// Minute buckets 06:00, 06:01, 06:11, 07:30 sit at positions 0-3; only position 0 starts a window
		assert.Equal(t, []schema.Bucket{{Label: "17/May/2024:06:00", Count: 5}}, result.Points)
	})

	t.Run("time strategy", func(t *testing.T) {
		res := callTool(t, context.Background(), untracked(), "get_window", map[string]any{
			"log_path": logPath,
			"window":   10.0,
			"strategy": "time",
		})
		require.False(t, res.IsError, resultText(t, res))

		var result schema.WindowResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, schema.TimeStrategy, result.Strategy)
		assert.Equal(t, []schema.Bucket{
			{Label: "17/May/2024:06:00", Count: 3},
			{Label: "17/May/2024:06:11", Count: 1},
			{Label: "17/May/2024:07:30", Count: 1},
		}, result.Points)
	})

	t.Run("empty range returns an empty list", func(t *testing.T) {
		res := callTool(t, context.Background(), untracked(), "get_window", map[string]any{
			"log_path": logPath,
			"start":    "20:00",
			"end":      "21:00",
		})
		require.False(t, res.IsError, resultText(t, res))
		assert.True(t, strings.Contains(resultText(t, res), `"points": []`))
	})
}

func TestMCPServerDoesNotMutateBaseConfig(t *testing.T) {
	logPath := writeAccessLog(t)
	base := &contract.Config{BucketMode: schema.HourMode}
	s := mcp_internal.NewMCPServer(base, untracked())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.GetTool("get_window").Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "get_window", Arguments: map[string]any{"log_path": logPath, "window": 5.0}},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Empty(t, base.LogPath)
	assert.Zero(t, base.Window)
}
