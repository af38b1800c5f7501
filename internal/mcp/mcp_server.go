// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/qpsplot/qpsplot/internal/contract"
)

// NewMCPServer initializes and configures the qpsplot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"qpsplot Access Log Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_series ---
	s.AddTool(mcp.NewTool("get_series",
		mcp.WithDescription("Count requests in an access log per hour or per minute."),
		mcp.WithString("log_path", mcp.Description("Path to the access log file."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Bucket granularity (hour, minute). Defaults to 'hour'."), mcp.Enum("hour", "minute")),
	), h.handleGetSeries)

	// --- 2. Tool: get_window ---
	s.AddTool(mcp.NewTool("get_window",
		mcp.WithDescription("Merge the per-minute request counts of an access log into fixed windows over a time-of-day range."),
		mcp.WithString("log_path", mcp.Description("Path to the access log file."), mcp.Required()),
		mcp.WithNumber("window", mcp.Description("Window size in minutes. Defaults to 10.")),
		mcp.WithString("start", mcp.Description("Inclusive range start as HH:MM. Defaults to 06:00.")),
		mcp.WithString("end", mcp.Description("Inclusive range end as HH:MM. Defaults to 18:30.")),
		mcp.WithString("strategy", mcp.Description("Window grouping (positional, time). Defaults to 'positional'."), mcp.Enum("positional", "time")),
	), h.handleGetWindow)

	return s
}

// StartMCPServer starts the qpsplot MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
