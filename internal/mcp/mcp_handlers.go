package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/qpsplot/qpsplot/core"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// resolveRequestConfig clones the base config and points it at the requested log file.
func (h *toolHandler) resolveRequestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	logPath := request.GetString("log_path", "")
	if logPath == "" {
		return nil, fmt.Errorf("log_path is required")
	}
	resolved, err := contract.ResolveLogPath(logPath)
	if err != nil {
		return nil, err
	}
	cfg.LogPath = resolved
	return cfg, nil
}

func (h *toolHandler) handleGetSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.resolveRequestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series parameters: %v", err)), nil
	}
	if m := request.GetString("mode", ""); m != "" {
		cfg.BucketMode = schema.BucketMode(strings.ToLower(m))
	}
	if cfg.BucketMode == "" {
		cfg.BucketMode = schema.HourMode
	}
	if _, ok := schema.ValidBucketModes[cfg.BucketMode]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series parameters: unknown mode %q", cfg.BucketMode)), nil
	}

	result, _, err := core.GetSeriesResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("series analysis failed: %v", err)), nil
	}
	if result.Buckets == nil {
		result.Buckets = []schema.Bucket{}
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.resolveRequestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid window parameters: %v", err)), nil
	}
	if cfg.Window == 0 {
		cfg.Window = contract.DefaultWindowSize
	}
	if cfg.WindowStart == "" {
		cfg.WindowStart = contract.DefaultWindowStart
	}
	if cfg.WindowEnd == "" {
		cfg.WindowEnd = contract.DefaultWindowEnd
	}
	if n := request.GetInt("window", 0); n != 0 {
		cfg.Window = n
	}
	if s := request.GetString("start", ""); s != "" {
		cfg.WindowStart = s
	}
	if e := request.GetString("end", ""); e != "" {
		cfg.WindowEnd = e
	}
	if s := request.GetString("strategy", ""); s != "" {
		cfg.WindowStrategy = schema.WindowStrategy(strings.ToLower(s))
	}

	if _, _, err := cfg.WindowOptions().Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid window parameters: %v", err)), nil
	}

	result, _, err := core.GetWindowResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("window merge failed: %v", err)), nil
	}
	if result.Points == nil {
		result.Points = []schema.Bucket{}
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
