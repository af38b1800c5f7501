package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/qpsplot/qpsplot/core/agg"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
)

// headerOut receives the header lines of a run.
var headerOut io.Writer = os.Stderr

// runAggregation aggregates the configured log file in the given mode, printing
// the header lines around it unless the context suppresses them.
func runAggregation(ctx context.Context, cfg *contract.Config, mode schema.BucketMode) (*schema.SeriesResult, error) {
	suppress := shouldSuppressHeader(ctx)
	if !suppress {
		logRunHeader(cfg, mode)
	}

	result, err := agg.AggregateFile(ctx, cfg.LogPath, mode)
	if err != nil {
		return nil, err
	}

	if !suppress {
		logMatchSummary(cfg, result.Stats)
	}
	return result, nil
}

// beginTracking records the start of a run when an analysis store is configured.
// The returned context carries the run ID for finishTracking.
func beginTracking(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, mode schema.BucketMode, params map[string]any) context.Context {
	store := mgr.GetAnalysisStore()
	if store == nil {
		return ctx
	}

	configParams := map[string]any{
		"mode":         string(mode),
		"output":       string(cfg.Output),
		"result_limit": cfg.ResultLimit,
	}
	for k, v := range params {
		configParams[k] = v
	}

	analysisID, err := store.BeginAnalysis(time.Now(), cfg.LogPath, mode, configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return ctx
	}
	return withAnalysisID(ctx, analysisID)
}

// finishTracking closes the run record opened by beginTracking.
// Failed runs are closed too, with whatever stats were gathered before the failure.
func finishTracking(ctx context.Context, mgr contract.StoreManager, stats schema.AggregateStats, bucketCount int) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok {
		return
	}
	store := mgr.GetAnalysisStore()
	if store == nil {
		return
	}
	summary := schema.RunSummary{
		LinesRead:    stats.LinesRead,
		LinesMatched: stats.LinesMatched,
		LinesSkipped: stats.LinesSkipped,
		BucketCount:  bucketCount,
	}
	if err := store.EndAnalysis(analysisID, time.Now(), summary); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logRunHeader prints which file is read and in which mode.
func logRunHeader(cfg *contract.Config, mode schema.BucketMode) {
	logName := filepath.Base(cfg.LogPath)
	if cfg.UseEmojis {
		_, _ = fmt.Fprintf(headerOut, "🔎 Log: %s (Mode: %s)\n", logName, mode)
		return
	}
	_, _ = fmt.Fprintf(headerOut, "Log: %s (Mode: %s)\n", logName, mode)
}

// logMatchSummary prints how many lines matched the access-log format.
func logMatchSummary(cfg *contract.Config, stats schema.AggregateStats) {
	prefix := ""
	if cfg.UseEmojis {
		prefix = "📊 "
	}
	_, _ = fmt.Fprintf(headerOut, "%sMatched %d of %d lines (%d skipped)\n",
		prefix, stats.LinesMatched, stats.LinesRead, stats.LinesSkipped)
}
