// Package core runs the parse, aggregate and window merge pipeline over an access log.
package core

import (
	"context"
	"time"

	"github.com/qpsplot/qpsplot/core/window"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/outwriter"
	"github.com/qpsplot/qpsplot/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// renderer draws results for the Execute entry points.
var renderer contract.SeriesRenderer = outwriter.NewOutWriter()

// ExecuteSeries aggregates the log file in the configured mode and renders the series.
// It serves as the main entry point for the 'series' command.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetSeriesResults(headerContext(ctx, cfg), cfg, mgr)
	if err != nil {
		return err
	}
	return renderer.WriteSeries(result, cfg, duration)
}

// ExecuteWindow aggregates the log file by minute, merges it into windows and renders them.
// It serves as the main entry point for the 'window' command.
func ExecuteWindow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetWindowResults(headerContext(ctx, cfg), cfg, mgr)
	if err != nil {
		return err
	}
	return renderer.WriteWindow(result, cfg, duration)
}

// GetSeriesResults returns the series without rendering it.
func GetSeriesResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.SeriesResult, time.Duration, error) {
	start := time.Now()
	ctx = beginTracking(ctx, cfg, mgr, cfg.BucketMode, nil)

	result, err := runAggregation(ctx, cfg, cfg.BucketMode)
	if err != nil {
		finishTracking(ctx, mgr, schema.AggregateStats{}, 0)
		return nil, 0, err
	}

	finishTracking(ctx, mgr, result.Stats, len(result.Buckets))
	return result, time.Since(start), nil
}

// GetWindowResults returns the window merge without rendering it.
// Window merge always works on the minute series, whatever the configured bucket mode.
func GetWindowResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.WindowResult, time.Duration, error) {
	start := time.Now()
	opts := cfg.WindowOptions()
	if opts.Strategy == "" {
		opts.Strategy = schema.PositionalStrategy
	}
	if _, _, err := opts.Validate(); err != nil {
		return nil, 0, err
	}

	ctx = beginTracking(ctx, cfg, mgr, schema.MinuteMode, map[string]any{
		"window":          opts.Size,
		"window_start":    opts.Start,
		"window_end":      opts.End,
		"window_strategy": string(opts.Strategy),
	})

	series, err := runAggregation(ctx, cfg, schema.MinuteMode)
	if err != nil {
		finishTracking(ctx, mgr, schema.AggregateStats{}, 0)
		return nil, 0, err
	}

	points, err := window.MergeSeries(series.Buckets, opts)
	if err != nil {
		finishTracking(ctx, mgr, series.Stats, 0)
		return nil, 0, err
	}

	finishTracking(ctx, mgr, series.Stats, len(points))
	return &schema.WindowResult{
		Source:   series.Source,
		Window:   opts.Size,
		Start:    opts.Start,
		End:      opts.End,
		Strategy: opts.Strategy,
		Points:   points,
		Stats:    series.Stats,
	}, time.Since(start), nil
}

// headerContext suppresses header lines for machine-readable output formats.
func headerContext(ctx context.Context, cfg *contract.Config) context.Context {
	if cfg.Output != schema.TextOut && cfg.Output != "" {
		return WithSuppressHeader(ctx)
	}
	return ctx
}
