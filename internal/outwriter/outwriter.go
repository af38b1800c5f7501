// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.SeriesRenderer = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSeries prints an hourly or minute series using the configured output format.
func (ow *OutWriter) WriteSeries(result *schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	return PrintSeriesResults(result, cfg, duration)
}

// WriteWindow prints a window merge using the configured output format.
func (ow *OutWriter) WriteWindow(result *schema.WindowResult, cfg *contract.Config, duration time.Duration) error {
	return PrintWindowResults(result, cfg, duration)
}
