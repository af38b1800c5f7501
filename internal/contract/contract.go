// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/qpsplot/qpsplot/schema"
)

// StoreManager defines the interface for managing persistence stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetAnalysisStore() AnalysisStore
}

// AnalysisStore defines the interface for tracking runs.
// Only run metadata and counters are stored, never bucket contents.
type AnalysisStore interface {
	// BeginAnalysis creates a new run record and returns its unique ID
	BeginAnalysis(startTime time.Time, sourcePath string, mode schema.BucketMode, configParams map[string]any) (int64, error)

	// EndAnalysis updates the run record with completion data
	EndAnalysis(analysisID int64, endTime time.Time, summary schema.RunSummary) error

	// GetAllAnalysisRuns returns every stored run, oldest first
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// Close closes the underlying connection
	Close() error
}

// SeriesRenderer draws aggregated results in the configured output format.
type SeriesRenderer interface {
	WriteSeries(result *schema.SeriesResult, cfg *Config, duration time.Duration) error
	WriteWindow(result *schema.WindowResult, cfg *Config, duration time.Duration) error
}
