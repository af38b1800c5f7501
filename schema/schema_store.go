package schema

import "time"

// RunSummary is what a finished run reports to the analysis store.
// It carries counters only; bucket contents are never stored.
type RunSummary struct {
	LinesRead    int
	LinesMatched int
	LinesSkipped int
	BucketCount  int
}

// AnalysisRunRecord represents a row from the qpsplot_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	SourcePath    string
	BucketMode    string
	LinesRead     int64
	LinesMatched  int64
	LinesSkipped  int64
	BucketCount   int64
	ConfigParams  *string
}
