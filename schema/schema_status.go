package schema

import "time"

// AnalysisStatus represents the status of the analysis store.
type AnalysisStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	TotalRuns         int              `json:"total_runs"`
	LastRunID         int64            `json:"last_run_id"`
	LastRunTime       time.Time        `json:"last_run_time"`
	OldestRunTime     time.Time        `json:"oldest_run_time"`
	TotalLinesMatched int64            `json:"total_lines_matched"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}
