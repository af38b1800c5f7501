// Package schema has models and constants for all parts of qpsplot.
package schema

// LogLine is the set of fields extracted from one access-log line.
// Only Timestamp feeds aggregation; the rest is parsed for completeness.
type LogLine struct {
	Timestamp  string // Date token without the timezone, e.g. 17/May/2024:14:35:05
	Method     string // HTTP method, e.g. GET
	Path       string // Request target, may be empty
	StatusCode string // Response status as written in the log
}

// BucketKey is a truncated timestamp used to group requests into a counting interval.
//
// Keys are compared as strings. That ordering matches chronological order only because
// the access-log timestamp is fixed width and zero padded (DD/Mon/YYYY:HH:MM:SS), and only
// within a single month: "01/Jun/2024" sorts before "31/May/2024". Changing the log format
// means re-checking this.
type BucketKey string

// Bucket is one (label, count) pair of a series.
type Bucket struct {
	Label BucketKey `json:"label"`
	Count int       `json:"count"`
}

// AggregateStats describes how many input lines fed an aggregation.
// LinesRead is always LinesMatched + LinesSkipped.
type AggregateStats struct {
	LinesRead    int `json:"lines_read"`
	LinesMatched int `json:"lines_matched"`
	LinesSkipped int `json:"lines_skipped"`
}

// SeriesResult is the sorted output of the time-bucket aggregator.
type SeriesResult struct {
	Source  string         `json:"source"`
	Mode    BucketMode     `json:"mode"`
	Buckets []Bucket       `json:"buckets"`
	Stats   AggregateStats `json:"stats"`
}

// Total returns the sum of all bucket counts.
func (r SeriesResult) Total() int {
	total := 0
	for _, b := range r.Buckets {
		total += b.Count
	}
	return total
}
