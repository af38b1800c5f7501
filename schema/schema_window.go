package schema

// WindowResult holds the re-bucketed minute series produced by a window merge.
type WindowResult struct {
	Source   string         `json:"source"`
	Window   int            `json:"window"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Strategy WindowStrategy `json:"strategy"`
	Points   []Bucket       `json:"points"`
	Stats    AggregateStats `json:"stats"`
}

// Series returns the window points as a series so the same renderers can draw it.
func (w WindowResult) Series() SeriesResult {
	return SeriesResult{
		Source:  w.Source,
		Mode:    MinuteMode,
		Buckets: w.Points,
		Stats:   w.Stats,
	}
}
