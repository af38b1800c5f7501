// Package window re-buckets a minute series into larger windows over a time-of-day range.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qpsplot/qpsplot/core/agg"
	"github.com/qpsplot/qpsplot/core/parse"
	"github.com/qpsplot/qpsplot/schema"
)

// Defaults used by the window command when nothing else is configured.
const (
	DefaultSize  = 10
	DefaultStart = "06:00"
	DefaultEnd   = "18:30"
)

// timeOfDayLayout is the strict 24h HH:MM layout of range bounds and key suffixes.
const timeOfDayLayout = "15:04"

var (
	// ErrMalformedKey is returned when a bucket key has no parseable HH:MM time of day.
	ErrMalformedKey = errors.New("malformed time-of-day key")

	// ErrInvalidWindow is returned for unusable window options or mismatched inputs.
	ErrInvalidWindow = errors.New("invalid window")
)

// Options configures a window merge.
type Options struct {
	Size     int                   // Buckets per window (positional) or minutes per window (time)
	Start    string                // Inclusive lower bound, HH:MM
	End      string                // Inclusive upper bound, HH:MM
	Strategy schema.WindowStrategy // Empty means positional
}

// DefaultOptions returns the 10-bucket positional merge over 06:00-18:30.
func DefaultOptions() Options {
	return Options{
		Size:     DefaultSize,
		Start:    DefaultStart,
		End:      DefaultEnd,
		Strategy: schema.PositionalStrategy,
	}
}

// Validate checks the options and returns the parsed range bounds.
func (o Options) Validate() (start, end time.Duration, err error) {
	if o.Size < 1 {
		return 0, 0, fmt.Errorf("%w: size must be at least 1, got %d", ErrInvalidWindow, o.Size)
	}
	if o.Strategy != "" {
		if _, ok := schema.ValidWindowStrategies[o.Strategy]; !ok {
			return 0, 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidWindow, o.Strategy)
		}
	}
	if start, err = ParseTimeOfDay(o.Start); err != nil {
		return 0, 0, fmt.Errorf("%w: start %q is not HH:MM", ErrInvalidWindow, o.Start)
	}
	if end, err = ParseTimeOfDay(o.End); err != nil {
		return 0, 0, fmt.Errorf("%w: end %q is not HH:MM", ErrInvalidWindow, o.End)
	}
	if start > end {
		return 0, 0, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, o.Start, o.End)
	}
	return start, end, nil
}

// ParseTimeOfDay parses a strict two-digit HH:MM value into the offset since midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	if len(s) != len(timeOfDayLayout) {
		return 0, fmt.Errorf("time of day %q must be HH:MM", s)
	}
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Merge sums minute buckets into windows and keeps only those inside [Start, End].
//
// The positional strategy emits (labels[i], sum(counts[i:i+Size])) for every index i that is
// a multiple of Size and whose time of day is in range. Windows are positions in the series,
// not clock intervals, so gaps in the data shift them.
//
// The time strategy groups in-range buckets by Size-minute intervals since midnight, per date,
// and labels each window with its first key.
//
// Every key must carry a parseable time of day; the first one that does not aborts the merge.
func Merge(labels []schema.BucketKey, counts []int, opts Options) ([]schema.Bucket, error) {
	if len(labels) != len(counts) {
		return nil, fmt.Errorf("%w: %d labels but %d counts", ErrInvalidWindow, len(labels), len(counts))
	}
	start, end, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	offsets := make([]time.Duration, len(labels))
	for i, label := range labels {
		tod, err := ParseTimeOfDay(parse.TimeOfDay(label))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedKey, label)
		}
		offsets[i] = tod
	}
	inRange := func(i int) bool {
		return offsets[i] >= start && offsets[i] <= end
	}

	if opts.Strategy == schema.TimeStrategy {
		return mergeByTime(labels, counts, offsets, inRange, opts.Size), nil
	}
	return mergeByPosition(labels, counts, inRange, opts.Size), nil
}

// MergeSeries runs Merge over a bucket series.
func MergeSeries(buckets []schema.Bucket, opts Options) ([]schema.Bucket, error) {
	return Merge(agg.Labels(buckets), agg.Counts(buckets), opts)
}

func mergeByPosition(labels []schema.BucketKey, counts []int, inRange func(int) bool, size int) []schema.Bucket {
	merged := make([]schema.Bucket, 0, len(labels)/size+1)
	for i := 0; i < len(labels); i += size {
		if !inRange(i) {
			continue
		}
		sum := 0
		for _, c := range counts[i:min(i+size, len(counts))] {
			sum += c
		}
		merged = append(merged, schema.Bucket{Label: labels[i], Count: sum})
	}
	return merged
}

// windowID identifies one clock-aligned window on one date.
type windowID struct {
	date  string
	index int64
}

func mergeByTime(labels []schema.BucketKey, counts []int, offsets []time.Duration, inRange func(int) bool, size int) []schema.Bucket {
	width := time.Duration(size) * time.Minute
	positions := make(map[windowID]int)
	merged := make([]schema.Bucket, 0)

	for i, label := range labels {
		if !inRange(i) {
			continue
		}
		id := windowID{
			date:  strings.TrimSuffix(string(label), parse.TimeOfDay(label)),
			index: int64(offsets[i] / width),
		}
		if pos, ok := positions[id]; ok {
			merged[pos].Count += counts[i]
			continue
		}
		positions[id] = len(merged)
		merged = append(merged, schema.Bucket{Label: label, Count: counts[i]})
	}
	return merged
}
