// Package agg has aggregation logic for access-log request counts.
package agg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/qpsplot/qpsplot/core/parse"
	"github.com/qpsplot/qpsplot/schema"
)

// maxLineSize bounds one kept line. Longer lines are drained and counted as skipped.
const maxLineSize = 1 << 20

// ErrInvalidMode is returned when the bucket mode is neither hour nor minute.
var ErrInvalidMode = errors.New("invalid bucket mode")

// Aggregate reads every line from r and counts requests per bucket key.
// Lines that do not parse are skipped and only show up in the stats.
// Buckets come back sorted ascending by key; an empty input yields an empty series.
func Aggregate(ctx context.Context, r io.Reader, mode schema.BucketMode) (*schema.SeriesResult, error) {
	if _, ok := schema.ValidBucketModes[mode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	counts := make(map[schema.BucketKey]int)
	var stats schema.AggregateStats

	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 0, 4*1024)
	for {
		line, oversized, readErr := readLine(br, buf[:0])
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("failed to read log lines: %w", readErr)
		}
		if readErr != nil && len(line) == 0 && !oversized {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf = line
		stats.LinesRead++

		var key schema.BucketKey
		ok := false
		if !oversized {
			key, ok = parse.BucketKey(string(line), mode)
		}
		if !ok {
			stats.LinesSkipped++
		} else {
			stats.LinesMatched++
			counts[key]++
		}
		if readErr != nil {
			break
		}
	}

	return &schema.SeriesResult{
		Mode:    mode,
		Buckets: sortBuckets(counts),
		Stats:   stats,
	}, nil
}

// readLine reads one line into buf without its line ending.
// A line longer than maxLineSize is read to its end and reported as oversized with no content.
// The error is io.EOF when the input ends without a trailing newline.
func readLine(br *bufio.Reader, buf []byte) (line []byte, oversized bool, err error) {
	for {
		chunk, readErr := br.ReadSlice('\n')
		if !oversized {
			if len(buf)+len(chunk) > maxLineSize+2 {
				oversized, buf = true, buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		buf = bytes.TrimSuffix(buf, []byte("\n"))
		buf = bytes.TrimSuffix(buf, []byte("\r"))
		if len(buf) > maxLineSize {
			oversized, buf = true, buf[:0]
		}
		return buf, oversized, readErr
	}
}

// AggregateFile opens path and aggregates it with Aggregate.
// The file is closed on every return path.
func AggregateFile(ctx context.Context, path string, mode schema.BucketMode) (*schema.SeriesResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	result, err := Aggregate(ctx, f, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", path, err)
	}
	result.Source = path
	return result, nil
}

// sortBuckets flattens the counter map into buckets ordered by key.
func sortBuckets(counts map[schema.BucketKey]int) []schema.Bucket {
	buckets := make([]schema.Bucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, schema.Bucket{Label: key, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// Labels returns the bucket keys of a series in order.
func Labels(buckets []schema.Bucket) []schema.BucketKey {
	labels := make([]schema.BucketKey, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	return labels
}

// Counts returns the bucket counts of a series in order.
func Counts(buckets []schema.Bucket) []int {
	counts := make([]int, len(buckets))
	for i, b := range buckets {
		counts[i] = b.Count
	}
	return counts
}
