package parquet

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/qpsplot/qpsplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads every row of a Parquet file written with schema T.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	return rows[:n]
}

func sampleRuns() []AnalysisRun {
	now := time.Now()
	start := now.Add(-2 * time.Minute)
	durationMs := now.Sub(start).Milliseconds()
	params := `{"mode":"minute","window":10}`

	return []AnalysisRun{
		{
			AnalysisID:    1,
			StartTime:     start,
			EndTime:       &now,
			RunDurationMs: &durationMs,
			SourcePath:    "/var/log/nginx/access.log",
			BucketMode:    "minute",
			LinesRead:     1200,
			LinesMatched:  1180,
			LinesSkipped:  20,
			BucketCount:   720,
			ConfigParams:  &params,
		},
		{
			AnalysisID: 2,
			StartTime:  now,
			SourcePath: "/var/log/nginx/access.log.1",
			BucketMode: "hour",
		},
	}
}

func TestAnalysisRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(AnalysisRun))
	require.NotNil(t, s)

	expectedColumns := []string{
		"analysis_id",
		"start_time",
		"end_time",
		"run_duration_ms",
		"source_path",
		"bucket_mode",
		"lines_read",
		"lines_matched",
		"lines_skipped",
		"bucket_count",
		"config_params",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestSeriesPointStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(SeriesPoint))
	for _, colName := range []string{"source", "mode", "label", "count"} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteAnalysisRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "analysis_runs.parquet")
	data := sampleRuns()

	require.NoError(t, WriteAnalysisRunsParquet(data, outputPath))

	readData := readAll[AnalysisRun](t, outputPath)
	require.Len(t, readData, len(data))

	for i := range data {
		assert.Equal(t, data[i].AnalysisID, readData[i].AnalysisID)
		assert.Equal(t, data[i].SourcePath, readData[i].SourcePath)
		assert.Equal(t, data[i].BucketMode, readData[i].BucketMode)
		assert.Equal(t, data[i].LinesMatched, readData[i].LinesMatched)
		assert.Equal(t, data[i].BucketCount, readData[i].BucketCount)
		assert.WithinDuration(t, data[i].StartTime, readData[i].StartTime, time.Microsecond)
	}

	require.NotNil(t, readData[0].EndTime)
	require.NotNil(t, readData[0].RunDurationMs)
	require.NotNil(t, readData[0].ConfigParams)
	assert.Equal(t, *data[0].ConfigParams, *readData[0].ConfigParams)

	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].ConfigParams)
}

func TestWriteSeriesParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "series.parquet")
	result := &schema.SeriesResult{
		Source: "access.log",
		Mode:   schema.MinuteMode,
		Buckets: []schema.Bucket{
			{Label: "17/May/2024:14:35", Count: 3},
			{Label: "17/May/2024:14:36", Count: 2},
		},
	}

	require.NoError(t, WriteSeriesParquet(ConvertSeries(result), outputPath))

	readData := readAll[SeriesPoint](t, outputPath)
	assert.Equal(t, []SeriesPoint{
		{Source: "access.log", Mode: "minute", Label: "17/May/2024:14:35", Count: 3},
		{Source: "access.log", Mode: "minute", Label: "17/May/2024:14:36", Count: 2},
	}, readData)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	tmpDir := t.TempDir()

	runsPath := filepath.Join(tmpDir, "empty_runs.parquet")
	require.NoError(t, WriteAnalysisRunsParquet([]AnalysisRun{}, runsPath))

	seriesPath := filepath.Join(tmpDir, "empty_series.parquet")
	require.NoError(t, WriteSeriesParquet(ConvertSeries(&schema.SeriesResult{}), seriesPath))

	for _, path := range []string{runsPath, seriesPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), "file should contain a schema even if empty")
	}
	assert.Empty(t, readAll[SeriesPoint](t, seriesPath))
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteAnalysisRunsParquet(sampleRuns(), "/nonexistent/directory/output.parquet")
	assert.Error(t, err)

	err = WriteSeriesParquet(nil, "/nonexistent/directory/output.parquet")
	assert.Error(t, err)
}

func TestConvertAnalysisRunRecords(t *testing.T) {
	end := time.Date(2024, 5, 17, 14, 40, 0, 0, time.UTC)
	duration := int64(1500)
	records := []schema.AnalysisRunRecord{{
		AnalysisID:    7,
		StartTime:     end.Add(-1500 * time.Millisecond),
		EndTime:       &end,
		RunDurationMs: &duration,
		SourcePath:    "access.log",
		BucketMode:    "hour",
		LinesRead:     10,
		LinesMatched:  8,
		LinesSkipped:  2,
		BucketCount:   3,
	}}

	runs := ConvertAnalysisRunRecords(records)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].AnalysisID)
	assert.Equal(t, &end, runs[0].EndTime)
	assert.Equal(t, "hour", runs[0].BucketMode)
	assert.Equal(t, int64(8), runs[0].LinesMatched)
	assert.Equal(t, int64(2), runs[0].LinesSkipped)
	assert.Nil(t, runs[0].ConfigParams)

	assert.Empty(t, ConvertAnalysisRunRecords(nil))
}

func TestWriteAnalysisRunsParquet_LargeCounters(t *testing.T) {
	records := []schema.AnalysisRunRecord{{
		AnalysisID:   9,
		StartTime:    time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
		SourcePath:   "huge.log",
		BucketMode:   "minute",
		LinesRead:    math.MaxInt32 + 10,
		LinesMatched: math.MaxInt32 + 7,
		LinesSkipped: 3,
		BucketCount:  1440,
	}}

	outputPath := filepath.Join(t.TempDir(), "large.parquet")
	require.NoError(t, WriteAnalysisRunsParquet(ConvertAnalysisRunRecords(records), outputPath))

	rows := readAll[AnalysisRun](t, outputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(math.MaxInt32+10), rows[0].LinesRead)
	assert.Equal(t, int64(math.MaxInt32+7), rows[0].LinesMatched)
	assert.Equal(t, int64(3), rows[0].LinesSkipped)
	assert.Equal(t, int64(1440), rows[0].BucketCount)
}
