// Package parquet provides data structures and functions for exporting qpsplot
// series and run metadata to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/qpsplot/qpsplot/schema"
)

// AnalysisRun represents a single qpsplot run with metadata.
// This struct maps to the qpsplot_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	SourcePath   string `parquet:"source_path,snappy"`
	BucketMode   string `parquet:"bucket_mode,snappy,dict"`
	LinesRead    int64  `parquet:"lines_read,snappy"`
	LinesMatched int64  `parquet:"lines_matched,snappy"`
	LinesSkipped int64  `parquet:"lines_skipped,snappy"`
	BucketCount  int64  `parquet:"bucket_count,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SeriesPoint is one bucket of a rendered series.
type SeriesPoint struct {
	Source string `parquet:"source,snappy,dict"`
	Mode   string `parquet:"mode,snappy,dict"`
	Label  string `parquet:"label,snappy"`
	Count  int64  `parquet:"count,snappy"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteSeriesParquet writes series points to a Parquet file.
func WriteSeriesParquet(data []SeriesPoint, outputPath string) error {
	return writeFile(data, outputPath)
}

// writeFile creates outputPath and writes rows with a schema inferred from T.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeRows streams rows to w and finalizes the Parquet footer.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			SourcePath:    record.SourcePath,
			BucketMode:    record.BucketMode,
			LinesRead:     record.LinesRead,
			LinesMatched:  record.LinesMatched,
			LinesSkipped:  record.LinesSkipped,
			BucketCount:   record.BucketCount,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSeries converts a series into Parquet rows, one per bucket.
func ConvertSeries(result *schema.SeriesResult) []SeriesPoint {
	points := make([]SeriesPoint, len(result.Buckets))
	for i, b := range result.Buckets {
		points[i] = SeriesPoint{
			Source: result.Source,
			Mode:   string(result.Mode),
			Label:  string(b.Label),
			Count:  int64(b.Count),
		}
	}
	return points
}
