package iocache

import (
	"errors"
	"fmt"

	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/parquet"
)

// ErrNoAnalysisData is returned when there is nothing to export.
var ErrNoAnalysisData = errors.New("no analysis data found to export")

// ExecuteAnalysisExport exports the run history of the global store to a Parquet file.
func ExecuteAnalysisExport(outputFile string) error {
	_, err := ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
	return err
}

// ExportAnalysis writes every stored run to <outputFile>.analysis_runs.parquet
// and returns the path that was written.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) (string, error) {
	if outputFile == "" {
		return "", errors.New("--output-file is required for export command")
	}
	if store == nil {
		return "", errors.New("analysis tracking is disabled. Set --analysis-backend to export runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return "", fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return "", ErrNoAnalysisData
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}

	parquetAnalysisRuns := parquet.ConvertAnalysisRunRecords(analysisRuns)
	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquetAnalysisRuns, analysisRunsFile); err != nil {
		return "", fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(parquetAnalysisRuns), analysisRunsFile)

	return analysisRunsFile, nil
}
