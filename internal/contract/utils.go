package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Bar colors by relative load of a bucket against the busiest bucket.
var (
	PeakColor   = color.New(color.FgRed, color.Bold) // PeakColor marks the busiest buckets.
	BusyColor   = color.New(color.FgYellow)          // BusyColor marks buckets above half of the peak.
	NormalColor = color.New(color.FgCyan)            // NormalColor marks everything else.
)

// GetLoadColor returns the bar color for a bucket count given the peak count of the series.
func GetLoadColor(count, peak int) *color.Color {
	if peak <= 0 {
		return NormalColor
	}
	ratio := float64(count) / float64(peak)
	switch {
	case ratio >= 0.9:
		return PeakColor
	case ratio >= 0.5:
		return BusyColor
	default:
		return NormalColor
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means standard output.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".qpsplot_analysis.db"
	}
	return filepath.Join(homeDir, ".qpsplot_analysis.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
