// Package main provides a performance benchmarking tool for the qpsplot CLI.
// It generates synthetic access logs of increasing size, runs each command several times
// with and without run tracking, treating the first tracked run as cold and averaging the rest as warm,
// and writes a CSV for performance analysis and documentation.
//
// Prerequisites:
// - qpsplot binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where generated logs and the tracking database are written
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (untracked average, cold run and average of warm runs).
type BenchmarkResult struct {
	LogSize     string
	Command     string
	UntrackTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	UntrackRuns  int
	TrackedRuns  int
	LogSizes     map[string]int
	LogSizeOrder []string
	Commands     map[string][]string
	CommandOrder []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      5 * time.Minute,
		UntrackRuns:  3,
		TrackedRuns:  4,
		LogSizes:     map[string]int{"10k": 10_000, "100k": 100_000, "1m": 1_000_000},
		LogSizeOrder: []string{"10k", "100k", "1m"},
		Commands: map[string][]string{
			"series-hour":   {"series", "--mode", "hour"},
			"series-minute": {"series", "--mode", "minute"},
			"window":        {"window"},
			"window-time":   {"window", "--strategy", "time"},
		},
		CommandOrder: []string{"series-hour", "series-minute", "window", "window-time"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	logs, err := generateLogs(config)
	if err != nil {
		fmt.Printf("Failed to generate logs: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, logs)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the qpsplot binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("qpsplot"); err != nil {
		return errors.New("qpsplot binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateLogs writes one synthetic access log per configured size and returns their paths
func generateLogs(config BenchmarkConfig) (map[string]string, error) {
	logs := make(map[string]string, len(config.LogSizes))
	for _, name := range config.LogSizeOrder {
		path := filepath.Join(config.WorkDir, fmt.Sprintf("access_%s.log", name))
		if err := writeSyntheticLog(path, config.LogSizes[name]); err != nil {
			return nil, err
		}
		logs[name] = path
	}
	return logs, nil
}

// writeSyntheticLog spreads lines evenly over one day, with every 50th line malformed
func writeSyntheticLog(path string, lines int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)

	day := time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC)
	step := 24 * time.Hour / time.Duration(lines)
	for i := range lines {
		if i%50 == 49 {
			_, _ = fmt.Fprintln(w, "malformed line without a timestamp")
			continue
		}
		ts := day.Add(time.Duration(i) * step).Format("02/Jan/2006:15:04:05 -0700")
		_, _ = fmt.Fprintf(w, "10.0.%d.%d - - [%s] \"GET /items/%d HTTP/1.1\" 200 %d \"-\" \"bench/1.0\"\n",
			i/250%250, i%250+1, ts, i, 256+i%1024)
	}

	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// runBenchmarks executes all benchmark commands across generated logs
func runBenchmarks(config BenchmarkConfig, logs map[string]string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d logs, %v timeout, untracked: %d runs, tracked: %d runs\n",
		len(logs), config.Timeout, config.UntrackRuns, config.TrackedRuns)

	for _, size := range config.LogSizeOrder {
		fmt.Printf("Benchmarking %s log\n", size)
		for _, name := range config.CommandOrder {
			results = append(results, runBenchmarkSuite(config, size, logs[size], name))
		}
	}

	return results
}

// runBenchmarkSuite runs both untracked and tracked benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, size, logPath, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s log\n", command, size)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, logPath, config.Commands[command], backend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, untrackedAvg := runPhase("none", config.UntrackRuns, "Untracked")
	coldTime, warmAvg := runPhase("sqlite", config.TrackedRuns, "Tracked")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Untracked average: %s, Cold time: %s, Warm average: %s\n", untrackedAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		LogSize:     size,
		Command:     command,
		UntrackTime: untrackedAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a qpsplot command multiple times with the given tracking backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, logPath string, command []string, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, command[0], logPath)
	args = append(args, command[1:]...)
	args = append(args, "--output", "csv", "--analysis-backend", backend)
	if backend == "sqlite" {
		args = append(args, "--analysis-db-connect", filepath.Join(config.WorkDir, "bench_runs.db"))
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "qpsplot", args...).Output()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output is a CSV with a header and at least one bucket
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.HasPrefix(outputStr, "label,count\n") && strings.Count(outputStr, "\n") > 1
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/qpsplot_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"log", "cmd", "untracked_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.LogSize, result.Command, result.UntrackTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.CommandOrder {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-6s: Untracked: %s, Cold: %s, Warm: %s\n", result.LogSize, result.UntrackTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
