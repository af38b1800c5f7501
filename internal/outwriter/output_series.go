package outwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/internal/parquet"
	"github.com/qpsplot/qpsplot/schema"
)

// errParquetNeedsFile is returned when Parquet output is requested for a stream.
var errParquetNeedsFile = errors.New("parquet output requires --output-file")

// seriesView is what every renderer draws, whichever result produced it.
type seriesView struct {
	Kind    string // "Series" or "Window"
	Title   string
	Source  string
	Mode    schema.BucketMode
	Buckets []schema.Bucket
	Stats   schema.AggregateStats
}

func newSeriesView(result *schema.SeriesResult) seriesView {
	return seriesView{
		Kind:    "Series",
		Title:   schema.ChartTitle(result.Mode),
		Source:  result.Source,
		Mode:    result.Mode,
		Buckets: result.Buckets,
		Stats:   result.Stats,
	}
}

func newWindowView(result *schema.WindowResult) seriesView {
	return seriesView{
		Kind:    "Window",
		Title:   fmt.Sprintf("Requests per %d-minute window (%s-%s)", result.Window, result.Start, result.End),
		Source:  result.Source,
		Mode:    schema.MinuteMode,
		Buckets: result.Points,
		Stats:   result.Stats,
	}
}

// PrintSeriesResults outputs the series, dispatching based on the output format configured.
func PrintSeriesResults(result *schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		return printParquet(newSeriesView(result), cfg.OutputFile)
	}
	return writeToDestination(cfg.OutputFile, func(w io.Writer) error {
		return WriteSeriesResults(w, result, cfg, duration)
	}, formatName(cfg.Output)+" series results")
}

// PrintWindowResults outputs the window merge, dispatching based on the output format configured.
func PrintWindowResults(result *schema.WindowResult, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		return printParquet(newWindowView(result), cfg.OutputFile)
	}
	return writeToDestination(cfg.OutputFile, func(w io.Writer) error {
		return WriteWindowResults(w, result, cfg, duration)
	}, formatName(cfg.Output)+" window results")
}

// WriteSeriesResults writes the series to w in the configured text, CSV or JSON format.
func WriteSeriesResults(w io.Writer, result *schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	doc := *result
	if doc.Buckets == nil {
		doc.Buckets = []schema.Bucket{}
	}
	return writeView(w, newSeriesView(&doc), doc, cfg, duration)
}

// WriteWindowResults writes the window merge to w in the configured text, CSV or JSON format.
func WriteWindowResults(w io.Writer, result *schema.WindowResult, cfg *contract.Config, duration time.Duration) error {
	doc := *result
	if doc.Points == nil {
		doc.Points = []schema.Bucket{}
	}
	return writeView(w, newWindowView(&doc), doc, cfg, duration)
}

// writeView renders a view, or for JSON the full result document.
func writeView(w io.Writer, view seriesView, doc any, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, doc); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeBucketsCSV(w, view.Buckets); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetNeedsFile
	default:
		if err := writeSeriesChart(w, view, cfg, duration); err != nil {
			return fmt.Errorf("error writing chart output: %w", err)
		}
	}
	return nil
}

// printParquet writes the view to a Parquet file.
func printParquet(view seriesView, outputFile string) error {
	if outputFile == "" {
		return errParquetNeedsFile
	}
	rows := parquet.ConvertSeries(&schema.SeriesResult{
		Source:  view.Source,
		Mode:    view.Mode,
		Buckets: view.Buckets,
	})
	if err := parquet.WriteSeriesParquet(rows, outputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet %s results to %s\n", strings.ToLower(view.Kind), outputFile)
	return nil
}

// writeSeriesChart prints the title, a table with one bar per bucket and a summary line.
func writeSeriesChart(w io.Writer, view seriesView, cfg *contract.Config, duration time.Duration) error {
	if len(view.Buckets) == 0 {
		_, err := fmt.Fprintf(w, "No requests matched in %s (%d lines read, %d skipped).\n",
			sourceName(view.Source), view.Stats.LinesRead, view.Stats.LinesSkipped)
		return err
	}

	shown := view.Buckets
	if cfg.ResultLimit > 0 && len(shown) > cfg.ResultLimit {
		shown = shown[:cfg.ResultLimit]
	}

	peak, total, labelWidth := 0, 0, 0
	for _, b := range view.Buckets {
		peak = max(peak, b.Count)
		total += b.Count
		labelWidth = max(labelWidth, len(b.Label))
	}
	barWidth := getMaxBarWidth(cfg.Width, labelWidth)

	title := view.Title
	if cfg.UseEmojis {
		title = "📈 " + title
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Time", "Requests", ""})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignLeft}
	})

	data := make([][]string, 0, len(shown))
	for _, b := range shown {
		data = append(data, []string{
			string(b.Label),
			strconv.Itoa(b.Count),
			renderBar(b.Count, peak, barWidth, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if hidden := len(view.Buckets) - len(shown); hidden > 0 {
		_, _ = fmt.Fprintf(w, "... %d more buckets not shown (use --limit 0 to show all)\n", hidden)
	}
	_, err := fmt.Fprintf(w, "%s completed in %v. %d requests in %d buckets, peak %d.\n",
		view.Kind, duration, total, len(view.Buckets), peak)
	return err
}

// renderBar draws a bar scaled against the peak count. Non-zero counts get at least one cell.
func renderBar(count, peak, width int, useColors bool) string {
	if peak <= 0 || count <= 0 {
		return ""
	}
	n := max(count*width/peak, 1)
	bar := strings.Repeat("█", n)
	if useColors {
		return contract.GetLoadColor(count, peak).Sprint(bar)
	}
	return bar
}

// sourceName returns the base name of the input file for messages.
func sourceName(source string) string {
	if source == "" {
		return "input"
	}
	return filepath.Base(source)
}

// formatName returns the display name of an output mode.
func formatName(mode schema.OutputMode) string {
	switch mode {
	case schema.JSONOut:
		return "JSON"
	case schema.CSVOut:
		return "CSV"
	default:
		return "text"
	}
}
