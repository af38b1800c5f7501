package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
)

// bucketsCSVHeader is the header row of every CSV series.
var bucketsCSVHeader = []string{"label", "count"}

// writeToDestination runs write against stdout, or against outputFile when one is set.
// For files, the close error is reported and a note naming the file goes to stderr.
func writeToDestination(outputFile string, write func(io.Writer) error, what string) (err error) {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", outputFile, err)
	}
	if file == os.Stdout {
		return write(file)
	}

	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()
	if err = write(file); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", what, outputFile)
	return nil
}

// writeJSON encodes a result document with two-space indentation.
func writeJSON(w io.Writer, doc any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeBucketsCSV writes the header and one label,count row per bucket.
func writeBucketsCSV(w io.Writer, buckets []schema.Bucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bucketsCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, b := range buckets {
		if err := cw.Write([]string{string(b.Label), strconv.Itoa(b.Count)}); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", b.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
