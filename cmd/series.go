package cmd

import (
	"github.com/qpsplot/qpsplot/core"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/spf13/cobra"
)

// seriesCmd counts requests per hour or per minute.
var seriesCmd = &cobra.Command{
	Use:   "series <log-file>",
	Short: "Count requests per hour or per minute.",
	Long: `Read an access log and count matching requests per time bucket.

Lines whose timestamp cannot be parsed are skipped and reported in the summary.
Buckets are sorted by their DD/Mon/YYYY:HH[:MM] key, which is chronological within a month.

Examples:
  # Requests per hour
  qpsplot series /var/log/nginx/access.log

  # Requests per minute as CSV
  qpsplot series access.log --mode minute --output csv --output-file qps.csv

  # Columnar export for DuckDB or pandas
  qpsplot series access.log --mode minute --output parquet --output-file qps.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeries(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run series analysis", err)
		}
	},
}
