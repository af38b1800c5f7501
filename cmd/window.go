package cmd

import (
	"github.com/qpsplot/qpsplot/core"
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/spf13/cobra"
)

// windowCmd merges minute counts into fixed windows over a time-of-day range.
var windowCmd = &cobra.Command{
	Use:   "window <log-file>",
	Short: "Merge per-minute counts into fixed windows.",
	Long: `Count requests per minute and merge the counts into windows within a time-of-day range.

Strategies:
  positional - every --window consecutive minute buckets form a window (default)
  time       - windows cover --window minutes of clock time, so quiet minutes do not shift them

Examples:
  # 10-minute windows between 06:00 and 18:30
  qpsplot window access.log

  # Quarter-hour windows over business hours, aligned to the clock
  qpsplot window access.log --window 15 --start 09:00 --end 17:00 --strategy time`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWindow(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run window merge", err)
		}
	},
}
