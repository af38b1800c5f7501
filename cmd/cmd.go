// Package cmd defines the command-line interface for qpsplot.
package cmd

import (
	"github.com/qpsplot/qpsplot/internal/contract"
	"github.com/qpsplot/qpsplot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Max buckets shown in text output (0 = all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored bars in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of seriesCmd to Viper
	seriesCmd.Flags().String("mode", string(schema.HourMode), "Bucket granularity: hour or minute")
	if err := viper.BindPFlags(seriesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding series flags", err)
	}

	// Bind all flags of windowCmd to Viper
	windowCmd.Flags().Int("window", contract.DefaultWindowSize, "Window size in minutes")
	windowCmd.Flags().String("start", contract.DefaultWindowStart, "Inclusive range start (HH:MM)")
	windowCmd.Flags().String("end", contract.DefaultWindowEnd, "Inclusive range end (HH:MM)")
	windowCmd.Flags().String("strategy", string(schema.PositionalStrategy), "Window grouping: positional or time")
	if err := viper.BindPFlags(windowCmd.Flags()); err != nil {
		contract.LogFatal("Error binding window flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
