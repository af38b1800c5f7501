package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qpsplot/qpsplot/core/window"
	"github.com/qpsplot/qpsplot/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 0 // 0 means show every bucket
	MaxResultLimit     = 100000
	DefaultWindowSize  = window.DefaultSize
	DefaultWindowStart = window.DefaultStart
	DefaultWindowEnd   = window.DefaultEnd
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	LogPath     string
	BucketMode  schema.BucketMode
	ResultLimit int // Max rows or bars in text output (0 = all)
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	Window         int
	WindowStart    string
	WindowEnd      string
	WindowStrategy schema.WindowStrategy

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored bars in text output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	LogPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile        string `mapstructure:"output-file"`
	Limit             int    `mapstructure:"limit"`
	Output            string `mapstructure:"output"`
	Width             int    `mapstructure:"width"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Fields from seriesCmd.Flags() ---
	Mode string `mapstructure:"mode"`

	// --- Fields from windowCmd.Flags() ---
	Window   int    `mapstructure:"window"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Strategy string `mapstructure:"strategy"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// WindowOptions returns the window merge settings of the config.
func (c *Config) WindowOptions() window.Options {
	return window.Options{
		Size:     c.Window,
		Start:    c.WindowStart,
		End:      c.WindowEnd,
		Strategy: c.WindowStrategy,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processWindowOptions(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveLogPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs processes and validates the output and display fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.BucketMode = schema.BucketMode(strings.ToLower(input.Mode))
	if _, ok := schema.ValidBucketModes[cfg.BucketMode]; !ok {
		return fmt.Errorf("invalid mode '%s'. must be hour, minute", input.Mode)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return nil
}

// processWindowOptions validates the window merge settings.
func processWindowOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.Window = input.Window
	cfg.WindowStart = input.Start
	cfg.WindowEnd = input.End
	cfg.WindowStrategy = schema.WindowStrategy(strings.ToLower(input.Strategy))
	if cfg.WindowStrategy == "" {
		cfg.WindowStrategy = schema.PositionalStrategy
	}

	if _, _, err := cfg.WindowOptions().Validate(); err != nil {
		return err
	}
	return nil
}

// validateBackendConfigs validates the analysis backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	return ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect)
}

// resolveLogPath turns the positional log path into a clean absolute path of an existing file.
// An empty path is allowed for commands that take the log path elsewhere.
func resolveLogPath(cfg *Config, input *ConfigRawInput) error {
	if input.LogPathStr == "" {
		cfg.LogPath = ""
		return nil
	}
	path, err := ResolveLogPath(input.LogPathStr)
	if err != nil {
		return err
	}
	cfg.LogPath = path
	return nil
}

// ResolveLogPath returns the absolute path of a readable regular file.
func ResolveLogPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid log path %s: %w", path, err)
	}
	absPath = filepath.Clean(absPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("log file does not exist: %s", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("log path is a directory: %s", path)
	}
	return absPath, nil
}
