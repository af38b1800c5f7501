package schema

// Custom string types for type safety.
type (
	// BucketMode represents the granularity of bucket keys.
	BucketMode string

	// WindowStrategy represents how minute buckets are grouped into windows.
	WindowStrategy string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string
)

// All bucket modes supported.
const (
	HourMode   BucketMode = "hour" // default
	MinuteMode BucketMode = "minute"
)

// All window strategies supported.
const (
	PositionalStrategy WindowStrategy = "positional" // default
	TimeStrategy       WindowStrategy = "time"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidBucketModes lists all valid bucket modes.
var ValidBucketModes = map[BucketMode]struct{}{
	HourMode:   {},
	MinuteMode: {},
}

// ValidWindowStrategies lists all valid window strategies.
var ValidWindowStrategies = map[WindowStrategy]struct{}{
	PositionalStrategy: {},
	TimeStrategy:       {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ChartTitle returns the chart title used for a bucket mode.
func ChartTitle(mode BucketMode) string {
	switch mode {
	case MinuteMode:
		return "Requests per minute"
	default:
		return "Requests per hour"
	}
}
