package core

import "context"

// Context keys for run options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	analysisIDKey     contextKey = "analysisID"
)

// WithSuppressHeader returns a context that silences the stderr header lines of a run.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withAnalysisID stores the tracked run ID in the context
func withAnalysisID(ctx context.Context, analysisID int64) context.Context {
	return context.WithValue(ctx, analysisIDKey, analysisID)
}

// getAnalysisID returns the tracked run ID, if any
func getAnalysisID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(analysisIDKey).(int64)
	return id, ok && id > 0
}
