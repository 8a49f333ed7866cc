package core

import "context"

// Context keys for pipeline options
type contextKey string

const (
	quietKey contextKey = "quiet"
	runIDKey contextKey = "runID"
)

// WithQuiet marks the context so that progress lines are not printed.
// The MCP server uses it since stdout carries the protocol.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// isQuiet returns whether progress lines should be suppressed
func isQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: print progress
	}
	quiet, ok := val.(bool)
	return ok && quiet
}

// withRunID stores the tracked run ID in the context
func withRunID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// runIDFrom returns the tracked run ID, or 0 when the run is not tracked
func runIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey).(int64)
	return id
}
