package context

import (
	"context"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok && traceID != ""
}

// WithTraceID creates a new context carrying the given trace ID.
// The HTTP transport echoes it back in the X-Request-ID response header.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
