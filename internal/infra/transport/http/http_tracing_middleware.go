package http

import (
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	context_ "github.com/mkrupp/homecase-users/internal/infra/context"
)

const TraceIDHeader = "X-Request-ID"

const maxTraceIDLength = 128

// TracingMiddleware creates middleware that adds request tracing.
// It uses the X-Request-ID header if present, otherwise generates a new ULID.
// The trace ID is added to the request context and echoed in the response.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)

		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := strings.TrimSpace(r.Header.Get(TraceIDHeader)); traceID != "" && len(traceID) <= maxTraceIDLength {
		return traceID
	}

	return strings.ToLower(ulid.Make().String())
}
