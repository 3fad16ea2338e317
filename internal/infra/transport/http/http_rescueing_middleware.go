package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/homecase-users/internal/infra/logging"
)

// RescueingMiddleware creates middleware that recovers from panics in HTTP handlers.
// It logs the panic and stack trace, then answers with a JSON 500 INTERNAL_ERROR.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			//nolint:errorlint,err113
			if p == http.ErrAbortHandler {
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			_ = WriteInternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}
