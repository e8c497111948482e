package httpx

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// AccessLogMiddleware logs one line per request.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		slog.Info("access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration_ms", m.Duration.Milliseconds(),
			"request_id", RequestIDFrom(r),
		)
	})
}
