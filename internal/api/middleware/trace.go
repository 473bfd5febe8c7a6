package middleware

import (
	"log/slog"
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
)

// TraceMiddleware assigns the request a trace ID and stores a logger annotated
// with it in the context. Apply it early in the chain so every subsequent
// handler, service and store log line carries the same trace_id.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.Default().With("trace_id", traceID)
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
