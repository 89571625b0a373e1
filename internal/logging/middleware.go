package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware logs the completion of each request and stores a request
// scoped logger in the context for handlers to pick up with FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			requestLogger := logger.WithFields(map[string]interface{}{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
			})

			next.ServeHTTP(ww, r.WithContext(requestLogger.WithContext(r.Context())))

			latency := time.Since(start)
			fields := map[string]interface{}{
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"latency_ms": float64(latency.Microseconds()) / 1000.0,
				"user_agent": r.UserAgent(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				fields["route"] = rctx.RoutePattern()
			}

			switch {
			case ww.Status() >= 500:
				fields["error"] = http.StatusText(ww.Status())
				requestLogger.Error("request completed", fields)
			case ww.Status() >= 400:
				fields["error"] = http.StatusText(ww.Status())
				requestLogger.Warn("request completed", fields)
			default:
				requestLogger.Info("request completed", fields)
			}
		})
	}
}
