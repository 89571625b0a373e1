package errors

import (
	"net/http"
	"runtime/debug"

	"github.com/copyleftdev/lplab/internal/logging"
)

// RecoveryMiddleware returns a middleware that recovers from panics.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("recovered from panic", map[string]interface{}{
					"error":  rec,
					"stack":  string(debug.Stack()),
					"method": r.Method,
					"path":   r.URL.Path,
					"query":  r.URL.RawQuery,
				})

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
