package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"phistack/internal/logging"
	"phistack/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// instrument records request metrics and an access log line.
func instrument(m *metrics.Metrics, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sr, r)
			elapsed := time.Since(start)

			if m != nil {
				m.ObserveRequest(routeLabel(r), r.Method, sr.status, elapsed)
			}
			logger.Debug("http.request", "Request served", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     sr.status,
				"elapsed_ms": elapsed.Milliseconds(),
				"request_id": middleware.GetReqID(r.Context()),
			})
		})
	}
}

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// routeLabel returns the chi route pattern, or unmatchedRoute, so request
// paths never become label values.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
