package middleware

import (
	"net/http"
	"time"

	"github.com/devfolio-dev/folio/pkg/metrics"
)

// Prometheus records request count and duration for every request.
// A nil m disables recording.
func Prometheus(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)
			m.ObserveHTTP(r.Method, routePattern(r), sw.Status(), time.Since(start))
		})
	}
}
