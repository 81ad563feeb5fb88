// Package middleware provides net/http middleware for the folio server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware
//   - Recovery and request logging
//
// All of them have the func(http.Handler) http.Handler shape, so they mount
// directly on a chi router:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Recover(logger))
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("folio")))
//	r.Use(middleware.Prometheus(m))
//	r.Use(middleware.Logger(logger))
//
// # OpenTelemetry
//
// Each request gets a server span named after its route pattern, e.g.
// "POST /api/{target}/{id}/add-like". Incoming W3C trace context is
// extracted so spans join the caller's trace. Handlers reach the span with
// trace.SpanFromContext(r.Context()).
//
// # Prometheus
//
// Request counts and latencies are recorded through *metrics.Metrics. The
// route label is the chi pattern, never the raw path, to keep cardinality
// bounded.
package middleware
