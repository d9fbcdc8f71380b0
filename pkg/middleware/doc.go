// Package middleware provides observability middleware for the Strata
// handler: Prometheus metrics and OpenTelemetry tracing.
//
// Both middlewares are standard net/http wrappers, so they compose with
// any mux the handler is mounted on:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus())
//	r.Use(middleware.OpenTelemetry())
//	r.Handle("/*", strataHandler)
package middleware
