// Package middlewares provides net/http middleware for the cache service.
//
// All middleware has the func(http.Handler) http.Handler shape, so it plugs
// into chi or any other router:
//
//	r := chi.NewRouter()
//	r.Use(
//	    middlewares.RequestID(),
//	    middlewares.Recover(log),
//	    middlewares.Timeout(10*time.Second),
//	    middlewares.Metrics(reg, "storefront"),
//	)
//
// # Request ID
//
// RequestID reuses an incoming X-Request-ID (or X-Correlation-ID) header or
// generates a UUID, echoes it in the response and stores it in the request
// context with [logger.WithRequestID], so loggers built with
// [logger.RequestIDExtractor] tag every entry with it.
//
// # Recover
//
// Recover turns a panic into a 500 JSON response and logs it with its stack.
//
// # Timeout
//
// Timeout bounds the request context. Handlers observe it through
// r.Context(); cache reads and upstream fetches stop when it expires.
//
// # Metrics
//
// Metrics records a latency histogram per route pattern, method and status.
package middlewares
