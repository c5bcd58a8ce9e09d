// Package health provides liveness and readiness HTTP handlers.
//
// Readiness runs named checks in parallel under one timeout. The durable
// tier and the upstream data service both expose checks with the
// func(context.Context) error shape:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "durable": durable.RedisHealthcheck(client),
//	    "catalog": catalogClient.Healthcheck(),
//	}, health.WithLogger(log)))
//
// Responses are plain text ("OK" or "Service Unavailable") unless the client
// sends Accept: application/json or ?format=json:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "durable": {"status": "healthy", "duration_ms": 2},
//	    "catalog": {"status": "unhealthy", "error": "connection refused", "duration_ms": 5000}
//	  }
//	}
//
// A failed check is reported with [ErrCheckFailed]; one cut short by the
// timeout with [ErrCheckTimeout].
package health
