// Package logger builds the service's structured logger on log/slog.
//
// Records are JSON on stdout by default. Context extractors add
// request-scoped attributes (request ID, cache namespace) to every record,
// and when SENTRY_DSN is set records are also sent to Sentry: errors become
// issues, warnings are kept as logs.
//
//	log := logger.New(cfg.Log, logger.RequestIDExtractor(), logger.NamespaceExtractor())
//	ctx = logger.WithRequestID(ctx, id)
//	log.InfoContext(ctx, "cache cleared")
//	// {"level":"INFO","msg":"cache cleared","request_id":"..."}
//
// Library packages take a *slog.Logger option and default to a discard logger.
package logger
