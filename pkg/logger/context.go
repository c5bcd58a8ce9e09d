package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	namespaceKey
)

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// WithNamespace stores the cache namespace in ctx.
func WithNamespace(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, namespaceKey, ns)
}

// RequestIDExtractor adds "request_id" to records logged with a request context.
func RequestIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := RequestID(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}

// NamespaceExtractor adds "cache_namespace" when one is stored in ctx.
func NamespaceExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		ns, ok := ctx.Value(namespaceKey).(string)
		if !ok || ns == "" {
			return slog.Attr{}, false
		}
		return slog.String("cache_namespace", ns), true
	}
}
