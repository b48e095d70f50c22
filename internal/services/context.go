package services

import "context"

type contextKey string

const (
	storeKey     contextKey = "store"
	runIDKey     contextKey = "run_id"
	requestIDKey contextKey = "request_id"
)

// WithStore annotates context with the storefront being processed.
func WithStore(ctx context.Context, store string) context.Context {
	if store == "" {
		return ctx
	}
	return context.WithValue(ctx, storeKey, store)
}

// StoreFromContext returns the storefront name if present.
func StoreFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(storeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with a sync or enrichment run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
