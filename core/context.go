package core

import "context"

// Context keys for orchestration options
type contextKey string

const suppressProgressKey contextKey = "suppressProgress"

// WithSuppressProgress returns a context under which classification does not
// log row progress. Used by callers that report results some other way.
func WithSuppressProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressProgressKey, true)
}

// shouldSuppressProgress returns whether progress logs should be skipped
func shouldSuppressProgress(ctx context.Context) bool {
	val := ctx.Value(suppressProgressKey)
	if val == nil {
		return false // default: log progress
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
