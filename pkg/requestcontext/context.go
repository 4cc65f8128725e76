// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Context keys and getter/setter functions for values that are typically set by
// middleware but consumed by services. Keeping this package free of net/http
// dependencies lets services import only what they need.
//
// Usage in services (read values):
//
//	operator := requestcontext.OperatorID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithOperatorID(ctx, operator)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	operatorIDKey  struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyOperatorID  = operatorIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// OperatorID retrieves the authenticated operator identity from the context.
// Returns the empty string if not set; services must treat that as
// "no operator" and never fabricate an identity.
func OperatorID(ctx context.Context) string {
	if operator, ok := ctx.Value(ContextKeyOperatorID).(string); ok {
		return operator
	}
	return ""
}

// WithOperatorID injects an operator identity into the context.
func WithOperatorID(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, ContextKeyOperatorID, operator)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like the poller,
// CLI invocations, and tests that don't pin a time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - The poller, which wants a consistent time within a sweep
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
