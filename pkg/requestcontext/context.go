// Package requestcontext provides context accessors for values that follow a
// single client invocation through every outbound call.
//
// Usage at the entry point (set values):
//
//	ctx = requestcontext.WithCorrelationID(ctx, uuid.NewString())
//	ctx = requestcontext.WithCommand(ctx, "login")
//
// Usage in the gateway (read values):
//
//	correlationID := requestcontext.CorrelationID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in tests (pin values):
//
//	ctx = requestcontext.WithRequestID(ctx, "req-1")
package requestcontext

import "context"

// Context key types (unexported for encapsulation).
type (
	correlationIDKey struct{}
	requestIDKey     struct{}
	commandKey       struct{}
)

// -----------------------------------------------------------------------------
// Invocation context
// -----------------------------------------------------------------------------

// CorrelationID retrieves the ID shared by every call of one invocation.
// Returns empty string if not set.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithCorrelationID injects a correlation ID into the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// Command retrieves the name of the command being run.
// Returns empty string if not set.
func Command(ctx context.Context) string {
	if v, ok := ctx.Value(commandKey{}).(string); ok {
		return v
	}
	return ""
}

// WithCommand injects the command name into the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey{}, command)
}

// -----------------------------------------------------------------------------
// Per-request context
// -----------------------------------------------------------------------------

// RequestID retrieves a request ID pinned by the caller.
// Returns empty string if not set; the gateway then generates one.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID pins the request ID for the next call made with ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
