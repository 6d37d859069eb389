// Package context provides request-scoped context values.
package context

import (
	"context"
)

type contextKey string

const (
	// RequestIDKey is the context key for the request identifier.
	RequestIDKey contextKey = "request_id"

	// ClientAddrKey is the context key for the remote client address.
	ClientAddrKey contextKey = "client_addr"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from context.
// Returns empty string if not found.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithClientAddr adds the client address to the context.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ClientAddrKey, addr)
}

// ClientAddr retrieves the client address from context.
func ClientAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(ClientAddrKey).(string); ok {
		return addr
	}
	return ""
}
