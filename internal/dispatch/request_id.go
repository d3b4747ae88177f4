package dispatch

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type requestIDKey struct{}

// NewRequestID returns a fresh, time-sortable request id.
func NewRequestID() string {
	return ulid.Make().String()
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
