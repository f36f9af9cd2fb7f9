package ctxutil

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	batchIDKey   ctxKey = "batch_id"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithBatchID stores the ID of the processing batch in the context.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromCtx extracts the batch ID from the context.
// Returns an empty string if absent.
func BatchIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(batchIDKey).(string)
	return id
}
