package id

import "context"

type contextKey string

const batchKey contextKey = "trinity_batch_id"

// WithBatchID stores the batch run identifier on the context.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	if batchID == "" {
		return ctx
	}
	return context.WithValue(ctx, batchKey, batchID)
}

// BatchIDFromContext returns the batch run identifier, or "".
func BatchIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(batchKey).(string); ok {
		return value
	}
	return ""
}

// EnsureBatchID returns ctx carrying a batch id, generating one if absent.
func EnsureBatchID(ctx context.Context, generator func() string) (context.Context, string) {
	if existing := BatchIDFromContext(ctx); existing != "" {
		return ctx, existing
	}
	if generator == nil {
		generator = NewBatchID
	}
	batchID := generator()
	return WithBatchID(ctx, batchID), batchID
}
