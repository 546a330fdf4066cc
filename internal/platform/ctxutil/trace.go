package ctxutil

import "context"

type traceDataKey struct{}

type TraceData struct {
	RequestID string
	// Telegram update_id of the webhook delivery, when known.
	UpdateID int64
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Detach returns a context that keeps ctx's values but survives its
// cancellation. Used for post-acknowledgment continuations: once the inbound
// message is durably recorded, the reply chain must not be cut short by the
// webhook caller going away.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(Default(ctx))
}
