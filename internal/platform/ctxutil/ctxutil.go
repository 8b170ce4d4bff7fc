// Package ctxutil threads request correlation data through a context.Context
// explicitly, rather than via hidden thread-local state (spec.md §9).
package ctxutil

import "context"

type traceKey struct{}

// TraceData is the correlation-id pair attached to every inbound request.
type TraceData struct {
	TraceID   string
	RequestID string
}

// WithTraceData returns a new context carrying td.
func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

// GetTraceData returns the TraceData attached to ctx, or nil if none.
func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceKey{}).(*TraceData)
	return td
}
