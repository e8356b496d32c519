package trace

import "context"

type ctxKey struct{}

// FromContext returns the tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil tracer stores Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext is what child spans inherit from their parent.
type SpanContext struct {
	SpanID uint64
	Unit   string
}

type spanCtxKey struct{}

// CurrentSpan returns the innermost span recorded in ctx; the zero value
// when there is none.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanCtxKey{}).(SpanContext)
	return sc
}

func withSpan(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// WithUnit labels every event started below ctx with unit.
func WithUnit(ctx context.Context, unit string) context.Context {
	sc := CurrentSpan(ctx)
	sc.Unit = unit
	return withSpan(ctx, sc)
}
