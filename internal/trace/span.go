package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	spanIDs atomic.Uint64

	// открытые спаны и последний начатый, для heartbeat
	openSpans atomic.Int64
	lastBegun atomic.Pointer[string]
)

// Span is an open interval of work. A nil or disabled Span is valid and
// does nothing.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	scope    Scope
	unit     string
	name     string
	started  time.Time
	extra    map[string]string
}

var nopSpan = &Span{}

// Begin opens a span and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return begin(t, scope, name, parent, "")
}

func begin(t Tracer, scope Scope, name string, parent uint64, unit string) *Span {
	if t == nil || !t.Enabled() || !t.Level().Retains(scope) {
		return nopSpan
	}
	s := &Span{
		tracer:   t,
		id:       spanIDs.Add(1),
		parentID: parent,
		scope:    scope,
		unit:     unit,
		name:     name,
		started:  time.Now(),
	}
	openSpans.Add(1)
	label := name
	if unit != "" {
		label = unit + " " + name
	}
	lastBegun.Store(&label)
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Unit:     unit,
		Name:     name,
	})
	return s
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	dur := time.Since(s.started)
	openSpans.Add(-1)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		Unit:     s.unit,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	s.tracer = nil
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under the given parent span.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	point(t, scope, name, detail, SpanContext{SpanID: parent})
}

// Note emits an instant event under the span and unit recorded in ctx.
func Note(ctx context.Context, scope Scope, name, detail string) {
	point(FromContext(ctx), scope, name, detail, CurrentSpan(ctx))
}

func point(t Tracer, scope Scope, name, detail string, sc SpanContext) {
	if t == nil || !t.Enabled() || !t.Level().Retains(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: sc.SpanID,
		Unit:     sc.Unit,
		Name:     name,
		Detail:   detail,
	})
}

// Start begins a span parented to the span in ctx, using the tracer in ctx,
// and returns a context carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	parent := CurrentSpan(ctx)
	s := begin(FromContext(ctx), scope, name, parent.SpanID, parent.Unit)
	if s.ID() == 0 {
		return s, ctx
	}
	return s, withSpan(ctx, SpanContext{SpanID: s.id, Unit: parent.Unit})
}
