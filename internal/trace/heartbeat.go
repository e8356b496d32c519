package trace

import (
	"context"
	"fmt"
	"time"
)

// Heartbeat periodically reports how many spans are open and which span
// began last. A run whose heartbeats keep coming with the same last span is
// stuck there.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat emits a heartbeat event every interval until Stop. It
// returns nil when t is disabled or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, t, interval)
	return h
}

func (h *Heartbeat) run(ctx context.Context, t Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var beats uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			beats++
			t.Emit(heartbeatEvent(now, beats))
		}
	}
}

func heartbeatEvent(now time.Time, beats uint64) *Event {
	last := "-"
	if p := lastBegun.Load(); p != nil {
		last = *p
	}
	return &Event{
		Time:   now,
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		Name:   "heartbeat",
		Detail: fmt.Sprintf("#%d open=%d last=%s", beats, openSpans.Load(), last),
	}
}

// Stop ends the heartbeat goroutine and waits for it. Safe on nil and safe
// to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
