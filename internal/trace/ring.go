package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last events in memory. It backs crash dumps.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	head   int
	full   bool
	seq    uint64
	level  Level
}

const defaultRingSize = 4096

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.Retains(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	stored := *ev
	stored.Seq = t.seq
	t.events[t.head] = stored
	t.head = (t.head + 1) % len(t.events)
	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]Event(nil), t.events[:t.head]...)
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.head:]...)
	return append(out, t.events[:t.head]...)
}

// Dump writes every stored event.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return t.dump(w, format, func(*Event) bool { return true })
}

// DumpUnit writes the events of one unit together with the driver-level
// events around them.
func (t *RingTracer) DumpUnit(w io.Writer, format Format, unit string) error {
	return t.dump(w, format, func(ev *Event) bool {
		return ev.Unit == unit || ev.Unit == ""
	})
}

func (t *RingTracer) dump(w io.Writer, format Format, keep func(*Event) bool) error {
	events := t.Snapshot()
	for i := range events {
		if !keep(&events[i]) {
			continue
		}
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

// RingOf returns the ring buffer behind t, if it keeps one.
func RingOf(t Tracer) *RingTracer {
	switch v := t.(type) {
	case *RingTracer:
		return v
	case *MultiTracer:
		return v.Ring()
	}
	return nil
}
