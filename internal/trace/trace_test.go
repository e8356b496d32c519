package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if !strings.EqualFold(l.String(), s) {
			t.Errorf("ParseLevel(%q) = %s", s, l)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	span := Begin(tr, ScopeUnit, "unit:a.B", 0)
	span.WithExtra("diagnostics", "2").End("ok")
	Begin(tr, ScopeNode, "hidden", 0).End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 events, got %d:\n%s", len(lines), buf.String())
	}
	var end struct {
		Kind   string            `json:"kind"`
		Scope  string            `json:"scope"`
		Name   string            `json:"name"`
		Detail string            `json:"detail"`
		Extra  map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatal(err)
	}
	if end.Kind != "end" || end.Scope != "unit" || end.Name != "unit:a.B" || end.Detail != "ok" || end.Extra["diagnostics"] != "2" {
		t.Errorf("unexpected end event: %+v", end)
	}
}

func TestTextFormatSortsExtras(t *testing.T) {
	ev := &Event{Seq: 7, Kind: KindSpanEnd, Scope: ScopePhase, Name: "escape", Extra: map[string]string{"z": "1", "a": "2"}}
	got := string(FormatEvent(ev, FormatText))
	want := "#000007 [phase] ← escape {a=2, z=1}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "b,c,d" {
		t.Errorf("snapshot = %v", names)
	}
	if RingOf(NewMultiTracer(LevelDebug, Nop, r)) != r {
		t.Error("RingOf did not find the ring behind a multi tracer")
	}
}

func TestStartPropagatesParent(t *testing.T) {
	r := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), r)

	outer, ctx := Start(ctx, ScopeDriver, "check")
	inner, _ := Start(ctx, ScopeUnit, "unit")
	inner.End("")
	outer.End("")

	events := r.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Errorf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
}

func TestNopContext(t *testing.T) {
	span, ctx := Start(context.Background(), ScopeDriver, "x")
	if span.ID() != 0 || CurrentSpan(ctx).SpanID != 0 {
		t.Error("nop tracer should not allocate spans")
	}
	if d := span.End(""); d != 0 {
		t.Errorf("nop span duration = %v", d)
	}
}

func TestLevelRetains(t *testing.T) {
	if !LevelError.Retains(ScopeUnit) || LevelError.Retains(ScopeNode) {
		t.Error("LevelError should retain unit context only")
	}
	if LevelError.ShouldEmit(ScopeDriver) {
		t.Error("LevelError should not write events")
	}
	if LevelPhase.Retains(ScopeUnit) {
		t.Error("LevelPhase should not retain unit events")
	}
}

func TestNewPicksRingForErrorLevel(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatal(err)
	}
	if RingOf(tr) == nil {
		t.Fatalf("New(LevelError) = %T, want a ring", tr)
	}
	off, err := New(Config{Level: LevelOff})
	if err != nil || off.Enabled() {
		t.Errorf("New(LevelOff) = %v, %v", off, err)
	}
}

func TestNewBothKeepsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeDriver, "check", 0).End("")
	if RingOf(tr) == nil || len(RingOf(tr).Snapshot()) != 2 {
		t.Error("ring behind ModeBoth should hold both events")
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("stream output:\n%s", buf.String())
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDumpUnitFilters(t *testing.T) {
	r := NewRingTracer(32, LevelDetail)
	ctx := WithTracer(context.Background(), r)

	drv, ctx := Start(ctx, ScopeDriver, "check")
	for _, unit := range []string{"a.Page", "a.Card"} {
		span, uctx := Start(WithUnit(ctx, unit), ScopeUnit, "file.gxp.json")
		Note(uctx, ScopeUnit, "cache-error", "disk full")
		span.End("")
	}
	drv.End("")

	var buf bytes.Buffer
	if err := r.DumpUnit(&buf, FormatText, "a.Card"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "a.Page") {
		t.Errorf("dump leaked another unit:\n%s", out)
	}
	if strings.Count(out, "a.Card") != 3 || strings.Count(out, "check") != 2 {
		t.Errorf("unexpected dump:\n%s", out)
	}
}

func TestHeartbeatEventReportsLastSpan(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	span := begin(r, ScopeUnit, "bind", 0, "a.Page")
	ev := heartbeatEvent(time.Now(), 3)
	span.End("")
	if !strings.HasPrefix(ev.Detail, "#3 open=") || !strings.HasSuffix(ev.Detail, "last=a.Page bind") {
		t.Errorf("heartbeat detail = %q", ev.Detail)
	}

	h := StartHeartbeat(r, time.Millisecond)
	h.Stop()
	h.Stop()
	if StartHeartbeat(Nop, time.Second) != nil {
		t.Error("heartbeat on a disabled tracer should be nil")
	}
}
