package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerMergesByName(t *testing.T) {
	tm := NewTimer()
	tm.Add("bind", 2*time.Millisecond, "")
	tm.Add("collapse", time.Millisecond, "")
	tm.Add("bind", 3*time.Millisecond, "2 units")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	bind := r.Phases[0]
	if bind.Name != "bind" || bind.Count != 2 || bind.DurationMS != 5 || bind.Note != "2 units" {
		t.Errorf("unexpected bind phase: %+v", bind)
	}
	if r.TotalMS != 6 {
		t.Errorf("total = %v, want 6", r.TotalMS)
	}
	if s := tm.Summary(); !strings.Contains(s, "bind") || !strings.Contains(s, "total") {
		t.Errorf("summary missing rows:\n%s", s)
	}
}

func TestTimerConcurrentBegin(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Begin("escape")("")
		}()
	}
	wg.Wait()
	if got := tm.Report().Phases[0].Count; got != 8 {
		t.Errorf("count = %d, want 8", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Begin("x")("")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Errorf("nil timer reported %v", r)
	}
}
