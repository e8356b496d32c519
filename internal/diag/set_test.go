package diag

import (
	"sync"
	"sync/atomic"
	"testing"

	"gxpc/internal/source"
)

func TestBuilderDedupsStructurallyEqual(t *testing.T) {
	pos := source.At("a.gxp", 3, 4)
	var b Builder
	for range 5 {
		b.Add(NewError(BindCallableNotFound, pos, "Callable not found: Foo"))
	}
	set := b.BuildAndClear()
	if set.Len() != 1 {
		t.Fatalf("expected 1 diagnostic after dedup, got %d", set.Len())
	}
}

func TestKeyIgnoresCodeAndNotes(t *testing.T) {
	pos := source.At("a.gxp", 1, 1)
	a := NewError(BindBadParameter, pos, "x")
	b := NewError(ValUnknownAttribute, pos, "x").WithNote(pos, "extra")
	if !a.Equal(b) {
		t.Fatalf("expected equality by (pos, message, severity)")
	}
	c := NewWarning(BindBadParameter, pos, "x")
	if a.Equal(c) {
		t.Fatalf("severity must take part in identity")
	}
}

func TestBuildAndClearIsDisjoint(t *testing.T) {
	var b Builder
	b.Add(NewError(UnknownCode, source.UnknownPos, "first"))
	first := b.BuildAndClear()
	b.Add(NewError(UnknownCode, source.UnknownPos, "second"))
	second := b.BuildAndClear()

	if first.Len() != 1 || first.Items()[0].Message != "first" {
		t.Fatalf("unexpected first drain: %v", first.Items())
	}
	if second.Len() != 1 || second.Items()[0].Message != "second" {
		t.Fatalf("unexpected second drain: %v", second.Items())
	}
	// после drain тот же алерт снова принимается
	b.Add(NewError(UnknownCode, source.UnknownPos, "first"))
	if b.Len() != 1 {
		t.Fatalf("drain must reset dedup memory")
	}
}

func TestBuildAndClearConcurrent(t *testing.T) {
	var b Builder
	const writers, perWriter = 8, 200

	var drainedTotal atomic.Int64
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			default:
				drainedTotal.Add(int64(b.BuildAndClear().Len()))
			}
		}
	}()

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range perWriter {
				b.Add(NewError(UnknownCode, source.At("f", uint32(w+1), uint32(i+1)), "m"))
			}
		}(w)
	}
	wg.Wait()
	close(done)
	<-finished

	// каждый алерт уникален, поэтому ни один не может потеряться или задвоиться
	total := drainedTotal.Load() + int64(b.BuildAndClear().Len())
	if total != writers*perWriter {
		t.Fatalf("drained %d diagnostics, want %d", total, writers*perWriter)
	}
}

func TestSetUnionKeepsOrder(t *testing.T) {
	a := NewError(UnknownCode, source.UnknownPos, "a")
	b := NewError(UnknownCode, source.UnknownPos, "b")
	c := NewError(UnknownCode, source.UnknownPos, "c")

	got := NewSet(a, b).Union(NewSet(b, c)).Items()
	if len(got) != 3 || got[0].Message != "a" || got[1].Message != "b" || got[2].Message != "c" {
		t.Fatalf("unexpected union: %v", got)
	}
}

func TestRender(t *testing.T) {
	d := NewError(EscTypeError, source.Pos{Path: "/w/t/a.gxp", Line: 2, Col: 3, EndLine: 2, EndCol: 9}, "boom")
	if got, want := Render(d, "/w"), "t/a.gxp:2:3:2:9: boom"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	unknown := NewError(EscTypeError, source.UnknownPos, "boom")
	if got, want := Render(unknown, ""), ":0:0:0:0: boom"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestParseCode(t *testing.T) {
	for _, in := range []string{"VAL5010", "val5010", "5010"} {
		c, err := ParseCode(in)
		if err != nil || c != ValMissingAttribute {
			t.Errorf("ParseCode(%q) = %v, %v", in, c, err)
		}
	}
	if _, err := ParseCode("BND5010"); err == nil {
		t.Errorf("expected prefix mismatch error")
	}
	if _, err := ParseCode("VAL9999"); err == nil {
		t.Errorf("expected unknown code error")
	}
}
