package diag

import (
	"bytes"
	"strings"
	"testing"

	"gxpc/internal/source"
)

type recordingSink struct{ got []Diagnostic }

func (r *recordingSink) Add(d Diagnostic) { r.got = append(r.got, d) }
func (r *recordingSink) AddAll(s Set)     { addAll(r, s) }

func TestPolicyOverridesAndEscalation(t *testing.T) {
	warn := NewWarning(EscUntranslatable, source.UnknownPos, "w")
	info := New(SevInfo, MsgInfo, source.UnknownPos, "i")
	err := NewError(ValMissingAttribute, source.UnknownPos, "e")

	tests := []struct {
		name   string
		policy Policy
		d      Diagnostic
		want   Severity
	}{
		{"nil policy is identity", nil, warn, SevWarning},
		{"escalate warning", DefaultPolicy{WarningsAsErrors: true}, warn, SevError},
		{"info is not escalated", DefaultPolicy{WarningsAsErrors: true}, info, SevInfo},
		{"override downgrades", DefaultPolicy{Overrides: map[Code]Severity{ValMissingAttribute: SevWarning}}, err, SevWarning},
		{"override then escalate", DefaultPolicy{
			Overrides:        map[Code]Severity{ValMissingAttribute: SevWarning},
			WarningsAsErrors: true,
		}, err, SevError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.policy, tt.d); got != tt.want {
				t.Fatalf("Effective() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCounterUsesEffectiveSeverity(t *testing.T) {
	c := &Counter{Policy: DefaultPolicy{WarningsAsErrors: true}}
	c.AddAll(NewSet(
		NewWarning(UnknownCode, source.UnknownPos, "a"),
		NewError(UnknownCode, source.UnknownPos, "b"),
		New(SevInfo, UnknownCode, source.UnknownPos, "c"),
	))
	if c.Errors() != 2 || c.Warnings() != 0 || c.Infos() != 1 {
		t.Fatalf("unexpected counts: e=%d w=%d i=%d", c.Errors(), c.Warnings(), c.Infos())
	}
}

func TestUniquifierIsPerInstance(t *testing.T) {
	d := NewError(UnknownCode, source.UnknownPos, "dup")
	rec1, rec2 := &recordingSink{}, &recordingSink{}
	u1, u2 := NewUniquifier(rec1), NewUniquifier(rec2)

	u1.Add(d)
	u1.Add(d)
	u2.Add(d)
	if len(rec1.got) != 1 || len(rec2.got) != 1 {
		t.Fatalf("expected one forwarded per instance, got %d and %d", len(rec1.got), len(rec2.got))
	}
}

func TestPrinterHidesInfoUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf}
	p.Add(New(SevInfo, UnknownCode, source.At("a.gxp", 1, 1), "quiet"))
	p.Add(NewWarning(UnknownCode, source.At("a.gxp", 2, 1), "loud"))
	if got := buf.String(); strings.Contains(got, "quiet") || !strings.Contains(got, "a.gxp:2:1:2:1: loud") {
		t.Fatalf("unexpected output %q", got)
	}

	buf.Reset()
	p.Verbose = true
	p.Add(New(SevInfo, UnknownCode, source.At("a.gxp", 1, 1), "quiet"))
	if !strings.Contains(buf.String(), "quiet") {
		t.Fatalf("verbose printer must show info")
	}
}

func TestErroringPanicsAboveInfo(t *testing.T) {
	e := &Erroring{}
	e.Add(New(SevInfo, UnknownCode, source.UnknownPos, "fine"))

	defer func() {
		r := recover()
		fe, ok := r.(*FatalError)
		if !ok {
			t.Fatalf("expected *FatalError panic, got %v", r)
		}
		if fe.Diagnostic.Message != "bad" {
			t.Fatalf("unexpected diagnostic %v", fe.Diagnostic)
		}
	}()
	e.Add(NewWarning(UnknownCode, source.UnknownPos, "bad"))
	t.Fatalf("unreachable")
}
