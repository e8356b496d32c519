package diag

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives diagnostics. Sinks are composed as decorators.
type Sink interface {
	Add(d Diagnostic)
	AddAll(s Set)
}

// SinkReporter adapts a Sink to the Reporter contract used by phases.
type SinkReporter struct{ Sink Sink }

func (r SinkReporter) Report(d Diagnostic) {
	if r.Sink != nil {
		r.Sink.Add(d)
	}
}

func addAll(sink Sink, s Set) {
	for d := range s.All {
		sink.Add(d)
	}
}

// Counter tallies diagnostics by effective severity and forwards them.
type Counter struct {
	Policy Policy
	Next   Sink

	mu     sync.Mutex
	counts [SevError + 1]int
}

func (c *Counter) Add(d Diagnostic) {
	sev := Effective(c.Policy, d)
	c.mu.Lock()
	if sev <= SevError {
		c.counts[sev]++
	}
	c.mu.Unlock()
	if c.Next != nil {
		c.Next.Add(d)
	}
}

func (c *Counter) AddAll(s Set) { addAll(c, s) }

func (c *Counter) count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[sev]
}

func (c *Counter) Errors() int   { return c.count(SevError) }
func (c *Counter) Warnings() int { return c.count(SevWarning) }
func (c *Counter) Infos() int    { return c.count(SevInfo) }

// Uniquifier forwards only the first of structurally equal diagnostics.
// The "seen" memory belongs to the instance.
type Uniquifier struct {
	Next Sink

	mu   sync.Mutex
	seen map[Key]struct{}
}

func NewUniquifier(next Sink) *Uniquifier {
	return &Uniquifier{Next: next, seen: make(map[Key]struct{})}
}

func (u *Uniquifier) Add(d Diagnostic) {
	u.mu.Lock()
	if u.seen == nil {
		u.seen = make(map[Key]struct{})
	}
	k := d.Key()
	_, dup := u.seen[k]
	u.seen[k] = struct{}{}
	u.mu.Unlock()
	if !dup && u.Next != nil {
		u.Next.Add(d)
	}
}

func (u *Uniquifier) AddAll(s Set) { addAll(u, s) }

// Printer writes one rendered line per diagnostic.
type Printer struct {
	W       io.Writer
	Policy  Policy
	BaseDir string
	Verbose bool

	mu sync.Mutex
}

func (p *Printer) Add(d Diagnostic) {
	sev := Effective(p.Policy, d)
	if sev == SevInfo && !p.Verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// ошибки записи в поток игнорируем: печать — побочный канал
	_, _ = fmt.Fprintln(p.W, Render(d, p.BaseDir))
}

func (p *Printer) AddAll(s Set) { addAll(p, s) }

// FatalError is the panic value raised by Erroring.
type FatalError struct {
	Diagnostic Diagnostic
	Severity   Severity
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("unexpected %s: %s", e.Severity, Render(e.Diagnostic, ""))
}

// Erroring panics with *FatalError on anything above Info.
type Erroring struct {
	Policy Policy
	Next   Sink
}

func (e *Erroring) Add(d Diagnostic) {
	if sev := Effective(e.Policy, d); sev > SevInfo {
		panic(&FatalError{Diagnostic: d, Severity: sev})
	}
	if e.Next != nil {
		e.Next.Add(d)
	}
}

func (e *Erroring) AddAll(s Set) { addAll(e, s) }

// Tee fans diagnostics out to several sinks.
type Tee []Sink

func (t Tee) Add(d Diagnostic) {
	for _, s := range t {
		s.Add(d)
	}
}

func (t Tee) AddAll(s Set) { addAll(t, s) }
