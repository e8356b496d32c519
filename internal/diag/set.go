package diag

import (
	"sort"
	"sync"
)

// Set is an immutable, insertion-ordered collection of unique diagnostics.
// The zero value is an empty set.
type Set struct {
	items []Diagnostic
}

// EmptySet is the set without diagnostics.
var EmptySet = Set{}

// NewSet builds a set from items, dropping structural duplicates.
func NewSet(items ...Diagnostic) Set {
	var b Builder
	b.Add(items...)
	return b.Build()
}

func (s Set) Len() int {
	return len(s.items)
}

func (s Set) IsEmpty() bool {
	return len(s.items) == 0
}

// Items returns a copy of the diagnostics in insertion order.
func (s Set) Items() []Diagnostic {
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// All iterates over the set without copying.
func (s Set) All(yield func(Diagnostic) bool) {
	for _, d := range s.items {
		if !yield(d) {
			return
		}
	}
}

// Contains reports whether a structurally equal diagnostic is in the set.
func (s Set) Contains(d Diagnostic) bool {
	k := d.Key()
	for _, it := range s.items {
		if it.Key() == k {
			return true
		}
	}
	return false
}

// HasErrors returns true when any diagnostic has default severity Error.
func (s Set) HasErrors() bool {
	for i := range s.items {
		if s.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Union returns a set holding s followed by the new items of other.
func (s Set) Union(other Set) Set {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	var b Builder
	b.AddAll(s)
	b.AddAll(other)
	return b.Build()
}

// Sorted returns the diagnostics ordered by position, severity (desc) and
// message for deterministic output.
func (s Set) Sorted() []Diagnostic {
	out := s.Items()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i], out[j]
		if di.Pos != dj.Pos {
			return di.Pos.Less(dj.Pos)
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Message < dj.Message
	})
	return out
}

// Builder accumulates diagnostics. It is safe for concurrent use and
// implements Reporter and Sink.
type Builder struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[Key]struct{}
}

// NewBuilder returns a builder pre-filled with the carried-forward set.
func NewBuilder(carried Set) *Builder {
	b := &Builder{}
	b.AddAll(carried)
	return b
}

// Add appends diagnostics that are not already present.
func (b *Builder) Add(items ...Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range items {
		b.addLocked(d)
	}
}

func (b *Builder) addLocked(d Diagnostic) {
	if b.seen == nil {
		b.seen = make(map[Key]struct{})
	}
	k := d.Key()
	if _, ok := b.seen[k]; ok {
		return
	}
	b.seen[k] = struct{}{}
	b.items = append(b.items, d)
}

// AddAll appends every diagnostic of the set.
func (b *Builder) AddAll(s Set) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range s.items {
		b.addLocked(d)
	}
}

// Report implements Reporter.
func (b *Builder) Report(d Diagnostic) {
	b.Add(d)
}

// Len returns the number of diagnostics accumulated so far.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Build returns a snapshot without clearing.
func (b *Builder) Build() Set {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]Diagnostic, len(b.items))
	copy(items, b.items)
	return Set{items: items}
}

// BuildAndClear drains the builder: everything added before the call is in the
// returned set, everything added afterwards goes to the next drain.
func (b *Builder) BuildAndClear() Set {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	b.seen = nil
	return Set{items: items}
}
