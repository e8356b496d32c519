package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // keep a ring for crash dumps, write nothing
	LevelPhase        // driver and stage boundaries
	LevelDetail       // plus unit events
	LevelDebug        // everything, node points included
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are written out at this level.
// Phase spans sit inside unit spans but are coarser for filtering: at
// LevelPhase only driver and stage boundaries are written.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePhase
	case LevelDetail:
		return scope <= ScopeUnit
	case LevelDebug:
		return true
	}
	return false
}

// Retains reports whether events of scope are recorded at all. At
// LevelError the ring still keeps unit context for crash dumps.
func (l Level) Retains(scope Scope) bool {
	if l == LevelError {
		return scope <= ScopeUnit
	}
	return l.ShouldEmit(scope)
}
