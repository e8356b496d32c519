package servicedir

import (
	"maps"
	"slices"

	"gxpc/internal/tree"
)

type entry struct {
	callable, instance, implementable *tree.Callable
}

// Static answers lookups from a table built once. It is read-only after
// construction.
type Static struct {
	entries map[tree.TemplateName]entry
}

// NewStatic indexes roots by their qualified names. Later roots win.
func NewStatic(roots ...tree.Root) *Static {
	s := &Static{entries: make(map[tree.TemplateName]entry, len(roots))}
	for _, r := range roots {
		c, in, im := Exports(r)
		s.entries[r.RootName()] = entry{callable: c, instance: in, implementable: im}
	}
	return s
}

func (s *Static) Callable(n tree.TemplateName) (*tree.Callable, bool) {
	e := s.entries[n]
	return e.callable, e.callable != nil
}

func (s *Static) InstanceCallable(n tree.TemplateName) (*tree.Callable, bool) {
	e := s.entries[n]
	return e.instance, e.instance != nil
}

func (s *Static) Implementable(n tree.TemplateName) (*tree.Callable, bool) {
	e := s.entries[n]
	return e.implementable, e.implementable != nil
}

func (s *Static) Names() []tree.TemplateName {
	return slices.Collect(maps.Keys(s.entries))
}
