package servicedir

import (
	"fmt"
	"slices"
	"sync"

	"gxpc/internal/diag"
	"gxpc/internal/tree"
)

// Scoped applies one unit's package and imports on top of a base directory.
// An unqualified name resolves, in order, through a class import with that
// base name, the unit's own package, and a unique match among the package
// imports. Two or more package-import matches resolve to nothing.
type Scoped struct {
	base     Directory
	pkg      string
	classes  map[string]tree.TemplateName
	packages []string

	callables sync.Map // tree.TemplateName -> tree.TemplateName
	instances sync.Map
	impls     sync.Map

	mu     sync.Mutex
	probed map[tree.TemplateName]struct{}
}

// NewScoped processes imports. Two class imports of different names with
// the same base name are reported to r here, whether or not the name is
// ever used; the first import wins.
func NewScoped(r diag.Reporter, base Directory, pkg string, imports []tree.Import) *Scoped {
	s := &Scoped{
		base:    base,
		pkg:     pkg,
		classes: make(map[string]tree.TemplateName),
		probed:  make(map[tree.TemplateName]struct{}),
	}
	seenPkg := map[string]bool{pkg: true}
	for _, imp := range imports {
		switch imp.Kind {
		case tree.ImportClass:
			prev, ok := s.classes[imp.Name.Base]
			if ok && prev != imp.Name {
				diag.ReportError(r, diag.BindAmbiguousImport, imp.Pos,
					fmt.Sprintf("Multiple imports for %s: %s and %s", imp.Name.Base, prev, imp.Name)).Emit()
				continue
			}
			s.classes[imp.Name.Base] = imp.Name
		case tree.ImportPackage:
			if !seenPkg[imp.Package] {
				seenPkg[imp.Package] = true
				s.packages = append(s.packages, imp.Package)
			}
		}
	}
	return s
}

type lookupFunc func(tree.TemplateName) (*tree.Callable, bool)

// resolve maps n to the qualified name to ask the base for. The result is
// memoized per lookup kind; concurrent first calls compute the same answer.
func (s *Scoped) resolve(memo *sync.Map, n tree.TemplateName, get lookupFunc) tree.TemplateName {
	if n.IsQualified() {
		return n
	}
	if v, ok := memo.Load(n.Base); ok {
		return v.(tree.TemplateName)
	}
	q := s.qualify(n.Base, get)
	v, _ := memo.LoadOrStore(n.Base, q)
	return v.(tree.TemplateName)
}

func (s *Scoped) probe(n tree.TemplateName) {
	s.mu.Lock()
	s.probed[n] = struct{}{}
	s.mu.Unlock()
}

func (s *Scoped) qualify(base string, get lookupFunc) tree.TemplateName {
	if q, ok := s.classes[base]; ok {
		s.probe(q)
		return q
	}
	local := tree.TemplateName{Package: s.pkg, Base: base}
	if s.pkg != "" {
		s.probe(local)
		if _, ok := get(local); ok {
			return local
		}
	}
	var found tree.TemplateName
	for _, p := range s.packages {
		q := tree.TemplateName{Package: p, Base: base}
		s.probe(q)
		if _, ok := get(q); !ok {
			continue
		}
		if !found.IsZero() {
			// ambiguous: fall back to the local name, which is known to miss
			return local
		}
		found = q
	}
	if found.IsZero() {
		return local
	}
	return found
}

func (s *Scoped) lookup(memo *sync.Map, n tree.TemplateName, get lookupFunc) (*tree.Callable, bool) {
	if n.IsQualified() {
		s.probe(n)
	}
	q := s.resolve(memo, n, get)
	if !q.IsQualified() {
		return nil, false
	}
	return get(q)
}

// Qualify names what an unresolved n stands for in this unit: the class
// import target, else the unit's own package. Qualified names and names in
// a unit without a package come back unchanged.
func (s *Scoped) Qualify(n tree.TemplateName) tree.TemplateName {
	if n.IsQualified() {
		return n
	}
	if q, ok := s.classes[n.Base]; ok {
		return q
	}
	if s.pkg == "" {
		return n
	}
	return tree.TemplateName{Package: s.pkg, Base: n.Base}
}

// Probed lists, sorted, every qualified name a lookup has asked the base
// about so far. A unit's resolution can only change when the base's answer
// for one of these names changes.
func (s *Scoped) Probed() []tree.TemplateName {
	s.mu.Lock()
	out := make([]tree.TemplateName, 0, len(s.probed))
	for n := range s.probed {
		out = append(out, n)
	}
	s.mu.Unlock()
	slices.SortFunc(out, tree.TemplateName.Compare)
	return out
}

func (s *Scoped) Callable(n tree.TemplateName) (*tree.Callable, bool) {
	return s.lookup(&s.callables, n, s.base.Callable)
}

func (s *Scoped) InstanceCallable(n tree.TemplateName) (*tree.Callable, bool) {
	return s.lookup(&s.instances, n, s.base.InstanceCallable)
}

func (s *Scoped) Implementable(n tree.TemplateName) (*tree.Callable, bool) {
	return s.lookup(&s.impls, n, s.base.Implementable)
}

// Names lists the base directory's names, if it can.
func (s *Scoped) Names() []tree.TemplateName {
	if l, ok := s.base.(Lister); ok {
		return l.Names()
	}
	return nil
}
