// Package servicedir resolves template names to callable definitions.
//
// Directories come in three layers: Static and OnDemand answer fully
// qualified names from a precomputed table or from units loaded while the
// build runs; Scoped sits on top of either and applies the import rules of
// one compilation unit to unqualified names.
package servicedir

import (
	"slices"

	"gxpc/internal/tree"
)

// Directory is the lookup service the binder consumes. Lookups must be safe
// for concurrent use.
type Directory interface {
	Callable(name tree.TemplateName) (*tree.Callable, bool)
	InstanceCallable(name tree.TemplateName) (*tree.Callable, bool)
	Implementable(name tree.TemplateName) (*tree.Callable, bool)
}

// Lister is implemented by directories that can enumerate their names.
type Lister interface {
	Names() []tree.TemplateName
}

// Names returns d's names sorted, or nil if d cannot enumerate them.
func Names(d Directory) []tree.TemplateName {
	l, ok := d.(Lister)
	if !ok {
		return nil
	}
	out := l.Names()
	slices.SortFunc(out, tree.TemplateName.Compare)
	return out
}

// Exports maps a root to what it contributes to each lookup kind.
func Exports(r tree.Root) (callable, instance, implementable *tree.Callable) {
	switch r := r.(type) {
	case *tree.Template:
		return r.Callable(), nil, nil
	case *tree.Interface:
		return nil, r.InstanceCallable(), r.Implementable()
	}
	return nil, nil, nil
}
