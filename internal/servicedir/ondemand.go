package servicedir

import (
	"fmt"
	"sync"

	"gxpc/internal/tree"
)

// Loader returns the signature root of the unit defining name. Callers may
// invoke it concurrently and more than once per name.
type Loader func(name tree.TemplateName) (tree.Root, bool)

// OnDemand resolves names against units compiled in the same run, loading
// each unit's signature the first time it is asked for. Results are
// memoized; a duplicate load racing the first is discarded.
type OnDemand struct {
	load  Loader
	names func() []tree.TemplateName
	cache sync.Map // tree.TemplateName -> entry
}

// NewOnDemand wraps load. names may be nil if the unit set cannot be listed.
func NewOnDemand(load Loader, names func() []tree.TemplateName) *OnDemand {
	return &OnDemand{load: load, names: names}
}

func (d *OnDemand) get(n tree.TemplateName) entry {
	if !n.IsQualified() {
		panic(fmt.Sprintf("servicedir: %q must be fully qualified", n))
	}
	if v, ok := d.cache.Load(n); ok {
		return v.(entry)
	}
	var e entry
	if r, ok := d.load(n); ok {
		e.callable, e.instance, e.implementable = Exports(r)
	}
	v, _ := d.cache.LoadOrStore(n, e)
	return v.(entry)
}

func (d *OnDemand) Callable(n tree.TemplateName) (*tree.Callable, bool) {
	e := d.get(n)
	return e.callable, e.callable != nil
}

func (d *OnDemand) InstanceCallable(n tree.TemplateName) (*tree.Callable, bool) {
	e := d.get(n)
	return e.instance, e.instance != nil
}

func (d *OnDemand) Implementable(n tree.TemplateName) (*tree.Callable, bool) {
	e := d.get(n)
	return e.implementable, e.implementable != nil
}

func (d *OnDemand) Names() []tree.TemplateName {
	if d.names == nil {
		return nil
	}
	return d.names()
}
