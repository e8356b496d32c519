package testkit

import (
	"sync"

	"gxpc/internal/tree"
)

// Directory is an in-memory symbol directory that records every lookup.
type Directory struct {
	mu        sync.Mutex
	callables map[tree.TemplateName]*tree.Callable
	ifaces    map[tree.TemplateName]*tree.Interface
	lookups   []tree.TemplateName
}

func NewDirectory() *Directory {
	return &Directory{
		callables: make(map[tree.TemplateName]*tree.Callable),
		ifaces:    make(map[tree.TemplateName]*tree.Interface),
	}
}

// Add registers callables under their qualified names.
func (d *Directory) Add(cs ...*tree.Callable) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cs {
		d.callables[c.Name] = c
	}
	return d
}

// AddInterface registers an interface for implementable and instance lookups.
func (d *Directory) AddInterface(i *tree.Interface) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ifaces[i.Name] = i
	return d
}

func (d *Directory) record(n tree.TemplateName) {
	d.mu.Lock()
	d.lookups = append(d.lookups, n)
	d.mu.Unlock()
}

func (d *Directory) Callable(n tree.TemplateName) (*tree.Callable, bool) {
	d.record(n)
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.callables[n]
	return c, ok
}

func (d *Directory) InstanceCallable(n tree.TemplateName) (*tree.Callable, bool) {
	d.record(n)
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.ifaces[n]
	if !ok {
		return nil, false
	}
	return i.InstanceCallable(), true
}

func (d *Directory) Implementable(n tree.TemplateName) (*tree.Callable, bool) {
	d.record(n)
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.ifaces[n]
	if !ok {
		return nil, false
	}
	return i.Implementable(), true
}

// Names lists every registered qualified name.
func (d *Directory) Names() []tree.TemplateName {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]tree.TemplateName, 0, len(d.callables)+len(d.ifaces))
	for n := range d.callables {
		out = append(out, n)
	}
	for n := range d.ifaces {
		out = append(out, n)
	}
	return out
}

// Lookups returns every name looked up so far, in order.
func (d *Directory) Lookups() []tree.TemplateName {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]tree.TemplateName(nil), d.lookups...)
}
