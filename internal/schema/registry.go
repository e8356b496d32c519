package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// ErrDuplicate is returned when two schemas claim the same content type.
var ErrDuplicate = errors.New("duplicate schema")

// Registry maps canonical content types to schemas. It is safe for
// concurrent lookups once populated.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]*Schema
	byName map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[string]*Schema),
		byName: make(map[string]*Schema),
	}
}

// Lookup finds a schema by content type.
func (r *Registry) Lookup(contentType string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[strings.ToLower(strings.TrimSpace(contentType))]
	return s, ok
}

// ByName finds a schema by its short name ("html", "javascript", ...).
func (r *Registry) ByName(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Schemas returns every registered schema sorted by name.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Schema) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Def is the declarative form of a schema, as written in TOML.
type Def struct {
	Name        string            `toml:"name"`
	ContentType string            `toml:"content_type"`
	Allows      []string          `toml:"allows"`
	MsgSchema   string            `toml:"msg_schema"`
	Native      map[string]string `toml:"native"`
	Elements    []ElementDef      `toml:"element"`
}

type ElementDef struct {
	Tag              string    `toml:"tag"`
	Flags            []string  `toml:"flags"`
	InnerContentType string    `toml:"inner_content_type"`
	Attributes       []AttrDef `toml:"attribute"`
}

type AttrDef struct {
	Name        string   `toml:"name"`
	ContentType string   `toml:"content_type"`
	Pattern     string   `toml:"pattern"`
	Flags       []string `toml:"flags"`
	Default     string   `toml:"default"`
}

type fileDefs struct {
	Schemas []Def `toml:"schema"`
}

// LoadFile reads [[schema]] tables from a TOML file and registers them.
func (r *Registry) LoadFile(path string) error {
	var defs fileDefs
	if _, err := toml.DecodeFile(path, &defs); err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := r.Register(defs.Schemas...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Register adds schemas and resolves their message schema references. A
// message schema may point at a schema from the same batch or one already
// registered.
func (r *Registry) Register(defs ...Def) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	built := make([]*Schema, 0, len(defs))
	for i := range defs {
		s, err := buildSchema(&defs[i])
		if err != nil {
			return err
		}
		if _, dup := r.byType[s.ContentType]; dup {
			return fmt.Errorf("%w: duplicate definition for content-type: %s", ErrDuplicate, s.ContentType)
		}
		if _, dup := r.byName[s.Name]; dup {
			return fmt.Errorf("%w: duplicate schema name: %s", ErrDuplicate, s.Name)
		}
		r.byType[s.ContentType] = s
		r.byName[s.Name] = s
		built = append(built, s)
	}
	for i, s := range built {
		ref := defs[i].MsgSchema
		if ref == "" {
			continue
		}
		msg, ok := r.byName[ref]
		if !ok {
			msg, ok = r.byType[ref]
		}
		if !ok {
			return fmt.Errorf("schema %s: unknown msg_schema %q", s.Name, ref)
		}
		s.msgSchema = msg
	}
	return nil
}

func buildSchema(d *Def) (*Schema, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("schema without name")
	}
	if strings.TrimSpace(d.ContentType) == "" {
		return nil, fmt.Errorf("schema %s: missing content_type", d.Name)
	}
	s := &Schema{
		Name:        d.Name,
		ContentType: strings.ToLower(strings.TrimSpace(d.ContentType)),
		Family:      FamilyFor(d.ContentType),
		Allowed:     slices.Clone(d.Allows),
		NativeTypes: make(map[Backend]string, len(d.Native)),
		elements:    make(map[string]*ElementValidator, len(d.Elements)),
	}
	for k, v := range d.Native {
		s.NativeTypes[Backend(k)] = v
	}
	for _, ed := range d.Elements {
		ev, err := buildElement(ed)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", d.Name, err)
		}
		s.elements[ev.Tag] = ev
	}
	return s, nil
}

func buildElement(ed ElementDef) (*ElementValidator, error) {
	var flags ElementFlag
	for _, f := range ed.Flags {
		v, ok := elementFlagNames[strings.ToLower(f)]
		if !ok {
			return nil, fmt.Errorf("element %s: unknown flag %q", ed.Tag, f)
		}
		flags |= v
	}
	attrs := make([]*AttributeValidator, 0, len(ed.Attributes))
	for _, ad := range ed.Attributes {
		av, err := buildAttr(ad)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", ed.Tag, err)
		}
		attrs = append(attrs, av)
	}
	return NewElementValidator(ed.Tag, flags, ed.InnerContentType, attrs...), nil
}

func buildAttr(ad AttrDef) (*AttributeValidator, error) {
	av := &AttributeValidator{
		Name:        ad.Name,
		ContentType: ad.ContentType,
		Default:     ad.Default,
	}
	for _, f := range ad.Flags {
		v, ok := attrFlagNames[strings.ToLower(f)]
		if !ok {
			return nil, fmt.Errorf("attribute %s: unknown flag %q", ad.Name, f)
		}
		av.Flags |= v
	}
	if ad.Pattern != "" {
		// шаблон должен совпадать со всем значением
		re, err := regexp.Compile("^(?:" + ad.Pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("attribute %s: invalid pattern: %w", ad.Name, err)
		}
		av.Pattern = re
	}
	return av, nil
}
