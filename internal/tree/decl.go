package tree

import (
	"regexp"

	"gxpc/internal/schema"
	"gxpc/internal/source"
)

// InstanceParamName is the implicit first parameter of every interface.
const InstanceParamName = "this"

// Parameter is a formal parameter of a template or interface.
type Parameter struct {
	Name    string
	Aliases []string
	Type    *Type
	Default *Expr
	// Constructor converts a literal into the parameter's native type.
	Constructor        *Expr
	Regex              *regexp.Regexp
	HasDefaultFlag     bool
	HasConstructorFlag bool
	ConsumesContent    bool
	SpaceOps           SpaceOperatorSet
	Pos                source.Pos
}

func (p *Parameter) HasDefault() bool {
	return p.Default != nil || p.HasDefaultFlag || p.Type.HasImplicitDefault()
}

func (p *Parameter) HasConstructor() bool {
	return p.Constructor != nil || p.HasConstructorFlag
}

// Names lists the attribute names this parameter answers to: the bundle's
// attributes for bundle types, otherwise the primary name and aliases.
func (p *Parameter) Names() []string {
	if p.Type.IsBundle() {
		return p.Type.AttrNames()
	}
	out := make([]string, 0, 1+len(p.Aliases))
	out = append(out, p.Name)
	return append(out, p.Aliases...)
}

// RegexMatches checks a literal against the declared regex, if any.
func (p *Parameter) RegexMatches(value string) bool {
	return p.Regex == nil || p.Regex.MatchString(value)
}

func (p *Parameter) WithDefault(def *Expr) *Parameter {
	if p.Default == def {
		return p
	}
	c := *p
	c.Default = def
	return &c
}

// CallableKind distinguishes the three directory lookups.
type CallableKind uint8

const (
	CallableTemplate CallableKind = iota
	CallableInterface
	CallableInstance
)

func (k CallableKind) String() string {
	switch k {
	case CallableTemplate:
		return "template"
	case CallableInterface:
		return "interface"
	case CallableInstance:
		return "instance"
	}
	return "unknown"
}

// Callable is an exported, invocable definition.
type Callable struct {
	Kind   CallableKind
	Name   TemplateName
	Schema *schema.Schema
	Params []*Parameter
}

// Param finds a parameter by any of its names.
func (c *Callable) Param(name string) *Parameter {
	for _, p := range c.Params {
		for _, n := range p.Names() {
			if n == name {
				return p
			}
		}
	}
	return nil
}

// ParamByPrimary finds a parameter by its primary name only.
func (c *Callable) ParamByPrimary(name string) *Parameter {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ContentParam returns the first parameter that consumes call content.
func (c *Callable) ContentParam() *Parameter {
	for _, p := range c.Params {
		if p.ConsumesContent {
			return p
		}
	}
	return nil
}

// ImportKind distinguishes class and package imports.
type ImportKind uint8

const (
	ImportClass ImportKind = iota
	ImportPackage
)

// Import is either a class import ("a.b.Foo") or a package import ("a.b.*").
type Import struct {
	Kind ImportKind
	// Name is the imported class for ImportClass.
	Name TemplateName
	// Package is the imported package for ImportPackage.
	Package string
	Pos     source.Pos
}

func ClassImport(pos source.Pos, name TemplateName) Import {
	return Import{Kind: ImportClass, Name: name, Pos: pos}
}

func PackageImport(pos source.Pos, pkg string) Import {
	return Import{Kind: ImportPackage, Package: pkg, Pos: pos}
}

func (i Import) String() string {
	if i.Kind == ImportPackage {
		return i.Package + ".*"
	}
	return i.Name.String()
}

// Implements is one implements declaration of a template. Bound is set by
// the binder once the interface resolves.
type Implements struct {
	Name  TemplateName
	Bound *Callable
	Pos   source.Pos
}

// Root is a compilation unit: a *Template or an *Interface.
type Root interface {
	RootName() TemplateName
	RootSchema() *schema.Schema
	RootImports() []Import
	RootPos() source.Pos
	isRoot()
}

type Template struct {
	Name        TemplateName
	Schema      *schema.Schema
	Imports     []Import
	Constructor []*Parameter
	Params      []*Parameter
	Implements  []Implements
	Content     *Expr
	Pos         source.Pos
}

func (t *Template) RootName() TemplateName     { return t.Name }
func (t *Template) RootSchema() *schema.Schema { return t.Schema }
func (t *Template) RootImports() []Import      { return t.Imports }
func (t *Template) RootPos() source.Pos        { return t.Pos }
func (*Template) isRoot()                      {}

// Callable exposes the template to other units.
func (t *Template) Callable() *Callable {
	return &Callable{Kind: CallableTemplate, Name: t.Name, Schema: t.Schema, Params: t.Params}
}

// BundleParam returns the template's bundle parameter with the given name.
func (t *Template) BundleParam(name string) *Parameter {
	for _, p := range t.Params {
		if p.Name == name && p.Type.IsBundle() {
			return p
		}
	}
	return nil
}

type Interface struct {
	Name    TemplateName
	Schema  *schema.Schema
	Imports []Import
	// Params starts with the implicit instance parameter.
	Params []*Parameter
	Pos    source.Pos
}

// NewInterface prepends the instance parameter.
func NewInterface(pos source.Pos, name TemplateName, s *schema.Schema, imports []Import, params []*Parameter) *Interface {
	this := &Parameter{Name: InstanceParamName, Type: NativeType(name.String()), Pos: pos}
	all := make([]*Parameter, 0, len(params)+1)
	all = append(all, this)
	all = append(all, params...)
	return &Interface{Name: name, Schema: s, Imports: imports, Params: all, Pos: pos}
}

func (i *Interface) RootName() TemplateName     { return i.Name }
func (i *Interface) RootSchema() *schema.Schema { return i.Schema }
func (i *Interface) RootImports() []Import      { return i.Imports }
func (i *Interface) RootPos() source.Pos        { return i.Pos }
func (*Interface) isRoot()                      {}

// Implementable exposes the interface for implements declarations.
func (i *Interface) Implementable() *Callable {
	return &Callable{Kind: CallableInterface, Name: i.Name, Schema: i.Schema, Params: i.Params}
}

// InstanceCallable is what a call with a "this" attribute binds to.
func (i *Interface) InstanceCallable() *Callable {
	return &Callable{Kind: CallableInstance, Name: i.Name, Schema: i.Schema, Params: i.Params}
}
