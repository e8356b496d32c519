package testkit

import (
	"sync/atomic"

	"gxpc/internal/schema"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

// Pos is the position used by builders: line n of "test.gxp".
func Pos(line uint32) source.Pos {
	return source.At("test.gxp", line, 1)
}

var line atomic.Uint32

func next() source.Pos {
	return Pos(line.Add(1))
}

func Text(s string) *tree.Expr { return tree.NewString(next(), nil, s) }

func Native(code string) *tree.Expr { return tree.NewNative(next(), code) }

func Object(v string) *tree.Expr { return tree.NewObjectConstant(next(), v) }

func Concat(values ...*tree.Expr) *tree.Expr {
	return tree.NewConcatenation(next(), nil, values)
}

// Collapse wraps content in a collapse marker with unset operators.
func Collapse(e *tree.Expr) *tree.Expr {
	return tree.NewCollapse(e, tree.SpaceOperatorSet{})
}

func Attr(name string, value *tree.Expr) *tree.Attribute {
	return tree.NewAttribute(next(), name, value)
}

// Element builds an output element validated by s's validator for tag.
// Elements unknown to s get an empty non-standard validator.
func Element(s *schema.Schema, tag string, content *tree.Expr, attrs ...*tree.Attribute) *tree.Expr {
	v, ok := s.Element(tag)
	if !ok {
		v = schema.NewElementValidator(tag, 0, "")
	}
	var inner *schema.Schema
	if v.InnerContentType != "" {
		inner = innerSchemas[v.InnerContentType]
	}
	if content == nil {
		content = tree.NewString(next(), nil, "")
	}
	return tree.NewOutputElement(next(), s, tree.OutputElementData{
		Tag:         tag,
		Attributes:  attrs,
		Content:     content,
		Validator:   v,
		InnerSchema: inner,
	})
}

// Call builds an unbound call; content may be nil. Content is wrapped in a
// collapse marker the way the parser delivers it.
func Call(name string, content *tree.Expr, attrs ...*tree.Attribute) *tree.Expr {
	if content == nil {
		content = tree.NewString(next(), nil, "")
	}
	return tree.NewUnboundCall(next(), tree.MustTemplateName(name), attrs, nil, Collapse(content))
}

func Msg(content ...*tree.Expr) *tree.Expr {
	return tree.NewUnextractedMessage(next(), nil, tree.UnextractedMessageData{
		Content: tree.NewConcatenation(next(), nil, content),
	})
}

func Ph(name, example string) *tree.Expr { return tree.NewPlaceholderStart(next(), name, example) }

func Eph() *tree.Expr { return tree.NewPlaceholderEnd(next()) }

// Param declares a parameter of type t.
func Param(name string, t *tree.Type) *tree.Parameter {
	return &tree.Parameter{Name: name, Type: t, Pos: next()}
}

// ContentParam declares the content-consuming parameter.
func ContentParam(name string, s *schema.Schema) *tree.Parameter {
	return &tree.Parameter{Name: name, Type: tree.ContentType(s), ConsumesContent: true, Pos: next()}
}

// Template builds a template whose content is wrapped in a collapse marker,
// the way the parser delivers it. Nil content is empty text.
func Template(name string, s *schema.Schema, content *tree.Expr, params ...*tree.Parameter) *tree.Template {
	if content == nil {
		content = tree.NewString(next(), nil, "")
	}
	return &tree.Template{
		Name:    tree.MustTemplateName(name),
		Schema:  s,
		Params:  params,
		Content: Collapse(content),
		Pos:     next(),
	}
}

// Callable builds a template callable for directory fixtures.
func Callable(name string, s *schema.Schema, params ...*tree.Parameter) *tree.Callable {
	return &tree.Callable{Kind: tree.CallableTemplate, Name: tree.MustTemplateName(name), Schema: s, Params: params}
}

var builtin = schema.Builtin()

var innerSchemas = func() map[string]*schema.Schema {
	out := map[string]*schema.Schema{}
	for _, s := range builtin.Schemas() {
		out[s.ContentType] = s
	}
	return out
}()

// Schema returns a built-in schema by name ("html", "javascript", ...).
// All builders share one registry so schemas compare by identity.
func Schema(name string) *schema.Schema {
	s, ok := builtin.ByName(name)
	if !ok {
		panic("testkit: unknown schema " + name)
	}
	return s
}

// Registry is the registry Schema draws from.
func Registry() *schema.Registry { return builtin }
