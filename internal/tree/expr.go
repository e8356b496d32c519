package tree

import (
	"gxpc/internal/schema"
	"gxpc/internal/source"
)

// ExprKind enumerates template expression kinds. The set is closed; every
// rewrite strategy switches over all of them.
type ExprKind uint8

const (
	// ExprString is literal text.
	ExprString ExprKind = iota
	// ExprBoolean is a boolean literal.
	ExprBoolean
	// ExprObjectConstant is a raw attribute literal not yet parsed against a type.
	ExprObjectConstant
	// ExprConstructedConstant is a literal passed through a parameter constructor.
	ExprConstructedConstant
	// ExprNative is a host-language expression; its code is opaque.
	ExprNative
	// ExprConcatenation joins values in order.
	ExprConcatenation
	// ExprConditional picks the first clause whose predicate holds.
	ExprConditional
	// ExprOutputElement is a literal markup element.
	ExprOutputElement
	// ExprUnboundCall references its callee by name only.
	ExprUnboundCall
	// ExprBoundCall has a resolved callee and typed attributes.
	ExprBoundCall
	// ExprValidatedCall is a bound call that passed validation.
	ExprValidatedCall
	// ExprUnextractedMessage is a translatable message with raw content.
	ExprUnextractedMessage
	// ExprExtractedMessage references a finalized message record.
	ExprExtractedMessage
	// ExprNoMessage marks content that must not be translated.
	ExprNoMessage
	// ExprCollapse applies space operators to its subexpression.
	ExprCollapse
	// ExprEscape converts its subexpression into the node's schema.
	ExprEscape
	// ExprAttrBundleParam is a set of attributes passed to a bundle parameter.
	ExprAttrBundleParam
	// ExprPlaceholderStart opens a placeholder inside a message.
	ExprPlaceholderStart
	// ExprPlaceholderEnd closes the innermost open placeholder.
	ExprPlaceholderEnd
	// ExprPlaceholderNode is a placeholder with its content pivoted inside.
	ExprPlaceholderNode

	exprKindCount
)

// AllExprKinds lists every kind in declaration order.
func AllExprKinds() []ExprKind {
	out := make([]ExprKind, 0, exprKindCount)
	for k := ExprKind(0); k < exprKindCount; k++ {
		out = append(out, k)
	}
	return out
}

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprString:
		return "String"
	case ExprBoolean:
		return "Boolean"
	case ExprObjectConstant:
		return "ObjectConstant"
	case ExprConstructedConstant:
		return "ConstructedConstant"
	case ExprNative:
		return "Native"
	case ExprConcatenation:
		return "Concatenation"
	case ExprConditional:
		return "Conditional"
	case ExprOutputElement:
		return "OutputElement"
	case ExprUnboundCall:
		return "UnboundCall"
	case ExprBoundCall:
		return "BoundCall"
	case ExprValidatedCall:
		return "ValidatedCall"
	case ExprUnextractedMessage:
		return "UnextractedMessage"
	case ExprExtractedMessage:
		return "ExtractedMessage"
	case ExprNoMessage:
		return "NoMessage"
	case ExprCollapse:
		return "Collapse"
	case ExprEscape:
		return "Escape"
	case ExprAttrBundleParam:
		return "AttrBundleParam"
	case ExprPlaceholderStart:
		return "PlaceholderStart"
	case ExprPlaceholderEnd:
		return "PlaceholderEnd"
	case ExprPlaceholderNode:
		return "PlaceholderNode"
	default:
		return "Unknown"
	}
}

// Expr is an immutable template expression. Schema is nil until the
// escaper assigns one, except where the source declared it.
type Expr struct {
	Kind   ExprKind
	Schema *schema.Schema
	Pos    source.Pos
	Data   ExprData
}

// ExprData is the kind-specific payload.
type ExprData interface {
	exprData()
}

type StringData struct {
	Text string
}

func (StringData) exprData() {}

type BooleanData struct {
	Value bool
}

func (BooleanData) exprData() {}

type ObjectConstantData struct {
	Value string
	// Type is set once the literal has been parsed against a native type.
	Type *Type
}

func (ObjectConstantData) exprData() {}

type ConstructedConstantData struct {
	Value  string
	Callee *Callable
	Param  *Parameter
}

func (ConstructedConstantData) exprData() {}

type NativeData struct {
	Code string
}

func (NativeData) exprData() {}

type ConcatenationData struct {
	Values []*Expr
}

func (ConcatenationData) exprData() {}

// Clause is one predicate/expression arm of a conditional.
type Clause struct {
	Predicate *Expr
	Expr      *Expr
}

type ConditionalData struct {
	Clauses []Clause
	Else    *Expr
}

func (ConditionalData) exprData() {}

type OutputElementData struct {
	Tag        string
	Attributes []*Attribute
	// Bundles names the enclosing template's bundle parameters splatted
	// into this element.
	Bundles     []string
	Content     *Expr
	Validator   *schema.ElementValidator
	InnerSchema *schema.Schema
}

func (OutputElementData) exprData() {}

type UnboundCallData struct {
	Callee     TemplateName
	Attributes []*Attribute
	Bundles    []string
	Content    *Expr
}

func (UnboundCallData) exprData() {}

// BoundCallData is shared by bound and validated calls. Content has been
// moved into the content parameter's attribute.
type BoundCallData struct {
	Callee     *Callable
	Attributes []*Attribute
	Bundles    []string
}

func (BoundCallData) exprData() {}

type UnextractedMessageData struct {
	Content     *Expr
	Meaning     string
	Description string
	Hidden      bool
}

func (UnextractedMessageData) exprData() {}

type ExtractedMessageData struct {
	ID      uint64
	Pattern string
	Params  []*Expr
}

func (ExtractedMessageData) exprData() {}

type NoMessageData struct {
	Sub *Expr
}

func (NoMessageData) exprData() {}

type CollapseData struct {
	Sub *Expr
	Ops SpaceOperatorSet
}

func (CollapseData) exprData() {}

type EscapeData struct {
	Sub *Expr
}

func (EscapeData) exprData() {}

// BundleEntry pairs an attribute with the callee validator it satisfies.
type BundleEntry struct {
	Validator *schema.AttributeValidator
	Attr      *Attribute
}

type AttrBundleParamData struct {
	Entries []BundleEntry
	// Include restricts which attributes of passed-through bundles are kept;
	// empty means all.
	Include []string
	// SubBundles are the caller's bundle parameters passed through.
	SubBundles []string
}

func (AttrBundleParamData) exprData() {}

type PlaceholderStartData struct {
	Name    string
	Example string
}

func (PlaceholderStartData) exprData() {}

type PlaceholderEndData struct{}

func (PlaceholderEndData) exprData() {}

type PlaceholderNodeData struct {
	Name    string
	Example string
	Content *Expr
}

func (PlaceholderNodeData) exprData() {}

// Attribute is a named value on an element, call, or bundle. It is not an
// expression itself.
type Attribute struct {
	Name  string
	Value *Expr
	// Cond, if set, makes the attribute conditional.
	Cond        *Expr
	InnerSchema *schema.Schema
	Pos         source.Pos
}

func NewAttribute(pos source.Pos, name string, value *Expr) *Attribute {
	return &Attribute{Name: name, Value: value, Pos: pos}
}

func (a *Attribute) WithValue(v *Expr) *Attribute {
	if a.Value == v {
		return a
	}
	c := *a
	c.Value = v
	return &c
}

func (a *Attribute) WithCond(cond *Expr) *Attribute {
	if a.Cond == cond {
		return a
	}
	c := *a
	c.Cond = cond
	return &c
}

func (a *Attribute) WithInnerSchema(s *schema.Schema) *Attribute {
	if a.InnerSchema == s {
		return a
	}
	c := *a
	c.InnerSchema = s
	return &c
}

func (a *Attribute) DisplayName() string {
	return "'" + a.Name + "' attribute"
}

// DisplayName names the node the way the template author wrote it.
func (e *Expr) DisplayName() string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case StringData:
		return "text"
	case BooleanData:
		return "boolean value"
	case ObjectConstantData, ConstructedConstantData:
		return "attribute value"
	case NativeData:
		return "expression"
	case ConcatenationData:
		return "content"
	case ConditionalData:
		return "<gxp:if>"
	case OutputElementData:
		return "<" + d.Tag + ">"
	case UnboundCallData:
		return "call to " + d.Callee.String()
	case BoundCallData:
		return "call to " + d.Callee.Name.String()
	case UnextractedMessageData, ExtractedMessageData:
		return "<gxp:msg>"
	case NoMessageData:
		return "<gxp:nomsg>"
	case CollapseData:
		return d.Sub.DisplayName()
	case EscapeData:
		return d.Sub.DisplayName()
	case AttrBundleParamData:
		return "attribute bundle"
	case PlaceholderStartData, PlaceholderNodeData:
		return "<gxp:ph>"
	case PlaceholderEndData:
		return "<gxp:eph>"
	}
	return e.Kind.String()
}

// WithData returns a copy carrying a new payload of the same kind.
func (e *Expr) WithData(d ExprData) *Expr {
	c := *e
	c.Data = d
	return &c
}

// WithSchema returns e if the schema is unchanged.
func (e *Expr) WithSchema(s *schema.Schema) *Expr {
	if e.Schema == s {
		return e
	}
	c := *e
	c.Schema = s
	return &c
}

func sameExprs(a, b []*Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameAttrs(a, b []*Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
