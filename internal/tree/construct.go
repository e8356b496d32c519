package tree

import (
	"strings"

	"gxpc/internal/schema"
	"gxpc/internal/source"
)

func NewString(pos source.Pos, s *schema.Schema, text string) *Expr {
	return &Expr{Kind: ExprString, Schema: s, Pos: pos, Data: StringData{Text: text}}
}

func NewBoolean(pos source.Pos, v bool) *Expr {
	return &Expr{Kind: ExprBoolean, Pos: pos, Data: BooleanData{Value: v}}
}

func NewObjectConstant(pos source.Pos, value string) *Expr {
	return &Expr{Kind: ExprObjectConstant, Pos: pos, Data: ObjectConstantData{Value: value}}
}

func NewConstructedConstant(pos source.Pos, value string, callee *Callable, p *Parameter) *Expr {
	return &Expr{Kind: ExprConstructedConstant, Pos: pos, Data: ConstructedConstantData{Value: value, Callee: callee, Param: p}}
}

func NewNative(pos source.Pos, code string) *Expr {
	return &Expr{Kind: ExprNative, Pos: pos, Data: NativeData{Code: code}}
}

// NewConcatenation flattens nested concatenations and merges adjacent text.
// No values yield empty text and a single value is returned as is.
func NewConcatenation(pos source.Pos, s *schema.Schema, values []*Expr) *Expr {
	values = simplifyConcat(s, values)
	switch len(values) {
	case 0:
		return NewString(pos, s, "")
	case 1:
		return values[0]
	}
	return &Expr{Kind: ExprConcatenation, Schema: s, Pos: pos, Data: ConcatenationData{Values: values}}
}

func simplifyConcat(s *schema.Schema, values []*Expr) []*Expr {
	out := make([]*Expr, 0, len(values))
	var (
		sb    strings.Builder
		first *Expr
		count int
	)
	flush := func() {
		if first == nil {
			return
		}
		switch {
		case sb.Len() == 0:
		case count == 1 && (s == nil || first.Schema == s):
			out = append(out, first)
		default:
			ms := s
			if ms == nil {
				ms = first.Schema
			}
			out = append(out, NewString(first.Pos, ms, sb.String()))
		}
		sb.Reset()
		first, count = nil, 0
	}
	var walk func([]*Expr)
	walk = func(vs []*Expr) {
		for _, v := range vs {
			if v == nil {
				panic("tree: nil value in concatenation")
			}
			switch d := v.Data.(type) {
			case StringData:
				if first == nil {
					first = v
				}
				sb.WriteString(d.Text)
				count++
			case ConcatenationData:
				walk(d.Values)
			default:
				flush()
				out = append(out, v)
			}
		}
	}
	walk(values)
	flush()
	return out
}

func NewConditional(pos source.Pos, s *schema.Schema, clauses []Clause, els *Expr) *Expr {
	return &Expr{Kind: ExprConditional, Schema: s, Pos: pos, Data: ConditionalData{Clauses: clauses, Else: els}}
}

func NewOutputElement(pos source.Pos, s *schema.Schema, d OutputElementData) *Expr {
	return &Expr{Kind: ExprOutputElement, Schema: s, Pos: pos, Data: d}
}

func NewUnboundCall(pos source.Pos, callee TemplateName, attrs []*Attribute, bundles []string, content *Expr) *Expr {
	return &Expr{Kind: ExprUnboundCall, Pos: pos, Data: UnboundCallData{Callee: callee, Attributes: attrs, Bundles: bundles, Content: content}}
}

// NewBoundCall takes its schema from the callee.
func NewBoundCall(pos source.Pos, callee *Callable, attrs []*Attribute, bundles []string) *Expr {
	return &Expr{Kind: ExprBoundCall, Schema: callee.Schema, Pos: pos, Data: BoundCallData{Callee: callee, Attributes: attrs, Bundles: bundles}}
}

// Validated promotes a bound call.
func (e *Expr) Validated() *Expr {
	if e.Kind != ExprBoundCall {
		panic("tree: only bound calls can be validated, got " + e.Kind.String())
	}
	c := *e
	c.Kind = ExprValidatedCall
	return &c
}

func NewUnextractedMessage(pos source.Pos, s *schema.Schema, d UnextractedMessageData) *Expr {
	return &Expr{Kind: ExprUnextractedMessage, Schema: s, Pos: pos, Data: d}
}

func NewExtractedMessage(pos source.Pos, s *schema.Schema, id uint64, pattern string, params []*Expr) *Expr {
	return &Expr{Kind: ExprExtractedMessage, Schema: s, Pos: pos, Data: ExtractedMessageData{ID: id, Pattern: pattern, Params: params}}
}

func NewNoMessage(pos source.Pos, sub *Expr) *Expr {
	return &Expr{Kind: ExprNoMessage, Schema: sub.Schema, Pos: pos, Data: NoMessageData{Sub: sub}}
}

// NewCollapse merges a directly nested collapse into one wrapper. If the
// nested wrapper already carries the merged operators it is returned as is.
func NewCollapse(sub *Expr, ops SpaceOperatorSet) *Expr {
	if d, ok := sub.Data.(CollapseData); ok {
		ops = d.Ops.InheritFrom(ops)
		if ops == d.Ops {
			return sub
		}
		sub = d.Sub
	}
	return &Expr{Kind: ExprCollapse, Schema: sub.Schema, Pos: sub.Pos, Data: CollapseData{Sub: sub, Ops: ops}}
}

func NewEscape(s *schema.Schema, sub *Expr) *Expr {
	return &Expr{Kind: ExprEscape, Schema: s, Pos: sub.Pos, Data: EscapeData{Sub: sub}}
}

func NewAttrBundleParam(pos source.Pos, s *schema.Schema, d AttrBundleParamData) *Expr {
	return &Expr{Kind: ExprAttrBundleParam, Schema: s, Pos: pos, Data: d}
}

func NewPlaceholderStart(pos source.Pos, name, example string) *Expr {
	return &Expr{Kind: ExprPlaceholderStart, Pos: pos, Data: PlaceholderStartData{Name: name, Example: example}}
}

func NewPlaceholderEnd(pos source.Pos) *Expr {
	return &Expr{Kind: ExprPlaceholderEnd, Pos: pos, Data: PlaceholderEndData{}}
}

func NewPlaceholderNode(pos source.Pos, s *schema.Schema, name, example string, content *Expr) *Expr {
	return &Expr{Kind: ExprPlaceholderNode, Schema: s, Pos: pos, Data: PlaceholderNodeData{Name: name, Example: example, Content: content}}
}

// With* helpers below return the receiver when nothing changed.

func (e *Expr) WithValues(values []*Expr) *Expr {
	d := e.Data.(ConcatenationData)
	if sameExprs(d.Values, values) {
		return e
	}
	return NewConcatenation(e.Pos, e.Schema, values)
}

func (e *Expr) WithClauses(clauses []Clause, els *Expr) *Expr {
	d := e.Data.(ConditionalData)
	if d.Else == els && len(d.Clauses) == len(clauses) {
		same := true
		for i := range clauses {
			if clauses[i] != d.Clauses[i] {
				same = false
				break
			}
		}
		if same {
			return e
		}
	}
	return e.WithData(ConditionalData{Clauses: clauses, Else: els})
}

func (e *Expr) WithElement(attrs []*Attribute, content *Expr) *Expr {
	d := e.Data.(OutputElementData)
	if d.Content == content && sameAttrs(d.Attributes, attrs) {
		return e
	}
	d.Attributes = attrs
	d.Content = content
	return e.WithData(d)
}

func (e *Expr) WithUnboundCall(attrs []*Attribute, content *Expr) *Expr {
	d := e.Data.(UnboundCallData)
	if d.Content == content && sameAttrs(d.Attributes, attrs) {
		return e
	}
	d.Attributes = attrs
	d.Content = content
	return e.WithData(d)
}

// WithParams applies to bound and validated calls.
func (e *Expr) WithParams(attrs []*Attribute) *Expr {
	d := e.Data.(BoundCallData)
	if sameAttrs(d.Attributes, attrs) {
		return e
	}
	d.Attributes = attrs
	return e.WithData(d)
}

func (e *Expr) WithMessageContent(content *Expr) *Expr {
	d := e.Data.(UnextractedMessageData)
	if d.Content == content {
		return e
	}
	d.Content = content
	return e.WithData(d)
}

func (e *Expr) WithMessageParams(params []*Expr) *Expr {
	d := e.Data.(ExtractedMessageData)
	if sameExprs(d.Params, params) {
		return e
	}
	d.Params = params
	return e.WithData(d)
}

// WithSub applies to NoMessage, Collapse and Escape.
func (e *Expr) WithSub(sub *Expr) *Expr {
	switch d := e.Data.(type) {
	case NoMessageData:
		if d.Sub == sub {
			return e
		}
		c := e.WithData(NoMessageData{Sub: sub})
		c.Schema = sub.Schema
		return c
	case CollapseData:
		if d.Sub == sub {
			return e
		}
		return e.WithData(CollapseData{Sub: sub, Ops: d.Ops})
	case EscapeData:
		if d.Sub == sub {
			return e
		}
		return e.WithData(EscapeData{Sub: sub})
	}
	panic("tree: WithSub on " + e.Kind.String())
}

func (e *Expr) WithBundleEntries(entries []BundleEntry) *Expr {
	d := e.Data.(AttrBundleParamData)
	if len(d.Entries) == len(entries) {
		same := true
		for i := range entries {
			if entries[i] != d.Entries[i] {
				same = false
				break
			}
		}
		if same {
			return e
		}
	}
	d.Entries = entries
	return e.WithData(d)
}

func (e *Expr) WithPlaceholderContent(content *Expr) *Expr {
	d := e.Data.(PlaceholderNodeData)
	if d.Content == content {
		return e
	}
	d.Content = content
	return e.WithData(d)
}

// Text returns the literal of a string constant.
func (e *Expr) Text() string {
	return e.Data.(StringData).Text
}

// IsEmptyString reports an empty string constant.
func (e *Expr) IsEmptyString() bool {
	d, ok := e.Data.(StringData)
	return ok && d.Text == ""
}
