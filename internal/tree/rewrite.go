package tree

import "fmt"

// Exhaustive rebuilds every node bottom-up. Override may take over any
// node; overrides that want the choke-point check call Post themselves.
// PostProcess runs on every node rebuilt by RewriteChildren.
type Exhaustive struct {
	Override    func(e *Expr) (*Expr, bool)
	PostProcess func(e *Expr) *Expr
	// Attr replaces the default attribute rewrite.
	Attr func(a *Attribute) *Attribute
}

func (v *Exhaustive) Rewrite(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	if v.Override != nil {
		if out, ok := v.Override(e); ok {
			return out
		}
	}
	return v.Post(v.RewriteChildren(e))
}

// Post applies PostProcess, if set.
func (v *Exhaustive) Post(e *Expr) *Expr {
	if v.PostProcess == nil {
		return e
	}
	return v.PostProcess(e)
}

func (v *Exhaustive) RewriteAll(es []*Expr) []*Expr {
	out := make([]*Expr, len(es))
	for i, e := range es {
		out[i] = v.Rewrite(e)
	}
	return out
}

func (v *Exhaustive) RewriteAttr(a *Attribute) *Attribute {
	if a == nil {
		return nil
	}
	if v.Attr != nil {
		return v.Attr(a)
	}
	return v.RewriteAttrDefault(a)
}

// RewriteAttrDefault rewrites the value and condition.
func (v *Exhaustive) RewriteAttrDefault(a *Attribute) *Attribute {
	out := a.WithValue(v.Rewrite(a.Value))
	if a.Cond != nil {
		out = out.WithCond(v.Rewrite(a.Cond))
	}
	return out
}

func (v *Exhaustive) RewriteAttrs(as []*Attribute) []*Attribute {
	out := make([]*Attribute, len(as))
	for i, a := range as {
		out[i] = v.RewriteAttr(a)
	}
	return out
}

// RewriteChildren rebuilds e from rewritten children without post-processing e.
func (v *Exhaustive) RewriteChildren(e *Expr) *Expr {
	switch e.Kind {
	case ExprString, ExprBoolean, ExprObjectConstant, ExprConstructedConstant,
		ExprNative, ExprPlaceholderStart, ExprPlaceholderEnd:
		return e
	case ExprConcatenation:
		return e.WithValues(v.RewriteAll(e.Data.(ConcatenationData).Values))
	case ExprConditional:
		d := e.Data.(ConditionalData)
		clauses := make([]Clause, len(d.Clauses))
		for i, c := range d.Clauses {
			clauses[i] = Clause{Predicate: c.Predicate, Expr: v.Rewrite(c.Expr)}
		}
		return e.WithClauses(clauses, v.Rewrite(d.Else))
	case ExprOutputElement:
		d := e.Data.(OutputElementData)
		return e.WithElement(v.RewriteAttrs(d.Attributes), v.Rewrite(d.Content))
	case ExprUnboundCall:
		d := e.Data.(UnboundCallData)
		return e.WithUnboundCall(v.RewriteAttrs(d.Attributes), v.Rewrite(d.Content))
	case ExprBoundCall, ExprValidatedCall:
		return e.WithParams(v.RewriteAttrs(e.Data.(BoundCallData).Attributes))
	case ExprUnextractedMessage:
		return e.WithMessageContent(v.Rewrite(e.Data.(UnextractedMessageData).Content))
	case ExprExtractedMessage:
		return e.WithMessageParams(v.RewriteAll(e.Data.(ExtractedMessageData).Params))
	case ExprNoMessage:
		return e.WithSub(v.Rewrite(e.Data.(NoMessageData).Sub))
	case ExprCollapse:
		return e.WithSub(v.Rewrite(e.Data.(CollapseData).Sub))
	case ExprEscape:
		return e.WithSub(v.Rewrite(e.Data.(EscapeData).Sub))
	case ExprAttrBundleParam:
		d := e.Data.(AttrBundleParamData)
		entries := make([]BundleEntry, len(d.Entries))
		for i, en := range d.Entries {
			entries[i] = BundleEntry{Validator: en.Validator, Attr: v.RewriteAttr(en.Attr)}
		}
		return e.WithBundleEntries(entries)
	case ExprPlaceholderNode:
		return e.WithPlaceholderContent(v.Rewrite(e.Data.(PlaceholderNodeData).Content))
	default:
		panic(fmt.Sprintf("tree: unexpected expression kind %s", e.Kind))
	}
}

// Defaulting returns its input unchanged for every kind Override declines.
type Defaulting struct {
	Override func(e *Expr) (*Expr, bool)
}

func (d *Defaulting) Rewrite(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	if d.Override != nil {
		if out, ok := d.Override(e); ok {
			return out
		}
	}
	switch e.Kind {
	case ExprString, ExprBoolean, ExprObjectConstant, ExprConstructedConstant,
		ExprNative, ExprConcatenation, ExprConditional, ExprOutputElement,
		ExprUnboundCall, ExprBoundCall, ExprValidatedCall,
		ExprUnextractedMessage, ExprExtractedMessage, ExprNoMessage,
		ExprCollapse, ExprEscape, ExprAttrBundleParam,
		ExprPlaceholderStart, ExprPlaceholderEnd, ExprPlaceholderNode:
		return e
	default:
		panic(fmt.Sprintf("tree: unexpected expression kind %s", e.Kind))
	}
}

// RewriteRoot applies content to the template body and param to every
// parameter. A nil func leaves that part alone. The input is not modified.
func RewriteRoot(r Root, content func(*Expr) *Expr, param func(*Parameter) *Parameter) Root {
	switch r := r.(type) {
	case *Template:
		out := *r
		changed := false
		if param != nil {
			var c1, c2 bool
			out.Constructor, c1 = mapParams(r.Constructor, param)
			out.Params, c2 = mapParams(r.Params, param)
			changed = c1 || c2
		}
		if content != nil && r.Content != nil {
			out.Content = content(r.Content)
			changed = changed || out.Content != r.Content
		}
		if !changed {
			return r
		}
		return &out
	case *Interface:
		if param == nil {
			return r
		}
		params, changed := mapParams(r.Params, param)
		if !changed {
			return r
		}
		out := *r
		out.Params = params
		return &out
	default:
		panic(fmt.Sprintf("tree: unexpected root %T", r))
	}
}

func mapParams(ps []*Parameter, f func(*Parameter) *Parameter) ([]*Parameter, bool) {
	if len(ps) == 0 {
		return ps, false
	}
	out := make([]*Parameter, len(ps))
	changed := false
	for i, p := range ps {
		out[i] = f(p)
		changed = changed || out[i] != p
	}
	if !changed {
		return ps, false
	}
	return out, true
}

// RewriteDefaults rewrites parameter default values with f.
func RewriteDefaults(f func(*Expr) *Expr) func(*Parameter) *Parameter {
	return func(p *Parameter) *Parameter {
		if p.Default == nil {
			return p
		}
		return p.WithDefault(f(p.Default))
	}
}
