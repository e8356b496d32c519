// Package escape assigns every node the schema of the context it is output
// in. Static text is escaped here; dynamic values are wrapped in Escape nodes
// for the code generator.
package escape

import (
	"fmt"

	"gxpc/internal/diag"
	"gxpc/internal/schema"
	"gxpc/internal/tree"
)

// Run escapes root. Roots without a schema are returned unchanged.
func Run(root tree.Root, carried diag.Set) (tree.Root, diag.Set) {
	b := diag.NewBuilder(carried)
	s := root.RootSchema()
	if s == nil {
		return root, b.BuildAndClear()
	}
	e := &escaper{r: b, visitors: make(map[*schema.Schema]*visitor)}
	v := e.visitor(s)
	out := tree.RewriteRoot(root, v.Rewrite, v.rewriteParam)
	if t, ok := out.(*tree.Template); ok && t.Content != nil && !s.Allows(t.Content.Schema) {
		panic(fmt.Sprintf("escape: template content is %s, expected %s", t.Content.Schema, s))
	}
	return out, b.BuildAndClear()
}

type escaper struct {
	r        diag.Reporter
	visitors map[*schema.Schema]*visitor
}

func (e *escaper) visitor(s *schema.Schema) *visitor {
	if v, ok := e.visitors[s]; ok {
		return v
	}
	v := &visitor{esc: e, ambient: s}
	v.Override = v.override
	v.PostProcess = v.postProcess
	v.Attr = v.attr
	e.visitors[s] = v
	return v
}

// visitor escapes into one ambient schema.
type visitor struct {
	tree.Exhaustive
	esc     *escaper
	ambient *schema.Schema
	// attributes this visitor is currently inside of, innermost last
	attrs []*tree.Attribute
}

// forType picks the visitor for values of type t.
func (v *visitor) forType(t *tree.Type) *visitor {
	if t.IsContent() && t.Schema != nil {
		return v.esc.visitor(t.Schema)
	}
	return v
}

func (v *visitor) rewriteParam(p *tree.Parameter) *tree.Parameter {
	if p.Default == nil {
		return p
	}
	return p.WithDefault(v.forType(p.Type).Rewrite(p.Default))
}

func (v *visitor) postProcess(e *tree.Expr) *tree.Expr {
	if v.ambient.Allows(e.Schema) {
		return e
	}
	diag.ReportError(v.esc.r, diag.EscTypeError, e.Pos,
		fmt.Sprintf("%s is %s but expected %s", e.DisplayName(), e.Schema, v.ambient)).Emit()
	return tree.NewString(e.Pos, v.ambient, "")
}

func (v *visitor) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprString:
		text := v.ambient.Family.EscapeStatic(e.Text())
		return v.Post(tree.NewString(e.Pos, v.ambient, text)), true

	case tree.ExprBoolean, tree.ExprObjectConstant, tree.ExprConstructedConstant,
		tree.ExprNative, tree.ExprEscape:
		return v.Post(tree.NewEscape(v.ambient, e)), true

	case tree.ExprConcatenation:
		values := v.RewriteAll(e.Data.(tree.ConcatenationData).Values)
		return v.Post(tree.NewConcatenation(e.Pos, v.ambient, values)), true

	case tree.ExprConditional:
		// predicates are host-language booleans and are not output
		d := e.Data.(tree.ConditionalData)
		clauses := make([]tree.Clause, len(d.Clauses))
		for i, c := range d.Clauses {
			clauses[i] = tree.Clause{Predicate: c.Predicate, Expr: v.Rewrite(c.Expr)}
		}
		return v.Post(e.WithClauses(clauses, v.Rewrite(d.Else)).WithSchema(v.ambient)), true

	case tree.ExprOutputElement:
		d := e.Data.(tree.OutputElementData)
		content := v
		if d.InnerSchema != nil {
			content = v.esc.visitor(d.InnerSchema)
		}
		return v.Post(e.WithElement(v.RewriteAttrs(d.Attributes), content.Rewrite(d.Content))), true

	case tree.ExprUnextractedMessage:
		return v.Post(v.message(e)), true

	case tree.ExprBoundCall:
		return v.Post(v.call(e)), true

	case tree.ExprAttrBundleParam:
		bv := v.esc.visitor(e.Schema)
		d := e.Data.(tree.AttrBundleParamData)
		entries := make([]tree.BundleEntry, len(d.Entries))
		for i, en := range d.Entries {
			entries[i] = tree.BundleEntry{Validator: en.Validator, Attr: bv.RewriteAttr(en.Attr)}
		}
		return v.Post(e.WithBundleEntries(entries)), true

	case tree.ExprPlaceholderStart, tree.ExprPlaceholderEnd:
		return v.Post(e.WithSchema(v.ambient)), true

	case tree.ExprUnboundCall, tree.ExprValidatedCall, tree.ExprCollapse,
		tree.ExprExtractedMessage, tree.ExprPlaceholderNode:
		panic(fmt.Sprintf("escape: unexpected %s at %s", e.Kind, e.Pos))
	}
	return nil, false
}

// attr visits a value with the attribute's inner schema first and then with
// the ambient one, so that e.g. javascript in an HTML attribute ends up
// escaped for both. Conditions are host-language code and stay as they are.
func (v *visitor) attr(a *tree.Attribute) *tree.Attribute {
	v.attrs = append(v.attrs, a)
	defer func() { v.attrs = v.attrs[:len(v.attrs)-1] }()

	value := a.Value
	if a.InnerSchema != nil {
		value = v.esc.visitor(a.InnerSchema).Rewrite(value)
	}
	return a.WithValue(v.Rewrite(value))
}

func (v *visitor) message(e *tree.Expr) *tree.Expr {
	d := e.Data.(tree.UnextractedMessageData)
	ms := e.Schema
	if ms == nil {
		ms = v.ambient.MsgSchema()
	}
	if ms == nil {
		diag.ReportError(v.esc.r, diag.EscMissingMsgSchema, e.Pos,
			fmt.Sprintf("%s has no message schema", v.ambient)).Emit()
		return tree.NewString(e.Pos, v.ambient, "")
	}
	out := e.WithMessageContent(v.esc.visitor(ms).Rewrite(d.Content)).WithSchema(ms)
	if !ms.IsTranslatable() {
		diag.ReportError(v.esc.r, diag.EscUntranslatable, e.Pos,
			fmt.Sprintf("%s with content-type %s is not translatable", e.DisplayName(), ms)).Emit()
	}
	if ms != v.ambient {
		out = tree.NewEscape(v.ambient, out)
	}
	return out
}

func (v *visitor) call(e *tree.Expr) *tree.Expr {
	d := e.Data.(tree.BoundCallData)
	attrs := make([]*tree.Attribute, len(d.Attributes))
	for i, a := range d.Attributes {
		pv := v
		if p := d.Callee.ParamByPrimary(a.Name); p != nil {
			pv = v.forType(p.Type)
		}
		attrs[i] = pv.RewriteAttr(a)
	}
	out := e.WithParams(attrs)
	// a call inside an attribute whose content type matches the callee's
	// is output escaped into the attribute's context
	if n := len(v.attrs); n > 0 && out.Schema != v.ambient && out.Schema == v.attrs[n-1].InnerSchema {
		out = tree.NewEscape(v.ambient, out)
	}
	return out
}
