package tree

import (
	"fmt"
	"strings"

	"gxpc/internal/schema"
)

// AlwaysEquals reports whether two expressions are guaranteed to render the
// same output. It is stricter than structural equality: anything whose
// output is not known statically compares unequal, except natives with the
// same code and schema.
func AlwaysEquals(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch da := a.Data.(type) {
	case StringData:
		return a.Schema != nil && a.Schema == b.Schema && da.Text == b.Data.(StringData).Text
	case BooleanData:
		return da.Value == b.Data.(BooleanData).Value
	case NativeData:
		return a.Schema == b.Schema && da.Code == b.Data.(NativeData).Code
	case EscapeData:
		return a.Schema == b.Schema && AlwaysEquals(da.Sub, b.Data.(EscapeData).Sub)
	case ConditionalData:
		db := b.Data.(ConditionalData)
		if a.Schema != b.Schema || len(da.Clauses) != len(db.Clauses) {
			return false
		}
		for i := range da.Clauses {
			if !AlwaysEquals(da.Clauses[i].Predicate, db.Clauses[i].Predicate) ||
				!AlwaysEquals(da.Clauses[i].Expr, db.Clauses[i].Expr) {
				return false
			}
		}
		return AlwaysEquals(da.Else, db.Else)
	}
	return false
}

// StaticString renders e if its output is fully known at compile time.
func StaticString(e *Expr) (string, bool) {
	var sb strings.Builder
	if !writeStatic(&sb, e) {
		return "", false
	}
	return sb.String(), true
}

func writeStatic(sb *strings.Builder, e *Expr) bool {
	if e == nil {
		return false
	}
	switch d := e.Data.(type) {
	case StringData:
		sb.WriteString(d.Text)
		return true
	case ConcatenationData:
		for _, v := range d.Values {
			if !writeStatic(sb, v) {
				return false
			}
		}
		return true
	case CollapseData:
		return writeStatic(sb, d.Sub)
	case OutputElementData:
		if len(d.Bundles) > 0 {
			return false
		}
		sb.WriteString("<" + d.Tag)
		for _, a := range d.Attributes {
			if a.Cond != nil {
				return false
			}
			sb.WriteString(" " + a.Name + "=\"")
			if !writeStatic(sb, a.Value) {
				return false
			}
			sb.WriteString("\"")
		}
		sb.WriteString(">")
		if !writeStatic(sb, d.Content) {
			return false
		}
		if !d.Validator.Has(schema.ElemNoEndTag) {
			sb.WriteString("</" + d.Tag + ">")
		}
		return true
	}
	return false
}

// Inspect walks e depth-first, attributes before content. Returning false
// from f skips the node's children.
func Inspect(e *Expr, f func(*Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	attrs := func(as []*Attribute) {
		for _, a := range as {
			Inspect(a.Value, f)
			Inspect(a.Cond, f)
		}
	}
	switch d := e.Data.(type) {
	case StringData, BooleanData, ObjectConstantData, ConstructedConstantData,
		NativeData, PlaceholderStartData, PlaceholderEndData:
	case ConcatenationData:
		for _, v := range d.Values {
			Inspect(v, f)
		}
	case ConditionalData:
		for _, c := range d.Clauses {
			Inspect(c.Predicate, f)
			Inspect(c.Expr, f)
		}
		Inspect(d.Else, f)
	case OutputElementData:
		attrs(d.Attributes)
		Inspect(d.Content, f)
	case UnboundCallData:
		attrs(d.Attributes)
		Inspect(d.Content, f)
	case BoundCallData:
		attrs(d.Attributes)
	case UnextractedMessageData:
		Inspect(d.Content, f)
	case ExtractedMessageData:
		for _, p := range d.Params {
			Inspect(p, f)
		}
	case NoMessageData:
		Inspect(d.Sub, f)
	case CollapseData:
		Inspect(d.Sub, f)
	case EscapeData:
		Inspect(d.Sub, f)
	case AttrBundleParamData:
		for _, en := range d.Entries {
			Inspect(en.Attr.Value, f)
			Inspect(en.Attr.Cond, f)
		}
	case PlaceholderNodeData:
		Inspect(d.Content, f)
	default:
		panic(fmt.Sprintf("tree: unexpected expression data %T", d))
	}
}

// CountNodes is the number of expressions reachable from e.
func CountNodes(e *Expr) int {
	n := 0
	Inspect(e, func(*Expr) bool {
		n++
		return true
	})
	return n
}
