// Package collapse applies whitespace operators to the text of a bound tree
// and removes every collapse marker.
package collapse

import (
	"strings"
	"unicode/utf8"

	"gxpc/internal/schema"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

// Run collapses root. The stage reports nothing; a second run over its
// output changes nothing.
func Run(root tree.Root) tree.Root {
	s := newSearcher(tree.DefaultSpaceOps, true)
	return tree.RewriteRoot(root, s.Rewrite, tree.RewriteDefaults(s.Rewrite))
}

// searcher walks down to collapse markers, tracking the operators in scope.
type searcher struct {
	tree.Exhaustive
	ops tree.SpaceOperatorSet
	// special selects Attr operators for attribute values: set under output
	// elements and attribute bundles, cleared under calls.
	special bool
}

func newSearcher(ops tree.SpaceOperatorSet, special bool) *searcher {
	s := &searcher{ops: ops, special: special}
	s.Override = s.override
	s.Attr = s.attr
	return s
}

// with switches operators; a new scope starts with special attributes on.
func (s *searcher) with(ops tree.SpaceOperatorSet) *searcher {
	if ops == s.ops {
		return s
	}
	return newSearcher(ops, true)
}

func (s *searcher) withSpecial(special bool) *searcher {
	if special == s.special {
		return s
	}
	return newSearcher(s.ops, special)
}

func (s *searcher) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprCollapse:
		d := e.Data.(tree.CollapseData)
		ops := d.Ops.InheritFrom(s.ops)
		sub := s.with(ops).Rewrite(d.Sub)
		return collapse(sub, ops), true

	case tree.ExprExtractedMessage:
		panic("collapse: unexpected extracted message at " + e.Pos.String())

	case tree.ExprUnextractedMessage:
		content := s.with(tree.MessageSpaceOps).Rewrite(e.Data.(tree.UnextractedMessageData).Content)
		return e.WithMessageContent(content), true

	case tree.ExprNoMessage:
		return e.WithSub(s.with(tree.MessageSpaceOps).Rewrite(e.Data.(tree.NoMessageData).Sub)), true

	case tree.ExprOutputElement:
		d := e.Data.(tree.OutputElementData)
		el := s.withSpecial(true)
		content := el
		if d.Validator.Has(schema.ElemPreserveSpaces) {
			content = el.with(tree.PreservingSpaceOps)
		}
		return e.WithElement(el.RewriteAttrs(d.Attributes), content.Rewrite(d.Content)), true

	case tree.ExprAttrBundleParam:
		return s.withSpecial(true).RewriteChildren(e), true

	case tree.ExprUnboundCall, tree.ExprBoundCall, tree.ExprValidatedCall:
		return s.withSpecial(false).RewriteChildren(e), true
	}
	return nil, false
}

func (s *searcher) attr(a *tree.Attribute) *tree.Attribute {
	values := s
	if s.special {
		values = s.with(tree.AttrSpaceOps)
	}
	out := a.WithValue(values.Rewrite(a.Value))
	if a.Cond != nil {
		out = out.WithCond(s.Rewrite(a.Cond))
	}
	return out
}

// collapse applies ops to the text directly under e.
func collapse(e *tree.Expr, ops tree.SpaceOperatorSet) *tree.Expr {
	v := tree.Defaulting{Override: func(e *tree.Expr) (*tree.Expr, bool) {
		switch e.Kind {
		case tree.ExprCollapse:
			panic("collapse: nested collapse marker at " + e.Pos.String())
		case tree.ExprString:
			return tree.NewConcatenation(e.Pos, nil, process(ops, e.Schema, []*tree.Expr{e})), true
		case tree.ExprConcatenation:
			return e.WithValues(process(ops, e.Schema, e.Data.(tree.ConcatenationData).Values)), true
		}
		return nil, false
	}}
	return v.Rewrite(e)
}

// process rewrites a run of values. Text is gathered into segments that
// alternate with the non-text values; there is always one more segment than
// there are non-text values.
func process(ops tree.SpaceOperatorSet, s *schema.Schema, values []*tree.Expr) []*tree.Expr {
	var (
		segments  []string
		positions []source.Pos
		others    []*tree.Expr
		sb        strings.Builder
		pos       = source.UnknownPos
		seen      bool
	)
	for _, v := range values {
		if v.Kind == tree.ExprString {
			if !seen {
				pos, seen = v.Pos, true
			}
			sb.WriteString(v.Text())
			continue
		}
		segments = append(segments, sb.String())
		positions = append(positions, pos)
		others = append(others, v)
		sb.Reset()
		pos, seen = source.UnknownPos, false
	}
	segments = append(segments, sb.String())
	positions = append(positions, pos)

	last := len(segments) - 1
	var leading, trailing string
	if run, rest := splitLeading(segments[0]); run != "" {
		leading = ops.Exterior.Apply(run)
		segments[0] = rest
	}
	if rest, run := splitTrailing(segments[last]); run != "" {
		trailing = ops.Exterior.Apply(run)
		segments[last] = rest
	}
	for i, text := range segments {
		if text != "" {
			segments[i] = mapRuns(text, ops.Interior)
		}
	}
	segments[0] = leading + segments[0]
	segments[last] += trailing

	out := make([]*tree.Expr, 0, len(segments)+len(others))
	for i, text := range segments {
		if text != "" {
			out = append(out, tree.NewString(positions[i], s, text))
		}
		if i < last {
			out = append(out, others[i])
		}
	}
	return out
}

func splitLeading(text string) (run, rest string) {
	i := strings.IndexFunc(text, func(r rune) bool { return !tree.IsSpace(r) })
	if i < 0 {
		return text, ""
	}
	return text[:i], text[i:]
}

func splitTrailing(text string) (rest, run string) {
	i := strings.LastIndexFunc(text, func(r rune) bool { return !tree.IsSpace(r) })
	if i < 0 {
		return "", text
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return text[:i+size], text[i+size:]
}

// mapRuns replaces every maximal whitespace run in text by op applied to it.
func mapRuns(text string, op tree.SpaceOperator) string {
	var sb strings.Builder
	start, inRun := 0, false
	for i, r := range text {
		if tree.IsSpace(r) == inRun {
			continue
		}
		if inRun {
			sb.WriteString(op.Apply(text[start:i]))
		} else {
			sb.WriteString(text[start:i])
		}
		start, inRun = i, !inRun
	}
	if inRun {
		sb.WriteString(op.Apply(text[start:]))
	} else {
		sb.WriteString(text[start:])
	}
	return sb.String()
}
