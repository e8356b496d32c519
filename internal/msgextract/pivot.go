package msgextract

import (
	"fmt"
	"strings"

	"gxpc/internal/diag"
	"gxpc/internal/tree"
)

// pivoter turns flat <gxp:ph>/<gxp:eph> marker pairs into placeholder nodes
// that own the content between them.
type pivoter struct {
	tree.Exhaustive
	r diag.Reporter
}

func newPivoter(r diag.Reporter) *pivoter {
	p := &pivoter{r: r}
	p.Override = p.override
	return p
}

func (p *pivoter) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprConcatenation:
		return p.concatenation(e), true
	case tree.ExprPlaceholderStart:
		badPlacement(p.r, e, nil)
		return tree.NewString(e.Pos, e.Schema, ""), true
	case tree.ExprPlaceholderEnd:
		diag.ReportError(p.r, diag.MsgEphMissingPh, e.Pos, "<gxp:eph> without matching <gxp:ph>").Emit()
		return tree.NewString(e.Pos, e.Schema, ""), true
	}
	return nil, false
}

func (p *pivoter) concatenation(e *tree.Expr) *tree.Expr {
	var (
		values   []*tree.Expr
		children []*tree.Expr
		start    *tree.Expr
	)
	for _, v := range e.Data.(tree.ConcatenationData).Values {
		switch v.Kind {
		case tree.ExprPlaceholderStart:
			if start != nil {
				badPlacement(p.r, v, start)
				continue
			}
			start, children = v, nil
		case tree.ExprPlaceholderEnd:
			if start == nil {
				diag.ReportError(p.r, diag.MsgEphMissingPh, v.Pos, "<gxp:eph> without matching <gxp:ph>").Emit()
				continue
			}
			if ph := p.placeholder(start, e, children); ph != nil {
				values = append(values, ph)
			}
			start, children = nil, nil
		case tree.ExprConcatenation:
			panic("msgextract: nested concatenation at " + v.Pos.String())
		default:
			if start != nil {
				children = append(children, p.Rewrite(v))
			} else {
				values = append(values, p.Rewrite(v))
			}
		}
	}
	if start != nil {
		d := start.Data.(tree.PlaceholderStartData)
		diag.ReportError(p.r, diag.MsgPhMissingEph, start.Pos,
			fmt.Sprintf("<gxp:ph name='%s'> without matching <gxp:eph>", d.Name)).Emit()
	}
	return e.WithValues(values)
}

func (p *pivoter) placeholder(start, concat *tree.Expr, children []*tree.Expr) *tree.Expr {
	d := start.Data.(tree.PlaceholderStartData)
	content := tree.NewConcatenation(start.Pos, concat.Schema, children)
	if content.IsEmptyString() {
		diag.ReportError(p.r, diag.MsgEmptyPlaceholder, start.Pos,
			fmt.Sprintf("placeholder %s has no content", d.Name)).Emit()
		return nil
	}
	example := d.Example
	if example == "" {
		var ok bool
		if example, ok = exampleOf(content); !ok {
			diag.ReportError(p.r, diag.MsgPlaceholderRequiresExample, start.Pos,
				fmt.Sprintf("placeholder %s has dynamic content and requires an example", d.Name)).Emit()
			example = "<var>" + d.Name + "</var>"
		}
	}
	return tree.NewPlaceholderNode(start.Pos, start.Schema, d.Name, example, content)
}

// exampleOf derives an example from content that is known at compile time.
func exampleOf(e *tree.Expr) (string, bool) {
	switch d := e.Data.(type) {
	case tree.EscapeData:
		return exampleOf(d.Sub)
	case tree.NoMessageData:
		return exampleOf(d.Sub)
	case tree.ConcatenationData:
		var sb strings.Builder
		for _, v := range d.Values {
			s, ok := exampleOf(v)
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	}
	return tree.StaticString(e)
}

// badPlacement reports e where it may not appear. parent is the node it
// appeared in, or nil.
func badPlacement(r diag.Reporter, e, parent *tree.Expr) {
	where := "here"
	if parent != nil {
		where = "inside " + parent.DisplayName()
	}
	diag.ReportError(r, diag.MsgBadNodePlacement, e.Pos, e.DisplayName()+" not allowed "+where).Emit()
}
