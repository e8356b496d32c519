// Package msgextract turns <gxp:msg> bodies into translatable message
// records and replaces them in the tree with extracted-message nodes that
// reference their dynamic parameters.
package msgextract

import (
	"fmt"
	"strings"

	"gxpc/internal/diag"
	"gxpc/internal/tree"
)

// maxDynamicPlaceholders is the most %N parameters a message may reference.
const maxDynamicPlaceholders = 9

// Tree is the output of the extractor.
type Tree struct {
	Root        tree.Root
	Diagnostics diag.Set
	// Messages are in document order.
	Messages []*Message
}

// Run pivots placeholder markers and extracts every message in root.
func Run(root tree.Root, carried diag.Set) *Tree {
	b := diag.NewBuilder(carried)
	pv := newPivoter(b)
	root = tree.RewriteRoot(root, pv.Rewrite, tree.RewriteDefaults(pv.Rewrite))

	out := newOutside(b)
	root = tree.RewriteRoot(root, out.Rewrite, tree.RewriteDefaults(out.Rewrite))
	return &Tree{Root: root, Diagnostics: b.BuildAndClear(), Messages: out.messages}
}

// outside visits everything not inside a message.
type outside struct {
	tree.Exhaustive
	r        diag.Reporter
	messages []*Message
}

func newOutside(r diag.Reporter) *outside {
	o := &outside{r: r}
	o.Override = o.override
	return o
}

func (o *outside) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprNoMessage:
		return newInsideNoMsg(o, e).Rewrite(e.Data.(tree.NoMessageData).Sub), true
	case tree.ExprUnextractedMessage:
		return o.extract(e), true
	case tree.ExprPlaceholderNode:
		badPlacement(o.r, e, nil)
		return o.Rewrite(e.Data.(tree.PlaceholderNodeData).Content), true
	case tree.ExprPlaceholderStart, tree.ExprPlaceholderEnd:
		panic(fmt.Sprintf("msgextract: unpivoted %s at %s", e.Kind, e.Pos))
	}
	return nil, false
}

// insideNoMsg visits the body of a <gxp:nomsg>, where neither messages nor
// placeholders belong.
type insideNoMsg struct {
	tree.Exhaustive
	out   *outside
	nomsg *tree.Expr
}

func newInsideNoMsg(out *outside, nomsg *tree.Expr) *insideNoMsg {
	v := &insideNoMsg{out: out, nomsg: nomsg}
	v.Override = v.override
	return v
}

func (v *insideNoMsg) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprUnextractedMessage:
		badPlacement(v.out.r, e, v.nomsg)
		return v.out.Rewrite(e), true
	case tree.ExprNoMessage:
		badPlacement(v.out.r, e, v.nomsg)
		return v.Rewrite(e.Data.(tree.NoMessageData).Sub), true
	case tree.ExprPlaceholderNode:
		badPlacement(v.out.r, e, v.nomsg)
		return v.Rewrite(e.Data.(tree.PlaceholderNodeData).Content), true
	case tree.ExprPlaceholderStart, tree.ExprPlaceholderEnd:
		panic(fmt.Sprintf("msgextract: unpivoted %s at %s", e.Kind, e.Pos))
	}
	return nil, false
}

// extract builds the message record for msg. Messages that cannot be built
// are replaced by empty text.
func (o *outside) extract(msg *tree.Expr) *tree.Expr {
	d := msg.Data.(tree.UnextractedMessageData)
	in := newInside(o, msg)
	in.b.msg = Message{
		Meaning:     d.Meaning,
		Description: d.Description,
		Hidden:      d.Hidden,
	}
	if msg.Schema != nil {
		in.b.msg.ContentType = msg.Schema.ContentType
	}
	if msg.Pos.Known() {
		in.b.msg.Sources = []string{fmt.Sprintf("%s: L%d, C%d", msg.Pos.Path, msg.Pos.Line, msg.Pos.Col-1)}
	}
	in.Rewrite(d.Content)

	if !in.invalid {
		m, err := in.b.build()
		if err == nil {
			o.messages = append(o.messages, m)
			return tree.NewExtractedMessage(msg.Pos, msg.Schema, m.ID, m.Original(), in.params)
		}
		diag.ReportError(o.r, diag.MsgInvalidMessage, msg.Pos, err.Error()).Emit()
	}
	return tree.NewString(msg.Pos, msg.Schema, "")
}

// inside collects the text and parameters of one message. It only reads
// the tree; Rewrite hands every node back unchanged.
type inside struct {
	tree.Defaulting
	out     *outside
	msg     *tree.Expr
	b       builder
	params  []*tree.Expr
	invalid bool
}

func newInside(out *outside, msg *tree.Expr) *inside {
	in := &inside{out: out, msg: msg}
	in.Override = in.override
	return in
}

func (in *inside) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprString:
		in.b.appendText(e.Data.(tree.StringData).Text)
	case tree.ExprConcatenation:
		for _, v := range e.Data.(tree.ConcatenationData).Values {
			in.Rewrite(v)
		}
	case tree.ExprEscape:
		in.Rewrite(e.Data.(tree.EscapeData).Sub)
	case tree.ExprPlaceholderNode:
		in.placeholder(e, e.Data.(tree.PlaceholderNodeData))
	case tree.ExprBoolean, tree.ExprObjectConstant, tree.ExprConstructedConstant,
		tree.ExprNative, tree.ExprConditional, tree.ExprOutputElement,
		tree.ExprBoundCall, tree.ExprAttrBundleParam,
		tree.ExprUnextractedMessage, tree.ExprNoMessage:
		// unit files may put these straight into a message; they belong
		// inside a placeholder
		badPlacement(in.out.r, e, in.msg)
	case tree.ExprCollapse, tree.ExprExtractedMessage, tree.ExprPlaceholderStart, tree.ExprPlaceholderEnd,
		tree.ExprUnboundCall, tree.ExprValidatedCall:
		panic(fmt.Sprintf("msgextract: unexpected %s inside message at %s", e.Kind, e.Pos))
	default:
		return nil, false
	}
	return e, true
}

func (in *inside) placeholder(ph *tree.Expr, d tree.PlaceholderNodeData) {
	var sb strings.Builder
	for _, part := range separate(d.Content) {
		part = in.out.Rewrite(part)
		if s, ok := tree.StaticString(part); ok {
			sb.WriteString(strings.ReplaceAll(s, "%", "%%"))
			continue
		}
		index := in.paramIndex(part)
		if index > maxDynamicPlaceholders {
			diag.ReportError(in.out.r, diag.MsgTooManyDynamicPlaceholders, part.Pos,
				"only 9 dynamic parameters are supported per message.").Emit()
			continue
		}
		if index > len(in.params) {
			in.params = append(in.params, part)
		}
		fmt.Fprintf(&sb, "%%%d", index)
	}
	if err := in.b.appendPlaceholder(sb.String(), strings.ToUpper(d.Name), d.Example); err != nil {
		diag.ReportError(in.out.r, diag.MsgInvalidMessage, ph.Pos, err.Error()).Emit()
		in.invalid = true
	}
}

// paramIndex returns the 1-based index of an equal parameter, or the index
// a new one would get.
func (in *inside) paramIndex(e *tree.Expr) int {
	for i, p := range in.params {
		if tree.AlwaysEquals(p, e) {
			return i + 1
		}
	}
	return len(in.params) + 1
}

// separate splits content into its top-level parts.
func separate(e *tree.Expr) []*tree.Expr {
	if d, ok := e.Data.(tree.ConcatenationData); ok {
		return d.Values
	}
	return []*tree.Expr{e}
}
