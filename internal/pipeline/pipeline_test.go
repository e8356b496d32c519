package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"gxpc/internal/diag"
	"gxpc/internal/observ"
	"gxpc/internal/schema"
	"gxpc/internal/servicedir"
	"gxpc/internal/testkit"
	"gxpc/internal/tree"
)

var html = testkit.Schema("html")

func compile(t *testing.T, root tree.Root, dir servicedir.Directory) *Result {
	t.Helper()
	res, err := Compile(context.Background(), root, Options{Directory: dir, Registry: testkit.Registry()})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func content(t *testing.T, res *Result) *tree.Expr {
	t.Helper()
	tpl, ok := res.Root.(*tree.Template)
	if !ok {
		t.Fatalf("root is %T", res.Root)
	}
	if err := testkit.CheckNoKinds(tpl.Content,
		tree.ExprCollapse, tree.ExprUnboundCall, tree.ExprBoundCall, tree.ExprUnextractedMessage,
		tree.ExprPlaceholderStart, tree.ExprPlaceholderEnd, tree.ExprPlaceholderNode); err != nil {
		t.Fatal(err)
	}
	return tpl.Content
}

func count(s diag.Set, code diag.Code) int {
	n := 0
	for _, d := range s.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestCollapsesExteriorSpace(t *testing.T) {
	for _, in := range []string{" hello world ", "\n hello world \n"} {
		res := compile(t, testkit.Template("com.x.Page", html, testkit.Text(in)), nil)
		got, ok := tree.StaticString(content(t, res))
		if !ok || got != "hello world" {
			t.Errorf("%q compiled to %q (static=%v)", in, got, ok)
		}
		if res.Diagnostics.Len() != 0 {
			t.Errorf("%q: unexpected diagnostics %v", in, res.Diagnostics.Items())
		}
	}
}

func TestEscapesAttributeText(t *testing.T) {
	el := testkit.Element(html, "div", nil, testkit.Attr("title", testkit.Text("a<b")))
	res := compile(t, testkit.Template("com.x.Page", html, el), nil)
	out := content(t, res)
	if out.Kind != tree.ExprOutputElement {
		t.Fatalf("content is %s", out.Kind)
	}
	attr := out.Data.(tree.OutputElementData).Attributes[0]
	if got, _ := tree.StaticString(attr.Value); got != "a&lt;b" {
		t.Errorf("attribute = %q, want %q", got, "a&lt;b")
	}
}

func TestUnknownCalleeDoesNotStopTheUnit(t *testing.T) {
	body := testkit.Concat(
		testkit.Text("a "),
		testkit.Call("Missing", nil),
		testkit.Element(html, "img", nil, testkit.Attr("src", testkit.Text("x.png"))),
	)
	res := compile(t, testkit.Template("com.x.Page", html, body), servicedir.NewStatic())

	if n := count(res.Diagnostics, diag.BindCallableNotFound); n != 1 {
		t.Errorf("callable-not-found reported %d times: %v", n, res.Diagnostics.Items())
	}
	if n := count(res.Diagnostics, diag.ValMissingAttribute); n != 1 {
		t.Errorf("the rest of the unit was not validated: %v", res.Diagnostics.Items())
	}
	if !slices.Contains(res.Requirements, tree.MustTemplateName("com.x.Missing")) {
		t.Errorf("requirements = %v", res.Requirements)
	}
	out := content(t, res)
	if err := testkit.CheckSchemaSoundness(out, html); err != nil {
		t.Error(err)
	}
}

func TestWildcardAmbiguityIsNotFound(t *testing.T) {
	dir := servicedir.NewStatic(
		testkit.Template("a.Foo", html, nil),
		testkit.Template("b.Foo", html, nil),
	)
	root := testkit.Template("com.x.Page", html, testkit.Call("Foo", nil))
	root.Imports = []tree.Import{
		tree.PackageImport(testkit.Pos(1), "a"),
		tree.PackageImport(testkit.Pos(2), "b"),
	}
	res := compile(t, root, dir)

	if n := count(res.Diagnostics, diag.BindCallableNotFound); n != 1 {
		t.Errorf("not-found reported %d times", n)
	}
	if n := count(res.Diagnostics, diag.BindAmbiguousImport); n != 0 {
		t.Errorf("wildcard ambiguity reported: %v", res.Diagnostics.Items())
	}
	for _, want := range []string{"a.Foo", "b.Foo", "com.x.Foo"} {
		if !slices.Contains(res.Dependencies, tree.MustTemplateName(want)) {
			t.Errorf("dependencies = %v, missing %s", res.Dependencies, want)
		}
	}
}

func TestMismatchedBundleDoesNotSatisfyRequiredAttribute(t *testing.T) {
	loose := &schema.AttributeValidator{Name: "alt"}
	box := testkit.Param("box", tree.BundleType(html, map[string]*schema.AttributeValidator{"alt": loose}))

	el := testkit.Element(html, "img", nil, testkit.Attr("src", testkit.Text("x.png")))
	d := el.Data.(tree.OutputElementData)
	d.Bundles = []string{"box"}
	el = el.WithData(d)

	res := compile(t, testkit.Template("com.x.Page", html, el, box), nil)
	if n := count(res.Diagnostics, diag.ValMismatchedAttrValidators); n != 1 {
		t.Errorf("mismatch reported %d times: %v", n, res.Diagnostics.Items())
	}
	if n := count(res.Diagnostics, diag.ValMissingAttribute); n != 1 {
		t.Errorf("mismatched attribute counted as present: %v", res.Diagnostics.Items())
	}
}

func TestCallsAreResolvedAndValidated(t *testing.T) {
	card := testkit.Template("com.x.Card", html, nil,
		testkit.Param("title", tree.ContentType(html)),
		testkit.ContentParam("body", html))
	dir := servicedir.NewStatic(card)

	call := testkit.Call("Card", testkit.Text(" hi "), testkit.Attr("title", testkit.Object("Hello")))
	res := compile(t, testkit.Template("com.x.Page", html, call), dir)
	if res.Diagnostics.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}
	if len(res.Callables) != 1 || res.Callables[0].Name != card.Name {
		t.Errorf("callables = %v", res.Callables)
	}
	var validated int
	tree.Inspect(content(t, res), func(e *tree.Expr) bool {
		if e.Kind == tree.ExprValidatedCall {
			validated++
		}
		return true
	})
	if validated != 1 {
		t.Errorf("expected one validated call, found %d", validated)
	}
}

func TestMessagesAreExtracted(t *testing.T) {
	msg := testkit.Msg(testkit.Text("Hello "), testkit.Ph("name", "Bob"), testkit.Native("user"), testkit.Eph())
	res := compile(t, testkit.Template("com.x.Page", html, msg), nil)
	if res.Diagnostics.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}
	if len(res.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(res.Messages))
	}
	if out := content(t, res); out.Kind != tree.ExprExtractedMessage {
		t.Errorf("content is %s", out.Kind)
	}
}

func TestInternalErrorAbortsOnlyTheUnit(t *testing.T) {
	bad := tree.NewExtractedMessage(testkit.Pos(3), html, 1, "x", nil)
	root := testkit.Template("com.x.Page", html, bad)
	res, err := Compile(context.Background(), root, Options{Registry: testkit.Registry()})

	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if ie.Stage != StageCollapse || ie.Unit != root.Name {
		t.Errorf("internal error = %+v", ie)
	}
	if res == nil || count(res.Diagnostics, diag.DrvInternalError) != 1 {
		t.Fatalf("internal error diagnostic missing: %+v", res)
	}
	if res.Root != tree.Root(root) {
		t.Error("result should carry the input tree")
	}
}

func TestCarriedDiagnosticsSurvive(t *testing.T) {
	carried := diag.NewSet(diag.NewWarning(diag.DrvUnitLoad, testkit.Pos(1), "loaded with warnings"))
	res, err := Compile(context.Background(), testkit.Template("com.x.Page", html, testkit.Text("x")),
		Options{Carried: carried})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Diagnostics.Contains(carried.Items()[0]) {
		t.Errorf("carried diagnostic lost: %v", res.Diagnostics.Items())
	}
}

func TestObserverAndTimerSeeEveryStage(t *testing.T) {
	var events []PhaseEvent
	tm := observ.NewTimer()
	_, err := Compile(context.Background(), testkit.Template("com.x.Page", html, testkit.Text("x")), Options{
		Timer:    tm,
		Observer: func(ev PhaseEvent) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2*len(Stages) {
		t.Fatalf("expected %d events, got %d", 2*len(Stages), len(events))
	}
	for i, st := range Stages {
		if events[2*i].Stage != st || events[2*i].Status != PhaseStart || events[2*i+1].Status != PhaseEnd {
			t.Errorf("stage %s: events %+v %+v", st, events[2*i], events[2*i+1])
		}
	}
	report := tm.Report()
	if len(report.Phases) != len(Stages) || report.Phases[0].Name != string(StageBind) {
		t.Errorf("timer report = %+v", report)
	}
}

// randomContent builds markup-only trees: text, expressions, and div/pre/script
// elements, with script bodies limited to text and expressions.
func randomContent(r *rand.Rand, depth int, markup bool) *tree.Expr {
	words := []string{" a ", "b<c", "\n d\n", "&", "", "  "}
	n := 1 + r.IntN(3)
	values := make([]*tree.Expr, 0, n)
	for range n {
		switch k := r.IntN(5); {
		case k == 0 || depth == 0:
			values = append(values, testkit.Text(words[r.IntN(len(words))]))
		case k == 1:
			values = append(values, testkit.Native("x"))
		case !markup:
			values = append(values, testkit.Text("1 < 2"))
		case k == 2:
			values = append(values, testkit.Element(html, "script", randomContent(r, depth-1, false)))
		case k == 3:
			values = append(values, testkit.Element(html, "pre", randomContent(r, depth-1, true)))
		default:
			values = append(values, testkit.Element(html, "div", randomContent(r, depth-1, true),
				testkit.Attr("title", testkit.Text(words[r.IntN(len(words))]))))
		}
	}
	return testkit.Concat(values...)
}

func TestRandomTreesAreSound(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		root := testkit.Template("com.x.Page", html, randomContent(r, 3, true))
		res := compile(t, root, nil)
		if res.Diagnostics.HasErrors() {
			t.Fatalf("tree %d: unexpected errors %v", i, res.Diagnostics.Items())
		}
		out := content(t, res)
		if err := testkit.CheckSchemaSoundness(out, html); err != nil {
			t.Fatalf("tree %d: %v", i, err)
		}
		if err := testkit.CheckPosInvariants(out); err != nil {
			t.Fatalf("tree %d: %v", i, err)
		}
	}
}
