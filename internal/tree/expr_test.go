package tree

import (
	"testing"

	"gxpc/internal/schema"
	"gxpc/internal/source"
)

var testPos = source.At("t.gxp", 1, 1)

func str(s string) *Expr { return NewString(testPos, nil, s) }

func TestConcatenationSimplifies(t *testing.T) {
	n := NewNative(testPos, "x")
	inner := NewConcatenation(testPos, nil, []*Expr{str("b"), n})
	got := NewConcatenation(testPos, nil, []*Expr{str("a"), inner, str("c"), str("d")})

	d, ok := got.Data.(ConcatenationData)
	if !ok || len(d.Values) != 3 {
		t.Fatalf("expected 3 flattened values, got %#v", got.Data)
	}
	if d.Values[0].Text() != "ab" || d.Values[1] != n || d.Values[2].Text() != "cd" {
		t.Fatalf("unexpected values: %q %v %q", d.Values[0].Text(), d.Values[1].Kind, d.Values[2].Text())
	}
}

func TestConcatenationDegenerate(t *testing.T) {
	html := schema.Builtin()
	s, _ := html.ByName("html")

	empty := NewConcatenation(testPos, s, nil)
	if !empty.IsEmptyString() || empty.Schema != s {
		t.Fatalf("empty concatenation must be empty text of its schema")
	}
	n := NewNative(testPos, "x")
	if got := NewConcatenation(testPos, s, []*Expr{n}); got != n {
		t.Fatalf("single value must be returned as is")
	}
	if got := NewConcatenation(testPos, nil, []*Expr{str(""), str("")}); !got.IsEmptyString() {
		t.Fatalf("empty texts must vanish")
	}
}

func TestWithHelpersKeepIdentity(t *testing.T) {
	a, b := str("a"), NewNative(testPos, "x")
	c := NewConcatenation(testPos, nil, []*Expr{a, b})
	if c.WithValues([]*Expr{a, b}) != c {
		t.Errorf("WithValues with same children must return receiver")
	}
	if c.WithValues([]*Expr{b, a}) == c {
		t.Errorf("WithValues with new children must copy")
	}

	attr := NewAttribute(testPos, "id", a)
	if attr.WithValue(a) != attr || attr.WithCond(nil) != attr {
		t.Errorf("attribute helpers must keep identity")
	}
	if attr.WithValue(b) == attr || attr.Value != a {
		t.Errorf("attribute must not be modified in place")
	}
}

func TestNewCollapseMerges(t *testing.T) {
	text := str(" x ")
	inner := NewCollapse(text, SpaceOperatorSet{Interior: SpacePreserve})
	if got := NewCollapse(inner, SpaceOperatorSet{Interior: SpacePreserve}); got != inner {
		t.Fatalf("equal operators must return the nested wrapper")
	}

	merged := NewCollapse(inner, DefaultSpaceOps)
	d := merged.Data.(CollapseData)
	if d.Sub != text {
		t.Fatalf("nested wrapper must be unwrapped")
	}
	want := SpaceOperatorSet{Interior: SpacePreserve, Exterior: SpaceRemove}
	if d.Ops != want {
		t.Fatalf("ops = %v, want %v", d.Ops, want)
	}
}

func TestAlwaysEquals(t *testing.T) {
	reg := schema.Builtin()
	html, _ := reg.ByName("html")
	js, _ := reg.ByName("javascript")

	tests := []struct {
		name string
		a, b *Expr
		want bool
	}{
		{"same text same schema", NewString(testPos, html, "a"), NewString(testPos, html, "a"), true},
		{"text without schema", str("a"), str("a"), false},
		{"text different schema", NewString(testPos, html, "a"), NewString(testPos, js, "a"), false},
		{"booleans", NewBoolean(testPos, true), NewBoolean(source.UnknownPos, true), true},
		{"natives", NewNative(testPos, "x.y()"), NewNative(testPos, "x.y()"), true},
		{"escaped natives", NewEscape(html, NewNative(testPos, "n")), NewEscape(html, NewNative(testPos, "n")), true},
		{"escape different target", NewEscape(html, NewNative(testPos, "n")), NewEscape(js, NewNative(testPos, "n")), false},
		{"object constants", NewObjectConstant(testPos, "v"), NewObjectConstant(testPos, "v"), false},
	}
	for _, tt := range tests {
		if got := AlwaysEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: AlwaysEquals = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStaticString(t *testing.T) {
	reg := schema.Builtin()
	html, _ := reg.ByName("html")
	b, _ := html.Element("b")
	br, _ := html.Element("br")

	el := NewOutputElement(testPos, html, OutputElementData{
		Tag:        "b",
		Attributes: []*Attribute{NewAttribute(testPos, "class", str("x"))},
		Content:    NewConcatenation(testPos, nil, []*Expr{str("hi"), NewOutputElement(testPos, html, OutputElementData{Tag: "br", Content: str(""), Validator: br})}),
		Validator:  b,
	})
	got, ok := StaticString(el)
	if !ok || got != `<b class="x">hi<br></b>` {
		t.Fatalf("StaticString = %q, %v", got, ok)
	}

	dyn := NewConcatenation(testPos, nil, []*Expr{str("a"), NewNative(testPos, "x")})
	if _, ok := StaticString(dyn); ok {
		t.Fatalf("natives are not static")
	}
}

func TestDisplayName(t *testing.T) {
	callee := MustTemplateName("com.example.Foo")
	tests := []struct {
		e    *Expr
		want string
	}{
		{str("x"), "text"},
		{NewUnboundCall(testPos, callee, nil, nil, str("")), "call to com.example.Foo"},
		{NewOutputElement(testPos, nil, OutputElementData{Tag: "div", Content: str("")}), "<div>"},
		{NewCollapse(str("x"), DefaultSpaceOps), "text"},
	}
	for _, tt := range tests {
		if got := tt.e.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
