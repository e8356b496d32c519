package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/net/html/atom"
)

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		ct   string
		want ContentFamily
	}{
		{"text/html", FamilyMarkup},
		{"application/xhtml+xml", FamilyMarkup},
		{"text/javascript", FamilyJavaScript},
		{"TEXT/CSS", FamilyCSS},
		{"text/plain; charset=utf-8", FamilyPlainText},
	}
	for _, tt := range tests {
		if got := FamilyFor(tt.ct); got != tt.want {
			t.Errorf("FamilyFor(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}

func TestEscapeStatic(t *testing.T) {
	if got := FamilyMarkup.EscapeStatic(`a < b & "c"`); got != "a &lt; b &amp; &#34;c&#34;" {
		t.Fatalf("unexpected markup escape: %q", got)
	}
	for _, f := range []ContentFamily{FamilyJavaScript, FamilyCSS, FamilyPlainText} {
		if got := f.EscapeStatic("a < b"); got != "a < b" {
			t.Errorf("%v must not escape statically, got %q", f, got)
		}
	}
}

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()
	html, ok := r.Lookup("text/html")
	if !ok {
		t.Fatalf("html schema missing")
	}
	xhtml, _ := r.ByName("xhtml")
	js, _ := r.Lookup(ContentTypeJS)

	if !html.Allows(html) || !html.Allows(xhtml) {
		t.Errorf("html must allow itself and xhtml")
	}
	if html.Allows(js) || html.Allows(nil) {
		t.Errorf("html must not allow javascript or nil")
	}
	if html.MsgSchema() != html || !html.IsTranslatable() {
		t.Errorf("html messages are written in html")
	}
	if js.MsgSchema() != js {
		t.Errorf("schema without msg schema uses itself")
	}

	script, ok := html.Element("script")
	if !ok || script.Atom != atom.Script || !script.Has(ElemPreserveSpaces) || script.InnerContentType != ContentTypeJS {
		t.Fatalf("unexpected script validator: %+v", script)
	}
	img, _ := html.Element("img")
	src, ok := img.Attr("src")
	if !ok || !src.Has(AttrRequired) {
		t.Fatalf("img src must be required")
	}
	width, _ := img.Attr("width")
	if !width.Accepts("100%") || width.Accepts("wide") {
		t.Errorf("width pattern must be anchored")
	}
}

func TestRegisterFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.toml")
	src := `
[[schema]]
name = "rss"
content_type = "application/rss+xml"
allows = ["html"]
msg_schema = "html"

[schema.native]
java = "RssClosure"

[[schema.element]]
tag = "rssitem"
flags = ["preservespaces"]

[[schema.element.attribute]]
name = "guid"
flags = ["required"]
pattern = "[0-9a-f]+"
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := Builtin()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	rss, ok := r.ByName("rss")
	if !ok {
		t.Fatalf("rss not registered")
	}
	html, _ := r.ByName("html")
	if rss.Family != FamilyMarkup || rss.MsgSchema() != html || rss.IsTranslatable() {
		t.Errorf("unexpected rss schema: %+v", rss)
	}
	if rss.NativeType(BackendJava) != "RssClosure" {
		t.Errorf("native type not loaded")
	}
	item, ok := rss.Element("rssitem")
	if !ok || item.IsStandard() {
		t.Fatalf("rssitem must be a non-standard element")
	}
	guid, _ := item.Attr("guid")
	if !guid.Has(AttrRequired) || !guid.Accepts("beef") || guid.Accepts("xyz") {
		t.Errorf("unexpected guid validator %+v", guid)
	}

	if err := r.LoadFile(path); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAttributeValidatorEqual(t *testing.T) {
	a, _ := buildAttr(AttrDef{Name: "href", Pattern: "x+", Flags: []string{"required"}})
	b, _ := buildAttr(AttrDef{Name: "href", Pattern: "x+", Flags: []string{"required"}})
	c, _ := buildAttr(AttrDef{Name: "href", Pattern: "x+"})
	if !a.Equal(b) {
		t.Errorf("identical definitions must be equal")
	}
	if a.Equal(c) {
		t.Errorf("flags differ, validators must differ")
	}
}
