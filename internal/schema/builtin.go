package schema

import (
	"golang.org/x/net/html/atom"
)

// Content types of the built-in schemas.
const (
	ContentTypeHTML  = "text/html"
	ContentTypeXHTML = "application/xhtml+xml"
	ContentTypeJS    = "text/javascript"
	ContentTypeCSS   = "text/css"
	ContentTypeText  = "text/plain"
)

var (
	coreAttrs = []AttrDef{
		{Name: "id", Pattern: `[A-Za-z][-A-Za-z0-9_:.]*`},
		{Name: "class"},
		{Name: "title"},
		{Name: "style", ContentType: ContentTypeCSS},
		{Name: "onclick", ContentType: ContentTypeJS},
	}

	htmlElements = []ElementDef{
		el(atom.A, nil, "", AttrDef{Name: "href", Flags: []string{"url"}}, AttrDef{Name: "target"}),
		el(atom.B, nil, ""),
		el(atom.I, nil, ""),
		el(atom.Em, nil, ""),
		el(atom.Strong, nil, ""),
		el(atom.Span, nil, ""),
		el(atom.Div, nil, ""),
		el(atom.P, nil, ""),
		el(atom.Html, nil, ""),
		el(atom.Head, nil, ""),
		el(atom.Body, nil, "", AttrDef{Name: "onload", ContentType: ContentTypeJS}),
		el(atom.Title, []string{"invisiblebody"}, ContentTypeText),
		el(atom.Br, []string{"childless", "noendtag"}, ""),
		el(atom.Hr, []string{"childless", "noendtag"}, ""),
		el(atom.Img, []string{"childless", "noendtag"}, "",
			AttrDef{Name: "src", Flags: []string{"required", "url"}},
			AttrDef{Name: "alt", Flags: []string{"required"}},
			AttrDef{Name: "width", Pattern: `[0-9]+%?`},
			AttrDef{Name: "height", Pattern: `[0-9]+%?`}),
		el(atom.Input, []string{"childless", "noendtag"}, "",
			AttrDef{Name: "type", Pattern: `text|password|checkbox|radio|submit|hidden|button`},
			AttrDef{Name: "name"},
			AttrDef{Name: "value"},
			AttrDef{Name: "checked", Flags: []string{"boolean"}},
			AttrDef{Name: "disabled", Flags: []string{"boolean"}}),
		el(atom.Form, nil, "", AttrDef{Name: "action", Flags: []string{"url"}}, AttrDef{Name: "method", Pattern: `(?i)get|post`}),
		el(atom.Select, nil, "", AttrDef{Name: "name"}, AttrDef{Name: "multiple", Flags: []string{"boolean"}}),
		el(atom.Option, nil, "", AttrDef{Name: "value"}, AttrDef{Name: "selected", Flags: []string{"boolean"}}),
		el(atom.Pre, []string{"preservespaces"}, ""),
		el(atom.Textarea, []string{"preservespaces"}, "", AttrDef{Name: "name"}, AttrDef{Name: "rows", Pattern: `[0-9]+`}),
		el(atom.Script, []string{"preservespaces"}, ContentTypeJS, AttrDef{Name: "src", Flags: []string{"url"}}, AttrDef{Name: "type"}),
		el(atom.Style, []string{"preservespaces"}, ContentTypeCSS, AttrDef{Name: "type"}),
	}
)

func el(a atom.Atom, flags []string, inner string, extra ...AttrDef) ElementDef {
	attrs := make([]AttrDef, 0, len(coreAttrs)+len(extra))
	attrs = append(attrs, coreAttrs...)
	attrs = append(attrs, extra...)
	return ElementDef{Tag: a.String(), Flags: flags, InnerContentType: inner, Attributes: attrs}
}

// BuiltinDefs returns the definitions of the schemas every registry starts with.
func BuiltinDefs() []Def {
	return []Def{
		{
			Name:        "html",
			ContentType: ContentTypeHTML,
			Allows:      []string{"xhtml"},
			MsgSchema:   "html",
			Native:      map[string]string{"java": "com.google.gxp.html.HtmlClosure", "cpp": "HtmlClosure", "js": "GxpHtmlClosure", "scala": "HtmlClosure"},
			Elements:    htmlElements,
		},
		{
			Name:        "xhtml",
			ContentType: ContentTypeXHTML,
			Allows:      []string{"html"},
			MsgSchema:   "xhtml",
			Native:      map[string]string{"java": "com.google.gxp.html.HtmlClosure", "cpp": "HtmlClosure", "js": "GxpHtmlClosure", "scala": "HtmlClosure"},
			Elements:    htmlElements,
		},
		{
			Name:        "javascript",
			ContentType: ContentTypeJS,
			Native:      map[string]string{"java": "com.google.gxp.js.JavascriptClosure", "cpp": "JavascriptClosure", "js": "GxpJavascriptClosure", "scala": "JavascriptClosure"},
		},
		{
			Name:        "css",
			ContentType: ContentTypeCSS,
			Native:      map[string]string{"java": "com.google.gxp.css.CssClosure", "cpp": "CssClosure", "js": "GxpCssClosure", "scala": "CssClosure"},
		},
		{
			Name:        "plaintext",
			ContentType: ContentTypeText,
			Native:      map[string]string{"java": "com.google.gxp.text.PlaintextClosure", "cpp": "PlaintextClosure", "js": "GxpPlaintextClosure", "scala": "PlaintextClosure"},
		},
	}
}

// Builtin returns a fresh registry holding the built-in schemas.
func Builtin() *Registry {
	r := NewRegistry()
	if err := r.Register(BuiltinDefs()...); err != nil {
		panic(err)
	}
	return r
}
