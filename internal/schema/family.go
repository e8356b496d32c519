package schema

import (
	"html"
	"strings"
)

// ContentFamily groups schemas that share a static escaping rule.
type ContentFamily uint8

const (
	FamilyMarkup ContentFamily = iota
	FamilyJavaScript
	FamilyCSS
	FamilyPlainText
)

func (f ContentFamily) String() string {
	switch f {
	case FamilyMarkup:
		return "markup"
	case FamilyJavaScript:
		return "javascript"
	case FamilyCSS:
		return "css"
	case FamilyPlainText:
		return "plaintext"
	}
	return "unknown"
}

// FamilyFor classifies a canonical content type.
func FamilyFor(contentType string) ContentFamily {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "text/javascript":
		return FamilyJavaScript
	case "text/css":
		return FamilyCSS
	case "text/plain":
		return FamilyPlainText
	default:
		return FamilyMarkup
	}
}

// EscapeStatic escapes literal template text for this family. Only markup is
// rewritten here; the other families are escaped at runtime through inserted
// escape nodes.
func (f ContentFamily) EscapeStatic(s string) string {
	if f == FamilyMarkup {
		return html.EscapeString(s)
	}
	return s
}
