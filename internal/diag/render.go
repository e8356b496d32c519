package diag

import (
	"strings"
)

// Render formats one diagnostic as
// "<relative-path>:<startLine>:<startCol>:<endLine>:<endCol>: <message>".
// Unknown line/column values are rendered as 0.
func Render(d Diagnostic, baseDir string) string {
	var b strings.Builder
	b.WriteString(d.Pos.Format(baseDir))
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// RenderSet renders every diagnostic on its own line in set order.
func RenderSet(s Set, baseDir string) string {
	lines := make([]string, 0, s.Len())
	for d := range s.All {
		lines = append(lines, Render(d, baseDir))
	}
	return strings.Join(lines, "\n")
}
