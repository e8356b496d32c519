package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"gxpc/internal/diag"
	"gxpc/internal/source"
)

// Pretty writes diagnostics for humans:
//
//	<path>:<line>:<col>: error[VAL5010]: <message>
//	   12 | <img src="x.png">
//	      | ^~~~
//	  note: <path>:<line>:<col>: <note>
//
// The excerpt is shown when the source file is in opts.Files. Carets are
// aligned by display width, so wide characters before the column are
// accounted for. Columns count bytes.
func Pretty(w io.Writer, s diag.Set, opts PrettyOpts) error {
	p := &printer{w: w, opts: opts}
	for _, d := range limit(s.Sorted(), opts.Max) {
		p.diagnostic(d)
	}
	return p.err
}

type printer struct {
	w    io.Writer
	opts PrettyOpts
	err  error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	return c.Sprint(s)
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

func (p *printer) severity(sev diag.Severity) string {
	label := strings.ToLower(sev.String())
	switch sev {
	case diag.SevError:
		return p.paint(errorColor, label)
	case diag.SevWarning:
		return p.paint(warningColor, label)
	}
	return p.paint(infoColor, label)
}

func (p *printer) location(pos source.Pos) string {
	path := displayPath(pos.Path, p.opts.PathMode, p.opts.BaseDir)
	if path == "" {
		path = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	sev := diag.Effective(p.opts.Policy, d)
	p.printf("%s: %s[%s]: %s\n", p.location(d.Pos), p.severity(sev), d.Code.ID(), d.Message)
	p.excerpt(d.Pos)
	if !p.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		if n.Pos.Known() {
			p.printf("  %s: %s: %s\n", p.paint(noteColor, "note"), p.location(n.Pos), n.Msg)
		} else {
			p.printf("  %s: %s\n", p.paint(noteColor, "note"), n.Msg)
		}
	}
}

func (p *printer) excerpt(pos source.Pos) {
	if p.opts.Files == nil || pos.Line == 0 {
		return
	}
	line, ok := p.opts.Files.Line(pos.Path, pos.Line)
	if !ok || line == "" {
		return
	}
	line = strings.TrimRight(line, "\r")
	gutter := fmt.Sprintf("%5d | ", pos.Line)
	p.printf("%s%s\n", gutter, line)

	prefix, rest := splitAtColumn(line, pos.Col)
	width := 1
	if pos.EndLine == pos.Line && pos.EndCol > pos.Col {
		span, _ := splitAtColumn(rest, pos.EndCol-pos.Col+1)
		width = max(1, runewidth.StringWidth(span))
	}
	marker := "^" + strings.Repeat("~", width-1)
	p.printf("%s%s%s\n", strings.Repeat(" ", len(gutter)-2)+"| ",
		strings.Repeat(" ", runewidth.StringWidth(prefix)), p.paint(caretColor, marker))
}

// splitAtColumn splits line before the 1-based byte column col.
func splitAtColumn(line string, col uint32) (string, string) {
	if col <= 1 {
		return "", line
	}
	if int(col-1) >= len(line) {
		return line, ""
	}
	return line[:col-1], line[col-1:]
}
