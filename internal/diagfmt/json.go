package diagfmt

import (
	"encoding/json"
	"io"

	"gxpc/internal/diag"
	"gxpc/internal/source"
)

// LocationJSON is a position in a template source.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// NoteJSON is secondary context attached to a diagnostic.
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON is one diagnostic.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	// Timings is filled by the driver when --timings is set.
	Timings any `json:"timings,omitempty"`
}

func makeLocation(pos source.Pos, mode PathMode, baseDir string) LocationJSON {
	return LocationJSON{
		File:      displayPath(pos.Path, mode, baseDir),
		StartLine: pos.Line,
		StartCol:  pos.Col,
		EndLine:   pos.EndLine,
		EndCol:    pos.EndCol,
	}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
// Count is the number of diagnostics written; Errors counts every error in
// s, including those cut by Max.
func BuildDiagnosticsOutput(s diag.Set, opts JSONOpts) DiagnosticsOutput {
	items := limit(s.Sorted(), opts.Max)
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, len(items)),
		Errors:      diag.CountErrors(opts.Policy, s),
	}
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: diag.Effective(opts.Policy, d).String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Pos, opts.PathMode, opts.BaseDir),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				nj := NoteJSON{Message: n.Msg}
				if n.Pos.Known() {
					loc := makeLocation(n.Pos, opts.PathMode, opts.BaseDir)
					nj.Location = &loc
				}
				dj.Notes = append(dj.Notes, nj)
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the diagnostics as one indented JSON document.
func JSON(w io.Writer, s diag.Set, opts JSONOpts) error {
	return WriteJSON(w, BuildDiagnosticsOutput(s, opts))
}

// WriteJSON encodes an already built document, e.g. after the driver has
// attached timings.
func WriteJSON(w io.Writer, out DiagnosticsOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
