package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gxpc/internal/diag"
	"gxpc/internal/source"
)

func sample() diag.Set {
	missing := diag.NewError(diag.ValMissingAttribute, source.At("page.gxp", 2, 2), "<img> must have a 'alt' attribute.")
	notFound := diag.NewError(diag.BindCallableNotFound,
		source.Range("page.gxp", source.LineCol{Line: 1, Col: 1}, source.LineCol{Line: 1, Col: 5}), "Callable not found: Crad").
		WithNote(source.UnknownPos, "did you mean Card?")
	return diag.NewSet(missing, notFound)
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, sample(), ""); err != nil {
		t.Fatal(err)
	}
	want := "page.gxp:1:1:1:5: Callable not found: Crad\n" +
		"page.gxp:2:2:2:2: <img> must have a 'alt' attribute.\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyExcerpt(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("page.gxp", []byte("<Crad/>\n<img src=\"x\">\n"))

	var buf bytes.Buffer
	err := Pretty(&buf, sample(), PrettyOpts{Files: fs, ShowNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"page.gxp:1:1: error[BND1001]: Callable not found: Crad",
		"    1 | <Crad/>",
		"      | ^~~~",
		"  note: did you mean Card?",
		"page.gxp:2:2: error[VAL5010]: <img> must have a 'alt' attribute.",
		"    2 | <img src=\"x\">",
		"      |  ^",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyPolicyAndMax(t *testing.T) {
	policy := diag.DefaultPolicy{Overrides: map[diag.Code]diag.Severity{diag.ValMissingAttribute: diag.SevWarning}}
	var buf bytes.Buffer
	if err := Pretty(&buf, sample(), PrettyOpts{Policy: policy, Max: 1, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("expected a single line, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := Pretty(&buf, sample(), PrettyOpts{Policy: policy}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "warning[VAL5010]") {
		t.Errorf("override not applied:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	policy := diag.DefaultPolicy{Overrides: map[diag.Code]diag.Severity{diag.ValMissingAttribute: diag.SevWarning}}
	if err := JSON(&buf, sample(), JSONOpts{IncludeNotes: true, Policy: policy}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || out.Errors != 1 {
		t.Fatalf("count=%d errors=%d", out.Count, out.Errors)
	}
	first := out.Diagnostics[0]
	if first.Code != "BND1001" || first.Location.EndCol != 5 || len(first.Notes) != 1 || first.Notes[0].Location != nil {
		t.Errorf("unexpected first diagnostic: %+v", first)
	}
	if out.Diagnostics[1].Severity != "WARNING" {
		t.Errorf("severity = %s", out.Diagnostics[1].Severity)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "gxpc", ToolVersion: "0.1.0", InvocationArgs: []string{"check"}}
	if err := Sarif(&buf, sample(), JSONOpts{}, meta); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log: %+v", log)
	}
	run := log.Runs[0]
	if len(run.Results) != 2 || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("results=%d rules=%d", len(run.Results), len(run.Tool.Driver.Rules))
	}
	if run.Tool.Driver.Rules[0].ID != "BND1001" || run.Results[1].Level != "error" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Error("a run with errors is not successful")
	}
}

func TestDisplayPath(t *testing.T) {
	if got := displayPath("/work/tpl/a.gxp", PathModeRelative, "/work"); got != "tpl/a.gxp" {
		t.Errorf("relative = %q", got)
	}
	if got := displayPath("/work/tpl/a.gxp", PathModeBasename, ""); got != "a.gxp" {
		t.Errorf("basename = %q", got)
	}
	if got := displayPath("/elsewhere/a.gxp", PathModeAuto, "/work"); got != "/elsewhere/a.gxp" {
		t.Errorf("outside base = %q", got)
	}
}
