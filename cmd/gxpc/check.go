package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gxpc/internal/diagfmt"
	"gxpc/internal/driver"
	"gxpc/internal/observ"
	"gxpc/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.gxp.json|directory]...",
	Short: "Compile template units and report diagnostics",
	Long: `Compile template units and report diagnostics. Without arguments the
sources listed in gxpc.toml are checked, or the working directory when there
is no project file.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("werror", false, "treat warnings as errors")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
}

type checkFlags struct {
	format    string
	ui        uiMode
	werror    bool
	withNotes bool
	pathMode  diagfmt.PathMode
	timings   bool
	quiet     bool
	max       int
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var f checkFlags
	var err error
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, err
	}
	f.format = strings.ToLower(f.format)
	switch f.format {
	case "pretty", "short", "json", "sarif":
	default:
		return f, errInvalidFlag("format", f.format, "pretty|short|json|sarif")
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, err
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return f, err
	}
	if f.werror, err = cmd.Flags().GetBool("werror"); err != nil {
		return f, err
	}
	if f.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return f, err
	}
	pm, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return f, err
	}
	var ok bool
	if f.pathMode, ok = diagfmt.ParsePathMode(pm); !ok {
		return f, errInvalidFlag("path-mode", pm, "auto|absolute|relative|basename")
	}
	root := cmd.Root().PersistentFlags()
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, err
	}
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return f, err
	}
	if f.max, err = root.GetInt("max-diagnostics"); err != nil {
		return f, err
	}
	return f, nil
}

// runCheck compiles the units and prints their diagnostics in the chosen
// format. It fails without further output when any diagnostic is an error
// under the effective policy.
func runCheck(cmd *cobra.Command, args []string) error {
	flags, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	s, err := prepareCheck(cmd, args, timer)
	if err != nil {
		return err
	}

	policy := s.policy
	if flags.werror {
		policy.WarningsAsErrors = true
	}
	s.opts.Policy = policy
	withNotes := flags.withNotes
	if s.project != nil {
		withNotes = withNotes || s.project.Diagnostics.Verbose
		if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && s.project.Diagnostics.Max > 0 {
			flags.max = s.project.Diagnostics.Max
		}
	}

	var report *driver.Report
	// прогресс рисуем только для человекочитаемого вывода
	if flags.format == "pretty" && !flags.quiet && shouldUseTUI(flags.ui) {
		report, err = runCheckWithUI(cmd.Context(), "gxpc check", s)
	} else {
		report, err = runPlain(cmd, s)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch flags.format {
	case "pretty":
		err = diagfmt.Pretty(out, report.Diagnostics, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  flags.pathMode,
			BaseDir:   s.baseDir,
			Files:     report.Files,
			ShowNotes: withNotes,
			Policy:    policy,
			Max:       flags.max,
		})
		if err == nil && !flags.quiet {
			printCheckSummary(out, report)
		}
	case "short":
		err = diagfmt.Short(out, report.Diagnostics, s.baseDir)
	case "json":
		doc := diagfmt.BuildDiagnosticsOutput(report.Diagnostics, diagfmt.JSONOpts{
			PathMode:     flags.pathMode,
			BaseDir:      s.baseDir,
			Max:          flags.max,
			IncludeNotes: withNotes,
			Policy:       policy,
		})
		if flags.timings {
			doc.Timings = timer.Report()
		}
		err = diagfmt.WriteJSON(out, doc)
	case "sarif":
		err = diagfmt.Sarif(out, report.Diagnostics, diagfmt.JSONOpts{
			PathMode:     flags.pathMode,
			BaseDir:      s.baseDir,
			Max:          flags.max,
			IncludeNotes: withNotes,
			Policy:       policy,
		}, diagfmt.SarifRunMeta{
			ToolName:       "gxpc",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	}
	if err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}
	if flags.timings && flags.format != "json" {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if report.Errors > 0 {
		return errDiagnostics
	}
	return nil
}

func printCheckSummary(out io.Writer, report *driver.Report) {
	units := len(report.Units)
	switch {
	case report.Errors > 0:
		fmt.Fprintf(out, "%s %d error(s) in %d unit(s)\n", color.RedString("✗"), report.Errors, units)
	case report.CacheHits > 0:
		fmt.Fprintf(out, "%s %d unit(s) checked, %d from cache\n", color.GreenString("✓"), units, report.CacheHits)
	default:
		fmt.Fprintf(out, "%s %d unit(s) checked\n", color.GreenString("✓"), units)
	}
}
