package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gxpc/internal/config"
	"gxpc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gxpc",
	Short: "GXP template compiler",
	Long:  `gxpc binds, escapes, extracts messages from and validates GXP template units`,
	// ошибки печатает main, диагностики уже напечатаны командой
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		stopProfile, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfile
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runTraceCleanup()
		runProfileCleanup()
	},
}

// main registers the subcommands and persistent flags, then executes the
// root command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show (0 = all)")
	rootCmd.PersistentFlags().String("config", "", "path to "+config.FileName+" (default: search upward from the working directory)")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel workers (0=auto)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the unit cache")

	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")

	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		runTraceCleanup()
		runProfileCleanup()
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, "gxpc:", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	on, err := colorEnabled(mode, isTerminal(os.Stdout))
	if err != nil {
		return err
	}
	color.NoColor = !on
	return nil
}

func colorEnabled(mode string, tty bool) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return tty && os.Getenv("NO_COLOR") == "", nil
	}
	return false, errInvalidFlag("color", mode, "auto|on|off")
}
