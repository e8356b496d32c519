package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gxpc/internal/driver"
	"gxpc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show gxpc build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		build, err := cmd.Flags().GetBool("build")
		if err != nil {
			return err
		}
		b := version.Current()
		switch strings.ToLower(format) {
		case "pretty":
			printVersion(cmd.OutOrStdout(), b, build)
			return nil
		case "json":
			return writeVersionJSON(cmd.OutOrStdout(), b)
		default:
			return errInvalidFlag("format", format, "pretty or json")
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("build", false, "include commit, build date and toolchain")
}

func printVersion(out io.Writer, b version.Build, build bool) {
	fmt.Fprintf(out, "gxpc %s (cache format %d)\n", version.Colored(), driver.CacheFormat)
	if !build {
		return
	}
	commit := orUnknown(b.Commit)
	if b.Modified {
		commit += " (modified)"
	}
	fmt.Fprintf(out, "commit:  %s\n", commit)
	fmt.Fprintf(out, "built:   %s\n", orUnknown(b.Date))
	fmt.Fprintf(out, "go:      %s\n", orUnknown(b.GoVersion))
}

type versionJSON struct {
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	Modified    bool   `json:"modified,omitempty"`
	BuildDate   string `json:"build_date,omitempty"`
	GoVersion   string `json:"go_version,omitempty"`
	CacheFormat uint16 `json:"cache_format"`
}

func writeVersionJSON(out io.Writer, b version.Build) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(versionJSON{
		Version:     b.Version,
		Commit:      b.Commit,
		Modified:    b.Modified,
		BuildDate:   b.Date,
		GoVersion:   b.GoVersion,
		CacheFormat: driver.CacheFormat,
	})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
