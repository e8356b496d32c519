package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gxpc/internal/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the schemas known to the project",
	RunE:  runSchemas,
}

func init() {
	schemasCmd.Flags().Bool("elements", false, "list the elements each schema defines")
}

func runSchemas(cmd *cobra.Command, args []string) error {
	elements, err := cmd.Flags().GetBool("elements")
	if err != nil {
		return err
	}
	project, err := loadProject(cmd)
	if err != nil {
		return err
	}
	reg := schema.Builtin()
	if project != nil {
		if reg, err = project.Registry(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, s := range reg.Schemas() {
		fmt.Fprintf(out, "%-12s %-28s %s", color.CyanString(s.Name), s.ContentType, s.Family)
		if s.IsTranslatable() {
			fmt.Fprint(out, "  translatable")
		}
		fmt.Fprintln(out)
		if len(s.Allowed) > 0 {
			fmt.Fprintf(out, "    allows:   %s\n", strings.Join(s.Allowed, ", "))
		}
		if len(s.NativeTypes) > 0 {
			backends := slices.Sorted(maps.Keys(s.NativeTypes))
			parts := make([]string, len(backends))
			for i, b := range backends {
				parts[i] = fmt.Sprintf("%s=%s", b, s.NativeTypes[b])
			}
			fmt.Fprintf(out, "    native:   %s\n", strings.Join(parts, " "))
		}
		if elements {
			if tags := s.ElementTags(); len(tags) > 0 {
				fmt.Fprintf(out, "    elements: %s\n", strings.Join(tags, " "))
			}
		}
	}
	return nil
}
