package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gxpc/internal/depgraph"
)

var depsCmd = &cobra.Command{
	Use:   "deps [flags] [file.gxp.json|directory]...",
	Short: "Show which templates call which",
	Long: `Show the call graph between the checked units. The default output lists
every unit with the units it calls; --order prints them callees first, in
batches that do not depend on each other.`,
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().Bool("order", false, "print a topological order instead of the edge list")
	depsCmd.Flags().Bool("paths", false, "print unit file paths instead of template names")
}

func runDeps(cmd *cobra.Command, args []string) error {
	order, err := cmd.Flags().GetBool("order")
	if err != nil {
		return err
	}
	paths, err := cmd.Flags().GetBool("paths")
	if err != nil {
		return err
	}
	s, err := prepareCheck(cmd, args, nil)
	if err != nil {
		return err
	}
	report, err := runPlain(cmd, s)
	if err != nil {
		return err
	}

	idx, g := report.Graph()
	label := func(id depgraph.ID) string {
		if paths && g.Present[id] {
			return g.Slots[id].Path
		}
		return idx.IDToName[id].String()
	}
	out := cmd.OutOrStdout()
	if order {
		printTopo(out, depgraph.Sort(g), label)
		return nil
	}
	for id := range g.Slots {
		if !g.Present[id] {
			continue
		}
		var reqs []string
		for _, r := range g.Requires(idx, depgraph.ID(id)) {
			reqs = append(reqs, label(r))
		}
		fmt.Fprintf(out, "%s:", label(depgraph.ID(id)))
		if len(reqs) > 0 {
			fmt.Fprint(out, " "+strings.Join(reqs, " "))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printTopo(out io.Writer, topo *depgraph.Topo, label func(depgraph.ID) string) {
	for i, batch := range topo.Batches {
		names := make([]string, len(batch))
		for j, id := range batch {
			names[j] = label(id)
		}
		fmt.Fprintf(out, "%d: %s\n", i, strings.Join(names, " "))
	}
	if topo.Cyclic() {
		names := make([]string, len(topo.Recursive))
		for j, id := range topo.Recursive {
			names[j] = label(id)
		}
		fmt.Fprintf(out, "%s %s\n", color.YellowString("recursive:"), strings.Join(names, " "))
	}
}
