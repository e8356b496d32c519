// Package depgraph orders templates by the callables they require.
package depgraph

import (
	"slices"

	"gxpc/internal/tree"
)

type ID uint32

// Node is one compiled unit and the templates it calls.
type Node struct {
	Name     tree.TemplateName
	Path     string
	Requires []tree.TemplateName
}

type Index struct {
	NameToID map[tree.TemplateName]ID
	IDToName []tree.TemplateName
}

// BuildIndex collects the unit names and everything they require, sorted.
func BuildIndex(nodes []Node) Index {
	uniq := make(map[tree.TemplateName]struct{}, len(nodes))
	for _, n := range nodes {
		if !n.Name.IsZero() {
			uniq[n.Name] = struct{}{}
		}
		for _, r := range n.Requires {
			uniq[r] = struct{}{}
		}
	}
	names := make([]tree.TemplateName, 0, len(uniq))
	for n := range uniq {
		names = append(names, n)
	}
	slices.SortFunc(names, tree.TemplateName.Compare)

	idx := Index{NameToID: make(map[tree.TemplateName]ID, len(names)), IDToName: names}
	for i, n := range names {
		idx.NameToID[n] = ID(i)
	}
	return idx
}

// Graph points from a template to the templates that call it, so that a
// topological order lists callees first.
type Graph struct {
	Edges   [][]ID // Edges[callee] = callers
	Indeg   []int  // число вызываемых шаблонов, присутствующих в наборе
	Present []bool // шаблон определён одним из юнитов
	Slots   []Node
}

func BuildGraph(idx Index, nodes []Node) Graph {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
		Slots:   make([]Node, count),
	}
	for i, n := range idx.IDToName {
		g.Slots[i].Name = n
	}
	for _, n := range nodes {
		id, ok := idx.NameToID[n.Name]
		if !ok || g.Present[id] {
			// дубликаты отсекает драйвер; берём первый
			continue
		}
		g.Present[id] = true
		g.Slots[id] = n
	}
	for from := range g.Slots {
		if !g.Present[from] {
			continue
		}
		seen := make(map[ID]struct{}, len(g.Slots[from].Requires))
		for _, r := range g.Slots[from].Requires {
			to := idx.NameToID[r]
			if int(to) == from || !g.Present[to] {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[to] = append(g.Edges[to], ID(from))
			g.Indeg[from]++
		}
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	return g
}

// Requires lists the present templates id calls directly, sorted.
func (g Graph) Requires(idx Index, id ID) []ID {
	var out []ID
	for _, r := range g.Slots[id].Requires {
		to, ok := idx.NameToID[r]
		if ok && to != id && g.Present[to] && !slices.Contains(out, to) {
			out = append(out, to)
		}
	}
	slices.Sort(out)
	return out
}
