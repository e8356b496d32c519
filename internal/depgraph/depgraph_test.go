package depgraph

import (
	"slices"
	"testing"

	"gxpc/internal/tree"
)

func node(name string, requires ...string) Node {
	n := Node{Name: tree.MustTemplateName(name), Path: name + ".gxp.json"}
	for _, r := range requires {
		n.Requires = append(n.Requires, tree.MustTemplateName(r))
	}
	return n
}

func names(idx Index, ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[id].String()
	}
	return out
}

func TestBuildIndexIncludesRequirements(t *testing.T) {
	idx := BuildIndex([]Node{
		node("a.Page", "a.Card", "lib.Icon"),
		node("a.Card"),
	})
	want := []string{"a.Card", "a.Page", "lib.Icon"}
	if got := names(idx, []ID{0, 1, 2}); !slices.Equal(got, want) {
		t.Fatalf("IDToName = %v, want %v", got, want)
	}
	for i, n := range want {
		if id := idx.NameToID[tree.MustTemplateName(n)]; int(id) != i {
			t.Fatalf("NameToID[%s] = %d, want %d", n, id, i)
		}
	}
}

func TestSortOrdersCalleesFirst(t *testing.T) {
	nodes := []Node{
		node("a.Page", "a.Card", "a.Layout", "lib.Missing"),
		node("a.Layout", "a.Card"),
		node("a.Card"),
		node("a.Other"),
	}
	idx := BuildIndex(nodes)
	g := BuildGraph(idx, nodes)
	if g.Present[idx.NameToID[tree.MustTemplateName("lib.Missing")]] {
		t.Fatalf("missing template marked present")
	}
	topo := Sort(g)
	if topo.Cyclic() {
		t.Fatalf("unexpected cycle: %v", names(idx, topo.Recursive))
	}
	batches := make([][]string, len(topo.Batches))
	for i, b := range topo.Batches {
		batches[i] = names(idx, b)
	}
	want := [][]string{{"a.Card", "a.Other"}, {"a.Layout"}, {"a.Page"}}
	if len(batches) != len(want) {
		t.Fatalf("batches = %v, want %v", batches, want)
	}
	for i := range want {
		if !slices.Equal(batches[i], want[i]) {
			t.Fatalf("batches = %v, want %v", batches, want)
		}
	}
	page := idx.NameToID[tree.MustTemplateName("a.Page")]
	if got := names(idx, g.Requires(idx, page)); !slices.Equal(got, []string{"a.Card", "a.Layout"}) {
		t.Fatalf("Requires(a.Page) = %v", got)
	}
}

func TestSortKeepsRecursion(t *testing.T) {
	nodes := []Node{
		node("a.Tree", "a.Branch", "a.Tree"),
		node("a.Branch", "a.Tree"),
		node("a.Leaf"),
		node("a.Forest", "a.Tree"),
	}
	idx := BuildIndex(nodes)
	topo := Sort(BuildGraph(idx, nodes))
	if !topo.Cyclic() {
		t.Fatalf("expected recursion")
	}
	if got := names(idx, topo.Order); !slices.Equal(got, []string{"a.Leaf"}) {
		t.Fatalf("Order = %v", got)
	}
	if got := names(idx, topo.Recursive); !slices.Equal(got, []string{"a.Branch", "a.Forest", "a.Tree"}) {
		t.Fatalf("Recursive = %v", got)
	}
}

func TestBuildGraphKeepsFirstDuplicate(t *testing.T) {
	first := node("a.Page", "a.Card")
	second := node("a.Page")
	second.Path = "other.gxp.json"
	nodes := []Node{first, second, node("a.Card")}
	idx := BuildIndex(nodes)
	g := BuildGraph(idx, nodes)
	page := idx.NameToID[tree.MustTemplateName("a.Page")]
	if g.Slots[page].Path != first.Path || g.Indeg[page] != 1 {
		t.Fatalf("slot = %+v indeg = %d", g.Slots[page], g.Indeg[page])
	}
}
