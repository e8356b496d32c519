package driver

import (
	"cmp"
	"slices"

	"gxpc/internal/depgraph"
	"gxpc/internal/msgextract"
)

// Messages returns the message catalog of the run: one record per message
// id, sorted by id, with the sources of every occurrence.
func (r *Report) Messages() []*msgextract.Message {
	byID := make(map[uint64]*msgextract.Message)
	for _, u := range r.Units {
		for _, m := range u.Messages {
			if prev, ok := byID[m.ID]; ok {
				prev.Sources = append(prev.Sources, m.Sources...)
				continue
			}
			c := *m
			c.Sources = slices.Clone(m.Sources)
			byID[m.ID] = &c
		}
	}
	out := make([]*msgextract.Message, 0, len(byID))
	for _, m := range byID {
		slices.Sort(m.Sources)
		m.Sources = slices.Compact(m.Sources)
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *msgextract.Message) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Graph builds the call graph between the checked units.
func (r *Report) Graph() (depgraph.Index, depgraph.Graph) {
	nodes := make([]depgraph.Node, 0, len(r.Units))
	for _, u := range r.Units {
		nodes = append(nodes, depgraph.Node{Name: u.Name, Path: u.Path, Requires: u.Requirements})
	}
	idx := depgraph.BuildIndex(nodes)
	return idx, depgraph.BuildGraph(idx, nodes)
}
