package depgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []ID   // линейный порядок (только присутствующие шаблоны)
	Batches [][]ID // волны шаблонов, не зависящих друг от друга
	// Recursive holds templates on or behind a call cycle. Mutual recursion
	// is legal; those templates just have no order.
	Recursive []ID
}

// Sort runs Kahn's algorithm over g.
func Sort(g Graph) *Topo {
	count := len(g.Edges)
	indeg := slices.Clone(g.Indeg)
	topo := &Topo{Order: make([]ID, 0, count)}

	toID := func(i int) ID {
		id, err := safecast.Conv[ID](i)
		if err != nil {
			panic(fmt.Errorf("template id overflow: %w", err))
		}
		return id
	}

	active := 0
	current := make([]ID, 0, count)
	for i := range count {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)
		var next []ID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[id] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != active {
		for i := range count {
			if g.Present[i] && indeg[i] > 0 {
				topo.Recursive = append(topo.Recursive, toID(i))
			}
		}
	}
	return topo
}

// Cyclic reports whether some templates could not be ordered.
func (t *Topo) Cyclic() bool { return len(t.Recursive) > 0 }
