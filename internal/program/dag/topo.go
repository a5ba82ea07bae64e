package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is a dependency-first linearization: every module appears after its
// imports. Batches group modules whose dependencies are all satisfied by
// earlier batches, so a batch is safe to process in parallel.
type Topo struct {
	Order   []ModuleID
	Batches [][]ModuleID
	Cyclic  bool
	Cycles  []ModuleID // modules stuck in or behind a cycle
}

// Toposort runs Kahn's algorithm over the graph. The result is
// deterministic: batches and the residual cycle set are ID-sorted.
func Toposort(g Graph) *Topo {
	n := len(g.Deps)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order: make([]ModuleID, 0, n),
	}

	active := 0
	for i := 0; i < n; i++ {
		if g.Present[i] {
			active++
		}
	}

	current := make([]ModuleID, 0, n)
	for i := 0; i < n; i++ {
		if !g.Present[i] || indeg[i] != 0 {
			continue
		}
		id, err := safecast.Conv[ModuleID](i)
		if err != nil {
			panic(fmt.Errorf("module id overflow: %w", err))
		}
		current = append(current, id)
	}
	slices.Sort(current)

	visited := 0
	for len(current) > 0 {
		batch := make([]ModuleID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]ModuleID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, imp := range g.Importers[int(id)] {
				indeg[int(imp)]--
				if indeg[int(imp)] == 0 {
					next = append(next, imp)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := 0; i < n; i++ {
			if !g.Present[i] || indeg[i] == 0 {
				continue
			}
			id, err := safecast.Conv[ModuleID](i)
			if err != nil {
				panic(fmt.Errorf("module id overflow: %w", err))
			}
			topo.Cycles = append(topo.Cycles, id)
		}
		slices.Sort(topo.Cycles)
	}

	return topo
}
