package dag

import (
	"fmt"
	"slices"
	"strings"

	"lumen/internal/diag"
	"lumen/internal/program"
)

// Graph is the program's import graph over Index IDs. Deps run from a
// module to what it imports; Importers is the reverse adjacency the sort
// walks. Indeg counts a module's present dependencies.
type Graph struct {
	Deps      [][]ModuleID
	Importers [][]ModuleID
	Indeg     []int
	Present   []bool
}

// BuildGraph wires mods into the index. Self-imports are reported and
// dropped. Imports of modules no snapshot declares are dropped without a
// report, and when two modules share a name the first one wins: the linker
// diagnoses both cases against the snapshot that caused them.
func BuildGraph(idx Index, mods []program.Module, rep diag.Reporter) Graph {
	n := len(idx.IDToName)
	g := Graph{
		Deps:      make([][]ModuleID, n),
		Importers: make([][]ModuleID, n),
		Indeg:     make([]int, n),
		Present:   make([]bool, n),
	}

	paths := make([]string, n)
	claimed := make([]bool, n)
	for _, m := range mods {
		if m.Name == "" {
			continue
		}
		id := idx.NameToID[m.Name]
		if claimed[id] {
			continue
		}
		claimed[id] = true
		g.Present[int(id)] = true
		paths[id] = m.Path

		seen := make(map[ModuleID]struct{}, len(m.Imports))
		for _, dep := range m.Imports {
			if dep == "" {
				continue
			}
			toID := idx.NameToID[dep]
			if toID == id {
				rep.Report(diag.ProgSelfImport, diag.SevError,
					diag.Locus{File: m.Path, Path: "imports"},
					fmt.Sprintf("module %q imports itself", m.Name), nil)
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}
			g.Deps[int(id)] = append(g.Deps[int(id)], toID)
		}
		if len(g.Deps[int(id)]) > 1 {
			slices.Sort(g.Deps[int(id)])
		}
	}

	for from := range g.Deps {
		if !g.Present[from] {
			continue
		}
		for _, to := range g.Deps[from] {
			if !g.Present[int(to)] {
				continue
			}
			g.Indeg[from]++
			g.Importers[int(to)] = append(g.Importers[int(to)], ModuleID(from))
		}
	}
	for to := range g.Importers {
		if len(g.Importers[to]) > 1 {
			slices.Sort(g.Importers[to])
		}
	}

	return g
}

// ReportCycle emits one diagnostic naming every module stuck in an import
// cycle.
func ReportCycle(idx Index, topo *Topo, manifestPath string, rep diag.Reporter) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	rep.Report(diag.ProgImportCycle, diag.SevError,
		diag.Locus{File: manifestPath, Path: "snapshots"},
		fmt.Sprintf("modules form an import cycle: %s", strings.Join(names, ", ")), nil)
}
