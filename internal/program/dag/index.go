// Package dag orders a program's modules by their imports: a name index,
// the dependency graph and a deterministic Kahn topological sort. The
// driver loads and hashes modules dependency-first along the result.
package dag

import (
	"sort"

	"lumen/internal/program"
)

// ModuleID indexes a module inside one ordering computation.
type ModuleID uint32

// Index assigns dense IDs to every module name mentioned by the program,
// declared or only imported. IDs follow the sorted name order.
type Index struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// BuildIndex collects the module names of mods and their imports.
func BuildIndex(mods []program.Module) Index {
	uniq := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		if m.Name != "" {
			uniq[m.Name] = struct{}{}
		}
		for _, dep := range m.Imports {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]ModuleID, len(names))
	for i, name := range names {
		nameToID[name] = ModuleID(i)
	}

	return Index{
		NameToID: nameToID,
		IDToName: names,
	}
}
