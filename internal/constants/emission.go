package constants

import (
	"slices"

	"lumen/internal/fault"
)

// EmissionOrder linearizes the registered constants so every constant
// follows all of its dependencies. Dependencies are emitted even when they
// were never registered themselves.
//
// The pre-sort comparator, when non-nil, reorders the registered set before
// the traversal so emission does not depend on irrelevant registration
// order; nil keeps registration order. The traversal itself is a post-order
// depth-first walk with a seen set.
//
// The dependency graph is acyclic by construction of constant evaluation;
// meeting a value again while it is still being visited is a soundness bug
// and panics with an invariant violation.
func (r *Registry) EmissionOrder(pre func(a, b Value) int) []Value {
	list := slices.Clone(r.values)
	if pre != nil {
		slices.SortStableFunc(list, pre)
	}

	const (
		visiting uint8 = 1
		emitted  uint8 = 2
	)
	state := make(map[string]uint8, len(list))
	out := make([]Value, 0, len(list))

	var visit func(v Value)
	visit = func(v Value) {
		key := v.Key()
		switch state[key] {
		case emitted:
			return
		case visiting:
			fault.Invariantf("constant dependency cycle through %s", key)
		}
		state[key] = visiting
		for _, dep := range v.Dependencies() {
			visit(dep)
		}
		state[key] = emitted
		out = append(out, v)
	}

	for _, v := range list {
		visit(v)
	}
	return out
}

// ByKey orders constants by canonical key. Handy as a pre-sort comparator
// when byte-stable output matters more than registration order.
func ByKey(a, b Value) int {
	ka, kb := a.Key(), b.Key()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
