package elements

import (
	"lumen/internal/names"
)

// World is the frozen element graph the liveness analysis runs against. It is
// immutable after Build; all hierarchy queries are answered from precomputed
// tables and are safe to call from reentrant analysis callbacks.
type World struct {
	names   *names.Table
	classes *Classes
	members *Members
	types   *typeInterner

	// supertypes[c] lists every strict supertype of c (superclass chain and
	// transitive interfaces), deterministic order, superclass chain first.
	supertypes [][]ClassID
	// subtypesSet[c] holds every class that has c among its supertypes,
	// including c itself.
	subtypesSet []map[ClassID]struct{}
	// subtree[c] lists c and every class that transitively extends c
	// (superclass edges only, not interfaces).
	subtree [][]ClassID
	// instanceMembers[c] lists the instance members declared directly on c.
	instanceMembers [][]MemberID
}

// Names returns the interned name table shared by all elements.
func (w *World) Names() *names.Table { return w.names }

// NumClasses reports how many classes the world holds. Valid IDs are
// 1..NumClasses.
func (w *World) NumClasses() int { return w.classes.Len() }

// NumMembers reports how many members the world holds. Valid IDs are
// 1..NumMembers.
func (w *World) NumMembers() int { return w.members.Len() }

// Class returns the class record for id, or nil for an invalid ID.
func (w *World) Class(id ClassID) *Class { return w.classes.Get(id) }

// Member returns the member record for id, or nil for an invalid ID.
func (w *World) Member(id MemberID) *Member { return w.members.Get(id) }

// ClassName returns the source name of a class, or "<invalid>".
func (w *World) ClassName(id ClassID) string {
	if cls := w.classes.Get(id); cls != nil {
		return w.names.MustLookup(cls.Name)
	}
	return "<invalid>"
}

// MemberName returns the source name of a member, or "<invalid>".
func (w *World) MemberName(id MemberID) string {
	if m := w.members.Get(id); m != nil {
		return w.names.MustLookup(m.Name)
	}
	return "<invalid>"
}

// MemberDisplay renders a member as Owner.name, or just name for top-level
// members. Used by reports and diagnostics.
func (w *World) MemberDisplay(id MemberID) string {
	m := w.members.Get(id)
	if m == nil {
		return "<invalid>"
	}
	if m.Owner.IsValid() {
		return w.ClassName(m.Owner) + "." + w.names.MustLookup(m.Name)
	}
	return w.names.MustLookup(m.Name)
}

// Superclass returns the direct superclass of cls, or NoClassID at a root.
func (w *World) Superclass(cls ClassID) ClassID {
	if c := w.classes.Get(cls); c != nil {
		return c.Superclass
	}
	return NoClassID
}

// Supertypes returns every strict supertype of cls. The returned slice is
// shared; callers must not mutate it.
func (w *World) Supertypes(cls ClassID) []ClassID {
	if !cls.IsValid() || int(cls) >= len(w.supertypes) {
		return nil
	}
	return w.supertypes[cls]
}

// Subclasses returns cls and every class transitively extending it. The
// returned slice is shared; callers must not mutate it.
func (w *World) Subclasses(cls ClassID) []ClassID {
	if !cls.IsValid() || int(cls) >= len(w.subtree) {
		return nil
	}
	return w.subtree[cls]
}

// IsSubtypeOf reports whether sub has sup among its supertypes (or is sup).
func (w *World) IsSubtypeOf(sub, sup ClassID) bool {
	if !sup.IsValid() || int(sup) >= len(w.subtypesSet) {
		return false
	}
	_, ok := w.subtypesSet[sup][sub]
	return ok
}

// DeclaredInstanceMembers returns the instance members declared directly on
// cls, excluding inherited ones. The returned slice is shared; callers must
// not mutate it.
func (w *World) DeclaredInstanceMembers(cls ClassID) []MemberID {
	if !cls.IsValid() || int(cls) >= len(w.instanceMembers) {
		return nil
	}
	return w.instanceMembers[cls]
}

// IsInheritedIn reports whether instances of cls can carry member m. It is a
// conservative over-approximation: true when some class in the extends
// subtree of m's owner is also a subtype of cls.
func (w *World) IsInheritedIn(m MemberID, cls ClassID) bool {
	mem := w.members.Get(m)
	if mem == nil || !mem.Owner.IsValid() {
		return false
	}
	if !cls.IsValid() || int(cls) >= len(w.subtypesSet) {
		return false
	}
	subs := w.subtypesSet[cls]
	for _, carrier := range w.subtree[mem.Owner] {
		if _, ok := subs[carrier]; ok {
			return true
		}
	}
	return false
}

// IsNativeClass reports whether cls is backed by a host implementation.
func (w *World) IsNativeClass(cls ClassID) bool {
	c := w.classes.Get(cls)
	return c != nil && c.IsNative()
}

// IsStaticFunction reports whether m is a static or top-level function
// (method or constructor), as opposed to a static field or accessor.
func (w *World) IsStaticFunction(m MemberID) bool {
	mem := w.members.Get(m)
	return mem != nil && mem.IsStaticOrTopLevel() && mem.IsFunction()
}

// ForEachInstanceField walks the instance fields carried by instances of cls,
// base classes first. The callback receives the declaring class alongside the
// field.
func (w *World) ForEachInstanceField(cls ClassID, f func(declarer ClassID, field MemberID)) {
	var chain []ClassID
	for c := cls; c.IsValid(); c = w.Superclass(c) {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		declarer := chain[i]
		for _, m := range w.DeclaredInstanceMembers(declarer) {
			if w.members.Get(m).Kind == MemberField {
				f(declarer, m)
			}
		}
	}
}

// ForEachParameter walks the declared parameters of a function member in
// declaration order.
func (w *World) ForEachParameter(m MemberID, f func(p Param)) {
	mem := w.members.Get(m)
	if mem == nil {
		return
	}
	for _, p := range mem.Params {
		f(p)
	}
}

func (w *World) precompute() {
	n := w.classes.Len() + 1
	w.supertypes = make([][]ClassID, n)
	w.subtypesSet = make([]map[ClassID]struct{}, n)
	w.subtree = make([][]ClassID, n)
	w.instanceMembers = make([][]MemberID, n)
	for i := 1; i < n; i++ {
		w.subtypesSet[ClassID(i)] = make(map[ClassID]struct{})
	}

	// Strict supertypes: superclass chain first, then interfaces breadth
	// first in declaration order.
	for id := ClassID(1); int(id) < n; id++ {
		seen := map[ClassID]struct{}{id: {}}
		var supers []ClassID
		push := func(c ClassID) {
			if !c.IsValid() {
				return
			}
			if _, ok := seen[c]; ok {
				return
			}
			seen[c] = struct{}{}
			supers = append(supers, c)
		}
		for s := w.Superclass(id); s.IsValid(); s = w.Superclass(s) {
			push(s)
		}
		queue := []ClassID{id}
		queue = append(queue, supers...)
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, iface := range w.classes.Get(c).Interfaces {
				if _, ok := seen[iface]; !ok {
					push(iface)
					queue = append(queue, iface)
					for s := w.Superclass(iface); s.IsValid(); s = w.Superclass(s) {
						if _, ok := seen[s]; !ok {
							push(s)
							queue = append(queue, s)
						}
					}
				}
			}
		}
		w.supertypes[id] = supers

		w.subtypesSet[id][id] = struct{}{}
		for _, s := range supers {
			w.subtypesSet[s][id] = struct{}{}
		}
	}

	// Extends subtree, self included, preorder.
	children := make([][]ClassID, n)
	for id := ClassID(1); int(id) < n; id++ {
		if s := w.Superclass(id); s.IsValid() {
			children[s] = append(children[s], id)
		}
	}
	var collect func(c ClassID, out []ClassID) []ClassID
	collect = func(c ClassID, out []ClassID) []ClassID {
		out = append(out, c)
		for _, ch := range children[c] {
			out = collect(ch, out)
		}
		return out
	}
	for id := ClassID(1); int(id) < n; id++ {
		w.subtree[id] = collect(id, nil)
	}

	for id := ClassID(1); int(id) < n; id++ {
		for _, m := range w.classes.Get(id).Members {
			if w.members.Get(m).IsInstanceMember() {
				w.instanceMembers[id] = append(w.instanceMembers[id], m)
			}
		}
	}
}
