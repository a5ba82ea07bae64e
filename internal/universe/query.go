package universe

import (
	"slices"

	"lumen/internal/elements"
	"lumen/internal/names"
)

// RegisteredSelector is a read-only view of one registered selector with its
// accumulated receiver constraints.
type RegisteredSelector struct {
	Selector    Selector
	Constraints Constraints
}

func (u *Universe) selectorsView(kind SelectorKind, name names.ID) []RegisteredSelector {
	entries := u.selectors.forName(kind, name)
	if len(entries) == 0 {
		return nil
	}
	out := make([]RegisteredSelector, len(entries))
	for i, e := range entries {
		out[i] = RegisteredSelector{Selector: e.selector, Constraints: e.constraints}
	}
	return out
}

// InvocationsByName returns the registered invoke selectors under name,
// deterministically ordered.
func (u *Universe) InvocationsByName(name names.ID) []RegisteredSelector {
	return u.selectorsView(SelectorInvoke, name)
}

// GetterInvocationsByName returns the registered get selectors under name.
func (u *Universe) GetterInvocationsByName(name names.ID) []RegisteredSelector {
	return u.selectorsView(SelectorGetter, name)
}

// SetterInvocationsByName returns the registered set selectors under name.
func (u *Universe) SetterInvocationsByName(name names.ID) []RegisteredSelector {
	return u.selectorsView(SelectorSetter, name)
}

// HasInvocation reports whether some registered invoke selector can hit the
// member.
func (u *Universe) HasInvocation(id elements.MemberID) bool {
	member := u.world.Member(id)
	return member != nil && u.selectors.anyCanHit(SelectorInvoke, id, member, u.world)
}

// HasInvokedGetter reports whether some registered get selector can hit the
// member. On a method this means a tear-off site exists.
func (u *Universe) HasInvokedGetter(id elements.MemberID) bool {
	member := u.world.Member(id)
	return member != nil && u.selectors.anyCanHit(SelectorGetter, id, member, u.world)
}

// HasInvokedSetter reports whether some registered set selector can hit the
// member.
func (u *Universe) HasInvokedSetter(id elements.MemberID) bool {
	member := u.world.Member(id)
	return member != nil && u.selectors.anyCanHit(SelectorSetter, id, member, u.world)
}

// MemberUsage returns the usage for an instance member reached so far.
func (u *Universe) MemberUsage(id elements.MemberID) (*MemberUsage, bool) {
	usage, ok := u.members[id]
	return usage, ok
}

// StaticUsage returns the usage for a statically resolved target reached so
// far.
func (u *Universe) StaticUsage(id elements.MemberID) (*StaticMemberUsage, bool) {
	usage, ok := u.staticMembers[id]
	return usage, ok
}

// ClassUsage returns the usage for a class mentioned so far.
func (u *Universe) ClassUsage(id elements.ClassID) (*ClassUsage, bool) {
	usage, ok := u.classes[id]
	return usage, ok
}

// MemberUsages returns every instance-member usage ordered by member ID.
func (u *Universe) MemberUsages() []*MemberUsage {
	out := make([]*MemberUsage, 0, len(u.members))
	for _, usage := range u.members {
		out = append(out, usage)
	}
	slices.SortFunc(out, func(a, b *MemberUsage) int {
		return compareIDs(uint32(a.Member), uint32(b.Member))
	})
	return out
}

// StaticUsages returns every static usage ordered by member ID.
func (u *Universe) StaticUsages() []*StaticMemberUsage {
	out := make([]*StaticMemberUsage, 0, len(u.staticMembers))
	for _, usage := range u.staticMembers {
		out = append(out, usage)
	}
	slices.SortFunc(out, func(a, b *StaticMemberUsage) int {
		return compareIDs(uint32(a.Member), uint32(b.Member))
	})
	return out
}

// ClassUsages returns every class usage ordered by class ID.
func (u *Universe) ClassUsages() []*ClassUsage {
	out := make([]*ClassUsage, 0, len(u.classes))
	for _, usage := range u.classes {
		out = append(out, usage)
	}
	slices.SortFunc(out, func(a, b *ClassUsage) int {
		return compareIDs(uint32(a.Class), uint32(b.Class))
	})
	return out
}

// InstantiatedClasses returns every class marked instantiated, ordered by ID.
func (u *Universe) InstantiatedClasses() []elements.ClassID {
	var out []elements.ClassID
	for id, usage := range u.classes {
		if usage.IsInstantiated() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// DirectlyInstantiatedClasses returns every class some value was constructed
// from, ordered by ID. Superclasses reached only through propagation are not
// included.
func (u *Universe) DirectlyInstantiatedClasses() []elements.ClassID {
	return sortedClassSet(u.directlyInstantiated)
}

// ImplementedClasses returns every class marked implemented, ordered by ID.
func (u *Universe) ImplementedClasses() []elements.ClassID {
	var out []elements.ClassID
	for id, usage := range u.classes {
		if usage.IsImplemented() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// InstantiatedTypes returns every type passed to RegisterTypeInstantiation,
// ordered by ID.
func (u *Universe) InstantiatedTypes() []elements.TypeID {
	out := make([]elements.TypeID, 0, len(u.instantiatedTypes))
	for id := range u.instantiatedTypes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsCheckedTypes returns every type runtime values are tested against,
// ordered by ID.
func (u *Universe) IsCheckedTypes() []elements.TypeID {
	out := make([]elements.TypeID, 0, len(u.isChecks))
	for id := range u.isChecks {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ReferencedStaticFields returns every static or top-level field mentioned
// by any static use, ordered by ID.
func (u *Universe) ReferencedStaticFields() []elements.MemberID {
	return sortedMemberSet(u.staticFieldRefs)
}

// ClosurizedStatics returns every static or top-level function referenced as
// a value, ordered by ID.
func (u *Universe) ClosurizedStatics() []elements.MemberID {
	return sortedMemberSet(u.closurizedStatics)
}

// MethodsNeedingSuperGetter returns every instance method torn off through
// super, ordered by ID.
func (u *Universe) MethodsNeedingSuperGetter() []elements.MemberID {
	return sortedMemberSet(u.superGetters)
}

// GenericDynamicInvocations returns the distinct generic invoke sites in
// first-seen order.
func (u *Universe) GenericDynamicInvocations() []DynamicUse {
	return slices.Clone(u.genericInvokes)
}

// ForEachInstanceField forwards to the world's field enumerator.
func (u *Universe) ForEachInstanceField(cls elements.ClassID, f func(declarer elements.ClassID, field elements.MemberID)) {
	u.world.ForEachInstanceField(cls, f)
}

// ForEachParameter forwards to the world's parameter enumerator.
func (u *Universe) ForEachParameter(id elements.MemberID, f func(p elements.Param)) {
	u.world.ForEachParameter(id, f)
}

func sortedClassSet(set map[elements.ClassID]struct{}) []elements.ClassID {
	out := make([]elements.ClassID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func sortedMemberSet(set map[elements.MemberID]struct{}) []elements.MemberID {
	out := make([]elements.MemberID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func compareIDs(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
