package universe

import (
	"slices"

	"lumen/internal/elements"
	"lumen/internal/fault"
	"lumen/internal/names"
)

// registeredSelector couples a selector with its accumulated receiver
// constraints.
type registeredSelector struct {
	selector    Selector
	constraints Constraints
}

// selectorRegistry holds, per call kind, the name-keyed selector maps. A name
// maps only to selectors of that map's kind.
type selectorRegistry struct {
	invoke map[names.ID]map[selectorKey]*registeredSelector
	get    map[names.ID]map[selectorKey]*registeredSelector
	set    map[names.ID]map[selectorKey]*registeredSelector
}

func newSelectorRegistry() selectorRegistry {
	return selectorRegistry{
		invoke: make(map[names.ID]map[selectorKey]*registeredSelector),
		get:    make(map[names.ID]map[selectorKey]*registeredSelector),
		set:    make(map[names.ID]map[selectorKey]*registeredSelector),
	}
}

func (r *selectorRegistry) byKind(kind SelectorKind) map[names.ID]map[selectorKey]*registeredSelector {
	switch kind {
	case SelectorInvoke:
		return r.invoke
	case SelectorGetter:
		return r.get
	case SelectorSetter:
		return r.set
	}
	fault.Invariantf("selector registry has no map for kind %s", kind)
	return nil
}

// register merges (selector, constraint) into the map for the selector's
// kind. It returns the registered entry and whether the registration added
// information: a fresh selector always does, a known one only when its
// constraint set grew.
func (r *selectorRegistry) register(strategy Strategy, sel Selector, rc ReceiverConstraint) (*registeredSelector, bool) {
	byName := r.byKind(sel.Kind)
	selectors := byName[sel.Name]
	if selectors == nil {
		selectors = make(map[selectorKey]*registeredSelector, 1)
		byName[sel.Name] = selectors
	}
	key := sel.key()
	if entry, ok := selectors[key]; ok {
		return entry, entry.constraints.Add(rc)
	}
	entry := &registeredSelector{selector: sel, constraints: strategy.NewConstraints(sel)}
	entry.constraints.Add(rc)
	selectors[key] = entry
	return entry, true
}

// forName returns the registered selectors of one kind under one name,
// ordered by key for deterministic iteration.
func (r *selectorRegistry) forName(kind SelectorKind, name names.ID) []*registeredSelector {
	selectors := r.byKind(kind)[name]
	if len(selectors) == 0 {
		return nil
	}
	keys := make([]selectorKey, 0, len(selectors))
	for k := range selectors {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareSelectorKeys)
	out := make([]*registeredSelector, len(keys))
	for i, k := range keys {
		out[i] = selectors[k]
	}
	return out
}

// anyCanHit reports whether some registered selector of the given kind under
// the member's name applies to the member and admits its receiver.
func (r *selectorRegistry) anyCanHit(kind SelectorKind, id elements.MemberID, member *elements.Member, w *elements.World) bool {
	for _, entry := range r.byKind(kind)[member.Name] {
		if entry.selector.AppliesTo(member) && entry.constraints.CanHit(id, member.Name, w) {
			return true
		}
	}
	return false
}

func compareSelectorKeys(a, b selectorKey) int {
	if a.name != b.name {
		if a.name < b.name {
			return -1
		}
		return 1
	}
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	if a.call < b.call {
		return -1
	}
	if a.call > b.call {
		return 1
	}
	return 0
}

// pendingIndex holds name-keyed buckets of member usages that still await
// some capability of the index's category.
type pendingIndex struct {
	buckets map[names.ID]map[elements.MemberID]*MemberUsage
}

func newPendingIndex() pendingIndex {
	return pendingIndex{buckets: make(map[names.ID]map[elements.MemberID]*MemberUsage)}
}

func (p *pendingIndex) add(name names.ID, usage *MemberUsage) {
	bucket := p.buckets[name]
	if bucket == nil {
		bucket = make(map[elements.MemberID]*MemberUsage, 1)
		p.buckets[name] = bucket
	}
	bucket[usage.Member] = usage
}

func (p *pendingIndex) remove(name names.ID, member elements.MemberID) {
	if bucket := p.buckets[name]; bucket != nil {
		delete(bucket, member)
		if len(bucket) == 0 {
			delete(p.buckets, name)
		}
	}
}

// drain detaches the bucket for name and returns its usages ordered by
// member ID. Callbacks run during the subsequent scan may insert into a
// fresh bucket under the same name without disturbing the scan; the caller
// re-adds whatever is still pending.
func (p *pendingIndex) drain(name names.ID) []*MemberUsage {
	bucket := p.buckets[name]
	if len(bucket) == 0 {
		return nil
	}
	delete(p.buckets, name)
	detached := make([]*MemberUsage, 0, len(bucket))
	for _, usage := range bucket {
		detached = append(detached, usage)
	}
	slices.SortFunc(detached, func(a, b *MemberUsage) int {
		if a.Member < b.Member {
			return -1
		}
		if a.Member > b.Member {
			return 1
		}
		return 0
	})
	return detached
}

func (p *pendingIndex) contains(name names.ID, member elements.MemberID) bool {
	_, ok := p.buckets[name][member]
	return ok
}
