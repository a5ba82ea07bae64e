// Package universe is the whole-program liveness engine. It consumes use
// events discovered while compiling reachable code (a type is instantiated,
// a member is reached through a selector, a static target is referenced, a
// constant is emitted) and decides, incrementally and monotonically, which
// classes and members are live and in what capacity.
//
// The engine is single-threaded and reactive: it owns no scheduler and never
// terminates the analysis itself. The enqueuer drives it to a fixpoint by
// alternating registrations and member activations until no call reports a
// non-empty delta. Callbacks handed into registrations may re-enter the
// engine; the pending-bucket rescans tolerate that by detaching a bucket
// before scanning it.
package universe

import (
	"lumen/internal/constants"
	"lumen/internal/elements"
	"lumen/internal/fault"
	"lumen/internal/names"
)

// ClassUsedFunc observes a class gaining capabilities. The delta is never
// empty.
type ClassUsedFunc func(cls elements.ClassID, delta Use)

// MemberUsedFunc observes a member gaining capabilities. The delta is never
// empty.
type MemberUsedFunc func(member elements.MemberID, delta Use)

// Universe owns all liveness state for one compilation. Create one per
// analysis run; it is not safe for concurrent use.
type Universe struct {
	world    *elements.World
	strategy Strategy

	classes       map[elements.ClassID]*ClassUsage
	members       map[elements.MemberID]*MemberUsage
	staticMembers map[elements.MemberID]*StaticMemberUsage

	selectors      selectorRegistry
	pendingNormal  pendingIndex
	pendingClosure pendingIndex

	directlyInstantiated map[elements.ClassID]struct{}
	instantiatedTypes    map[elements.TypeID]struct{}
	isChecks             map[elements.TypeID]struct{}

	staticFieldRefs   map[elements.MemberID]struct{}
	closurizedStatics map[elements.MemberID]struct{}
	superGetters      map[elements.MemberID]struct{}

	genericInvokes    []DynamicUse
	genericInvokeKeys map[string]struct{}

	constants *constants.Registry
}

// New creates an empty universe over a frozen world. A nil strategy selects
// the typed receiver-constraint strategy.
func New(world *elements.World, strategy Strategy) *Universe {
	if strategy == nil {
		strategy = TypedStrategy{}
	}
	return &Universe{
		world:    world,
		strategy: strategy,

		classes:       make(map[elements.ClassID]*ClassUsage),
		members:       make(map[elements.MemberID]*MemberUsage),
		staticMembers: make(map[elements.MemberID]*StaticMemberUsage),

		selectors:      newSelectorRegistry(),
		pendingNormal:  newPendingIndex(),
		pendingClosure: newPendingIndex(),

		directlyInstantiated: make(map[elements.ClassID]struct{}),
		instantiatedTypes:    make(map[elements.TypeID]struct{}),
		isChecks:             make(map[elements.TypeID]struct{}),

		staticFieldRefs:   make(map[elements.MemberID]struct{}),
		closurizedStatics: make(map[elements.MemberID]struct{}),
		superGetters:      make(map[elements.MemberID]struct{}),

		genericInvokeKeys: make(map[string]struct{}),

		constants: constants.NewRegistry(),
	}
}

// World returns the element graph the universe analyzes.
func (u *Universe) World() *elements.World { return u.world }

func (u *Universe) classUsageOf(cls elements.ClassID) *ClassUsage {
	usage, ok := u.classes[cls]
	if !ok {
		usage = newClassUsage(cls)
		u.classes[cls] = usage
	}
	return usage
}

func (u *Universe) staticUsageOf(id elements.MemberID) *StaticMemberUsage {
	function := u.world.IsStaticFunction(id)
	usage, ok := u.staticMembers[id]
	if !ok {
		usage = newStaticMemberUsage(id, function)
		u.staticMembers[id] = usage
	}
	usage.checkVariant(function)
	return usage
}

func (u *Universe) memberUsageOf(id elements.MemberID, member *elements.Member) (*MemberUsage, bool) {
	usage, ok := u.members[id]
	if ok {
		return usage, false
	}
	usage = newMemberUsage(id, member)
	u.members[id] = usage
	return usage, true
}

// catchUp grants a freshly created usage everything already known to reach
// it: the native baseline and every matching selector registered before the
// member came under analysis.
func (u *Universe) catchUp(usage *MemberUsage, member *elements.Member) Use {
	var delta Use
	if member.IsNative() {
		// Host code can reach a native member any way its shape allows.
		delta |= usage.fullUse()
	}
	if u.selectors.anyCanHit(SelectorInvoke, usage.Member, member, u.world) {
		delta |= usage.Invoke()
	}
	if u.selectors.anyCanHit(SelectorGetter, usage.Member, member, u.world) {
		delta |= usage.Read()
	}
	if u.selectors.anyCanHit(SelectorSetter, usage.Member, member, u.world) {
		delta |= usage.Write()
	}
	return delta
}

// RegisterTypeInstantiation records that a value of t is constructed and
// propagates class liveness: the class and its superclass chain become
// instantiated (unless the class is abstract and not native), and the class
// with all of its supertypes becomes implemented. Every class whose usage
// grows is reported through onClassUsed exactly once per transition; a
// repeated registration of a fully processed type reports nothing.
func (u *Universe) RegisterTypeInstantiation(t elements.TypeID, onClassUsed ClassUsedFunc) {
	if !t.IsValid() {
		return
	}
	u.instantiatedTypes[t] = struct{}{}

	cls := u.world.ClassOfType(t)
	if !cls.IsValid() {
		return
	}
	class := u.world.Class(cls)

	// A native abstract class may have unseen native subclasses that are
	// indistinguishable from the class itself, so it counts as directly
	// instantiated despite being abstract.
	if !class.IsAbstract() || class.IsNative() {
		u.directlyInstantiated[cls] = struct{}{}
		for cur := cls; cur.IsValid(); cur = u.world.Superclass(cur) {
			usage := u.classUsageOf(cur)
			if usage.IsInstantiated() {
				// An instantiated ancestor means the rest of the chain
				// is already instantiated too.
				break
			}
			delta := usage.Instantiate()
			if !delta.IsEmpty() && onClassUsed != nil {
				onClassUsed(cur, delta)
			}
		}
	}

	u.implement(cls, onClassUsed)
	for _, sup := range u.world.Supertypes(cls) {
		u.implement(sup, onClassUsed)
	}
}

func (u *Universe) implement(cls elements.ClassID, onClassUsed ClassUsedFunc) {
	delta := u.classUsageOf(cls).Implement()
	if !delta.IsEmpty() && onClassUsed != nil {
		onClassUsed(cls, delta)
	}
}

// RegisterDynamicUse records one virtual dispatch. It returns whether the
// registration added information to the selector registry; when it did, the
// pending buckets under the selector's name are rescanned and every member
// newly hit is granted the corresponding capability through onMemberUsed.
func (u *Universe) RegisterDynamicUse(use DynamicUse, onMemberUsed MemberUsedFunc) bool {
	sel := use.Selector
	rc := use.Constraint
	if rc == nil {
		rc = AnyReceiver{}
	}
	switch sel.Kind {
	case SelectorInvoke:
		if len(use.TypeArgs) > 0 {
			u.recordGenericInvoke(use)
		}
		entry, added := u.selectors.register(u.strategy, sel, rc)
		if !added {
			return false
		}
		u.rescan(&u.pendingNormal, entry, onMemberUsed, (*MemberUsage).Invoke)
		return true

	case SelectorGetter:
		entry, added := u.selectors.register(u.strategy, sel, rc)
		if !added {
			return false
		}
		u.rescan(&u.pendingNormal, entry, onMemberUsed, (*MemberUsage).Read)
		u.rescan(&u.pendingClosure, entry, onMemberUsed, (*MemberUsage).Read)
		return true

	case SelectorSetter:
		entry, added := u.selectors.register(u.strategy, sel, rc)
		if !added {
			return false
		}
		u.rescan(&u.pendingNormal, entry, onMemberUsed, (*MemberUsage).Write)
		return true
	}
	fault.Invariantf("dynamic use with selector kind %s", sel.Kind)
	return false
}

// rescan drains the bucket under the selector's name, applies the transition
// to every member the newly informed selector can hit, and re-files each
// usage according to what it still awaits. Detaching first makes the scan
// safe against callback-driven insertions into the same bucket.
func (u *Universe) rescan(index *pendingIndex, entry *registeredSelector, onMemberUsed MemberUsedFunc, transition func(*MemberUsage) Use) {
	name := entry.selector.Name
	for _, usage := range index.drain(name) {
		member := u.world.Member(usage.Member)
		if entry.selector.AppliesTo(member) && entry.constraints.CanHit(usage.Member, name, u.world) {
			delta := transition(usage)
			if !delta.IsEmpty() && onMemberUsed != nil {
				onMemberUsed(usage.Member, delta)
			}
		}
		u.rebucket(usage, name)
	}
}

// rebucket files a usage into the pending buckets that match what it still
// awaits and clears it from the ones it outgrew.
func (u *Universe) rebucket(usage *MemberUsage, name names.ID) {
	if usage.HasPendingNormalUse() {
		u.pendingNormal.add(name, usage)
	} else {
		u.pendingNormal.remove(name, usage.Member)
	}
	if usage.HasPendingClosurizationUse() {
		u.pendingClosure.add(name, usage)
	} else {
		u.pendingClosure.remove(name, usage.Member)
	}
}

func (u *Universe) recordGenericInvoke(use DynamicUse) {
	key := use.key()
	if _, ok := u.genericInvokeKeys[key]; ok {
		return
	}
	u.genericInvokeKeys[key] = struct{}{}
	u.genericInvokes = append(u.genericInvokes, use)
}

// RegisterStaticUse records one use of a statically resolved target and
// applies the kind-specific transition. Non-empty deltas are reported
// through onMemberUsed.
func (u *Universe) RegisterStaticUse(use StaticUse, onMemberUsed MemberUsedFunc) {
	member := u.world.Member(use.Member)
	if member == nil {
		fault.Invariantf("static use %s of unknown member %d", use.Kind, uint32(use.Member))
	}

	if member.Kind == elements.MemberField && member.IsStaticOrTopLevel() {
		u.staticFieldRefs[use.Member] = struct{}{}
	}

	switch use.Kind {
	case DirectInvoke:
		u.registerDirectInvoke(use, member, onMemberUsed)
		return
	case FieldGet, FieldSet, ClosureUse, CallMethodUse:
		// Not directly schedulable: boxes and local closures reach the
		// analysis through other registration paths.
		return
	}

	usage := u.staticUsageOf(use.Member)
	var delta Use
	switch use.Kind {
	case StaticTearOff:
		u.closurizedStatics[use.Member] = struct{}{}
		delta = usage.TearOff()
	case SuperTearOff:
		u.superGetters[use.Member] = struct{}{}
		delta = usage.TearOff()
	case StaticInvoke, StaticGet, StaticSet, StaticInit,
		ConstructorInvoke, ConstConstructorInvoke, RedirectingConstructorInvoke:
		delta = usage.NormalUse()
	default:
		fault.Invariantf("static use kind %s cannot be applied", use.Kind)
	}
	if !delta.IsEmpty() && onMemberUsed != nil {
		onMemberUsed(use.Member, delta)
	}
}

// registerDirectInvoke handles a statically resolved call to an instance
// member: the member is invoked without consulting the selector registry and
// leaves the normal pending bucket. A call site with explicit type arguments
// additionally registers the equivalent dynamic invoke so generic-call
// bookkeeping stays consistent.
func (u *Universe) registerDirectInvoke(use StaticUse, member *elements.Member, onMemberUsed MemberUsedFunc) {
	fault.Check(member.IsInstanceMember(),
		"direct invoke of non-instance member %d", uint32(use.Member))

	usage, created := u.memberUsageOf(use.Member, member)
	var delta Use
	if created {
		delta |= u.catchUp(usage, member)
	}
	delta |= usage.Invoke()
	u.rebucket(usage, member.Name)
	if !delta.IsEmpty() && onMemberUsed != nil {
		onMemberUsed(use.Member, delta)
	}

	if len(use.TypeArgs) > 0 {
		u.RegisterDynamicUse(DynamicUse{
			Selector: NewInvokeSelector(member.Name, use.Call),
			TypeArgs: use.TypeArgs,
		}, onMemberUsed)
	}
}

// ActivateMember brings one instance member of a live class under analysis.
// The first activation creates the usage, catches it up against every
// selector registered before the class became live, and files it into the
// pending buckets for whatever it still awaits; the cumulative delta is
// reported through onMemberUsed. Repeated activation is a no-op returning
// the existing usage.
func (u *Universe) ActivateMember(cls elements.ClassID, id elements.MemberID, onMemberUsed MemberUsedFunc) *MemberUsage {
	member := u.world.Member(id)
	if member == nil {
		fault.Invariantf("activation of unknown member %d", uint32(id))
	}
	fault.Check(member.IsInstanceMember(),
		"activation of non-instance member %s", u.world.MemberDisplay(id))
	fault.Check(u.world.IsInheritedIn(id, cls),
		"member %s activated for unrelated class %s",
		u.world.MemberDisplay(id), u.world.ClassName(cls))

	usage, created := u.memberUsageOf(id, member)
	if !created {
		return usage
	}
	delta := u.catchUp(usage, member)
	u.rebucket(usage, member.Name)
	if !delta.IsEmpty() && onMemberUsed != nil {
		onMemberUsed(id, delta)
	}
	return usage
}

// ProcessClassMembers activates every instance member declared directly on
// cls, in declaration order. The enqueuer calls this once per class that
// became instantiated; inherited members are activated when their declaring
// class is processed.
func (u *Universe) ProcessClassMembers(cls elements.ClassID, onMemberUsed MemberUsedFunc) {
	for _, id := range u.world.DeclaredInstanceMembers(cls) {
		u.ActivateMember(cls, id, onMemberUsed)
	}
}

// RegisterIsCheck records that values are tested against t at runtime.
func (u *Universe) RegisterIsCheck(t elements.TypeID) {
	if t.IsValid() {
		u.isChecks[t] = struct{}{}
	}
}

// RegisterConstantUse records a constant for emission. It returns whether
// the constant was new.
func (u *Universe) RegisterConstantUse(use constants.Use) bool {
	return u.constants.Register(use)
}

// Constants exposes the constant registry.
func (u *Universe) Constants() *constants.Registry { return u.constants }

// ConstantsForEmission returns every registered constant ordered after its
// dependencies. See constants.Registry.EmissionOrder.
func (u *Universe) ConstantsForEmission(pre func(a, b constants.Value) int) []constants.Value {
	return u.constants.EmissionOrder(pre)
}
