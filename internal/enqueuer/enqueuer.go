// Package enqueuer drives the liveness universe to a fixpoint.
//
// The universe reacts to one registration at a time and never schedules
// anything itself; the enqueuer owns that loop. It seeds the entry points,
// applies the recorded impact of every member that becomes used, and
// enumerates the declared members of every class that becomes instantiated,
// until the queue drains. Along the way it records retention edges so the
// explain command can answer why an entity is live.
package enqueuer

import (
	"context"
	"strconv"

	"lumen/internal/elements"
	"lumen/internal/fault"
	"lumen/internal/trace"
	"lumen/internal/universe"
)

// ImpactSource resolves the recorded impact of a member. Returning nil means
// the member has no effects worth applying (abstract or external members).
type ImpactSource interface {
	ImpactOf(id elements.MemberID) *universe.Impact
}

// Config configures a fixpoint run.
type Config struct {
	Impacts    ImpactSource
	Tracer     trace.Tracer // nil falls back to the context tracer in Run
	ParentSpan uint64
	Verify     bool // assert the live-world invariant after the fixpoint
}

// Stats summarizes one fixpoint run.
type Stats struct {
	Roots            int
	WorkItems        int // queue pops, including deduplicated ones
	ImpactsApplied   int
	ClassesProcessed int
}

type workKind uint8

const (
	workApplyImpact workKind = iota
	workProcessClass
)

type workItem struct {
	kind   workKind
	member elements.MemberID
	class  elements.ClassID
}

// Enqueuer owns the FIFO work queue, the dedup sets and the retention log.
// Not safe for concurrent use.
type Enqueuer struct {
	u       *universe.Universe
	world   *elements.World
	impacts ImpactSource
	tracer  trace.Tracer
	parent  uint64
	verify  bool

	queue []workItem
	head  int

	applied   map[elements.MemberID]struct{}
	processed map[elements.ClassID]struct{}

	ret     *retention
	current Cause
	stats   Stats
}

// New creates an enqueuer over u. The universe keeps all liveness state;
// the enqueuer only schedules and records provenance.
func New(u *universe.Universe, cfg Config) *Enqueuer {
	return &Enqueuer{
		u:         u,
		world:     u.World(),
		impacts:   cfg.Impacts,
		tracer:    cfg.Tracer,
		parent:    cfg.ParentSpan,
		verify:    cfg.Verify,
		applied:   make(map[elements.MemberID]struct{}),
		processed: make(map[elements.ClassID]struct{}),
		ret:       newRetention(),
	}
}

// Run registers the roots, drains the queue to a fixpoint and returns the
// run statistics. Roots must be static members, top-level members or
// constructors.
func (e *Enqueuer) Run(ctx context.Context, roots []elements.MemberID) Stats {
	if e.tracer == nil {
		e.tracer = trace.FromContext(ctx)
	}

	span := trace.Begin(e.tracer, trace.ScopePhase, "fixpoint", e.parent)

	for _, id := range roots {
		e.registerRoot(id)
		e.pushImpact(id)
	}
	e.drain()

	if e.verify {
		e.verifyLiveness()
	}

	span.WithExtra("work", strconv.Itoa(e.stats.WorkItems)).
		WithExtra("impacts", strconv.Itoa(e.stats.ImpactsApplied)).
		WithExtra("classes", strconv.Itoa(e.stats.ClassesProcessed)).
		End("")
	return e.stats
}

// Stats returns the statistics accumulated so far.
func (e *Enqueuer) Stats() Stats { return e.stats }

// ExplainMember returns the chain of causes that made a member live, from
// the member itself back to a root. Nil when the member never became live.
func (e *Enqueuer) ExplainMember(id elements.MemberID) []Step {
	return e.ret.explainMember(id)
}

// ExplainClass is ExplainMember for classes.
func (e *Enqueuer) ExplainClass(cls elements.ClassID) []Step {
	return e.ret.explainClass(cls)
}

func (e *Enqueuer) registerRoot(id elements.MemberID) {
	member := e.world.Member(id)
	if member == nil {
		fault.Invariantf("root refers to unknown member %d", uint32(id))
	}
	fault.Check(member.IsStaticOrTopLevel() || member.Kind == elements.MemberConstructor,
		"root %s is not reachable from outside the program", e.world.MemberDisplay(id))

	kind := universe.StaticInvoke
	switch member.Kind {
	case elements.MemberField:
		kind = universe.StaticInit
	case elements.MemberGetter:
		kind = universe.StaticGet
	case elements.MemberSetter:
		kind = universe.StaticSet
	case elements.MemberConstructor:
		kind = universe.ConstructorInvoke
	}

	e.current = Cause{Kind: CauseRoot}
	e.u.RegisterStaticUse(universe.StaticUse{Kind: kind, Member: id}, e.onMemberUsed)
	e.stats.Roots++
}

// onMemberUsed records provenance for every member delta and schedules the
// member's impact. A member's impact is applied at most once; later deltas
// for the same member only extend the retention log.
func (e *Enqueuer) onMemberUsed(id elements.MemberID, delta universe.Use) {
	e.ret.recordMember(id, delta, e.current)
	e.pushImpact(id)
}

// onClassUsed records provenance for every class delta and schedules member
// enumeration when the class becomes instantiated.
func (e *Enqueuer) onClassUsed(cls elements.ClassID, delta universe.Use) {
	e.ret.recordClass(cls, delta, e.current)
	if !delta.Has(universe.UseInstantiated) {
		return
	}
	if _, done := e.processed[cls]; !done {
		e.queue = append(e.queue, workItem{kind: workProcessClass, class: cls})
	}
}

func (e *Enqueuer) pushImpact(id elements.MemberID) {
	if _, done := e.applied[id]; !done {
		e.queue = append(e.queue, workItem{kind: workApplyImpact, member: id})
	}
}

func (e *Enqueuer) drain() {
	for e.head < len(e.queue) {
		item := e.queue[e.head]
		e.head++
		e.stats.WorkItems++

		switch item.kind {
		case workApplyImpact:
			e.applyImpact(item.member)
		case workProcessClass:
			e.processClass(item.class)
		}
	}
	e.queue = e.queue[:0]
	e.head = 0
}

func (e *Enqueuer) applyImpact(id elements.MemberID) {
	if _, done := e.applied[id]; done {
		return
	}
	e.applied[id] = struct{}{}
	e.stats.ImpactsApplied++

	var im *universe.Impact
	if e.impacts != nil {
		im = e.impacts.ImpactOf(id)
	}
	if im == nil || im.IsEmpty() {
		return
	}

	if e.tracer != nil && e.tracer.Level().ShouldEmit(trace.ScopeWork) {
		trace.Point(e.tracer, trace.ScopeWork, "impact", e.world.MemberDisplay(id), e.parent)
	}

	e.current = Cause{Kind: CauseImpact, Member: id}
	for _, tu := range im.TypeUses {
		switch tu.Kind {
		case universe.TypeInstantiation:
			e.u.RegisterTypeInstantiation(tu.Type, e.onClassUsed)
		case universe.TypeIsCheck:
			e.u.RegisterIsCheck(tu.Type)
		}
	}
	for _, du := range im.DynamicUses {
		e.u.RegisterDynamicUse(du, e.onMemberUsed)
	}
	for _, su := range im.StaticUses {
		e.u.RegisterStaticUse(su, e.onMemberUsed)
	}
	for _, cu := range im.Constants {
		e.u.RegisterConstantUse(cu)
	}
}

func (e *Enqueuer) processClass(cls elements.ClassID) {
	if _, done := e.processed[cls]; done {
		return
	}
	e.processed[cls] = struct{}{}
	e.stats.ClassesProcessed++

	if e.tracer != nil && e.tracer.Level().ShouldEmit(trace.ScopeWork) {
		trace.Point(e.tracer, trace.ScopeWork, "class", e.world.ClassName(cls), e.parent)
	}

	e.current = Cause{Kind: CauseActivation, Class: cls}
	e.u.ProcessClassMembers(cls, e.onMemberUsed)
}

// verifyLiveness faults if any live instance member belongs to a class that
// never became implemented. The driver enables this in checked builds; it is
// always on in tests.
func (e *Enqueuer) verifyLiveness() {
	for _, mu := range e.u.MemberUsages() {
		if !mu.IsLive() {
			continue
		}
		owner := e.world.Member(mu.Member).Owner
		cu, ok := e.u.ClassUsage(owner)
		fault.Check(ok && cu.IsImplemented(),
			"live member %s in never-implemented class %s",
			e.world.MemberDisplay(mu.Member), e.world.ClassName(owner))
	}
}
