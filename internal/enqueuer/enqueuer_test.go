package enqueuer

import (
	"context"
	"testing"

	"lumen/internal/elements"
	"lumen/internal/fault"
	"lumen/internal/universe"
)

type impactMap map[elements.MemberID]*universe.Impact

func (m impactMap) ImpactOf(id elements.MemberID) *universe.Impact { return m[id] }

// countingSource wraps an impactMap and counts resolutions per member.
type countingSource struct {
	inner  impactMap
	counts map[elements.MemberID]int
}

func (s *countingSource) ImpactOf(id elements.MemberID) *universe.Impact {
	s.counts[id]++
	return s.inner[id]
}

// fixture is a small program: main instantiates Circle and calls area()
// dynamically plus helper statically; helper instantiates Logger and calls
// log(_); Circle.area reads radius. Square and Unused stay dead.
type fixture struct {
	w       *elements.World
	u       *universe.Universe
	impacts impactMap

	shape, circle, square, logger, unused elements.ClassID

	main, helper                        elements.MemberID
	shapeArea, circleRadius, circleArea elements.MemberID
	squareArea, loggerLog, unusedDead   elements.MemberID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	b := elements.NewBuilder()
	f.shape = b.AddClass(elements.ClassDef{Module: "app", Name: "Shape", Flags: elements.ClassAbstract})
	f.circle = b.AddClass(elements.ClassDef{Module: "app", Name: "Circle", Superclass: f.shape})
	f.square = b.AddClass(elements.ClassDef{Module: "app", Name: "Square", Superclass: f.shape})
	f.logger = b.AddClass(elements.ClassDef{Module: "app", Name: "Logger"})
	f.unused = b.AddClass(elements.ClassDef{Module: "app", Name: "Unused"})

	f.main = b.AddMember(elements.MemberDef{Name: "main", Kind: elements.MemberMethod})
	f.helper = b.AddMember(elements.MemberDef{Name: "helper", Kind: elements.MemberMethod})
	f.shapeArea = b.AddMember(elements.MemberDef{
		Owner: f.shape, Name: "area", Kind: elements.MemberMethod, Flags: elements.MemberAbstract,
	})
	f.circleRadius = b.AddMember(elements.MemberDef{Owner: f.circle, Name: "radius", Kind: elements.MemberField})
	f.circleArea = b.AddMember(elements.MemberDef{Owner: f.circle, Name: "area", Kind: elements.MemberMethod})
	f.squareArea = b.AddMember(elements.MemberDef{Owner: f.square, Name: "area", Kind: elements.MemberMethod})
	f.loggerLog = b.AddMember(elements.MemberDef{
		Owner: f.logger, Name: "log", Kind: elements.MemberMethod,
		Params: []elements.Param{{Name: b.Intern("msg")}},
	})
	f.unusedDead = b.AddMember(elements.MemberDef{Owner: f.unused, Name: "dead", Kind: elements.MemberMethod})

	area := b.Intern("area")
	radius := b.Intern("radius")
	logName := b.Intern("log")

	w, err := b.Build()
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	f.w = w
	f.u = universe.New(w, nil)

	f.impacts = impactMap{
		f.main: {
			TypeUses: []universe.TypeUse{
				{Kind: universe.TypeInstantiation, Type: w.InternClassType(f.circle, nil)},
			},
			DynamicUses: []universe.DynamicUse{
				{Selector: universe.NewInvokeSelector(area, universe.NewCallStructure(0, nil, 0))},
			},
			StaticUses: []universe.StaticUse{
				{Kind: universe.StaticInvoke, Member: f.helper},
			},
		},
		f.helper: {
			TypeUses: []universe.TypeUse{
				{Kind: universe.TypeInstantiation, Type: w.InternClassType(f.logger, nil)},
			},
			DynamicUses: []universe.DynamicUse{
				{Selector: universe.NewInvokeSelector(logName, universe.NewCallStructure(1, nil, 0))},
			},
		},
		f.circleArea: {
			DynamicUses: []universe.DynamicUse{
				{
					Selector:   universe.NewGetterSelector(radius),
					Constraint: universe.TypedReceiver{Class: f.circle},
				},
			},
		},
	}
	return f
}

func (f *fixture) run(t *testing.T, cfg Config) (*Enqueuer, Stats) {
	t.Helper()
	if cfg.Impacts == nil {
		cfg.Impacts = f.impacts
	}
	e := New(f.u, cfg)
	stats := e.Run(context.Background(), []elements.MemberID{f.main})
	return e, stats
}

func (f *fixture) memberLive(id elements.MemberID) bool {
	if usage, ok := f.u.MemberUsage(id); ok && usage.IsLive() {
		return true
	}
	if usage, ok := f.u.StaticUsage(id); ok && usage.IsLive() {
		return true
	}
	return false
}

func TestFixpointLiveSet(t *testing.T) {
	f := newFixture(t)
	_, stats := f.run(t, Config{Verify: true})

	for _, id := range []elements.MemberID{f.main, f.helper, f.shapeArea, f.circleArea, f.circleRadius, f.loggerLog} {
		if !f.memberLive(id) {
			t.Fatalf("%s must be live", f.w.MemberDisplay(id))
		}
	}
	for _, id := range []elements.MemberID{f.squareArea, f.unusedDead} {
		if f.memberLive(id) {
			t.Fatalf("%s must stay dead", f.w.MemberDisplay(id))
		}
	}

	radius, ok := f.u.MemberUsage(f.circleRadius)
	if !ok || !radius.HasRead() || radius.HasWrite() {
		t.Fatalf("radius must be read-only live, got %v", radius.Granted())
	}
	circleArea, _ := f.u.MemberUsage(f.circleArea)
	if !circleArea.HasInvoke() {
		t.Fatalf("Circle.area must be invoked, got %v", circleArea.Granted())
	}

	instantiated := f.u.InstantiatedClasses()
	want := []elements.ClassID{f.shape, f.circle, f.logger}
	if len(instantiated) != len(want) {
		t.Fatalf("instantiated classes = %v, want %v", instantiated, want)
	}
	for _, cls := range want {
		usage, ok := f.u.ClassUsage(cls)
		if !ok || !usage.IsInstantiated() {
			t.Fatalf("%s must be instantiated", f.w.ClassName(cls))
		}
	}

	if stats.Roots != 1 {
		t.Fatalf("Roots = %d", stats.Roots)
	}
	if stats.ClassesProcessed != 3 {
		t.Fatalf("ClassesProcessed = %d, want 3", stats.ClassesProcessed)
	}
	if stats.ImpactsApplied == 0 || stats.WorkItems < stats.ImpactsApplied {
		t.Fatalf("stats out of shape: %+v", stats)
	}
}

func TestImpactAppliedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	src := &countingSource{inner: f.impacts, counts: make(map[elements.MemberID]int)}
	f.run(t, Config{Impacts: src})

	for id, n := range src.counts {
		if n != 1 {
			t.Fatalf("impact of %s resolved %d times", f.w.MemberDisplay(id), n)
		}
	}
	if src.counts[f.circleArea] != 1 {
		t.Fatalf("Circle.area impact never applied")
	}
}

func TestRetentionChainTerminatesAtRoot(t *testing.T) {
	f := newFixture(t)
	e, _ := f.run(t, Config{})

	steps := e.ExplainMember(f.loggerLog)
	if len(steps) != 4 {
		t.Fatalf("chain length = %d, steps %v", len(steps), steps)
	}

	if steps[0].Member != f.loggerLog || steps[0].Cause.Kind != CauseActivation {
		t.Fatalf("step 0 = %+v", steps[0])
	}
	if steps[1].Class != f.logger || steps[1].Cause.Kind != CauseImpact || steps[1].Cause.Member != f.helper {
		t.Fatalf("step 1 = %+v", steps[1])
	}
	if steps[2].Member != f.helper || steps[2].Cause.Kind != CauseImpact || steps[2].Cause.Member != f.main {
		t.Fatalf("step 2 = %+v", steps[2])
	}
	if steps[3].Member != f.main || steps[3].Cause.Kind != CauseRoot {
		t.Fatalf("step 3 = %+v", steps[3])
	}
}

func TestEveryLiveMemberExplainsToRoot(t *testing.T) {
	f := newFixture(t)
	e, _ := f.run(t, Config{})

	for _, usage := range f.u.MemberUsages() {
		if !usage.IsLive() {
			continue
		}
		steps := e.ExplainMember(usage.Member)
		if len(steps) == 0 {
			t.Fatalf("%s has no retention chain", f.w.MemberDisplay(usage.Member))
		}
		last := steps[len(steps)-1]
		if last.Cause.Kind != CauseRoot {
			t.Fatalf("%s chain ends at %v, not a root", f.w.MemberDisplay(usage.Member), last.Cause.Kind)
		}
	}
}

func TestExplainClass(t *testing.T) {
	f := newFixture(t)
	e, _ := f.run(t, Config{})

	steps := e.ExplainClass(f.logger)
	if len(steps) != 3 {
		t.Fatalf("chain length = %d, steps %v", len(steps), steps)
	}
	if steps[0].Class != f.logger || !steps[0].Use.Has(universe.UseInstantiated) {
		t.Fatalf("step 0 = %+v", steps[0])
	}
	if steps[2].Member != f.main || steps[2].Cause.Kind != CauseRoot {
		t.Fatalf("step 2 = %+v", steps[2])
	}
}

func TestExplainDeadEntities(t *testing.T) {
	f := newFixture(t)
	e, _ := f.run(t, Config{})

	if steps := e.ExplainMember(f.unusedDead); steps != nil {
		t.Fatalf("dead member explained: %v", steps)
	}
	if steps := e.ExplainClass(f.unused); steps != nil {
		t.Fatalf("dead class explained: %v", steps)
	}
}

func TestStepDisplay(t *testing.T) {
	f := newFixture(t)
	e, _ := f.run(t, Config{})

	steps := e.ExplainMember(f.loggerLog)
	got := steps[0].Display(f.w)
	want := "Logger.log [invoked] <- activation of Logger"
	if got != want {
		t.Fatalf("Display = %q, want %q", got, want)
	}
	if got := steps[len(steps)-1].Display(f.w); got != "main [normal] <- root" {
		t.Fatalf("root Display = %q", got)
	}
}

func TestFieldAndGetterRoots(t *testing.T) {
	b := elements.NewBuilder()
	config := b.AddMember(elements.MemberDef{Name: "config", Kind: elements.MemberField})
	version := b.AddMember(elements.MemberDef{Name: "version", Kind: elements.MemberGetter})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	u := universe.New(w, nil)

	e := New(u, Config{})
	stats := e.Run(context.Background(), []elements.MemberID{config, version})
	if stats.Roots != 2 {
		t.Fatalf("Roots = %d", stats.Roots)
	}

	for _, id := range []elements.MemberID{config, version} {
		usage, ok := u.StaticUsage(id)
		if !ok || !usage.HasNormalUse() {
			t.Fatalf("root %s not live", w.MemberDisplay(id))
		}
	}
	if fields := u.ReferencedStaticFields(); len(fields) != 1 || fields[0] != config {
		t.Fatalf("referenced static fields = %v", fields)
	}
}

func TestInstanceMethodRootFaults(t *testing.T) {
	b := elements.NewBuilder()
	c := b.AddClass(elements.ClassDef{Name: "C"})
	m := b.AddMember(elements.MemberDef{Owner: c, Name: "m", Kind: elements.MemberMethod})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	e := New(universe.New(w, nil), Config{})

	defer func() {
		if _, ok := fault.AsViolation(recover()); !ok {
			t.Fatalf("instance method root must fault")
		}
	}()
	e.Run(context.Background(), []elements.MemberID{m})
}

func TestVerifyCatchesUnimplementedOwner(t *testing.T) {
	b := elements.NewBuilder()
	c := b.AddClass(elements.ClassDef{Name: "C"})
	m := b.AddMember(elements.MemberDef{Owner: c, Name: "m", Kind: elements.MemberMethod})
	entry := b.AddMember(elements.MemberDef{Name: "entry", Kind: elements.MemberMethod})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	u := universe.New(w, nil)

	// A direct invoke makes C.m live without C ever being instantiated.
	impacts := impactMap{
		entry: {
			StaticUses: []universe.StaticUse{
				{Kind: universe.DirectInvoke, Member: m, Call: universe.NewCallStructure(0, nil, 0)},
			},
		},
	}
	e := New(u, Config{Impacts: impacts, Verify: true})

	defer func() {
		if _, ok := fault.AsViolation(recover()); !ok {
			t.Fatalf("verification must fault on a live member in a never-implemented class")
		}
	}()
	e.Run(context.Background(), []elements.MemberID{entry})
}
