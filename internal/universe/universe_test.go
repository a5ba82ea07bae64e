package universe

import (
	"testing"

	"lumen/internal/elements"
	"lumen/internal/fault"
)

type classEvent struct {
	cls   elements.ClassID
	delta Use
}

type memberEvent struct {
	member elements.MemberID
	delta  Use
}

func recordClass(events *[]classEvent) ClassUsedFunc {
	return func(cls elements.ClassID, delta Use) {
		*events = append(*events, classEvent{cls, delta})
	}
}

func recordMember(events *[]memberEvent) MemberUsedFunc {
	return func(member elements.MemberID, delta Use) {
		*events = append(*events, memberEvent{member, delta})
	}
}

func buildWorld(t *testing.T, build func(b *elements.Builder)) *elements.World {
	t.Helper()
	b := elements.NewBuilder()
	build(b)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	return w
}

func TestSuperclassInstantiationChain(t *testing.T) {
	var bID, cID, dID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		bID = b.AddClass(elements.ClassDef{Name: "B"})
		cID = b.AddClass(elements.ClassDef{Name: "C", Superclass: bID})
		dID = b.AddClass(elements.ClassDef{Name: "D", Superclass: cID})
	})
	u := New(w, nil)

	var events []classEvent
	u.RegisterTypeInstantiation(w.InternClassType(bID, nil), recordClass(&events))
	if len(events) != 1 || events[0].cls != bID {
		t.Fatalf("instantiating B: events %v", events)
	}
	if !events[0].delta.Has(UseInstantiated) || !events[0].delta.Has(UseImplemented) {
		t.Fatalf("B delta = %v", events[0].delta)
	}

	events = nil
	u.RegisterTypeInstantiation(w.InternClassType(dID, nil), recordClass(&events))
	if len(events) != 2 {
		t.Fatalf("instantiating D: events %v", events)
	}
	if events[0].cls != dID || events[1].cls != cID {
		t.Fatalf("propagation order: %v", events)
	}
	for _, e := range events {
		if e.cls == bID {
			t.Fatalf("B was already instantiated, must not re-emit: %v", events)
		}
	}
}

func TestInstantiationIdempotence(t *testing.T) {
	var aID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		root := b.AddClass(elements.ClassDef{Name: "Root"})
		aID = b.AddClass(elements.ClassDef{Name: "A", Superclass: root})
	})
	u := New(w, nil)
	typ := w.InternClassType(aID, nil)

	var first []classEvent
	u.RegisterTypeInstantiation(typ, recordClass(&first))
	if len(first) == 0 {
		t.Fatalf("first instantiation must emit deltas")
	}

	var second []classEvent
	u.RegisterTypeInstantiation(typ, recordClass(&second))
	if len(second) != 0 {
		t.Fatalf("second instantiation must be silent, got %v", second)
	}
}

func TestImplementedPropagatesThroughInterfaces(t *testing.T) {
	var iID, cID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		iID = b.AddClass(elements.ClassDef{Name: "I", Flags: elements.ClassAbstract})
		cID = b.AddClass(elements.ClassDef{Name: "C", Interfaces: []elements.ClassID{iID}})
	})
	u := New(w, nil)

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)

	iu, ok := u.ClassUsage(iID)
	if !ok || !iu.IsImplemented() {
		t.Fatalf("interface must be implemented")
	}
	if iu.IsInstantiated() {
		t.Fatalf("interface must not be instantiated")
	}
	cu, _ := u.ClassUsage(cID)
	if !cu.IsInstantiated() {
		t.Fatalf("C must be instantiated")
	}
}

func TestAbstractClassNotDirectlyInstantiated(t *testing.T) {
	var aID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		aID = b.AddClass(elements.ClassDef{Name: "A", Flags: elements.ClassAbstract})
	})
	u := New(w, nil)

	u.RegisterTypeInstantiation(w.InternClassType(aID, nil), nil)

	if len(u.DirectlyInstantiatedClasses()) != 0 {
		t.Fatalf("abstract class must not be directly instantiated")
	}
	au, _ := u.ClassUsage(aID)
	if au.IsInstantiated() || !au.IsImplemented() {
		t.Fatalf("abstract instantiation marks implemented only")
	}
}

func TestNativeAbstractClassInstantiates(t *testing.T) {
	var aID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		aID = b.AddClass(elements.ClassDef{
			Name:  "Host",
			Flags: elements.ClassAbstract | elements.ClassNative,
		})
	})
	u := New(w, nil)

	u.RegisterTypeInstantiation(w.InternClassType(aID, nil), nil)

	direct := u.DirectlyInstantiatedClasses()
	if len(direct) != 1 || direct[0] != aID {
		t.Fatalf("native abstract class must count as directly instantiated")
	}
	au, _ := u.ClassUsage(aID)
	if !au.IsInstantiated() {
		t.Fatalf("native abstract class must be instantiated")
	}
}

func TestCatchUpAfterEarlySelector(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fooID = b.AddMember(elements.MemberDef{Owner: cID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	// Call site first, class instantiated later.
	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(0, nil, 0)),
	}, nil)

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)

	var events []memberEvent
	u.ProcessClassMembers(cID, recordMember(&events))

	if len(events) != 1 || events[0].member != fooID {
		t.Fatalf("activation events: %v", events)
	}
	if !events[0].delta.Has(UseInvoked) {
		t.Fatalf("foo must be invoked on activation, delta %v", events[0].delta)
	}
	if u.pendingNormal.contains(foo, fooID) {
		t.Fatalf("foo must not stay normal-pending after catch-up")
	}
	// A tear-off could still happen, so the closurization bucket keeps it.
	if !u.pendingClosure.contains(foo, fooID) {
		t.Fatalf("foo should await closurization")
	}

	// Re-activation is a silent no-op.
	events = nil
	u.ProcessClassMembers(cID, recordMember(&events))
	if len(events) != 0 {
		t.Fatalf("repeated activation must be silent, got %v", events)
	}
}

func TestLateSelectorHitsPendingMember(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fooID = b.AddMember(elements.MemberDef{Owner: cID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	var events []memberEvent
	added := u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(0, nil, 0)),
	}, recordMember(&events))
	if !added {
		t.Fatalf("first registration must be informative")
	}
	if len(events) != 1 || events[0].member != fooID || !events[0].delta.Has(UseInvoked) {
		t.Fatalf("rescan events: %v", events)
	}

	// Same selector again: nothing new, nobody notified.
	events = nil
	added = u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(0, nil, 0)),
	}, recordMember(&events))
	if added || len(events) != 0 {
		t.Fatalf("repeated registration must be silent, added=%v events=%v", added, events)
	}
}

func TestSelectorKindsDoNotInterfere(t *testing.T) {
	var cID elements.ClassID
	var xID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		xID = b.AddMember(elements.MemberDef{Owner: cID, Name: "x", Kind: elements.MemberField})
	})
	u := New(w, nil)
	x := w.Names().Intern("x")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	u.RegisterDynamicUse(DynamicUse{Selector: NewGetterSelector(x)}, nil)

	usage, ok := u.MemberUsage(xID)
	if !ok {
		t.Fatalf("x has no usage")
	}
	if !usage.HasRead() {
		t.Fatalf("get selector must grant read")
	}
	if usage.HasWrite() || usage.HasInvoke() {
		t.Fatalf("get selector granted too much: %v", usage.Granted())
	}
	if !u.pendingNormal.contains(x, xID) {
		t.Fatalf("x still awaits write, must stay normal-pending")
	}

	u.RegisterDynamicUse(DynamicUse{Selector: NewSetterSelector(x)}, nil)
	if !usage.HasWrite() {
		t.Fatalf("set selector must grant write")
	}
	if u.pendingNormal.contains(x, xID) {
		t.Fatalf("fully used field must leave the normal bucket")
	}
}

func TestReadOnlyFieldIgnoresSetSelector(t *testing.T) {
	var cID elements.ClassID
	var xID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		xID = b.AddMember(elements.MemberDef{
			Owner: cID, Name: "x",
			Kind:  elements.MemberField,
			Flags: elements.MemberReadOnly,
		})
	})
	u := New(w, nil)
	x := w.Names().Intern("x")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)
	u.RegisterDynamicUse(DynamicUse{Selector: NewSetterSelector(x)}, nil)

	usage, _ := u.MemberUsage(xID)
	if usage.HasWrite() {
		t.Fatalf("read-only field must never be written")
	}
	u.RegisterDynamicUse(DynamicUse{Selector: NewGetterSelector(x)}, nil)
	if usage.HasPendingNormalUse() {
		t.Fatalf("read exhausts a read-only field's normal uses")
	}
}

func TestInvokeSelectorOnFieldGrantsRead(t *testing.T) {
	var cID elements.ClassID
	var fID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fID = b.AddMember(elements.MemberDef{Owner: cID, Name: "handler", Kind: elements.MemberField})
	})
	u := New(w, nil)
	handler := w.Names().Intern("handler")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)
	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(handler, NewCallStructure(2, nil, 0)),
	}, nil)

	usage, _ := u.MemberUsage(fID)
	if !usage.HasRead() || usage.HasInvoke() {
		t.Fatalf("calling a field reads it, got %v", usage.Granted())
	}
}

func TestGetterSelectorTearsOffMethod(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fooID = b.AddMember(elements.MemberDef{Owner: cID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	var events []memberEvent
	u.RegisterDynamicUse(DynamicUse{Selector: NewGetterSelector(foo)}, recordMember(&events))

	usage, _ := u.MemberUsage(fooID)
	if !usage.HasRead() {
		t.Fatalf("tear-off must grant read")
	}
	if usage.HasPendingClosurizationUse() || u.pendingClosure.contains(foo, fooID) {
		t.Fatalf("torn-off method must leave the closurization bucket")
	}
	if !u.pendingNormal.contains(foo, fooID) {
		t.Fatalf("method still awaits invoke")
	}
	if !u.HasInvokedGetter(fooID) {
		t.Fatalf("HasInvokedGetter must see the tear-off site")
	}
}

func TestTypedConstraintFiltersReceivers(t *testing.T) {
	var aID, zID elements.ClassID
	var aFoo, zFoo elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		aID = b.AddClass(elements.ClassDef{Name: "A"})
		zID = b.AddClass(elements.ClassDef{Name: "Z"})
		aFoo = b.AddMember(elements.MemberDef{Owner: aID, Name: "foo", Kind: elements.MemberMethod})
		zFoo = b.AddMember(elements.MemberDef{Owner: zID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")
	sel := NewInvokeSelector(foo, NewCallStructure(0, nil, 0))

	u.RegisterTypeInstantiation(w.InternClassType(aID, nil), nil)
	u.RegisterTypeInstantiation(w.InternClassType(zID, nil), nil)
	u.ProcessClassMembers(aID, nil)
	u.ProcessClassMembers(zID, nil)

	added := u.RegisterDynamicUse(DynamicUse{
		Selector:   sel,
		Constraint: TypedReceiver{Class: aID},
	}, nil)
	if !added {
		t.Fatalf("fresh selector must be informative")
	}

	aUsage, _ := u.MemberUsage(aFoo)
	zUsage, _ := u.MemberUsage(zFoo)
	if !aUsage.HasInvoke() {
		t.Fatalf("A.foo must be invoked")
	}
	if zUsage.HasInvoke() {
		t.Fatalf("Z.foo is outside the receiver constraint")
	}

	// Same receiver class again adds nothing.
	if u.RegisterDynamicUse(DynamicUse{Selector: sel, Constraint: TypedReceiver{Class: aID}}, nil) {
		t.Fatalf("known constraint must not be informative")
	}

	// A new receiver class grows the constraint set and hits Z.foo.
	if !u.RegisterDynamicUse(DynamicUse{Selector: sel, Constraint: TypedReceiver{Class: zID}}, nil) {
		t.Fatalf("new receiver class must be informative")
	}
	if !zUsage.HasInvoke() {
		t.Fatalf("Z.foo must be invoked after its receiver appears")
	}
}

func TestArityMismatchKeepsMemberPending(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		x := b.Intern("x")
		fooID = b.AddMember(elements.MemberDef{
			Owner: cID, Name: "foo",
			Kind:   elements.MemberMethod,
			Params: []elements.Param{{Name: x}},
		})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	// foo() does not match foo(x).
	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(0, nil, 0)),
	}, nil)
	usage, _ := u.MemberUsage(fooID)
	if usage.HasInvoke() {
		t.Fatalf("nullary call must not reach unary method")
	}
	if !u.pendingNormal.contains(foo, fooID) {
		t.Fatalf("member must stay pending after shape mismatch")
	}

	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(1, nil, 0)),
	}, nil)
	if !usage.HasInvoke() {
		t.Fatalf("matching shape must invoke the method")
	}
}

func TestReentrantActivationDuringRescan(t *testing.T) {
	var c1, c2 elements.ClassID
	var foo1, foo2 elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		x := b.Intern("x")
		c1 = b.AddClass(elements.ClassDef{Name: "C1"})
		c2 = b.AddClass(elements.ClassDef{Name: "C2"})
		foo1 = b.AddMember(elements.MemberDef{Owner: c1, Name: "foo", Kind: elements.MemberMethod})
		foo2 = b.AddMember(elements.MemberDef{
			Owner: c2, Name: "foo",
			Kind:   elements.MemberMethod,
			Params: []elements.Param{{Name: x}},
		})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(c1, nil), nil)
	u.RegisterTypeInstantiation(w.InternClassType(c2, nil), nil)
	u.ProcessClassMembers(c1, nil)

	// The callback activates C2.foo while the foo bucket is being drained.
	// Its shape does not match the in-flight selector, so it re-enters the
	// very bucket under iteration.
	var reentered bool
	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(0, nil, 0)),
	}, func(member elements.MemberID, delta Use) {
		if member == foo1 && !reentered {
			reentered = true
			u.ProcessClassMembers(c2, nil)
		}
	})

	u1, _ := u.MemberUsage(foo1)
	if !u1.HasInvoke() {
		t.Fatalf("C1.foo must be invoked")
	}
	u2, ok := u.MemberUsage(foo2)
	if !ok || u2.HasInvoke() {
		t.Fatalf("C2.foo must be activated but not invoked")
	}
	if !u.pendingNormal.contains(foo, foo2) {
		t.Fatalf("C2.foo must survive in the rebuilt bucket")
	}

	// The late shape still reaches the member inserted mid-scan.
	u.RegisterDynamicUse(DynamicUse{
		Selector: NewInvokeSelector(foo, NewCallStructure(1, nil, 0)),
	}, nil)
	if !u2.HasInvoke() {
		t.Fatalf("C2.foo must be invoked by the matching shape")
	}
}

func TestStaticUseBookkeeping(t *testing.T) {
	var counter, util, method elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		s := b.AddClass(elements.ClassDef{Name: "S"})
		counter = b.AddMember(elements.MemberDef{
			Owner: s, Name: "counter",
			Kind:  elements.MemberField,
			Flags: elements.MemberStatic,
		})
		util = b.AddMember(elements.MemberDef{Name: "util", Kind: elements.MemberMethod})
		method = b.AddMember(elements.MemberDef{Owner: s, Name: "m", Kind: elements.MemberMethod})
	})
	u := New(w, nil)

	var events []memberEvent
	u.RegisterStaticUse(StaticUse{Kind: StaticGet, Member: counter}, recordMember(&events))
	if len(events) != 1 || !events[0].delta.Has(UseNormal) {
		t.Fatalf("static get events: %v", events)
	}
	if got := u.ReferencedStaticFields(); len(got) != 1 || got[0] != counter {
		t.Fatalf("referenced static fields: %v", got)
	}

	// Tear-off of a top-level function owns a real tear-off capability.
	events = nil
	u.RegisterStaticUse(StaticUse{Kind: StaticTearOff, Member: util}, recordMember(&events))
	if len(events) != 1 || !events[0].delta.Has(UseTearOff) || !events[0].delta.Has(UseNormal) {
		t.Fatalf("function tear-off events: %v", events)
	}
	if got := u.ClosurizedStatics(); len(got) != 1 || got[0] != util {
		t.Fatalf("closurized statics: %v", got)
	}

	// Super tear-off of an instance method folds into normal use and records
	// the needed super getter.
	events = nil
	u.RegisterStaticUse(StaticUse{Kind: SuperTearOff, Member: method}, recordMember(&events))
	if len(events) != 1 || events[0].delta.Has(UseTearOff) || !events[0].delta.Has(UseNormal) {
		t.Fatalf("super tear-off events: %v", events)
	}
	if got := u.MethodsNeedingSuperGetter(); len(got) != 1 || got[0] != method {
		t.Fatalf("methods needing super getter: %v", got)
	}

	// Monotonic: repeating a static use is silent.
	events = nil
	u.RegisterStaticUse(StaticUse{Kind: StaticGet, Member: counter}, recordMember(&events))
	u.RegisterStaticUse(StaticUse{Kind: StaticTearOff, Member: util}, recordMember(&events))
	if len(events) != 0 {
		t.Fatalf("repeated static uses must be silent, got %v", events)
	}
}

func TestExcludedStaticUseKindsAreNotEnqueued(t *testing.T) {
	var box elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		s := b.AddClass(elements.ClassDef{Name: "S"})
		box = b.AddMember(elements.MemberDef{
			Owner: s, Name: "box",
			Kind:  elements.MemberField,
			Flags: elements.MemberStatic,
		})
	})
	u := New(w, nil)

	var events []memberEvent
	u.RegisterStaticUse(StaticUse{Kind: FieldGet, Member: box}, recordMember(&events))
	if len(events) != 0 {
		t.Fatalf("field-get must not enqueue, got %v", events)
	}
	if _, ok := u.StaticUsage(box); ok {
		t.Fatalf("field-get must not create a static usage")
	}
	// The static-field reference is still recorded for the field model.
	if got := u.ReferencedStaticFields(); len(got) != 1 || got[0] != box {
		t.Fatalf("referenced static fields: %v", got)
	}
}

func TestDirectInvokeSkipsRegistry(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fooID = b.AddMember(elements.MemberDef{Owner: cID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	var events []memberEvent
	u.RegisterStaticUse(StaticUse{Kind: DirectInvoke, Member: fooID}, recordMember(&events))

	if len(events) != 1 || !events[0].delta.Has(UseInvoked) {
		t.Fatalf("direct invoke events: %v", events)
	}
	if u.pendingNormal.contains(foo, fooID) {
		t.Fatalf("direct invoke must clear the normal bucket entry")
	}
	if len(u.InvocationsByName(foo)) != 0 {
		t.Fatalf("direct invoke must not touch the selector registry")
	}
}

func TestDirectInvokeWithTypeArgumentsRecordsGenericCall(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
		fooID = b.AddMember(elements.MemberDef{
			Owner: cID, Name: "foo",
			Kind:       elements.MemberMethod,
			TypeParams: 1,
		})
	})
	u := New(w, nil)
	foo := w.Names().Intern("foo")

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	u.ProcessClassMembers(cID, nil)

	u.RegisterStaticUse(StaticUse{
		Kind:     DirectInvoke,
		Member:   fooID,
		Call:     NewCallStructure(0, nil, 1),
		TypeArgs: []elements.TypeID{w.DynamicType()},
	}, nil)

	generics := u.GenericDynamicInvocations()
	if len(generics) != 1 || generics[0].Selector.Name != foo {
		t.Fatalf("generic invocations: %+v", generics)
	}
	if len(u.InvocationsByName(foo)) != 1 {
		t.Fatalf("generic direct invoke must register the dynamic selector")
	}
}

func TestNativeMemberBaseline(t *testing.T) {
	var cID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "Host", Flags: elements.ClassNative})
		fooID = b.AddMember(elements.MemberDef{
			Owner: cID, Name: "ping",
			Kind:  elements.MemberMethod,
			Flags: elements.MemberNative,
		})
	})
	u := New(w, nil)

	u.RegisterTypeInstantiation(w.InternClassType(cID, nil), nil)
	var events []memberEvent
	u.ProcessClassMembers(cID, recordMember(&events))

	if len(events) != 1 {
		t.Fatalf("activation events: %v", events)
	}
	usage, _ := u.MemberUsage(fooID)
	if !usage.HasInvoke() || !usage.HasRead() {
		t.Fatalf("native member must be fully reachable, got %v", usage.Granted())
	}
	if usage.HasPendingNormalUse() || usage.HasPendingClosurizationUse() {
		t.Fatalf("native member must not linger in pending buckets")
	}
}

func TestActivationForUnrelatedClassPanics(t *testing.T) {
	var aID, zID elements.ClassID
	var fooID elements.MemberID
	w := buildWorld(t, func(b *elements.Builder) {
		aID = b.AddClass(elements.ClassDef{Name: "A"})
		zID = b.AddClass(elements.ClassDef{Name: "Z"})
		fooID = b.AddMember(elements.MemberDef{Owner: aID, Name: "foo", Kind: elements.MemberMethod})
	})
	u := New(w, nil)

	defer func() {
		if _, ok := fault.AsViolation(recover()); !ok {
			t.Fatalf("expected an invariant violation")
		}
	}()
	u.ActivateMember(zID, fooID, nil)
}

func TestIsCheckAndTypeQueries(t *testing.T) {
	var cID elements.ClassID
	w := buildWorld(t, func(b *elements.Builder) {
		cID = b.AddClass(elements.ClassDef{Name: "C"})
	})
	u := New(w, nil)
	typ := w.InternClassType(cID, nil)

	u.RegisterIsCheck(typ)
	u.RegisterTypeInstantiation(typ, nil)

	if got := u.IsCheckedTypes(); len(got) != 1 || got[0] != typ {
		t.Fatalf("is-checked types: %v", got)
	}
	if got := u.InstantiatedTypes(); len(got) != 1 || got[0] != typ {
		t.Fatalf("instantiated types: %v", got)
	}
}
