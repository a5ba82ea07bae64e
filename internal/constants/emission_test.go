package constants

import (
	"testing"

	"lumen/internal/fault"
)

func TestRegisterDeduplicatesByStructure(t *testing.T) {
	r := NewRegistry()

	if !r.Register(DirectUse(IntValue{Value: 42})) {
		t.Fatalf("first registration must be new")
	}
	if r.Register(ImplicitUse(IntValue{Value: 42})) {
		t.Fatalf("structurally equal constant must not be new")
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if !r.IsDirect(IntValue{Value: 42}) {
		t.Fatalf("direct use must be remembered")
	}
	if !r.Register(DirectUse(IntValue{Value: 43})) {
		t.Fatalf("different value must be new")
	}
}

func TestEmissionOrdersDependenciesFirst(t *testing.T) {
	c := StringValue{Value: "c"}
	b := ListValue{Elements: []Value{c}}
	a := ListValue{Elements: []Value{b}}

	r := NewRegistry()
	r.Register(DirectUse(a))
	r.Register(DirectUse(b))
	r.Register(DirectUse(c))

	order := r.EmissionOrder(nil)
	if len(order) != 3 {
		t.Fatalf("emitted %d constants", len(order))
	}
	if order[0].Key() != c.Key() || order[1].Key() != b.Key() || order[2].Key() != a.Key() {
		t.Fatalf("order: %v", order)
	}

	again := r.EmissionOrder(nil)
	for i := range order {
		if order[i].Key() != again[i].Key() {
			t.Fatalf("emission order must be reproducible")
		}
	}
}

func TestEmissionIncludesUnregisteredDependencies(t *testing.T) {
	leaf := IntValue{Value: 7}
	root := ListValue{Elements: []Value{leaf}}

	r := NewRegistry()
	r.Register(DirectUse(root))

	order := r.EmissionOrder(nil)
	if len(order) != 2 {
		t.Fatalf("dependency must be emitted, got %v", order)
	}
	if order[0].Key() != leaf.Key() {
		t.Fatalf("dependency must come first, got %v", order)
	}
}

func TestPreSortStabilizesDisjointGraphs(t *testing.T) {
	mk := func(tag string) (Value, Value) {
		dep := StringValue{Value: tag + "-dep"}
		root := ListValue{Elements: []Value{dep}}
		return root, dep
	}
	rootX, depX := mk("x")
	rootY, depY := mk("y")

	emit := func(first, second Value) []string {
		r := NewRegistry()
		r.Register(DirectUse(first))
		r.Register(DirectUse(second))
		var keys []string
		for _, v := range r.EmissionOrder(ByKey) {
			keys = append(keys, v.Key())
		}
		return keys
	}

	forward := emit(rootX, rootY)
	backward := emit(rootY, rootX)

	if len(forward) != 4 || len(backward) != 4 {
		t.Fatalf("unexpected lengths: %v / %v", forward, backward)
	}
	for i := range forward {
		if forward[i] != backward[i] {
			t.Fatalf("pre-sorted emission depends on registration order:\n%v\n%v", forward, backward)
		}
	}

	index := func(keys []string, k string) int {
		for i, key := range keys {
			if key == k {
				return i
			}
		}
		return -1
	}
	if index(forward, depX.Key()) > index(forward, rootX.Key()) {
		t.Fatalf("dependency emitted after dependent: %v", forward)
	}
	if index(forward, depY.Key()) > index(forward, rootY.Key()) {
		t.Fatalf("dependency emitted after dependent: %v", forward)
	}
}

func TestSharedDependencyEmittedOnce(t *testing.T) {
	shared := IntValue{Value: 1}
	a := ListValue{Elements: []Value{shared}}
	b := MapValue{Keys: []Value{StringValue{Value: "k"}}, Values: []Value{shared}}

	r := NewRegistry()
	r.Register(DirectUse(a))
	r.Register(DirectUse(b))

	seen := 0
	for _, v := range r.EmissionOrder(nil) {
		if v.Key() == shared.Key() {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("shared dependency emitted %d times", seen)
	}
}

// cyclicValue builds an artificial self-dependency, something constant
// evaluation can never produce.
type cyclicValue struct {
	name string
	dep  Value
}

func (*cyclicValue) Kind() Kind { return KindReference }

func (v *cyclicValue) Dependencies() []Value { return []Value{v.dep} }

func (v *cyclicValue) Key() string    { return "cycle:" + v.name }
func (v *cyclicValue) String() string { return v.name }

func TestDependencyCycleIsFatal(t *testing.T) {
	a := &cyclicValue{name: "a"}
	b := &cyclicValue{name: "b", dep: a}
	a.dep = b

	r := NewRegistry()
	r.Register(DirectUse(a))

	defer func() {
		if _, ok := fault.AsViolation(recover()); !ok {
			t.Fatalf("expected an invariant violation")
		}
	}()
	r.EmissionOrder(nil)
}
