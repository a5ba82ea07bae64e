package names

import "testing"

func TestInternReturnsStableIDs(t *testing.T) {
	tbl := NewTable()

	foo := tbl.Intern("foo")
	bar := tbl.Intern("bar")

	if foo == NoID || bar == NoID {
		t.Fatalf("interned IDs must be valid: foo=%d bar=%d", foo, bar)
	}
	if foo == bar {
		t.Fatalf("distinct names share an ID: %d", foo)
	}
	if again := tbl.Intern("foo"); again != foo {
		t.Fatalf("re-interning changed the ID: got %d, want %d", again, foo)
	}
	if got := tbl.MustLookup(foo); got != "foo" {
		t.Fatalf("MustLookup(foo) = %q", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
}

func TestEmptyStringIsNoID(t *testing.T) {
	tbl := NewTable()
	if id := tbl.Intern(""); id != NoID {
		t.Fatalf("empty string interned as %d, want NoID", id)
	}
	if s, ok := tbl.Lookup(NoID); !ok || s != "" {
		t.Fatalf("Lookup(NoID) = %q, %v", s, ok)
	}
}

func TestInternCopiesInput(t *testing.T) {
	tbl := NewTable()
	buf := []byte("mutable")
	id := tbl.Intern(string(buf))
	buf[0] = 'X'
	if got := tbl.MustLookup(id); got != "mutable" {
		t.Fatalf("table aliased caller buffer: %q", got)
	}
}

func TestSortedIsLexical(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("zeta")
	tbl.Intern("alpha")
	tbl.Intern("mid")

	got := tbl.Sorted()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Sorted() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
