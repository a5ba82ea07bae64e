package worldfile

import (
	"strings"
	"testing"
)

func TestParseMemberRef(t *testing.T) {
	cases := []struct {
		in   string
		want MemberRef
	}{
		{"main", MemberRef{Name: "main"}},
		{"Circle.area", MemberRef{Class: "Circle", Name: "area"}},
		{"core:Circle.area", MemberRef{Module: "core", Class: "Circle", Name: "area"}},
		{"core:describe", MemberRef{Module: "core", Name: "describe"}},
	}
	for _, tc := range cases {
		got, err := parseMemberRef(tc.in)
		if err != nil {
			t.Fatalf("parseMemberRef(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseMemberRef(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Fatalf("String() = %q, want %q", got.String(), tc.in)
		}
	}

	for _, bad := range []string{"", "core:", "a.b.c", "a.", ".x"} {
		if _, err := parseMemberRef(bad); err == nil {
			t.Fatalf("parseMemberRef(%q) accepted malformed input", bad)
		}
	}
}

func TestParseTypeRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"dynamic", "dynamic"},
		{"Circle", "Circle"},
		{"core:List<int>", "core:List<int>"},
		{"Map<string,core:List<dynamic>>", "Map<string,core:List<dynamic>>"},
	}
	for _, tc := range cases {
		got, err := parseTypeRef(tc.in)
		if err != nil {
			t.Fatalf("parseTypeRef(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("parseTypeRef(%q).String() = %q, want %q", tc.in, got.String(), tc.want)
		}
	}

	for _, bad := range []string{"", "List<", "List<int", "List<>", "List<int>>", "<int>"} {
		if _, err := parseTypeRef(bad); err == nil {
			t.Fatalf("parseTypeRef(%q) accepted malformed input", bad)
		}
	}
}

func TestParseParam(t *testing.T) {
	cases := []struct {
		in   string
		want Param
	}{
		{"x", Param{Name: "x"}},
		{"[y]", Param{Name: "y", Optional: true}},
		{"{z}", Param{Name: "z", Named: true}},
	}
	for _, tc := range cases {
		got, err := parseParam(tc.in)
		if err != nil {
			t.Fatalf("parseParam(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseParam(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "[]", "{}", "[x", "x]"} {
		if _, err := parseParam(bad); err == nil {
			t.Fatalf("parseParam(%q) accepted malformed input", bad)
		}
	}
}

const descFixture = `
module = "core"
imports = ["rt"]
roots = ["main"]

[[classes]]
name = "Shape"
abstract = true

[[classes.members]]
name = "area"
abstract = true

[[classes]]
name = "Circle"
super = "Shape"
interfaces = ["rt:Printable"]

[[classes.members]]
name = "radius"
kind = "field"
readonly = true

[[classes.members]]
name = "area"

[[toplevel]]
name = "main"

[[toplevel]]
name = "describe"
params = ["shape", "[label]", "{unit}"]

[[impacts]]
of = "main"
instantiates = ["Circle"]

[[impacts.dynamic]]
invoke = "area"
receiver = "Shape"

[[impacts.static]]
kind = "invoke"
target = "describe"
positional = 1

[[impacts.constants]]
name = "pi"

[[constants]]
name = "pi"
value = { kind = "float", float = 3.14159 }
`

func TestDecodeTOMLDesc(t *testing.T) {
	s, err := DecodeTOMLDesc([]byte(descFixture))
	if err != nil {
		t.Fatalf("DecodeTOMLDesc: %v", err)
	}
	if s.Module != "core" || len(s.Imports) != 1 || s.Imports[0] != "rt" {
		t.Fatalf("module header mismatch: %+v", s)
	}
	if len(s.Classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(s.Classes))
	}
	circle := s.Classes[1]
	if circle.Superclass == nil || circle.Superclass.Name != "Shape" {
		t.Fatalf("Circle superclass = %v", circle.Superclass)
	}
	if len(circle.Interfaces) != 1 || circle.Interfaces[0] != (ClassRef{Module: "rt", Name: "Printable"}) {
		t.Fatalf("Circle interfaces = %v", circle.Interfaces)
	}
	if !circle.Members[0].ReadOnly || circle.Members[0].Kind != "field" {
		t.Fatalf("radius member = %+v", circle.Members[0])
	}
	// Members without an explicit kind are methods.
	if circle.Members[1].Kind != "method" {
		t.Fatalf("area kind = %q", circle.Members[1].Kind)
	}

	describe := s.TopLevel[1]
	wantParams := []Param{{Name: "shape"}, {Name: "label", Optional: true}, {Name: "unit", Named: true}}
	if len(describe.Params) != len(wantParams) {
		t.Fatalf("describe params = %+v", describe.Params)
	}
	for i, p := range wantParams {
		if describe.Params[i] != p {
			t.Fatalf("param[%d] = %+v, want %+v", i, describe.Params[i], p)
		}
	}

	if len(s.Impacts) != 1 {
		t.Fatalf("got %d impacts, want 1", len(s.Impacts))
	}
	im := s.Impacts[0]
	if im.Of != (MemberRef{Name: "main"}) {
		t.Fatalf("impact of = %+v", im.Of)
	}
	if len(im.Instantiates) != 1 || im.Instantiates[0].String() != "Circle" {
		t.Fatalf("instantiates = %+v", im.Instantiates)
	}
	if len(im.Dynamic) != 1 || im.Dynamic[0].Kind != "invoke" || im.Dynamic[0].Receiver == nil {
		t.Fatalf("dynamic = %+v", im.Dynamic)
	}
	if len(im.Static) != 1 || im.Static[0].Kind != "invoke" || im.Static[0].Positional != 1 {
		t.Fatalf("static = %+v", im.Static)
	}
	if len(im.Constants) != 1 || im.Constants[0].Name != "pi" {
		t.Fatalf("constant uses = %+v", im.Constants)
	}

	if len(s.Constants) != 1 || s.Constants[0].Value.Kind != "float" {
		t.Fatalf("constants = %+v", s.Constants)
	}
	if len(s.Roots) != 1 || s.Roots[0] != (MemberRef{Name: "main"}) {
		t.Fatalf("roots = %+v", s.Roots)
	}
}

func TestDecodeTOMLDescRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"no module", `imports = []`, "missing module"},
		{"unknown key", "module = \"m\"\nbogus = 1", "unknown key"},
		{"bad param", "module = \"m\"\n[[toplevel]]\nname = \"f\"\nparams = [\"[x\"]", "malformed parameter"},
		{"two dynamic kinds", "module = \"m\"\n[[impacts]]\nof = \"f\"\n[[impacts.dynamic]]\ninvoke = \"a\"\nget = \"b\"", "exactly one of"},
		{"bad value kind", "module = \"m\"\n[[constants]]\nname = \"c\"\nvalue = { kind = \"blob\" }", "unknown value kind"},
	}
	for _, tc := range cases {
		_, err := DecodeTOMLDesc([]byte(tc.src))
		if err == nil {
			t.Fatalf("%s: decode accepted bad input", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}
