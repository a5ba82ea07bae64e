package driver

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/observ"
	"lumen/internal/report"
	"lumen/internal/testkit"
	"lumen/internal/worldfile"
)

const coreDesc = `
module = "core"

[[classes]]
name = "Shape"
abstract = true

[[classes.members]]
name = "area"
abstract = true

[[classes]]
name = "Circle"
super = "Shape"

[[classes.members]]
name = "radius"
kind = "field"
readonly = true

[[classes.members]]
name = "area"

[[classes.members]]
name = "of"
kind = "constructor"
params = ["radius"]

[[toplevel]]
name = "describe"
params = ["shape"]

[[toplevel]]
name = "counter"
kind = "field"

[[impacts]]
of = "Circle.of"
instantiates = ["Circle"]

[[impacts]]
of = "Circle.area"

[[impacts.dynamic]]
get = "radius"
receiver = "Circle"
`

const appDesc = `
module = "app"
imports = ["core"]
roots = ["main"]

[[toplevel]]
name = "main"

[[constants]]
name = "greeting"
value = { kind = "string", string = "hello" }

[[impacts]]
of = "main"

[[impacts.static]]
kind = "constructor-invoke"
target = "core:Circle.of"
positional = 1

[[impacts.static]]
kind = "tearoff"
target = "core:describe"

[[impacts.static]]
kind = "get"
target = "core:counter"

[[impacts.dynamic]]
invoke = "area"
receiver = "core:Shape"

[[impacts.constants]]
name = "greeting"
`

func writeSnapshot(t *testing.T, dir, name, desc string) string {
	t.Helper()
	snap, err := worldfile.DecodeTOMLDesc([]byte(desc))
	if err != nil {
		t.Fatalf("DecodeTOMLDesc: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := worldfile.WriteFile(path, snap); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeProgram(t *testing.T, dir, manifest string) string {
	t.Helper()
	path := filepath.Join(dir, "lumen.toml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

// fixtureProgram lays out the two-module demo program. The manifest lists
// app before core, so loading must reorder.
func fixtureProgram(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSnapshot(t, dir, "core.lmw", coreDesc)
	writeSnapshot(t, dir, "app.lmw", appDesc)
	return writeProgram(t, dir, `
name = "demo"
snapshots = ["app.lmw", "core.lmw"]
`)
}

func loadFixture(t *testing.T, manifestPath string) (*Program, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(64)
	prog, err := LoadProgram(context.Background(), manifestPath, bag, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadProgram: %v\n%s", err, diag.FormatDiagnostics(bag.Items(), true))
	}
	return prog, bag
}

func TestLoadProgramOrdersModules(t *testing.T) {
	prog, bag := loadFixture(t, fixtureProgram(t))

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diag.FormatDiagnostics(bag.Items(), true))
	}
	if prog.Manifest.Name != "demo" {
		t.Fatalf("program name = %q", prog.Manifest.Name)
	}

	var order []string
	for _, m := range prog.Modules {
		order = append(order, m.Name)
	}
	if !reflect.DeepEqual(order, []string{"core", "app"}) {
		t.Fatalf("module order = %v", order)
	}
	if !reflect.DeepEqual(prog.Link.Modules, []string{"core", "app"}) {
		t.Fatalf("linked order = %v", prog.Link.Modules)
	}
	if prog.Key.IsZero() {
		t.Fatal("program key not computed")
	}
	if len(prog.Link.Roots) != 1 {
		t.Fatalf("roots = %v", prog.Link.Roots)
	}
}

func TestLoadProgramDiagnostics(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, dir string) string // returns manifest path
		code  diag.Code
	}{
		{
			name: "bad manifest",
			setup: func(t *testing.T, dir string) string {
				return writeProgram(t, dir, `name = "demo"`)
			},
			code: diag.ProgBadManifest,
		},
		{
			name: "missing snapshot",
			setup: func(t *testing.T, dir string) string {
				return writeProgram(t, dir, `
name = "demo"
snapshots = ["gone.lmw"]
`)
			},
			code: diag.ProgMissingSnapshot,
		},
		{
			name: "not a snapshot",
			setup: func(t *testing.T, dir string) string {
				junk := filepath.Join(dir, "junk.lmw")
				if err := os.WriteFile(junk, []byte("just text"), 0o644); err != nil {
					t.Fatalf("write junk: %v", err)
				}
				return writeProgram(t, dir, `
name = "demo"
snapshots = ["junk.lmw"]
`)
			},
			code: diag.SnapBadMagic,
		},
		{
			name: "import cycle",
			setup: func(t *testing.T, dir string) string {
				writeSnapshot(t, dir, "a.lmw", `
module = "a"
imports = ["b"]
roots = ["fa"]

[[toplevel]]
name = "fa"
`)
				writeSnapshot(t, dir, "b.lmw", `
module = "b"
imports = ["a"]

[[toplevel]]
name = "fb"
`)
				return writeProgram(t, dir, `
name = "demo"
snapshots = ["a.lmw", "b.lmw"]
`)
			},
			code: diag.ProgImportCycle,
		},
		{
			name: "no roots",
			setup: func(t *testing.T, dir string) string {
				writeSnapshot(t, dir, "core.lmw", coreDesc)
				return writeProgram(t, dir, `
name = "demo"
snapshots = ["core.lmw"]
`)
			},
			code: diag.ProgNoRoots,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manifestPath := tc.setup(t, t.TempDir())
			bag := diag.NewBag(64)
			prog, err := LoadProgram(context.Background(), manifestPath, bag, LoadOptions{})
			if err == nil {
				t.Fatalf("LoadProgram succeeded, program = %+v", prog)
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tc.code {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("no %s diagnostic:\n%s", tc.code.ID(),
					diag.FormatDiagnostics(bag.Items(), true))
			}
		})
	}
}

func TestLoadProgramWarnsOnRepeatedSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "core.lmw", coreDesc)
	writeSnapshot(t, dir, "app.lmw", appDesc)
	manifestPath := writeProgram(t, dir, `
name = "demo"
snapshots = ["app.lmw", "core.lmw", "app.lmw"]
`)

	prog, bag := loadFixture(t, manifestPath)
	if len(prog.Modules) != 2 {
		t.Fatalf("modules = %v", prog.Modules)
	}
	if !bag.HasWarnings() || bag.HasErrors() {
		t.Fatalf("want a lone warning, got:\n%s", diag.FormatDiagnostics(bag.Items(), true))
	}
	if bag.Items()[0].Code != diag.ProgDuplicateModule {
		t.Fatalf("diagnostic = %+v", bag.Items()[0])
	}
}

func analyzeFixture(t *testing.T, prog *Program, opts AnalyzeOptions) *AnalysisResult {
	t.Helper()
	res, err := Analyze(context.Background(), prog, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func classByName(t *testing.T, r *report.Report, display string) report.Class {
	t.Helper()
	for _, c := range r.Classes {
		if c.Display() == display {
			return c
		}
	}
	t.Fatalf("no class %q in report", display)
	return report.Class{}
}

func TestAnalyzeLiveWorld(t *testing.T) {
	prog, _ := loadFixture(t, fixtureProgram(t))
	res := analyzeFixture(t, prog, AnalyzeOptions{Verify: true})

	if res.FromCache {
		t.Fatal("no cache was configured")
	}
	if res.Universe == nil || res.Enqueuer == nil {
		t.Fatal("fresh analysis must expose the universe and enqueuer")
	}
	if err := testkit.CheckLiveWorld(res.Universe); err != nil {
		t.Fatalf("live world inconsistent: %v", err)
	}

	r := res.Report
	if r.Program != "demo" || r.Strategy != "typed" {
		t.Fatalf("report header = %q / %q", r.Program, r.Strategy)
	}

	circle := classByName(t, r, "core:Circle")
	if !circle.Instantiated || !circle.Direct || !circle.Implemented {
		t.Fatalf("circle = %+v", circle)
	}
	memberNames := make(map[string]report.Member)
	for _, m := range circle.Members {
		memberNames[m.Name] = m
	}
	if m := memberNames["area"]; !m.Invoked {
		t.Fatalf("Circle.area = %+v", m)
	}
	if m := memberNames["radius"]; !m.Read || m.Written {
		t.Fatalf("Circle.radius = %+v", m)
	}

	shape := classByName(t, r, "core:Shape")
	if !shape.Abstract || !shape.Instantiated || shape.Direct {
		t.Fatalf("shape = %+v", shape)
	}

	statics := make(map[string]report.Static)
	for _, s := range r.Statics {
		statics[s.Name] = s
	}
	if s := statics["main"]; !s.Used {
		t.Fatalf("main = %+v", s)
	}
	if s := statics["Circle.of"]; !s.Used || s.Kind != "constructor" {
		t.Fatalf("Circle.of = %+v", s)
	}
	// Tearing off a function keeps its body live too.
	if s := statics["describe"]; !s.TornOff || !s.Used {
		t.Fatalf("describe = %+v", s)
	}

	if !reflect.DeepEqual(r.StaticFields, []string{"counter"}) {
		t.Fatalf("static fields = %v", r.StaticFields)
	}
	if !reflect.DeepEqual(r.ClosurizedStatics, []string{"describe"}) {
		t.Fatalf("closurized statics = %v", r.ClosurizedStatics)
	}

	kinds := make([]string, len(r.Constants))
	for i, c := range r.Constants {
		kinds[i] = c.Kind
	}
	if !reflect.DeepEqual(kinds, []string{"string", "reference"}) {
		t.Fatalf("constant kinds = %v", kinds)
	}

	if r.Stats.Roots != 1 || r.Stats.LiveClasses == 0 || r.Stats.WorkItems == 0 {
		t.Fatalf("stats = %+v", r.Stats)
	}
}

func TestAnalyzeStrategyOverride(t *testing.T) {
	prog, _ := loadFixture(t, fixtureProgram(t))

	res := analyzeFixture(t, prog, AnalyzeOptions{Strategy: "any"})
	if res.Report.Strategy != "any" {
		t.Fatalf("strategy = %q", res.Report.Strategy)
	}

	if _, err := Analyze(context.Background(), prog, AnalyzeOptions{Strategy: "nope"}); err == nil {
		t.Fatal("unknown strategy accepted")
	}
}

func TestAnalyzeCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenCache("lumen-test")
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}

	manifestPath := fixtureProgram(t)
	prog, _ := loadFixture(t, manifestPath)

	first := analyzeFixture(t, prog, AnalyzeOptions{Cache: cache})
	if first.FromCache {
		t.Fatal("first run cannot hit the cache")
	}

	second := analyzeFixture(t, prog, AnalyzeOptions{Cache: cache})
	if !second.FromCache {
		t.Fatal("second run must hit the cache")
	}
	if second.Universe != nil || second.Enqueuer != nil {
		t.Fatal("cache hit must not expose analysis state")
	}
	if !reflect.DeepEqual(first.Report, second.Report) {
		t.Fatalf("cached report drifted:\nfirst:  %+v\nsecond: %+v", first.Report, second.Report)
	}

	// A different strategy is a different key.
	other := analyzeFixture(t, prog, AnalyzeOptions{Cache: cache, Strategy: "any"})
	if other.FromCache {
		t.Fatal("strategy change must miss the cache")
	}

	// Changing a snapshot changes the program key.
	dir := filepath.Dir(manifestPath)
	writeSnapshot(t, dir, "core.lmw", coreDesc+`
[[toplevel]]
name = "extra"
`)
	changed, _ := loadFixture(t, manifestPath)
	if changed.Key == prog.Key {
		t.Fatal("snapshot change did not move the program key")
	}
	third := analyzeFixture(t, changed, AnalyzeOptions{Cache: cache})
	if third.FromCache {
		t.Fatal("changed program must miss the cache")
	}
}

func TestLookupMember(t *testing.T) {
	prog, _ := loadFixture(t, fixtureProgram(t))

	cases := []struct {
		spelling string
		display  string
		ok       bool
	}{
		{"core:Circle.area", "Circle.area", true},
		{"Circle.radius", "Circle.radius", true},
		{"main", "main", true},
		{"describe", "describe", true},
		{"core:Circle.gone", "", false},
		{"Square.area", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := prog.LookupMember(tc.spelling)
		if ok != tc.ok {
			t.Fatalf("LookupMember(%q) ok = %v, want %v", tc.spelling, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got := prog.Link.World.MemberDisplay(id); got != tc.display {
			t.Fatalf("LookupMember(%q) = %s, want %s", tc.spelling, got, tc.display)
		}
	}
}

func TestLookupClass(t *testing.T) {
	prog, _ := loadFixture(t, fixtureProgram(t))

	cases := []struct {
		spelling string
		name     string
		ok       bool
	}{
		{"core:Circle", "Circle", true},
		{"Shape", "Shape", true},
		{"app:Circle", "", false},
		{"Square", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := prog.LookupClass(tc.spelling)
		if ok != tc.ok {
			t.Fatalf("LookupClass(%q) ok = %v, want %v", tc.spelling, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got := prog.Link.World.ClassName(id); got != tc.name {
			t.Fatalf("LookupClass(%q) = %s, want %s", tc.spelling, got, tc.name)
		}
	}
}

func TestExplainAfterAnalyze(t *testing.T) {
	prog, _ := loadFixture(t, fixtureProgram(t))
	res := analyzeFixture(t, prog, AnalyzeOptions{})

	id, ok := prog.LookupMember("core:Circle.radius")
	if !ok {
		t.Fatal("radius not found")
	}
	steps := res.Enqueuer.ExplainMember(id)
	if len(steps) == 0 {
		t.Fatal("no retention chain for a live member")
	}
	var chain []string
	for _, s := range steps {
		chain = append(chain, s.Display(prog.Link.World))
	}
	joined := strings.Join(chain, " <- ")
	if !strings.Contains(joined, "root") {
		t.Fatalf("chain does not reach a root: %s", joined)
	}
}

func TestAppendTimings(t *testing.T) {
	timer := observ.NewTimer()
	bag := diag.NewBag(8)
	prog, err := LoadProgram(context.Background(), fixtureProgram(t), bag, LoadOptions{Timer: timer})
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if _, err := Analyze(context.Background(), prog, AnalyzeOptions{Timer: timer}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	AppendTimings(bag, "demo", timer.Report())

	if bag.Len() != 1 {
		t.Fatalf("bag = %+v", bag.Items())
	}
	d := bag.Items()[0]
	if d.Code != diag.ObsTimings || d.Severity != diag.SevInfo {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, `"phases"`) {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if !strings.Contains(d.Message, "demo") {
		t.Fatalf("message = %q", d.Message)
	}

	// A full bag still takes the timings entry.
	full := diag.NewBag(0)
	AppendTimings(full, "demo", timer.Report())
	if full.Len() != 1 {
		t.Fatal("timings dropped by a full bag")
	}
}
