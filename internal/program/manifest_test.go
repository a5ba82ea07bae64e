package program

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/internal/worldfile"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name = "demo"
snapshots = ["core.lmw", "sub/app.lmw"]
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "demo" || m.Root != dir {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Analysis.Strategy != "typed" || !m.Analysis.Cache {
		t.Fatalf("defaults = %+v", m.Analysis)
	}

	paths := m.SnapshotPaths()
	want := []string{
		filepath.Join(dir, "core.lmw"),
		filepath.Join(dir, "sub", "app.lmw"),
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("SnapshotPaths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestLoadManifestOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name = "demo"
snapshots = ["core.lmw"]

[analysis]
strategy = "any"
cache = false
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Analysis.Strategy != "any" || m.Analysis.Cache {
		t.Fatalf("options = %+v", m.Analysis)
	}
}

func TestLoadManifestRejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", `snapshots = ["a.lmw"]`, "missing name"},
		{"missing snapshots", `name = "demo"`, "missing snapshots"},
		{"empty snapshot", "name = \"demo\"\nsnapshots = [\"\"]", "snapshots[0] is empty"},
		{"bad strategy", "name = \"demo\"\nsnapshots = [\"a.lmw\"]\n[analysis]\nstrategy = \"psychic\"", "unknown analysis strategy"},
	}
	for _, tc := range cases {
		path := writeManifest(t, t.TempDir(), tc.content)
		_, err := LoadManifest(path)
		if err == nil {
			t.Fatalf("%s: manifest loaded, want error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "name = \"demo\"\nsnapshots = [\"a.lmw\"]")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if got != path {
		t.Fatalf("FindManifest = %q, want %q", got, path)
	}
}

func TestModuleHash(t *testing.T) {
	var a, b worldfile.Digest
	a[0], b[0] = 1, 2

	if ModuleHash(a) != a {
		t.Fatal("leaf module hash must equal its content digest")
	}
	if ModuleHash(a, b) == ModuleHash(a) {
		t.Fatal("dependency digest ignored")
	}
	if ModuleHash(a, b) != ModuleHash(a, b) {
		t.Fatal("module hash is not deterministic")
	}
}
