// Package program models an analyzable Lumen program: the TOML manifest
// naming its world snapshots and analysis options, and the per-module
// metadata the driver threads through loading. The import graph lives in
// the dag subpackage.
package program

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the CLI looks for when no manifest is given.
const ManifestName = "lumen.toml"

// Manifest is a parsed program manifest.
type Manifest struct {
	Path string // manifest file location
	Root string // directory snapshot paths resolve against

	Name      string
	Snapshots []string // as written in the manifest
	Analysis  AnalysisOptions
}

// AnalysisOptions tune the analysis run.
type AnalysisOptions struct {
	// Strategy selects the receiver-constraint representation: "typed"
	// (the precise default) or "any" (drop receiver information).
	Strategy string
	// Cache enables the on-disk result cache.
	Cache bool
}

type manifestFile struct {
	Name      string          `toml:"name"`
	Snapshots []string        `toml:"snapshots"`
	Analysis  analysisSection `toml:"analysis"`
}

type analysisSection struct {
	Strategy string `toml:"strategy"`
	Cache    *bool  `toml:"cache"`
}

// FindManifest walks from startDir toward the filesystem root looking for a
// lumen.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest parses and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	var mf manifestFile
	meta, err := toml.DecodeFile(path, &mf)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	m := &Manifest{
		Path:      path,
		Root:      filepath.Dir(path),
		Name:      strings.TrimSpace(mf.Name),
		Snapshots: mf.Snapshots,
		Analysis: AnalysisOptions{
			Strategy: strings.TrimSpace(mf.Analysis.Strategy),
			Cache:    true,
		},
	}
	if !meta.IsDefined("name") || m.Name == "" {
		return nil, fmt.Errorf("%s: missing name", path)
	}
	if !meta.IsDefined("snapshots") || len(m.Snapshots) == 0 {
		return nil, fmt.Errorf("%s: missing snapshots list", path)
	}
	for i, s := range m.Snapshots {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%s: snapshots[%d] is empty", path, i)
		}
	}
	switch m.Analysis.Strategy {
	case "":
		m.Analysis.Strategy = "typed"
	case "typed", "any":
	default:
		return nil, fmt.Errorf("%s: unknown analysis strategy %q (want typed or any)", path, m.Analysis.Strategy)
	}
	if mf.Analysis.Cache != nil {
		m.Analysis.Cache = *mf.Analysis.Cache
	}
	return m, nil
}

// SnapshotPaths resolves the manifest's snapshot entries against its root.
func (m *Manifest) SnapshotPaths() []string {
	out := make([]string, len(m.Snapshots))
	for i, s := range m.Snapshots {
		if filepath.IsAbs(s) {
			out[i] = filepath.Clean(s)
			continue
		}
		out[i] = filepath.Join(m.Root, filepath.FromSlash(s))
	}
	return out
}
