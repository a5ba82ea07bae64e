// Package driver runs the analysis pipeline end to end: load the snapshots
// a manifest names, link them into a closed world, run the liveness
// fixpoint and summarize the live program. Problems surface as diagnostics
// in the caller's bag; returned errors only say which stage failed. The CLI
// is a thin shell over this package.
package driver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"lumen/internal/diag"
	"lumen/internal/observ"
	"lumen/internal/program"
	"lumen/internal/program/dag"
	"lumen/internal/trace"
	"lumen/internal/worldfile"
)

// Program is a loaded and linked program, ready for analysis.
type Program struct {
	Manifest *program.Manifest
	// Modules holds the program's modules dependency-first. Snapshots the
	// DAG could not place (duplicates, empty names) are not listed; the
	// linker has already rejected them.
	Modules []program.Module
	Link    *worldfile.LinkResult
	// Key identifies the program content for caching: every snapshot's
	// digest folded along the import structure.
	Key worldfile.Digest
}

// LoadOptions tune program loading.
type LoadOptions struct {
	// MaxDiagnostics caps each per-snapshot bag. Zero means the loader
	// default.
	MaxDiagnostics int
	// Jobs caps the parallel snapshot reads. Zero or negative uses
	// GOMAXPROCS.
	Jobs int

	Tracer     trace.Tracer
	ParentSpan uint64
	Timer      *observ.Timer
}

// DefaultMaxDiagnostics caps per-snapshot diagnostics when the caller does
// not say otherwise.
const DefaultMaxDiagnostics = 100

// loadedSnapshot pairs a decoded snapshot with its loading metadata.
type loadedSnapshot struct {
	Mod  program.Module
	Snap *worldfile.Snapshot
}

// LoadProgram loads the manifest at manifestPath, reads and decodes its
// snapshots in parallel, orders them dependency-first and links them into
// one closed world. Diagnostics land in bag; a nil Program with a non-nil
// error means loading failed and bag explains why.
func LoadProgram(ctx context.Context, manifestPath string, bag *diag.Bag, opts LoadOptions) (*Program, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(opts.Tracer, trace.ScopePhase, "load", opts.ParentSpan)
	endLoad := beginPhase(opts.Timer, "load")

	man, err := program.LoadManifest(manifestPath)
	if err != nil {
		bag.Add(diag.NewError(diag.ProgBadManifest, diag.Locus{File: manifestPath}, err.Error()))
		endLoad("")
		span.End("bad manifest")
		return nil, loadFailure(bag)
	}

	paths := dedupeSnapshotPaths(man, bag)
	loaded, err := readSnapshots(ctx, man, paths, bag, opts)
	if err != nil {
		endLoad("")
		span.End("cancelled")
		return nil, err
	}
	endLoad(fmt.Sprintf("%d snapshots", len(loaded)))
	if bag.HasErrors() {
		// An unreadable snapshot leaves the world open; linking the rest
		// would only cascade into missing-import noise.
		span.End("read failed")
		return nil, loadFailure(bag)
	}

	rep := diag.BagReporter{Bag: bag}
	endOrder := beginPhase(opts.Timer, "order")
	mods := make([]program.Module, len(loaded))
	for i := range loaded {
		mods[i] = loaded[i].Mod
	}
	idx := dag.BuildIndex(mods)
	graph := dag.BuildGraph(idx, mods, rep)
	topo := dag.Toposort(graph)
	endOrder("")
	if topo.Cyclic {
		dag.ReportCycle(idx, topo, man.Path, rep)
		span.End("import cycle")
		return nil, loadFailure(bag)
	}

	order := orderLoaded(idx, topo, loaded)
	sources := make([]worldfile.Source, len(order))
	for i, li := range order {
		sources[i] = worldfile.Source{Path: loaded[li].Mod.Path, Snap: loaded[li].Snap}
	}

	endLink := beginPhase(opts.Timer, "link")
	link, err := worldfile.Link(sources, rep)
	endLink("")
	if err != nil {
		span.End("link failed")
		return nil, err
	}
	if bag.HasErrors() {
		span.End("load failed")
		return nil, loadFailure(bag)
	}

	prog := &Program{Manifest: man, Link: link}
	for _, li := range order {
		if loaded[li].Mod.Name != "" {
			prog.Modules = append(prog.Modules, loaded[li].Mod)
		}
	}
	prog.Key = programKey(idx, graph, topo, prog.Modules)

	if len(link.Roots) == 0 {
		bag.Add(diag.NewError(diag.ProgNoRoots, diag.Locus{File: man.Path},
			fmt.Sprintf("program %q declares no roots; nothing is reachable", man.Name)))
		span.End("no roots")
		return nil, loadFailure(bag)
	}

	span.WithExtra("modules", strconv.Itoa(len(prog.Modules))).End("")
	return prog, nil
}

// dedupeSnapshotPaths resolves the manifest's snapshot list and drops
// repeated entries with a warning. The first occurrence stays.
func dedupeSnapshotPaths(man *program.Manifest, bag *diag.Bag) []string {
	paths := man.SnapshotPaths()
	seen := make(map[string]int, len(paths))
	uniq := make([]string, 0, len(paths))
	for i, p := range paths {
		if j, dup := seen[p]; dup {
			bag.Add(diag.NewWarning(diag.ProgDuplicateModule,
				diag.Locus{File: man.Path, Path: "snapshots"},
				fmt.Sprintf("snapshot %q is listed more than once", man.Snapshots[i])).
				WithNote(diag.Locus{File: man.Path, Path: "snapshots"},
					fmt.Sprintf("first listed as %q", man.Snapshots[j])))
			continue
		}
		seen[p] = i
		uniq = append(uniq, p)
	}
	return uniq
}

// readSnapshots reads and decodes every snapshot in parallel. Each file
// gets its own bag so goroutines never share one; the bags merge into the
// caller's in manifest order, keeping the output deterministic.
func readSnapshots(ctx context.Context, man *program.Manifest, paths []string, bag *diag.Bag, opts LoadOptions) ([]loadedSnapshot, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	type slot struct {
		Snap   *worldfile.Snapshot
		Digest worldfile.Digest
		Bag    *diag.Bag
	}
	// Index-addressed slots: every goroutine writes only its own.
	results := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				fileBag := diag.NewBag(opts.MaxDiagnostics)
				results[i] = slot{Bag: fileBag}

				raw, err := os.ReadFile(path)
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						fileBag.Add(diag.NewError(diag.ProgMissingSnapshot,
							diag.Locus{File: man.Path, Path: "snapshots"},
							fmt.Sprintf("snapshot %q does not exist", path)))
					} else {
						fileBag.Add(diag.NewError(diag.IOLoadFileError,
							diag.Locus{File: path},
							"failed to load file: "+err.Error()))
					}
					return nil
				}

				snap, err := worldfile.Decode(bytes.NewReader(raw))
				if err != nil {
					fileBag.Add(diag.NewError(decodeCode(err), diag.Locus{File: path}, err.Error()))
					return nil
				}

				results[i].Snap = snap
				results[i].Digest = sha256.Sum256(raw)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]loadedSnapshot, 0, len(paths))
	for i, path := range paths {
		bag.Merge(results[i].Bag)
		if results[i].Snap == nil {
			continue
		}
		loaded = append(loaded, loadedSnapshot{
			Mod: program.Module{
				Name:    results[i].Snap.Module,
				Path:    path,
				Imports: results[i].Snap.Imports,
				Digest:  results[i].Digest,
			},
			Snap: results[i].Snap,
		})
	}
	return loaded, nil
}

func decodeCode(err error) diag.Code {
	switch {
	case errors.Is(err, worldfile.ErrBadMagic):
		return diag.SnapBadMagic
	case errors.Is(err, worldfile.ErrSchema):
		return diag.SnapUnsupportedSchema
	default:
		return diag.SnapBadPayload
	}
}

// orderLoaded arranges loaded snapshots dependency-first. Snapshots the DAG
// did not claim, duplicates of an earlier module name or snapshots with an
// empty name, follow in manifest order so the linker can reject them with a
// precise diagnostic.
func orderLoaded(idx dag.Index, topo *dag.Topo, loaded []loadedSnapshot) []int {
	claimed := make(map[string]int, len(loaded))
	for i := range loaded {
		name := loaded[i].Mod.Name
		if name == "" {
			continue
		}
		if _, ok := claimed[name]; !ok {
			claimed[name] = i
		}
	}

	order := make([]int, 0, len(loaded))
	used := make([]bool, len(loaded))
	for _, id := range topo.Order {
		if i, ok := claimed[idx.IDToName[int(id)]]; ok && !used[i] {
			order = append(order, i)
			used[i] = true
		}
	}
	for i := range loaded {
		if !used[i] {
			order = append(order, i)
		}
	}
	return order
}

// programKey folds every module's hash into one digest. Module hashes are
// computed dependency-first, so a change anywhere below a module changes
// the module's own hash and with it the program key.
func programKey(idx dag.Index, g dag.Graph, topo *dag.Topo, mods []program.Module) worldfile.Digest {
	byName := make(map[string]program.Module, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
	}

	hashes := make(map[string]worldfile.Digest, len(mods))
	parts := make([]worldfile.Digest, 0, len(mods))
	for _, id := range topo.Order {
		name := idx.IDToName[int(id)]
		mod, ok := byName[name]
		if !ok {
			continue
		}
		deps := make([]worldfile.Digest, 0, len(g.Deps[int(id)]))
		for _, dep := range g.Deps[int(id)] {
			if h, ok := hashes[idx.IDToName[int(dep)]]; ok {
				deps = append(deps, h)
			}
		}
		h := program.ModuleHash(mod.Digest, deps...)
		hashes[name] = h
		parts = append(parts, h)
	}
	return worldfile.CombineDigests(parts...)
}

// beginPhase starts a timer phase and returns its closer. A nil timer
// yields a no-op closer.
func beginPhase(t *observ.Timer, name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	idx := t.Begin(name)
	return func(note string) { t.End(idx, note) }
}

func loadFailure(bag *diag.Bag) error {
	n := 0
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			n++
		}
	}
	return fmt.Errorf("driver: program loading failed (%d diagnostics)", n)
}
