package driver

import (
	"context"
	"crypto/sha256"
	"fmt"

	"lumen/internal/enqueuer"
	"lumen/internal/observ"
	"lumen/internal/report"
	"lumen/internal/trace"
	"lumen/internal/universe"
	"lumen/internal/worldfile"
)

// AnalyzeOptions tune one analysis run.
type AnalyzeOptions struct {
	// Strategy overrides the manifest's analysis strategy when non-empty.
	Strategy string
	// Cache is the result cache; nil disables caching for this run.
	Cache *Cache
	// Verify asserts the live-world invariant after the fixpoint.
	Verify bool

	Tracer     trace.Tracer
	ParentSpan uint64
	Timer      *observ.Timer
}

// AnalysisResult is one finished analysis.
type AnalysisResult struct {
	Report *report.Report
	Stats  enqueuer.Stats
	// FromCache marks a result served from the disk cache.
	FromCache bool

	// Universe and Enqueuer stay nil on a cache hit. Callers that need
	// retention chains rerun with the cache disabled.
	Universe *universe.Universe
	Enqueuer *enqueuer.Enqueuer
}

// Analyze runs the liveness fixpoint over a loaded program, or serves the
// summary from the cache when the program and strategy match a previous
// run. Cache failures are invisible: a broken read falls back to analysis
// and a failed write never fails the run.
func Analyze(ctx context.Context, prog *Program, opts AnalyzeOptions) (*AnalysisResult, error) {
	name := opts.Strategy
	if name == "" {
		name = prog.Manifest.Analysis.Strategy
	}
	strategy, err := strategyFor(name)
	if err != nil {
		return nil, err
	}
	key := analysisKey(prog, name)

	if opts.Cache != nil {
		endCache := beginPhase(opts.Timer, "cache")
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		endCache("")
		if err == nil && hit && payload.Report != nil {
			return &AnalysisResult{
				Report:    payload.Report,
				Stats:     payload.Stats,
				FromCache: true,
			}, nil
		}
	}

	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}

	u := universe.New(prog.Link.World, strategy)
	enq := enqueuer.New(u, enqueuer.Config{
		Impacts:    prog.Link,
		Tracer:     opts.Tracer,
		ParentSpan: opts.ParentSpan,
		Verify:     opts.Verify,
	})

	endFix := beginPhase(opts.Timer, "fixpoint")
	stats := enq.Run(ctx, prog.Link.Roots)
	endFix(fmt.Sprintf("%d work items", stats.WorkItems))

	endReport := beginPhase(opts.Timer, "report")
	rep := report.Build(u, report.Inputs{
		Program:  prog.Manifest.Name,
		Strategy: name,
		Modules:  prog.Link.Modules,
		Stats:    stats,
	})
	endReport("")

	if opts.Cache != nil {
		// Best effort: the result is already in hand.
		_ = opts.Cache.Put(key, &CachePayload{
			Schema:   cacheSchemaVersion,
			Strategy: name,
			Stats:    stats,
			Report:   rep,
		})
	}

	return &AnalysisResult{
		Report:   rep,
		Stats:    stats,
		Universe: u,
		Enqueuer: enq,
	}, nil
}

func strategyFor(name string) (universe.Strategy, error) {
	switch name {
	case "", "typed":
		return universe.TypedStrategy{}, nil
	case "any":
		return universe.AnyReceiverStrategy{}, nil
	default:
		return nil, fmt.Errorf("driver: unknown analysis strategy %q (want typed or any)", name)
	}
}

// analysisKey narrows the program key to one (program, strategy) pair so
// runs with different settings never collide in the cache.
func analysisKey(prog *Program, strategy string) worldfile.Digest {
	return worldfile.CombineDigests(prog.Key,
		worldfile.Digest(sha256.Sum256([]byte("program:"+prog.Manifest.Name))),
		worldfile.Digest(sha256.Sum256([]byte("strategy:"+strategy))))
}
