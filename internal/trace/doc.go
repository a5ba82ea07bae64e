// Package trace provides a tracing subsystem for the lumen analyzer.
//
// The trace package enables tracking of analysis phases, snapshot processing,
// and individual work items to help diagnose performance issues and hangs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	lumen analyze --trace=- --trace-level=phase world.toml
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Driver and phase boundaries
//   - LevelDetail: Snapshot-level events
//   - LevelDebug: Everything including per-work events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopePhase: Analysis phases (load, link, analyze, order)
//   - ScopeModule: Per-snapshot processing
//   - ScopeWork: Individual enqueuer work items
//
// # Context Propagation
//
// Tracers are propagated through the analysis pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePhase, "analyze", parentID)
//	defer span.End("")
package trace
