// Package diag defines the diagnostic model shared by the loading layers.
//
// # Purpose
//
//   - Provide deterministic data structures that capture problems found while
//     decoding snapshots, linking modules and assembling programs.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag performs no IO and no CLI integration. Rendering beyond the
// single-line FormatDiagnostics helper lives with the report package and the
// CLI. Diagnostics cover recoverable input problems only; internal invariant
// violations go through internal/fault and are never represented here.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with stable string form.
//   - Message: human oriented text; keep it short and actionable.
//   - Primary locus: the file and dotted entity path pointing at the issue.
//   - Notes: optional secondary loci/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. "module
// declared here") rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Loaders should use a diag.Reporter to decouple emission from storage. The
// snapshot loader, for example, constructs a ReportBuilder via the helper
// functions ReportError/ReportWarning/ReportInfo and chains WithNote before
// calling Emit.
//
// When no additional metadata is needed, loaders may call Reporter.Report(...)
// directly. diag.BagReporter aggregates diagnostics into a Bag, which supports
// sorting, deduplication and merging; DedupReporter suppresses repeats when
// several snapshots report the same problem.
package diag
