// Package worldfile reads and writes .lmw world snapshots, the binary
// hand-off between the frontend and this analyzer, and links a set of
// decoded snapshots into an elements.World plus the impact table the
// enqueuer consumes.
//
// A snapshot is self-describing: one module's classes, members, impacts,
// constant pool and analysis roots, referring to other modules only through
// its declared imports. The wire form is a four-byte magic followed by a
// msgpack document; Encode and Decode handle the framing, Link performs the
// cross-snapshot resolution and reports every problem as a diagnostic
// rather than an error.
//
// Snapshots can also be authored by hand as TOML for tests and tooling; see
// DecodeTOMLDesc.
package worldfile
