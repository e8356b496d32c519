// Package diag defines the alert model shared by all pipeline stages.
//
// # Purpose
//
//   - Provide immutable, value-comparable diagnostics that every stage can
//     originate without deciding how they are stored or shown.
//   - Offer the accumulation primitives (Builder, Set) used at stage
//     boundaries, and the Sink decorators used by drivers and tests.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – default tri-level severity (Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text.
//   - Pos – source.Pos of the offending node, or source.UnknownPos.
//   - Notes – optional secondary context (e.g. "did you mean ...").
//
// Identity is structural: two diagnostics with equal (Pos, Message, Severity)
// are the same alert. Builder, Set and Uniquifier all deduplicate on Key().
//
// # Stage boundaries
//
// A stage receives the carried-forward Set, reports into a Builder seeded with
// it and hands the drained Set (BuildAndClear) to the next stage. The drain is
// atomic: a concurrent Add lands either entirely before or entirely after it.
//
// # Severity policy
//
// Stages only originate default severities. A Policy (DefaultPolicy: per-code
// overrides plus warnings-as-errors) is applied by sinks and by the driver when
// it decides whether a unit failed.
//
// # Sinks
//
//   - Counter – tallies by effective severity.
//   - Uniquifier – drops repeats, per instance.
//   - Printer – renders with Render; Info is hidden unless Verbose.
//   - Erroring – panics with *FatalError on anything above Info (tests).
//   - Tee – fan-out.
//
// Rendering into pretty/json lives in internal/diagfmt.
package diag
