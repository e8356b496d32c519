// Package trace records what the compiler is doing, for diagnosing slow or
// stuck runs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	gxpc check --trace=- --trace-level=phase templates/
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped when a unit hits an internal error
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: nothing is written; a ring keeps unit context for dumps
//   - LevelPhase: driver and stage boundaries
//   - LevelDetail: per-unit events
//   - LevelDebug: everything, including node-level points
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx = trace.WithUnit(ctx, "com.example.Page")
//	span, ctx := trace.Start(ctx, trace.ScopeUnit, "page.gxp.json")
//	defer span.End("")
//
// Every event started below WithUnit carries the unit name, so a crash dump
// can be cut down to one unit with RingTracer.DumpUnit.
package trace
