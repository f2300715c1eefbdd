// Package trace records spans of the analysis pipeline so slow or stuck runs
// can be located after the fact.
//
// Spans are nested by parent ID and carry a scope: ScopeDriver for the whole
// invocation, ScopePass for the kernel and trace passes, ScopeRun for one
// test run and ScopeLine for per-line work. The level selects how deep the
// recording goes:
//
//	pmgraph analyze --dmesg d.txt --trace=- --trace-level=detail
//
// A stream tracer writes every event as text or NDJSON, a ring tracer keeps
// the most recent events in memory for a dump on failure.
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "kernel", parent)
//	defer span.End("")
package trace
