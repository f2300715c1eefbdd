// Package diag defines the diagnostic model shared by all analysis passes.
//
// Kernel logs are routinely incomplete: lines get dropped from the ring
// buffer, callbacks never print their return, traces overflow. None of that
// aborts an analysis. Every pass recovers locally and reports what it did
// through a Reporter; the driver collects the reports of one TestRun in a Bag
// and attaches them to the run.
//
// # Data model
//
//   - Severity – Info, Warning, Error.
//   - Code – numeric identifier grouped by pass (LEX, PHS, CGR, COR, IO).
//   - Message – short, human oriented text.
//   - Primary – the log line (source.Span) the problem was found on, or the
//     zero span for findings produced at finalization.
//   - Notes – optional secondary lines.
//
// Only the complete absence of initcall data is an error for the caller; the
// driver turns it into a Go error, everything else stays a diagnostic.
//
// Rendering lives in internal/diagfmt.
package diag
