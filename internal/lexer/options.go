package lexer

import (
	"pmgraph/internal/diag"
)

type Options struct {
	// Format is the initial grammar. A "# tracer:" header switches it.
	Format Format
	// Reporter receives line-level diagnostics; may be nil.
	Reporter diag.Reporter
	// ReportUnmatched emits an info diagnostic for every skipped line.
	// Kernel logs are full of unrelated lines, so this is only useful in
	// verbose mode.
	ReportUnmatched bool
}

func (lx *Lexer) reportf(code diag.Code, sev diag.Severity, msg string) {
	if lx.opts.Reporter != nil {
		diag.NewReportBuilder(lx.opts.Reporter, sev, code, lx.cursor.Span(), msg).Emit()
	}
}
