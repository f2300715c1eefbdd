package diag

import (
	"pmgraph/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one recovered problem found while analyzing a run.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
