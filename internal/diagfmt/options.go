// Package diagfmt renders analysis diagnostics for terminals and tools.
package diagfmt

import "pmgraph/internal/diag"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	// Width truncates the quoted log line, 0 means unlimited.
	Width     int
	ShowNotes bool
	// MinSeverity hides everything below it.
	MinSeverity diag.Severity
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Max          int // 0 keeps all
	IncludeNotes bool
	IncludeLine  bool // quote the log line
}
