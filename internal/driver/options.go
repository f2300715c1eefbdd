package driver

import (
	"errors"

	"go.uber.org/zap"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/observ"
	"pmgraph/internal/source"
)

var (
	// ErrNoStamp is returned when a suspend capture has no
	// "# suspend-..." header, so no run can be built.
	ErrNoStamp = errors.New("no test run stamp found in the kernel log")
	// ErrNoInput is returned when no kernel log was given.
	ErrNoInput = errors.New("a kernel log is required")
)

// Input names the captured files. Trace may be empty.
type Input struct {
	Kernel string
	Trace  string
}

// Options configure Analyze.
type Options struct {
	// Mode overrides the mode of the run stamps; empty keeps them.
	Mode model.Mode
	// Boot analyzes a boot log instead of suspend/resume runs.
	Boot bool
	// Jobs bounds the runs analyzed in parallel; <= 0 uses GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// MaxGraphLines bounds a single call graph; <= 0 uses the default.
	MaxGraphLines int
	Filter        []string
	Aliases       map[string]string
	// MergeEvents packs free trace events into the phase rows.
	MergeEvents bool
	// Verbose reports every log line that was not recognized.
	Verbose  bool
	Cache    *DiskCache
	Progress ProgressSink
	// Logger receives stage and cache messages; nil discards them.
	Logger *zap.Logger
}

// Result is the analyzed capture.
type Result struct {
	Files *source.FileSet
	Runs  []*model.TestRun
	// Bag holds the diagnostics of the files and of every run.
	Bag    *diag.Bag
	Timer  *observ.Timer
	Cached bool
}

// Summaries returns the figures of every run.
func (r *Result) Summaries() []model.Summary {
	out := make([]model.Summary, 0, len(r.Runs))
	for _, run := range r.Runs {
		out = append(out, model.Summarize(run))
	}
	return out
}
