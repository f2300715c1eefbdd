package driver

import "time"

// Stage is one step of the analysis pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageLex       Stage = "lex"
	StageKernel    Stage = "kernel"
	StageTrace     Stage = "trace"
	StageCorrelate Stage = "correlate"
	StageNormalize Stage = "normalize"
	StageLayout    Stage = "layout"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusError   Status = "error"
)

// Event reports progress for one run, or for the whole pipeline when Run
// is negative.
type Event struct {
	Run     int
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Runs are analyzed concurrently,
// so OnEvent must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(s ProgressSink, evt Event) {
	if s != nil {
		s.OnEvent(evt)
	}
}
