package token

import (
	"time"

	"pmgraph/internal/source"
)

// StampInfo is the content of a run stamp header.
type StampInfo struct {
	Time   time.Time
	Host   string
	Mode   string
	Kernel string
}

// Token is one recognized log line.
type Token struct {
	Kind Kind
	Span source.Span

	// Time is the kernel or trace timestamp in seconds.
	Time float64
	// Msg is the message body: the dmesg text, the function-graph text
	// without indentation, or the nop event message.
	Msg string

	// ftrace fields
	CPU    int
	Proc   string
	PID    int
	Dur    float64 // seconds; zero when the line carries none
	Indent string
	Depth  int // len(Indent)/2
	Graph  GraphKind
	Name   string // function name or event text
	Call   string // nop tracer event class ("suspend_resume")
	Flags  string // nop tracer irq/preempt flags

	// header fields
	Stamp     StampInfo
	FwSuspend int64 // ns
	FwResume  int64 // ns
	TracerID  string
}

// IsTrace reports whether the token came from an ftrace body line.
func (t Token) IsTrace() bool {
	return t.Kind == FuncGraph || t.Kind == Nop
}

// IsEvent reports whether the token is a discrete trace event.
func (t Token) IsEvent() bool {
	return t.IsTrace() && t.Graph == GraphEvent
}
