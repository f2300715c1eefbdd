package timeline

import (
	"regexp"
	"strings"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
	"pmgraph/internal/token"
)

// Trace markers written to trace_marker around the suspend/resume window.
const (
	MarkerSuspendStart   = "SUSPEND START"
	MarkerResumeComplete = "RESUME COMPLETE"
	suspendResumeClass   = "suspend_resume"
)

var eventNameRe = regexp.MustCompile(`^(?P<name>.*)\[(?P<val>[0-9]*)\] .*`)

// EventPass consumes the trace log of one run. It gates the trace by the
// suspend/resume markers, moves phase bounds on the dpm_* events and pairs
// the remaining begin/end events by name and pid.
type EventPass struct {
	run  *model.TestRun
	boot bool
	rep  diag.Reporter

	inPipe   bool
	finished bool
	moved    bool
	open     map[eventKey][]*model.TraceEvent
	events   []*model.TraceEvent
	spans    map[*model.TraceEvent]source.Span
}

type eventKey struct {
	name string
	pid  int
}

func NewEventPass(run *model.TestRun, prof Profile, rep diag.Reporter) *EventPass {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &EventPass{
		run:   run,
		boot:  prof.Boot,
		rep:   rep,
		open:  make(map[eventKey][]*model.TraceEvent),
		spans: make(map[*model.TraceEvent]source.Span),
	}
}

// Finished reports whether the RESUME COMPLETE marker was seen.
func (p *EventPass) Finished() bool { return p.finished }

// Accept reports whether a call-graph line belongs to the analyzed window.
func (p *EventPass) Accept(tok token.Token) bool {
	if p.boot {
		return tok.Time <= p.run.End
	}
	return p.inPipe
}

// Event handles one trace event token.
func (p *EventPass) Event(tok token.Token) {
	if p.boot {
		// boot call graphs carry no suspend_resume events
		return
	}
	if !p.inPipe {
		if tok.Name == MarkerSuspendStart {
			p.inPipe = true
			p.run.SetStart(tok.Time)
		}
		return
	}
	if tok.Name == MarkerResumeComplete {
		p.inPipe = false
		p.finished = true
		p.run.SetEnd(tok.Time)
		return
	}
	var begin bool
	switch {
	case strings.HasSuffix(tok.Name, " begin"):
		begin = true
	case strings.HasSuffix(tok.Name, " end"):
	default:
		return
	}
	base, name := eventName(tok.Name)
	if p.phaseEvent(base, begin, tok.Time) {
		return
	}
	key := eventKey{name: name, pid: tok.PID}
	if begin {
		e := model.NewTraceEvent(p.action(tok), name, tok.PID, tok.Time)
		p.open[key] = append(p.open[key], e)
		p.events = append(p.events, e)
		p.spans[e] = tok.Span
		return
	}
	stack := p.open[key]
	if len(stack) == 0 {
		diag.Infof(p.rep, diag.CorrEventUnpaired, tok.Span, "%s (pid %d): end without begin", name, tok.PID)
		return
	}
	e := stack[len(stack)-1]
	p.open[key] = stack[:len(stack)-1]
	e.End = tok.Time
	e.Ready = true
}

func (p *EventPass) action(tok token.Token) string {
	if tok.Call == suspendResumeClass {
		return ""
	}
	return tok.Call
}

// eventName splits "name[val] begin" into its base name and the event
// name, which keeps the index unless it is zero.
func eventName(text string) (base, name string) {
	if m := eventNameRe.FindStringSubmatch(text); m != nil {
		base = group(eventNameRe, m, "name")
		if val := group(eventNameRe, m, "val"); val != "0" {
			return base, base + "[" + val + "]"
		}
		return base, base
	}
	base = text[:strings.LastIndexByte(text, ' ')]
	return base, base
}

// phaseEvent applies the dpm_* and suspend_enter events to the phase
// bounds. It reports whether the event was consumed.
func (p *EventPass) phaseEvent(base string, begin bool, t float64) bool {
	set := func(phase string, start bool) {
		if ph := p.run.Phase(phase); ph != nil {
			if start {
				ph.Start = t
			} else {
				ph.End = t
			}
		}
	}
	switch base {
	case "dpm_prepare", "machine_suspend":
	case "suspend_enter":
		if begin {
			p.run.InsertPhase("suspend_prepare", t, t, "#CCFFCC", 0)
		} else {
			set("suspend_prepare", false)
		}
	case "dpm_suspend":
		if !begin {
			set("suspend", false)
		}
	case "dpm_suspend_late":
		set("suspend_late", begin)
	case "dpm_suspend_noirq":
		set("suspend_noirq", begin)
	case "dpm_resume_noirq":
		if begin {
			set("resume_machine", false)
		}
		set("resume_noirq", begin)
	case "dpm_resume_early":
		set("resume_early", begin)
	case "dpm_resume":
		set("resume", begin)
	case "dpm_complete":
		set("resume_complete", begin)
	default:
		return false
	}
	p.moved = true
	return true
}

// reconcilePhases makes the phases contiguous again after single bounds
// were moved. A gap is closed by extending the earlier phase, an overlap by
// starting the later phase where the earlier one ends. The suspended gap in
// front of resume_machine stays open.
func reconcilePhases(r *model.TestRun) {
	for i := 0; i+1 < len(r.Phases); i++ {
		cur, next := r.Phases[i], r.Phases[i+1]
		if !model.IsSet(cur.Start) || !model.IsSet(next.Start) {
			continue
		}
		cur.End = max(cur.End, cur.Start)
		switch {
		case next.Name == "resume_machine" && cur.End == r.TSuspended && next.Start == r.TResumed:
		case cur.End < next.Start:
			cur.End = next.Start
		case cur.End > next.Start:
			next.Start = cur.End
		}
		if model.IsSet(next.End) && next.End < next.Start {
			next.End = next.Start
		}
	}
}

// Events closes the pass and returns the collected events in begin order.
// Events whose end never arrived keep a zero length. Phase bounds moved by
// dpm_* events are made contiguous again.
func (p *EventPass) Events() []*model.TraceEvent {
	if p.moved {
		reconcilePhases(p.run)
	}
	for _, e := range p.events {
		if !e.Ready {
			diag.Infof(p.rep, diag.CorrEventUnpaired, p.spans[e], "%s (pid %d): begin without end", e.Name, e.PID)
		}
	}
	return p.events
}

// HasTraceEvents reports whether a trace log carries suspend_resume events.
func HasTraceEvents(toks []token.Token) bool {
	for _, t := range toks {
		if t.IsEvent() && t.Call == suspendResumeClass {
			return true
		}
	}
	return false
}
