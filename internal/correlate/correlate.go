package correlate

import (
	"pmgraph/internal/callgraph"
	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
)

// Options control how graphs are matched to callbacks.
type Options struct {
	// Boot matches graphs by time alone; initcalls run on many pids.
	Boot     bool
	Reporter diag.Reporter
}

// Stats counts the outcome of one correlation pass.
type Stats struct {
	Attached  int
	Rejected  int
	Unmatched int
	Events    int
	Free      int
}

// Graphs checks every graph and attaches the sane ones to the first
// enclosing callback. Only the first phase whose window holds the graph
// start is searched.
func Graphs(run *model.TestRun, graphs []*model.CallGraph, opts Options) Stats {
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	var st Stats
	for _, cg := range graphs {
		if !callgraph.Check(cg, rep) {
			st.Rejected++
			continue
		}
		if d := match(run, cg, opts.Boot); d != nil {
			d.Graph = cg
			st.Attached++
			continue
		}
		st.Unmatched++
		diag.Infof(rep, diag.CorrNoDevice, source.NoSpan,
			"no device callback for %s graph of %s-%d (%f - %f)", cg.Root(), cg.Proc, cg.PID, cg.Start, cg.End)
	}
	return st
}

func match(run *model.TestRun, cg *model.CallGraph, boot bool) *model.DeviceCallback {
	for _, p := range run.Phases {
		if !p.Contains(cg.Start) {
			continue
		}
		var found *model.DeviceCallback
		p.Devices.Each(func(d *model.DeviceCallback) bool {
			if !boot && d.PID != cg.PID {
				return true
			}
			if d.Start <= cg.Start && cg.End <= d.End {
				found = d
				return false
			}
			return true
		})
		return found
	}
	return nil
}

// Events attaches each event to the callback of the same pid whose window
// holds the event midpoint. The rest become free events of the run, which
// grows to cover them.
func Events(run *model.TestRun, events []*model.TraceEvent, rep diag.Reporter) Stats {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	var st Stats
	for _, e := range events {
		if d := run.DeviceAt(e.PID, e.Midpoint()); d != nil {
			d.Events = append(d.Events, e)
			st.Events++
			continue
		}
		free(run, e, rep)
		st.Free++
	}
	return st
}

func free(run *model.TestRun, e *model.TraceEvent, rep diag.Reporter) {
	if !model.IsSet(run.Start) || e.Begin < run.Start {
		run.SetStart(e.Begin)
		diag.Infof(rep, diag.PhaseTimelineExpanded, source.NoSpan, "timeline start moved to %f for %s", e.Begin, e.Name)
	}
	if e.End > run.End {
		run.SetEnd(e.End)
		diag.Infof(rep, diag.PhaseTimelineExpanded, source.NoSpan, "timeline end moved to %f for %s", e.End, e.Name)
	}
	for _, p := range run.Phases {
		if e.Begin <= p.End && e.End >= p.Start {
			e.Phase = p.Name
			break
		}
	}
	diag.Infof(rep, diag.CorrEventOutsideCall, source.NoSpan, "%s (pid %d) is outside any device callback", e.Name, e.PID)
	run.FreeEvents = append(run.FreeEvents, e)
}
