package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/token"
)

// Options configure a Builder.
type Options struct {
	Reporter diag.Reporter
	// TraceEvents is set when the trace log carries suspend_resume events;
	// the kernel pass then skips the pseudo-device heuristics.
	TraceEvents bool
	// Filter keeps only the named devices and their family.
	Filter []string
	// Aliases maps a device base name to a display name.
	Aliases map[string]string
}

// Builder assembles the phases and device callbacks of one run from its
// kernel log tokens. It holds the current phase itself, so runs never share
// parser state.
type Builder struct {
	run  *model.TestRun
	prof Profile
	opts Options

	active   *model.Phase
	started  bool
	done     bool
	prevTime float64
	cpuStart float64
	actions  []actionWindow

	// boot state
	pending map[string]pendingCall
	valid   bool
	calls   int
}

type actionWindow struct {
	actionDef
	s, e float64
}

type pendingCall struct {
	start float64
	pid   int
}

func NewBuilder(run *model.TestRun, prof Profile, opts Options) *Builder {
	b := &Builder{
		run:      run,
		prof:     prof,
		opts:     opts,
		prevTime: model.Unset,
		cpuStart: model.Unset,
	}
	if opts.Reporter == nil {
		b.opts.Reporter = diag.NopReporter{}
	}
	for _, a := range actions() {
		b.actions = append(b.actions, actionWindow{actionDef: a, s: model.Unset, e: model.Unset})
	}
	if prof.Boot {
		b.pending = make(map[string]pendingCall)
		b.active = run.Phase(bootPhase)
		b.active.Start = 0
		run.Start = 0
	}
	return b
}

// Run returns the run being built.
func (b *Builder) Run() *model.TestRun { return b.run }

// Done reports whether the end of the analyzed window was reached.
func (b *Builder) Done() bool { return b.done }

// Active is the name of the current phase, "" before the first boundary.
func (b *Builder) Active() string {
	if b.active == nil {
		return ""
	}
	return b.active.Name
}

// Add feeds one token. Only kernel tokens are used.
func (b *Builder) Add(tok token.Token) {
	if b.done || tok.Kind != token.Kernel {
		return
	}
	if b.prof.Boot {
		b.addBoot(tok)
		return
	}
	b.addSuspend(tok)
}

func (b *Builder) addSuspend(tok token.Token) {
	kt, msg := tok.Time, tok.Msg
	if !b.started {
		b.run.SetStart(kt)
		b.started = true
	}

	// freeze has no low-level resume marker: the first callback after the
	// wakeup starts resume_noirq
	if !b.opts.TraceEvents && b.prof.Mode == model.ModeFreeze &&
		b.Active() == "resume_machine" && callingRe.MatchString(msg) {
		b.switchTo("resume_noirq", kt)
	}

	if b.boundary(tok) {
		return
	}

	if b.active != nil {
		b.callback(tok)
		if !b.opts.TraceEvents {
			b.pseudoDevices(kt, msg)
		}
	}
	b.prevTime = kt
}

// boundary applies phase changes. It reports true when the pass is over.
func (b *Builder) boundary(tok token.Token) bool {
	kt, msg := tok.Time, tok.Msg
	for _, ph := range b.prof.Phases {
		if !ph.Boundary.MatchString(msg) {
			continue
		}
		switch ph.Name {
		case "suspend":
			b.active = b.run.Phase(ph.Name)
			b.active.Start = kt
			b.run.Start = kt
		case "resume_machine":
			suspended := kt
			if b.prof.SuspendedAtPrevLine && model.IsSet(b.prevTime) {
				suspended = b.prevTime
			}
			if b.active != nil {
				b.active.End = suspended
			}
			b.active = b.run.Phase(ph.Name)
			b.active.Start = kt
			b.run.TSuspended = suspended
			b.run.TResumed = kt
			b.run.TLow = kt - suspended
		default:
			b.switchTo(ph.Name, kt)
		}
		return false
	}
	if b.prof.PostResume != nil && b.prof.PostResume.MatchString(msg) {
		if b.active != nil {
			b.active.End = kt
		}
		b.run.End = kt
		b.done = true
		return true
	}
	return false
}

func (b *Builder) switchTo(name string, t float64) {
	if b.active != nil {
		b.active.End = t
	}
	b.active = b.run.Phase(name)
	b.active.Start = t
}

func (b *Builder) callback(tok token.Token) {
	kt, msg := tok.Time, tok.Msg
	if m := callingRe.FindStringSubmatch(msg); m != nil {
		f, n, p := group(callingRe, m, "f"), group(callingRe, m, "n"), group(callingRe, m, "p")
		pid, err := strconv.Atoi(strings.TrimSpace(n))
		if f == "" || p == "" || err != nil {
			return
		}
		b.run.NewAction(b.active, f, pid, p, kt, model.Unset)
		b.calls++
		return
	}
	if m := returnedRe.FindStringSubmatch(msg); m != nil {
		f := group(returnedRe, m, "f")
		d := b.active.Devices.FirstUnreturned(f)
		if d == nil {
			diag.Infof(b.opts.Reporter, diag.CallbackUnknownReturn, tok.Span,
				"%s (%s): return without a matching call", f, b.active.Name)
			return
		}
		d.End = kt
		if us, err := strconv.ParseInt(strings.TrimSpace(group(returnedRe, m, "t")), 10, 64); err == nil {
			d.ReportedUsecs = us
		}
	}
}

// pseudoDevices records the single-shot windows that stand in for trace
// events when the trace log has none.
func (b *Builder) pseudoDevices(kt float64, msg string) {
	kept := b.actions[:0]
	for _, a := range b.actions {
		if a.start.MatchString(msg) {
			a.s = kt
		}
		if a.end.MatchString(msg) {
			a.e = kt
		}
		if model.IsSet(a.s) && model.IsSet(a.e) && a.e >= a.s {
			b.synthetic(a.name, a.s, a.e)
			continue
		}
		kept = append(kept, a)
	}
	b.actions = kept
	switch {
	case cpuDisableRe.MatchString(msg), cpuEnableRe.MatchString(msg):
		b.cpuStart = kt
	default:
		for _, cre := range []*regexp.Regexp{cpuOfflineRe, cpuUpRe} {
			if m := cre.FindStringSubmatch(msg); m != nil {
				if model.IsSet(b.cpuStart) {
					b.synthetic("CPU"+group(cre, m, "cpu"), b.cpuStart, kt)
				}
				b.cpuStart = kt
				break
			}
		}
	}
}

func (b *Builder) synthetic(name string, start, end float64) {
	d := b.run.NewAction(b.active, name, 0, "", start, end)
	d.Synthetic = true
}

func (b *Builder) addBoot(tok token.Token) {
	kt, msg := tok.Time, tok.Msg
	if kt > BootTimeLimit {
		b.done = true
		return
	}
	b.run.End = kt
	if kt == 0 && bootVersionRe.MatchString(msg) {
		if b.run.Stamp.Kernel == "" {
			if f := strings.Fields(msg); len(f) > 2 {
				b.run.Stamp.Kernel = f[2]
			}
		}
		return
	}
	if m := bootClockRe.FindStringSubmatch(msg); m != nil {
		if bt, err := time.Parse("2006-01-02 15:04:05", group(bootClockRe, m, "t")); err == nil {
			b.run.Stamp.Time = bt.Add(-time.Duration(kt) * time.Second)
		}
		return
	}
	if m := bootCallingRe.FindStringSubmatch(msg); m != nil {
		pc := pendingCall{start: kt}
		if pm := bootPidRe.FindStringSubmatch(msg); pm != nil {
			pc.pid, _ = strconv.Atoi(group(bootPidRe, pm, "n"))
		}
		b.pending[group(bootCallingRe, m, "f")] = pc
		b.calls++
		return
	}
	if m := bootInitcallRe.FindStringSubmatch(msg); m != nil {
		b.valid = true
		f := group(bootInitcallRe, m, "f")
		pc, ok := b.pending[f]
		if !ok {
			diag.Infof(b.opts.Reporter, diag.CallbackUnknownReturn, tok.Span, "%s: initcall without a matching call", f)
			return
		}
		d := b.run.NewAction(b.active, f, pc.pid, "", pc.start, kt)
		if um := bootUsecsRe.FindStringSubmatch(msg); um != nil {
			d.ReportedUsecs, _ = strconv.ParseInt(group(bootUsecsRe, um, "t"), 10, 64)
		}
		delete(b.pending, f)
		return
	}
	if bootStopRe.MatchString(msg) {
		b.done = true
	}
}
