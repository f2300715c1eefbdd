package timeline_test

import (
	"testing"

	"pmgraph/internal/diag"
	"pmgraph/internal/lexer"
	"pmgraph/internal/model"
	"pmgraph/internal/testkit"
	"pmgraph/internal/timeline"
	"pmgraph/internal/token"
)

func nop(t *testing.T, line string) token.Token {
	t.Helper()
	tok, ok := lexer.Tokenize(line, lexer.FormatNop)
	if !ok {
		t.Fatalf("nop line does not tokenize: %q", line)
	}
	return tok
}

func TestEventPassGatesAndPairs(t *testing.T) {
	prof := timeline.ProfileFor(model.ModeMem)
	run := prof.NewRun(0, model.Stamp{Mode: model.ModeMem})
	bag := diag.NewBag(0)
	ev := timeline.NewEventPass(run, prof, diag.BagReporter{Bag: bag})

	lines := []string{
		"  bash-1  [000] ....  0.500000: suspend_resume: ignored_before_start[1] begin",
		"  bash-1  [000] ....  1.000000: tracing_mark_write: SUSPEND START",
		"  bash-1  [000] ....  1.100000: suspend_resume: suspend_enter[3] begin",
		"  bash-1  [000] ....  1.200000: suspend_resume: dpm_suspend_late[2] begin",
		"  kwork-7 [001] ....  1.250000: mutex_lock_try: lockA begin",
		"  kwork-7 [001] ....  1.260000: mutex_lock_try: lockA end",
		"  bash-1  [000] ....  1.300000: suspend_resume: sync_filesystems[0] begin",
		"  bash-1  [000] ....  1.400000: suspend_resume: sync_filesystems[0] end",
		"  bash-1  [000] ....  1.450000: suspend_resume: lonely[1] begin",
		"  bash-1  [000] ....  1.500000: suspend_resume: dpm_suspend_late[2] end",
		"  bash-1  [000] ....  1.600000: suspend_resume: suspend_enter[3] end",
		"  bash-1  [000] ....  1.700000: suspend_resume: dpm_resume_noirq[16] begin",
		"  bash-1  [000] ....  2.000000: tracing_mark_write: RESUME COMPLETE",
	}
	if ev.Accept(nop(t, lines[0])) {
		t.Fatal("lines before SUSPEND START must be rejected")
	}
	for _, l := range lines {
		ev.Event(nop(t, l))
	}
	if !ev.Finished() {
		t.Fatal("RESUME COMPLETE not seen")
	}
	if run.Start != 1.0 || run.End != 2.0 {
		t.Fatalf("run window %f-%f", run.Start, run.End)
	}

	prep := run.Phases[0]
	if prep.Name != "suspend_prepare" || prep.Start != 1.1 || prep.End != 1.6 || prep.Color != "#CCFFCC" {
		t.Fatalf("suspend_prepare phase %+v", prep)
	}
	late := run.Phase("suspend_late")
	if late.Start != 1.2 || late.End != 1.5 {
		t.Fatalf("suspend_late %f-%f", late.Start, late.End)
	}
	if run.Phase("resume_machine").End != 1.7 || run.Phase("resume_noirq").Start != 1.7 {
		t.Fatal("dpm_resume_noirq begin should close resume_machine")
	}

	events := ev.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	lock := events[0]
	if lock.Name != "lockA" || lock.Action != "mutex_lock_try" || lock.Color != "red" || !lock.Ready {
		t.Fatalf("lock event %+v", lock)
	}
	sync := events[1]
	if sync.Name != "sync_filesystems" || sync.Begin != 1.3 || sync.End != 1.4 || sync.PID != 1 {
		t.Fatalf("sync event %+v", sync)
	}
	if events[2].Name != "lonely[1]" || events[2].Ready {
		t.Fatalf("lonely event %+v", events[2])
	}
	if bag.Count(diag.CorrEventUnpaired) != 1 {
		t.Fatalf("unpaired reported %d times", bag.Count(diag.CorrEventUnpaired))
	}
}

// kernelPhases sets the bounds the kernel pass would leave: contiguous
// phases a tenth of a second long starting at 1.0, with the machine
// suspended for gap seconds before resume_machine.
func kernelPhases(run *model.TestRun, gap float64) {
	t := 1.0
	for _, p := range run.Phases {
		if p.Name == "resume_machine" {
			run.TSuspended = t
			t += gap
			run.TResumed = t
		}
		p.Start, p.End = t, t+0.1
		t += 0.1
	}
	run.Start, run.End = 1.0, t
}

func TestEventPassKeepsPhasesContiguous(t *testing.T) {
	tests := []struct {
		name string
		mode model.Mode
		gap  float64
	}{
		{"mem", model.ModeMem, 0},
		{"freeze keeps suspended gap", model.ModeFreeze, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prof := timeline.ProfileFor(tt.mode)
			run := prof.NewRun(0, model.Stamp{Mode: tt.mode})
			kernelPhases(run, tt.gap)
			ev := timeline.NewEventPass(run, prof, nil)
			for _, l := range []string{
				"  bash-1  [000] ....  0.990000: tracing_mark_write: SUSPEND START",
				"  bash-1  [000] ....  1.050000: suspend_resume: dpm_suspend[2] end",
				"  bash-1  [000] ....  1.150000: suspend_resume: dpm_suspend_late[2] begin",
				"  bash-1  [000] ....  1.210000: suspend_resume: dpm_suspend_late[2] end",
				"  bash-1  [000] ....  2.000000: tracing_mark_write: RESUME COMPLETE",
			} {
				ev.Event(nop(t, l))
			}
			ev.Events()
			if err := testkit.CheckContiguous(run); err != nil {
				t.Fatal(err)
			}
			if err := testkit.CheckRun(run); err != nil {
				t.Fatal(err)
			}
			if s := run.Phase("suspend"); s.End != 1.15 {
				t.Fatalf("suspend ends at %f, want the dpm_suspend_late begin", s.End)
			}
			if n := run.Phase("suspend_noirq"); n.Start != 1.21 {
				t.Fatalf("suspend_noirq starts at %f, want the dpm_suspend_late end", n.Start)
			}
			sm, rm := run.Phase("suspend_machine"), run.Phase("resume_machine")
			if rm.Start-sm.End != run.TResumed-run.TSuspended {
				t.Fatalf("suspended gap changed: %f-%f", sm.End, rm.Start)
			}
		})
	}
}

func TestHasTraceEvents(t *testing.T) {
	with := []token.Token{nop(t, "  bash-1  [000] ....  1.0: suspend_resume: dpm_suspend[2] begin")}
	without := []token.Token{nop(t, "  bash-1  [000] ....  1.0: tracing_mark_write: SUSPEND START")}
	if !timeline.HasTraceEvents(with) || timeline.HasTraceEvents(without) {
		t.Fatal("HasTraceEvents")
	}
}
