package timeline_test

import (
	"errors"
	"strings"
	"testing"

	"pmgraph/internal/diag"
	"pmgraph/internal/lexer"
	"pmgraph/internal/model"
	"pmgraph/internal/timeline"
	"pmgraph/internal/token"
)

func kernelTokens(t *testing.T, log string) []token.Token {
	t.Helper()
	var toks []token.Token
	for _, line := range strings.Split(strings.TrimSpace(log), "\n") {
		tok, ok := lexer.Tokenize(strings.TrimSpace(line), lexer.FormatKernel)
		if !ok {
			t.Fatalf("line does not tokenize: %q", line)
		}
		toks = append(toks, tok)
	}
	return toks
}

type analyzed struct {
	run *model.TestRun
	bag *diag.Bag
	err error
}

func build(t *testing.T, mode model.Mode, log string, opts timeline.Options) analyzed {
	t.Helper()
	bag := diag.NewBag(0)
	opts.Reporter = diag.BagReporter{Bag: bag}
	prof := timeline.ProfileFor(mode)
	run := prof.NewRun(0, model.Stamp{Mode: mode})
	b := timeline.NewBuilder(run, prof, opts)
	for _, tok := range kernelTokens(t, log) {
		b.Add(tok)
	}
	err := b.Finalize()
	return analyzed{run: run, bag: bag, err: err}
}

const memLog = `
[    0.900000] PM: Syncing filesystems ... done.
[    0.950000] calling  bar+ @ 4, parent: pci0
[    0.960000] call bar+ returned 0 after 10000 usecs
[    1.000000] calling  foo+ @ 5, parent: bar
[    1.002000] call foo+ returned 0 after 2000 usecs
[    1.100000] PM: suspend of devices complete after 200.000 msecs
[    1.200000] PM: late suspend of devices complete after 1.000 msecs
[    1.300000] PM: noirq suspend of devices complete after 1.000 msecs
[    1.400000] ACPI: Low-level resume complete
[    1.500000] ACPI: Waking up from system sleep state S3
[    1.600000] PM: noirq resume of devices complete after 1.000 msecs
[    1.700000] PM: early resume of devices complete after 1.000 msecs
[    1.710000] calling  usb1+ @ 6, parent: pci0
[    1.800000] PM: resume of devices complete after 1.000 msecs
[    1.900000] Restarting tasks ... done.
[    2.000000] after the end
`

func TestRoundTripCallback(t *testing.T) {
	a := build(t, model.ModeMem, memLog, timeline.Options{TraceEvents: true})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	p := a.run.Phase("suspend")
	foo, ok := p.Devices.Get("foo")
	if !ok {
		t.Fatal("foo missing")
	}
	if foo.PID != 5 || foo.Parent != "bar" || foo.Start != 1.000 || foo.End != 1.002 || foo.ReportedUsecs != 2000 {
		t.Fatalf("unexpected callback %+v", foo)
	}
	if d := foo.Length(); d < 0.00199999 || d > 0.00200001 {
		t.Fatalf("length = %f", d)
	}
}

func TestPhasesAreContiguous(t *testing.T) {
	a := build(t, model.ModeMem, memLog, timeline.Options{TraceEvents: true})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	phases := a.run.Phases
	if len(phases) != 9 {
		t.Fatalf("got %d phases", len(phases))
	}
	for i := 1; i < len(phases); i++ {
		if phases[i].Start != phases[i-1].End {
			t.Fatalf("%s ends at %f but %s starts at %f", phases[i-1].Name, phases[i-1].End, phases[i].Name, phases[i].Start)
		}
		if phases[i].Order != i {
			t.Fatalf("%s has order %d", phases[i].Name, phases[i].Order)
		}
	}
	if a.run.Start != 0.9 || a.run.End != 1.9 {
		t.Fatalf("run window %f-%f", a.run.Start, a.run.End)
	}
	if a.run.TSuspended != 1.4 || a.run.TResumed != 1.4 || a.run.TLow != 0 {
		t.Fatalf("suspend point %f/%f/%f", a.run.TSuspended, a.run.TResumed, a.run.TLow)
	}
}

func TestUnreturnedCallbackIsClipped(t *testing.T) {
	a := build(t, model.ModeMem, memLog, timeline.Options{TraceEvents: true})
	usb, ok := a.run.Phase("resume").Devices.Get("usb1")
	if !ok {
		t.Fatal("usb1 missing")
	}
	if usb.End != a.run.Phase("resume").End || usb.ReportedUsecs != -1 {
		t.Fatalf("usb1 not clipped: %+v", usb)
	}
	if a.bag.Count(diag.CallbackNoReturn) != 1 {
		t.Fatalf("expected one unreturned warning, got %d", a.bag.Count(diag.CallbackNoReturn))
	}
}

func TestMissingPhaseIsBackFilled(t *testing.T) {
	log := `
[1.0] PM: Syncing filesystems ... done.
[1.1] calling  a+ @ 1, parent: p
[1.2] call a+ returned 0 after 10 usecs
[2.0] PM: late suspend of devices complete after 1.0 msecs
[3.0] Restarting tasks ... done.
`
	a := build(t, model.ModeMem, log, timeline.Options{TraceEvents: true})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	late := a.run.Phase("suspend_late")
	if late.Start != 2.0 || late.End != 2.0 {
		t.Fatalf("suspend_late = %f-%f, want degenerate at 2.0", late.Start, late.End)
	}
	if a.bag.Count(diag.PhaseMissing) != 7 {
		t.Fatalf("missing warnings = %d, want 7", a.bag.Count(diag.PhaseMissing))
	}
	rm := a.run.Phase("resume_machine")
	if a.run.TSuspended != rm.Start || a.run.TResumed != rm.Start || a.run.TLow != 0 {
		t.Fatal("suspend point should collapse when resume_machine is missing")
	}
	for i := 1; i < len(a.run.Phases); i++ {
		if a.run.Phases[i].Start < a.run.Phases[i-1].End {
			t.Fatal("phases overlap after back-fill")
		}
	}
}

func TestNoInitcallData(t *testing.T) {
	a := build(t, model.ModeMem, "[1.0] PM: Syncing filesystems ... done.\n[2.0] Restarting tasks ... done.", timeline.Options{})
	if !errors.Is(a.err, timeline.ErrNoInitcallData) {
		t.Fatalf("err = %v, want ErrNoInitcallData", a.err)
	}
	if !a.bag.HasErrors() {
		t.Fatal("expected an error diagnostic")
	}
}

func TestReturnMatchesEarliestUnreturned(t *testing.T) {
	log := `
[1.0] PM: Syncing filesystems ... done.
[1.1] calling  i2c+ @ 1, parent: p
[1.2] calling  i2c+ @ 2, parent: p
[1.3] call i2c+ returned 0 after 200 usecs
[1.4] call i2c+ returned 0 after 200 usecs
[1.5] call ghost+ returned 0 after 1 usecs
[2.0] Restarting tasks ... done.
`
	a := build(t, model.ModeMem, log, timeline.Options{TraceEvents: true})
	p := a.run.Phase("suspend")
	first, _ := p.Devices.Get("i2c")
	second, _ := p.Devices.Get("i2c[2]")
	if first.End != 1.3 || second.End != 1.4 {
		t.Fatalf("ends %f/%f", first.End, second.End)
	}
	if a.bag.Count(diag.CallbackUnknownReturn) != 1 {
		t.Fatal("orphan return should be reported")
	}
}

func TestFreezeFirstCallingStartsResumeNoirq(t *testing.T) {
	log := `
[1.0] PM: Syncing filesystems ... done.
[1.1] calling  a+ @ 1, parent: p
[1.2] call a+ returned 0 after 1 usecs
[1.3] PM: suspend of devices complete after 1.0 msecs
[1.4] PM: late suspend of devices complete after 1.0 msecs
[1.5] PM: noirq suspend of devices complete after 1.0 msecs
[1.6] last line before sleep
[9.0] ACPI: resume from mwait
[9.1] calling  b+ @ 1, parent: p
[9.2] call b+ returned 0 after 1 usecs
[9.5] Restarting tasks ... done.
`
	a := build(t, model.ModeFreeze, log, timeline.Options{})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	if a.run.TSuspended != 1.6 || a.run.TResumed != 9.0 {
		t.Fatalf("suspend point %f/%f", a.run.TSuspended, a.run.TResumed)
	}
	if tl := a.run.TLow; tl < 7.39 || tl > 7.41 {
		t.Fatalf("low = %f", tl)
	}
	rm, rn := a.run.Phase("resume_machine"), a.run.Phase("resume_noirq")
	if rm.End != 9.1 || rn.Start != 9.1 {
		t.Fatalf("resume_machine end %f, resume_noirq start %f", rm.End, rn.Start)
	}
	if _, ok := rn.Devices.Get("b"); !ok {
		t.Fatal("b should belong to resume_noirq")
	}
}

func TestPseudoDevicesWithoutTraceEvents(t *testing.T) {
	log := `
[1.0] PM: Syncing filesystems ... done.
[1.1] PM: Preparing system for mem sleep
[1.2] Freezing user space processes ... (elapsed 0.001 seconds) done.
[1.3] Freezing remaining freezable tasks ... done.
[1.4] PM: Entering mem sleep
[1.5] calling  a+ @ 1, parent: p
[1.6] call a+ returned 0 after 1 usecs
[1.7] PM: noirq suspend of devices complete after 1.0 msecs
[1.8] Disabling non-boot CPUs ...
[1.9] smpboot: CPU 1 is now offline
[2.0] smpboot: CPU 2 is now offline
[3.0] ACPI: Low-level resume complete
[3.1] Enabling non-boot CPUs ...
[3.2] CPU1 is up
[4.0] Restarting tasks ... done.
`
	a := build(t, model.ModeMem, log, timeline.Options{})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	susp := a.run.Phase("suspend").Devices
	for _, name := range []string{"sync_filesystems", "freeze_user_processes", "freeze_tasks"} {
		d, ok := susp.Get(name)
		if !ok || !d.Synthetic || d.PID != 0 {
			t.Fatalf("pseudo device %s missing or malformed", name)
		}
	}
	sm := a.run.Phase("suspend_machine").Devices
	cpu1, ok := sm.Get("CPU1")
	if !ok || cpu1.Start != 1.8 || cpu1.End != 1.9 {
		t.Fatalf("CPU1 offline window %+v", cpu1)
	}
	cpu2, _ := sm.Get("CPU2")
	if cpu2 == nil || cpu2.Start != 1.9 || cpu2.End != 2.0 {
		t.Fatalf("CPU2 offline window %+v", cpu2)
	}
	up, ok := a.run.Phase("resume_machine").Devices.Get("CPU1")
	if !ok || up.Start != 3.1 || up.End != 3.2 {
		t.Fatalf("CPU1 up window %+v", up)
	}
}

func TestFilterAndAliases(t *testing.T) {
	log := `
[1.0] PM: Syncing filesystems ... done.
[1.1] calling  root+ @ 1, parent: none
[1.2] calling  kid+ @ 1, parent: root
[1.3] calling  other+ @ 1, parent: none
[1.4] call other+ returned 0 after 1 usecs
[1.5] call kid+ returned 0 after 1 usecs
[1.6] call root+ returned 0 after 1 usecs
[2.0] Restarting tasks ... done.
`
	a := build(t, model.ModeMem, log, timeline.Options{
		TraceEvents: true,
		Filter:      []string{"root"},
		Aliases:     map[string]string{"kid": "Child Device"},
	})
	names := a.run.Phase("suspend").Devices.Names()
	if len(names) != 2 || names[0] != "root" || names[1] != "kid" {
		t.Fatalf("kept %v", names)
	}
	kid, _ := a.run.Phase("suspend").Devices.Get("kid")
	if kid.DisplayName() != "Child Device" {
		t.Fatalf("alias not applied: %q", kid.DisplayName())
	}
}

func TestBootProfile(t *testing.T) {
	log := `
[    0.000000] Linux version 4.9.0-rc1 (builder@host) #1 SMP
[    0.100000] calling  init_a+0x0/0x10 @ 1
[    0.150000] initcall init_a+0x0/0x10 returned 0 after 50000 usecs
[    0.200000] calling  init_b+0x0/0x20 @ 1
[    0.300000] Freeing unused kernel memory: 1024K
[    0.400000] calling  never_seen+0x0/0x10 @ 1
`
	a := build(t, model.ModeBoot, log, timeline.Options{})
	if a.err != nil {
		t.Fatalf("finalize: %v", a.err)
	}
	if a.run.Stamp.Kernel != "4.9.0-rc1" {
		t.Fatalf("kernel = %q", a.run.Stamp.Kernel)
	}
	boot := a.run.Phase("boot")
	if boot.Start != 0 || boot.End != 0.3 {
		t.Fatalf("boot phase %f-%f", boot.Start, boot.End)
	}
	ia, ok := boot.Devices.Get("init_a")
	if !ok || ia.Start != 0.1 || ia.End != 0.15 || ia.ReportedUsecs != 50000 || ia.PID != 1 {
		t.Fatalf("init_a %+v", ia)
	}
	ib, ok := boot.Devices.Get("init_b")
	if !ok || ib.End != boot.End {
		t.Fatalf("init_b should be clipped to the phase end: %+v", ib)
	}
	if _, ok := boot.Devices.Get("never_seen"); ok {
		t.Fatal("lines after the stop marker must be ignored")
	}
}

func TestBootWithoutInitcallsFails(t *testing.T) {
	a := build(t, model.ModeBoot, "[0.0] Linux version 4.9.0 x\n[0.1] calling  x+0x0 @ 1", timeline.Options{})
	if !errors.Is(a.err, timeline.ErrNoInitcallData) {
		t.Fatalf("err = %v", a.err)
	}
}

func TestModeOverrides(t *testing.T) {
	disk := timeline.ProfileFor(model.ModeDisk)
	if !disk.Boundary("suspend_late").MatchString("PM: freeze of devices complete after 10 msecs") {
		t.Fatal("disk suspend_late pattern")
	}
	if !disk.Boundary("resume_machine").MatchString("PM: Restoring platform NVS memory") {
		t.Fatal("disk resume_machine pattern")
	}
	if disk.SuspendedAtPrevLine {
		t.Fatal("disk uses the boundary line itself")
	}
	standby := timeline.ProfileFor(model.ModeStandby)
	if !standby.SuspendedAtPrevLine || standby.Boundary("suspend_late") == nil {
		t.Fatal("standby profile")
	}
	if mem := timeline.ProfileFor(model.ModeMem); mem.Boundary("resume_machine").MatchString("ACPI: resume from mwait") {
		t.Fatal("mem must not use the freeze pattern")
	}
}
