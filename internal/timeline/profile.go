package timeline

import (
	"regexp"

	"pmgraph/internal/model"
)

// PhaseDef is one phase of a profile with the message that starts it.
type PhaseDef struct {
	Name     string
	Color    string
	Boundary *regexp.Regexp
}

// Profile is the mode-specific description of a capture, selected once per
// run by ProfileFor.
type Profile struct {
	Mode   model.Mode
	Phases []PhaseDef
	// PostResume ends the kernel pass (suspend modes).
	PostResume *regexp.Regexp
	// SuspendedAtPrevLine: the suspend point is the line before the
	// resume_machine boundary because the clock stood still in between.
	SuspendedAtPrevLine bool
	// Boot selects the initcall grammar and the single "boot" phase.
	Boot bool
}

// Boot profile limits.
const (
	BootTimeLimit = 120.0
	bootPhase     = "boot"
	bootColor     = "#dddddd"
)

var (
	callingRe  = regexp.MustCompile(`^calling  (?P<f>.*)\+ @ (?P<n>.*), parent: (?P<p>.*)`)
	returnedRe = regexp.MustCompile(`^call (?P<f>.*)\+ returned .* after (?P<t>.*) usecs`)

	bootCallingRe  = regexp.MustCompile(`^calling *(?P<f>.*)\+.*`)
	bootPidRe      = regexp.MustCompile(`@ (?P<n>[0-9]+)`)
	bootInitcallRe = regexp.MustCompile(`^initcall *(?P<f>.*)\+.*`)
	bootUsecsRe    = regexp.MustCompile(`after (?P<t>[0-9]+) usecs`)
	bootVersionRe  = regexp.MustCompile(`^Linux version .*`)
	bootClockRe    = regexp.MustCompile(`.* setting system clock to (?P<t>.*) UTC.*`)
	bootStopRe     = regexp.MustCompile(`^Freeing unused kernel memory.*`)

	mwaitRe = regexp.MustCompile(`^ACPI: resume from mwait`)
)

func anchored(s string) *regexp.Regexp { return regexp.MustCompile("^" + s) }

func memPhases() []PhaseDef {
	return []PhaseDef{
		{"suspend", "#88FF88", anchored(`PM: Syncing filesystems.*`)},
		{"suspend_late", "#00AA00", anchored(`PM: suspend of devices complete after.*`)},
		{"suspend_noirq", "#008888", anchored(`PM: late suspend of devices complete after.*`)},
		{"suspend_machine", "#0000FF", anchored(`PM: noirq suspend of devices complete after.*`)},
		{"resume_machine", "#FF0000", anchored(`ACPI: Low-level resume complete.*`)},
		{"resume_noirq", "#FF9900", anchored(`ACPI: Waking up from system sleep state.*`)},
		{"resume_early", "#FFCC00", anchored(`PM: noirq resume of devices complete after.*`)},
		{"resume", "#FFFF88", anchored(`PM: early resume of devices complete after.*`)},
		{"resume_complete", "#FFFFCC", anchored(`PM: resume of devices complete after.*`)},
	}
}

func override(phases []PhaseDef, repl map[string]string) []PhaseDef {
	for i := range phases {
		if pat, ok := repl[phases[i].Name]; ok {
			phases[i].Boundary = anchored(pat)
		}
	}
	return phases
}

// ProfileFor returns the profile of a mode. Unknown modes get the mem table.
func ProfileFor(mode model.Mode) Profile {
	post := anchored(`.*Restarting tasks \.\.\..*`)
	switch mode {
	case model.ModeBoot:
		return Profile{
			Mode:   mode,
			Phases: []PhaseDef{{Name: bootPhase, Color: bootColor}},
			Boot:   true,
		}
	case model.ModeStandby:
		return Profile{
			Mode: mode,
			Phases: override(memPhases(), map[string]string{
				"resume_machine": `PM: Restoring platform NVS memory`,
			}),
			PostResume:          post,
			SuspendedAtPrevLine: true,
		}
	case model.ModeDisk:
		return Profile{
			Mode: mode,
			Phases: override(memPhases(), map[string]string{
				"suspend_late":    `PM: freeze of devices complete after.*`,
				"suspend_noirq":   `PM: late freeze of devices complete after.*`,
				"suspend_machine": `PM: noirq freeze of devices complete after.*`,
				"resume_machine":  `PM: Restoring platform NVS memory`,
				"resume_early":    `PM: noirq restore of devices complete after.*`,
				"resume":          `PM: early restore of devices complete after.*`,
				"resume_complete": `PM: restore of devices complete after.*`,
			}),
			PostResume: post,
		}
	case model.ModeFreeze:
		return Profile{
			Mode: mode,
			Phases: override(memPhases(), map[string]string{
				"resume_machine": `ACPI: resume from mwait`,
			}),
			PostResume:          post,
			SuspendedAtPrevLine: true,
		}
	}
	return Profile{Mode: mode, Phases: memPhases(), PostResume: post}
}

// NewRun creates a run holding the profile's phases with unset bounds.
func (p Profile) NewRun(number int, stamp model.Stamp) *model.TestRun {
	run := model.NewTestRun(number, stamp)
	run.Start, run.End = model.Unset, model.Unset
	for _, ph := range p.Phases {
		run.AddPhase(ph.Name, ph.Color)
	}
	return run
}

// Boundary returns the boundary pattern of the named phase.
func (p Profile) Boundary(phase string) *regexp.Regexp {
	for _, ph := range p.Phases {
		if ph.Name == phase {
			return ph.Boundary
		}
	}
	return nil
}

type actionDef struct {
	name       string
	start, end *regexp.Regexp
}

// actions are pseudo-device windows tracked when the trace log carries no
// suspend_resume events.
func actions() []actionDef {
	return []actionDef{
		{"sync_filesystems", anchored(`PM: Syncing filesystems.*`), anchored(`PM: Preparing system for mem sleep.*`)},
		{"freeze_user_processes", anchored(`Freezing user space processes .*`), anchored(`Freezing remaining freezable tasks.*`)},
		{"freeze_tasks", anchored(`Freezing remaining freezable tasks.*`), anchored(`PM: Entering (?P<mode>[a-z,A-Z]*) sleep.*`)},
		{"ACPI prepare", anchored(`ACPI: Preparing to enter system sleep state.*`), anchored(`PM: Saving platform NVS memory.*`)},
		{"PM vns", anchored(`PM: Saving platform NVS memory.*`), anchored(`Disabling non-boot CPUs .*`)},
	}
}

var (
	cpuDisableRe = anchored(`Disabling non-boot CPUs .*`)
	cpuEnableRe  = anchored(`Enabling non-boot CPUs .*`)
	cpuOfflineRe = anchored(`smpboot: CPU (?P<cpu>[0-9]*) is now offline`)
	cpuUpRe      = anchored(`CPU(?P<cpu>[0-9]*) is up`)
)

func group(r *regexp.Regexp, m []string, name string) string {
	i := r.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}
