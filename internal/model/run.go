package model

import (
	"fmt"
	"sort"
	"time"

	"pmgraph/internal/diag"
)

// Mode is the suspend target (or "boot").
type Mode string

const (
	ModeMem     Mode = "mem"
	ModeStandby Mode = "standby"
	ModeDisk    Mode = "disk"
	ModeFreeze  Mode = "freeze"
	ModeBoot    Mode = "boot"
)

// Stamp identifies a run: the "# suspend-..." header, or the boot log.
type Stamp struct {
	Host   string    `msgpack:"host" json:"host"`
	Kernel string    `msgpack:"kernel" json:"kernel"`
	Time   time.Time `msgpack:"time" json:"time"`
	Mode   Mode      `msgpack:"mode" json:"mode"`
}

// Firmware holds the figures of the "# fwsuspend N fwresume M" header.
type Firmware struct {
	Valid     bool  `msgpack:"valid" json:"valid"`
	SuspendNS int64 `msgpack:"suspend_ns" json:"suspend_ns"`
	ResumeNS  int64 `msgpack:"resume_ns" json:"resume_ns"`
}

// TestRun is one suspend/resume (or boot) execution.
type TestRun struct {
	Number     int     `msgpack:"number" json:"number"`
	Stamp      Stamp   `msgpack:"stamp" json:"stamp"`
	Start      float64 `msgpack:"start" json:"start"`
	End        float64 `msgpack:"end" json:"end"`
	TSuspended float64 `msgpack:"t_suspended" json:"t_suspended"`
	TResumed   float64 `msgpack:"t_resumed" json:"t_resumed"`
	TLow       float64 `msgpack:"t_low" json:"t_low"`

	Firmware   Firmware      `msgpack:"firmware" json:"firmware"`
	Phases     []*Phase      `msgpack:"phases" json:"phases"`
	FreeEvents []*TraceEvent `msgpack:"free_events" json:"free_events,omitempty"`

	Diagnostics []diag.Diagnostic `msgpack:"diagnostics,omitempty" json:"-"`

	nextID int
}

func NewTestRun(number int, stamp Stamp) *TestRun {
	return &TestRun{Number: number, Stamp: stamp}
}

// AddPhase appends a phase with unset bounds at the next order index.
func (r *TestRun) AddPhase(name, color string) *Phase {
	p := NewPhase(name, len(r.Phases), color)
	r.Phases = append(r.Phases, p)
	return p
}

// Phase looks a phase up by name.
func (r *TestRun) Phase(name string) *Phase {
	for _, p := range r.Phases {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PhaseIndex returns the position of the named phase, or -1.
func (r *TestRun) PhaseIndex(name string) int {
	for i, p := range r.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// InsertPhase places a new phase at order (appending when order < 0). The
// neighbours are trimmed so the timeline stays contiguous: the phase before
// ends at start and the phase after starts at end.
func (r *TestRun) InsertPhase(name string, start, end float64, color string, order int) *Phase {
	if order < 0 || order > len(r.Phases) {
		order = len(r.Phases)
	}
	if order > 0 {
		r.Phases[order-1].End = start
	}
	if order < len(r.Phases) {
		r.Phases[order].Start = end
	}
	p := NewPhase(name, order, color)
	p.Start, p.End = start, end
	r.Phases = append(r.Phases, nil)
	copy(r.Phases[order+1:], r.Phases[order:])
	r.Phases[order] = p
	r.renumber()
	return p
}

// PrependSingleAction adds a phase at order 0 holding one synthetic device
// that spans the whole phase.
func (r *TestRun) PrependSingleAction(phase, device string, start, end float64, color string) *Phase {
	p := NewPhase(phase, 0, color)
	p.Start, p.End = start, end
	r.Phases = append([]*Phase{p}, r.Phases...)
	r.renumber()
	r.NewAction(p, device, 0, "", start, end).Synthetic = true
	return p
}

func (r *TestRun) renumber() {
	for i, p := range r.Phases {
		p.Order = i
	}
}

// SortPhases orders phases by their order index.
func (r *TestRun) SortPhases() {
	sort.SliceStable(r.Phases, func(i, j int) bool { return r.Phases[i].Order < r.Phases[j].Order })
}

// NewAction records a callback in the phase. The returned callback carries
// the disambiguated name.
func (r *TestRun) NewAction(p *Phase, name string, pid int, parent string, start, end float64) *DeviceCallback {
	r.nextID++
	d := &DeviceCallback{
		ID:            fmt.Sprintf("%s%d", idPrefix(r.Number), r.nextID),
		Phase:         p.Name,
		Name:          name,
		PID:           pid,
		Parent:        parent,
		Start:         start,
		End:           end,
		ReportedUsecs: -1,
	}
	p.Devices.Add(d)
	return d
}

func idPrefix(number int) string {
	if number >= 0 && number < 26 {
		return string(rune('a' + number))
	}
	return fmt.Sprintf("r%d_", number)
}

// FirstStart is the start of the first phase.
func (r *TestRun) FirstStart() float64 {
	if len(r.Phases) == 0 {
		return r.Start
	}
	return r.Phases[0].Start
}

// LastEnd is the end of the last phase.
func (r *TestRun) LastEnd() float64 {
	if len(r.Phases) == 0 {
		return r.End
	}
	return r.Phases[len(r.Phases)-1].End
}

// SetStart moves the run start together with the first phase start.
func (r *TestRun) SetStart(t float64) {
	r.Start = t
	if len(r.Phases) > 0 {
		r.Phases[0].Start = t
	}
}

// SetEnd moves the run end together with the last phase end.
func (r *TestRun) SetEnd(t float64) {
	r.End = t
	if len(r.Phases) > 0 {
		r.Phases[len(r.Phases)-1].End = t
	}
}

// Devices visits every callback of every phase in phase order.
func (r *TestRun) Devices(fn func(p *Phase, d *DeviceCallback) bool) {
	for _, p := range r.Phases {
		cont := true
		p.Devices.Each(func(d *DeviceCallback) bool {
			cont = fn(p, d)
			return cont
		})
		if !cont {
			return
		}
	}
}

// DeviceAt returns the first callback, in phase then insertion order, of
// the given pid whose window contains t.
func (r *TestRun) DeviceAt(pid int, t float64) *DeviceCallback {
	var found *DeviceCallback
	r.Devices(func(_ *Phase, d *DeviceCallback) bool {
		if d.PID == pid && d.Contains(t) {
			found = d
			return false
		}
		return true
	})
	return found
}

// DeviceCount is the number of callbacks over all phases.
func (r *TestRun) DeviceCount() int {
	n := 0
	for _, p := range r.Phases {
		n += p.Devices.Len()
	}
	return n
}

// AddDiagnostics appends the contents of a bag to the run.
func (r *TestRun) AddDiagnostics(b *diag.Bag) {
	if b == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, b.Items()...)
}
