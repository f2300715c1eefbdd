package model

import (
	"strings"
	"time"

	"pmgraph/internal/diag"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PhaseSummary is one line of the per-phase detail table.
type PhaseSummary struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	StartMS float64 `json:"start_ms"`
	EndMS   float64 `json:"end_ms"`
	Devices int     `json:"devices"`
	Rows    int     `json:"rows"`
}

// Summary holds the scalar figures of one run, in milliseconds.
type Summary struct {
	Run    int       `json:"run"`
	Host   string    `json:"host"`
	Kernel string    `json:"kernel"`
	Mode   Mode      `json:"mode"`
	Time   time.Time `json:"time"`

	SuspendMS         float64 `json:"suspend_ms"`
	ResumeMS          float64 `json:"resume_ms"`
	LowMS             float64 `json:"low_ms"`
	KernelSuspendMS   float64 `json:"kernel_suspend_ms"`
	KernelResumeMS    float64 `json:"kernel_resume_ms"`
	FirmwareValid     bool    `json:"firmware_valid"`
	FirmwareSuspendMS float64 `json:"firmware_suspend_ms"`
	FirmwareResumeMS  float64 `json:"firmware_resume_ms"`

	Phases      []PhaseSummary `json:"phases"`
	Devices     int            `json:"devices"`
	CallGraphs  int            `json:"call_graphs"`
	TraceEvents int            `json:"trace_events"`
	Warnings    int            `json:"warnings"`
}

// PhaseLabel turns "suspend_noirq" into "Suspend Noirq".
func PhaseLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Summarize computes the headline figures of a run. Suspend time runs from
// the run start to the suspend point, resume time from there to the run end;
// firmware figures are added to both when present.
func Summarize(r *TestRun) Summary {
	s := Summary{
		Run:           r.Number,
		Host:          r.Stamp.Host,
		Kernel:        r.Stamp.Kernel,
		Mode:          r.Stamp.Mode,
		Time:          r.Stamp.Time,
		SuspendMS:     (r.TSuspended - r.Start) * 1000,
		ResumeMS:      (r.End - r.TSuspended) * 1000,
		LowMS:         r.TLow * 1000,
		FirmwareValid: r.Firmware.Valid,
	}
	if r.Stamp.Mode == ModeBoot {
		s.SuspendMS = 0
		s.ResumeMS = (r.End - r.Start) * 1000
	}
	if r.Firmware.Valid {
		s.FirmwareSuspendMS = float64(r.Firmware.SuspendNS) / 1e6
		s.FirmwareResumeMS = float64(r.Firmware.ResumeNS) / 1e6
		s.SuspendMS += s.FirmwareSuspendMS
		s.ResumeMS += s.FirmwareResumeMS
	}
	if p := r.Phase("suspend_machine"); p != nil {
		s.KernelSuspendMS = (p.End - r.FirstStart()) * 1000
	}
	if p := r.Phase("resume_machine"); p != nil {
		s.KernelResumeMS = (r.LastEnd() - p.Start) * 1000
	}
	for _, p := range r.Phases {
		s.Phases = append(s.Phases, PhaseSummary{
			Name:    p.Name,
			Label:   PhaseLabel(p.Name),
			StartMS: p.Start * 1000,
			EndMS:   p.End * 1000,
			Devices: p.Devices.Len(),
			Rows:    p.Rows,
		})
	}
	r.Devices(func(_ *Phase, d *DeviceCallback) bool {
		s.Devices++
		if d.Graph != nil {
			s.CallGraphs++
		}
		s.TraceEvents += len(d.Events)
		return true
	})
	s.TraceEvents += len(r.FreeEvents)
	for _, d := range r.Diagnostics {
		if d.Severity >= diag.SevWarning {
			s.Warnings++
		}
	}
	return s
}
