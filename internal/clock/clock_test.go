package clock

import (
	"math"
	"testing"

	"pmgraph/internal/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTrim(t *testing.T) {
	tests := []struct {
		name           string
		t, sus, res, z float64
		want           float64
	}{
		{"after gap, left", 10.35, 10.0, 10.3, 10.0, 10.05},
		{"inside gap, left", 10.1, 10.0, 10.3, 10.0, 10.0},
		{"before gap, left", 9.5, 10.0, 10.3, 10.0, 9.5},
		{"before gap, right", 9.5, 10.0, 10.3, 20.0, 9.8},
		{"inside gap, right", 10.1, 10.0, 10.3, 20.0, 10.3},
		{"after gap, right", 10.5, 10.0, 10.3, 20.0, 10.5},
		{"no gap", 3, 5, 5, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trim(tt.t, tt.sus, tt.res, tt.z); !near(got, tt.want) {
				t.Fatalf("trim(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func run(number int, sus, res float64) *model.TestRun {
	r := model.NewTestRun(number, model.Stamp{Mode: model.ModeFreeze})
	r.Start, r.End = sus-1, res+1
	r.TSuspended, r.TResumed = sus, res
	p := r.AddPhase("suspend", "#88FF88")
	p.Start, p.End = sus-1, sus
	q := r.AddPhase("resume", "#FFFF88")
	q.Start, q.End = res, res+1
	d := r.NewAction(q, "dev", 1, "", res+0.05, res+0.1)
	cg := model.NewCallGraph("task", 1)
	cg.Start, cg.End = d.Start, d.End
	cg.Lines = []model.CallGraphLine{{Time: d.Start}, {Time: d.End}}
	d.Graph = cg
	e := model.NewTraceEvent("", "ev", 1, res+0.06)
	e.End = res + 0.07
	d.Events = append(d.Events, e)
	return r
}

func TestNormalizeExcisesGap(t *testing.T) {
	r := run(0, 10.0, 10.3)
	NormalizeAll([]*model.TestRun{r})
	d := r.Phases[1].Devices.All()[0]
	if !near(d.Start, 0.05) || !near(d.End, 0.1) {
		t.Fatalf("device at %v-%v, want 0.05-0.1", d.Start, d.End)
	}
	if !near(d.Graph.Lines[0].Time, 0.05) || !near(d.Events[0].Begin, 0.06) {
		t.Fatal("graph lines and events must move with the device")
	}
	if r.TSuspended != 0 || r.TResumed != 0 || !near(r.Start, -1) || !near(r.End, 1) {
		t.Fatalf("run bounds %v %v %v %v", r.Start, r.End, r.TSuspended, r.TResumed)
	}
}

func TestNormalizeAllUsesLastRun(t *testing.T) {
	first := run(0, 10.0, 10.3)
	last := run(1, 50.0, 50.5)
	if zero := NormalizeAll([]*model.TestRun{first, last}); zero != 50.0 {
		t.Fatalf("zero = %v", zero)
	}
	// resume of the first run is before zero: its gap is excised to the right
	if !near(first.TSuspended, first.TResumed) || !near(first.TResumed, 10.3-50.0) {
		t.Fatalf("first run gap %v %v", first.TSuspended, first.TResumed)
	}
	if !near(first.Start, 9.3-50.0) {
		t.Fatalf("first run start %v", first.Start)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	runs := []*model.TestRun{run(0, 10.0, 10.3), run(1, 20.0, 21.0)}
	NormalizeAll(runs)
	var before []float64
	for _, r := range runs {
		r.EachTime(func(t *float64) { before = append(before, *t) })
	}
	if zero := NormalizeAll(runs); zero != 0 {
		t.Fatalf("second zero = %v", zero)
	}
	i := 0
	for _, r := range runs {
		r.EachTime(func(tp *float64) {
			if *tp != before[i] {
				t.Fatalf("value %d moved from %v to %v", i, before[i], *tp)
			}
			i++
		})
	}
}
