package layout

import (
	"slices"
	"testing"

	"pmgraph/internal/model"
)

func TestPackGreedy(t *testing.T) {
	tests := []struct {
		name  string
		items []Interval
		rows  []int
		count int
	}{
		{"empty", nil, []int{}, 0},
		{"disjoint", []Interval{{0, 1}, {1, 2}, {2, 3}}, []int{0, 0, 0}, 1},
		{"nested", []Interval{{0, 10}, {1, 2}, {3, 4}}, []int{0, 1, 1}, 2},
		{"unsorted input", []Interval{{5, 6}, {0, 10}, {1, 2}}, []int{1, 0, 1}, 2},
		{"ties keep input order", []Interval{{0, 2}, {0, 1}, {1, 3}}, []int{0, 1, 1}, 2},
		{"all overlap", []Interval{{0, 3}, {1, 4}, {2, 5}}, []int{0, 1, 2}, 3},
		{"zero length on edge", []Interval{{0, 1}, {1, 1}}, []int{0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, count := Pack(tt.items)
			if count != tt.count || !slices.Equal(rows, tt.rows) {
				t.Fatalf("Pack() = %v, %d; want %v, %d", rows, count, tt.rows, tt.count)
			}
		})
	}
}

func TestPackNoOverlapAndDeterministic(t *testing.T) {
	items := []Interval{
		{0.1, 0.5}, {0.2, 0.3}, {0.25, 0.9}, {0.3, 0.35}, {0.0, 1.0},
		{0.5, 0.6}, {0.55, 0.7}, {0.6, 0.61}, {0.9, 1.2}, {0.3, 0.4},
	}
	rows, count := Pack(items)
	again, count2 := Pack(items)
	if count != count2 || !slices.Equal(rows, again) {
		t.Fatal("packing is not deterministic")
	}
	for i := range items {
		if rows[i] < 0 || rows[i] >= count {
			t.Fatalf("item %d has row %d of %d", i, rows[i], count)
		}
		for j := i + 1; j < len(items); j++ {
			if rows[i] == rows[j] && overlaps(items[i].Start, items[i].End, items[j].Start, items[j].End) {
				t.Fatalf("items %d and %d overlap on row %d", i, j, rows[i])
			}
		}
	}
}

func TestPackRun(t *testing.T) {
	r := model.NewTestRun(0, model.Stamp{})
	p := r.AddPhase("suspend", "#88FF88")
	p.Start, p.End = 0, 1
	a := r.NewAction(p, "a", 1, "", 0, 0.5)
	b := r.NewAction(p, "b", 2, "", 0.1, 0.2)
	e1 := model.NewTraceEvent("", "x", 1, 0.1)
	e1.End = 0.3
	e2 := model.NewTraceEvent("", "y", 1, 0.2)
	e2.End = 0.4
	a.Events = []*model.TraceEvent{e1, e2}
	free := model.NewTraceEvent("", "z", 3, 0.6)
	free.End = 0.7
	free.Phase = "suspend"
	r.FreeEvents = []*model.TraceEvent{free}

	if n := PackRun(r, Options{MergeEvents: true}); n != 2 {
		t.Fatalf("rows = %d", n)
	}
	if a.Row != 0 || b.Row != 1 || free.Row != 0 || p.Rows != 2 {
		t.Fatalf("rows a=%d b=%d free=%d phase=%d", a.Row, b.Row, free.Row, p.Rows)
	}
	if e1.Row != 0 || e2.Row != 1 {
		t.Fatalf("attached event rows %d %d", e1.Row, e2.Row)
	}
}
