package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	i := tm.Begin("lex")
	tm.End(i, "2 runs")
	err := tm.Measure("analyze", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("Measure must return the error of fn")
	}
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Stages) != 2 || r.Stages[0].Note != "2 runs" || r.Stages[1].Note != "failed" {
		t.Fatalf("report %+v", r)
	}
	s := tm.Summary()
	if !strings.Contains(s, "lex") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Stages) != 0 {
		t.Fatal("nil timer must report nothing")
	}
}
