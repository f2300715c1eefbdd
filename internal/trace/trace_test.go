package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeRun, false},
		{LevelDetail, ScopeRun, true},
		{LevelDetail, ScopeLine, false},
		{LevelDebug, ScopeLine, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DETAIL")
	if err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
}

func TestStreamSpansText(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeStream, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	root := Begin(tr, ScopeDriver, "analyze", 0)
	run := Begin(tr, ScopeRun, "run:0", root.ID())
	run.Point("cache-hit", "abc")
	run.WithExtra("graphs", "1/1").End("")
	Begin(tr, ScopeLine, "line", run.ID()).End("")
	root.End("done")

	out := buf.String()
	for _, want := range []string{"→ driver analyze", "  → run run:0", "{graphs=1/1}", "• run cache-hit (abc)", "← driver analyze (done)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "line line") {
		t.Errorf("line scope recorded at detail level:\n%s", out)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Begin(tr, ScopePass, "kernel", 7).End("")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["kind"] != "end" || ev["scope"] != "pass" || ev["parent_id"] != float64(7) {
		t.Errorf("unexpected event %v", ev)
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeLine, Name: name})
	}
	snap := r.Snapshot()
	var got []string
	for _, ev := range snap {
		got = append(got, ev.Name)
	}
	if strings.Join(got, "") != "cde" {
		t.Fatalf("snapshot = %v, want [c d e]", got)
	}
}

func TestErrorLevelRingKeepsSpans(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeRing, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeRun, "run:1", 0).End("")
	ring := tr.(*RingTracer)
	if n := len(ring.Snapshot()); n != 2 {
		t.Fatalf("ring holds %d events, want 2", n)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatAuto); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "run run:1") {
		t.Errorf("dump = %q", buf.String())
	}
}

func TestMultiFansOut(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), NewRingTracer(4, LevelPhase))
	Begin(m, ScopeDriver, "analyze", 0).End("")
	if m.Ring() == nil || len(m.Ring().Snapshot()) != 2 {
		t.Fatal("ring did not receive events")
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("stream output = %q", buf.String())
	}
}

func TestContextAndNilSafety(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context should yield Nop")
	}
	r := NewRingTracer(2, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatal("tracer not propagated")
	}
	var s *Span
	if s.End("") != 0 || s.ID() != 0 {
		t.Fatal("nil span should be inert")
	}
	Begin(Nop, ScopeDriver, "x", 0).WithExtra("k", "v").End("")
	var h *Heartbeat
	h.Stop()
	if StartHeartbeat(Nop, 1) != nil {
		t.Fatal("heartbeat started on disabled tracer")
	}
}
