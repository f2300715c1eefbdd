package diag

import (
	"testing"

	"pmgraph/internal/source"
)

func TestBagLimit(t *testing.T) {
	tests := []struct {
		limit   int
		add     int
		kept    int
		dropped int
	}{
		{limit: 0, add: 70000, kept: 70000},
		{limit: -1, add: 3, kept: 3},
		{limit: 2, add: 5, kept: 2, dropped: 3},
	}
	for _, tt := range tests {
		b := NewBag(tt.limit)
		for range tt.add {
			b.Add(New(SevWarning, LexBadTimestamp, source.NoSpan, "invalid timestamp"))
		}
		if b.Len() != tt.kept || b.Dropped() != tt.dropped {
			t.Errorf("NewBag(%d) after %d adds: len=%d dropped=%d, want %d/%d",
				tt.limit, tt.add, b.Len(), b.Dropped(), tt.kept, tt.dropped)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"info": SevInfo, "WARNING": SevWarning, " warn ": SevWarning, "Error": SevError} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("unknown severity accepted")
	}
	if Severity(7).String() != "UNKNOWN" {
		t.Error("out of range severity")
	}
}
