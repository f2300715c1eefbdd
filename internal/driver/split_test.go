package driver

import (
	"testing"

	"pmgraph/internal/diag"
	"pmgraph/internal/lexer"
	"pmgraph/internal/source"
	"pmgraph/internal/token"
)

func lexString(t *testing.T, text string, f lexer.Format) []token.Token {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("log", []byte(text))
	return lexer.New(fs.Get(id), lexer.Options{Format: f}).All()
}

func TestSplitKernel(t *testing.T) {
	text := "[    0.100000] before any stamp\n" + kernelLog(0, 10)
	bag := diag.NewBag(0)
	segs := splitKernel(lexString(t, text, lexer.FormatKernel), false, diag.BagReporter{Bag: bag})
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	for i, s := range segs {
		if len(s.kernel) != len(suspendCycle) {
			t.Fatalf("segment %d has %d lines", i, len(s.kernel))
		}
		if !s.firmware.Valid || s.stamp.Host != "myhost" {
			t.Fatalf("segment %d header %+v %+v", i, s.stamp, s.firmware)
		}
	}
	if bag.Count(diag.LexLineBeforeStamp) != 1 {
		t.Fatal("data before the stamp not reported")
	}
}

func TestAssignTrace(t *testing.T) {
	segs := []*segment{{}, {}}
	unstamped := " 1.000000 |   0)  kworker-5 |               |  foo() {\n"
	assignTrace(segs, lexString(t, unstamped, lexer.FormatFuncGraph), nil)
	if len(segs[0].trace) != 1 || len(segs[1].trace) != 0 {
		t.Fatal("an unstamped trace belongs to the first run")
	}

	segs = []*segment{{}}
	stamped := unstamped + stamp + "\n" + unstamped + stamp + "\n" + unstamped
	bag := diag.NewBag(0)
	assignTrace(segs, lexString(t, stamped, lexer.FormatFuncGraph), diag.BagReporter{Bag: bag})
	if len(segs[0].trace) != 1 {
		t.Fatalf("got %d trace lines", len(segs[0].trace))
	}
	if bag.Count(diag.LexLineBeforeStamp) != 1 {
		t.Fatal("extra trace run not reported")
	}
}
