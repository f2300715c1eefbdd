package token_test

import (
	"testing"

	"pmgraph/internal/token"
)

func TestGraphKindCallReturn(t *testing.T) {
	cases := []struct {
		g         token.GraphKind
		call, ret bool
	}{
		{token.GraphNone, false, false},
		{token.GraphCall, true, false},
		{token.GraphLeaf, true, true},
		{token.GraphReturn, false, true},
		{token.GraphEvent, false, false},
	}
	for _, c := range cases {
		if got := c.g.IsCall(); got != c.call {
			t.Fatalf("%v.IsCall() = %v, want %v", c.g, got, c.call)
		}
		if got := c.g.IsReturn(); got != c.ret {
			t.Fatalf("%v.IsReturn() = %v, want %v", c.g, got, c.ret)
		}
	}
}

func TestHeaderKinds(t *testing.T) {
	for _, k := range []token.Kind{token.Stamp, token.Firmware, token.Tracer} {
		if !k.IsHeader() {
			t.Fatalf("%v should be a header", k)
		}
	}
	for _, k := range []token.Kind{token.Invalid, token.Kernel, token.FuncGraph, token.Nop} {
		if k.IsHeader() {
			t.Fatalf("%v must NOT be a header", k)
		}
	}
}

func TestTokenIsEvent(t *testing.T) {
	tok := token.Token{Kind: token.Nop, Graph: token.GraphEvent}
	if !tok.IsEvent() || !tok.IsTrace() {
		t.Fatal("nop event token should be a trace event")
	}
	tok = token.Token{Kind: token.Kernel, Graph: token.GraphEvent}
	if tok.IsEvent() {
		t.Fatal("kernel token must not be a trace event")
	}
}
