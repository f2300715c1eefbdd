package callgraph

import (
	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
)

// SanityCheck replays a closed graph with a nesting stack. Every return
// must pop a call of the same depth and the stack must end empty. On
// success each call line takes over the duration of its return line, which
// is then zeroed; on failure the graph is left untouched.
func SanityCheck(cg *model.CallGraph) bool {
	if cg == nil || len(cg.Lines) == 0 {
		return false
	}
	type pair struct{ call, ret int }
	var (
		stack []int
		pairs []pair
	)
	for i, l := range cg.Lines {
		switch l.Kind {
		case model.LineCall:
			stack = append(stack, i)
		case model.LineReturn:
			if len(stack) == 0 {
				return false
			}
			top := stack[len(stack)-1]
			if cg.Lines[top].Depth != l.Depth {
				return false
			}
			stack = stack[:len(stack)-1]
			pairs = append(pairs, pair{call: top, ret: i})
		}
	}
	if len(stack) != 0 {
		return false
	}
	for _, p := range pairs {
		cg.Lines[p.call].Length = cg.Lines[p.ret].Length
		cg.Lines[p.ret].Length = 0
	}
	return true
}

// Check reports whether a graph may be correlated: it must be valid and
// pass SanityCheck. Rejected graphs are reported.
func Check(cg *model.CallGraph, r diag.Reporter) bool {
	if cg.Invalid {
		return false
	}
	if SanityCheck(cg) {
		return true
	}
	if r != nil {
		diag.Warnf(r, diag.GraphUnbalanced, source.NoSpan,
			"sanity check failed for task %s-%d (%f - %f), ignoring this callback", cg.Proc, cg.PID, cg.Start, cg.End)
	}
	return false
}

// Balanced reports whether calls and returns of a graph pair up and the
// running depth never goes negative. Leaves count as both.
func Balanced(cg *model.CallGraph) bool {
	depth := 0
	for _, l := range cg.Lines {
		switch l.Kind {
		case model.LineCall:
			depth++
		case model.LineReturn:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
