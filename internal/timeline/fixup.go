package timeline

import (
	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/token"
)

// FixSwapped repairs kernel lines printed out of order: a "call f+
// returned" line directly followed by the "calling  f+" line with the same
// timestamp is swapped back so the call precedes its return.
func FixSwapped(toks []token.Token, r diag.Reporter) {
	if r == nil {
		r = diag.NopReporter{}
	}
	for i := 1; i < len(toks); i++ {
		last, cur := toks[i-1], toks[i]
		if last.Kind != token.Kernel || cur.Kind != token.Kernel || last.Time != cur.Time {
			continue
		}
		mr := returnedRe.FindStringSubmatch(last.Msg)
		mc := callingRe.FindStringSubmatch(cur.Msg)
		if mr == nil || mc == nil || group(returnedRe, mr, "f") != group(callingRe, mc, "f") {
			continue
		}
		toks[i-1], toks[i] = cur, last
		diag.Infof(r, diag.LexSwappedCallReturn, last.Span,
			"call and return of %s swapped at %f", group(callingRe, mc, "f"), cur.Time)
	}
}

// DetectMode returns freeze when the kernel log shows a freeze wakeup even
// though the stamp names another mode.
func DetectMode(toks []token.Token, mode model.Mode, r diag.Reporter) model.Mode {
	if mode == model.ModeBoot || mode == model.ModeFreeze {
		return mode
	}
	for _, t := range toks {
		if t.Kind == token.Kernel && mwaitRe.MatchString(t.Msg) {
			if r != nil {
				diag.ReportWarning(r, diag.PhaseModeSwitched, t.Span,
					"this suspend appears to be freeze rather than "+string(mode)+", it will be treated as such").Emit()
			}
			return model.ModeFreeze
		}
	}
	return mode
}
