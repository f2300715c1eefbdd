package driver

import (
	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/token"
)

// segment is the slice of the captured logs that belongs to one run.
type segment struct {
	stamp    token.StampInfo
	firmware model.Firmware
	kernel   []token.Token
	trace    []token.Token
}

// splitKernel cuts the kernel log at every stamp header. Lines before the
// first stamp belong to no run. A boot log is a single segment.
func splitKernel(toks []token.Token, boot bool, r diag.Reporter) []*segment {
	if boot {
		seg := &segment{}
		for _, t := range toks {
			if t.Kind == token.Kernel {
				seg.kernel = append(seg.kernel, t)
			}
		}
		return []*segment{seg}
	}
	var (
		segs   []*segment
		cur    *segment
		warned bool
	)
	for _, t := range toks {
		switch t.Kind {
		case token.Stamp:
			cur = &segment{stamp: t.Stamp}
			segs = append(segs, cur)
			continue
		case token.Firmware:
			if cur != nil {
				cur.firmware = model.Firmware{Valid: true, SuspendNS: t.FwSuspend, ResumeNS: t.FwResume}
			}
			continue
		case token.Tracer:
			continue
		}
		if cur == nil {
			if !warned {
				diag.Warnf(r, diag.LexLineBeforeStamp, t.Span, "kernel log data before the first run stamp is ignored")
				warned = true
			}
			continue
		}
		cur.kernel = append(cur.kernel, t)
	}
	return segs
}

// assignTrace hands the trace lines to the runs. Stamped traces are split
// like the kernel log; a trace without stamps belongs to the first run.
func assignTrace(segs []*segment, toks []token.Token, r diag.Reporter) {
	if len(segs) == 0 {
		return
	}
	stamped := false
	for _, t := range toks {
		if t.Kind == token.Stamp {
			stamped = true
			break
		}
	}
	idx := 0
	if stamped {
		idx = -1
	}
	for _, t := range toks {
		switch {
		case t.Kind == token.Stamp:
			idx++
			if idx == len(segs) {
				diag.Warnf(r, diag.LexLineBeforeStamp, t.Span,
					"trace log has more runs than the kernel log, the rest is ignored")
			}
			continue
		case !t.IsTrace():
			continue
		case idx < 0 || idx >= len(segs):
			continue
		}
		segs[idx].trace = append(segs[idx].trace, t)
	}
}
