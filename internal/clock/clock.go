// Package clock rebases run timestamps so that zero is the moment of
// suspend and the time spent in the low-power state is cut out.
package clock

import "pmgraph/internal/model"

// trim removes the suspended gap [tSus, tRes) from t. Values after the gap
// shift left when the resume happened after zero, values before it shift
// right otherwise.
func trim(t, tSus, tRes, zero float64) float64 {
	if tRes > zero {
		if t >= tRes {
			return t - (tRes - tSus)
		}
		if t > tSus {
			return tSus
		}
		return t
	}
	if t <= tSus {
		return t + (tRes - tSus)
	}
	if t < tRes {
		return tRes
	}
	return t
}

// Normalize rewrites every timestamp of run relative to zero. Afterwards
// TSuspended equals TResumed.
func Normalize(run *model.TestRun, zero float64) {
	tSus, tRes := run.TSuspended, run.TResumed
	run.EachTime(func(t *float64) {
		*t = trim(*t, tSus, tRes, zero) - zero
	})
}

// NormalizeAll rebases all runs on the suspend time of the last one and
// returns the zero that was used. Applied to normalized runs the zero is 0
// and nothing moves.
func NormalizeAll(runs []*model.TestRun) float64 {
	if len(runs) == 0 {
		return 0
	}
	zero := runs[len(runs)-1].TSuspended
	for _, r := range runs {
		Normalize(r, zero)
	}
	return zero
}
