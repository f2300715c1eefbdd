package timeline

import (
	"sort"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
)

// Finalize closes the run: missing and open-ended phases are back-filled,
// the device filter and aliases are applied, and callbacks that never
// returned are clipped to their phase end. A run without any callback data
// yields ErrNoInitcallData.
func (b *Builder) Finalize() error {
	if b.calls == 0 || (b.prof.Boot && !b.valid) {
		diag.ReportError(b.opts.Reporter, diag.PhaseNoInitcallData, source.NoSpan,
			"no device callbacks found, was the kernel booted with initcall_debug?").Emit()
		return ErrNoInitcallData
	}
	if b.prof.Boot {
		b.finalizeBoot()
	} else {
		b.closeOpenPhases()
		b.fillMissingPhases()
	}
	r := b.run
	if !model.IsSet(r.Start) {
		r.Start = r.FirstStart()
	}
	if !model.IsSet(r.End) {
		r.End = r.LastEnd()
	}
	if len(b.opts.Filter) > 0 {
		r.Filter(b.opts.Filter)
	}
	b.applyAliases()
	b.clipUnreturned()
	return nil
}

func (b *Builder) finalizeBoot() {
	r := b.run
	p := r.Phase(bootPhase)
	p.End = r.End
	names := make([]string, 0, len(b.pending))
	for f := range b.pending {
		names = append(names, f)
	}
	sort.Slice(names, func(i, j int) bool { return b.pending[names[i]].start < b.pending[names[j]].start })
	for _, f := range names {
		pc := b.pending[f]
		r.NewAction(p, f, pc.pid, "", pc.start, model.Unset)
	}
}

// closeOpenPhases extends a phase that has a start but no end to the start
// of the next observed phase, or collapses it onto its own start.
func (b *Builder) closeOpenPhases() {
	phases := b.run.Phases
	for i, p := range phases {
		if !model.IsSet(p.Start) || model.IsSet(p.End) {
			continue
		}
		p.End = p.Start
		for _, next := range phases[i+1:] {
			if model.IsSet(next.Start) {
				p.End = next.Start
				break
			}
		}
		diag.Infof(b.opts.Reporter, diag.PhaseOpenEnded, source.NoSpan,
			"phase %q has no end marker, closed at %f", p.Name, p.End)
	}
}

func (b *Builder) fillMissingPhases() {
	r := b.run
	prevEnd := r.Start
	for _, p := range r.Phases {
		if !model.IsSet(p.Start) && !model.IsSet(p.End) {
			bld := diag.ReportWarning(b.opts.Reporter, diag.PhaseMissing, source.NoSpan,
				"phase \""+p.Name+"\" is missing, something went wrong")
			if bnd := b.prof.Boundary(p.Name); bnd != nil {
				bld.WithNote(source.NoSpan, "in "+string(b.prof.Mode)+", this dmesg line denotes the start of "+p.Name+": \""+bnd.String()[1:]+"\"")
			}
			bld.Emit()
		}
		if !model.IsSet(p.Start) {
			p.Start = prevEnd
			if p.Name == "resume_machine" {
				r.TSuspended = prevEnd
				r.TResumed = prevEnd
				r.TLow = 0
			}
		}
		if !model.IsSet(p.End) {
			p.End = p.Start
		}
		prevEnd = p.End
	}
}

func (b *Builder) applyAliases() {
	if len(b.opts.Aliases) == 0 {
		return
	}
	b.run.Devices(func(_ *model.Phase, d *model.DeviceCallback) bool {
		if alias, ok := b.opts.Aliases[d.Base]; ok {
			d.Alias = alias
		}
		return true
	})
}

func (b *Builder) clipUnreturned() {
	b.run.Devices(func(p *model.Phase, d *model.DeviceCallback) bool {
		if d.Returned() {
			return true
		}
		d.End = max(p.End, d.Start)
		diag.Warnf(b.opts.Reporter, diag.CallbackNoReturn, source.NoSpan,
			"%s (%s): callback didn't return", d.Name, p.Name)
		return true
	})
}
