package model

// EachTime calls fn once for every timestamp owned by the run: the run
// bounds, phase bounds, callback bounds, call-graph bounds and lines, and
// trace events (attached and free).
func (r *TestRun) EachTime(fn func(t *float64)) {
	fn(&r.TSuspended)
	fn(&r.TResumed)
	fn(&r.Start)
	fn(&r.End)
	for _, p := range r.Phases {
		fn(&p.Start)
		fn(&p.End)
		p.Devices.Each(func(d *DeviceCallback) bool {
			fn(&d.Start)
			fn(&d.End)
			if cg := d.Graph; cg != nil {
				fn(&cg.Start)
				fn(&cg.End)
				for i := range cg.Lines {
					fn(&cg.Lines[i].Time)
				}
			}
			for _, e := range d.Events {
				fn(&e.Begin)
				fn(&e.End)
			}
			return true
		})
	}
	for _, e := range r.FreeEvents {
		fn(&e.Begin)
		fn(&e.End)
	}
}
