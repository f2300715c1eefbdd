package model

import "slices"

// groupPhases returns the phases in the same group as phase.
func (r *TestRun) groupPhases(phase string) []*Phase {
	g := Group(phase)
	out := make([]*Phase, 0, len(r.Phases))
	for _, p := range r.Phases {
		if Group(p.Name) == g {
			out = append(out, p)
		}
	}
	return out
}

// Children lists the devices whose parent is name, over the phase group.
func (r *TestRun) Children(name, phase string) []string {
	var out []string
	for _, p := range r.groupPhases(phase) {
		p.Devices.Each(func(d *DeviceCallback) bool {
			if d.Parent == name {
				out = append(out, d.Name)
			}
			return true
		})
	}
	return out
}

// Descendants lists every device below name, breadth first.
func (r *TestRun) Descendants(name, phase string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range r.Children(cur, phase) {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

// DeviceIDs maps device names to their ids over the phase group.
func (r *TestRun) DeviceIDs(names []string, phase string) []string {
	var ids []string
	for _, p := range r.groupPhases(phase) {
		p.Devices.Each(func(d *DeviceCallback) bool {
			if slices.Contains(names, d.Name) {
				ids = append(ids, d.ID)
			}
			return true
		})
	}
	return ids
}

// ParentID resolves the parent of name to its id. When the parent is not a
// known device its bare name is returned.
func (r *TestRun) ParentID(name, phase string) string {
	group := r.groupPhases(phase)
	parent := ""
	for _, p := range group {
		if d, ok := p.Devices.Get(name); ok {
			parent = d.Parent
		}
	}
	for _, p := range group {
		if d, ok := p.Devices.Get(parent); ok {
			return d.ID
		}
	}
	return parent
}

// Filter keeps only the named devices, their ancestors and descendants.
// Synthetic pseudo-devices are never removed.
func (r *TestRun) Filter(names []string) {
	if len(names) == 0 {
		return
	}
	keep := make(map[string]bool)
	for _, p := range r.Phases {
		for _, name := range names {
			walked := map[string]bool{}
			for dev := name; !walked[dev]; {
				d, ok := p.Devices.Get(dev)
				if !ok {
					break
				}
				walked[dev] = true
				keep[dev] = true
				dev = d.Parent
			}
			for _, c := range r.Descendants(name, p.Name) {
				keep[c] = true
			}
		}
	}
	for _, p := range r.Phases {
		for _, d := range p.Devices.All() {
			if !keep[d.Name] && !d.Synthetic {
				p.Devices.Remove(d.Name)
			}
		}
	}
}
