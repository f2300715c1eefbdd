// Package layout assigns display rows to overlapping time intervals.
//
// Packing is greedy: rows are opened one at a time and each row takes every
// still unplaced interval, in start order, that does not overlap what the
// row already holds. The row count is part of the rendered output, so the
// order of the scan is fixed: ties on start keep input order.
package layout

import (
	"sort"

	"pmgraph/internal/model"
)

// Interval is a closed time window.
type Interval struct {
	Start float64
	End   float64
}

// overlaps reports whether [s, e] collides with [rs, re]. Touching
// windows and zero-length windows on a boundary do not collide.
func overlaps(s, e, rs, re float64) bool {
	return !((s <= rs && e <= rs) || (s >= re && e >= re))
}

// Pack returns the row of every interval, indexed like items, and the
// number of rows used.
func Pack(items []Interval) (rows []int, count int) {
	rows = make([]int, len(items))
	order := make([]int, len(items))
	for i := range items {
		rows[i] = -1
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Start < items[order[b]].Start
	})

	remaining := len(items)
	var placed []Interval
	for remaining > 0 {
		placed = placed[:0]
		for _, i := range order {
			if rows[i] >= 0 {
				continue
			}
			it := items[i]
			fits := true
			for _, r := range placed {
				if overlaps(it.Start, it.End, r.Start, r.End) {
					fits = false
					break
				}
			}
			if fits {
				placed = append(placed, it)
				rows[i] = count
				remaining--
			}
		}
		count++
	}
	return rows, count
}

// Options select what shares rows with the device callbacks of a phase.
type Options struct {
	// MergeEvents packs the free trace events recorded against a phase
	// together with its callbacks.
	MergeEvents bool
}

// PackPhase assigns rows to the callbacks of p (and to events, when given)
// and stores the row count in p.Rows.
func PackPhase(p *model.Phase, events []*model.TraceEvent) int {
	devs := p.Devices.All()
	items := make([]Interval, 0, len(devs)+len(events))
	for _, d := range devs {
		items = append(items, Interval{Start: d.Start, End: d.End})
	}
	for _, e := range events {
		items = append(items, Interval{Start: e.Begin, End: e.End})
	}
	rows, count := Pack(items)
	for i, d := range devs {
		d.Row = rows[i]
	}
	for i, e := range events {
		e.Row = rows[len(devs)+i]
	}
	p.Rows = count
	return count
}

// packDeviceEvents lays out the events attached to one callback.
func packDeviceEvents(d *model.DeviceCallback) {
	if len(d.Events) == 0 {
		return
	}
	items := make([]Interval, len(d.Events))
	for i, e := range d.Events {
		items[i] = Interval{Start: e.Begin, End: e.End}
	}
	rows, _ := Pack(items)
	for i, e := range d.Events {
		e.Row = rows[i]
	}
}

// PackRun lays out every phase of run and returns the largest row count.
func PackRun(run *model.TestRun, opts Options) int {
	byPhase := make(map[string][]*model.TraceEvent)
	var loose []*model.TraceEvent
	for _, e := range run.FreeEvents {
		if opts.MergeEvents && e.Phase != "" {
			byPhase[e.Phase] = append(byPhase[e.Phase], e)
			continue
		}
		loose = append(loose, e)
	}
	most := 0
	for _, p := range run.Phases {
		if n := PackPhase(p, byPhase[p.Name]); n > most {
			most = n
		}
		p.Devices.Each(func(d *model.DeviceCallback) bool {
			packDeviceEvents(d)
			return true
		})
	}
	if len(loose) > 0 {
		items := make([]Interval, len(loose))
		for i, e := range loose {
			items[i] = Interval{Start: e.Begin, End: e.End}
		}
		rows, _ := Pack(items)
		for i, e := range loose {
			e.Row = rows[i]
		}
	}
	return most
}
