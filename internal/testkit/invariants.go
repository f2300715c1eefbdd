// Package testkit holds model invariant checks shared by the tests of the
// analysis packages.
package testkit

import (
	"errors"
	"fmt"

	"pmgraph/internal/model"
)

// CheckRun verifies the structural invariants of an analyzed run:
//  1. phases are ordered by Order and every window has Start <= End
//  2. every callback belongs to its phase, has End >= Start and a unique id
//  3. an attached call graph lies inside its callback window
//  4. packed rows are in range and callbacks sharing a row do not overlap
func CheckRun(r *model.TestRun) error {
	if r == nil {
		return errors.New("nil run")
	}
	var errs []error
	ids := make(map[string]string)
	for i, p := range r.Phases {
		if p.Order != i {
			errs = append(errs, fmt.Errorf("phase %s: order %d at index %d", p.Name, p.Order, i))
		}
		if p.End < p.Start {
			errs = append(errs, fmt.Errorf("phase %s: ends at %f before it starts at %f", p.Name, p.End, p.Start))
		}
		devs := p.Devices.All()
		for _, d := range devs {
			errs = append(errs, checkDevice(p, d, ids)...)
		}
		errs = append(errs, checkRows(p, devs)...)
	}
	for _, e := range r.FreeEvents {
		if e.End < e.Begin {
			errs = append(errs, fmt.Errorf("free event %s: ends before it begins", e.Name))
		}
	}
	return errors.Join(errs...)
}

func checkDevice(p *model.Phase, d *model.DeviceCallback, ids map[string]string) []error {
	var errs []error
	if d.Phase != p.Name {
		errs = append(errs, fmt.Errorf("%s: stored in %s but claims %s", d.Name, p.Name, d.Phase))
	}
	if d.Length() < 0 {
		errs = append(errs, fmt.Errorf("%s: negative length %f", d.Name, d.Length()))
	}
	if d.ID != "" {
		if other, dup := ids[d.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: id %s already used by %s", d.Name, d.ID, other))
		}
		ids[d.ID] = d.Name
	}
	if cg := d.Graph; cg != nil {
		if cg.Start < d.Start || cg.End > d.End {
			errs = append(errs, fmt.Errorf("%s: graph %f-%f outside callback %f-%f", d.Name, cg.Start, cg.End, d.Start, d.End))
		}
		for _, l := range cg.Lines {
			if l.Time < cg.Start || l.Time > cg.End {
				errs = append(errs, fmt.Errorf("%s: graph line %s at %f outside the graph", d.Name, l.Name, l.Time))
				break
			}
		}
	}
	for _, e := range d.Events {
		if e.End < e.Begin {
			errs = append(errs, fmt.Errorf("%s: event %s ends before it begins", d.Name, e.Name))
		}
	}
	return errs
}

func checkRows(p *model.Phase, devs []*model.DeviceCallback) []error {
	if p.Rows == 0 {
		return nil
	}
	var errs []error
	for i, a := range devs {
		if a.Row < 0 || a.Row >= p.Rows {
			errs = append(errs, fmt.Errorf("%s: row %d outside 0..%d", a.Name, a.Row, p.Rows-1))
		}
		for _, b := range devs[i+1:] {
			if a.Row == b.Row && a.Start < b.End && b.Start < a.End {
				errs = append(errs, fmt.Errorf("%s and %s overlap on row %d", a.Name, b.Name, a.Row))
			}
		}
	}
	return errs
}

// CheckContiguous verifies that every phase ends where the next one starts.
// The suspended gap in front of resume_machine is allowed.
func CheckContiguous(r *model.TestRun) error {
	var errs []error
	for i := 0; i+1 < len(r.Phases); i++ {
		cur, next := r.Phases[i], r.Phases[i+1]
		if cur.End == next.Start {
			continue
		}
		if next.Name == "resume_machine" && cur.End == r.TSuspended && next.Start == r.TResumed {
			continue
		}
		errs = append(errs, fmt.Errorf("gap/overlap between %s (end %.4f) and %s (start %.4f)",
			cur.Name, cur.End, next.Name, next.Start))
	}
	return errors.Join(errs...)
}
