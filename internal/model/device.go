package model

import (
	"fmt"
	"sort"
	"strings"
)

// DeviceCallback is one invocation of a device or pseudo-device callback.
type DeviceCallback struct {
	ID     string  `msgpack:"id" json:"id"`
	Phase  string  `msgpack:"phase" json:"phase"`
	Name   string  `msgpack:"name" json:"name"`
	Base   string  `msgpack:"base" json:"base"`
	PID    int     `msgpack:"pid" json:"pid"`
	Parent string  `msgpack:"parent" json:"parent,omitempty"`
	Start  float64 `msgpack:"start" json:"start"`
	End    float64 `msgpack:"end" json:"end"`

	// ReportedUsecs is the duration printed by the kernel on the return
	// line, -1 when no return line was seen.
	ReportedUsecs int64 `msgpack:"usecs" json:"usecs"`

	Graph     *CallGraph    `msgpack:"graph,omitempty" json:"graph,omitempty"`
	Events    []*TraceEvent `msgpack:"events,omitempty" json:"events,omitempty"`
	Row       int           `msgpack:"row" json:"row"`
	Synthetic bool          `msgpack:"synthetic" json:"synthetic,omitempty"`
	Alias     string        `msgpack:"alias,omitempty" json:"alias,omitempty"`
}

// Length is the observed duration in seconds.
func (d *DeviceCallback) Length() float64 {
	return d.End - d.Start
}

// Returned reports whether the callback's end was observed.
func (d *DeviceCallback) Returned() bool {
	return IsSet(d.End)
}

// Contains reports whether t lies inside the callback window, inclusive.
func (d *DeviceCallback) Contains(t float64) bool {
	return t >= d.Start && t <= d.End
}

// DisplayName is the alias when one was configured.
func (d *DeviceCallback) DisplayName() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

// DeviceList is an insertion-ordered map of device name to callback.
// Duplicate names are stored as "name[2]", "name[3]", ...
type DeviceList struct {
	order  []string
	byName map[string]*DeviceCallback
}

func NewDeviceList() *DeviceList {
	return &DeviceList{byName: make(map[string]*DeviceCallback)}
}

// Add stores d under a unique key derived from d.Name and returns the key.
// d.Name is rewritten to the key and d.Base keeps the requested name.
func (l *DeviceList) Add(d *DeviceCallback) string {
	base := d.Name
	name := base
	for i := 2; ; i++ {
		if _, dup := l.byName[name]; !dup {
			break
		}
		name = fmt.Sprintf("%s[%d]", base, i)
	}
	d.Base = base
	d.Name = name
	l.byName[name] = d
	l.order = append(l.order, name)
	return name
}

func (l *DeviceList) Get(name string) (*DeviceCallback, bool) {
	d, ok := l.byName[name]
	return d, ok
}

func (l *DeviceList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// All returns the callbacks in insertion order.
func (l *DeviceList) All() []*DeviceCallback {
	if l == nil {
		return nil
	}
	out := make([]*DeviceCallback, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// Each visits the callbacks in insertion order until fn returns false.
func (l *DeviceList) Each(fn func(d *DeviceCallback) bool) {
	if l == nil {
		return
	}
	for _, name := range l.order {
		if !fn(l.byName[name]) {
			return
		}
	}
}

// Names returns the keys in insertion order.
func (l *DeviceList) Names() []string {
	return append([]string(nil), l.order...)
}

// Remove deletes the named callback, keeping the order of the rest.
func (l *DeviceList) Remove(name string) bool {
	if _, ok := l.byName[name]; !ok {
		return false
	}
	delete(l.byName, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// FirstUnreturned returns the earliest inserted callback named base that has
// not returned yet.
func (l *DeviceList) FirstUnreturned(base string) *DeviceCallback {
	for _, name := range l.order {
		d := l.byName[name]
		if d.Base == base && !d.Returned() {
			return d
		}
	}
	return nil
}

// SortedByStart returns the callbacks ordered by start time, ties kept in
// insertion order.
func (l *DeviceList) SortedByStart() []*DeviceCallback {
	out := l.All()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// BaseName strips a "[n]" disambiguation suffix.
func BaseName(name string) string {
	if i := strings.LastIndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		return name[:i]
	}
	return name
}
