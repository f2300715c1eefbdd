package model

import (
	"fmt"
	"strings"
)

// TraceEvent is a named begin/end marker taken from the trace log.
type TraceEvent struct {
	Action string  `msgpack:"action" json:"action,omitempty"`
	Name   string  `msgpack:"name" json:"name"`
	PID    int     `msgpack:"pid" json:"pid"`
	Begin  float64 `msgpack:"begin" json:"begin"`
	End    float64 `msgpack:"end" json:"end"`
	Color  string  `msgpack:"color" json:"color"`
	Row    int     `msgpack:"row" json:"row"`
	// Ready is set once the matching end marker was seen.
	Ready bool `msgpack:"ready" json:"ready"`
	// Phase is the first phase overlapping a free-floating event.
	Phase string `msgpack:"phase,omitempty" json:"phase,omitempty"`
}

func NewTraceEvent(action, name string, pid int, begin float64) *TraceEvent {
	return &TraceEvent{
		Action: action,
		Name:   name,
		PID:    pid,
		Begin:  begin,
		End:    begin,
		Color:  EventColor(action, name),
	}
}

func (e *TraceEvent) Length() float64 {
	return e.End - e.Begin
}

// Midpoint is used to place a bounded event inside a device window.
func (e *TraceEvent) Midpoint() float64 {
	return e.Begin + (e.End-e.Begin)/2
}

// EventColor picks the display color of an event. Mutex actions have fixed
// colors; everything else derives a stable color from the name.
func EventColor(action, name string) string {
	switch action {
	case "mutex_lock_try":
		return "red"
	case "mutex_lock_pass":
		return "green"
	case "mutex_unlock":
		return "blue"
	}
	if name == "" {
		return "#000000"
	}
	v1 := len(name) * 10 % 256
	v2 := strings.Count(name, "e") * 100 % 256
	v3 := int(name[0]) * 20 % 256
	return fmt.Sprintf("#%06X", v1*0x10000+v2*0x100+v3)
}
