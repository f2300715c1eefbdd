package model

// LineKind tags a call-graph line.
type LineKind uint8

const (
	// LineCall opens a function that has children.
	LineCall LineKind = iota + 1
	// LineLeaf is a function without children.
	LineLeaf
	LineReturn
	// LineEvent is a trace event recorded inside the graph.
	LineEvent
)

func (k LineKind) String() string {
	switch k {
	case LineCall:
		return "call"
	case LineLeaf:
		return "leaf"
	case LineReturn:
		return "return"
	case LineEvent:
		return "event"
	}
	return "unknown"
}

// CallGraphLine is one line of a reconstructed execution trace.
type CallGraphLine struct {
	Time   float64  `msgpack:"t" json:"time"`
	Depth  int      `msgpack:"d" json:"depth"`
	Kind   LineKind `msgpack:"k" json:"kind"`
	Name   string   `msgpack:"n" json:"name"`
	Length float64  `msgpack:"l" json:"length"`
}

// CallGraph is one complete invocation traced for a (proc, pid) pair,
// from its depth-0 call to its depth-0 return.
type CallGraph struct {
	Proc    string          `msgpack:"proc" json:"proc"`
	PID     int             `msgpack:"pid" json:"pid"`
	Start   float64         `msgpack:"start" json:"start"`
	End     float64         `msgpack:"end" json:"end"`
	Lines   []CallGraphLine `msgpack:"lines" json:"lines"`
	Invalid bool            `msgpack:"invalid" json:"invalid,omitempty"`
}

func NewCallGraph(proc string, pid int) *CallGraph {
	return &CallGraph{Proc: proc, PID: pid, Start: Unset, End: Unset}
}

// Root is the name of the depth-0 call, or "" for an empty graph.
func (cg *CallGraph) Root() string {
	for _, l := range cg.Lines {
		if l.Kind != LineEvent {
			return l.Name
		}
	}
	return ""
}
