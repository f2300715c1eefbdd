package token

// Kind represents the category of a log line.
type Kind uint8

const (
	// Invalid indicates an unrecognized line.
	Invalid Kind = iota
	// Stamp is the "# suspend-MMDDYY-HHMMSS host mode kernel" run header.
	Stamp
	// Firmware is the "# fwsuspend N fwresume M" header.
	Firmware
	// Tracer is the "# tracer: name" header of an ftrace log.
	Tracer
	// Kernel is a timestamped dmesg line.
	Kernel
	// FuncGraph is a function_graph tracer line.
	FuncGraph
	// Nop is a nop tracer line carrying one trace event.
	Nop
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case Stamp:
		return "Stamp"
	case Firmware:
		return "Firmware"
	case Tracer:
		return "Tracer"
	case Kernel:
		return "Kernel"
	case FuncGraph:
		return "FuncGraph"
	case Nop:
		return "Nop"
	}
	return "Unknown"
}

// IsHeader reports whether the kind is one of the "#" header lines.
func (k Kind) IsHeader() bool {
	return k == Stamp || k == Firmware || k == Tracer
}

// GraphKind classifies the text of a function-graph line.
type GraphKind uint8

const (
	GraphNone GraphKind = iota
	// GraphCall opens a function with children: "name() {".
	GraphCall
	// GraphLeaf is a call without children: "name();".
	GraphLeaf
	// GraphReturn closes a function: "}" or "} /* name */".
	GraphReturn
	// GraphEvent is a trace event comment: "/* call: msg */".
	GraphEvent
)

func (g GraphKind) String() string {
	switch g {
	case GraphNone:
		return "none"
	case GraphCall:
		return "call"
	case GraphLeaf:
		return "leaf"
	case GraphReturn:
		return "return"
	case GraphEvent:
		return "event"
	}
	return "unknown"
}

// IsCall reports whether the line opens a call (leaves open and close at once).
func (g GraphKind) IsCall() bool { return g == GraphCall || g == GraphLeaf }

// IsReturn reports whether the line closes a call.
func (g GraphKind) IsReturn() bool { return g == GraphReturn || g == GraphLeaf }
