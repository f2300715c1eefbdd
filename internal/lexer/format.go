package lexer

import "strings"

// Format selects the line grammar of a log.
type Format uint8

const (
	// FormatKernel is the dmesg "[ktime] msg" format.
	FormatKernel Format = iota
	// FormatFuncGraph is the function_graph tracer format with
	// funcgraph-abstime and funcgraph-proc enabled.
	FormatFuncGraph
	// FormatNop is the nop tracer format carrying trace events only.
	FormatNop
)

func (f Format) String() string {
	switch f {
	case FormatKernel:
		return "kernel"
	case FormatFuncGraph:
		return "function_graph"
	case FormatNop:
		return "nop"
	}
	return "unknown"
}

// FormatForTracer maps the value of a "# tracer:" header to a format.
func FormatForTracer(name string) (Format, bool) {
	switch strings.TrimSpace(name) {
	case "function_graph":
		return FormatFuncGraph, true
	case "nop":
		return FormatNop, true
	}
	return FormatKernel, false
}
