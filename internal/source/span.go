package source

import (
	"fmt"
)

// Span points at one line of a log file. Line is 1-based; zero means the
// diagnostic has no line of its own (e.g. a finalization warning).
type Span struct {
	File FileID
	Line uint32
}

// NoSpan is the zero span.
var NoSpan = Span{}

func (s Span) Empty() bool {
	return s.Line == 0
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.File, s.Line)
}

// At returns a span for line n of the same file.
func (s Span) At(n uint32) Span {
	return Span{File: s.File, Line: n}
}
