package lexer

import (
	"bytes"
	"fmt"

	"pmgraph/internal/source"

	"fortio.org/safecast"
)

// Cursor walks a file line by line.
type Cursor struct {
	File *source.File
	Off  uint32
	// Limit is the exclusive upper bound for Off; defaults to len(File.Content).
	Limit uint32
	// Line is the 1-based number of the last line returned by Next.
	Line uint32
}

// NewCursor creates a new cursor for the provided file.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{
		File:  f,
		Off:   0,
		Limit: limit,
	}
}

func (c *Cursor) EOF() bool {
	return c.Off >= c.Limit
}

// Next returns the next line without its terminating '\n'.
func (c *Cursor) Next() (num uint32, text string, ok bool) {
	if c.EOF() {
		return 0, "", false
	}
	rest := c.File.Content[c.Off:c.Limit]
	i := bytes.IndexByte(rest, '\n')
	var line []byte
	if i < 0 {
		line = rest
		c.Off = c.Limit
	} else {
		line = rest[:i]
		step, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line length overflow: %w", err))
		}
		c.Off += step
	}
	c.Line++
	return c.Line, string(line), true
}

// Span returns the span of the last line returned by Next.
func (c *Cursor) Span() source.Span {
	return source.Span{File: c.File.ID, Line: c.Line}
}
