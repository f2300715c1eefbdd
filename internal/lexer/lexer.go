package lexer

import (
	"fmt"

	"pmgraph/internal/diag"
	"pmgraph/internal/source"
	"pmgraph/internal/token"
)

// Lexer produces the recognized tokens of one log file in line order.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	format Format
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		format: opts.Format,
	}
}

// Format returns the grammar currently in effect.
func (lx *Lexer) Format() Format { return lx.format }

// Next returns the next recognized token. Unrecognized lines are skipped.
// ok is false at end of file.
func (lx *Lexer) Next() (tok token.Token, ok bool) {
	for {
		_, text, more := lx.cursor.Next()
		if !more {
			return token.Token{}, false
		}
		t, st := tokenize(text, lx.format)
		switch st {
		case badTime:
			lx.reportf(diag.LexBadTimestamp, diag.SevWarning, fmt.Sprintf("invalid timestamp in line %q", text))
			continue
		case noMatch:
			if lx.opts.ReportUnmatched && text != "" {
				lx.reportf(diag.LexUnparseableLine, diag.SevInfo, fmt.Sprintf("ignoring line: %s", text))
			}
			continue
		}
		t.Span = lx.cursor.Span()
		if t.Kind == token.Tracer {
			f, known := FormatForTracer(t.TracerID)
			if !known {
				lx.reportf(diag.LexUnknownTracer, diag.SevWarning, fmt.Sprintf("invalid tracer format: [%s]", t.TracerID))
			} else {
				lx.format = f
			}
		}
		return t, true
	}
}

// All drains the lexer.
func (lx *Lexer) All() []token.Token {
	toks := make([]token.Token, 0, lx.file.NumLines())
	for {
		t, ok := lx.Next()
		if !ok {
			return toks
		}
		toks = append(toks, t)
	}
}
