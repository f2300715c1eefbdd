package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pmgraph/internal/diag"
	"pmgraph/internal/source"
)

type palette struct {
	sev     map[diag.Severity]*color.Color
	loc     *color.Color
	gutter  *color.Color
	note    *color.Color
	enabled bool
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan),
		},
		loc:     color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		note:    color.New(color.FgGreen),
		enabled: enabled,
	}
	for _, c := range p.sev {
		p.apply(c)
	}
	p.apply(p.loc)
	p.apply(p.gutter)
	p.apply(p.note)
	return p
}

func (p palette) apply(c *color.Color) {
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

// Pretty writes every diagnostic of bag as
//
//	<path>:<line>: <SEV> <ID>: <message>
//	   <line> | <log line>
//	   = note: <message>
//
// bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if d.Severity < opts.MinSeverity {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s %s: %s\n",
			p.loc.Sprint(location(fs, d.Primary, opts.PathMode)),
			p.sev[d.Severity].Sprint(d.Severity.String()),
			d.Code.ID(), d.Message); err != nil {
			return err
		}
		if text, ok := lineText(fs, d.Primary); ok {
			if opts.Width > 0 {
				text = runewidth.Truncate(text, opts.Width, "...")
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%6d |", d.Primary.Line), text); err != nil {
				return err
			}
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			loc := ""
			if !n.Span.Empty() {
				loc = " (" + strings.TrimSuffix(location(fs, n.Span, opts.PathMode), ": ") + ")"
			}
			if _, err := fmt.Fprintf(w, "       %s %s%s\n", p.note.Sprint("= note:"), n.Msg, loc); err != nil {
				return err
			}
		}
	}
	if n := bag.Dropped(); n > 0 {
		if _, err := fmt.Fprintf(w, "%d more diagnostics dropped\n", n); err != nil {
			return err
		}
	}
	return nil
}

// Short writes one line per diagnostic: path:line: SEV ID message.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) error {
	for _, d := range bag.Items() {
		if _, err := fmt.Fprintf(w, "%s%s %s %s\n", location(fs, d.Primary, mode), d.Severity, d.Code.ID(), d.Message); err != nil {
			return err
		}
	}
	return nil
}

// location renders "path:line: ", "path: " or "" for a span.
func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	if fs == nil || sp.Empty() {
		return ""
	}
	path, line, ok := fs.Resolve(sp)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d: ", formatPath(path, mode), line)
}

func formatPath(path string, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		if filepath.IsAbs(path) {
			if rel, err := filepath.Rel(".", path); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
	}
	return path
}

func lineText(fs *source.FileSet, sp source.Span) (string, bool) {
	if fs == nil || sp.Empty() || int(sp.File) >= fs.Len() {
		return "", false
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "", false
	}
	text := strings.TrimRight(f.GetLine(sp.Line), "\r\n")
	return text, text != ""
}
