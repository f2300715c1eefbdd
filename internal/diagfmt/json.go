package diagfmt

import (
	"encoding/json"
	"io"

	"pmgraph/internal/diag"
	"pmgraph/internal/source"
)

type LocationJSON struct {
	File string `json:"file"`
	Line uint32 `json:"line"`
	Text string `json:"text,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
	Truncated   bool             `json:"truncated,omitempty"`
}

func makeLocation(fs *source.FileSet, sp source.Span, opts JSONOpts) *LocationJSON {
	if fs == nil || sp.Empty() {
		return nil
	}
	path, line, ok := fs.Resolve(sp)
	if !ok {
		return nil
	}
	loc := &LocationJSON{File: formatPath(path, opts.PathMode), Line: line}
	if opts.IncludeLine {
		loc.Text, _ = lineText(fs, sp)
	}
	return loc
}

// BuildDiagnosticsOutput converts bag into its JSON document form.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	out := DiagnosticsOutput{
		Count:       len(items),
		Dropped:     bag.Dropped(),
		Truncated:   bag.Dropped() > 0,
		Diagnostics: make([]DiagnosticJSON, 0, len(items)),
	}
	for i, d := range items {
		if opts.Max > 0 && i >= opts.Max {
			out.Truncated = true
			break
		}
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(fs, d.Primary, opts),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(fs, n.Span, opts)})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON writes bag as an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
