package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pmgraph/internal/diag"
	"pmgraph/internal/source"
)

func fixture() (*diag.Bag, *source.FileSet) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("logs/dmesg.txt", []byte("[    1.000000] PM: suspend entry (deep)\n[    1.100000] calling  foo+ @ 5, parent: bar\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewWarning(diag.CallbackNoReturn, source.Span{File: id, Line: 2}, "foo didn't return").
		WithNote(source.Span{File: id, Line: 1}, "phase suspend started here"))
	bag.Add(diag.New(diag.SevInfo, diag.PhaseMissing, source.NoSpan, "suspend_late missing"))
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"logs/dmesg.txt:2: WARNING PHS2003: foo didn't return",
		"     2 | [    1.100000] calling  foo+ @ 5, parent: bar",
		"       = note: phase suspend started here (logs/dmesg.txt:1)",
		"INFO PHS2001: suspend_late missing",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyFiltersAndTruncates(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	opts := PrettyOpts{Width: 20, MinSeverity: diag.SevWarning, PathMode: PathModeBasename}
	if err := Pretty(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "INFO") || strings.Contains(out, "note:") {
		t.Fatalf("filtered content leaked:\n%s", out)
	}
	if !strings.HasPrefix(out, "dmesg.txt:2:") || !strings.Contains(out, "| [    1.100000] ca...\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDroppedDiagnosticsAreCounted(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)
	for range 3 {
		bag.Add(diag.New(diag.SevWarning, diag.LexBadTimestamp, source.NoSpan, "invalid timestamp"))
	}
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "2 more diagnostics dropped\n") {
		t.Fatalf("drop count missing:\n%s", buf.String())
	}
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if out.Count != 1 || out.Dropped != 2 || !out.Truncated {
		t.Fatalf("json output %+v", out)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("no escape sequences with color enabled")
	}
}

func TestShort(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, PathModeBasename); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "dmesg.txt:2: WARNING PHS2003 foo didn't return" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludeNotes: true, IncludeLine: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || !out.Truncated || len(out.Diagnostics) != 1 {
		t.Fatalf("out = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "PHS2003" || d.Title != "Callback didn't return" || d.Location == nil || d.Location.Line != 2 {
		t.Fatalf("diagnostic = %+v", d)
	}
	if !strings.Contains(d.Location.Text, "calling  foo+") || len(d.Notes) != 1 || d.Notes[0].Location.Line != 1 {
		t.Fatalf("line or notes missing: %+v", d)
	}
}
