package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pmgraph/internal/diag"
	"pmgraph/internal/diagfmt"
	"pmgraph/internal/lexer"
	"pmgraph/internal/source"
	"pmgraph/internal/token"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] FILE",
		Short: "Print the recognized lines of a dmesg or ftrace log",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	cmd.Flags().String("as", "kernel", "initial line grammar (kernel|function_graph|nop)")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func parseLexFormat(s string) (lexer.Format, error) {
	switch s {
	case "kernel", "dmesg":
		return lexer.FormatKernel, nil
	case "function_graph", "ftrace":
		return lexer.FormatFuncGraph, nil
	case "nop":
		return lexer.FormatNop, nil
	}
	return lexer.FormatKernel, fmt.Errorf("invalid --as %q (expected kernel|function_graph|nop)", s)
}

func runTokenize(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	as, _ := cmd.Flags().GetString("as")
	lf, err := parseLexFormat(as)
	if err != nil {
		return usageError{err}
	}
	format, _ := cmd.Flags().GetString("format")

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	bag := diag.NewBag(s.maxDiags)
	toks := lexer.New(fs.Get(id), lexer.Options{
		Format:          lf,
		Reporter:        diag.BagReporter{Bag: bag},
		ReportUnmatched: true,
	}).All()

	if bag.HasErrors() || bag.HasWarnings() {
		bag.Filter(diag.SevWarning)
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: s.color}); err != nil {
			return err
		}
	}
	switch format {
	case "pretty":
		return formatTokensPretty(cmd.OutOrStdout(), toks)
	case "json":
		return formatTokensJSON(cmd.OutOrStdout(), toks)
	default:
		return usageError{fmt.Errorf("unknown format: %s", format)}
	}
}

func formatTokensPretty(w io.Writer, toks []token.Token) error {
	for _, t := range toks {
		var detail string
		switch t.Kind {
		case token.Stamp:
			detail = fmt.Sprintf("host=%s mode=%s kernel=%s", t.Stamp.Host, t.Stamp.Mode, t.Stamp.Kernel)
		case token.Firmware:
			detail = fmt.Sprintf("suspend=%dns resume=%dns", t.FwSuspend, t.FwResume)
		case token.Tracer:
			detail = t.TracerID
		case token.FuncGraph, token.Nop:
			detail = fmt.Sprintf("%s-%d cpu%d %s depth=%d %s", t.Proc, t.PID, t.CPU, t.Graph, t.Depth, t.Name)
		default:
			detail = t.Msg
		}
		if _, err := fmt.Fprintf(w, "%6d %-9s %14.6f  %s\n", t.Span.Line, t.Kind, t.Time, detail); err != nil {
			return err
		}
	}
	return nil
}

type tokenJSON struct {
	Line  uint32  `json:"line"`
	Kind  string  `json:"kind"`
	Time  float64 `json:"time"`
	Msg   string  `json:"msg,omitempty"`
	Proc  string  `json:"proc,omitempty"`
	PID   int     `json:"pid,omitempty"`
	Depth int     `json:"depth,omitempty"`
	Graph string  `json:"graph,omitempty"`
	Name  string  `json:"name,omitempty"`
	Dur   float64 `json:"dur,omitempty"`
}

func formatTokensJSON(w io.Writer, toks []token.Token) error {
	out := make([]tokenJSON, 0, len(toks))
	for _, t := range toks {
		tj := tokenJSON{Line: t.Span.Line, Kind: t.Kind.String(), Time: t.Time, Msg: t.Msg}
		if t.IsTrace() {
			tj.Proc, tj.PID, tj.Depth, tj.Graph, tj.Name, tj.Dur = t.Proc, t.PID, t.Depth, t.Graph.String(), t.Name, t.Dur
		}
		out = append(out, tj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
