package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"pmgraph/internal/diag"
	"pmgraph/internal/diagfmt"
	"pmgraph/internal/driver"
	"pmgraph/internal/model"
	"pmgraph/internal/version"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze --dmesg FILE [--ftrace FILE]",
		Short: "Build the timeline model of a capture",
		Long:  `Analyze parses the captured logs, builds the phase and device timeline of every test run, attaches call graphs and trace events, and writes the model for a renderer`,
		Args:  cobra.NoArgs,
		RunE:  runAnalyze,
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().String("format", "", "model encoding (json|msgpack, default: config or json)")
	cmd.Flags().StringP("output", "o", "-", "model output file (- for stdout)")
	cmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|short|json)")
	cmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	view := viewAuto
	cmd.Flags().Var(&view, "ui", "progress view")
	return cmd
}

// modelOutput is the document handed to a renderer.
type modelOutput struct {
	Tool      string           `json:"tool" msgpack:"tool"`
	Version   string           `json:"version" msgpack:"version"`
	Generated time.Time        `json:"generated" msgpack:"generated"`
	Cached    bool             `json:"cached" msgpack:"cached"`
	Runs      []*model.TestRun `json:"runs" msgpack:"runs"`
	Summaries []model.Summary  `json:"summaries" msgpack:"summaries"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	in, opts, err := analysisRequest(cmd, s)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = s.cfg.Output.Format
	}
	if format != "json" && format != "msgpack" {
		return usageError{fmt.Errorf("invalid --format %q (expected json|msgpack)", format)}
	}
	diagFormat, _ := cmd.Flags().GetString("diag-format")
	sevFlag, _ := cmd.Flags().GetString("min-severity")
	minSev, err := diag.ParseSeverity(sevFlag)
	if err != nil {
		return usageError{fmt.Errorf("invalid --min-severity: %w", err)}
	}
	if s.quiet {
		minSev = diag.SevError
	}

	res, err := analyze(cmd.Context(), cmd.ErrOrStderr(), in, opts, viewFlag(cmd).drawn(s.quiet, os.Stderr))
	if res != nil {
		if perr := printDiagnostics(cmd.ErrOrStderr(), res, s, diagFormat, minSev); perr != nil {
			return perr
		}
	}
	if err != nil {
		dumpRing(cmd)
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if err := writeModelFile(cmd.OutOrStdout(), outPath, format, res); err != nil {
		return err
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	return nil
}

func analyze(ctx context.Context, out io.Writer, in driver.Input, opts driver.Options, tui bool) (*driver.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if tui {
		return analyzeWithUI(ctx, out, "pmgraph: "+in.Kernel, in, opts)
	}
	return driver.Analyze(ctx, in, opts)
}

func printDiagnostics(w io.Writer, res *driver.Result, s *session, format string, minSev diag.Severity) error {
	if res.Bag == nil || res.Bag.Len() == 0 {
		return nil
	}
	res.Bag.Sort()
	res.Bag.Filter(minSev)
	switch format {
	case "pretty":
		return diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:       s.color,
			ShowNotes:   true,
			Width:       160,
			MinSeverity: minSev,
		})
	case "short":
		return diagfmt.Short(w, res.Bag, res.Files, diagfmt.PathModeAuto)
	case "json":
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{IncludeNotes: true, IncludeLine: true})
	default:
		return usageError{fmt.Errorf("invalid --diag-format %q (expected pretty|short|json)", format)}
	}
}

func writeModelFile(stdout io.Writer, path, format string, res *driver.Result) (err error) {
	w := stdout
	if path != "" && path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := writeModel(bw, format, res); err != nil {
		return err
	}
	return bw.Flush()
}

func writeModel(w io.Writer, format string, res *driver.Result) error {
	doc := modelOutput{
		Tool:      "pmgraph",
		Version:   version.Version,
		Generated: time.Now().UTC(),
		Cached:    res.Cached,
		Runs:      res.Runs,
		Summaries: res.Summaries(),
	}
	switch format {
	case "msgpack":
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(&doc)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&doc)
	}
}
