package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"pmgraph/internal/diag"
	"pmgraph/internal/driver"
	"pmgraph/internal/model"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary --dmesg FILE [--ftrace FILE]",
		Short: "Print the suspend, resume and firmware figures of a capture",
		Args:  cobra.NoArgs,
		RunE:  runSummary,
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().Bool("details", false, "list every phase with its window and device count")
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
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
	details, _ := cmd.Flags().GetBool("details")

	res, err := driver.Analyze(cmd.Context(), in, opts)
	if err != nil {
		if res != nil {
			_ = printDiagnostics(cmd.ErrOrStderr(), res, s, "short", diag.SevInfo)
		}
		dumpRing(cmd)
		return err
	}
	sums := res.Summaries()
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	case "text":
		for i := range sums {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			writeSummary(cmd.OutOrStdout(), sums[i], details)
		}
	default:
		return usageError{fmt.Errorf("invalid --format %q (expected text|json)", format)}
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	return nil
}

var headStyle = color.New(color.Bold)

func writeSummary(w io.Writer, s model.Summary, details bool) {
	fmt.Fprintln(w, headStyle.Sprintf("run %d: %s %s (%s)", s.Run, s.Host, s.Kernel, s.Mode))
	if !s.Time.IsZero() {
		fmt.Fprintf(w, "  captured        %s\n", s.Time.Format("2006-01-02 15:04:05"))
	}
	if s.Mode == model.ModeBoot {
		fmt.Fprintf(w, "  kernel boot     %.3f ms\n", s.ResumeMS)
	} else {
		fmt.Fprintf(w, "  suspend time    %.3f ms\n", s.SuspendMS)
		fmt.Fprintf(w, "  resume time     %.3f ms\n", s.ResumeMS)
		fmt.Fprintf(w, "  kernel suspend  %.3f ms\n", s.KernelSuspendMS)
		fmt.Fprintf(w, "  kernel resume   %.3f ms\n", s.KernelResumeMS)
		if s.LowMS > 0 {
			fmt.Fprintf(w, "  low power       %.3f ms\n", s.LowMS)
		}
		if s.FirmwareValid {
			fmt.Fprintf(w, "  firmware        %.3f ms suspend, %.3f ms resume\n", s.FirmwareSuspendMS, s.FirmwareResumeMS)
		}
	}
	fmt.Fprintf(w, "  devices %d, call graphs %d, trace events %d, warnings %d\n",
		s.Devices, s.CallGraphs, s.TraceEvents, s.Warnings)
	if details {
		writePhaseTable(w, s.Phases)
	}
}

// writePhaseTable aligns the phase labels by display width.
func writePhaseTable(w io.Writer, phases []model.PhaseSummary) {
	width := runewidth.StringWidth("Phase")
	for _, p := range phases {
		width = max(width, runewidth.StringWidth(p.Label))
	}
	fmt.Fprintf(w, "  %s %12s %12s %10s %8s %5s\n", runewidth.FillRight("Phase", width), "start ms", "end ms", "length ms", "devices", "rows")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", width+52))
	for _, p := range phases {
		fmt.Fprintf(w, "  %s %12.3f %12.3f %10.3f %8d %5d\n",
			runewidth.FillRight(p.Label, width), p.StartMS, p.EndMS, p.EndMS-p.StartMS, p.Devices, p.Rows)
	}
}
