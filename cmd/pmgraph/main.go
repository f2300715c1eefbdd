package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pmgraph/internal/version"
)

// newRootCmd builds the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pmgraph",
		Short:         "Suspend/resume and boot timeline analyzer",
		Long:          `pmgraph reads dmesg and ftrace captures of a suspend/resume or boot cycle and builds the phase, device callback and call graph timeline behind them`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newTokenizeCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "only print errors")
	pf.Bool("timings", false, "show stage timings")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics kept per bag")
	pf.CountP("verbose", "v", "log progress to stderr (repeat for debug)")
	pf.String("config", "", "config file (default: nearest pmgraph.toml or pmgraph.yaml)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace encoding (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval, 0 disables")
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
