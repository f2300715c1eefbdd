package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pmgraph/internal/config"
	"pmgraph/internal/logging"
)

// session holds what every subcommand derives from the persistent flags.
type session struct {
	cfg      config.Config
	log      *zap.Logger
	color    bool
	quiet    bool
	timings  bool
	maxDiags int
	cleanups []func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	pf := cmd.Root().PersistentFlags()
	colorFlag, err := pf.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	quiet, _ := pf.GetBool("quiet")
	timings, _ := pf.GetBool("timings")
	maxDiags, _ := pf.GetInt("max-diagnostics")
	verbose, _ := pf.GetCount("verbose")
	cfgPath, _ := pf.GetString("config")

	s := &session{quiet: quiet, timings: timings, maxDiags: maxDiags}
	switch colorFlag {
	case "on":
		s.color = true
	case "off":
	case "auto":
		s.color = isTerminal(os.Stderr)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	color.NoColor = !s.color

	if cfgPath != "" {
		s.cfg, err = config.Load(cfgPath)
	} else {
		s.cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	s.log = logging.New(logging.Config{
		Verbose: verbose > 0,
		Debug:   verbose > 1,
		Output:  cmd.ErrOrStderr(),
	})
	if s.cfg.Path != "" {
		s.log.Info("config loaded", zap.String("path", s.cfg.Path))
	}

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, stopProf)
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanups = append(s.cleanups, stopTrace)
	return s, nil
}

// close runs the cleanups in reverse order.
func (s *session) close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	_ = s.log.Sync()
}

func printError(w io.Writer, err error) {
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(w, "pmgraph: %v\nRun 'pmgraph --help' for usage.\n", err)
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
}

type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }
