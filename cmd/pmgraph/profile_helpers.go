package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmgraph/internal/prof"
)

// setupProfiling starts the profilers named by the persistent flags. The
// returned cleanup writes the heap profile and stops the rest.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	var cfg prof.Config
	cfg.CPU, _ = pf.GetString("cpu-profile")
	cfg.Mem, _ = pf.GetString("mem-profile")
	cfg.Runtime, _ = pf.GetString("runtime-trace")
	if cfg == (prof.Config{}) {
		return func() {}, nil
	}
	s, err := prof.Start(cfg)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := s.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}
