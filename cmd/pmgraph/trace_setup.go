package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pmgraph/internal/trace"
)

// setupTracing attaches the tracer selected by the trace flags to the
// command context and returns its cleanup.
func setupTracing(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	output, _ := pf.GetString("trace")
	levelStr, _ := pf.GetString("trace-level")
	modeStr, _ := pf.GetString("trace-mode")
	formatStr, _ := pf.GetString("trace-format")
	ringSize, _ := pf.GetInt("trace-ring-size")
	heartbeat, _ := pf.GetDuration("trace-heartbeat")

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, usageError{err}
	}
	// --trace without a level means phase tracing
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(ctx, trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, usageError{err}
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, usageError{err}
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(ctx, tracer))
	hb := trace.StartHeartbeat(tracer, heartbeat)

	return func() {
		hb.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the ring buffer, if any, after a failed analysis.
func dumpRing(cmd *cobra.Command) {
	var ring *trace.RingTracer
	switch t := trace.FromContext(cmd.Context()).(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring = t.Ring()
	}
	if ring == nil {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events before the failure:")
	if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}
