package main

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pmgraph/internal/driver"
	"pmgraph/internal/model"
)

// addInputFlags registers the capture and analysis flags shared by analyze
// and summary.
func addInputFlags(fs *pflag.FlagSet) {
	fs.String("dmesg", "", "kernel log captured around the suspend/resume or boot")
	fs.String("ftrace", "", "ftrace log (function_graph or nop tracer)")
	fs.String("mode", "", "override the stamp mode (mem|standby|disk|freeze)")
	fs.Bool("boot", false, "analyze a boot log (initcalls)")
	fs.Int("jobs", 0, "runs analyzed in parallel (default: config or GOMAXPROCS)")
	fs.StringSlice("filter", nil, "keep only these devices and their family")
	fs.StringToString("alias", nil, "display name for a device, name=alias")
	fs.Int("max-graph-lines", 0, "call graph line ceiling (default: config or 1000000)")
	fs.Bool("merge-events", false, "pack free trace events with the phase rows")
	fs.Bool("cache", false, "reuse analyses of unchanged captures")
	fs.String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/pmgraph)")
	fs.Bool("clear-cache", false, "drop cached analyses before running")
}

// analysisRequest merges the config file with the flags that were set.
func analysisRequest(cmd *cobra.Command, s *session) (driver.Input, driver.Options, error) {
	f := cmd.Flags()
	a := s.cfg.Analysis
	in := driver.Input{}
	in.Kernel, _ = f.GetString("dmesg")
	in.Trace, _ = f.GetString("ftrace")
	if in.Kernel == "" {
		return in, driver.Options{}, usageError{fmt.Errorf("--dmesg is required")}
	}

	opts := driver.Options{
		Mode:           model.Mode(a.Mode),
		Boot:           a.Boot,
		Jobs:           a.Jobs,
		MaxDiagnostics: s.maxDiags,
		MaxGraphLines:  a.MaxGraphLines,
		Filter:         a.Filter,
		Aliases:        maps.Clone(a.Aliases),
		MergeEvents:    a.MergeEvents,
		Logger:         s.log,
	}
	// unmatched lines are only worth reporting at debug verbosity
	if v, _ := cmd.Root().PersistentFlags().GetCount("verbose"); v > 1 {
		opts.Verbose = true
	}
	if f.Changed("mode") {
		m, _ := f.GetString("mode")
		switch mode := model.Mode(m); mode {
		case model.ModeMem, model.ModeStandby, model.ModeDisk, model.ModeFreeze:
			opts.Mode = mode
		default:
			return in, opts, usageError{fmt.Errorf("invalid --mode %q (expected mem|standby|disk|freeze)", m)}
		}
	}
	if f.Changed("boot") {
		opts.Boot, _ = f.GetBool("boot")
	}
	if f.Changed("jobs") {
		opts.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("filter") {
		opts.Filter, _ = f.GetStringSlice("filter")
	}
	if f.Changed("alias") {
		extra, _ := f.GetStringToString("alias")
		if opts.Aliases == nil {
			opts.Aliases = map[string]string{}
		}
		maps.Copy(opts.Aliases, extra)
	}
	if f.Changed("max-graph-lines") {
		opts.MaxGraphLines, _ = f.GetInt("max-graph-lines")
	}
	if f.Changed("merge-events") {
		opts.MergeEvents, _ = f.GetBool("merge-events")
	}

	useCache := s.cfg.Cache.Enabled
	if f.Changed("cache") {
		useCache, _ = f.GetBool("cache")
	}
	drop, _ := f.GetBool("clear-cache")
	if useCache || drop {
		dir, _ := f.GetString("cache-dir")
		if dir == "" {
			dir = s.cfg.Cache.Dir
		}
		var (
			cache *driver.DiskCache
			err   error
		)
		if dir != "" {
			cache, err = driver.NewDiskCache(dir)
		} else {
			cache, err = driver.OpenDiskCache("pmgraph")
		}
		if err != nil {
			return in, opts, fmt.Errorf("open cache: %w", err)
		}
		if drop {
			if err := cache.DropAll(); err != nil {
				return in, opts, fmt.Errorf("clear cache: %w", err)
			}
		}
		if useCache {
			opts.Cache = cache
		}
	}
	return in, opts, nil
}
