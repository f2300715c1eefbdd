package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pmgraph/internal/callgraph"
	"pmgraph/internal/clock"
	"pmgraph/internal/correlate"
	"pmgraph/internal/diag"
	"pmgraph/internal/layout"
	"pmgraph/internal/lexer"
	"pmgraph/internal/logging"
	"pmgraph/internal/model"
	"pmgraph/internal/observ"
	"pmgraph/internal/source"
	"pmgraph/internal/timeline"
	"pmgraph/internal/token"
	"pmgraph/internal/trace"
)

const (
	userModePhase = "user mode"
	userModeColor = "#FF9966"
)

// Analyze reads the captured logs and builds the normalized, laid out
// model of every run they contain.
func Analyze(ctx context.Context, in Input, opts Options) (*Result, error) {
	if in.Kernel == "" {
		return nil, ErrNoInput
	}
	opts.Logger = logging.OrNop(opts.Logger)
	log := opts.Logger
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeDriver, "analyze", 0)
	defer span.End("")

	res := &Result{
		Files: source.NewFileSet(),
		Bag:   diag.NewBag(opts.MaxDiagnostics),
		Timer: observ.NewTimer(),
	}
	rep := diag.BagReporter{Bag: res.Bag}

	idx := res.Timer.Begin(string(StageLoad))
	ids, err := load(res.Files, in)
	res.Timer.End(idx, "")
	if err != nil {
		emit(opts.Progress, Event{Run: -1, Stage: StageLoad, Status: StatusError, Err: err})
		return res, err
	}

	var key CacheKey
	if opts.Cache != nil {
		if key, err = cacheKey(res.Files, ids, opts); err == nil {
			hit, ok, gerr := opts.Cache.Get(key)
			switch {
			case gerr != nil:
				log.Warn("cache read failed", zap.Stringer("key", key), zap.Error(gerr))
				diag.Warnf(rep, diag.IOCacheError, source.NoSpan, "cache read failed: %v", gerr)
			case ok:
				log.Info("analysis cache hit", zap.Stringer("key", key), zap.Int("runs", len(hit.Runs)))
				res.Runs, res.Cached = hit.Runs, true
				for _, d := range hit.Diagnostics {
					res.Bag.Add(d)
				}
				for _, r := range hit.Runs {
					for _, d := range r.Diagnostics {
						res.Bag.Add(d)
					}
				}
				emit(opts.Progress, Event{Run: -1, Stage: StageLayout, Status: StatusCached})
				span.Point("cache-hit", key.String())
				return res, nil
			}
		}
	}

	idx = res.Timer.Begin(string(StageLex))
	mark := res.Bag.Len()
	segs, err := lex(res.Files, ids, opts, rep)
	loose := slices.Clone(res.Bag.Items()[mark:])
	res.Timer.End(idx, fmt.Sprintf("%d runs", len(segs)))
	if err != nil {
		return res, err
	}
	log.Info("logs split into runs", zap.String("kernel", in.Kernel), zap.String("trace", in.Trace), zap.Int("runs", len(segs)))

	idx = res.Timer.Begin("analyze")
	runs, failed, err := analyzeRuns(ctx, segs, opts, span.ID())
	res.Timer.End(idx, "")
	for _, r := range runs {
		if r == nil {
			continue
		}
		for _, d := range r.Diagnostics {
			res.Bag.Add(d)
		}
	}
	if err != nil {
		return res, err
	}
	mark = res.Bag.Len()
	runs, dropped, err := dropFailed(runs, failed, rep, log)
	if err != nil {
		return res, err
	}
	for _, r := range dropped {
		loose = append(loose, r.Diagnostics...)
	}
	loose = append(loose, res.Bag.Items()[mark:]...)
	res.Runs = runs

	if len(runs) > 1 {
		last := runs[len(runs)-1]
		last.PrependSingleAction(userModePhase, userModePhase, runs[0].End, last.Start, userModeColor)
	}

	idx = res.Timer.Begin(string(StageNormalize))
	zero := clock.NormalizeAll(runs)
	log.Debug("clock normalized", zap.Float64("zero", zero))
	res.Timer.End(idx, fmt.Sprintf("zero %f", zero))
	emit(opts.Progress, Event{Run: -1, Stage: StageNormalize, Status: StatusDone})

	idx = res.Timer.Begin(string(StageLayout))
	for _, r := range runs {
		layout.PackRun(r, layout.Options{MergeEvents: opts.MergeEvents})
	}
	res.Timer.End(idx, "")
	emit(opts.Progress, Event{Run: -1, Stage: StageLayout, Status: StatusDone})

	if opts.Cache != nil && key != (CacheKey{}) {
		if err := opts.Cache.Put(key, CacheEntry{Runs: runs, Diagnostics: loose}); err != nil {
			log.Warn("cache write failed", zap.Stringer("key", key), zap.Error(err))
			diag.Warnf(rep, diag.IOCacheError, source.NoSpan, "cache write failed: %v", err)
		}
	}
	return res, nil
}

func load(fs *source.FileSet, in Input) ([]source.FileID, error) {
	kid, err := fs.Load(in.Kernel)
	if err != nil {
		return nil, fmt.Errorf("load kernel log: %w", err)
	}
	ids := []source.FileID{kid}
	if in.Trace != "" {
		tid, err := fs.Load(in.Trace)
		if err != nil {
			return nil, fmt.Errorf("load trace log: %w", err)
		}
		ids = append(ids, tid)
	}
	return ids, nil
}

// lex tokenizes the loaded files and cuts them into per-run segments.
func lex(fs *source.FileSet, ids []source.FileID, opts Options, rep diag.Reporter) ([]*segment, error) {
	ktoks := lexer.New(fs.Get(ids[0]), lexer.Options{
		Format:          lexer.FormatKernel,
		Reporter:        rep,
		ReportUnmatched: opts.Verbose,
	}).All()
	segs := splitKernel(ktoks, opts.Boot, rep)
	if len(segs) == 0 {
		return nil, ErrNoStamp
	}
	if len(ids) > 1 {
		ttoks := lexer.New(fs.Get(ids[1]), lexer.Options{
			Format:          lexer.FormatFuncGraph,
			Reporter:        rep,
			ReportUnmatched: opts.Verbose,
		}).All()
		assignTrace(segs, ttoks, rep)
	}
	return segs, nil
}

// analyzeRuns builds every run on its own goroutine. Runs share nothing,
// so each one owns its builders and its diagnostics. A run without callback
// data fails alone: its error is returned in failed and the others go on.
func analyzeRuns(ctx context.Context, segs []*segment, opts Options, parent uint64) (runs []*model.TestRun, failed []error, err error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	runs = make([]*model.TestRun, len(segs))
	failed = make([]error, len(segs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(segs)))
	for i, seg := range segs {
		emit(opts.Progress, Event{Run: i, Stage: StageKernel, Status: StatusQueued})
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := analyzeRun(gctx, i, seg, opts, parent)
			runs[i] = r
			if errors.Is(err, timeline.ErrNoInitcallData) {
				failed[i] = err
				return nil
			}
			return err
		})
	}
	err = g.Wait()
	return runs, failed, err
}

// dropFailed splits off the runs that failed. It errors only when no run
// is left.
func dropFailed(runs []*model.TestRun, failed []error, rep diag.Reporter, log *zap.Logger) (kept, dropped []*model.TestRun, err error) {
	kept = make([]*model.TestRun, 0, len(runs))
	for i, r := range runs {
		if failed[i] == nil {
			kept = append(kept, r)
			continue
		}
		if err == nil {
			err = failed[i]
		}
		dropped = append(dropped, r)
		log.Warn("run dropped", zap.Int("run", i), zap.Error(failed[i]))
		diag.Warnf(rep, diag.PhaseRunDropped, source.NoSpan, "run %d dropped: %v", i, failed[i])
	}
	if len(kept) > 0 {
		err = nil
	}
	return kept, dropped, err
}

func analyzeRun(ctx context.Context, number int, seg *segment, opts Options, parent uint64) (*model.TestRun, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeRun, fmt.Sprintf("run:%d", number), parent)
	defer span.End("")

	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	mode := runMode(seg, opts)
	mode = timeline.DetectMode(seg.kernel, mode, rep)
	prof := timeline.ProfileFor(mode)
	run := prof.NewRun(number, model.Stamp{
		Host:   seg.stamp.Host,
		Kernel: seg.stamp.Kernel,
		Time:   seg.stamp.Time,
		Mode:   mode,
	})
	run.Firmware = seg.firmware
	defer func() {
		bag.Sort()
		run.AddDiagnostics(bag)
	}()

	started := time.Now()
	emit(opts.Progress, Event{Run: number, Stage: StageKernel, Status: StatusWorking})
	kspan := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "kernel", span.ID())
	timeline.FixSwapped(seg.kernel, rep)
	b := timeline.NewBuilder(run, prof, timeline.Options{
		Reporter:    rep,
		TraceEvents: timeline.HasTraceEvents(seg.trace),
		Filter:      opts.Filter,
		Aliases:     opts.Aliases,
	})
	for _, tok := range seg.kernel {
		b.Add(tok)
		if b.Done() {
			break
		}
	}
	err := b.Finalize()
	kspan.WithExtra("phases", fmt.Sprint(len(run.Phases))).End("")
	if err != nil {
		emit(opts.Progress, Event{Run: number, Stage: StageKernel, Status: StatusError, Err: err})
		return run, fmt.Errorf("run %d: %w", number, err)
	}
	emit(opts.Progress, Event{Run: number, Stage: StageKernel, Status: StatusDone, Elapsed: time.Since(started)})

	if len(seg.trace) == 0 {
		return run, nil
	}
	started = time.Now()
	emit(opts.Progress, Event{Run: number, Stage: StageTrace, Status: StatusWorking})
	tspan := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "trace", span.ID())
	graphs, events := tracePass(run, prof, seg.trace, opts, rep)
	tspan.WithExtra("lines", fmt.Sprint(len(seg.trace))).End("")
	emit(opts.Progress, Event{Run: number, Stage: StageTrace, Status: StatusDone, Elapsed: time.Since(started)})

	started = time.Now()
	gs := correlate.Graphs(run, graphs, correlate.Options{Boot: prof.Boot, Reporter: rep})
	es := correlate.Events(run, events, rep)
	opts.Logger.Debug("run correlated",
		zap.Int("run", number),
		zap.Int("graphs", len(graphs)),
		zap.Int("attached", gs.Attached),
		zap.Int("rejected", gs.Rejected),
		zap.Int("events", len(events)),
		zap.Int("free", es.Free))
	span.WithExtra("graphs", fmt.Sprintf("%d/%d", gs.Attached, len(graphs))).
		WithExtra("events", fmt.Sprintf("%d/%d", es.Events, len(events)))
	emit(opts.Progress, Event{Run: number, Stage: StageCorrelate, Status: StatusDone, Elapsed: time.Since(started)})
	return run, nil
}

func runMode(seg *segment, opts Options) model.Mode {
	if opts.Boot {
		return model.ModeBoot
	}
	if opts.Mode != "" {
		return opts.Mode
	}
	switch m := model.Mode(seg.stamp.Mode); m {
	case model.ModeMem, model.ModeStandby, model.ModeDisk, model.ModeFreeze:
		return m
	}
	return model.ModeMem
}

// tracePass feeds the trace lines of one run to the event pass and the
// call-graph builder.
func tracePass(run *model.TestRun, prof timeline.Profile, toks []token.Token, opts Options, rep diag.Reporter) ([]*model.CallGraph, []*model.TraceEvent) {
	pass := timeline.NewEventPass(run, prof, rep)
	cgb := callgraph.NewBuilder(callgraph.Options{
		MaxLines:   opts.MaxGraphLines,
		IgnoreProc: prof.Boot,
		Reporter:   rep,
	})
	for _, tok := range toks {
		if tok.IsEvent() {
			pass.Event(tok)
			if pass.Accept(tok) {
				cgb.AddEvent(tok)
			}
			continue
		}
		if pass.Accept(tok) {
			cgb.AddLine(tok)
		}
	}
	return cgb.Graphs(), pass.Events()
}
