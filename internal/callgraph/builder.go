package callgraph

import (
	"fmt"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
	"pmgraph/internal/token"
)

// DefaultMaxLines is the per-graph line ceiling.
const DefaultMaxLines = 1000000

// Key identifies the thread a graph was traced on.
type Key struct {
	Proc string
	PID  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Proc, k.PID)
}

type Options struct {
	// MaxLines bounds a single graph; zero means DefaultMaxLines.
	MaxLines int
	// IgnoreProc keys graphs by pid alone.
	IgnoreProc bool
	Reporter   diag.Reporter
}

type state struct {
	cg    *model.CallGraph
	depth int
	cpu   int
}

// Builder reconstructs call graphs for every (proc, pid) key it sees.
type Builder struct {
	opts   Options
	open   map[Key]*state
	keys   []Key
	graphs []*model.CallGraph
}

func NewBuilder(opts Options) *Builder {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Builder{opts: opts, open: make(map[Key]*state)}
}

func (b *Builder) key(tok token.Token) Key {
	if b.opts.IgnoreProc {
		return Key{PID: tok.PID}
	}
	return Key{Proc: tok.Proc, PID: tok.PID}
}

func (b *Builder) state(tok token.Token) *state {
	k := b.key(tok)
	st, ok := b.open[k]
	if !ok {
		st = &state{cg: model.NewCallGraph(k.Proc, k.PID)}
		b.open[k] = st
		b.keys = append(b.keys, k)
	}
	return st
}

// AddLine feeds one function-graph call, leaf or return line. It returns the
// graph when this line closed it, nil otherwise.
func (b *Builder) AddLine(tok token.Token) *model.CallGraph {
	if tok.Kind != token.FuncGraph || tok.Graph == token.GraphNone {
		return nil
	}
	if tok.Graph == token.GraphEvent {
		b.AddEvent(tok)
		return nil
	}
	st := b.state(tok)
	st.cpu = tok.CPU
	cg := st.cg

	line := model.CallGraphLine{Time: tok.Time, Depth: tok.Depth, Name: tok.Name, Length: tok.Dur}
	switch tok.Graph {
	case token.GraphCall:
		line.Kind = model.LineCall
	case token.GraphLeaf:
		line.Kind = model.LineLeaf
	case token.GraphReturn:
		line.Kind = model.LineReturn
	}
	if !cg.Invalid {
		switch line.Kind {
		case model.LineCall:
			line.Depth = st.depth
			st.depth++
		case model.LineReturn:
			st.depth--
			line.Depth = st.depth
		default:
			line.Depth = st.depth
		}
	}

	if line.Depth == 0 && tok.Graph.IsReturn() {
		cg.End = line.Time
		cg.Lines = append(cg.Lines, line)
		if !model.IsSet(cg.Start) {
			cg.Start = line.Time
		}
		return b.complete(tok)
	}
	if cg.Invalid {
		return nil
	}
	if len(cg.Lines) >= b.opts.MaxLines || st.depth < 0 {
		if len(cg.Lines) > 0 {
			cg.Lines = cg.Lines[:1:1]
		}
		cg.Invalid = true
		who := fmt.Sprintf("task %s-%d cpu %d", tok.Proc, tok.PID, st.cpu)
		if st.depth < 0 {
			diag.Warnf(b.opts.Reporter, diag.GraphUnderflow, tok.Span,
				"too much data for %s (buffer overflow), ignoring this callback", who)
		} else {
			diag.Warnf(b.opts.Reporter, diag.GraphOverflow, tok.Span,
				"too much data for %s (%f - %f), ignoring this callback", who, cg.Start, line.Time)
		}
		return nil
	}
	cg.Lines = append(cg.Lines, line)
	if !model.IsSet(cg.Start) {
		cg.Start = line.Time
	}
	return nil
}

// AddEvent appends a trace event to the open graph of its key. Events never
// start a graph and never move the depth counter.
func (b *Builder) AddEvent(tok token.Token) {
	st, ok := b.open[b.key(tok)]
	if !ok || len(st.cg.Lines) == 0 || st.cg.Invalid {
		return
	}
	st.cg.Lines = append(st.cg.Lines, model.CallGraphLine{
		Time:  tok.Time,
		Depth: st.depth,
		Kind:  model.LineEvent,
		Name:  tok.Name,
	})
}

func (b *Builder) complete(tok token.Token) *model.CallGraph {
	k := b.key(tok)
	st := b.open[k]
	cg := st.cg
	b.graphs = append(b.graphs, cg)
	b.open[k] = &state{cg: model.NewCallGraph(k.Proc, k.PID)}
	return cg
}

// Graphs returns the closed graphs in closing order. Graphs still open are
// reported and dropped.
func (b *Builder) Graphs() []*model.CallGraph {
	for _, k := range b.keys {
		st := b.open[k]
		if len(st.cg.Lines) == 0 {
			continue
		}
		diag.Infof(b.opts.Reporter, diag.GraphUnterminated, source.NoSpan,
			"call graph for %s starting at %f never returned to depth 0", k, st.cg.Start)
		b.open[k] = &state{cg: model.NewCallGraph(k.Proc, k.PID)}
	}
	return b.graphs
}
