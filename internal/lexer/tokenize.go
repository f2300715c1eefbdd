package lexer

import (
	"strconv"
	"strings"
	"time"

	"pmgraph/internal/token"
)

type status uint8

const (
	noMatch status = iota
	matched
	badTime
)

// Tokenize converts one raw line into a token. Header lines are recognized
// in every format; everything else is matched against the grammar of f.
// Lines that do not match are reported with ok=false and are not errors.
// The returned token has an empty Span.
func Tokenize(line string, f Format) (token.Token, bool) {
	tok, st := tokenize(line, f)
	return tok, st == matched
}

func tokenize(line string, f Format) (token.Token, status) {
	line = strings.TrimSuffix(line, "\r")
	if strings.HasPrefix(line, "#") {
		if tok, ok := header(line); ok {
			return tok, matched
		}
		return token.Token{}, noMatch
	}
	switch f {
	case FormatKernel:
		return kernelLine(line)
	case FormatFuncGraph:
		return funcGraphLine(line)
	case FormatNop:
		return nopLine(line)
	}
	return token.Token{}, noMatch
}

func header(line string) (token.Token, bool) {
	if m := stampRe.FindStringSubmatch(line); m != nil {
		num := func(name string) int {
			v, _ := strconv.Atoi(group(stampRe, m, name))
			return v
		}
		return token.Token{
			Kind: token.Stamp,
			Stamp: token.StampInfo{
				Time: time.Date(2000+num("y"), time.Month(num("m")), num("d"),
					num("H"), num("M"), num("S"), 0, time.UTC),
				Host:   group(stampRe, m, "host"),
				Mode:   group(stampRe, m, "mode"),
				Kernel: group(stampRe, m, "kernel"),
			},
		}, true
	}
	if m := firmwareRe.FindStringSubmatch(line); m != nil {
		s, _ := strconv.ParseInt(group(firmwareRe, m, "s"), 10, 64)
		r, _ := strconv.ParseInt(group(firmwareRe, m, "r"), 10, 64)
		return token.Token{Kind: token.Firmware, FwSuspend: s, FwResume: r}, true
	}
	if m := tracerRe.FindStringSubmatch(line); m != nil {
		return token.Token{Kind: token.Tracer, TracerID: strings.TrimSpace(group(tracerRe, m, "t"))}, true
	}
	return token.Token{}, false
}

func kernelLine(line string) (token.Token, status) {
	m := kernelRe.FindStringSubmatch(line)
	if m == nil {
		// syslog priority prefixes such as "<6>[ 1.0] ..." precede the stamp
		if idx := strings.IndexByte(line, '['); idx > 1 {
			m = kernelRe.FindStringSubmatch(line[idx:])
		}
		if m == nil {
			return token.Token{}, noMatch
		}
	}
	t, err := strconv.ParseFloat(group(kernelRe, m, "ktime"), 64)
	if err != nil {
		return token.Token{}, badTime
	}
	return token.Token{
		Kind: token.Kernel,
		Time: t,
		Msg:  group(kernelRe, m, "msg"),
	}, matched
}

func funcGraphLine(line string) (token.Token, status) {
	m := funcGraphRe.FindStringSubmatch(line)
	if m == nil {
		return token.Token{}, noMatch
	}
	ts, pid, msg := group(funcGraphRe, m, "time"), group(funcGraphRe, m, "pid"), group(funcGraphRe, m, "msg")
	if ts == "" || pid == "" || msg == "" {
		return token.Token{}, noMatch
	}
	tok := token.Token{Kind: token.FuncGraph, Proc: strings.TrimSpace(group(funcGraphRe, m, "proc"))}
	var err error
	if tok.Time, err = strconv.ParseFloat(ts, 64); err != nil {
		return token.Token{}, badTime
	}
	if tok.PID, err = strconv.Atoi(pid); err != nil {
		return token.Token{}, noMatch
	}
	tok.CPU, _ = strconv.Atoi(group(funcGraphRe, m, "cpu"))
	if !classifyGraph(&tok, msg) {
		return token.Token{}, noMatch
	}
	if tok.Graph != token.GraphEvent {
		if d := group(funcGraphRe, m, "dur"); d != "" {
			us, err := strconv.ParseFloat(d, 64)
			if err == nil {
				tok.Dur = us / 1e6
			}
		}
	}
	return tok, matched
}

// classifyGraph fills the graph fields from the text after the duration
// column. It returns false when the text is empty.
func classifyGraph(tok *token.Token, msg string) bool {
	if em := graphEventRe.FindStringSubmatch(msg); em != nil {
		tok.Graph = token.GraphEvent
		tok.Name = group(graphEventRe, em, "msg")
		tok.Msg = tok.Name
		if cm := eventClassRe.FindStringSubmatch(tok.Name); cm != nil {
			tok.Call = group(eventClassRe, cm, "call")
			tok.Name = group(eventClassRe, cm, "msg")
		}
		return true
	}
	text := strings.TrimLeft(msg, " ")
	if text == "" {
		return false
	}
	tok.Indent = msg[:len(msg)-len(text)]
	tok.Depth = len(tok.Indent) / 2
	tok.Msg = text
	switch {
	case text[0] == '}':
		tok.Graph = token.GraphReturn
		if rm := graphReturnRe.FindStringSubmatch(text); rm != nil {
			tok.Name = strings.TrimSpace(group(graphReturnRe, rm, "n"))
		}
	case strings.HasSuffix(text, "{"):
		tok.Graph = token.GraphCall
		tok.Name = callName(text)
	case strings.HasSuffix(text, ";"):
		tok.Graph = token.GraphLeaf
		tok.Name = callName(text)
	default:
		// trace markers and other annotations open a call like "name() {"
		tok.Graph = token.GraphCall
		tok.Name = text
	}
	return true
}

func callName(text string) string {
	if m := graphNameRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(group(graphNameRe, m, "n"))
	}
	return ""
}

func nopLine(line string) (token.Token, status) {
	m := nopRe.FindStringSubmatch(line)
	if m == nil {
		return token.Token{}, noMatch
	}
	ts, pid, msg := group(nopRe, m, "time"), group(nopRe, m, "pid"), group(nopRe, m, "msg")
	if ts == "" || pid == "" || msg == "" {
		return token.Token{}, noMatch
	}
	tok := token.Token{
		Kind:  token.Nop,
		Proc:  strings.TrimSpace(group(nopRe, m, "proc")),
		Flags: group(nopRe, m, "flags"),
		Call:  group(nopRe, m, "call"),
		Msg:   msg,
		Name:  msg,
		Graph: token.GraphEvent,
	}
	var err error
	if tok.Time, err = strconv.ParseFloat(ts, 64); err != nil {
		return token.Token{}, badTime
	}
	if tok.PID, err = strconv.Atoi(pid); err != nil {
		return token.Token{}, noMatch
	}
	tok.CPU, _ = strconv.Atoi(group(nopRe, m, "cpu"))
	return tok, matched
}
