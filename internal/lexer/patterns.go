package lexer

import "regexp"

var (
	stampRe = regexp.MustCompile(`^# suspend-(?P<m>[0-9]{2})(?P<d>[0-9]{2})(?P<y>[0-9]{2})-` +
		`(?P<H>[0-9]{2})(?P<M>[0-9]{2})(?P<S>[0-9]{2})` +
		` (?P<host>.*) (?P<mode>.*) (?P<kernel>.*)$`)
	firmwareRe = regexp.MustCompile(`^# fwsuspend (?P<s>[0-9]*) fwresume (?P<r>[0-9]*)$`)
	tracerRe   = regexp.MustCompile(`^# tracer: (?P<t>.*)`)

	kernelRe = regexp.MustCompile(`^[ \t]*(\[ *)(?P<ktime>[0-9\.]*)(\]) (?P<msg>.*)`)

	funcGraphRe = regexp.MustCompile(`^ *(?P<time>[0-9\.]*) *\| *(?P<cpu>[0-9]*)\)` +
		` *(?P<proc>.*)-(?P<pid>[0-9]*) *\|` +
		`[ +!]*(?P<dur>[0-9\.]*) .*\|  (?P<msg>.*)`)
	nopRe = regexp.MustCompile(`^ *(?P<proc>.*)-(?P<pid>[0-9]*) *\[(?P<cpu>[0-9]*)\] *` +
		`(?P<flags>.{4}) *(?P<time>[0-9\.]*): *` +
		`(?P<call>.*): (?P<msg>.*)`)

	graphEventRe  = regexp.MustCompile(`^ *\/\* *(?P<msg>.*) \*\/ *$`)
	eventClassRe  = regexp.MustCompile(`^(?P<call>.*): (?P<msg>.*)`)
	graphReturnRe = regexp.MustCompile(`^} *\/\* *(?P<n>.*) *\*\/$`)
	graphNameRe   = regexp.MustCompile(`^(?P<n>.*) *\(.*`)
)

// group returns the named submatch of m, or "" when absent.
func group(re *regexp.Regexp, m []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}
