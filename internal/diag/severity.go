package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics. Errors belong to runs that could not be
// built; the rest were recovered from.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts a severity name in any case; "warn" is short for
// warning.
func ParseSeverity(name string) (Severity, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "warn") {
		return SevWarning, nil
	}
	for s, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(s), nil
		}
	}
	return SevInfo, fmt.Errorf("unknown severity %q (expected info|warning|error)", name)
}
