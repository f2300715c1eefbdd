package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// progressView is the --ui flag of analyze.
type progressView uint8

const (
	viewAuto progressView = iota
	viewOn
	viewOff
)

var viewNames = [...]string{viewAuto: "auto", viewOn: "on", viewOff: "off"}

func (v *progressView) String() string { return viewNames[*v] }

func (v *progressView) Type() string { return "auto|on|off" }

func (v *progressView) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		*v = viewAuto
		return nil
	}
	for i, name := range viewNames {
		if s == name {
			*v = progressView(i)
			return nil
		}
	}
	return errors.New("expected auto|on|off")
}

// drawn reports whether the live view runs. In auto mode it needs a
// terminal on stderr and no --quiet.
func (v progressView) drawn(quiet bool, stderr *os.File) bool {
	switch v {
	case viewOn:
		return true
	case viewOff:
		return false
	}
	return !quiet && isTerminal(stderr)
}

func viewFlag(cmd *cobra.Command) progressView {
	if f := cmd.Flags().Lookup("ui"); f != nil {
		if v, ok := f.Value.(*progressView); ok {
			return *v
		}
	}
	return viewAuto
}
