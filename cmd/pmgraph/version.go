package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pmgraph/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	Go        string `json:"go"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the pmgraph build identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "pretty":
				colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
				renderVersionPretty(cmd.OutOrStdout(), colorFlag)
				return nil
			case "json":
				return renderVersionJSON(cmd.OutOrStdout())
			default:
				return usageError{fmt.Errorf("unsupported format %q (must be pretty or json)", format)}
			}
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func renderVersionPretty(w io.Writer, colorFlag string) {
	switch colorFlag {
	case "off":
		color.NoColor = true
	case "on":
		color.NoColor = false
	}
	fmt.Fprintln(w, version.String())
}

func renderVersionJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(versionPayload{
		Tool:      "pmgraph",
		Version:   version.Version,
		GitCommit: version.GitCommit,
		BuildDate: version.BuildDate,
		Go:        runtime.Version(),
	})
}
