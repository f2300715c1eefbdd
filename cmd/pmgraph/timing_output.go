package main

import (
	"fmt"
	"io"

	"pmgraph/internal/driver"
)

func printTimings(out io.Writer, res *driver.Result) {
	if out == nil || res == nil {
		return
	}
	if res.Cached {
		fmt.Fprintln(out, "timings: served from cache")
	}
	fmt.Fprint(out, res.Timer.Summary())
}
