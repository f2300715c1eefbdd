package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"pmgraph/internal/driver"
	"pmgraph/internal/ui"
)

type analyzeOutcome struct {
	result *driver.Result
	err    error
}

// analyzeWithUI runs the analysis on its own goroutine while a progress
// view consumes its events.
func analyzeWithUI(ctx context.Context, out io.Writer, title string, in driver.Input, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Analyze(ctx, in, opts)
		outcomeCh <- analyzeOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, nil, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the producer from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
