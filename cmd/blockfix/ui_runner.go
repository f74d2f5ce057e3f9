package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"blockfix/internal/driver"
	"blockfix/internal/pipeline"
	"blockfix/internal/ui"
)

type batchOutcome struct {
	result *driver.BatchResult
	err    error
}

// runBatchWithUI runs the batch in the background and renders its events
// until the driver closes the channel.
func runBatchWithUI(ctx context.Context, out io.Writer, title string, files []string, opts driver.Options) (*driver.BatchResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		opts.Sink = pipeline.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, files, opts)
		outcomeCh <- batchOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// UI ушёл раньше: дочитываем события, чтобы не блокировать воркеры
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	return outcome.result, nil
}
