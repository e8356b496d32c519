package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"gxpc/internal/driver"
	"gxpc/internal/ui"
)

type checkOutcome struct {
	report *driver.Report
	err    error
}

// runCheckWithUI runs the driver in the background and renders its progress
// until every unit is done.
func runCheckWithUI(ctx context.Context, title string, s *checkSetup) (*driver.Report, error) {
	files, err := driver.ListUnits(s.paths)
	if err != nil {
		return nil, err
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts := s.opts
		sink := ui.ChannelSink{Ch: events}
		opts.Observer = sink.Unit
		opts.PhaseObserver = sink.Phase
		report, err := driver.Check(ctx, s.paths, opts)
		outcomeCh <- checkOutcome{report: report, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// после Ctrl+C модель больше не читает канал
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
