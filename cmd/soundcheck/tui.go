package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
	"github.com/linuxmatters/soundcheck/internal/ui"
)

// runBatchTUI runs the batch behind the progress UI. Quitting the UI
// cancels the files that have not started yet.
func runBatchTUI(ctx context.Context, a *app, files []string, opts pipeline.ProcessOptions, concurrency int) (batch.Report[*pipeline.ProcessingResult], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(files, concurrency), tea.WithAltScreen())
	opts.Hooks = ui.BatchHooks(p)

	// Duplicate paths report against their first position
	index := make(map[string]int, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		index[files[i]] = i
	}
	opts.FileProgress = func(path string, fraction float64) {
		p.Send(ui.ProgressMsg{FileIndex: index[path], Progress: fraction})
	}

	done := make(chan batch.Report[*pipeline.ProcessingResult], 1)
	go func() {
		report := a.svc.BatchProcess(ctx, files, opts, concurrency)
		p.Send(ui.AllCompleteMsg{Summary: report.Summary})
		done <- report
	}()

	final, err := p.Run()
	if err != nil {
		return batch.Report[*pipeline.ProcessingResult]{}, fmt.Errorf("UI error: %w", err)
	}
	cancel()
	report := <-done

	// The alt screen is gone once the program exits, so print the summary again
	if m, ok := final.(ui.Model); ok {
		m.Summary = report.Summary
		m.Done = true
		fmt.Println(m.View())
	}
	return report, nil
}
