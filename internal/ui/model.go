// Package ui provides the Bubbletea terminal user interface for soundcheck
package ui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
)

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusProcessing
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single media file
type FileProgress struct {
	InputPath string
	Status    FileStatus

	Progress    float64 // 0.0 to 1.0, extraction only
	StartTime   time.Time
	ElapsedTime time.Duration

	Result *pipeline.ProcessingResult
	Error  error
}

// Model is the Bubbletea model for batch processing. Several files can be
// active at once, one per slot of the current wave.
type Model struct {
	Files          []FileProgress
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int
	Concurrency    int

	StartTime time.Time
	Summary   batch.Summary
	Done      bool

	bar progress.Model

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string, concurrency int) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{InputPath: path, Status: StatusQueued}
	}

	return Model{
		Files:       files,
		TotalFiles:  len(inputFiles),
		Concurrency: concurrency,
		StartTime:   time.Now(),
		bar:         progress.New(progress.WithGradient("#A40000", "#FFA500"), progress.WithWidth(40)),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.bar.Width = min(40, max(10, msg.Width-30))

	case FileStartMsg:
		if f := m.file(msg.FileIndex); f != nil {
			f.Status = StatusProcessing
			f.StartTime = time.Now()
		}

	case ProgressMsg:
		if f := m.file(msg.FileIndex); f != nil && f.Status == StatusProcessing {
			f.Progress = msg.Progress
			f.ElapsedTime = time.Since(f.StartTime)
		}

	case FileCompleteMsg:
		if f := m.file(msg.FileIndex); f != nil {
			f.ElapsedTime = time.Since(f.StartTime)
			f.Result = msg.Result
			f.Error = msg.Error
			if msg.Error != nil {
				f.Status = StatusError
				m.FailedFiles++
			} else {
				f.Status = StatusComplete
				f.Progress = 1
				m.CompletedFiles++
			}
		}

	case AllCompleteMsg:
		m.Summary = msg.Summary
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// file returns the entry at index, or nil when out of range
func (m *Model) file(index int) *FileProgress {
	if index < 0 || index >= len(m.Files) {
		return nil
	}
	return &m.Files[index]
}

// Active returns the number of files currently processing
func (m Model) Active() int {
	n := 0
	for _, f := range m.Files {
		if f.Status == StatusProcessing {
			n++
		}
	}
	return n
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// Sender delivers messages to a running program, as tea.Program does
type Sender interface {
	Send(msg tea.Msg)
}

// BatchHooks returns batch hooks that report to a running program
func BatchHooks(p Sender) batch.Hooks[*pipeline.ProcessingResult] {
	return batch.Hooks[*pipeline.ProcessingResult]{
		OnStart: func(index int, path string) {
			p.Send(FileStartMsg{FileIndex: index, FileName: path})
		},
		OnDone: func(index int, entry batch.Entry[*pipeline.ProcessingResult]) {
			msg := FileCompleteMsg{FileIndex: index, Result: entry.Result}
			if !entry.Success {
				msg.Error = errors.New(entry.Error)
			}
			p.Send(msg)
		},
	}
}
