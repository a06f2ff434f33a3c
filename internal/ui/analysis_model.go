package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/soundcheck/internal/probe"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// AnalysisModel is the Bubbletea model for the analyze command. The
// measurement passes report no progress, so it shows a spinner.
type AnalysisModel struct {
	FileName  string
	FilePath  string
	StartTime time.Time

	spinnerIndex int

	// Results (populated when complete)
	Metadata probe.MediaMetadata
	Info     *quality.Info
	Error    error
	Done     bool

	// Terminal dimensions
	Width  int
	Height int
}

// AnalysisStartMsg signals analysis has started
type AnalysisStartMsg struct {
	FilePath string
}

// AnalysisCompleteMsg signals analysis has completed
type AnalysisCompleteMsg struct {
	Metadata probe.MediaMetadata
	Info     *quality.Info
	Error    error
}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time

// NewAnalysisModel creates a new analysis UI model
func NewAnalysisModel() AnalysisModel {
	return AnalysisModel{
		StartTime: time.Now(),
	}
}

// Init initializes the model
func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case AnalysisStartMsg:
		m.FileName = filepath.Base(msg.FilePath)
		m.FilePath = msg.FilePath
		m.StartTime = time.Now()
		return m, nil

	case AnalysisCompleteMsg:
		m.Metadata = msg.Metadata
		m.Info = msg.Info
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m AnalysisModel) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColour).
		Render("Soundcheck")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColour).
		Italic(true).
		Render("Analysis Mode")

	b.WriteString(title + " " + subtitle)
	b.WriteString("\n\n")

	if m.FileName == "" {
		b.WriteString("Waiting...")
		return b.String()
	}

	b.WriteString("Analysing: ")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.FileName))
	b.WriteString("\n\n")

	elapsed := time.Since(m.StartTime)
	if !m.Done {
		spinner := lipgloss.NewStyle().Foreground(accentColour).Render(spinnerFrames[m.spinnerIndex])
		b.WriteString(fmt.Sprintf("%s Measuring levels, spectrum and silence... [%s]", spinner, formatElapsed(elapsed)))
	} else if m.Error != nil {
		b.WriteString(fmt.Sprintf("Error: %v", m.Error))
	} else if m.Info != nil {
		b.WriteString(fmt.Sprintf("Score: %.0f/100 [%s]", m.Info.Score, formatElapsed(elapsed)))
	}
	b.WriteString("\n")

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
