package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColour = lipgloss.Color("#A40000")
	mutedColour  = lipgloss.Color("#888888")
	okColour     = lipgloss.Color("#00AA00")
	activeColour = lipgloss.Color("#FFA500")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColour).
		Render("Soundcheck - Media Audio Pipeline")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColour).
		Italic(true).
		Render(fmt.Sprintf("Processing %d file(s), %d at a time", m.TotalFiles, m.Concurrency))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(m, file))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(m Model, file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColour).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, resultSummary(file))

	case StatusProcessing:
		icon := lipgloss.NewStyle().Foreground(activeColour).Render("⚙")
		return fmt.Sprintf(" %s %s\n   %s %s",
			icon, fileName, m.bar.ViewAs(file.Progress), formatElapsed(file.ElapsedTime))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(accentColour).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColour).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// resultSummary describes a finished file in one line
func resultSummary(file FileProgress) string {
	r := file.Result
	if r == nil {
		return fmt.Sprintf("Done in %s", formatElapsed(file.ElapsedTime))
	}

	parts := []string{"→ " + filepath.Base(r.AudioPath)}
	if r.EnhancedPath != "" {
		parts = append(parts, "→ "+filepath.Base(r.EnhancedPath))
	}
	switch {
	case r.Quality != nil && r.EnhancedQuality != nil:
		parts = append(parts, fmt.Sprintf("Score: %.0f → %.0f", r.Quality.Score, r.EnhancedQuality.Score))
	case r.Quality != nil:
		parts = append(parts, fmt.Sprintf("Score: %.0f", r.Quality.Score))
	}
	return strings.Join(parts, " | ")
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColour).
		Padding(0, 1).
		Width(60)

	finished := m.CompletedFiles + m.FailedFiles
	var fraction float64
	if m.TotalFiles > 0 {
		fraction = float64(finished) / float64(m.TotalFiles)
	}

	content := fmt.Sprintf("%s\n%d/%d finished, %d active, %d failed",
		m.bar.ViewAs(fraction), finished, m.TotalFiles, m.Active(), m.FailedFiles)

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	colour := okColour
	headline := "✨ Processing Complete!"
	if m.Summary.Failed > 0 {
		colour = activeColour
		headline = "Processing finished with failures"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colour).Render(headline))
	b.WriteString("\n\n")

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(m, file))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d succeeded, %d failed, %d total in %s\n",
		m.Summary.Succeeded, m.Summary.Failed, m.Summary.Total,
		formatElapsed(m.Summary.TotalTime)))

	return b.String()
}
