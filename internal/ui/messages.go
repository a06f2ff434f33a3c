package ui

import (
	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
)

// FileStartMsg indicates a file's run has started
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// ProgressMsg carries extraction progress for one file
type ProgressMsg struct {
	FileIndex int
	Progress  float64 // 0.0 to 1.0
}

// FileCompleteMsg indicates a file has finished, successfully or not
type FileCompleteMsg struct {
	FileIndex int
	Result    *pipeline.ProcessingResult
	Error     error
}

// AllCompleteMsg indicates the batch has finished
type AllCompleteMsg struct {
	Summary batch.Summary
}
