package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModelTracksConcurrentFiles(t *testing.T) {
	m := NewModel([]string{"a.mp4", "b.mp4", "c.mp4"}, 2)

	m = update(t, m, FileStartMsg{FileIndex: 0, FileName: "a.mp4"})
	m = update(t, m, FileStartMsg{FileIndex: 1, FileName: "b.mp4"})
	assert.Equal(t, 2, m.Active())

	m = update(t, m, ProgressMsg{FileIndex: 0, Progress: 0.5})
	assert.InDelta(t, 0.5, m.Files[0].Progress, 1e-9)

	// Progress for a queued file is ignored
	m = update(t, m, ProgressMsg{FileIndex: 2, Progress: 0.9})
	assert.Zero(t, m.Files[2].Progress)

	m = update(t, m, FileCompleteMsg{FileIndex: 0, Result: &pipeline.ProcessingResult{AudioPath: "/out/x_audio.wav"}})
	m = update(t, m, FileCompleteMsg{FileIndex: 1, Error: errors.New("no audio stream")})

	assert.Equal(t, StatusComplete, m.Files[0].Status)
	assert.Equal(t, 1.0, m.Files[0].Progress)
	assert.Equal(t, StatusError, m.Files[1].Status)
	assert.Equal(t, 1, m.CompletedFiles)
	assert.Equal(t, 1, m.FailedFiles)
	assert.Equal(t, 0, m.Active())

	view := m.View()
	assert.Contains(t, view, "Soundcheck")
	assert.Contains(t, view, "x_audio.wav")
	assert.Contains(t, view, "no audio stream")
	assert.Contains(t, view, "Queued...")
}

func TestModelOutOfRangeIndexIgnored(t *testing.T) {
	m := NewModel([]string{"a.mp4"}, 2)
	m = update(t, m, FileStartMsg{FileIndex: 5})
	m = update(t, m, FileCompleteMsg{FileIndex: -1})
	assert.Equal(t, StatusQueued, m.Files[0].Status)
	assert.Zero(t, m.CompletedFiles)
}

func TestModelAllCompleteQuits(t *testing.T) {
	m := NewModel([]string{"a.mp4"}, 2)
	next, cmd := m.Update(AllCompleteMsg{Summary: batch.Summary{Total: 1, Succeeded: 1, TotalTime: 3 * time.Second}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	done := next.(Model)
	assert.True(t, done.Done)
	assert.Contains(t, done.View(), "1 succeeded, 0 failed, 1 total in 00:03")
}

func TestResultSummary(t *testing.T) {
	file := FileProgress{Result: &pipeline.ProcessingResult{
		AudioPath:       "/out/a_audio.wav",
		EnhancedPath:    "/out/b_enhanced.wav",
		Quality:         &quality.Info{Score: 60},
		EnhancedQuality: &quality.Info{Score: 80},
	}}
	assert.Equal(t, "→ a_audio.wav | → b_enhanced.wav | Score: 60 → 80", resultSummary(file))
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestBatchHooks(t *testing.T) {
	sender := &recordingSender{}
	hooks := BatchHooks(sender)

	hooks.OnStart(0, "a.mp4")
	hooks.OnDone(0, batch.Entry[*pipeline.ProcessingResult]{Path: "a.mp4", Success: false, Error: "boom"})

	require.Len(t, sender.msgs, 2)
	assert.Equal(t, FileStartMsg{FileIndex: 0, FileName: "a.mp4"}, sender.msgs[0])
	complete, ok := sender.msgs[1].(FileCompleteMsg)
	require.True(t, ok)
	assert.EqualError(t, complete.Error, "boom")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "01:05", formatElapsed(65*time.Second))
	assert.Equal(t, "01:00:01", formatElapsed(time.Hour+time.Second))
}

func TestAnalysisModelCompletes(t *testing.T) {
	m := NewAnalysisModel()
	next, _ := m.Update(AnalysisStartMsg{FilePath: "/media/talk.mp4"})
	m = next.(AnalysisModel)
	assert.Contains(t, m.View(), "talk.mp4")

	next, cmd := m.Update(AnalysisCompleteMsg{Info: &quality.Info{Score: 72}})
	m = next.(AnalysisModel)
	require.NotNil(t, cmd)
	assert.True(t, m.Done)
	assert.Contains(t, m.View(), "Score: 72/100")
}
