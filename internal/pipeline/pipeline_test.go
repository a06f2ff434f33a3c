package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/config"
	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/engine/enginetest"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/processor"
)

var derivedName = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_(audio|enhanced|hifi)\.[a-z0-9]+$`)

// mediaEngine answers like ffmpeg would for a small library of files:
// anything named "silent*" has no audio stream
func mediaEngine(call enginetest.Call) (string, string, error) {
	if call.Binary() == "ffprobe" {
		if strings.Contains(filepath.Base(call.Output()), "silent") {
			return enginetest.ProbeVideoOnly, "", nil
		}
		return enginetest.ProbeVideoWithAudio, "", nil
	}

	if call.Output() == "-" {
		graph := call.ArgAfter("-af")
		switch {
		case strings.Contains(graph, "silencedetect"):
			return "", enginetest.EngineHeader + enginetest.SilenceLog + enginetest.AstatsSummary, nil
		case strings.Contains(graph, "aspectralstats"):
			return "", enginetest.EngineHeader + enginetest.SpectralFrames, nil
		default:
			return "", enginetest.EngineHeader + enginetest.AstatsSummary, nil
		}
	}

	return "", "", os.WriteFile(call.Output(), []byte("RIFF....WAVE"), 0o644)
}

type fixture struct {
	svc    *Service
	runner *enginetest.Runner
	cfg    *config.Config
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWith(t, mediaEngine)
}

func newFixtureWith(t *testing.T, handler func(enginetest.Call) (string, string, error)) fixture {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.UploadDir = filepath.Join(root, "uploads")
	cfg.AudioDir = filepath.Join(root, "audio")

	runner := enginetest.New(handler)
	logger := hclog.NewNullLogger()
	svc, err := NewWithEngine(cfg, engine.NewWithRunner("ffmpeg", "ffprobe", runner, logger), logger)
	require.NoError(t, err)

	return fixture{svc: svc, runner: runner, cfg: cfg}
}

func TestNewCreatesDirectories(t *testing.T) {
	f := newFixture(t)

	for _, dir := range []string{f.cfg.UploadDir, f.cfg.AudioDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm()&0o755)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.AudioDir = ""

	_, err := New(cfg, nil)
	assert.True(t, mediaerr.IsValidation(err))
}

func TestProbe(t *testing.T) {
	f := newFixture(t)

	meta := f.svc.Probe(context.Background(), "talk.mp4")
	require.NotNil(t, meta.Duration)
	assert.Equal(t, 10.0, *meta.Duration)
	assert.True(t, meta.HasAudio())
}

func TestExtractAudioNaming(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.ExtractAudio(context.Background(), "talk.mp4", processor.ExtractOptions{})
	require.NoError(t, err)
	second, err := f.svc.ExtractAudio(context.Background(), "talk.mp4", processor.ExtractOptions{Format: processor.FormatFLAC})
	require.NoError(t, err)

	assert.Equal(t, f.cfg.AudioDir, filepath.Dir(first))
	assert.Regexp(t, derivedName, filepath.Base(first))
	assert.True(t, strings.HasSuffix(first, "_audio.wav"))
	assert.True(t, strings.HasSuffix(second, "_audio.flac"))
	assert.NotEqual(t, first, second)
}

func TestHiFiExtract(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.HiFiExtract(context.Background(), "talk.mp4", processor.ExtractOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "_hifi.wav"))

	call := f.runner.CallsTo("ffmpeg")[0]
	assert.Equal(t, "44100", call.ArgAfter("-ar"))
	assert.Equal(t, "2", call.ArgAfter("-ac"))
}

func TestProcessMediaExtractOnly(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ProcessMedia(context.Background(), "talk.mp4", ProcessOptions{})
	require.NoError(t, err)

	assert.Equal(t, "talk.mp4", result.InputPath)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", result.Metadata.FormatName)
	assert.FileExists(t, result.AudioPath)
	assert.Nil(t, result.Quality)
	assert.Empty(t, result.Enhancements)
	assert.Empty(t, result.EnhancedPath)
	assert.Positive(t, int64(result.Duration))

	call := f.runner.CallsTo("ffmpeg")[0]
	assert.Equal(t, "16000", call.ArgAfter("-ar"))
	assert.Equal(t, "1", call.ArgAfter("-ac"))
}

func TestProcessMediaFull(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ProcessMedia(context.Background(), "talk.mp4", ProcessOptions{
		Analyze: true,
		Enhance: &processor.EnhanceOptions{
			HumNotch:       true,
			HumFrequency:   50,
			EnhanceAudio:   true,
			CompareQuality: true,
		},
		Report: true,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Quality)
	assert.Equal(t, 60.0, result.Quality.Score)
	assert.Equal(t, []string{"hum_notch", "gentle_compressor", "dc_block", "limiter"}, result.Enhancements)
	assert.Contains(t, result.Improvements, "Removed 50 Hz mains hum")
	assert.True(t, strings.HasSuffix(result.EnhancedPath, "_enhanced.wav"))
	assert.FileExists(t, result.EnhancedPath)
	require.NotNil(t, result.EnhancedQuality)

	assert.FileExists(t, result.ReportPath)
	assert.Equal(t, strings.TrimSuffix(result.EnhancedPath, ".wav")+".log", result.ReportPath)
}

func TestProcessMediaNoAudio(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessMedia(context.Background(), "silent.mp4", ProcessOptions{Analyze: true})

	require.Error(t, err)
	assert.True(t, errors.Is(err, mediaerr.ErrTranscodeFailed))

	entries, err := os.ReadDir(f.cfg.AudioDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output is left behind")
}

func TestProcessMediaEnhanceFailureRemovesAudio(t *testing.T) {
	f := newFixtureWith(t, func(call enginetest.Call) (string, string, error) {
		if strings.Contains(call.Output(), "_enhanced") {
			return "", "Conversion failed!", errors.New("exit status 1")
		}
		return mediaEngine(call)
	})

	_, err := f.svc.ProcessMedia(context.Background(), "talk.mp4", ProcessOptions{
		Enhance: &processor.EnhanceOptions{Compressor: true},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mediaerr.ErrTranscodeFailed))

	entries, err := os.ReadDir(f.cfg.AudioDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the extracted audio is removed with the failed run")
}

func TestBatchProcessHooksArePerCall(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	started := map[int]string{}
	opts := ProcessOptions{Hooks: batch.Hooks[*ProcessingResult]{
		OnStart: func(index int, path string) {
			mu.Lock()
			defer mu.Unlock()
			started[index] = path
		},
	}}

	f.svc.BatchProcess(context.Background(), []string{"a.mp4", "b.mp4"}, opts, 2)
	f.svc.BatchProcess(context.Background(), []string{"c.mp4"}, ProcessOptions{}, 2)

	assert.Equal(t, map[int]string{0: "a.mp4", 1: "b.mp4"}, started)
}

func TestProcessMediaValidatesFirst(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessMedia(context.Background(), "talk.mp4", ProcessOptions{
		Extract: processor.ExtractOptions{MaxDuration: -1},
	})
	assert.True(t, mediaerr.IsValidation(err))

	_, err = f.svc.ProcessMedia(context.Background(), "talk.mp4", ProcessOptions{
		Enhance: &processor.EnhanceOptions{LoudnessTarget: 3},
	})
	assert.True(t, mediaerr.IsValidation(err))

	assert.Empty(t, f.runner.Calls())
}

func TestBatchProcessIsolatesFailures(t *testing.T) {
	f := newFixture(t)

	paths := []string{"a.mp4", "silent.mp4", "b.mp4", "c.mkv"}
	report := f.svc.BatchProcess(context.Background(), paths, ProcessOptions{}, 2)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.Succeeded)
	assert.Equal(t, 1, report.Summary.Failed)

	for i, entry := range report.Entries {
		assert.Equal(t, paths[i], entry.Path)
		if entry.Path == "silent.mp4" {
			assert.False(t, entry.Success)
			assert.Contains(t, entry.Error, "no audio stream")
			assert.Nil(t, entry.Result)
			continue
		}
		assert.True(t, entry.Success)
		require.NotNil(t, entry.Result)
		assert.FileExists(t, entry.Result.AudioPath)
	}
}

func TestParseProcessOptions(t *testing.T) {
	opts, err := ParseProcessOptions([]byte(`
extract:
  format: mp3
  bitrate: 128k
analyze: true
enhance:
  noise_reduction: true
  loudness_normalization: true
  loudness_target: -19
  equalizer:
    low: {frequency: 100, gain: -3}
`))
	require.NoError(t, err)

	assert.Equal(t, processor.FormatMP3, opts.Extract.Format)
	assert.Equal(t, "128k", opts.Extract.Bitrate)
	assert.True(t, opts.Analyze)
	require.NotNil(t, opts.Enhance)
	assert.Equal(t, -19.0, opts.Enhance.LoudnessTarget)
	require.NotNil(t, opts.Enhance.Equalizer.Low)
	assert.Equal(t, 100.0, opts.Enhance.Equalizer.Low.Frequency)

	_, err = ParseProcessOptions([]byte("analyse: true\n"))
	assert.True(t, mediaerr.IsValidation(err), "misspelt keys are rejected")

	_, err = ParseProcessOptions([]byte("extract: {format: aiff}\n"))
	assert.True(t, mediaerr.IsValidation(err))
}

func TestForFileBindsPath(t *testing.T) {
	var gotPath string
	var gotFraction float64
	opts := ProcessOptions{FileProgress: func(path string, fraction float64) {
		gotPath, gotFraction = path, fraction
	}}

	bound := opts.forFile("/media/a.mp4")
	require.NotNil(t, bound.Progress)
	bound.Progress(0.25)
	assert.Equal(t, "/media/a.mp4", gotPath)
	assert.InDelta(t, 0.25, gotFraction, 1e-9)

	assert.Nil(t, ProcessOptions{}.forFile("x").Progress)
}
