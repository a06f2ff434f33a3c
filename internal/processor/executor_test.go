package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

func TestEnhanceMinimalChain(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dst := filepath.Join(t.TempDir(), "enhanced.wav")
	result, err := c.enhancer.Enhance(context.Background(), "in.wav", dst, EnhanceOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "in.wav", result.OriginalPath)
	assert.Equal(t, dst, result.OutputPath)
	assert.Equal(t, []string{"dc_block", "limiter"}, result.Stages)
	assert.Len(t, result.Improvements, 2)
	assert.Nil(t, result.Before)
	assert.Nil(t, result.After)

	_, ok := result.QualityImprovement()
	assert.False(t, ok)

	calls := c.runner.CallsTo("ffmpeg")
	require.Len(t, calls, 1, "no analysis without enhance_audio or compare_quality")
	assert.Equal(t, "44100", calls[0].ArgAfter("-ar"))
	assert.True(t, strings.HasSuffix(calls[0].ArgAfter("-af"), "level=0"))
}

func TestEnhanceWithAnalysis(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dst := filepath.Join(t.TempDir(), "enhanced.wav")
	result, err := c.enhancer.Enhance(context.Background(), "in.wav", dst, EnhanceOptions{
		EnhanceAudio:   true,
		CompareQuality: true,
	}, nil)
	require.NoError(t, err)

	// Centroid 500 is not below the rumble threshold; DR 8 is narrow
	assert.Equal(t, []string{"gentle_compressor", "dc_block", "limiter"}, result.Stages)
	require.NotNil(t, result.Before)
	require.NotNil(t, result.After)

	delta, ok := result.QualityImprovement()
	assert.True(t, ok)
	assert.Equal(t, 0.0, delta)

	// Three passes before, one transcode, three passes after
	assert.Len(t, c.runner.CallsTo("ffmpeg"), 7)
}

func TestEnhanceResolvesHumFrequency(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dst := filepath.Join(t.TempDir(), "enhanced.wav")
	result, err := c.enhancer.Enhance(context.Background(), "in.wav", dst, EnhanceOptions{HumNotch: true}, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Improvements, "Removed 60 Hz mains hum")
	graph := c.runner.CallsTo("ffmpeg")[0].ArgAfter("-af")
	assert.Contains(t, graph, "bandreject=f=60:t=q:w=30,bandreject=f=120:t=q:w=30")
}

func TestEnhanceTwoPassLoudness(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dst := filepath.Join(t.TempDir(), "enhanced.wav")
	result, err := c.enhancer.Enhance(context.Background(), "in.wav", dst, EnhanceOptions{
		LoudnessNormalization: true,
		LoudnessTwoPass:       true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Normalized loudness from -27.6 to -16.0 LUFS", result.Improvements[0])

	calls := c.runner.CallsTo("ffmpeg")
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].ArgAfter("-af"), "print_format=json")
	assert.Contains(t, calls[1].ArgAfter("-af"), "measured_I=-27.61")
	assert.Contains(t, calls[1].ArgAfter("-af"), "linear=true")
}

func TestEnhanceTwoPassFallsBackToSinglePass(t *testing.T) {
	f := newFakeEngine()
	f.failAnalysis = true
	c := newComponents(t, f)

	dst := filepath.Join(t.TempDir(), "enhanced.wav")
	result, err := c.enhancer.Enhance(context.Background(), "in.wav", dst, EnhanceOptions{
		LoudnessNormalization: true,
		LoudnessTwoPass:       true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Normalized loudness to -16.0 LUFS", result.Improvements[0])
}

func TestEnhanceInPlace(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dir := t.TempDir()
	input := filepath.Join(dir, "episode.wav")
	require.NoError(t, os.WriteFile(input, []byte("original"), 0o644))

	result, err := c.enhancer.Enhance(context.Background(), input, input, EnhanceOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, input, result.OutputPath)

	// The transcode wrote to a sibling, never to the file it was reading
	call := c.runner.CallsTo("ffmpeg")[0]
	assert.Equal(t, input, call.ArgAfter("-i"))
	assert.NotEqual(t, input, call.Output())
	assert.Equal(t, dir, filepath.Dir(call.Output()))

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "RIFF....WAVE", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")
}

func TestEnhanceInPlaceRejectsFormatChange(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	dir := t.TempDir()
	input := filepath.Join(dir, "episode.mp3")
	require.NoError(t, os.WriteFile(input, []byte("original"), 0o644))

	_, err := c.enhancer.Enhance(context.Background(), input, input, EnhanceOptions{}, nil)
	assert.True(t, mediaerr.IsValidation(err))
	assert.Empty(t, c.runner.Calls())

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnhanceInPlaceFailureKeepsInput(t *testing.T) {
	f := newFakeEngine()
	f.extractErr = errors.New("exit status 1")
	c := newComponents(t, f)

	dir := t.TempDir()
	input := filepath.Join(dir, "episode.wav")
	require.NoError(t, os.WriteFile(input, []byte("original"), 0o644))

	_, err := c.enhancer.Enhance(context.Background(), input, input, EnhanceOptions{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mediaerr.ErrTranscodeFailed))

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnhanceRejectsInvalidOptions(t *testing.T) {
	c := newComponents(t, newFakeEngine())

	_, err := c.enhancer.Enhance(context.Background(), "in.wav", "out.wav", EnhanceOptions{HumFrequency: 55}, nil)
	assert.True(t, mediaerr.IsValidation(err))
	assert.Empty(t, c.runner.Calls())
}

func TestQualityImprovement(t *testing.T) {
	r := &EnhancementResult{
		Before: &quality.Info{Score: 45},
		After:  &quality.Info{Score: 80},
	}
	delta, ok := r.QualityImprovement()
	assert.True(t, ok)
	assert.Equal(t, 35.0, delta)

	var nilResult *EnhancementResult
	_, ok = nilResult.QualityImprovement()
	assert.False(t, ok)
}
