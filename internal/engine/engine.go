package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
)

// Engine invokes ffmpeg and ffprobe
type Engine struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
	logger      hclog.Logger
}

// New creates an Engine using the given binary paths. Empty paths fall back to
// FFMPEG_PATH / FFPROBE_PATH and then to the binaries on $PATH.
func New(ffmpegPath, ffprobePath string, logger hclog.Logger) *Engine {
	return NewWithRunner(ffmpegPath, ffprobePath, ExecRunner{}, logger)
}

// NewWithRunner creates an Engine with a custom command runner (for testing)
func NewWithRunner(ffmpegPath, ffprobePath string, runner CommandRunner, logger hclog.Logger) *Engine {
	if ffmpegPath == "" {
		ffmpegPath = envOr("FFMPEG_PATH", "ffmpeg")
	}
	if ffprobePath == "" {
		ffprobePath = envOr("FFPROBE_PATH", "ffprobe")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Engine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      runner,
		logger:      logger.Named("engine"),
	}
}

// FFmpegPath returns the ffmpeg binary in use
func (e *Engine) FFmpegPath() string { return e.ffmpegPath }

// FFprobePath returns the ffprobe binary in use
func (e *Engine) FFprobePath() string { return e.ffprobePath }

// Validate checks that both binaries can be found
func (e *Engine) Validate() error {
	for _, bin := range []string{e.ffmpegPath, e.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

// Probe runs ffprobe and returns its stdout
func (e *Engine) Probe(ctx context.Context, args ...string) ([]byte, error) {
	e.logger.Trace("running ffprobe", "args", args)
	stdout, stderr, err := e.runner.Run(ctx, e.ffprobePath, args...)
	if err != nil {
		return stdout, newError(e.ffprobePath, args, stderr, err)
	}
	return stdout, nil
}

// Run runs ffmpeg and returns its stderr, where filters such as astats and
// silencedetect write their measurements.
func (e *Engine) Run(ctx context.Context, args ...string) ([]byte, error) {
	e.logger.Trace("running ffmpeg", "args", args)
	_, stderr, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return stderr, newError(e.ffmpegPath, args, stderr, err)
	}
	return stderr, nil
}

// RunWithProgress runs ffmpeg with -progress pipe:1 and reports completion
// relative to totalSeconds. Falls back to Run when cb is nil, totalSeconds is
// unknown or the runner cannot stream.
func (e *Engine) RunWithProgress(ctx context.Context, totalSeconds float64, cb ProgressFunc, args ...string) ([]byte, error) {
	streamer, ok := e.runner.(StreamingRunner)
	if cb == nil || totalSeconds <= 0 || !ok {
		return e.Run(ctx, args...)
	}

	full := append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	tracker := newProgressTracker(totalSeconds, cb)
	e.logger.Trace("running ffmpeg with progress", "args", full)
	stderr, err := streamer.RunStreaming(ctx, tracker.handleLine, e.ffmpegPath, full...)
	if err != nil {
		return stderr, newError(e.ffmpegPath, full, stderr, err)
	}
	return stderr, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
