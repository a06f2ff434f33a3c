// Package pipeline is the caller-facing surface of soundcheck. It wires the
// prober, extractor, analyzer and enhancer around one engine and runs them
// per file, or over many files through the batch orchestrator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/config"
	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/logging"
	"github.com/linuxmatters/soundcheck/internal/probe"
	"github.com/linuxmatters/soundcheck/internal/processor"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// ProcessingResult is the outcome of one ProcessMedia run
type ProcessingResult struct {
	InputPath       string              `json:"input_path"`
	Metadata        probe.MediaMetadata `json:"metadata"`
	AudioPath       string              `json:"audio_path"`
	Quality         *quality.Info       `json:"quality,omitempty"`
	Enhancements    []string            `json:"enhancements,omitempty"`
	Improvements    []string            `json:"improvements,omitempty"`
	EnhancedPath    string              `json:"enhanced_path,omitempty"`
	EnhancedQuality *quality.Info       `json:"enhanced_quality,omitempty"`
	ReportPath      string              `json:"report_path,omitempty"`
	Duration        time.Duration       `json:"duration"`
}

// Service runs the media pipeline. It holds no per-run state; every run
// writes to freshly named files, so one Service may be shared by concurrent runs.
type Service struct {
	cfg    *config.Config
	logger hclog.Logger

	engine    *engine.Engine
	prober    *probe.Prober
	extractor *processor.Extractor
	analyzer  *processor.Analyzer
	enhancer  *processor.Enhancer
	batch     *batch.Orchestrator[*ProcessingResult]
}

// New creates a Service that runs the ffmpeg and ffprobe binaries named in cfg
func New(cfg *config.Config, logger hclog.Logger) (*Service, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return NewWithEngine(cfg, engine.New(cfg.FFmpegPath, cfg.FFprobePath, logger), logger)
}

// NewWithEngine creates a Service around an existing engine. The upload and
// audio directories are created if missing.
func NewWithEngine(cfg *config.Config, eng *engine.Engine, logger hclog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.UploadDir, cfg.AudioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	prober := probe.NewProber(eng, logger)
	extractor := processor.NewExtractor(eng, prober, logger)
	analyzer := processor.NewAnalyzer(eng, logger)

	return &Service{
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
		engine:    eng,
		prober:    prober,
		extractor: extractor,
		analyzer:  analyzer,
		enhancer:  processor.NewEnhancer(extractor, analyzer, logger),
		batch:     batch.New[*ProcessingResult](logger),
	}, nil
}

// Config returns the service configuration
func (s *Service) Config() *config.Config { return s.cfg }

// FFmpegPath returns the ffmpeg binary in use
func (s *Service) FFmpegPath() string { return s.engine.FFmpegPath() }

// CheckEngine verifies the engine binaries are installed
func (s *Service) CheckEngine() error { return s.engine.Validate() }

// Probe returns the metadata of path. It never fails; unreadable files yield empty metadata.
func (s *Service) Probe(ctx context.Context, path string) probe.MediaMetadata {
	return s.prober.Probe(ctx, path)
}

// ExtractAudio writes the audio of path to a new file in the audio directory
func (s *Service) ExtractAudio(ctx context.Context, path string, opts processor.ExtractOptions) (string, error) {
	return s.extract(ctx, path, opts, PurposeAudio)
}

// HiFiExtract extracts 44.1 kHz stereo audio, keeping the other options
func (s *Service) HiFiExtract(ctx context.Context, path string, opts processor.ExtractOptions) (string, error) {
	return s.extract(ctx, path, HiFiExtractOptions(opts), PurposeHiFi)
}

func (s *Service) extract(ctx context.Context, path string, opts processor.ExtractOptions, purpose string) (string, error) {
	if opts.Format == "" {
		opts.Format = processor.FormatWAV
	}
	return s.extractor.Extract(ctx, path, s.outputPath(purpose, opts.Format), opts)
}

// AnalyzeQuality measures an audio file
func (s *Service) AnalyzeQuality(ctx context.Context, audioPath string) *quality.Info {
	return s.analyzer.Analyze(ctx, audioPath)
}

// Enhance applies opts to audioPath and writes the result to a new file
func (s *Service) Enhance(ctx context.Context, audioPath string, opts processor.EnhanceOptions) (*processor.EnhancementResult, error) {
	format := opts.Format
	if format == "" {
		format = processor.FormatWAV
	}
	return s.enhancer.Enhance(ctx, audioPath, s.outputPath(PurposeEnhanced, format), opts, nil)
}

// ProcessMedia probes path, extracts its audio, then optionally analyses and
// enhances it. The steps run strictly in that order.
func (s *Service) ProcessMedia(ctx context.Context, path string, opts ProcessOptions) (*ProcessingResult, error) {
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.forFile(path)

	result := &ProcessingResult{
		InputPath: path,
		Metadata:  s.Probe(ctx, path),
	}

	audioPath, err := s.extract(ctx, path, opts.extractOptions(), opts.purpose())
	if err != nil {
		return nil, err
	}
	result.AudioPath = audioPath

	if opts.Analyze {
		result.Quality = s.AnalyzeQuality(ctx, audioPath)
	}

	if opts.Enhance != nil {
		enhanced, err := s.Enhance(ctx, audioPath, *opts.Enhance)
		if err != nil {
			if rmErr := os.Remove(audioPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				s.logger.Warn("failed to remove extracted audio", "path", audioPath, "error", rmErr)
			}
			return nil, fmt.Errorf("enhancement of %s failed: %w", path, err)
		}
		result.EnhancedPath = enhanced.OutputPath
		result.Enhancements = enhanced.Stages
		result.Improvements = enhanced.Improvements
		result.EnhancedQuality = enhanced.After
		if result.Quality == nil {
			result.Quality = enhanced.Before
		}
	}

	result.Duration = time.Since(start)

	if opts.Report {
		reportPath, err := logging.GenerateReport(reportData(result, start))
		if err != nil {
			s.logger.Warn("failed to write report", "path", path, "error", err)
		} else {
			result.ReportPath = reportPath
		}
	}

	s.logger.Info("processed", "path", path, "audio", audioPath, "elapsed", result.Duration)
	return result, nil
}

// BatchProcess runs ProcessMedia over paths in waves. A concurrency below 1
// uses the configured value, then the CPU-derived default.
func (s *Service) BatchProcess(ctx context.Context, paths []string, opts ProcessOptions, concurrency int) batch.Report[*ProcessingResult] {
	if concurrency < 1 {
		concurrency = s.cfg.Concurrency
	}
	return s.batch.RunWithHooks(ctx, paths, concurrency, func(ctx context.Context, path string) (*ProcessingResult, error) {
		return s.ProcessMedia(ctx, path, opts)
	}, opts.Hooks)
}

// outputPath names a new file in the audio directory: {uuid}_{purpose}.{ext}
func (s *Service) outputPath(purpose string, format processor.Format) string {
	return filepath.Join(s.cfg.AudioDir, fmt.Sprintf("%s_%s.%s", uuid.NewString(), purpose, format.Extension()))
}

func reportData(r *ProcessingResult, start time.Time) logging.ReportData {
	return logging.ReportData{
		InputPath:    r.InputPath,
		AudioPath:    r.AudioPath,
		EnhancedPath: r.EnhancedPath,
		Metadata:     r.Metadata,
		Before:       r.Quality,
		After:        r.EnhancedQuality,
		Improvements: r.Improvements,
		StartTime:    start,
		EndTime:      start.Add(r.Duration),
	}
}
