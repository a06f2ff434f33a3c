package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/mains"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// EnhancementResult describes one enhancement run
type EnhancementResult struct {
	OriginalPath string        `json:"original_path"`
	OutputPath   string        `json:"output_path"`
	Improvements []string      `json:"improvements"`
	Stages       []string      `json:"stages"`
	Before       *quality.Info `json:"quality_before,omitempty"`
	After        *quality.Info `json:"quality_after,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// QualityImprovement returns After.Score - Before.Score. The second value is
// false when either analysis is missing.
func (r *EnhancementResult) QualityImprovement() (float64, bool) {
	if r == nil || r.Before == nil || r.After == nil {
		return 0, false
	}
	return r.After.Score - r.Before.Score, true
}

// Enhancer plans and applies enhancement filter chains
type Enhancer struct {
	extractor *Extractor
	analyzer  *Analyzer
	logger    hclog.Logger

	// humFrequency resolves the mains frequency when the caller leaves it unset
	humFrequency func() int
}

// NewEnhancer creates an Enhancer
func NewEnhancer(x *Extractor, a *Analyzer, logger hclog.Logger) *Enhancer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Enhancer{
		extractor:    x,
		analyzer:     a,
		logger:       logger.Named("enhancer"),
		humFrequency: mains.Frequency,
	}
}

// Enhance applies the planned chain to input and writes dst. When dst is the
// input itself, output goes to a temporary sibling first and replaces the
// input only after every step succeeded.
func (e *Enhancer) Enhance(ctx context.Context, input, dst string, opts EnhanceOptions, progress engine.ProgressFunc) (*EnhancementResult, error) {
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	inPlace := samePath(input, dst)
	if format := opts.target().Format; inPlace && !strings.EqualFold(filepath.Ext(dst), "."+format.Extension()) {
		return nil, mediaerr.Validation("enhance", "in-place output of %s must keep its format, got %s", dst, format)
	}
	if opts.HumNotch && opts.HumFrequency == 0 {
		opts.HumFrequency = e.humFrequency()
		e.logger.Debug("detected mains frequency", "hz", opts.HumFrequency)
	}

	var before *quality.Info
	if opts.needsBeforeAnalysis() {
		before = e.analyzer.Analyze(ctx, input)
	}

	var loud *LoudnormMeasurement
	if opts.LoudnessNormalization && opts.LoudnessTwoPass {
		m, err := e.analyzer.MeasureLoudness(ctx, input, opts.loudnessTarget())
		if err != nil {
			e.logger.Warn("loudness measurement failed, using single-pass normalisation", "path", input, "error", err)
		} else {
			loud = m
		}
	}

	plan := BuildPlan(opts, before, loud)
	e.logger.Info("enhancing", "path", input, "stages", plan.Names())

	out := dst
	if inPlace {
		tmp, err := tempSibling(dst, plan.Format)
		if err != nil {
			return nil, mediaerr.New(mediaerr.KindTranscode, "enhance", input, err)
		}
		out = tmp
	}

	xopts := plan.ExtractOptions()
	xopts.Progress = progress
	if _, err := e.extractor.Extract(ctx, input, out, xopts); err != nil {
		if inPlace {
			removePartial(out, e.logger)
		}
		return nil, err
	}

	var after *quality.Info
	if opts.needsBeforeAnalysis() {
		after = e.analyzer.Analyze(ctx, out)
	}

	if inPlace {
		if err := os.Rename(out, dst); err != nil {
			removePartial(out, e.logger)
			return nil, mediaerr.New(mediaerr.KindTranscode, "enhance", input, err)
		}
	}

	result := &EnhancementResult{
		OriginalPath: input,
		OutputPath:   dst,
		Improvements: plan.Descriptions(),
		Stages:       plan.Names(),
		Before:       before,
		After:        after,
		Duration:     time.Since(start),
	}
	if delta, ok := result.QualityImprovement(); ok {
		e.logger.Info("enhancement complete", "path", dst, "improvement", delta)
	}
	return result, nil
}

// samePath compares two paths after cleaning and resolving them
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// tempSibling reserves a unique hidden file next to path
func tempSibling(path string, format Format) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".soundcheck-*."+format.Extension())
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}
