package processor

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// FullScaleClipDBFS is the peak level at which samples are treated as hitting full scale
const FullScaleClipDBFS = -0.01

// errNothingMeasured marks a pass whose output held none of the expected lines
var errNothingMeasured = errors.New("no measurements found in engine output")

// measurementPass is one ffmpeg run over the file with a measurement-only filter graph.
// apply copies whatever it recognised into info and reports whether anything was found.
type measurementPass struct {
	name  string
	chain Chain
	apply func(stderr string, info *quality.Info) bool
}

// Analyzer measures audio quality
type Analyzer struct {
	engine *engine.Engine
	logger hclog.Logger
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(e *engine.Engine, logger hclog.Logger) *Analyzer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Analyzer{engine: e, logger: logger.Named("analyzer")}
}

// passes returns the three measurement passes: level statistics, spectral
// statistics, then silence and clipping detection
func passes() []measurementPass {
	return []measurementPass{
		{
			name:  "level",
			chain: Chain{measurementStage(FilterAstats)},
			apply: applyLevelStats,
		},
		{
			name:  "spectral",
			chain: Chain{measurementStage(FilterSpectralStats), measurementStage(FilterMetadataPrint)},
			apply: applySpectralStats,
		},
		{
			name:  "silence",
			chain: Chain{silenceStage(), measurementStage(FilterAstats)},
			apply: applySilenceAndClipping,
		},
	}
}

// Analyze runs every measurement pass over path, one after another. A failing
// pass leaves its fields absent without affecting the others; when every pass
// fails the result is quality.Failed().
func (a *Analyzer) Analyze(ctx context.Context, path string) *quality.Info {
	var info quality.Info
	succeeded := 0

	for _, pass := range passes() {
		if err := a.runPass(ctx, path, pass, &info); err != nil {
			a.logger.Warn("measurement pass failed", "pass", pass.name, "path", path, "error", err)
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		a.logger.Error("all measurement passes failed", "path", path)
		return quality.Failed()
	}

	result := quality.Assess(info)
	a.logger.Debug("analysis complete", "path", path, "score", result.Score, "passes", succeeded)
	return result
}

func (a *Analyzer) runPass(ctx context.Context, path string, pass measurementPass, info *quality.Info) error {
	stderr, err := a.runMeasurement(ctx, path, pass.chain)
	if err != nil {
		return mediaerr.New(mediaerr.KindAnalysis, pass.name, path, err)
	}
	if !pass.apply(string(stderr), info) {
		return mediaerr.New(mediaerr.KindAnalysis, pass.name, path, errNothingMeasured)
	}
	return nil
}

// runMeasurement decodes path through chain into the null muxer and returns stderr
func (a *Analyzer) runMeasurement(ctx context.Context, path string, chain Chain) ([]byte, error) {
	return a.engine.Run(ctx,
		"-hide_banner",
		"-nostdin",
		"-i", path,
		"-vn",
		"-af", chain.String(),
		"-f", "null",
		"-",
	)
}

func applyLevelStats(stderr string, info *quality.Info) bool {
	stats := parseLevelStats(stderr)
	if !stats.found() {
		return false
	}

	info.PeakLevel = stats.PeakLevel
	info.RMSLevel = stats.RMSLevel
	info.DynamicRange = stats.DynamicRange
	info.ZeroCrossingRate = stats.ZeroCrossingRate
	if stats.RMSLevel != nil && stats.NoiseFloor != nil {
		info.SNR = ptrFloat(*stats.RMSLevel - *stats.NoiseFloor)
	}
	return true
}

func applySpectralStats(stderr string, info *quality.Info) bool {
	stats := parseSpectralStats(stderr)
	info.SpectralCentroid = stats.Centroid
	info.SpectralRolloff = stats.Rolloff
	return stats.Centroid != nil || stats.Rolloff != nil
}

func applySilenceAndClipping(stderr string, info *quality.Info) bool {
	found := false

	if duration := parseEngineDuration(stderr); duration != nil {
		if ratio := parseSilence(stderr, *duration); ratio != nil {
			info.SilenceRatio = ratio
			found = true
		}
	}

	stats := parseLevelStats(stderr)
	if stats.found() {
		info.Clipping = clippingDetected(stats)
		found = true
	}
	return found
}

// clippingDetected reports flat-topped peaks or samples at full scale
func clippingDetected(s levelStats) bool {
	if s.FlatFactor != nil && *s.FlatFactor > 0 {
		return true
	}
	return s.PeakLevel != nil && *s.PeakLevel >= FullScaleClipDBFS
}
