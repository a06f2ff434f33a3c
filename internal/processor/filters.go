// Package processor extracts, analyses and enhances audio through the ffmpeg engine
package processor

import (
	"fmt"
	"math"
	"strings"
)

// FilterID identifies a stage in a filter chain
type FilterID string

// Enhancement stages, listed in the order the planner emits them
const (
	FilterDenoise  FilterID = "denoise"  // afftdn spectral noise reduction
	FilterLoudnorm FilterID = "loudnorm" // EBU R128 loudness normalisation

	FilterCompressor FilterID = "compressor" // Manual acompressor

	// Parametric equaliser, one independent stage per band
	FilterEQLow  FilterID = "eq_low"
	FilterEQMid  FilterID = "eq_mid"
	FilterEQHigh FilterID = "eq_high"

	FilterHumNotch FilterID = "hum_notch" // Mains hum notch plus harmonics

	// Analysis-driven additions
	FilterHighpass         FilterID = "highpass"          // Rumble removal
	FilterGentleCompressor FilterID = "gentle_compressor" // Softer than the manual compressor
	FilterClipLimiter      FilterID = "clip_limiter"      // Tames existing clipping

	// Always last
	FilterDCBlock FilterID = "dc_block"
	FilterLimiter FilterID = "limiter"
)

// Measurement stages used by the analyzer
const (
	FilterAstats          FilterID = "astats"
	FilterSpectralStats   FilterID = "spectral_stats"
	FilterMetadataPrint   FilterID = "metadata_print"
	FilterSilenceDetect   FilterID = "silence_detect"
	FilterLoudnormMeasure FilterID = "loudnorm_measure"
)

// Fixed safety stage parameters
const (
	DCBlockFrequency  = 20.0 // Hz
	SafetyLimitDBFS   = -0.5 // dBFS ceiling of the final limiter
	RumbleHighpassHz  = 80.0 // Hz, analysis-driven high-pass
	ClipLimiterDBFS   = -1.0 // dBFS ceiling when clipping was detected
	DefaultSilenceDB  = -50.0
	DefaultSilenceMin = 0.5 // seconds
)

// StageParams carries the numeric parameters of a stage.
// Each builder reads only the fields it needs.
type StageParams struct {
	Frequency float64 // Hz
	Gain      float64 // dB
	Width     float64 // Q
	Poles     int

	Threshold float64 // dB
	Ratio     float64
	Attack    float64 // ms
	Release   float64 // ms
	Makeup    float64 // dB

	Limit float64 // dBFS

	NoiseReduction float64 // dB
	NoiseFloor     float64 // dB

	// Loudness
	TargetI   float64 // LUFS
	TargetTP  float64 // dBTP
	TargetLRA float64 // LU
	Measured  *LoudnormMeasurement

	Harmonics int

	// Silence detection
	SilenceThreshold float64 // dB
	SilenceDuration  float64 // seconds
}

// Stage is one typed filter directive
type Stage struct {
	ID     FilterID
	Params StageParams
}

// Chain is an ordered list of stages. It is serialised to engine syntax only by String.
type Chain []Stage

// IDs returns the stage identifiers in order
func (c Chain) IDs() []FilterID {
	ids := make([]FilterID, len(c))
	for i, s := range c {
		ids[i] = s.ID
	}
	return ids
}

// Contains reports whether a stage with the given ID is present
func (c Chain) Contains(id FilterID) bool {
	for _, s := range c {
		if s.ID == id {
			return true
		}
	}
	return false
}

// String renders the chain as an ffmpeg -af filter graph
func (c Chain) String() string {
	specs := make([]string, 0, len(c))
	for _, s := range c {
		if spec := s.Spec(); spec != "" {
			specs = append(specs, spec)
		}
	}
	return strings.Join(specs, ",")
}

// Spec renders a single stage, or "" for an unknown ID
func (s Stage) Spec() string {
	build, ok := filterBuilders[s.ID]
	if !ok {
		return ""
	}
	return build(s.Params)
}

// filterBuilderFunc builds an FFmpeg filter specification from stage parameters
type filterBuilderFunc func(StageParams) string

// filterBuilders maps FilterID to its builder function
var filterBuilders = map[FilterID]filterBuilderFunc{
	FilterDenoise:          buildDenoiseFilter,
	FilterLoudnorm:         buildLoudnormFilter,
	FilterCompressor:       buildCompressorFilter,
	FilterGentleCompressor: buildCompressorFilter,
	FilterEQLow:            buildEqualizerFilter,
	FilterEQMid:            buildEqualizerFilter,
	FilterEQHigh:           buildEqualizerFilter,
	FilterHumNotch:         buildHumNotchFilter,
	FilterHighpass:         buildHighpassFilter,
	FilterDCBlock:          buildHighpassFilter,
	FilterClipLimiter:      buildLimiterFilter,
	FilterLimiter:          buildLimiterFilter,
	FilterAstats:           buildAstatsFilter,
	FilterSpectralStats:    buildSpectralStatsFilter,
	FilterMetadataPrint:    buildMetadataPrintFilter,
	FilterSilenceDetect:    buildSilenceDetectFilter,
	FilterLoudnormMeasure:  buildLoudnormMeasureFilter,
}

// dbToLinear converts decibels to a linear amplitude ratio
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// buildDenoiseFilter uses afftdn with a fixed noise floor estimate
func buildDenoiseFilter(p StageParams) string {
	return fmt.Sprintf("afftdn=nr=%.1f:nf=%.1f", p.NoiseReduction, p.NoiseFloor)
}

// buildLoudnormFilter emits single-pass loudnorm, or the second pass in linear
// mode when first-pass measurements are available
func buildLoudnormFilter(p StageParams) string {
	spec := fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f", p.TargetI, p.TargetTP, p.TargetLRA)
	if m := p.Measured; m != nil {
		spec += fmt.Sprintf(":measured_I=%.2f:measured_TP=%.2f:measured_LRA=%.2f:measured_thresh=%.2f:offset=%.2f:linear=true",
			m.InputI, m.InputTP, m.InputLRA, m.InputThresh, m.TargetOffset)
	}
	return spec
}

// buildLoudnormMeasureFilter runs loudnorm in measurement mode, printing JSON to stderr
func buildLoudnormMeasureFilter(p StageParams) string {
	return fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f:print_format=json", p.TargetI, p.TargetTP, p.TargetLRA)
}

// buildCompressorFilter uses acompressor; threshold and makeup are stored in dB
// and converted to the linear values the filter expects
func buildCompressorFilter(p StageParams) string {
	return fmt.Sprintf("acompressor=threshold=%.6f:ratio=%.1f:attack=%.0f:release=%.0f:makeup=%.4f",
		dbToLinear(p.Threshold), p.Ratio, p.Attack, p.Release, dbToLinear(p.Makeup))
}

// buildEqualizerFilter emits one peaking band
func buildEqualizerFilter(p StageParams) string {
	return fmt.Sprintf("equalizer=f=%.0f:t=q:w=%.2f:g=%.1f", p.Frequency, p.Width, p.Gain)
}

// buildHumNotchFilter rejects the mains fundamental and its harmonics
func buildHumNotchFilter(p StageParams) string {
	harmonics := p.Harmonics
	if harmonics < 1 {
		harmonics = 1
	}
	notches := make([]string, 0, harmonics)
	for h := 1; h <= harmonics; h++ {
		notches = append(notches, fmt.Sprintf("bandreject=f=%.0f:t=q:w=%.0f", p.Frequency*float64(h), p.Width))
	}
	return strings.Join(notches, ",")
}

func buildHighpassFilter(p StageParams) string {
	poles := p.Poles
	if poles != 1 {
		poles = 2
	}
	return fmt.Sprintf("highpass=f=%.0f:poles=%d", p.Frequency, poles)
}

// buildLimiterFilter uses alimiter with the ceiling converted from dBFS to linear
func buildLimiterFilter(p StageParams) string {
	return fmt.Sprintf("alimiter=limit=%.4f:attack=%.1f:release=%.0f:level=0",
		dbToLinear(p.Limit), p.Attack, p.Release)
}

// buildAstatsFilter prints the per-channel and overall summary at end of stream
func buildAstatsFilter(StageParams) string {
	return "astats=metadata=0:reset=0"
}

func buildSpectralStatsFilter(StageParams) string {
	return "aspectralstats=win_size=2048:win_func=hann:measure=centroid+rolloff"
}

// buildMetadataPrintFilter logs frame metadata so spectral values reach stderr
func buildMetadataPrintFilter(StageParams) string {
	return "ametadata=mode=print"
}

func buildSilenceDetectFilter(p StageParams) string {
	return fmt.Sprintf("silencedetect=noise=%.0fdB:duration=%.2f", p.SilenceThreshold, p.SilenceDuration)
}

// Constructors for the fixed stages

// DCBlockStage removes DC offset and subsonic content
func DCBlockStage() Stage {
	return Stage{ID: FilterDCBlock, Params: StageParams{Frequency: DCBlockFrequency, Poles: 1}}
}

// SafetyLimiterStage bounds output peaks just below full scale
func SafetyLimiterStage() Stage {
	return Stage{ID: FilterLimiter, Params: StageParams{Limit: SafetyLimitDBFS, Attack: 5, Release: 50}}
}

// measurementStage builds a parameterless analysis stage
func measurementStage(id FilterID) Stage {
	return Stage{ID: id}
}

// silenceStage builds the silence detector with default thresholds
func silenceStage() Stage {
	return Stage{ID: FilterSilenceDetect, Params: StageParams{
		SilenceThreshold: DefaultSilenceDB,
		SilenceDuration:  DefaultSilenceMin,
	}}
}
