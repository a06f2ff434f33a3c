package processor

import (
	"fmt"

	"github.com/linuxmatters/soundcheck/internal/mains"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// Analysis-driven thresholds
const (
	// RumbleCentroidHz: a spectral centroid below this suggests low-frequency rumble
	RumbleCentroidHz = 500.0
	// NarrowRangeDB: dynamic range below this gets the gentle compressor
	NarrowRangeDB = 15.0
)

// Enhancement defaults
const (
	DefaultEnhanceSampleRate  = 44100
	DefaultEnhanceChannels    = 1
	DefaultNoiseReductionDB   = 12.0
	DefaultNoiseFloorDB       = -50.0
	DefaultEQWidth            = 1.0
	DefaultHumFrequency       = mains.Fallback
	DefaultHumHarmonics       = 2
	DefaultHumNotchQ          = 30.0
	maxEQGainDB               = 24.0
	minLoudnessTarget         = -70.0
	maxLoudnessTarget         = -5.0
	maxNoiseReductionDB       = 97.0
	maxEQFrequencyHz          = 24000.0
	manualCompressorThreshold = -20.0
	manualCompressorRatio     = 4.0
	gentleCompressorThreshold = -24.0
	gentleCompressorRatio     = 2.0
)

// Band is one parametric equaliser band
type Band struct {
	Frequency float64 `yaml:"frequency"` // Hz
	Gain      float64 `yaml:"gain"`      // dB
	Width     float64 `yaml:"width"`     // Q, 0 = 1.0
}

// EqualizerOptions holds up to three independent bands
type EqualizerOptions struct {
	Low  *Band `yaml:"low"`
	Mid  *Band `yaml:"mid"`
	High *Band `yaml:"high"`
}

// EnhanceOptions are the explicit toggles of an enhancement request.
// Every recognised option is listed here; zero values are the documented defaults.
type EnhanceOptions struct {
	NoiseReduction       bool    `yaml:"noise_reduction"`
	NoiseReductionAmount float64 `yaml:"noise_reduction_amount"` // dB, 0 = 12

	LoudnessNormalization bool    `yaml:"loudness_normalization"`
	LoudnessTarget        float64 `yaml:"loudness_target"`   // LUFS, 0 = -16
	LoudnessTwoPass       bool    `yaml:"loudness_two_pass"` // Measure first, then apply linearly

	Compressor bool              `yaml:"compressor"`
	Equalizer  *EqualizerOptions `yaml:"equalizer"`

	HumNotch     bool `yaml:"hum_notch"`
	HumFrequency int  `yaml:"hum_frequency"` // 50 or 60, 0 = detect from timezone

	EnhanceAudio   bool `yaml:"enhance_audio"`   // Add stages from the input's measured quality
	CompareQuality bool `yaml:"compare_quality"` // Analyse before and after

	Format     Format `yaml:"format"`      // "" = wav
	SampleRate int    `yaml:"sample_rate"` // Hz, 0 = 44100
	Channels   int    `yaml:"channels"`    // 0 = mono
	Bitrate    string `yaml:"bitrate"`
}

// Validate rejects out-of-range options
func (o EnhanceOptions) Validate() error {
	if o.NoiseReductionAmount < 0 || o.NoiseReductionAmount > maxNoiseReductionDB {
		return mediaerr.Validation("enhance", "noise reduction amount must be between 0 and %.0f dB", maxNoiseReductionDB)
	}
	if o.LoudnessTarget != 0 && (o.LoudnessTarget < minLoudnessTarget || o.LoudnessTarget > maxLoudnessTarget) {
		return mediaerr.Validation("enhance", "loudness target %.1f LUFS out of range [%.0f, %.0f]",
			o.LoudnessTarget, minLoudnessTarget, maxLoudnessTarget)
	}
	if o.HumFrequency != 0 && !mains.Valid(o.HumFrequency) {
		return mediaerr.Validation("enhance", "hum frequency must be 50 or 60 Hz, got %d", o.HumFrequency)
	}
	if eq := o.Equalizer; eq != nil {
		bands := []struct {
			name string
			band *Band
		}{{"low", eq.Low}, {"mid", eq.Mid}, {"high", eq.High}}
		for _, b := range bands {
			if err := b.band.validate(b.name); err != nil {
				return err
			}
		}
	}
	return o.target().Validate()
}

func (b *Band) validate(name string) error {
	if b == nil {
		return nil
	}
	if b.Frequency <= 0 || b.Frequency > maxEQFrequencyHz {
		return mediaerr.Validation("enhance", "%s band frequency %.0f Hz out of range", name, b.Frequency)
	}
	if b.Gain < -maxEQGainDB || b.Gain > maxEQGainDB {
		return mediaerr.Validation("enhance", "%s band gain %.1f dB out of range", name, b.Gain)
	}
	if b.Width < 0 {
		return mediaerr.Validation("enhance", "%s band width must not be negative", name)
	}
	return nil
}

// target returns the output parameters with enhancement defaults applied
func (o EnhanceOptions) target() ExtractOptions {
	t := ExtractOptions{
		Format:     o.Format,
		SampleRate: o.SampleRate,
		Channels:   o.Channels,
		Bitrate:    o.Bitrate,
	}
	if t.Format == "" {
		t.Format = FormatWAV
	}
	if t.SampleRate == 0 {
		t.SampleRate = DefaultEnhanceSampleRate
	}
	if t.Channels == 0 {
		t.Channels = DefaultEnhanceChannels
	}
	return t
}

// loudnessTarget returns the loudnorm target for these options
func (o EnhanceOptions) loudnessTarget() LoudnessTarget {
	t := DefaultLoudnessTarget
	if o.LoudnessTarget != 0 {
		t.I = o.LoudnessTarget
	}
	return t
}

// needsBeforeAnalysis reports whether the executor must measure the input first
func (o EnhanceOptions) needsBeforeAnalysis() bool {
	return o.EnhanceAudio || o.CompareQuality
}

// EnhancementPlan is the immutable output of the planner
type EnhancementPlan struct {
	stages     Chain
	Format     Format
	SampleRate int
	Channels   int
	Bitrate    string
}

// Stages returns a copy of the ordered stage list
func (p EnhancementPlan) Stages() Chain {
	return append(Chain(nil), p.stages...)
}

// ExtractOptions returns the extractor options that apply this plan
func (p EnhancementPlan) ExtractOptions() ExtractOptions {
	return ExtractOptions{
		Format:     p.Format,
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Bitrate:    p.Bitrate,
		Filters:    p.Stages(),
	}
}

// Names returns the stage identifiers as strings
func (p EnhancementPlan) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = string(s.ID)
	}
	return names
}

// Descriptions returns a human-readable line per stage
func (p EnhancementPlan) Descriptions() []string {
	out := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, describeStage(s))
	}
	return out
}

// BuildPlan turns explicit options and, optionally, the input's measured
// quality into an ordered filter chain. It is a pure function.
//
// Order: denoise, loudnorm, compressor, EQ low/mid/high, hum notch,
// analysis-driven stages, DC block, limiter. The last two are always present.
func BuildPlan(opts EnhanceOptions, before *quality.Info, loud *LoudnormMeasurement) EnhancementPlan {
	var chain Chain

	if opts.NoiseReduction {
		amount := opts.NoiseReductionAmount
		if amount == 0 {
			amount = DefaultNoiseReductionDB
		}
		chain = append(chain, Stage{ID: FilterDenoise, Params: StageParams{
			NoiseReduction: amount,
			NoiseFloor:     DefaultNoiseFloorDB,
		}})
	}

	if opts.LoudnessNormalization {
		t := opts.loudnessTarget()
		chain = append(chain, Stage{ID: FilterLoudnorm, Params: StageParams{
			TargetI:   t.I,
			TargetTP:  t.TP,
			TargetLRA: t.LRA,
			Measured:  loud,
		}})
	}

	if opts.Compressor {
		chain = append(chain, Stage{ID: FilterCompressor, Params: StageParams{
			Threshold: manualCompressorThreshold,
			Ratio:     manualCompressorRatio,
			Attack:    5,
			Release:   50,
			Makeup:    2,
		}})
	}

	if eq := opts.Equalizer; eq != nil {
		chain = appendBand(chain, FilterEQLow, eq.Low)
		chain = appendBand(chain, FilterEQMid, eq.Mid)
		chain = appendBand(chain, FilterEQHigh, eq.High)
	}

	if opts.HumNotch {
		freq := opts.HumFrequency
		if freq == 0 {
			freq = DefaultHumFrequency
		}
		chain = append(chain, Stage{ID: FilterHumNotch, Params: StageParams{
			Frequency: float64(freq),
			Width:     DefaultHumNotchQ,
			Harmonics: DefaultHumHarmonics,
		}})
	}

	if opts.EnhanceAudio && before != nil {
		chain = append(chain, analysisStages(before)...)
	}

	chain = append(chain, DCBlockStage(), SafetyLimiterStage())

	t := opts.target()
	return EnhancementPlan{
		stages:     chain,
		Format:     t.Format,
		SampleRate: t.SampleRate,
		Channels:   t.Channels,
		Bitrate:    t.Bitrate,
	}
}

// analysisStages derives corrective stages from measured quality
func analysisStages(q *quality.Info) Chain {
	var chain Chain

	if q.SpectralCentroid != nil && *q.SpectralCentroid < RumbleCentroidHz {
		chain = append(chain, Stage{ID: FilterHighpass, Params: StageParams{Frequency: RumbleHighpassHz, Poles: 2}})
	}

	if q.DynamicRange != nil && *q.DynamicRange < NarrowRangeDB {
		chain = append(chain, Stage{ID: FilterGentleCompressor, Params: StageParams{
			Threshold: gentleCompressorThreshold,
			Ratio:     gentleCompressorRatio,
			Attack:    20,
			Release:   250,
		}})
	}

	if q.Clipping {
		chain = append(chain, Stage{ID: FilterClipLimiter, Params: StageParams{Limit: ClipLimiterDBFS, Attack: 1, Release: 50}})
	}

	return chain
}

func appendBand(chain Chain, id FilterID, b *Band) Chain {
	if b == nil {
		return chain
	}
	width := b.Width
	if width == 0 {
		width = DefaultEQWidth
	}
	return append(chain, Stage{ID: id, Params: StageParams{Frequency: b.Frequency, Gain: b.Gain, Width: width}})
}

// describeStage renders an improvement line for reports and results
func describeStage(s Stage) string {
	p := s.Params
	switch s.ID {
	case FilterDenoise:
		return fmt.Sprintf("Reduced background noise by up to %.0f dB", p.NoiseReduction)
	case FilterLoudnorm:
		if p.Measured != nil {
			return fmt.Sprintf("Normalized loudness from %.1f to %.1f LUFS", p.Measured.InputI, p.TargetI)
		}
		return fmt.Sprintf("Normalized loudness to %.1f LUFS", p.TargetI)
	case FilterCompressor:
		return fmt.Sprintf("Compressed dynamics at %.1f:1", p.Ratio)
	case FilterEQLow, FilterEQMid, FilterEQHigh:
		return fmt.Sprintf("Equalized %.0f Hz by %+.1f dB", p.Frequency, p.Gain)
	case FilterHumNotch:
		return fmt.Sprintf("Removed %.0f Hz mains hum", p.Frequency)
	case FilterHighpass:
		return fmt.Sprintf("Removed low-frequency rumble below %.0f Hz", p.Frequency)
	case FilterGentleCompressor:
		return "Applied gentle compression to even out levels"
	case FilterClipLimiter:
		return fmt.Sprintf("Limited clipped peaks to %.1f dBFS", p.Limit)
	case FilterDCBlock:
		return "Removed DC offset"
	case FilterLimiter:
		return fmt.Sprintf("Applied safety limiter at %.1f dBFS", p.Limit)
	default:
		return string(s.ID)
	}
}
