package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageSpecs(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		want  string
	}{
		{"dc block", DCBlockStage(), "highpass=f=20:poles=1"},
		{"safety limiter", SafetyLimiterStage(), "alimiter=limit=0.9441:attack=5.0:release=50:level=0"},
		{"rumble highpass", Stage{ID: FilterHighpass, Params: StageParams{Frequency: 80, Poles: 2}}, "highpass=f=80:poles=2"},
		{"denoise", Stage{ID: FilterDenoise, Params: StageParams{NoiseReduction: 12, NoiseFloor: -50}}, "afftdn=nr=12.0:nf=-50.0"},
		{"eq band", Stage{ID: FilterEQMid, Params: StageParams{Frequency: 1000, Gain: -3, Width: 1.5}}, "equalizer=f=1000:t=q:w=1.50:g=-3.0"},
		{"silence", silenceStage(), "silencedetect=noise=-50dB:duration=0.50"},
		{"astats", measurementStage(FilterAstats), "astats=metadata=0:reset=0"},
		{"unknown", Stage{ID: "bogus"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stage.Spec())
		})
	}
}

func TestCompressorConvertsDecibelsToLinear(t *testing.T) {
	spec := Stage{ID: FilterCompressor, Params: StageParams{Threshold: -20, Ratio: 4, Attack: 5, Release: 50, Makeup: 0}}.Spec()
	assert.Equal(t, "acompressor=threshold=0.100000:ratio=4.0:attack=5:release=50:makeup=1.0000", spec)
}

func TestLoudnormSecondPass(t *testing.T) {
	single := Stage{ID: FilterLoudnorm, Params: StageParams{TargetI: -16, TargetTP: -1.5, TargetLRA: 11}}
	assert.Equal(t, "loudnorm=I=-16.0:TP=-1.5:LRA=11.0", single.Spec())

	single.Params.Measured = &LoudnormMeasurement{InputI: -27.61, InputTP: -4.47, InputLRA: 18.06, InputThresh: -39.2, TargetOffset: 0.58}
	spec := single.Spec()
	assert.True(t, strings.HasPrefix(spec, "loudnorm=I=-16.0:TP=-1.5:LRA=11.0:measured_I=-27.61"))
	assert.Contains(t, spec, "offset=0.58")
	assert.Contains(t, spec, "linear=true")
}

func TestHumNotchHarmonics(t *testing.T) {
	stage := Stage{ID: FilterHumNotch, Params: StageParams{Frequency: 60, Width: 30, Harmonics: 2}}
	assert.Equal(t, "bandreject=f=60:t=q:w=30,bandreject=f=120:t=q:w=30", stage.Spec())
}

func TestChainStringJoinsInOrder(t *testing.T) {
	chain := Chain{DCBlockStage(), {ID: "bogus"}, SafetyLimiterStage()}

	assert.Equal(t, "highpass=f=20:poles=1,alimiter=limit=0.9441:attack=5.0:release=50:level=0", chain.String())
	assert.Equal(t, []FilterID{FilterDCBlock, "bogus", FilterLimiter}, chain.IDs())
	assert.True(t, chain.Contains(FilterLimiter))
	assert.False(t, chain.Contains(FilterDenoise))
	assert.Equal(t, "", Chain(nil).String())
}

func TestEveryFilterIDHasBuilder(t *testing.T) {
	ids := []FilterID{
		FilterDenoise, FilterLoudnorm, FilterCompressor, FilterEQLow, FilterEQMid, FilterEQHigh,
		FilterHumNotch, FilterHighpass, FilterGentleCompressor, FilterClipLimiter, FilterDCBlock,
		FilterLimiter, FilterAstats, FilterSpectralStats, FilterMetadataPrint, FilterSilenceDetect,
		FilterLoudnormMeasure,
	}
	for _, id := range ids {
		_, ok := filterBuilders[id]
		assert.True(t, ok, "missing builder for %s", id)
	}
}
