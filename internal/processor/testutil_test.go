package processor

import (
	"os"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/engine/enginetest"
	"github.com/linuxmatters/soundcheck/internal/probe"
)

// loudnormJSON is the summary loudnorm prints in measurement mode
const loudnormJSON = `[Parsed_loudnorm_0 @ 0x55a1]
{
	"input_i" : "-27.61",
	"input_tp" : "-4.47",
	"input_lra" : "18.06",
	"input_thresh" : "-39.20",
	"output_i" : "-16.58",
	"output_tp" : "-1.50",
	"output_lra" : "14.78",
	"output_thresh" : "-27.71",
	"normalization_type" : "dynamic",
	"target_offset" : "0.58"
}
`

// fakeEngine scripts ffprobe and ffmpeg responses for one test
type fakeEngine struct {
	probeJSON string

	// Measurement output per pass; empty means the pass printed nothing useful
	levelOutput    string
	spectralOutput string
	silenceOutput  string
	failAnalysis   bool

	extractStderr string
	extractErr    error
}

// newFakeEngine returns a fake that sees a 10 s mono WAV with the canned metrics
func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		probeJSON:      enginetest.ProbeAudioWAV,
		levelOutput:    enginetest.EngineHeader + enginetest.AstatsSummary,
		spectralOutput: enginetest.EngineHeader + enginetest.SpectralFrames,
		silenceOutput:  enginetest.EngineHeader + enginetest.SilenceLog + enginetest.AstatsSummary,
	}
}

func (f *fakeEngine) handle(call enginetest.Call) (string, string, error) {
	if call.Binary() == "ffprobe" {
		return f.probeJSON, "", nil
	}

	// Measurement runs decode into the null muxer
	if call.Output() == "-" {
		if f.failAnalysis {
			return "", "Invalid data found when processing input", os.ErrInvalid
		}
		graph := call.ArgAfter("-af")
		switch {
		case strings.Contains(graph, "print_format=json"):
			return "", enginetest.EngineHeader + loudnormJSON, nil
		case strings.Contains(graph, "silencedetect"):
			return "", f.silenceOutput, nil
		case strings.Contains(graph, "aspectralstats"):
			return "", f.spectralOutput, nil
		default:
			return "", f.levelOutput, nil
		}
	}

	// Extraction: write something at the output path, even on failure,
	// so cleanup of partial files is exercised
	if err := os.WriteFile(call.Output(), []byte("RIFF....WAVE"), 0o644); err != nil {
		return "", "", err
	}
	return "", f.extractStderr, f.extractErr
}

// components wires processor types around a fake engine
type components struct {
	runner    *enginetest.Runner
	extractor *Extractor
	analyzer  *Analyzer
	enhancer  *Enhancer
}

func newComponents(t *testing.T, f *fakeEngine) components {
	t.Helper()

	logger := hclog.NewNullLogger()
	runner := enginetest.New(f.handle)
	eng := engine.NewWithRunner("ffmpeg", "ffprobe", runner, logger)
	prober := probe.NewProber(eng, logger)
	extractor := NewExtractor(eng, prober, logger)
	analyzer := NewAnalyzer(eng, logger)
	enhancer := NewEnhancer(extractor, analyzer, logger)
	enhancer.humFrequency = func() int { return 60 }

	return components{runner: runner, extractor: extractor, analyzer: analyzer, enhancer: enhancer}
}
