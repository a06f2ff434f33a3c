package pipeline

import (
	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/config"
	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/processor"
)

// Output purposes, used in derived file names: {uuid}_{purpose}.{ext}
const (
	PurposeAudio    = "audio"
	PurposeEnhanced = "enhanced"
	PurposeHiFi     = "hifi"
)

// Hi-fi extraction targets
const (
	HiFiSampleRate = 44100
	HiFiChannels   = 2
)

// ProcessOptions are shared by every file of a ProcessMedia or BatchProcess call.
// The zero value extracts 16 kHz mono WAV and does nothing else.
type ProcessOptions struct {
	Extract processor.ExtractOptions  `yaml:"extract"`
	HiFi    bool                      `yaml:"hifi"`    // 44.1 kHz stereo instead of speech defaults
	Analyze bool                      `yaml:"analyze"` // Measure the extracted audio
	Enhance *processor.EnhanceOptions `yaml:"enhance"` // nil = no enhancement
	Report  bool                      `yaml:"report"`  // Write a text report next to the output

	// Progress receives extraction progress for one file
	Progress engine.ProgressFunc `yaml:"-"`
	// FileProgress receives extraction progress keyed by input path, for
	// batches where one callback serves every file. Progress wins when both are set.
	FileProgress func(path string, fraction float64) `yaml:"-"`
	// Hooks observe a BatchProcess call; ProcessMedia ignores them
	Hooks batch.Hooks[*ProcessingResult] `yaml:"-"`
}

// Validate checks every nested option before any subprocess is spawned
func (o ProcessOptions) Validate() error {
	if err := o.extractOptions().Validate(); err != nil {
		return err
	}
	if o.Enhance != nil {
		return o.Enhance.Validate()
	}
	return nil
}

// forFile binds FileProgress to path
func (o ProcessOptions) forFile(path string) ProcessOptions {
	if o.Progress == nil && o.FileProgress != nil {
		report := o.FileProgress
		o.Progress = func(fraction float64) { report(path, fraction) }
	}
	return o
}

// extractOptions applies the hi-fi targets when requested
func (o ProcessOptions) extractOptions() processor.ExtractOptions {
	x := o.Extract
	if o.HiFi {
		x = HiFiExtractOptions(x)
	}
	if x.Format == "" {
		x.Format = processor.FormatWAV
	}
	x.Progress = o.Progress
	return x
}

func (o ProcessOptions) purpose() string {
	if o.HiFi {
		return PurposeHiFi
	}
	return PurposeAudio
}

// HiFiExtractOptions returns base with 44.1 kHz stereo targets
func HiFiExtractOptions(base processor.ExtractOptions) processor.ExtractOptions {
	base.SampleRate = HiFiSampleRate
	base.Channels = HiFiChannels
	return base
}

// ParseProcessOptions decodes a YAML option file, rejecting unknown keys
func ParseProcessOptions(data []byte) (ProcessOptions, error) {
	var opts ProcessOptions
	if err := config.DecodeStrict(data, &opts); err != nil {
		return ProcessOptions{}, err
	}
	if err := opts.Validate(); err != nil {
		return ProcessOptions{}, err
	}
	return opts, nil
}
