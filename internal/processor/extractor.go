package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/probe"
)

// Format is an audio container produced by the extractor
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
	FormatM4A  Format = "m4a"
	FormatOGG  Format = "ogg"
)

// formatCodecs maps each output format to its ffmpeg encoder
var formatCodecs = map[Format]string{
	FormatWAV:  "pcm_s16le",
	FormatMP3:  "libmp3lame",
	FormatFLAC: "flac",
	FormatM4A:  "aac",
	FormatOGG:  "libvorbis",
}

// Speech-oriented defaults used when the caller gives no target
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	MaxChannels       = 8
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if _, ok := formatCodecs[f]; !ok {
		return "", mediaerr.Validation("parse format", "unknown audio format %q", s)
	}
	return f, nil
}

// Codec returns the ffmpeg encoder for the format
func (f Format) Codec() string { return formatCodecs[f] }

// Extension returns the file extension without a dot
func (f Format) Extension() string { return string(f) }

// lossless formats ignore bitrate
func (f Format) lossless() bool { return f == FormatWAV || f == FormatFLAC }

// ExtractOptions controls one extraction
type ExtractOptions struct {
	Format      Format  `yaml:"format"`
	SampleRate  int     `yaml:"sample_rate"`  // Hz, 0 = 16000
	Channels    int     `yaml:"channels"`     // 0 = mono
	Bitrate     string  `yaml:"bitrate"`      // e.g. "128k", lossy formats only
	MaxDuration float64 `yaml:"max_duration"` // seconds, 0 = whole file

	Filters  Chain               `yaml:"-"` // Applied in the same pass
	Progress engine.ProgressFunc `yaml:"-"` // Optional completion callback
}

var bitrateRe = regexp.MustCompile(`^[1-9][0-9]*k?$`)

// Validate rejects out-of-range parameters before any subprocess is spawned
func (o ExtractOptions) Validate() error {
	if _, ok := formatCodecs[o.Format]; !ok {
		return mediaerr.Validation("extract", "unknown audio format %q", o.Format)
	}
	if o.SampleRate < 0 {
		return mediaerr.Validation("extract", "sample rate must not be negative, got %d", o.SampleRate)
	}
	if o.Channels < 0 || o.Channels > MaxChannels {
		return mediaerr.Validation("extract", "channels must be between 0 and %d, got %d", MaxChannels, o.Channels)
	}
	if o.MaxDuration < 0 {
		return mediaerr.Validation("extract", "max duration must not be negative, got %g", o.MaxDuration)
	}
	if o.Bitrate != "" && !bitrateRe.MatchString(o.Bitrate) {
		return mediaerr.Validation("extract", "malformed bitrate %q", o.Bitrate)
	}
	return nil
}

// withDefaults fills the speech-oriented defaults
func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Format == "" {
		o.Format = FormatWAV
	}
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Channels == 0 {
		o.Channels = DefaultChannels
	}
	return o
}

// Extractor produces audio-only files from media files
type Extractor struct {
	engine *engine.Engine
	prober *probe.Prober
	logger hclog.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(e *engine.Engine, p *probe.Prober, logger hclog.Logger) *Extractor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Extractor{engine: e, prober: p, logger: logger.Named("extractor")}
}

// Extract writes the audio of src to dst and returns dst. On failure no file
// is left at dst.
func (x *Extractor) Extract(ctx context.Context, src, dst string, opts ExtractOptions) (string, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if samePath(src, dst) {
		return "", mediaerr.Validation("extract", "output path must differ from input %s", src)
	}

	meta := x.prober.Probe(ctx, src)
	if !meta.HasAudio() {
		return "", mediaerr.New(mediaerr.KindTranscode, "extract", src,
			errors.New("source has no audio stream or could not be read"))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", mediaerr.New(mediaerr.KindTranscode, "extract", src, err)
	}

	total := meta.DurationOr(0)
	if opts.MaxDuration > 0 && (total == 0 || opts.MaxDuration < total) {
		total = opts.MaxDuration
	}

	x.logger.Debug("extracting audio", "src", src, "dst", dst, "format", opts.Format,
		"sample_rate", opts.SampleRate, "channels", opts.Channels, "stages", len(opts.Filters))

	stderr, err := x.engine.RunWithProgress(ctx, total, opts.Progress, buildExtractArgs(src, dst, opts)...)
	if err != nil {
		removePartial(dst, x.logger)
		return "", mediaerr.New(mediaerr.KindTranscode, "extract", src, err).WithDetails(string(stderr))
	}

	if fi, statErr := os.Stat(dst); statErr != nil || fi.Size() == 0 {
		removePartial(dst, x.logger)
		return "", mediaerr.New(mediaerr.KindTranscode, "extract", src,
			fmt.Errorf("engine produced no output at %s", dst))
	}

	return dst, nil
}

// buildExtractArgs assembles the ffmpeg command line
func buildExtractArgs(src, dst string, opts ExtractOptions) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", src, "-vn", "-sn", "-dn"}

	if opts.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(opts.MaxDuration, 'f', -1, 64))
	}
	if graph := opts.Filters.String(); graph != "" {
		args = append(args, "-af", graph)
	}

	args = append(args,
		"-ac", strconv.Itoa(opts.Channels),
		"-ar", strconv.Itoa(opts.SampleRate),
		"-c:a", opts.Format.Codec(),
	)
	if opts.Bitrate != "" && !opts.Format.lossless() {
		args = append(args, "-b:a", opts.Bitrate)
	}

	return append(args, dst)
}

// removePartial deletes an incomplete output file, ignoring a missing file
func removePartial(path string, logger hclog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output", "path", path, "error", err)
	}
}
