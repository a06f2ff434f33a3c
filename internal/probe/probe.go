// Package probe extracts container and stream metadata with ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
)

// StreamKind is the elementary stream type
type StreamKind string

const (
	KindVideo    StreamKind = "video"
	KindAudio    StreamKind = "audio"
	KindSubtitle StreamKind = "subtitle"
	KindData     StreamKind = "data"
)

// StreamInfo describes one stream. Kind decides which optional fields are set:
// video fields are nil for audio streams and vice versa.
type StreamInfo struct {
	Index     int        `json:"index"`
	CodecName string     `json:"codec_name"`
	Kind      StreamKind `json:"kind"`

	// Video
	Width       *int     `json:"width,omitempty"`
	Height      *int     `json:"height,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
	PixelFormat string   `json:"pixel_format,omitempty"`

	// Audio
	Channels      *int   `json:"channels,omitempty"`
	SampleRate    *int   `json:"sample_rate,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
}

// MediaMetadata is an immutable snapshot of one probe call.
// A failed probe yields the zero value.
type MediaMetadata struct {
	Duration   *float64     `json:"duration,omitempty"` // seconds
	FormatName string       `json:"format_name,omitempty"`
	BitRate    *int64       `json:"bit_rate,omitempty"` // bits per second
	Streams    []StreamInfo `json:"streams,omitempty"`
}

// AudioStreams returns the audio streams in index order
func (m MediaMetadata) AudioStreams() []StreamInfo {
	var out []StreamInfo
	for _, s := range m.Streams {
		if s.Kind == KindAudio {
			out = append(out, s)
		}
	}
	return out
}

// HasAudio reports whether the file carries at least one audio stream
func (m MediaMetadata) HasAudio() bool {
	return len(m.AudioStreams()) > 0
}

// DurationOr returns the duration or fallback when absent
func (m MediaMetadata) DurationOr(fallback float64) float64 {
	if m.Duration == nil {
		return fallback
	}
	return *m.Duration
}

// ffprobeOutput represents the JSON output from ffprobe
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index         int    `json:"index"`
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	PixFmt        string `json:"pix_fmt,omitempty"`
	RFrameRate    string `json:"r_frame_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
}

// Prober inspects media files
type Prober struct {
	engine *engine.Engine
	logger hclog.Logger
}

// NewProber creates a Prober
func NewProber(e *engine.Engine, logger hclog.Logger) *Prober {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Prober{engine: e, logger: logger.Named("probe")}
}

// Probe returns the file's metadata. It never fails: probe errors are logged
// and an empty MediaMetadata is returned.
func (p *Prober) Probe(ctx context.Context, path string) MediaMetadata {
	meta, err := p.probe(ctx, path)
	if err != nil {
		p.logger.Warn("probe failed, continuing with empty metadata", "path", path, "error", err)
		return MediaMetadata{}
	}
	return meta
}

// probe is the fallible core of Probe, returning a KindProbe error
func (p *Prober) probe(ctx context.Context, path string) (MediaMetadata, error) {
	out, err := p.engine.Probe(ctx,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return MediaMetadata{}, mediaerr.New(mediaerr.KindProbe, "probe", path, err)
	}

	meta, err := Parse(out)
	if err != nil {
		return MediaMetadata{}, mediaerr.New(mediaerr.KindProbe, "probe", path, err)
	}
	return meta, nil
}

// Parse converts ffprobe JSON into MediaMetadata. Fields that are missing or
// do not parse are left absent rather than zero.
func Parse(data []byte) (MediaMetadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return MediaMetadata{}, err
	}

	meta := MediaMetadata{
		FormatName: out.Format.FormatName,
		Duration:   parseFloat(out.Format.Duration),
		BitRate:    parseInt64(out.Format.BitRate),
	}

	for _, s := range out.Streams {
		info := StreamInfo{
			Index:     s.Index,
			CodecName: s.CodecName,
			Kind:      streamKind(s.CodecType),
		}

		switch info.Kind {
		case KindVideo:
			info.Width = positiveInt(s.Width)
			info.Height = positiveInt(s.Height)
			info.FPS = ParseFrameRate(s.RFrameRate)
			info.PixelFormat = s.PixFmt
		case KindAudio:
			info.Channels = positiveInt(s.Channels)
			if rate := parseInt64(s.SampleRate); rate != nil {
				v := int(*rate)
				info.SampleRate = &v
			}
			info.ChannelLayout = s.ChannelLayout
		}

		meta.Streams = append(meta.Streams, info)
	}

	return meta, nil
}

// ParseFrameRate parses a rational ("30000/1001") or plain ("25") frame rate.
// A zero denominator or an unparseable value yields nil.
func ParseFrameRate(rate string) *float64 {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return nil
	}

	num, den, isRational := strings.Cut(rate, "/")
	if !isRational {
		return parseFloat(num)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return nil
	}

	fps := n / d
	return &fps
}

func streamKind(codecType string) StreamKind {
	switch codecType {
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	case "subtitle":
		return KindSubtitle
	default:
		return KindData
	}
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt64(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func positiveInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
