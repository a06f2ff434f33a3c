package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/soundcheck/internal/engine"
	"github.com/linuxmatters/soundcheck/internal/engine/enginetest"
)

func TestParseVideoWithAudio(t *testing.T) {
	meta, err := Parse([]byte(enginetest.ProbeVideoWithAudio))
	require.NoError(t, err)

	require.NotNil(t, meta.Duration)
	assert.InDelta(t, 10.0, *meta.Duration, 1e-9)
	require.NotNil(t, meta.BitRate)
	assert.Equal(t, int64(2500000), *meta.BitRate)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", meta.FormatName)
	require.Len(t, meta.Streams, 2)

	video := meta.Streams[0]
	assert.Equal(t, KindVideo, video.Kind)
	require.NotNil(t, video.FPS)
	assert.InDelta(t, 29.97, *video.FPS, 0.01)
	assert.Equal(t, 1920, *video.Width)
	assert.Nil(t, video.Channels, "audio fields must be absent on video streams")
	assert.Nil(t, video.SampleRate)

	audio := meta.Streams[1]
	assert.Equal(t, KindAudio, audio.Kind)
	assert.Equal(t, 48000, *audio.SampleRate)
	assert.Equal(t, 2, *audio.Channels)
	assert.Equal(t, "stereo", audio.ChannelLayout)
	assert.Nil(t, audio.Width, "video fields must be absent on audio streams")
	assert.Nil(t, audio.FPS)

	assert.True(t, meta.HasAudio())
}

func TestParseMissingFieldsAreAbsent(t *testing.T) {
	meta, err := Parse([]byte(`{"format": {"duration": "N/A"}, "streams": [{"index": 0, "codec_type": "data"}]}`))
	require.NoError(t, err)

	assert.Nil(t, meta.Duration)
	assert.Nil(t, meta.BitRate)
	assert.Equal(t, KindData, meta.Streams[0].Kind)
	assert.False(t, meta.HasAudio())
	assert.Equal(t, 3.5, meta.DurationOr(3.5))
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"25/1", ptr(25)},
		{"30000/1001", ptr(30000.0 / 1001.0)},
		{"24", ptr(24)},
		{"0/0", nil},
		{"25/0", nil},
		{"", nil},
		{"abc/1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseFrameRate(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestProbeFailureDegradesToEmptyMetadata(t *testing.T) {
	runner := enginetest.New(func(enginetest.Call) (string, string, error) {
		return "", "in.mp4: No such file or directory", errors.New("exit status 1")
	})
	p := NewProber(engine.NewWithRunner("ffmpeg", "ffprobe", runner, nil), hclog.NewNullLogger())

	meta := p.Probe(context.Background(), "in.mp4")
	assert.Equal(t, MediaMetadata{}, meta)
}

func TestProbeUnparseableOutputDegrades(t *testing.T) {
	runner := enginetest.New(func(enginetest.Call) (string, string, error) {
		return "not json", "", nil
	})
	p := NewProber(engine.NewWithRunner("ffmpeg", "ffprobe", runner, nil), nil)

	assert.Equal(t, MediaMetadata{}, p.Probe(context.Background(), "in.mp4"))
}

func TestProbeRequestsJSON(t *testing.T) {
	runner := enginetest.New(func(enginetest.Call) (string, string, error) {
		return enginetest.ProbeAudioWAV, "", nil
	})
	p := NewProber(engine.NewWithRunner("ffmpeg", "ffprobe", runner, nil), nil)

	meta := p.Probe(context.Background(), "in.wav")
	assert.True(t, meta.HasAudio())

	call := runner.Calls()[0]
	assert.Equal(t, "json", call.ArgAfter("-print_format"))
	assert.True(t, call.Has("-show_streams"))
	assert.Equal(t, "in.wav", call.Output())
}

func ptr(v float64) *float64 { return &v }
