package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/probe"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

func sampleMetadata() probe.MediaMetadata {
	duration := 600.0
	bitrate := int64(2500000)
	width, height := 1920, 1080
	rate, channels := 48000, 2
	return probe.MediaMetadata{
		Duration:   &duration,
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		BitRate:    &bitrate,
		Streams: []probe.StreamInfo{
			{Index: 0, CodecName: "h264", Kind: probe.KindVideo, Width: &width, Height: &height},
			{Index: 1, CodecName: "aac", Kind: probe.KindAudio, SampleRate: &rate, Channels: &channels},
		},
	}
}

func sampleData() ReportData {
	before := quality.Assess(quality.Info{
		PeakLevel:        quality.Float(-0.5),
		RMSLevel:         quality.Float(-18),
		DynamicRange:     quality.Float(8),
		SNR:              quality.Float(34),
		SilenceRatio:     quality.Float(0.05),
		SpectralCentroid: quality.Float(450),
	})
	after := quality.Assess(quality.Info{
		PeakLevel:        quality.Float(-1.5),
		RMSLevel:         quality.Float(-16),
		DynamicRange:     quality.Float(14),
		SNR:              quality.Float(38),
		SilenceRatio:     quality.Float(0.05),
		SpectralCentroid: quality.Float(480),
	})

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return ReportData{
		InputPath:    "/uploads/episode.mp4",
		AudioPath:    "/audio/abc_audio.wav",
		EnhancedPath: "/audio/def_enhanced.wav",
		Metadata:     sampleMetadata(),
		Before:       before,
		After:        after,
		Improvements: []string{"Removed DC offset", "Applied safety limiter at -0.5 dBFS"},
		StartTime:    start,
		EndTime:      start.Add(30 * time.Second),
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleData()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Soundcheck Analysis Report",
		"File: episode.mp4",
		"Duration: 10m 0s",
		"(20x real-time)",
		"Stream 0:  video h264, 1920x1080",
		"Stream 1:  audio aac, 48000 Hz, stereo",
		"• Removed DC offset",
		"Before",
		"After",
		"very dark, possible rumble",
		"excellent",
		"Quality change: +20",
		"Recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportWithoutAnalysis(t *testing.T) {
	data := sampleData()
	data.Before, data.After = nil, nil
	data.Improvements = nil

	var buf bytes.Buffer
	if err := WriteReport(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "Not analysed") {
		t.Errorf("expected 'Not analysed' placeholder:\n%s", out)
	}
	if !strings.Contains(out, "None") {
		t.Errorf("expected 'None' for enhancements:\n%s", out)
	}
	if strings.Contains(out, "Recommendations") {
		t.Error("recommendations need an analysis")
	}
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	data := sampleData()
	data.EnhancedPath = filepath.Join(dir, "def_enhanced.wav")

	path, err := GenerateReport(data)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if want := filepath.Join(dir, "def_enhanced.log"); path != want {
		t.Errorf("report path = %q, want %q", path, want)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "Soundcheck Analysis Report") {
		t.Errorf("unexpected report content: %q", content[:40])
	}

	if _, err := GenerateReport(ReportData{}); err == nil {
		t.Error("expected an error without an output path")
	}
}

func TestDisplayAnalysisResults(t *testing.T) {
	var buf bytes.Buffer
	info := sampleData().Before
	DisplayAnalysisResults(&buf, "/audio/abc_audio.wav", sampleMetadata(), info)
	out := buf.String()

	for _, want := range []string{
		"ANALYSIS: abc_audio.wav",
		"Sample Rate: 48000 Hz",
		"Peak Level:     -0.5 dBFS",
		"SNR:            34.0 dB (excellent)",
		"Rolloff:        -",
		"SCORE: 60/100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("display missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute + 3*time.Second, "2h 5m 3s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("soundcheck", hclog.Info, &buf)
	logger.Debug("hidden")
	logger.Info("visible", "path", "a.wav")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug output should be filtered at info level")
	}
	if !strings.Contains(out, "soundcheck: visible: path=a.wav") {
		t.Errorf("unexpected log line %q", out)
	}
}
