package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/soundcheck/internal/probe"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// ============================================================================
// Spectral Characteristic Interpretation Functions
// ============================================================================

// interpretCentroid describes spectral "brightness". The centroid is the
// centre of gravity of the spectrum; male voiced speech sits around
// 500-2500 Hz, female voiced speech 800-3500 Hz.
func interpretCentroid(hz float64) string {
	switch {
	case hz < 500:
		return "very dark, possible rumble"
	case hz < 1500:
		return "warm, full-bodied"
	case hz < 2500:
		return "balanced, natural voice"
	case hz < 4000:
		return "present, forward"
	case hz < 6000:
		return "bright, crisp"
	default:
		return "very bright, potentially harsh"
	}
}

// interpretRolloff describes effective bandwidth via the 85% energy threshold
func interpretRolloff(hz float64) string {
	switch {
	case hz < 2000:
		return "dark, muffled, heavy filtering"
	case hz < 4000:
		return "warm, controlled high frequencies"
	case hz < 7000:
		return "balanced brightness, natural speech"
	case hz < 11000:
		return "bright, airy, good articulation"
	default:
		return "very bright, significant sibilance"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with a dashed underline of matching length
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains everything needed to write an analysis report
type ReportData struct {
	InputPath    string
	AudioPath    string
	EnhancedPath string // Empty when no enhancement ran
	Metadata     probe.MediaMetadata
	Before       *quality.Info // Quality of the extracted audio
	After        *quality.Info // Quality of the enhanced audio, if compared
	Improvements []string
	StartTime    time.Time
	EndTime      time.Time
}

// outputPath is the most derived file the run produced
func (d ReportData) outputPath() string {
	if d.EnhancedPath != "" {
		return d.EnhancedPath
	}
	return d.AudioPath
}

// GenerateReport writes the report alongside the run's final output file:
// 1f2e..._enhanced.wav → 1f2e..._enhanced.log. It returns the report path.
func GenerateReport(data ReportData) (string, error) {
	out := data.outputPath()
	if out == "" {
		return "", fmt.Errorf("no output path to place the report next to")
	}
	logPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", err
	}
	return logPath, nil
}

// WriteReport renders the report:
// 1. Header - file info and timestamp
// 2. Processing Summary - elapsed time
// 3. Source - container and streams
// 4. Enhancements Applied
// 5. Quality Measurements - before/after table
// 6. Recommendations
func WriteReport(w io.Writer, data ReportData) error {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writeSource(w, data.Metadata)
	writeEnhancements(w, data.Improvements)
	writeQualityTable(w, data.Before, data.After)
	writeRecommendations(w, data.Before, data.After)
	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Soundcheck Analysis Report")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	if !data.EndTime.IsZero() {
		fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	}
	if d := data.Metadata.Duration; d != nil {
		fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(*d*float64(time.Second))))
	}
	fmt.Fprintln(w, "")
}

func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Audio:    %s\n", data.AudioPath)
	if data.EnhancedPath != "" {
		fmt.Fprintf(w, "Enhanced: %s\n", data.EnhancedPath)
	}

	total := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:    %s", formatDuration(total))
	if d := data.Metadata.Duration; d != nil && total > 0 {
		audioDuration := time.Duration(*d * float64(time.Second))
		fmt.Fprintf(w, " (%.0fx real-time)", float64(audioDuration)/float64(total))
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

func writeSource(w io.Writer, m probe.MediaMetadata) {
	writeSection(w, "Source")

	format := m.FormatName
	if format == "" {
		format = "unknown"
	}
	fmt.Fprintf(w, "Container: %s\n", format)
	if m.BitRate != nil {
		fmt.Fprintf(w, "Bitrate:   %d kb/s\n", *m.BitRate/1000)
	}

	for _, s := range m.Streams {
		fmt.Fprintf(w, "Stream %d:  %s %s", s.Index, s.Kind, s.CodecName)
		switch s.Kind {
		case probe.KindVideo:
			if s.Width != nil && s.Height != nil {
				fmt.Fprintf(w, ", %dx%d", *s.Width, *s.Height)
			}
			if s.FPS != nil {
				fmt.Fprintf(w, ", %.2f fps", *s.FPS)
			}
		case probe.KindAudio:
			if s.SampleRate != nil {
				fmt.Fprintf(w, ", %d Hz", *s.SampleRate)
			}
			if s.Channels != nil {
				fmt.Fprintf(w, ", %s", channelName(*s.Channels))
			}
		}
		fmt.Fprintln(w, "")
	}
	fmt.Fprintln(w, "")
}

func writeEnhancements(w io.Writer, improvements []string) {
	writeSection(w, "Enhancements Applied")
	if len(improvements) == 0 {
		fmt.Fprintln(w, "None")
	}
	for _, line := range improvements {
		fmt.Fprintf(w, "  • %s\n", line)
	}
	fmt.Fprintln(w, "")
}

// writeQualityTable outputs the measurement table. With both analyses
// present it has Before, After and Change columns.
func writeQualityTable(w io.Writer, before, after *quality.Info) {
	writeSection(w, "Quality Measurements")

	if before == nil && after == nil {
		fmt.Fprintln(w, "Not analysed")
		fmt.Fprintln(w, "")
		return
	}

	var infos []*quality.Info
	table := NewMetricTable()
	if before != nil {
		infos = append(infos, before)
		table.Headers = append(table.Headers, "Before")
	}
	if after != nil {
		infos = append(infos, after)
		table.Headers = append(table.Headers, "After")
	}

	// last supplies the interpretation column
	last := infos[len(infos)-1]

	pick := func(get func(*quality.Info) *float64) []*float64 {
		out := make([]*float64, len(infos))
		for i, info := range infos {
			out[i] = get(info)
		}
		return out
	}
	dbRow := func(label string, get func(*quality.Info) *float64, interp string) {
		values := pick(get)
		formatted := make([]string, len(values))
		for i, v := range values {
			formatted[i] = formatOptionalDB(v, 1)
		}
		table.AddRow(label, formatted, "dBFS", interp)
	}

	peakInterp := ""
	if last.PeakLevel != nil {
		peakInterp = quality.ClassifyPeak(*last.PeakLevel).String()
	}
	dbRow("Peak Level", func(i *quality.Info) *float64 { return i.PeakLevel }, peakInterp)
	dbRow("RMS Level", func(i *quality.Info) *float64 { return i.RMSLevel }, "")

	drInterp := ""
	if last.DynamicRange != nil {
		drInterp = quality.DescribeDynamicRange(*last.DynamicRange)
	}
	table.AddOptionalRow("Dynamic Range", pick(func(i *quality.Info) *float64 { return i.DynamicRange }), 1, "dB", drInterp)

	snrInterp := ""
	if last.SNR != nil {
		snrInterp = string(quality.RateSNR(*last.SNR))
	}
	table.AddOptionalRow("Signal-to-Noise", pick(func(i *quality.Info) *float64 { return i.SNR }), 1, "dB", snrInterp)

	silence := make([]string, len(infos))
	for i, info := range infos {
		silence[i] = formatOptionalPercent(info.SilenceRatio)
	}
	table.AddRow("Silence", silence, "%", "")

	centroidInterp := ""
	if last.SpectralCentroid != nil {
		centroidInterp = interpretCentroid(*last.SpectralCentroid)
	}
	table.AddOptionalRow("Spectral Centroid", pick(func(i *quality.Info) *float64 { return i.SpectralCentroid }), 0, "Hz", centroidInterp)

	rolloffInterp := ""
	if last.SpectralRolloff != nil {
		rolloffInterp = interpretRolloff(*last.SpectralRolloff)
	}
	table.AddOptionalRow("Spectral Rolloff", pick(func(i *quality.Info) *float64 { return i.SpectralRolloff }), 0, "Hz", rolloffInterp)
	table.AddOptionalRow("Zero Crossing Rate", pick(func(i *quality.Info) *float64 { return i.ZeroCrossingRate }), 3, "", "")

	clipping := make([]string, len(infos))
	scores := make([]string, len(infos))
	for i, info := range infos {
		clipping[i] = "no"
		if info.Clipping {
			clipping[i] = "yes"
		}
		scores[i] = formatMetric(info.Score, 0)
	}
	table.AddRow("Clipping", clipping, "", "")
	table.AddRow("Score", scores, "/100", "")

	fmt.Fprint(w, table.String())

	if before != nil && after != nil {
		fmt.Fprintf(w, "\nQuality change: %s\n", formatMetricSigned(after.Score-before.Score, 0))
	}
	fmt.Fprintln(w, "")
}

// writeRecommendations lists advice for the final state of the audio
func writeRecommendations(w io.Writer, before, after *quality.Info) {
	info := after
	if info == nil {
		info = before
	}
	if info == nil {
		return
	}

	writeSection(w, "Recommendations")
	for _, rec := range info.Recommendations {
		fmt.Fprintf(w, "  • %s\n", rec)
	}
	fmt.Fprintln(w, "")
}
