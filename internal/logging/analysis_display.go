// This file provides console display for the analyze command.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/soundcheck/internal/probe"
	"github.com/linuxmatters/soundcheck/internal/quality"
)

// DisplayAnalysisResults prints one file's measured quality to the console
func DisplayAnalysisResults(w io.Writer, inputPath string, meta probe.MediaMetadata, info *quality.Info) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if d := meta.Duration; d != nil {
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(*d))
	}
	if streams := meta.AudioStreams(); len(streams) > 0 {
		s := streams[0]
		if s.SampleRate != nil {
			fmt.Fprintf(w, "Sample Rate: %d Hz\n", *s.SampleRate)
		}
		if s.Channels != nil {
			fmt.Fprintf(w, "Channels:    %s\n", channelName(*s.Channels))
		}
	}
	fmt.Fprintln(w)

	if info == nil {
		fmt.Fprintln(w, "No analysis available")
		return
	}

	writeAnalysisSection(w, "LEVELS")
	fmt.Fprintf(w, "  Peak Level:     %s\n", withUnit(formatOptionalDB(info.PeakLevel, 1), "dBFS"))
	fmt.Fprintf(w, "  RMS Level:      %s\n", withUnit(formatOptionalDB(info.RMSLevel, 1), "dBFS"))
	fmt.Fprintf(w, "  Dynamic Range:  %s\n", withUnit(formatOptional(info.DynamicRange, 1), "dB"))
	if info.SNR != nil {
		fmt.Fprintf(w, "  SNR:            %.1f dB (%s)\n", *info.SNR, quality.RateSNR(*info.SNR))
	}
	fmt.Fprintln(w)

	writeAnalysisSection(w, "SPECTRUM")
	fmt.Fprintf(w, "  Centroid:       %s\n", withUnit(formatOptional(info.SpectralCentroid, 0), "Hz"))
	fmt.Fprintf(w, "  Rolloff:        %s\n", withUnit(formatOptional(info.SpectralRolloff, 0), "Hz"))
	fmt.Fprintf(w, "  Zero Crossings: %s\n", formatOptional(info.ZeroCrossingRate, 3))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "SILENCE AND CLIPPING")
	fmt.Fprintf(w, "  Silence:        %s\n", withUnit(formatOptionalPercent(info.SilenceRatio), "%"))
	fmt.Fprintf(w, "  Clipping:       %t\n", info.Clipping)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "SCORE: %.0f/100\n", info.Score)
	for _, rec := range info.Recommendations {
		fmt.Fprintf(w, "  • %s\n", rec)
	}
	fmt.Fprintln(w)
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

func withUnit(value, unit string) string {
	if value == MissingValue {
		return value
	}
	return value + " " + unit
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
