package processor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// The functions in this file scrape measurements from the engine's log output.
// Each follows a parse-or-absent contract: a metric is returned only when a line
// for it was recognised and its value parsed, and unknown lines are ignored.
// Engine version differences should only ever need changes here.

// levelStats is the subset of the astats summary the analyzer uses
type levelStats struct {
	PeakLevel        *float64 // dBFS
	RMSLevel         *float64 // dBFS
	DynamicRange     *float64 // dB
	NoiseFloor       *float64 // dBFS
	ZeroCrossingRate *float64
	FlatFactor       *float64
}

// found reports whether any statistic was recognised
func (s levelStats) found() bool {
	return s.PeakLevel != nil || s.RMSLevel != nil || s.DynamicRange != nil ||
		s.NoiseFloor != nil || s.ZeroCrossingRate != nil || s.FlatFactor != nil
}

// astats summary keys
const (
	astatsPeakLevel   = "Peak level dB"
	astatsRMSLevel    = "RMS level dB"
	astatsDynamic     = "Dynamic range"
	astatsNoiseFloor  = "Noise floor dB"
	astatsZeroCrossRt = "Zero crossings rate"
	astatsFlatFactor  = "Flat factor"
)

// parseLevelStats reads the astats end-of-stream report. Values in the
// "Overall" section take precedence; per-channel values from the first
// channel fill keys the overall section does not report (dynamic range and
// zero-crossing rate are per-channel only).
func parseLevelStats(stderr string) levelStats {
	overall := map[string]float64{}
	channel := map[string]float64{}

	var section map[string]float64
	channelsSeen := 0

	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "astats") {
			continue
		}
		content := afterTag(line)

		switch {
		case content == "Overall":
			section = overall
			continue
		case strings.HasPrefix(content, "Channel:"):
			channelsSeen++
			if channelsSeen == 1 {
				section = channel
			} else {
				section = nil
			}
			continue
		}

		if section == nil {
			continue
		}
		key, raw, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(v) {
			section[strings.TrimSpace(key)] = v
		}
	}

	pick := func(key string) *float64 {
		if v, ok := overall[key]; ok {
			return finite(v)
		}
		if v, ok := channel[key]; ok {
			return finite(v)
		}
		return nil
	}

	return levelStats{
		PeakLevel:        pick(astatsPeakLevel),
		RMSLevel:         pick(astatsRMSLevel),
		DynamicRange:     pick(astatsDynamic),
		NoiseFloor:       pick(astatsNoiseFloor),
		ZeroCrossingRate: pick(astatsZeroCrossRt),
		FlatFactor:       pick(astatsFlatFactor),
	}
}

// spectralStats holds frame-averaged spectral features
type spectralStats struct {
	Centroid *float64 // Hz
	Rolloff  *float64 // Hz
}

// Keys printed by ametadata for the first channel
const (
	metaKeySpectralCentroid = "lavfi.aspectralstats.1.centroid"
	metaKeySpectralRolloff  = "lavfi.aspectralstats.1.rolloff"
)

// parseSpectralStats averages aspectralstats values printed by ametadata=mode=print.
// Silent frames report nan and are skipped.
func parseSpectralStats(stderr string) spectralStats {
	var centroidSum, rolloffSum float64
	var centroidCount, rolloffCount int

	for _, line := range strings.Split(stderr, "\n") {
		key, raw, ok := strings.Cut(afterTag(line), "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || isNonFinite(v) {
			continue
		}
		switch strings.TrimSpace(key) {
		case metaKeySpectralCentroid:
			centroidSum += v
			centroidCount++
		case metaKeySpectralRolloff:
			rolloffSum += v
			rolloffCount++
		}
	}

	var stats spectralStats
	if centroidCount > 0 {
		stats.Centroid = ptrFloat(centroidSum / float64(centroidCount))
	}
	if rolloffCount > 0 {
		stats.Rolloff = ptrFloat(rolloffSum / float64(rolloffCount))
	}
	return stats
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*([-+0-9.eE]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([-+0-9.eE]+)\s*\|\s*silence_duration:\s*([-+0-9.eE]+)`)
	durationRe     = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// parseSilence sums silencedetect intervals and returns the fraction of
// totalSeconds they cover. A silence still open at end of stream runs to
// totalSeconds. Returns nil when the total duration is unknown.
func parseSilence(stderr string, totalSeconds float64) *float64 {
	if totalSeconds <= 0 {
		return nil
	}

	var silent float64
	openStart := -1.0

	for _, line := range strings.Split(stderr, "\n") {
		if m := silenceEndRe.FindStringSubmatch(line); m != nil {
			if d, err := strconv.ParseFloat(m[2], 64); err == nil {
				silent += d
			}
			openStart = -1
			continue
		}
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if s, err := strconv.ParseFloat(m[1], 64); err == nil {
				openStart = math.Max(s, 0)
			}
		}
	}

	if openStart >= 0 && openStart < totalSeconds {
		silent += totalSeconds - openStart
	}

	ratio := silent / totalSeconds
	if ratio > 1 {
		ratio = 1
	}
	return &ratio
}

// parseEngineDuration reads the input duration from ffmpeg's banner
func parseEngineDuration(stderr string) *float64 {
	m := durationRe.FindStringSubmatch(stderr)
	if m == nil {
		return nil
	}
	h, _ := strconv.ParseFloat(m[1], 64)
	mins, _ := strconv.ParseFloat(m[2], 64)
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil
	}
	total := h*3600 + mins*60 + sec
	return &total
}

// afterTag strips the "[Parsed_x_0 @ 0x...] " prefix ffmpeg puts on filter log lines
func afterTag(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[") {
		if i := strings.Index(line, "] "); i >= 0 {
			return strings.TrimSpace(line[i+2:])
		}
	}
	return line
}

func finite(v float64) *float64 {
	if isNonFinite(v) {
		return nil
	}
	return &v
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func ptrFloat(v float64) *float64 {
	return &v
}
