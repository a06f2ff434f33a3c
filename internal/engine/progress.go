package engine

import (
	"strconv"
	"strings"
)

// ProgressFunc receives completion fractions between 0 and 1.
// Purely observational: the engine never changes behaviour based on it.
type ProgressFunc func(fraction float64)

// progressTracker turns ffmpeg -progress key=value lines into fractions
type progressTracker struct {
	totalUS  float64
	callback ProgressFunc
	last     float64
}

func newProgressTracker(totalSeconds float64, cb ProgressFunc) *progressTracker {
	return &progressTracker{totalUS: totalSeconds * 1e6, callback: cb}
}

// handleLine parses one progress line. out_time_us can be "N/A" at the start, which is skipped.
func (p *progressTracker) handleLine(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys are reported in microseconds
		if p.totalUS <= 0 {
			return
		}
		us, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}
		fraction := us / p.totalUS
		if fraction > 1 {
			fraction = 1
		}
		if fraction > p.last {
			p.last = fraction
			p.callback(fraction)
		}
	case "progress":
		if value == "end" && p.last < 1 {
			p.last = 1
			p.callback(1)
		}
	}
}
