package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/linuxmatters/soundcheck/internal/mediaerr"
)

// LoudnessTarget is the EBU R128 target used by loudnorm
type LoudnessTarget struct {
	I   float64 // Integrated loudness, LUFS
	TP  float64 // True peak ceiling, dBTP
	LRA float64 // Loudness range, LU
}

// DefaultLoudnessTarget suits spoken word distribution
var DefaultLoudnessTarget = LoudnessTarget{I: -16.0, TP: -1.5, LRA: 11.0}

// LoudnormStats contains the JSON output from the loudnorm filter
type LoudnormStats struct {
	InputI            string `json:"input_i"`
	InputTP           string `json:"input_tp"`
	InputLRA          string `json:"input_lra"`
	InputThresh       string `json:"input_thresh"`
	OutputI           string `json:"output_i"`
	OutputTP          string `json:"output_tp"`
	OutputLRA         string `json:"output_lra"`
	OutputThresh      string `json:"output_thresh"`
	NormalizationType string `json:"normalization_type"`
	TargetOffset      string `json:"target_offset"`
}

// LoudnormMeasurement holds the results from loudnorm's first pass (measurement mode)
type LoudnormMeasurement struct {
	InputI       float64 // Measured integrated loudness (LUFS)
	InputTP      float64 // Measured true peak (dBTP)
	InputLRA     float64 // Measured loudness range (LU)
	InputThresh  float64 // Measured threshold (LUFS)
	TargetOffset float64 // Offset for the second pass
}

// parseLoudnormStats finds the JSON object loudnorm prints at the end of stderr
func parseLoudnormStats(stderr string) (*LoudnormStats, error) {
	start := strings.LastIndex(stderr, "{")
	end := strings.LastIndex(stderr, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON found in loudnorm output (captured %d bytes)", len(stderr))
	}

	var stats LoudnormStats
	if err := json.Unmarshal([]byte(stderr[start:end+1]), &stats); err != nil {
		return nil, fmt.Errorf("failed to parse loudnorm JSON: %w", err)
	}
	return &stats, nil
}

// Measurement converts the string fields into numbers. loudnorm reports
// "-inf" for silent input, which cannot seed a linear second pass.
func (s *LoudnormStats) Measurement() (*LoudnormMeasurement, error) {
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"input_i", s.InputI, new(float64)},
		{"input_tp", s.InputTP, new(float64)},
		{"input_lra", s.InputLRA, new(float64)},
		{"input_thresh", s.InputThresh, new(float64)},
		{"target_offset", s.TargetOffset, new(float64)},
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil || isNonFinite(v) {
			return nil, fmt.Errorf("loudnorm %s is not a finite number: %q", f.name, f.raw)
		}
		*f.dst = v
	}

	return &LoudnormMeasurement{
		InputI:       *fields[0].dst,
		InputTP:      *fields[1].dst,
		InputLRA:     *fields[2].dst,
		InputThresh:  *fields[3].dst,
		TargetOffset: *fields[4].dst,
	}, nil
}

// MeasureLoudness runs loudnorm's first pass over path without writing output
func (a *Analyzer) MeasureLoudness(ctx context.Context, path string, target LoudnessTarget) (*LoudnormMeasurement, error) {
	chain := Chain{{ID: FilterLoudnormMeasure, Params: StageParams{
		TargetI:   target.I,
		TargetTP:  target.TP,
		TargetLRA: target.LRA,
	}}}

	stderr, err := a.runMeasurement(ctx, path, chain)
	if err != nil {
		return nil, mediaerr.New(mediaerr.KindAnalysis, "measure loudness", path, err)
	}

	stats, err := parseLoudnormStats(string(stderr))
	if err != nil {
		return nil, mediaerr.New(mediaerr.KindAnalysis, "measure loudness", path, err)
	}

	m, err := stats.Measurement()
	if err != nil {
		return nil, mediaerr.New(mediaerr.KindAnalysis, "measure loudness", path, err)
	}

	a.logger.Debug("loudness measured", "path", path, "input_i", m.InputI, "input_tp", m.InputTP, "offset", m.TargetOffset)
	return m, nil
}
