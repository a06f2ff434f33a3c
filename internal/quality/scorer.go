package quality

import "fmt"

// Score penalties, subtracted from 100 independently
const (
	penaltySevereClip     = 30.0
	penaltyMildClip       = 20.0
	penaltyOverCompressed = 20.0
	penaltyTooQuiet       = 10.0
	penaltyExcessiveDR    = 10.0
	penaltySilence        = 15.0
	penaltyClipDetected   = 25.0
)

// GoodQualityMessage is returned when no rule fires
const GoodQualityMessage = "Audio quality is good, no action needed"

// Score computes the 0-100 quality score. Absent metrics never incur a penalty.
//
// The level-based clipping penalty is tiered: a peak above -3 dBFS costs 20,
// rising to 30 only when the peak is above -1 dBFS and the waveform detector
// also saw flat-topped samples. The detector adds its own 25 on top.
func Score(info *Info) float64 {
	if info == nil {
		return 0
	}

	score := 100.0

	if info.PeakLevel != nil {
		peak := *info.PeakLevel
		switch {
		case peak > SevereClipPeakDB && info.Clipping:
			score -= penaltySevereClip
		case peak > MildClipPeakDB:
			score -= penaltyMildClip
		}
		if peak < QuietPeakDB {
			score -= penaltyTooQuiet
		}
	}

	if info.DynamicRange != nil {
		dr := *info.DynamicRange
		if dr < OverCompressedDRDB {
			score -= penaltyOverCompressed
		}
		if dr > ExcessiveDRDB {
			score -= penaltyExcessiveDR
		}
	}

	if info.SilenceRatio != nil && *info.SilenceRatio > MaxSilenceRatio {
		score -= penaltySilence
	}

	if info.Clipping {
		score -= penaltyClipDetected
	}

	return clamp(score, 0, 100)
}

// recommendationRule returns advice when its condition fires, or "" otherwise
type recommendationRule func(info *Info) string

// rules in fixed priority order: clipping, level, dynamic range, silence
var rules = []recommendationRule{
	adviseClipping,
	adviseLowLevel,
	adviseDynamicRange,
	adviseSilence,
}

// Recommend returns advice in priority order. The overall low-score notice
// comes first; when nothing fires the list holds only GoodQualityMessage.
func Recommend(info *Info, score float64) []string {
	var recs []string

	if score < LowScoreThreshold {
		recs = append(recs, fmt.Sprintf("Overall audio quality is low (%.0f/100); enhancement is recommended", score))
	}

	if info != nil {
		for _, rule := range rules {
			if msg := rule(info); msg != "" {
				recs = append(recs, msg)
			}
		}
	}

	if len(recs) == 0 {
		return []string{GoodQualityMessage}
	}
	return recs
}

func adviseClipping(info *Info) string {
	if info.PeakLevel != nil {
		peak := *info.PeakLevel
		switch ClassifyPeak(peak) {
		case PeakSevereClipping:
			return fmt.Sprintf("Severe clipping risk: peak level %.1f dBFS; reduce input gain and apply a limiter", peak)
		case PeakMildClipping:
			return fmt.Sprintf("Mild clipping risk: peak level %.1f dBFS; leave more headroom", peak)
		}
	}
	if info.Clipping {
		return "Clipping detected in the waveform; reduce input gain and apply a limiter"
	}
	return ""
}

func adviseLowLevel(info *Info) string {
	if info.PeakLevel != nil && *info.PeakLevel < QuietPeakDB {
		return fmt.Sprintf("Audio is too quiet: peak level %.1f dBFS; apply loudness normalization", *info.PeakLevel)
	}
	return ""
}

func adviseDynamicRange(info *Info) string {
	if info.DynamicRange == nil {
		return ""
	}
	dr := *info.DynamicRange
	switch {
	case dr < OverCompressedDRDB:
		return fmt.Sprintf("Audio is over-compressed: dynamic range %.1f dB; reduce compression", dr)
	case dr > ExcessiveDRDB:
		return fmt.Sprintf("Dynamic range is excessively wide: %.1f dB; apply gentle compression", dr)
	}
	return ""
}

func adviseSilence(info *Info) string {
	if info.SilenceRatio != nil && *info.SilenceRatio > MaxSilenceRatio {
		return fmt.Sprintf("Too much silence: %.0f%% of the duration; trim silent sections", *info.SilenceRatio*100)
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
