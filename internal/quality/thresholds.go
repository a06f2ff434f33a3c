package quality

// Interpretive thresholds. These are fixed constants: changing them changes
// every score produced.
const (
	SNRExcellentDB  = 20.0 // >= is excellent
	SNRAcceptableDB = 10.0 // >= is acceptable, below is poor

	SevereClipPeakDB = -1.0  // peak above this is severe clipping
	MildClipPeakDB   = -3.0  // peak above this is mild clipping
	QuietPeakDB      = -20.0 // peak below this is too quiet

	OverCompressedDRDB = 10.0 // dynamic range below this is over-compressed
	ExcessiveDRDB      = 60.0 // dynamic range above this is excessively wide

	MaxSilenceRatio = 0.3

	// LowScoreThreshold triggers the overall low-score notice
	LowScoreThreshold = 50.0
)

// SNRRating classifies a signal-to-noise ratio
type SNRRating string

const (
	SNRExcellent  SNRRating = "excellent"
	SNRAcceptable SNRRating = "acceptable"
	SNRPoor       SNRRating = "poor, needs noise reduction"
)

// RateSNR classifies an SNR value in dB
func RateSNR(db float64) SNRRating {
	switch {
	case db >= SNRExcellentDB:
		return SNRExcellent
	case db >= SNRAcceptableDB:
		return SNRAcceptable
	default:
		return SNRPoor
	}
}

// PeakClass classifies a peak level
type PeakClass int

const (
	PeakNormal PeakClass = iota
	PeakTooQuiet
	PeakMildClipping
	PeakSevereClipping
)

// String returns a human-readable label
func (c PeakClass) String() string {
	switch c {
	case PeakTooQuiet:
		return "too quiet"
	case PeakMildClipping:
		return "mild clipping"
	case PeakSevereClipping:
		return "severe clipping"
	default:
		return "normal"
	}
}

// ClassifyPeak classifies a peak level in dBFS
func ClassifyPeak(db float64) PeakClass {
	switch {
	case db > SevereClipPeakDB:
		return PeakSevereClipping
	case db > MildClipPeakDB:
		return PeakMildClipping
	case db < QuietPeakDB:
		return PeakTooQuiet
	default:
		return PeakNormal
	}
}

// DescribeDynamicRange returns an interpretation of a dynamic range in dB
func DescribeDynamicRange(db float64) string {
	switch {
	case db < OverCompressedDRDB:
		return "over-compressed"
	case db > ExcessiveDRDB:
		return "excessively wide"
	default:
		return "normal"
	}
}
