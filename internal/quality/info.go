// Package quality turns raw audio measurements into a 0-100 score and
// prioritised recommendations.
package quality

// Info holds the measured quality of one audio file.
// Every numeric field is optional: nil means "not measured", never zero.
// Values are produced fresh by each analysis and never updated in place.
type Info struct {
	SNR              *float64 `json:"snr_db,omitempty"`            // dB, RMS level over noise floor
	DynamicRange     *float64 `json:"dynamic_range_db,omitempty"`  // dB
	PeakLevel        *float64 `json:"peak_level_dbfs,omitempty"`   // dBFS, <= 0 expected
	RMSLevel         *float64 `json:"rms_level_dbfs,omitempty"`    // dBFS
	Clipping         bool     `json:"clipping"`                    // Flat-topped waveform detected
	SilenceRatio     *float64 `json:"silence_ratio,omitempty"`     // 0.0-1.0 of total duration
	SpectralCentroid *float64 `json:"spectral_centroid_hz,omitempty"`
	SpectralRolloff  *float64 `json:"spectral_rolloff_hz,omitempty"`
	ZeroCrossingRate *float64 `json:"zero_crossing_rate,omitempty"`

	Score           float64  `json:"score"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisFailedMessage is the single recommendation returned when no measurement succeeded
const AnalysisFailedMessage = "Audio analysis failed; quality could not be determined"

// Failed returns the result used when every measurement pass failed
func Failed() *Info {
	return &Info{
		Score:           0,
		Recommendations: []string{AnalysisFailedMessage},
	}
}

// HasMeasurements reports whether any metric was captured
func (i *Info) HasMeasurements() bool {
	if i == nil {
		return false
	}
	return i.SNR != nil || i.DynamicRange != nil || i.PeakLevel != nil || i.RMSLevel != nil ||
		i.SilenceRatio != nil || i.SpectralCentroid != nil || i.SpectralRolloff != nil ||
		i.ZeroCrossingRate != nil || i.Clipping
}

// Assess returns a copy of info with Score and Recommendations filled in
func Assess(info Info) *Info {
	info.Score = Score(&info)
	info.Recommendations = Recommend(&info, info.Score)
	return &info
}

// Float returns a pointer to v, for building Info values
func Float(v float64) *float64 {
	return &v
}
