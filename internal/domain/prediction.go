package domain

import "time"

// Horizon is a forecast lead time label.
type Horizon string

const (
	Horizon15m Horizon = "15m"
	Horizon2h  Horizon = "2h"
	Horizon4h  Horizon = "4h"
)

// HorizonDurations maps every supported horizon to its lead time. Requests
// for any other horizon are rejected with ErrUnsupportedHorizon.
var HorizonDurations = map[Horizon]time.Duration{
	Horizon15m: 15 * time.Minute,
	Horizon2h:  2 * time.Hour,
	Horizon4h:  4 * time.Hour,
}

// Risk labels derived from congestion risk percent.
const (
	RiskSmooth   = "Smooth"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

// Prediction is the calibrated forecast for one intersection and horizon.
// Both volume fields are in queue-proxy units.
type Prediction struct {
	IntersectionID        string    `json:"intersectionId"`
	Horizon               Horizon   `json:"horizon"`
	ModelName             string    `json:"modelName"`
	CurrentVolume         int       `json:"currentVolume"`
	PredictedVolume       int       `json:"predictedVolume"`
	DeltaVolume           int       `json:"deltaVolume"`
	CongestionRiskPercent float64   `json:"congestionRiskPercent"`
	RiskLabel             string    `json:"riskLabel"`
	PeakForecastTime      string    `json:"peakForecastTime"` // HH:MM
	ConfidencePercent     float64   `json:"systemConfidencePercent"`
	GeneratedAt           time.Time `json:"generatedAt"`
	Stale                 bool      `json:"stale"`
}

// ForecastPoint is one entry of a multi-horizon forecast. The "now" point
// carries only the current volume and a nil prediction.
type ForecastPoint struct {
	Timestamp           time.Time `json:"timestamp"`
	CurrentVolume       int       `json:"currentVolume"`
	PredictedVolume     *int      `json:"predictedVolume"`
	CongestionThreshold float64   `json:"congestionThreshold"`
	CongestionDetected  bool      `json:"congestionDetected"`
}

// RiskLabelFor maps a congestion risk percentage onto the UI label set.
func RiskLabelFor(riskPercent float64) string {
	switch {
	case riskPercent >= 90:
		return RiskCritical
	case riskPercent >= 76:
		return RiskHigh
	case riskPercent >= 50:
		return RiskModerate
	default:
		return RiskSmooth
	}
}
