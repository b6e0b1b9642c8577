package forecast

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/urbanflow/backend/pkg/utils"
)

// Features is the per-tick observation fed to a prediction model. Volume
// here is the raw arrival rate in vehicles/hour: model space, not the
// queue-proxy representation.
type Features struct {
	Tick           int       `json:"tick"`
	Timestamp      time.Time `json:"timestamp"`
	ArrivalRateVPH float64   `json:"arrivalRateVph"`
	DensityPercent float64   `json:"densityPercent"`
	AvgSpeedKmh    float64   `json:"avgSpeedKmh"`
}

// Model produces a raw volume forecast in vehicles/hour for a lead time.
// Implementations are opaque and replaceable; remote models must honor
// context cancellation.
type Model interface {
	Name() string
	Predict(ctx context.Context, history []Features, lead time.Duration) (rawVPH float64, confidencePercent float64, err error)
}

// trend model tuning.
const (
	trendWindow        = 60 // ticks of history used for the fit
	trendMinPoints     = 2
	trendMinConfidence = 50.0
	trendMaxConfidence = 95.0
)

// TrendModel is the built-in baseline: an ordinary least-squares fit over
// the recent arrival-rate history, extrapolated to the forecast lead time.
// Confidence is derived from the fit residuals.
type TrendModel struct{}

func (TrendModel) Name() string { return "OLS Trend Baseline" }

// Predict fits volume = a + b·minutes over the trailing window and
// evaluates at now+lead. With too little history it degrades to
// persistence: the last observed value at full spread uncertainty.
func (TrendModel) Predict(_ context.Context, history []Features, lead time.Duration) (float64, float64, error) {
	if len(history) == 0 {
		return 0, trendMinConfidence, nil
	}
	if len(history) < trendMinPoints {
		return history[len(history)-1].ArrivalRateVPH, trendMinConfidence, nil
	}

	window := history
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}

	base := window[0].Timestamp
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, f := range window {
		xs[i] = f.Timestamp.Sub(base).Minutes()
		ys[i] = f.ArrivalRateVPH
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	last := window[len(window)-1]
	target := last.Timestamp.Add(lead).Sub(base).Minutes()
	predicted := intercept + slope*target
	if predicted < 0 {
		predicted = 0
	}

	return predicted, trendConfidence(xs, ys, intercept, slope), nil
}

// trendConfidence maps the fit's relative residual error onto a bounded
// confidence percentage: a clean fit approaches the maximum, a noisy one
// decays toward the minimum.
func trendConfidence(xs, ys []float64, intercept, slope float64) float64 {
	var sse float64
	for i := range xs {
		r := ys[i] - (intercept + slope*xs[i])
		sse += r * r
	}
	rmse := math.Sqrt(sse / float64(len(xs)))
	mean := stat.Mean(ys, nil)
	if mean <= 0 {
		return trendMinConfidence
	}
	spread := trendMaxConfidence - trendMinConfidence
	raw := trendMinConfidence + spread*math.Exp(-rmse/mean)
	return utils.Clamp(utils.RoundTo(raw, 0), trendMinConfidence, trendMaxConfidence)
}
