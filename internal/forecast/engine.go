package forecast

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/pkg/utils"
)

// historyCap bounds the per-intersection feature buffer.
const historyCap = 600

// Config tunes one forecast engine instance.
type Config struct {
	// CapacityProxyVPH is the queue-proxy volume corresponding to 100%
	// density; the congestion threshold is a percentage of it.
	CapacityProxyVPH float64

	// CongestionAlertPercent is the capacity percentage above which a
	// forecast point is flagged as congested. Default 80.
	CongestionAlertPercent float64

	// CalibrationWindowTicks sizes the EWMA window of the scale factor.
	CalibrationWindowTicks int

	// ModelTimeout bounds a single remote model call.
	ModelTimeout time.Duration
}

// Engine produces calibrated predictions for a single intersection. The
// primary model (usually a remote artifact) is tried first with a timeout;
// the local trend baseline covers every failure, and the last valid
// prediction covers the rest; stale beats blocked.
type Engine struct {
	intersectionID string
	cfg            Config
	primary        Model
	fallback       Model
	calib          *Calibrator
	history        []Features
	lastValid      map[domain.Horizon]domain.Prediction
}

// NewEngine builds a forecast engine. primary may be nil, in which case
// only the local trend model is used.
func NewEngine(intersectionID string, primary Model, cfg Config) *Engine {
	if cfg.CongestionAlertPercent <= 0 {
		cfg.CongestionAlertPercent = 80
	}
	if cfg.CalibrationWindowTicks <= 0 {
		cfg.CalibrationWindowTicks = 150
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = 500 * time.Millisecond
	}
	return &Engine{
		intersectionID: intersectionID,
		cfg:            cfg,
		primary:        primary,
		fallback:       TrendModel{},
		calib:          NewCalibrator(cfg.CalibrationWindowTicks),
		lastValid:      make(map[domain.Horizon]domain.Prediction),
	}
}

// Observe ingests one tick of features and updates the calibration factor
// with the observed queueProxy/arrival-rate ratio.
func (e *Engine) Observe(f Features, queueProxyVPH float64) {
	e.history = append(e.history, f)
	if len(e.history) > historyCap {
		e.history = e.history[len(e.history)-historyCap:]
	}
	e.calib.Observe(queueProxyVPH, f.ArrivalRateVPH)
}

// ScaleFactor exposes the current calibration factor.
func (e *Engine) ScaleFactor() float64 {
	return e.calib.Factor()
}

// CongestionThreshold is the queue-proxy volume above which congestion is
// flagged.
func (e *Engine) CongestionThreshold() float64 {
	return utils.RoundTo(e.cfg.CapacityProxyVPH*e.cfg.CongestionAlertPercent/100.0, 1)
}

// Predict produces a calibrated prediction for one horizon. Horizons the
// model set was not trained for are rejected with ErrUnsupportedHorizon.
// Model failure degrades to the trend baseline; if no model output can be
// produced at all, the last valid prediction is returned marked stale.
func (e *Engine) Predict(ctx context.Context, now time.Time, horizon domain.Horizon, currentVolume int) (domain.Prediction, error) {
	lead, ok := domain.HorizonDurations[horizon]
	if !ok {
		return domain.Prediction{}, fmt.Errorf("forecast: horizon %q: %w", horizon, domain.ErrUnsupportedHorizon)
	}

	rawVPH, confidence, modelName, err := e.rawPredict(ctx, lead)
	if err != nil {
		if last, ok := e.lastValid[horizon]; ok {
			last.Stale = true
			return last, nil
		}
		return domain.Prediction{}, fmt.Errorf("forecast: %s/%s: %w", e.intersectionID, horizon, domain.ErrUpstreamUnavailable)
	}

	predicted := int(math.Round(rawVPH * e.calib.Factor()))
	risk := utils.Clamp(float64(predicted)/math.Max(1, e.cfg.CapacityProxyVPH)*100.0, 0, 100)

	pred := domain.Prediction{
		IntersectionID:        e.intersectionID,
		Horizon:               horizon,
		ModelName:             modelName,
		CurrentVolume:         currentVolume,
		PredictedVolume:       predicted,
		DeltaVolume:           predicted - currentVolume,
		CongestionRiskPercent: utils.RoundTo(risk, 1),
		RiskLabel:             domain.RiskLabelFor(risk),
		PeakForecastTime:      now.Add(lead).Format("15:04"),
		ConfidencePercent:     utils.Clamp(confidence, 0, 100),
		GeneratedAt:           now,
	}
	e.lastValid[horizon] = pred
	return pred, nil
}

// Forecast returns timestamp-ordered points for the requested horizons.
// The first point is always "now": current volume only, nil prediction.
func (e *Engine) Forecast(ctx context.Context, now time.Time, horizons []domain.Horizon, currentVolume int) ([]domain.ForecastPoint, error) {
	leads := make([]time.Duration, len(horizons))
	for i, h := range horizons {
		lead, ok := domain.HorizonDurations[h]
		if !ok {
			return nil, fmt.Errorf("forecast: horizon %q: %w", h, domain.ErrUnsupportedHorizon)
		}
		leads[i] = lead
	}

	ordered := make([]domain.Horizon, len(horizons))
	copy(ordered, horizons)
	sort.Slice(ordered, func(i, j int) bool {
		return domain.HorizonDurations[ordered[i]] < domain.HorizonDurations[ordered[j]]
	})

	threshold := e.CongestionThreshold()
	points := []domain.ForecastPoint{{
		Timestamp:           now,
		CurrentVolume:       currentVolume,
		PredictedVolume:     nil,
		CongestionThreshold: threshold,
		CongestionDetected:  float64(currentVolume) > threshold,
	}}

	for _, h := range ordered {
		pred, err := e.Predict(ctx, now, h, currentVolume)
		if err != nil {
			return nil, err
		}
		v := pred.PredictedVolume
		points = append(points, domain.ForecastPoint{
			Timestamp:           now.Add(domain.HorizonDurations[h]),
			CurrentVolume:       currentVolume,
			PredictedVolume:     &v,
			CongestionThreshold: threshold,
			CongestionDetected:  float64(v) > threshold,
		})
	}
	return points, nil
}

// rawPredict runs the primary model under its timeout, falling back to the
// local trend model on any failure.
func (e *Engine) rawPredict(ctx context.Context, lead time.Duration) (float64, float64, string, error) {
	if e.primary != nil {
		mctx, cancel := context.WithTimeout(ctx, e.cfg.ModelTimeout)
		raw, conf, err := e.primary.Predict(mctx, e.history, lead)
		cancel()
		if err == nil {
			return raw, conf, e.primary.Name(), nil
		}
		log.Printf("forecast: %s: primary model failed, using trend baseline: %v", e.intersectionID, err)
	}
	raw, conf, err := e.fallback.Predict(ctx, e.history, lead)
	if err != nil {
		return 0, 0, "", err
	}
	return raw, conf, e.fallback.Name(), nil
}
