package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

type stubModel struct {
	raw  float64
	conf float64
	err  error
}

func (stubModel) Name() string { return "Stub Model" }

func (m stubModel) Predict(_ context.Context, _ []Features, _ time.Duration) (float64, float64, error) {
	return m.raw, m.conf, m.err
}

func newTestEngine(primary Model) *Engine {
	return NewEngine("SUR-4092", primary, Config{
		CapacityProxyVPH:       12800,
		CongestionAlertPercent: 80,
	})
}

func seedHistory(e *Engine, n int) {
	start := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		e.Observe(Features{
			Tick:           i + 1,
			Timestamp:      start.Add(time.Duration(i) * time.Minute),
			ArrivalRateVPH: 1200,
		}, 1920)
	}
}

func TestEnginePredict(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("rejects unsupported horizon", func(t *testing.T) {
		e := newTestEngine(nil)
		_, err := e.Predict(context.Background(), now, domain.Horizon("45m"), 1000)
		if !errors.Is(err, domain.ErrUnsupportedHorizon) {
			t.Errorf("err = %v, want ErrUnsupportedHorizon", err)
		}
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, should also match ErrInvalidArgument", err)
		}
	})

	t.Run("applies the calibration factor to raw output", func(t *testing.T) {
		e := newTestEngine(stubModel{raw: 1000, conf: 90})
		seedHistory(e, 10) // steady ratio 1920/1200 = 1.6
		pred, err := e.Predict(context.Background(), now, domain.Horizon15m, 1900)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if pred.PredictedVolume != 1600 {
			t.Errorf("PredictedVolume = %d, want 1000 x 1.6 = 1600", pred.PredictedVolume)
		}
		if pred.ModelName != "Stub Model" {
			t.Errorf("ModelName = %q, want primary model", pred.ModelName)
		}
		if pred.DeltaVolume != 1600-1900 {
			t.Errorf("DeltaVolume = %d, want -300", pred.DeltaVolume)
		}
	})

	t.Run("primary failure falls back to the trend baseline", func(t *testing.T) {
		e := newTestEngine(stubModel{err: errors.New("model service down")})
		seedHistory(e, 10)
		pred, err := e.Predict(context.Background(), now, domain.Horizon15m, 1900)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if pred.ModelName != (TrendModel{}).Name() {
			t.Errorf("ModelName = %q, want trend baseline", pred.ModelName)
		}
		if pred.Stale {
			t.Error("fallback prediction should not be marked stale")
		}
	})

	t.Run("peak forecast time is now plus the horizon lead", func(t *testing.T) {
		e := newTestEngine(stubModel{raw: 800, conf: 80})
		seedHistory(e, 5)
		pred, err := e.Predict(context.Background(), now, domain.Horizon2h, 1000)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if pred.PeakForecastTime != "10:00" {
			t.Errorf("PeakForecastTime = %q, want 10:00", pred.PeakForecastTime)
		}
	})
}

func TestEngineForecast(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	horizons := []domain.Horizon{domain.Horizon4h, domain.Horizon15m, domain.Horizon2h}

	t.Run("rejects any unsupported horizon up front", func(t *testing.T) {
		e := newTestEngine(nil)
		_, err := e.Forecast(context.Background(), now, []domain.Horizon{domain.Horizon15m, "3h"}, 1000)
		if !errors.Is(err, domain.ErrUnsupportedHorizon) {
			t.Errorf("err = %v, want ErrUnsupportedHorizon", err)
		}
	})

	t.Run("points are timestamp ordered with a nil first prediction", func(t *testing.T) {
		e := newTestEngine(stubModel{raw: 1000, conf: 85})
		seedHistory(e, 10)
		points, err := e.Forecast(context.Background(), now, horizons, 1500)
		if err != nil {
			t.Fatalf("Forecast failed: %v", err)
		}
		if len(points) != 4 {
			t.Fatalf("len(points) = %d, want 4", len(points))
		}
		if points[0].PredictedVolume != nil {
			t.Errorf("first point prediction = %v, want nil", *points[0].PredictedVolume)
		}
		if !points[0].Timestamp.Equal(now) {
			t.Errorf("first point timestamp = %v, want now", points[0].Timestamp)
		}
		for i := 1; i < len(points); i++ {
			if !points[i].Timestamp.After(points[i-1].Timestamp) {
				t.Errorf("points not strictly ordered at %d: %v then %v", i, points[i-1].Timestamp, points[i].Timestamp)
			}
			if points[i].PredictedVolume == nil {
				t.Errorf("point %d prediction is nil", i)
			}
		}
	})

	t.Run("congestion flags compare against the threshold", func(t *testing.T) {
		e := newTestEngine(stubModel{raw: 12000, conf: 85})
		seedHistory(e, 10) // factor 1.6 -> predicted 19200, above 10240
		points, err := e.Forecast(context.Background(), now, []domain.Horizon{domain.Horizon15m}, 1500)
		if err != nil {
			t.Fatalf("Forecast failed: %v", err)
		}
		if points[0].CongestionThreshold != 10240 {
			t.Errorf("threshold = %v, want 80%% of 12800", points[0].CongestionThreshold)
		}
		if points[0].CongestionDetected {
			t.Error("current volume 1500 flagged congested")
		}
		if !points[1].CongestionDetected {
			t.Error("predicted volume above threshold not flagged")
		}
	})
}
