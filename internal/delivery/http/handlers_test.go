package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/urbanflow/backend/internal/analytics"
	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/engine"
	"github.com/urbanflow/backend/internal/repository/postgres"
	"github.com/urbanflow/backend/internal/store"
)

type staticWeather struct{}

func (staticWeather) Current(context.Context) domain.Weather {
	return domain.Weather{TempC: 31, Condition: "Clear"}
}

func newTestApp(t *testing.T) (*fiber.App, *store.Store, *engine.Engine) {
	t.Helper()
	clock := engine.NewManualClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	st := store.New(clock.Now())
	declog := analytics.NewDecisionLog()
	eng := engine.New(clock, st, declog, postgres.NewMemoryRepository(), staticWeather{}, nil, engine.DefaultConfig())
	eng.AddIntersection(domain.Intersection{
		ID:           "SUR-4092",
		LocationName: "Jl. Soedirman, Surabaya",
		City:         "Surabaya",
		CycleSeconds: 90,
	}, 5)
	clock.Advance(2 * time.Second)
	if err := eng.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, eng, st, declog)
	return app, st, eng
}

func TestRoutesStatusCodes(t *testing.T) {
	app, st, _ := newTestApp(t)
	st.AddRecommendations([]domain.Recommendation{{
		ID:                      "REC-TEST0001",
		Status:                  domain.StatusPending,
		TargetIntersectionID:    "SUR-4092",
		TargetApproach:          domain.ApproachNorth,
		CurrentGreenSeconds:     45,
		RecommendedGreenSeconds: 50,
	}})

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", "GET", "/health", 200},
		{"system status", "GET", "/api/v1/system", 200},
		{"metrics", "GET", "/metrics", 200},
		{"intersections", "GET", "/api/v1/intersections", 200},
		{"live snapshot", "GET", "/api/v1/intersections/SUR-4092/live", 200},
		{"unknown intersection", "GET", "/api/v1/intersections/SUR-0000/live", 404},
		{"prediction", "GET", "/api/v1/intersections/SUR-4092/prediction/15m", 200},
		{"unsupported horizon", "GET", "/api/v1/intersections/SUR-4092/prediction/45m", 400},
		{"forecast", "GET", "/api/v1/intersections/SUR-4092/forecast", 200},
		{"forecast subset", "GET", "/api/v1/intersections/SUR-4092/forecast?horizons=2h,4h", 200},
		{"forecast bad horizon", "GET", "/api/v1/intersections/SUR-4092/forecast?horizons=3h", 400},
		{"top recommendations", "GET", "/api/v1/recommendations/top", 200},
		{"apply", "POST", "/api/v1/recommendations/REC-TEST0001/apply", 200},
		{"re-apply conflict", "POST", "/api/v1/recommendations/REC-TEST0001/apply", 409},
		{"reject resolved conflict", "POST", "/api/v1/recommendations/REC-TEST0001/reject", 409},
		{"apply unknown", "POST", "/api/v1/recommendations/REC-MISSING1/apply", 404},
		{"decision log", "GET", "/api/v1/analytics/decision-log", 200},
		{"decision log bad from", "GET", "/api/v1/analytics/decision-log?from=yesterday", 400},
		{"analytics summary", "GET", "/api/v1/analytics/summary", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := app.Test(req, 5000)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAdjustEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t)

	t.Run("valid adjustment", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/intersections/SUR-4092/adjust",
			strings.NewReader(`{"approach":"e","deltaSeconds":15}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("out of range delta", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/intersections/SUR-4092/adjust",
			strings.NewReader(`{"approach":"N","deltaSeconds":100}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != 400 {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("unknown approach", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/intersections/SUR-4092/adjust",
			strings.NewReader(`{"approach":"NE","deltaSeconds":5}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != 404 {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}
