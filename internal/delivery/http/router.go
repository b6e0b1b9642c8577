package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanflow/backend/internal/analytics"
	"github.com/urbanflow/backend/internal/engine"
	"github.com/urbanflow/backend/internal/store"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, eng *engine.Engine, st *store.Store, declog *analytics.DecisionLog) {
	handler := NewHandler(eng, st, declog)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/system", handler.GetSystemStatus)

		api.Get("/intersections", handler.GetIntersections)
		api.Get("/intersections/:id", handler.GetIntersection)
		api.Get("/intersections/:id/live", handler.GetLive)
		api.Get("/intersections/:id/prediction/:horizon", handler.GetPrediction)
		api.Get("/intersections/:id/forecast", handler.GetForecast)
		api.Get("/intersections/:id/history", handler.GetHistory)
		api.Post("/intersections/:id/adjust", handler.AdjustSignal)

		api.Get("/recommendations/top", handler.GetTopRecommendations)
		api.Post("/recommendations/:id/apply", handler.ApplyRecommendation)
		api.Post("/recommendations/:id/reject", handler.RejectRecommendation)

		api.Get("/analytics/decision-log", handler.GetDecisionLog)
		api.Get("/analytics/summary", handler.GetAnalyticsSummary)
	}
}
