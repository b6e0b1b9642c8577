package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/urbanflow/backend/internal/analytics"
	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/engine"
	"github.com/urbanflow/backend/internal/rec"
	"github.com/urbanflow/backend/internal/store"
)

// Handler contains all HTTP handlers
type Handler struct {
	engine *engine.Engine
	store  *store.Store
	declog *analytics.DecisionLog
}

// NewHandler creates a new handler
func NewHandler(eng *engine.Engine, st *store.Store, declog *analytics.DecisionLog) *Handler {
	return &Handler{
		engine: eng,
		store:  st,
		declog: declog,
	}
}

// ErrorHandler maps domain errors onto HTTP statuses. Installed as the
// fiber app's ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
	}

	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		code = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		code = fiber.StatusConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrFatal):
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "urbanflow-backend",
		"version": "1.0.0",
	})
}

// GetSystemStatus returns the engine heartbeat
func (h *Handler) GetSystemStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.store.SystemStatus(),
	})
}

// GetIntersections lists all simulated intersections with their signal plans
func (h *Handler) GetIntersections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.store.Intersections(),
	})
}

// GetIntersection returns one intersection summary
func (h *Handler) GetIntersection(c *fiber.Ctx) error {
	sum, err := h.store.Intersection(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sum,
	})
}

// GetLive returns the latest live snapshot for an intersection
func (h *Handler) GetLive(c *fiber.Ctx) error {
	snap, err := h.store.Live(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}

// GetPrediction returns the latest prediction for one horizon
func (h *Handler) GetPrediction(c *fiber.Ctx) error {
	horizon := domain.Horizon(c.Params("horizon"))
	if _, ok := domain.HorizonDurations[horizon]; !ok {
		return domain.ErrUnsupportedHorizon
	}
	pred, err := h.store.Prediction(c.Params("id"), horizon)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    pred,
	})
}

// GetForecast returns the latest timestamp-ordered forecast points,
// optionally restricted to a comma-separated horizon subset.
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	wanted := make(map[time.Duration]bool)
	if raw := c.Query("horizons"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			lead, ok := domain.HorizonDurations[domain.Horizon(strings.TrimSpace(part))]
			if !ok {
				return domain.ErrUnsupportedHorizon
			}
			wanted[lead] = true
		}
	}

	points, err := h.store.Forecast(c.Params("id"))
	if err != nil {
		return err
	}
	if len(wanted) > 0 && len(points) > 0 {
		filtered := points[:1] // the "now" point always leads
		for _, p := range points[1:] {
			if wanted[p.Timestamp.Sub(points[0].Timestamp)] {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    points,
	})
}

// GetHistory returns persisted snapshots within a trailing window
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	data, err := h.engine.HistoricalSnapshots(c.Context(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

type adjustRequest struct {
	Approach     string `json:"approach"`
	DeltaSeconds int    `json:"deltaSeconds"`
}

// AdjustSignal applies a manual green-duration delta to one approach
func (h *Handler) AdjustSignal(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.engine.Adjust(c.Params("id"), domain.Approach(strings.ToUpper(req.Approach)), req.DeltaSeconds)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetTopRecommendations lists pending recommendations, best first
func (h *Handler) GetTopRecommendations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > 100 {
		limit = 5
	}

	ranked := rec.Rank(h.store.PendingRecommendations())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ranked,
		"count":   len(ranked),
	})
}

// ApplyRecommendation accepts a pending recommendation
func (h *Handler) ApplyRecommendation(c *fiber.Ctx) error {
	resolved, adjusted, err := h.engine.Apply(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       resolved,
		"adjustment": adjusted,
	})
}

// RejectRecommendation declines a pending recommendation
func (h *Handler) RejectRecommendation(c *fiber.Ctx) error {
	resolved, err := h.engine.Reject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    resolved,
	})
}

// GetDecisionLog returns decision-log entries, most recent first
func (h *Handler) GetDecisionLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 1000 {
		limit = 50
	}

	filter := domain.DecisionLogFilter{
		IntersectionID: c.Query("intersectionId"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid 'from' timestamp")
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid 'to' timestamp")
		}
		filter.To = t
	}

	entries := h.declog.Query(limit, filter)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

// GetAnalyticsSummary returns acceptance metrics over the decision log
func (h *Handler) GetAnalyticsSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.declog.Summary(),
	})
}
