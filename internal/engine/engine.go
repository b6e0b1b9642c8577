package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urbanflow/backend/internal/analytics"
	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/forecast"
	"github.com/urbanflow/backend/internal/publish"
	"github.com/urbanflow/backend/internal/rec"
	"github.com/urbanflow/backend/internal/sim"
	"github.com/urbanflow/backend/internal/store"
)

// Config tunes the engine loop.
type Config struct {
	// TickInterval is the wall-clock period between ticks.
	TickInterval time.Duration

	// Horizons computed every tick and served to the dashboard.
	Horizons []domain.Horizon

	// CongestionAlertPercent is the density that triggers alerts and
	// recommendation generation.
	CongestionAlertPercent float64

	// ModelServiceURL points at the external prediction service; empty
	// runs on the local trend baseline only.
	ModelServiceURL string
	ModelTimeout    time.Duration

	// OutcomeAfterTicks is how many ticks after a resolution the engine
	// looks back and finalizes the decision-log outcome.
	OutcomeAfterTicks int

	// FailsafeAfterFailures is the consecutive-failure count per
	// intersection that reverts its signals to the baseline plan.
	FailsafeAfterFailures int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		TickInterval:           2 * time.Second,
		Horizons:               []domain.Horizon{domain.Horizon15m, domain.Horizon2h, domain.Horizon4h},
		CongestionAlertPercent: 80,
		ModelTimeout:           500 * time.Millisecond,
		OutcomeAfterTicks:      15,
		FailsafeAfterFailures:  5,
	}
}

// WeatherSource provides the current weather reading. Implementations
// must not fail; degraded readings come back marked stale.
type WeatherSource interface {
	Current(ctx context.Context) domain.Weather
}

// unit bundles everything the engine keeps per intersection.
type unit struct {
	meta       domain.Intersection
	sim        *sim.IntersectionSim
	forecaster *forecast.Engine

	lastAdjusted time.Time
	failStreak   int
	failsafe     bool
}

// pendingOutcome is a decision-log entry awaiting outcome finalization.
type pendingOutcome struct {
	entryID        string
	intersectionID string
	dueTick        int
	baselineQueue  int
}

// Engine drives the whole pipeline: simulation step, metric derivation,
// forecasting, recommendation generation, persistence and publishing.
// One mutex serializes ticks and operator actions, so every state
// mutation observes a consistent world.
type Engine struct {
	mu sync.Mutex

	clock   Clock
	store   *store.Store
	declog  *analytics.DecisionLog
	repo    domain.HistoryRepository
	weather WeatherSource
	pub     *publish.Publisher
	recs    *rec.Engine
	cfg     Config

	units map[string]*unit
	order []string

	tick     int
	halted   bool
	outcomes []pendingOutcome
}

// New assembles an engine. repo and pub may be backed by in-memory or
// disabled implementations respectively; weather must never be nil.
func New(clock Clock, st *store.Store, declog *analytics.DecisionLog, repo domain.HistoryRepository, weather WeatherSource, pub *publish.Publisher, cfg Config) *Engine {
	if pub == nil {
		pub = publish.New("", "")
	}
	return &Engine{
		clock:   clock,
		store:   st,
		declog:  declog,
		repo:    repo,
		weather: weather,
		pub:     pub,
		recs: rec.NewEngine(rec.Config{
			CongestionAlertPercent: cfg.CongestionAlertPercent,
		}),
		cfg:   cfg,
		units: make(map[string]*unit),
	}
}

// AddIntersection registers an intersection before the loop starts. A
// missing cycle length is normalized to the default so every derived
// metric and the serialized cycle agree.
func (e *Engine) AddIntersection(meta domain.Intersection, seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta.CycleSeconds = sim.NormalizeCycle(meta.CycleSeconds)

	var primary forecast.Model
	if e.cfg.ModelServiceURL != "" {
		primary = forecast.NewModelBridge(e.cfg.ModelServiceURL, e.cfg.ModelTimeout)
	}
	u := &unit{
		meta: meta,
		sim:  sim.NewIntersectionSim(meta.ID, meta.CycleSeconds, seed),
		forecaster: forecast.NewEngine(meta.ID, primary, forecast.Config{
			CapacityProxyVPH:       float64(sim.QueueProxyVPH(sim.MaxTotalQueue, meta.CycleSeconds)),
			CongestionAlertPercent: e.cfg.CongestionAlertPercent,
			ModelTimeout:           e.cfg.ModelTimeout,
		}),
		lastAdjusted: e.clock.Now(),
	}
	e.units[meta.ID] = u
	e.order = append(e.order, meta.ID)
	e.publishSummary(u)
}

// Halted reports whether the engine hit a fatal state and stopped
// accepting ticks and actions.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// RunTick processes one simulation tick across all intersections. A
// failure inside one intersection is recorded and skipped; the other
// intersections still advance. Only a fatal state error stops the loop.
func (e *Engine) RunTick(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return fmt.Errorf("engine: halted: %w", domain.ErrFatal)
	}

	started := time.Now()
	e.tick++
	now := e.clock.Now()

	// Weather is shared across intersections and never fails a tick.
	weather := e.weather.Current(ctx)

	usingPrimary := e.cfg.ModelServiceURL != ""
	for _, id := range e.order {
		u := e.units[id]
		if err := e.tickIntersection(ctx, u, now, weather, &usingPrimary); err != nil {
			if errors.Is(err, domain.ErrFatal) {
				e.halted = true
				log.Printf("engine: fatal state, halting: %v", err)
				return err
			}
			u.failStreak++
			intersectionErrors.WithLabelValues(id).Inc()
			log.Printf("engine: tick %d: intersection %s: %v", e.tick, id, err)
			e.maybeFailsafe(u, now)
			continue
		}
		u.failStreak = 0
		u.failsafe = false
	}

	e.finalizeDueOutcomes()
	e.heartbeat(now, usingPrimary)

	ticksTotal.Inc()
	tickDuration.Observe(time.Since(started).Seconds())
	return nil
}

func (e *Engine) tickIntersection(ctx context.Context, u *unit, now time.Time, weather domain.Weather, usingPrimary *bool) error {
	res := u.sim.Step(e.tick)
	snap := sim.Derive(u.meta.ID, u.meta.CycleSeconds, now, res, weather)

	if err := e.store.SetLive(snap); err != nil {
		return err
	}

	u.forecaster.Observe(forecast.Features{
		Tick:           e.tick,
		Timestamp:      now,
		ArrivalRateVPH: sim.ArrivalRateVPH(res.TotalArrivals),
		DensityPercent: snap.DensityPercent,
		AvgSpeedKmh:    snap.AvgSpeedKmh,
	}, float64(snap.CurrentVolume))

	confidence := 60.0
	var predictErr error
	for _, h := range e.cfg.Horizons {
		pred, err := u.forecaster.Predict(ctx, now, h, snap.CurrentVolume)
		if err != nil {
			predictErr = err
			continue
		}
		if pred.ModelName != e.primaryModelName() || pred.Stale {
			*usingPrimary = false
			if e.cfg.ModelServiceURL != "" {
				modelFallbacksTotal.Inc()
			}
		}
		if h == domain.Horizon15m {
			confidence = pred.ConfidencePercent
		}
		e.store.SetPrediction(pred)
	}

	if points, err := u.forecaster.Forecast(ctx, now, e.cfg.Horizons, snap.CurrentVolume); err == nil {
		e.store.SetForecast(u.meta.ID, points)
	}

	if err := e.repo.SaveSnapshot(ctx, snap); err != nil {
		log.Printf("engine: persist snapshot for %s: %v", u.meta.ID, err)
	}
	if err := e.pub.PublishSnapshot(ctx, snap); err != nil {
		log.Printf("engine: publish snapshot for %s: %v", u.meta.ID, err)
	}

	e.generateRecommendations(ctx, u, now, res, confidence)
	e.publishSummary(u)

	return predictErr
}

func (e *Engine) primaryModelName() string {
	if e.cfg.ModelServiceURL == "" {
		return forecast.TrendModel{}.Name()
	}
	return forecast.NewModelBridge(e.cfg.ModelServiceURL, e.cfg.ModelTimeout).Name()
}

// HistoricalSnapshots proxies range queries to the history repository.
func (e *Engine) HistoricalSnapshots(ctx context.Context, intersectionID string, from, to time.Time) ([]domain.LiveSnapshot, error) {
	if _, ok := e.lookup(intersectionID); !ok {
		return nil, fmt.Errorf("engine: intersection %q: %w", intersectionID, domain.ErrNotFound)
	}
	return e.repo.HistoricalSnapshots(ctx, intersectionID, from, to)
}

func (e *Engine) lookup(intersectionID string) (*unit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.units[intersectionID]
	return u, ok
}

func (e *Engine) generateRecommendations(ctx context.Context, u *unit, now time.Time, res sim.StepResult, confidence float64) {
	newRecs := e.recs.Evaluate(rec.EvalInput{
		Intersection:   u.meta,
		Now:            now,
		Queues:         res.Queues,
		Greens:         u.sim.Controller().Greens(),
		Arrivals:       res.Arrivals,
		TotalQueue:     res.TotalQueue,
		DeparturesTick: float64(res.TotalDepartures),
		Confidence:     confidence,
		HasPending: func(a domain.Approach) bool {
			return e.store.HasPendingRecommendation(u.meta.ID, a)
		},
	})
	if len(newRecs) == 0 {
		return
	}

	e.store.AddRecommendations(newRecs)
	for _, r := range newRecs {
		recommendationsGenerated.Inc()
		entry := domain.DecisionLogEntry{
			ID:             uuid.NewString(),
			Timestamp:      now,
			IntersectionID: u.meta.ID,
			LocationName:   u.meta.LocationName,
			EventType:      domain.EventCongestionDetected,
			AIPrediction:   fmt.Sprintf("High %s density at %s", domain.ApproachNames[r.TargetApproach], u.meta.LocationName),
			HumanAction:    domain.ActionNone,
			Outcome:        "Awaiting operator decision",
			Details:        r.AlertDescription,
		}
		if err := e.declog.Append(entry); err != nil {
			log.Printf("engine: decision log append: %v", err)
		}
		if err := e.repo.SaveDecision(ctx, entry); err != nil {
			log.Printf("engine: persist decision for %s: %v", u.meta.ID, err)
		}
		if err := e.pub.PublishRecommendation(ctx, r); err != nil {
			log.Printf("engine: publish recommendation %s: %v", r.ID, err)
		}
	}
}

// maybeFailsafe reverts an intersection to its baseline plan after
// repeated consecutive failures.
func (e *Engine) maybeFailsafe(u *unit, now time.Time) {
	if u.failsafe || u.failStreak < e.cfg.FailsafeAfterFailures {
		return
	}
	u.sim.Controller().RevertBaseline()
	u.lastAdjusted = now
	u.failsafe = true
	e.publishSummary(u)
	log.Printf("engine: %s reverted to baseline plan after %d consecutive failures", u.meta.ID, u.failStreak)
}

func (e *Engine) publishSummary(u *unit) {
	e.store.UpsertIntersection(domain.IntersectionSummary{
		Intersection:   u.meta,
		IsActive:       !u.failsafe,
		SignalPlan:     u.sim.Controller().Plan(),
		LastAdjustedAt: u.lastAdjusted,
	})
}

func (e *Engine) heartbeat(now time.Time, usingPrimary bool) {
	mode := domain.ModeLocalFallback
	message := "Operating on local trend baseline."
	if usingPrimary {
		mode = domain.ModeAIActive
		message = "All systems nominal."
	}
	e.store.SetSystemStatus(domain.SystemStatus{
		SystemOperational: true,
		Mode:              mode,
		Live:              true,
		LastUpdate:        now,
		Message:           message,
	})
}

// finalizeDueOutcomes looks back at resolutions whose observation window
// has elapsed and writes the observed outcome onto the original log
// entry. This is the only mutation the append-only log permits.
func (e *Engine) finalizeDueOutcomes() {
	remaining := e.outcomes[:0]
	for _, po := range e.outcomes {
		if e.tick < po.dueTick {
			remaining = append(remaining, po)
			continue
		}
		outcome := e.observeOutcome(po)
		if err := e.declog.FinalizeOutcome(po.entryID, outcome); err != nil {
			log.Printf("engine: finalize outcome %s: %v", po.entryID, err)
		}
	}
	e.outcomes = remaining
}

func (e *Engine) observeOutcome(po pendingOutcome) string {
	u, ok := e.units[po.intersectionID]
	if !ok {
		return "Intersection no longer tracked"
	}
	minutes := e.cfg.OutcomeAfterTicks * sim.SimMinutesPerTick
	queueNow := u.sim.TotalQueue()
	if float64(queueNow) <= float64(po.baselineQueue)*0.8 {
		return fmt.Sprintf("Congestion cleared within %d min", minutes)
	}
	return fmt.Sprintf("Congestion persisted after %d min", minutes)
}

// Apply accepts a PENDING recommendation: the recommendation flips to
// APPLIED and the target approach's green duration becomes exactly the
// recommended value, atomically under the engine lock.
func (e *Engine) Apply(ctx context.Context, recommendationID string) (domain.Recommendation, domain.AdjustResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return domain.Recommendation{}, domain.AdjustResult{}, fmt.Errorf("engine: halted: %w", domain.ErrFatal)
	}

	r, err := e.store.Recommendation(recommendationID)
	if err != nil {
		return domain.Recommendation{}, domain.AdjustResult{}, err
	}
	u, ok := e.units[r.TargetIntersectionID]
	if !ok {
		return domain.Recommendation{}, domain.AdjustResult{}, fmt.Errorf("engine: intersection %q: %w", r.TargetIntersectionID, domain.ErrNotFound)
	}
	if err := rec.ValidatePlan(map[domain.Approach]int{r.TargetApproach: r.RecommendedGreenSeconds}); err != nil {
		return domain.Recommendation{}, domain.AdjustResult{}, err
	}

	resolved, err := e.store.ResolveRecommendation(recommendationID, domain.StatusApplied)
	if err != nil {
		return domain.Recommendation{}, domain.AdjustResult{}, err
	}

	adj, err := u.sim.Controller().SetGreen(r.TargetApproach, r.RecommendedGreenSeconds)
	if err != nil {
		// Unreachable after ValidatePlan; treated as corrupted state.
		e.halted = true
		return domain.Recommendation{}, domain.AdjustResult{}, fmt.Errorf("engine: apply %s: %v: %w", recommendationID, err, domain.ErrFatal)
	}
	u.lastAdjusted = e.clock.Now()
	e.publishSummary(u)

	e.logResolution(ctx, resolved, domain.EventRecommendationApplied, domain.ActionApplied, u)
	recommendationsResolved.WithLabelValues(string(domain.StatusApplied)).Inc()
	return resolved, adj, nil
}

// Reject declines a PENDING recommendation. Signal state is untouched.
func (e *Engine) Reject(ctx context.Context, recommendationID string) (domain.Recommendation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return domain.Recommendation{}, fmt.Errorf("engine: halted: %w", domain.ErrFatal)
	}

	r, err := e.store.Recommendation(recommendationID)
	if err != nil {
		return domain.Recommendation{}, err
	}
	u, ok := e.units[r.TargetIntersectionID]
	if !ok {
		return domain.Recommendation{}, fmt.Errorf("engine: intersection %q: %w", r.TargetIntersectionID, domain.ErrNotFound)
	}

	resolved, err := e.store.ResolveRecommendation(recommendationID, domain.StatusRejected)
	if err != nil {
		return domain.Recommendation{}, err
	}

	e.logResolution(ctx, resolved, domain.EventRecommendationRejected, domain.ActionRejected, u)
	recommendationsResolved.WithLabelValues(string(domain.StatusRejected)).Inc()
	return resolved, nil
}

// logResolution appends exactly one decision-log entry for a resolve.
// Applied recommendations also schedule an outcome observation; a reject
// touched nothing, so its outcome is final immediately.
func (e *Engine) logResolution(ctx context.Context, r domain.Recommendation, eventType, humanAction string, u *unit) {
	outcome := "Pending evaluation"
	if eventType != domain.EventRecommendationApplied {
		outcome = "No signal change"
	}
	entry := domain.DecisionLogEntry{
		ID:             uuid.NewString(),
		Timestamp:      e.clock.Now(),
		IntersectionID: r.TargetIntersectionID,
		LocationName:   r.TargetLocationName,
		EventType:      eventType,
		AIPrediction:   r.AlertTitle,
		HumanAction:    humanAction,
		Outcome:        outcome,
		Details: fmt.Sprintf("%s green %d s -> %d s recommended (%s)",
			domain.ApproachNames[r.TargetApproach], r.CurrentGreenSeconds, r.RecommendedGreenSeconds, r.ID),
	}
	if err := e.declog.Append(entry); err != nil {
		log.Printf("engine: decision log append: %v", err)
		return
	}
	if err := e.repo.SaveDecision(ctx, entry); err != nil {
		log.Printf("engine: persist decision for %s: %v", r.TargetIntersectionID, err)
	}
	if err := e.pub.PublishRecommendation(ctx, r); err != nil {
		log.Printf("engine: publish recommendation %s: %v", r.ID, err)
	}
	if eventType == domain.EventRecommendationApplied {
		e.outcomes = append(e.outcomes, pendingOutcome{
			entryID:        entry.ID,
			intersectionID: r.TargetIntersectionID,
			dueTick:        e.tick + e.cfg.OutcomeAfterTicks,
			baselineQueue:  u.sim.TotalQueue(),
		})
	}
}

// Adjust applies a manual green-duration delta to one approach.
func (e *Engine) Adjust(intersectionID string, approach domain.Approach, deltaSeconds int) (domain.AdjustResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return domain.AdjustResult{}, fmt.Errorf("engine: halted: %w", domain.ErrFatal)
	}

	u, ok := e.units[intersectionID]
	if !ok {
		return domain.AdjustResult{}, fmt.Errorf("engine: intersection %q: %w", intersectionID, domain.ErrNotFound)
	}
	adj, err := u.sim.Controller().Adjust(approach, deltaSeconds)
	if err != nil {
		return domain.AdjustResult{}, err
	}
	u.lastAdjusted = e.clock.Now()
	e.publishSummary(u)
	return adj, nil
}
