package rec

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/sim"
	"github.com/urbanflow/backend/pkg/utils"
)

// Config tunes recommendation generation.
type Config struct {
	// CongestionAlertPercent is the per-approach density above which a
	// recommendation is emitted. Default 80.
	CongestionAlertPercent float64

	// DrainHorizonTicks is the window within which the recommended green
	// should bring the approach queue back under the alert threshold.
	// Default 15 (one 15-minute forecast horizon at one minute per tick).
	DrainHorizonTicks int
}

// EvalInput is one intersection's state at evaluation time.
type EvalInput struct {
	Intersection   domain.Intersection
	Now            time.Time
	Queues         map[domain.Approach]int
	Greens         map[domain.Approach]int
	Arrivals       map[domain.Approach]int
	TotalQueue     int
	DeparturesTick float64
	Confidence     float64

	// HasPending reports whether an unresolved recommendation already
	// exists for the approach; such approaches are skipped.
	HasPending func(approach domain.Approach) bool
}

// Engine converts congestion state into sized, ranked signal-timing
// recommendations.
type Engine struct {
	cfg Config
}

// NewEngine builds a recommendation engine.
func NewEngine(cfg Config) *Engine {
	if cfg.CongestionAlertPercent <= 0 {
		cfg.CongestionAlertPercent = 80
	}
	if cfg.DrainHorizonTicks <= 0 {
		cfg.DrainHorizonTicks = 15
	}
	return &Engine{cfg: cfg}
}

// Evaluate emits one PENDING recommendation for every approach whose
// density crosses the alert threshold and has no unresolved
// recommendation. Approaches already at the maximum green are skipped:
// there is nothing left to recommend.
func (e *Engine) Evaluate(in EvalInput) []domain.Recommendation {
	var out []domain.Recommendation
	for _, a := range domain.Approaches {
		density := sim.ApproachDensityPercent(in.Queues[a])
		if density < e.cfg.CongestionAlertPercent {
			continue
		}
		if in.HasPending != nil && in.HasPending(a) {
			continue
		}
		current := in.Greens[a]
		recommended := e.sizeGreen(a, in.Queues[a], in.Arrivals[a], current, in.Intersection.CycleSeconds)
		if recommended <= current {
			continue
		}
		out = append(out, e.build(in, a, density, current, recommended))
	}
	return out
}

// sizeGreen computes the smallest green that drains the approach queue
// below the alert threshold within the drain horizon, as a strict and
// bounded increase over the current green.
func (e *Engine) sizeGreen(a domain.Approach, queue, arrivals, currentGreen, cycleSeconds int) int {
	thresholdQueue := float64(sim.MaxQueuePerApproach) * e.cfg.CongestionAlertPercent / 100.0
	h := float64(e.cfg.DrainHorizonTicks)

	// Required per-tick departures: clear the excess over the threshold
	// across the horizon while keeping up with arrivals.
	needed := (float64(queue)-thresholdQueue)/h + float64(arrivals)
	target := sim.GreenForCapacity(a, needed, cycleSeconds)

	if target <= currentGreen {
		target = currentGreen + 1
	}
	return ClampGreenSeconds(target)
}

func (e *Engine) build(in EvalInput, a domain.Approach, density float64, current, recommended int) domain.Recommendation {
	delay := utils.RoundTo(float64(in.TotalQueue)/maxf(1.0, in.DeparturesTick)*sim.SimMinutesPerTick, 1)
	name := domain.ApproachNames[a]
	return domain.Recommendation{
		ID:                      fmt.Sprintf("REC-%s", strings.ToUpper(uuid.NewString()[:8])),
		CreatedAt:               in.Now,
		Status:                  domain.StatusPending,
		TargetIntersectionID:    in.Intersection.ID,
		TargetLocationName:      in.Intersection.LocationName,
		TargetApproach:          a,
		AlertTitle:              fmt.Sprintf("Critical Alert: %s Density", name),
		AlertDescription: fmt.Sprintf(
			"%s density at %.0f%%. Increase green duration for the %s approach. "+
				"Predicted +%.1f min delay if signal timing is not adjusted.",
			name, density, strings.ToLower(name), delay,
		),
		PredictedDelayMinutes:   delay,
		CurrentGreenSeconds:     current,
		RecommendedGreenSeconds: recommended,
		DeltaSeconds:            recommended - current,
		ConfidencePercent:       utils.Clamp(in.Confidence, 0, 100),
	}
}

// Rank orders recommendations by confidence descending, ties broken by
// earliest creation time.
func Rank(recs []domain.Recommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConfidencePercent != out[j].ConfidencePercent {
			return out[i].ConfidencePercent > out[j].ConfidencePercent
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
