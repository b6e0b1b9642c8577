package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

// Store is the shared snapshot of current and predicted state. It is the
// single writer-serialization point: the tick loop and operator actions
// mutate it under the engine's mutation lock, the HTTP layer only reads.
type Store struct {
	mu sync.RWMutex

	status        domain.SystemStatus
	intersections map[string]domain.IntersectionSummary
	order         []string

	live        map[string]domain.LiveSnapshot
	predictions map[string]map[domain.Horizon]domain.Prediction
	forecasts   map[string][]domain.ForecastPoint

	recommendations map[string]domain.Recommendation
	recOrder        []string
}

// New returns an empty store with an initializing system status.
func New(now time.Time) *Store {
	return &Store{
		status: domain.SystemStatus{
			SystemOperational: true,
			Mode:              domain.ModeAIActive,
			Live:              true,
			LastUpdate:        now,
			Message:           "System initialising.",
		},
		intersections:   make(map[string]domain.IntersectionSummary),
		live:            make(map[string]domain.LiveSnapshot),
		predictions:     make(map[string]map[domain.Horizon]domain.Prediction),
		forecasts:       make(map[string][]domain.ForecastPoint),
		recommendations: make(map[string]domain.Recommendation),
	}
}

// SetSystemStatus replaces the heartbeat.
func (s *Store) SetSystemStatus(status domain.SystemStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SystemStatus returns the current heartbeat.
func (s *Store) SystemStatus() domain.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// UpsertIntersection registers or refreshes an intersection summary.
func (s *Store) UpsertIntersection(sum domain.IntersectionSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intersections[sum.ID]; !ok {
		s.order = append(s.order, sum.ID)
	}
	s.intersections[sum.ID] = sum
}

// Intersections lists summaries in registration order.
func (s *Store) Intersections() []domain.IntersectionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IntersectionSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.intersections[id])
	}
	return out
}

// Intersection returns one summary by id.
func (s *Store) Intersection(id string) (domain.IntersectionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.intersections[id]
	if !ok {
		return domain.IntersectionSummary{}, fmt.Errorf("store: intersection %q: %w", id, domain.ErrNotFound)
	}
	return sum, nil
}

// SetLive installs the latest snapshot for an intersection. Snapshot
// timestamps must strictly increase per intersection; a non-increasing
// timestamp means the clock or the tick sequencing is broken.
func (s *Store) SetLive(snap domain.LiveSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.live[snap.IntersectionID]; ok && !snap.Timestamp.After(prev.Timestamp) {
		return fmt.Errorf(
			"store: snapshot timestamp %s not after %s for %s: %w",
			snap.Timestamp, prev.Timestamp, snap.IntersectionID, domain.ErrFatal,
		)
	}
	s.live[snap.IntersectionID] = snap
	return nil
}

// Live returns the latest snapshot for an intersection.
func (s *Store) Live(id string) (domain.LiveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.live[id]
	if !ok {
		return domain.LiveSnapshot{}, fmt.Errorf("store: no snapshot for %q: %w", id, domain.ErrNotFound)
	}
	return snap, nil
}

// SetPrediction installs the latest prediction for one horizon.
func (s *Store) SetPrediction(pred domain.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byHorizon, ok := s.predictions[pred.IntersectionID]
	if !ok {
		byHorizon = make(map[domain.Horizon]domain.Prediction)
		s.predictions[pred.IntersectionID] = byHorizon
	}
	byHorizon[pred.Horizon] = pred
}

// Prediction returns the latest prediction for an intersection/horizon.
func (s *Store) Prediction(id string, horizon domain.Horizon) (domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pred, ok := s.predictions[id][horizon]
	if !ok {
		return domain.Prediction{}, fmt.Errorf("store: no %s prediction for %q: %w", horizon, id, domain.ErrNotFound)
	}
	return pred, nil
}

// SetForecast installs the latest multi-horizon forecast points.
func (s *Store) SetForecast(id string, points []domain.ForecastPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts[id] = points
}

// Forecast returns the latest forecast points for an intersection.
func (s *Store) Forecast(id string) ([]domain.ForecastPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points, ok := s.forecasts[id]
	if !ok {
		return nil, fmt.Errorf("store: no forecast for %q: %w", id, domain.ErrNotFound)
	}
	out := make([]domain.ForecastPoint, len(points))
	copy(out, points)
	return out, nil
}

// AddRecommendations registers newly generated recommendations. Resolved
// recommendations are never removed; they stay for audit.
func (s *Store) AddRecommendations(recs []domain.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if _, ok := s.recommendations[r.ID]; !ok {
			s.recOrder = append(s.recOrder, r.ID)
		}
		s.recommendations[r.ID] = r
	}
}

// Recommendation returns one recommendation by id.
func (s *Store) Recommendation(id string) (domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recommendations[id]
	if !ok {
		return domain.Recommendation{}, fmt.Errorf("store: recommendation %q: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// ResolveRecommendation transitions a PENDING recommendation to a terminal
// status. A second resolve fails with ErrConflict and never mutates twice.
func (s *Store) ResolveRecommendation(id string, status domain.RecommendationStatus) (domain.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recommendations[id]
	if !ok {
		return domain.Recommendation{}, fmt.Errorf("store: recommendation %q: %w", id, domain.ErrNotFound)
	}
	if r.Resolved() {
		return domain.Recommendation{}, fmt.Errorf(
			"store: recommendation %q already %s: %w", id, r.Status, domain.ErrConflict,
		)
	}
	r.Status = status
	s.recommendations[id] = r
	return r, nil
}

// HasPendingRecommendation reports whether an unresolved recommendation
// exists for an intersection approach.
func (s *Store) HasPendingRecommendation(intersectionID string, approach domain.Approach) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recommendations {
		if r.Status == domain.StatusPending &&
			r.TargetIntersectionID == intersectionID &&
			r.TargetApproach == approach {
			return true
		}
	}
	return false
}

// PendingRecommendations returns all unresolved recommendations in
// creation order.
func (s *Store) PendingRecommendations() []domain.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Recommendation
	for _, id := range s.recOrder {
		if r := s.recommendations[id]; r.Status == domain.StatusPending {
			out = append(out, r)
		}
	}
	return out
}
