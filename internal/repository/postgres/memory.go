package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

// MemoryRepository implements domain.HistoryRepository without a
// database, for demo mode and tests. It keeps a bounded window of
// snapshots per intersection.
type MemoryRepository struct {
	mu        sync.RWMutex
	snapshots map[string][]domain.LiveSnapshot
	decisions []domain.DecisionLogEntry
	maxPerKey int
}

// NewMemoryRepository creates an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snapshots: make(map[string][]domain.LiveSnapshot),
		maxPerKey: 5000,
	}
}

// SaveSnapshot appends a snapshot, evicting the oldest past the window.
func (r *MemoryRepository) SaveSnapshot(_ context.Context, snap domain.LiveSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.snapshots[snap.IntersectionID], snap)
	if len(list) > r.maxPerKey {
		list = list[len(list)-r.maxPerKey:]
	}
	r.snapshots[snap.IntersectionID] = list
	return nil
}

// SaveDecision appends a decision-log entry.
func (r *MemoryRepository) SaveDecision(_ context.Context, entry domain.DecisionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, entry)
	return nil
}

// HistoricalSnapshots returns snapshots in the range, most recent first.
func (r *MemoryRepository) HistoricalSnapshots(_ context.Context, intersectionID string, from, to time.Time) ([]domain.LiveSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.LiveSnapshot
	for _, s := range r.snapshots[intersectionID] {
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		results = append(results, s)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results, nil
}

// Health always succeeds in memory mode.
func (r *MemoryRepository) Health(_ context.Context) error {
	return nil
}
