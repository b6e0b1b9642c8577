package analytics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/urbanflow/backend/internal/domain"
)

// DecisionLog is the append-only record of operator decisions and system
// events. Entries are never removed; the only sanctioned mutation is
// finalizing an entry's outcome once the decision's effect is known.
type DecisionLog struct {
	mu      sync.RWMutex
	entries []domain.DecisionLogEntry
	byID    map[string]int
}

// NewDecisionLog returns an empty log.
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{byID: make(map[string]int)}
}

// Append adds a new entry. Entry IDs must be unique.
func (l *DecisionLog) Append(entry domain.DecisionLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[entry.ID]; ok {
		return fmt.Errorf("analytics: log entry %q exists: %w", entry.ID, domain.ErrConflict)
	}
	l.byID[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
	return nil
}

// FinalizeOutcome records the observed outcome on an existing entry.
func (l *DecisionLog) FinalizeOutcome(entryID, outcome string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx, ok := l.byID[entryID]
	if !ok {
		return fmt.Errorf("analytics: log entry %q: %w", entryID, domain.ErrNotFound)
	}
	l.entries[idx].Outcome = outcome
	return nil
}

// Query returns entries most recent first, optionally filtered. A
// non-positive limit returns all matching entries.
func (l *DecisionLog) Query(limit int, filter domain.DecisionLogFilter) []domain.DecisionLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.DecisionLogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if filter.IntersectionID != "" && e.IntersectionID != filter.IntersectionID {
			continue
		}
		if !filter.From.IsZero() && e.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.Timestamp.After(filter.To) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Len reports the number of entries.
func (l *DecisionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Summary aggregates the log into acceptance metrics. An empty log yields
// zero counts and a zero rate rather than an error.
func (l *DecisionLog) Summary() domain.AnalyticsSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var applied, rejected int
	causes := make(map[string]int)
	for _, e := range l.entries {
		switch e.EventType {
		case domain.EventRecommendationApplied:
			applied++
		case domain.EventRecommendationRejected:
			rejected++
		case domain.EventCongestionDetected:
			causes[e.AIPrediction]++
		}
	}

	var rate float64
	if total := applied + rejected; total > 0 {
		rate = float64(applied) / float64(total) * 100
	}

	return domain.AnalyticsSummary{
		AcceptanceRatePercent: rate,
		AppliedCount:          applied,
		RejectedCount:         rejected,
		RecurringCauses:       topCauses(causes, 3),
	}
}

func topCauses(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
