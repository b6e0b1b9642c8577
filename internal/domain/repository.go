package domain

import (
	"context"
	"time"
)

// HistoryRepository persists tick snapshots and decision-log entries.
// The in-memory state store remains the authoritative live view; the
// repository is a write-through history sink plus range queries.
type HistoryRepository interface {
	// SaveSnapshot persists one per-tick live snapshot.
	SaveSnapshot(ctx context.Context, snap LiveSnapshot) error

	// SaveDecision persists a decision-log entry.
	SaveDecision(ctx context.Context, entry DecisionLogEntry) error

	// HistoricalSnapshots retrieves snapshots for an intersection within
	// a time range, most recent first.
	HistoricalSnapshots(ctx context.Context, intersectionID string, from, to time.Time) ([]LiveSnapshot, error)

	// Health checks connectivity.
	Health(ctx context.Context) error
}
