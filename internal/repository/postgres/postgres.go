package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanflow/backend/internal/domain"
)

// PostgresRepository implements domain.HistoryRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveSnapshot persists a per-tick live snapshot
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, snap domain.LiveSnapshot) error {
	query := `
		INSERT INTO traffic_snapshots (
			intersection_id, timestamp, current_volume, avg_speed_kmh,
			queue_length_vehicles, wait_time_minutes, weather_temp_c,
			weather_condition, weather_stale, density_percent, flow_rate_cars_per_min
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		snap.IntersectionID, snap.Timestamp, snap.CurrentVolume, snap.AvgSpeedKmh,
		snap.QueueLengthVehicles, snap.WaitTimeMinutes, snap.WeatherTempC,
		snap.WeatherCondition, snap.WeatherStale, snap.DensityPercent, snap.FlowRateCarsPerMin,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save snapshot: %w", err)
	}

	return nil
}

// SaveDecision persists a decision-log entry
func (r *PostgresRepository) SaveDecision(ctx context.Context, entry domain.DecisionLogEntry) error {
	query := `
		INSERT INTO decision_log (
			entry_id, timestamp, intersection_id, location_name,
			event_type, ai_prediction, human_action, outcome, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Timestamp, entry.IntersectionID, entry.LocationName,
		entry.EventType, entry.AIPrediction, entry.HumanAction, entry.Outcome, entry.Details,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save decision entry: %w", err)
	}

	return nil
}

// HistoricalSnapshots retrieves snapshot history for one intersection
func (r *PostgresRepository) HistoricalSnapshots(ctx context.Context, intersectionID string, from, to time.Time) ([]domain.LiveSnapshot, error) {
	query := `
		SELECT intersection_id, timestamp, current_volume, avg_speed_kmh,
			   queue_length_vehicles, wait_time_minutes, weather_temp_c,
			   weather_condition, weather_stale, density_percent, flow_rate_cars_per_min
		FROM traffic_snapshots
		WHERE intersection_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp DESC
		LIMIT 1000
	`

	rows, err := r.pool.Query(ctx, query, intersectionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var results []domain.LiveSnapshot
	for rows.Next() {
		var s domain.LiveSnapshot
		err := rows.Scan(
			&s.IntersectionID, &s.Timestamp, &s.CurrentVolume, &s.AvgSpeedKmh,
			&s.QueueLengthVehicles, &s.WaitTimeMinutes, &s.WeatherTempC,
			&s.WeatherCondition, &s.WeatherStale, &s.DensityPercent, &s.FlowRateCarsPerMin,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan snapshot row: %w", err)
		}
		results = append(results, s)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
