package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urbanflow/backend/internal/domain"
)

// Pub/sub channels and cached-value keys.
const (
	ChannelSnapshots       = "urbanflow:snapshots"
	ChannelRecommendations = "urbanflow:recommendations"

	keyLatestSnapshot = "urbanflow:latest:snapshot:%s"

	latestTTL = 5 * time.Minute
)

// Publisher fans tick output out to Redis for dashboard consumers. It is
// nil-safe: with no Redis configured every call is a no-op, so the engine
// never has to care whether a broker is present.
type Publisher struct {
	client *redis.Client
}

// New connects to Redis at addr. An empty addr or a failed ping yields a
// disabled publisher rather than an error; the engine runs the same
// either way.
func New(addr, password string) *Publisher {
	if addr == "" {
		return &Publisher{client: nil}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("publish: redis ping failed, publishing disabled: %v", err)
		return &Publisher{client: nil}
	}
	return &Publisher{client: client}
}

// Available reports whether a broker is connected.
func (p *Publisher) Available() bool {
	return p.client != nil
}

// PublishSnapshot broadcasts a live snapshot and caches it as the latest
// value for that intersection.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap domain.LiveSnapshot) error {
	if p.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("publish: marshal snapshot: %w", err)
	}
	key := fmt.Sprintf(keyLatestSnapshot, snap.IntersectionID)
	if err := p.client.Set(ctx, key, data, latestTTL).Err(); err != nil {
		return fmt.Errorf("publish: cache snapshot: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelSnapshots, data).Err(); err != nil {
		return fmt.Errorf("publish: snapshot: %w", err)
	}
	return nil
}

// PublishRecommendation broadcasts a newly generated or resolved
// recommendation.
func (p *Publisher) PublishRecommendation(ctx context.Context, rec domain.Recommendation) error {
	if p.client == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("publish: marshal recommendation: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelRecommendations, data).Err(); err != nil {
		return fmt.Errorf("publish: recommendation: %w", err)
	}
	return nil
}

// LatestSnapshot reads the cached latest snapshot for an intersection.
// Returns found=false when nothing is cached or no broker is connected.
func (p *Publisher) LatestSnapshot(ctx context.Context, intersectionID string) (domain.LiveSnapshot, bool, error) {
	if p.client == nil {
		return domain.LiveSnapshot{}, false, nil
	}
	val, err := p.client.Get(ctx, fmt.Sprintf(keyLatestSnapshot, intersectionID)).Result()
	if err == redis.Nil {
		return domain.LiveSnapshot{}, false, nil
	}
	if err != nil {
		return domain.LiveSnapshot{}, false, fmt.Errorf("publish: latest snapshot: %w", err)
	}
	var snap domain.LiveSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return domain.LiveSnapshot{}, false, fmt.Errorf("publish: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
