package publish

import (
	"context"
	"testing"

	"github.com/urbanflow/backend/internal/domain"
)

// With no broker configured every operation must be a silent no-op so
// the engine can run identically with or without Redis.
func TestDisabledPublisher(t *testing.T) {
	p := New("", "")
	ctx := context.Background()

	if p.Available() {
		t.Error("Available() = true with no broker")
	}
	if err := p.PublishSnapshot(ctx, domain.LiveSnapshot{IntersectionID: "SUR-4092"}); err != nil {
		t.Errorf("PublishSnapshot = %v, want nil", err)
	}
	if err := p.PublishRecommendation(ctx, domain.Recommendation{ID: "REC-TEST0001"}); err != nil {
		t.Errorf("PublishRecommendation = %v, want nil", err)
	}
	if _, found, err := p.LatestSnapshot(ctx, "SUR-4092"); found || err != nil {
		t.Errorf("LatestSnapshot = (found=%v, err=%v), want miss without error", found, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}
