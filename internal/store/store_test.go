package store

import (
	"errors"
	"testing"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

func TestStoreLiveSnapshots(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s := New(base)

	t.Run("missing snapshot is not found", func(t *testing.T) {
		if _, err := s.Live("SUR-4092"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("latest snapshot is retrievable", func(t *testing.T) {
		snap := domain.LiveSnapshot{IntersectionID: "SUR-4092", Timestamp: base, CurrentVolume: 1920}
		if err := s.SetLive(snap); err != nil {
			t.Fatalf("SetLive failed: %v", err)
		}
		got, err := s.Live("SUR-4092")
		if err != nil {
			t.Fatalf("Live failed: %v", err)
		}
		if got.CurrentVolume != 1920 {
			t.Errorf("CurrentVolume = %d, want 1920", got.CurrentVolume)
		}
	})

	t.Run("non-increasing timestamp is fatal", func(t *testing.T) {
		err := s.SetLive(domain.LiveSnapshot{IntersectionID: "SUR-4092", Timestamp: base})
		if !errors.Is(err, domain.ErrFatal) {
			t.Errorf("err = %v, want ErrFatal", err)
		}
		err = s.SetLive(domain.LiveSnapshot{IntersectionID: "SUR-4092", Timestamp: base.Add(2 * time.Second)})
		if err != nil {
			t.Errorf("strictly later timestamp rejected: %v", err)
		}
	})
}

func TestStoreRecommendations(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s := New(base)
	pending := domain.Recommendation{
		ID:                   "REC-AB12CD34",
		CreatedAt:            base,
		Status:               domain.StatusPending,
		TargetIntersectionID: "SUR-4092",
		TargetApproach:       domain.ApproachNorth,
	}
	s.AddRecommendations([]domain.Recommendation{pending})

	t.Run("pending lookup by intersection and approach", func(t *testing.T) {
		if !s.HasPendingRecommendation("SUR-4092", domain.ApproachNorth) {
			t.Error("HasPendingRecommendation = false, want true")
		}
		if s.HasPendingRecommendation("SUR-4092", domain.ApproachEast) {
			t.Error("HasPendingRecommendation(E) = true, want false")
		}
	})

	t.Run("resolve transitions to terminal status", func(t *testing.T) {
		got, err := s.ResolveRecommendation("REC-AB12CD34", domain.StatusApplied)
		if err != nil {
			t.Fatalf("ResolveRecommendation failed: %v", err)
		}
		if got.Status != domain.StatusApplied {
			t.Errorf("Status = %s, want APPLIED", got.Status)
		}
		if s.HasPendingRecommendation("SUR-4092", domain.ApproachNorth) {
			t.Error("resolved recommendation still counted as pending")
		}
	})

	t.Run("second resolve is a conflict", func(t *testing.T) {
		_, err := s.ResolveRecommendation("REC-AB12CD34", domain.StatusRejected)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
		got, err := s.Recommendation("REC-AB12CD34")
		if err != nil {
			t.Fatalf("Recommendation failed: %v", err)
		}
		if got.Status != domain.StatusApplied {
			t.Errorf("Status = %s after rejected re-resolve, want APPLIED", got.Status)
		}
	})

	t.Run("resolved recommendations stay for audit", func(t *testing.T) {
		if _, err := s.Recommendation("REC-AB12CD34"); err != nil {
			t.Errorf("resolved recommendation gone: %v", err)
		}
	})

	t.Run("unknown recommendation is not found", func(t *testing.T) {
		_, err := s.ResolveRecommendation("REC-MISSING1", domain.StatusApplied)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestStoreIntersections(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s := New(base)
	s.UpsertIntersection(domain.IntersectionSummary{
		Intersection: domain.Intersection{ID: "SUR-4092", City: "Surabaya"},
	})
	s.UpsertIntersection(domain.IntersectionSummary{
		Intersection: domain.Intersection{ID: "SUR-7001", City: "Surabaya"},
	})
	s.UpsertIntersection(domain.IntersectionSummary{
		Intersection: domain.Intersection{ID: "SUR-4092", City: "Surabaya"},
		IsActive:     true,
	})

	all := s.Intersections()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2 (upsert must not duplicate)", len(all))
	}
	if all[0].ID != "SUR-4092" || !all[0].IsActive {
		t.Errorf("first summary = %+v, want refreshed SUR-4092", all[0])
	}

	if _, err := s.Intersection("SUR-0000"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
