package domain

import "time"

// RecommendationStatus is the lifecycle state of a signal-timing
// recommendation. PENDING transitions exactly once to APPLIED or REJECTED;
// both are terminal.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "PENDING"
	StatusApplied  RecommendationStatus = "APPLIED"
	StatusRejected RecommendationStatus = "REJECTED"
)

// Recommendation is a proposed green-phase extension awaiting an operator
// decision. Resolved recommendations are retained for audit, never deleted.
type Recommendation struct {
	ID                       string               `json:"recommendationId"`
	CreatedAt                time.Time            `json:"createdAt"`
	Status                   RecommendationStatus `json:"status"`
	TargetIntersectionID     string               `json:"targetIntersectionId"`
	TargetLocationName       string               `json:"targetLocationName"`
	TargetApproach           Approach             `json:"targetApproach"`
	AlertTitle               string               `json:"alertTitle"`
	AlertDescription         string               `json:"alertDescription"`
	PredictedDelayMinutes    float64              `json:"predictedDelayIfNoActionMinutes"`
	CurrentGreenSeconds      int                  `json:"currentGreenSeconds"`
	RecommendedGreenSeconds  int                  `json:"recommendedGreenSeconds"`
	DeltaSeconds             int                  `json:"deltaSeconds"`
	ConfidencePercent        float64              `json:"confidencePercent"`
}

// Resolved reports whether the recommendation has reached a terminal state.
func (r Recommendation) Resolved() bool {
	return r.Status == StatusApplied || r.Status == StatusRejected
}
