package domain

import "time"

// Decision log event types.
const (
	EventRecommendationApplied  = "RECOMMENDATION_APPLIED"
	EventRecommendationRejected = "RECOMMENDATION_REJECTED"
	EventCongestionDetected     = "CONGESTION_DETECTED"
)

// Human action values recorded against AI predictions.
const (
	ActionApplied  = "Applied"
	ActionRejected = "Rejected"
	ActionNone     = "No Action"
)

// DecisionLogEntry is one append-only audit record of an AI prediction
// versus the human action taken. Outcome starts as a pending placeholder
// for applies and is finalized once the queue is observed to change.
type DecisionLogEntry struct {
	ID             string    `json:"entryId"`
	Timestamp      time.Time `json:"timestamp"`
	IntersectionID string    `json:"intersectionId"`
	LocationName   string    `json:"locationName"`
	EventType      string    `json:"eventType"`
	AIPrediction   string    `json:"aiPrediction"`
	HumanAction    string    `json:"humanAction"`
	Outcome        string    `json:"outcome"`
	Details        string    `json:"details"`
}

// DecisionLogFilter narrows a decision-log query. Zero values mean "no
// filter" for that dimension.
type DecisionLogFilter struct {
	IntersectionID string
	From           time.Time
	To             time.Time
}

// AnalyticsSummary is the derived read-only aggregation over the decision
// log. An empty log yields a zero acceptance rate and empty causes.
type AnalyticsSummary struct {
	AcceptanceRatePercent float64  `json:"acceptanceRatePercent"`
	AppliedCount          int      `json:"appliedCount"`
	RejectedCount         int      `json:"rejectedCount"`
	RecurringCauses       []string `json:"recurringCauses"`
}
