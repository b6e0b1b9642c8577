package domain

import "time"

// Approach labels one directional leg of an intersection.
type Approach string

const (
	ApproachNorth Approach = "N"
	ApproachEast  Approach = "E"
	ApproachSouth Approach = "S"
	ApproachWest  Approach = "W"
)

// Approaches lists every approach in fixed order. Iteration over signal
// plans and queues must use this order to stay deterministic.
var Approaches = []Approach{ApproachNorth, ApproachEast, ApproachSouth, ApproachWest}

// ApproachNames maps approach labels to display names used in alert text.
var ApproachNames = map[Approach]string{
	ApproachNorth: "Northbound",
	ApproachEast:  "Eastbound",
	ApproachSouth: "Southbound",
	ApproachWest:  "Westbound",
}

// ValidApproach reports whether a is one of the four known approaches.
func ValidApproach(a Approach) bool {
	switch a {
	case ApproachNorth, ApproachEast, ApproachSouth, ApproachWest:
		return true
	}
	return false
}

// PhasePlan is the signal timing for a single approach within the cycle.
type PhasePlan struct {
	GreenSeconds  int `json:"greenSeconds"`
	YellowSeconds int `json:"yellowSeconds"`
	RedSeconds    int `json:"redSeconds"`
}

// SignalPlan maps each approach to its phase timing.
type SignalPlan map[Approach]PhasePlan

// Intersection is the static identity of a simulated intersection. Created
// at startup from configuration, never destroyed during a run.
type Intersection struct {
	ID           string  `json:"intersectionId"`
	LocationName string  `json:"locationName"`
	City         string  `json:"city"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	CycleSeconds int     `json:"cycleSeconds"`
}

// IntersectionSummary is the API-facing view of an intersection including
// its live signal plan.
type IntersectionSummary struct {
	Intersection
	IsActive       bool       `json:"isActive"`
	SignalPlan     SignalPlan `json:"currentSignalPlan"`
	LastAdjustedAt time.Time  `json:"lastAdjustedAt"`
}

// AdjustResult reports the green duration before and after a manual
// adjustment or an applied recommendation.
type AdjustResult struct {
	Approach             Approach `json:"approach"`
	PreviousGreenSeconds int      `json:"previousGreenSeconds"`
	NewGreenSeconds      int      `json:"newGreenSeconds"`
}
