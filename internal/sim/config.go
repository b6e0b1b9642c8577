package sim

import (
	"math"

	"github.com/urbanflow/backend/internal/domain"
)

// Fixed signal-timing parameters. The cycle length is per intersection
// and held constant during a run; green time moves between approaches
// within it.
const (
	// DefaultCycleSeconds is used when an intersection is registered
	// without a cycle length.
	DefaultCycleSeconds = 90

	MinGreenSeconds  = 20
	MaxGreenSeconds  = 70
	ClearanceSeconds = 5 // yellow phase, fixed per approach

	// One tick advances one simulated minute.
	SimMinutesPerTick = 1
)

// Saturation flow rate per lane (Highway Capacity Manual typical value).
const satFlowVehPerHourPerLane = 1900

// Queue bounds per approach. maxQueuePerApproach defines 100% density;
// queueHardCap prevents unbounded growth under sustained oversaturation.
const (
	maxQueuePerApproach = 80
	queueHardCap        = 120
)

// Lanes per approach. N and S are mainline, E and W are minor.
var lanes = map[domain.Approach]int{
	domain.ApproachNorth: 3,
	domain.ApproachEast:  2,
	domain.ApproachSouth: 3,
	domain.ApproachWest:  2,
}

// defaultGreens is the baseline signal plan. Phase durations are
// independent knobs; each green is bounded by [MinGreenSeconds,
// MaxGreenSeconds] rather than by a shared cycle budget.
var defaultGreens = map[domain.Approach]int{
	domain.ApproachNorth: 45,
	domain.ApproachEast:  20,
	domain.ApproachSouth: 45,
	domain.ApproachWest:  20,
}

// MaxTotalQueue is the vehicle count that defines 100% intersection density.
const MaxTotalQueue = maxQueuePerApproach * 4

// MaxQueuePerApproach is the per-approach vehicle count defining 100%
// approach density.
const MaxQueuePerApproach = maxQueuePerApproach

// NormalizeCycle replaces a non-positive cycle length with the default.
func NormalizeCycle(cycleSeconds int) int {
	if cycleSeconds <= 0 {
		return DefaultCycleSeconds
	}
	return cycleSeconds
}

// serviceCapacity is the maximum vehicles that can depart an approach in
// one tick: satFlow × lanes × (green/cycle), converted to vehicles/tick.
func serviceCapacity(approach domain.Approach, greenSeconds, cycleSeconds int) float64 {
	n := lanes[approach]
	if n == 0 {
		n = 1
	}
	greenRatio := float64(greenSeconds) / float64(NormalizeCycle(cycleSeconds))
	return satFlowVehPerHourPerLane * float64(n) * greenRatio * SimMinutesPerTick / 60.0
}

// ServiceCapacityPerTick exposes the per-tick departure capacity for an
// approach at a given green duration and cycle length.
func ServiceCapacityPerTick(approach domain.Approach, greenSeconds, cycleSeconds int) float64 {
	return serviceCapacity(approach, greenSeconds, cycleSeconds)
}

// GreenForCapacity inverts serviceCapacity: the smallest green duration
// whose per-tick departure capacity meets vehPerTick. The result is not
// clamped; callers bound it to the safety range.
func GreenForCapacity(approach domain.Approach, vehPerTick float64, cycleSeconds int) int {
	n := lanes[approach]
	if n == 0 {
		n = 1
	}
	perGreenSecond := satFlowVehPerHourPerLane * float64(n) * SimMinutesPerTick / 60.0 / float64(NormalizeCycle(cycleSeconds))
	if perGreenSecond <= 0 {
		return MaxGreenSeconds
	}
	return int(math.Ceil(vehPerTick / perGreenSecond))
}
