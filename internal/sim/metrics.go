package sim

import (
	"time"

	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/pkg/utils"
)

// Speed thresholds for flow labels (km/h).
const (
	freeFlowMinSpeed = 45.0
	moderateMinSpeed = 25.0
)

// QueueProxyVPH converts a total queue length into the queue-proxy volume:
// queue vehicles scaled to an hourly rate by the cycle length. This is the
// sole "volume" representation exposed outside the engine. Integer math
// keeps the contract exact: 48 vehicles at a 90 s cycle is 1920 veh/h.
func QueueProxyVPH(totalQueueVehicles, cycleSeconds int) int {
	if cycleSeconds <= 0 {
		return 0
	}
	return totalQueueVehicles * 3600 / cycleSeconds
}

// DensityPercent maps a vehicle count onto [0,100] against a capacity.
func DensityPercent(vehicles, capacity int) float64 {
	if capacity <= 0 {
		return 100.0
	}
	return utils.Clamp(float64(vehicles)/float64(capacity)*100.0, 0, 100)
}

// ApproachDensityPercent is the per-approach density used for
// recommendation triggering.
func ApproachDensityPercent(queue int) float64 {
	return DensityPercent(queue, maxQueuePerApproach)
}

// SpeedKmh estimates average speed with a Greenshields linear
// speed-density model: 0% density → 60 km/h free flow, 100% → 10 km/h jam.
func SpeedKmh(densityPercent float64) float64 {
	const (
		freeFlow = 60.0
		jamSpeed = 10.0
	)
	d := utils.Clamp(densityPercent, 0, 100)
	return utils.RoundTo(freeFlow-(freeFlow-jamSpeed)*(d/100.0), 1)
}

// WaitTimeMinutes estimates average wait: queued vehicles over the
// departure rate, in simulated minutes. With zero capacity the queue
// itself bounds the estimate.
func WaitTimeMinutes(totalQueue int, departuresPerTick float64) float64 {
	if departuresPerTick <= 0 {
		return utils.RoundTo(float64(totalQueue)*SimMinutesPerTick, 2)
	}
	return utils.RoundTo(float64(totalQueue)/departuresPerTick*SimMinutesPerTick, 2)
}

// FlowLabel maps average speed to the UI flow label.
func FlowLabel(speedKmh float64) string {
	switch {
	case speedKmh >= freeFlowMinSpeed:
		return "Free Flow"
	case speedKmh >= moderateMinSpeed:
		return "Moderate Flow"
	default:
		return "Slow Traffic"
	}
}

// Derive builds a LiveSnapshot from one step result. Pure: identical
// inputs yield identical snapshots, so a green-duration change shows up in
// the queue-proxy volume within one tick.
func Derive(intersectionID string, cycleSeconds int, now time.Time, res StepResult, weather domain.Weather) domain.LiveSnapshot {
	density := DensityPercent(res.TotalQueue, MaxTotalQueue)
	speed := SpeedKmh(density)
	return domain.LiveSnapshot{
		IntersectionID:      intersectionID,
		Timestamp:           now,
		CurrentVolume:       QueueProxyVPH(res.TotalQueue, NormalizeCycle(cycleSeconds)),
		AvgSpeedKmh:         speed,
		QueueLengthVehicles: res.TotalQueue,
		WaitTimeMinutes:     WaitTimeMinutes(res.TotalQueue, float64(res.TotalDepartures)),
		WeatherTempC:        weather.TempC,
		WeatherCondition:    weather.Condition,
		WeatherStale:        weather.Stale,
		DensityPercent:      utils.RoundTo(density, 1),
		FlowRateCarsPerMin:  utils.RoundTo(float64(res.TotalArrivals)/SimMinutesPerTick, 2),
		FlowStatus:          FlowLabel(speed),
	}
}

// ArrivalRateVPH scales one tick of arrivals to vehicles/hour. This is the
// raw arrival-rate quantity fed to the calibration factor denominator; it
// is never exposed as a "volume" externally.
func ArrivalRateVPH(totalArrivals int) float64 {
	return float64(totalArrivals) / SimMinutesPerTick * 60.0
}
