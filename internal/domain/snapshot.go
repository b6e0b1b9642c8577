package domain

import "time"

// LiveSnapshot is the per-intersection point-in-time metrics view produced
// once per tick. CurrentVolume is always the queue-proxy representation
// (queue length scaled to vehicles/hour via the cycle length), never a raw
// arrival rate.
type LiveSnapshot struct {
	IntersectionID      string    `json:"intersectionId"`
	Timestamp           time.Time `json:"timestamp"`
	CurrentVolume       int       `json:"currentVolume"`
	AvgSpeedKmh         float64   `json:"avgSpeedKmh"`
	QueueLengthVehicles int       `json:"queueLengthVehicles"`
	WaitTimeMinutes     float64   `json:"waitTimeMinutes"`
	WeatherTempC        float64   `json:"weatherTempC"`
	WeatherCondition    string    `json:"weatherCondition"`
	WeatherStale        bool      `json:"weatherStale"`
	DensityPercent      float64   `json:"densityPercent"`
	FlowRateCarsPerMin  float64   `json:"flowRateCarsPerMin"`
	FlowStatus          string    `json:"flowStatus"`
}

// Weather is the engine's view of current conditions at an intersection.
// Stale marks values served from an expired cache after a provider failure.
type Weather struct {
	TempC     float64   `json:"tempC"`
	Condition string    `json:"condition"` // "Rain" | "Cloudy" | "Hot" | "Clear"
	Humidity  int       `json:"humidity"`
	UpdatedAt time.Time `json:"updatedAt"`
	Stale     bool      `json:"stale"`
}

// SystemStatus is the engine heartbeat exposed on /system.
type SystemStatus struct {
	SystemOperational bool      `json:"systemOperational"`
	Mode              string    `json:"mode"` // "AI_ACTIVE" | "LOCAL_FALLBACK"
	Live              bool      `json:"live"`
	LastUpdate        time.Time `json:"lastUpdate"`
	Message           string    `json:"message"`
}

const (
	ModeAIActive      = "AI_ACTIVE"
	ModeLocalFallback = "LOCAL_FALLBACK"
)
