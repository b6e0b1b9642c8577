package sim

import (
	"math"
	"math/rand"

	"github.com/urbanflow/backend/internal/domain"
)

// Peak arrival rates in vehicles per tick, scaled by lane counts: N and S
// are mainline, E and W are minor.
var basePeakArrivals = map[domain.Approach]float64{
	domain.ApproachNorth: 28.0,
	domain.ApproachEast:  14.0,
	domain.ApproachSouth: 28.0,
	domain.ApproachWest:  14.0,
}

const (
	// Off-peak fraction of peak demand.
	offPeakFraction = 0.35

	// Ticks over which demand ramps up to peak (2 simulated hours).
	rampTicks = 120

	// Gaussian jitter as a fraction of current demand.
	noiseFraction = 0.12
)

// DemandProfile produces bounded, seeded per-approach vehicle arrivals for
// each tick. Demand rises from the off-peak fraction to full peak over
// rampTicks using a raised-cosine curve, then holds at peak.
type DemandProfile struct {
	rng *rand.Rand
}

// NewDemandProfile returns a demand profile with a deterministic seed.
func NewDemandProfile(seed int64) *DemandProfile {
	return &DemandProfile{rng: rand.New(rand.NewSource(seed))}
}

// Arrivals returns non-negative integer arrivals per approach for a tick.
func (d *DemandProfile) Arrivals(tick int) map[domain.Approach]int {
	ramp := rampFactor(tick)
	out := make(map[domain.Approach]int, len(domain.Approaches))
	for _, a := range domain.Approaches {
		peak := basePeakArrivals[a]
		mean := offPeakFraction*peak + ramp*(1.0-offPeakFraction)*peak
		noise := d.rng.NormFloat64() * noiseFraction * mean
		n := int(math.Round(mean + noise))
		if n < 0 {
			n = 0
		}
		out[a] = n
	}
	return out
}

// rampFactor eases from 0 to 1 over [0, rampTicks] with a raised cosine,
// then holds at 1.
func rampFactor(tick int) float64 {
	if tick <= 0 {
		return 0.0
	}
	if tick >= rampTicks {
		return 1.0
	}
	return 0.5 * (1.0 - math.Cos(math.Pi*float64(tick)/rampTicks))
}
