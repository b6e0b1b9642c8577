package sim

import (
	"github.com/urbanflow/backend/internal/domain"
)

// StepResult reports what happened during one simulation tick.
type StepResult struct {
	Arrivals   map[domain.Approach]int
	Departures map[domain.Approach]int
	Queues     map[domain.Approach]int

	TotalArrivals   int
	TotalDepartures int
	TotalQueue      int
}

// IntersectionSim advances per-approach queue state one step per tick:
//
//	queue' = clamp(0, hardCap)(queue + arrivals - serviceCapacity(green))
//
// The sim exclusively owns approach queue state; green durations are
// mutated only through the controller.
type IntersectionSim struct {
	ID           string
	cycleSeconds int
	controller   *SignalController
	demand       *DemandProfile
	queue        map[domain.Approach]int
}

// NewIntersectionSim builds a sim with empty queues and baseline signals.
func NewIntersectionSim(id string, cycleSeconds int, seed int64) *IntersectionSim {
	q := make(map[domain.Approach]int, len(domain.Approaches))
	for _, a := range domain.Approaches {
		q[a] = 0
	}
	cycleSeconds = NormalizeCycle(cycleSeconds)
	return &IntersectionSim{
		ID:           id,
		cycleSeconds: cycleSeconds,
		controller:   NewSignalController(cycleSeconds),
		demand:       NewDemandProfile(seed),
		queue:        q,
	}
}

// CycleSeconds returns the fixed cycle length this sim runs on.
func (s *IntersectionSim) CycleSeconds() int {
	return s.cycleSeconds
}

// Controller exposes the signal controller for operator actions and the
// failsafe.
func (s *IntersectionSim) Controller() *SignalController {
	return s.controller
}

// Step advances the simulation by one tick.
func (s *IntersectionSim) Step(tick int) StepResult {
	arrivals := s.demand.Arrivals(tick)
	res := StepResult{
		Arrivals:   arrivals,
		Departures: make(map[domain.Approach]int, len(domain.Approaches)),
		Queues:     make(map[domain.Approach]int, len(domain.Approaches)),
	}

	for _, a := range domain.Approaches {
		capacity := serviceCapacity(a, s.controller.Green(a), s.cycleSeconds)
		demand := s.queue[a] + arrivals[a]
		dep := int(capacity)
		if dep > demand {
			dep = demand
		}
		q := demand - dep
		if q < 0 {
			q = 0
		}
		if q > queueHardCap {
			q = queueHardCap
		}
		s.queue[a] = q

		res.Departures[a] = dep
		res.Queues[a] = q
		res.TotalArrivals += arrivals[a]
		res.TotalDepartures += dep
		res.TotalQueue += q
	}
	return res
}

// Queues returns a copy of the current per-approach queue lengths.
func (s *IntersectionSim) Queues() map[domain.Approach]int {
	out := make(map[domain.Approach]int, len(s.queue))
	for a, q := range s.queue {
		out[a] = q
	}
	return out
}

// TotalQueue returns the summed queue length across approaches.
func (s *IntersectionSim) TotalQueue() int {
	total := 0
	for _, q := range s.queue {
		total += q
	}
	return total
}
