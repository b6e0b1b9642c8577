package sim

import (
	"fmt"

	"github.com/urbanflow/backend/internal/domain"
)

// SignalController holds the per-approach green durations for one
// intersection. Green time is the only knob the engine or an operator
// mutates; yellow is a fixed clearance and red is derived for display.
type SignalController struct {
	cycleSeconds int
	baseline     map[domain.Approach]int
	current      map[domain.Approach]int
}

// NewSignalController returns a controller initialized to the baseline plan.
func NewSignalController(cycleSeconds int) *SignalController {
	base := make(map[domain.Approach]int, len(defaultGreens))
	cur := make(map[domain.Approach]int, len(defaultGreens))
	for a, g := range defaultGreens {
		base[a] = g
		cur[a] = g
	}
	return &SignalController{
		cycleSeconds: NormalizeCycle(cycleSeconds),
		baseline:     base,
		current:      cur,
	}
}

// Adjust changes the green duration of an approach by delta seconds.
// Deltas that would push the green outside the safety range are rejected
// with ErrInvalidArgument and leave state unchanged.
func (c *SignalController) Adjust(approach domain.Approach, deltaSeconds int) (domain.AdjustResult, error) {
	if !domain.ValidApproach(approach) {
		return domain.AdjustResult{}, fmt.Errorf("controller: approach %q: %w", approach, domain.ErrNotFound)
	}
	prev := c.current[approach]
	next := prev + deltaSeconds
	if next < MinGreenSeconds || next > MaxGreenSeconds {
		return domain.AdjustResult{}, fmt.Errorf(
			"controller: green %ds for approach %s outside [%d,%d]: %w",
			next, approach, MinGreenSeconds, MaxGreenSeconds, domain.ErrInvalidArgument,
		)
	}
	c.current[approach] = next
	return domain.AdjustResult{
		Approach:             approach,
		PreviousGreenSeconds: prev,
		NewGreenSeconds:      next,
	}, nil
}

// SetGreen sets an approach green to an absolute duration. Used when a
// recommendation is applied; the target has already been clamped to the
// safety range at generation time, so a violation here is rejected.
func (c *SignalController) SetGreen(approach domain.Approach, greenSeconds int) (domain.AdjustResult, error) {
	if !domain.ValidApproach(approach) {
		return domain.AdjustResult{}, fmt.Errorf("controller: approach %q: %w", approach, domain.ErrNotFound)
	}
	return c.Adjust(approach, greenSeconds-c.current[approach])
}

// RevertBaseline resets all greens to the baseline plan. Used by the
// failsafe when sensor data goes stale.
func (c *SignalController) RevertBaseline() {
	for a, g := range c.baseline {
		c.current[a] = g
	}
}

// Green returns the current green duration for an approach.
func (c *SignalController) Green(approach domain.Approach) int {
	return c.current[approach]
}

// Greens returns a copy of the current per-approach green durations.
func (c *SignalController) Greens() map[domain.Approach]int {
	out := make(map[domain.Approach]int, len(c.current))
	for a, g := range c.current {
		out[a] = g
	}
	return out
}

// Plan builds the full per-approach signal plan. Red is derived as the
// remainder of the cycle after the approach's own green and yellow,
// clamped at zero when greens overrun the nominal cycle.
func (c *SignalController) Plan() domain.SignalPlan {
	plan := make(domain.SignalPlan, len(domain.Approaches))
	for _, a := range domain.Approaches {
		g := c.current[a]
		red := c.cycleSeconds - g - ClearanceSeconds
		if red < 0 {
			red = 0
		}
		plan[a] = domain.PhasePlan{
			GreenSeconds:  g,
			YellowSeconds: ClearanceSeconds,
			RedSeconds:    red,
		}
	}
	return plan
}
