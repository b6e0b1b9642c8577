package rec

import (
	"fmt"

	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/sim"
)

// ClampGreenSeconds bounds a proposed green duration to the signal safety
// range.
func ClampGreenSeconds(value int) int {
	if value < sim.MinGreenSeconds {
		return sim.MinGreenSeconds
	}
	if value > sim.MaxGreenSeconds {
		return sim.MaxGreenSeconds
	}
	return value
}

// ValidatePlan checks a full per-approach green plan against the safety
// range. Returns nil only when every approach is within bounds.
func ValidatePlan(greens map[domain.Approach]int) error {
	for a, g := range greens {
		if g < sim.MinGreenSeconds || g > sim.MaxGreenSeconds {
			return fmt.Errorf(
				"rec: approach %s green %ds outside [%d,%d]: %w",
				a, g, sim.MinGreenSeconds, sim.MaxGreenSeconds, domain.ErrInvalidArgument,
			)
		}
	}
	return nil
}
