package forecast

// Calibrator maintains the rolling scale factor that converts raw model
// output (arrival-rate vehicles/hour) into queue-proxy units. The factor is
// an exponentially-weighted rolling average of the observed ratio
// queueProxyVPH / arrivalRateVPH, windowed over roughly five minutes of
// ticks.
type Calibrator struct {
	alpha  float64
	factor float64
	seeded bool
}

// NewCalibrator builds a calibrator whose EWMA window spans windowTicks
// observations (alpha = 2/(n+1)). The factor cold-starts at 1.0.
func NewCalibrator(windowTicks int) *Calibrator {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Calibrator{
		alpha:  2.0 / (float64(windowTicks) + 1.0),
		factor: 1.0,
	}
}

// Observe folds one tick's observation into the rolling factor. A zero or
// negative arrival-rate denominator is skipped entirely: the factor retains
// its last valid value, never dividing by zero.
func (c *Calibrator) Observe(queueProxyVPH, arrivalRateVPH float64) {
	if arrivalRateVPH <= 0 {
		return
	}
	ratio := queueProxyVPH / arrivalRateVPH
	if !c.seeded {
		c.factor = ratio
		c.seeded = true
		return
	}
	c.factor = c.alpha*ratio + (1.0-c.alpha)*c.factor
}

// Factor returns the current scale factor (1.0 on cold start).
func (c *Calibrator) Factor() float64 {
	return c.factor
}
