package forecast

import (
	"math"
	"testing"
)

func TestCalibrator(t *testing.T) {
	t.Run("cold start factor is 1.0", func(t *testing.T) {
		c := NewCalibrator(150)
		if got := c.Factor(); got != 1.0 {
			t.Errorf("Factor() = %v, want 1.0", got)
		}
	})

	t.Run("zero arrival rate never divides", func(t *testing.T) {
		c := NewCalibrator(150)
		c.Observe(1920, 0)
		c.Observe(1920, -5)
		if got := c.Factor(); got != 1.0 {
			t.Errorf("Factor() = %v after skipped observations, want 1.0", got)
		}
	})

	t.Run("first valid observation seeds the factor", func(t *testing.T) {
		c := NewCalibrator(150)
		c.Observe(1920, 1200)
		want := 1920.0 / 1200.0
		if got := c.Factor(); got != want {
			t.Errorf("Factor() = %v, want %v", got, want)
		}
	})

	t.Run("factor tracks the observed ratio", func(t *testing.T) {
		c := NewCalibrator(10)
		for i := 0; i < 200; i++ {
			c.Observe(3000, 1500) // ratio 2.0
		}
		if got := c.Factor(); math.Abs(got-2.0) > 1e-9 {
			t.Errorf("Factor() = %v after steady ratio 2.0", got)
		}
	})

	t.Run("skipped ticks retain the last valid factor", func(t *testing.T) {
		c := NewCalibrator(150)
		c.Observe(2400, 1200)
		before := c.Factor()
		c.Observe(9999, 0)
		if got := c.Factor(); got != before {
			t.Errorf("Factor() = %v changed by a skipped observation, want %v", got, before)
		}
	})
}
