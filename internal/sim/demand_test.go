package sim

import "testing"

func TestDemandProfile(t *testing.T) {
	t.Run("same seed is deterministic", func(t *testing.T) {
		a := NewDemandProfile(42)
		b := NewDemandProfile(42)
		for tick := 1; tick <= 100; tick++ {
			aa := a.Arrivals(tick)
			bb := b.Arrivals(tick)
			for approach, n := range aa {
				if bb[approach] != n {
					t.Fatalf("tick %d approach %s: %d vs %d", tick, approach, n, bb[approach])
				}
			}
		}
	})

	t.Run("arrivals are never negative", func(t *testing.T) {
		d := NewDemandProfile(3)
		for tick := 0; tick <= 300; tick++ {
			for approach, n := range d.Arrivals(tick) {
				if n < 0 {
					t.Fatalf("tick %d approach %s: arrivals = %d", tick, approach, n)
				}
			}
		}
	})
}

func TestRampFactor(t *testing.T) {
	if got := rampFactor(0); got != 0.0 {
		t.Errorf("rampFactor(0) = %v, want 0", got)
	}
	if got := rampFactor(rampTicks); got != 1.0 {
		t.Errorf("rampFactor(%d) = %v, want 1", rampTicks, got)
	}
	if got := rampFactor(rampTicks * 10); got != 1.0 {
		t.Errorf("rampFactor holds at peak, got %v", got)
	}
	prev := 0.0
	for tick := 1; tick < rampTicks; tick++ {
		f := rampFactor(tick)
		if f < prev {
			t.Fatalf("rampFactor not monotonic at tick %d: %v < %v", tick, f, prev)
		}
		prev = f
	}
}
