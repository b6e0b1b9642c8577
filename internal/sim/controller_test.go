package sim

import (
	"errors"
	"testing"

	"github.com/urbanflow/backend/internal/domain"
)

func TestControllerAdjust(t *testing.T) {
	t.Run("applies delta within range", func(t *testing.T) {
		c := NewSignalController(90)
		res, err := c.Adjust(domain.ApproachNorth, 10)
		if err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
		if res.PreviousGreenSeconds != 45 {
			t.Errorf("PreviousGreenSeconds = %d, want 45", res.PreviousGreenSeconds)
		}
		if res.NewGreenSeconds != 55 {
			t.Errorf("NewGreenSeconds = %d, want 55", res.NewGreenSeconds)
		}
		if got := c.Green(domain.ApproachNorth); got != 55 {
			t.Errorf("Green(N) = %d, want 55", got)
		}
	})

	t.Run("rejects unknown approach", func(t *testing.T) {
		c := NewSignalController(90)
		_, err := c.Adjust(domain.Approach("NE"), 5)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("rejects delta above max and leaves state unchanged", func(t *testing.T) {
		c := NewSignalController(90)
		_, err := c.Adjust(domain.ApproachNorth, 30) // 45+30 > 70
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
		if got := c.Green(domain.ApproachNorth); got != 45 {
			t.Errorf("Green(N) = %d after rejected adjust, want 45", got)
		}
	})

	t.Run("rejects delta below min", func(t *testing.T) {
		c := NewSignalController(90)
		_, err := c.Adjust(domain.ApproachEast, -5) // 20-5 < 20
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
		if got := c.Green(domain.ApproachEast); got != 20 {
			t.Errorf("Green(E) = %d after rejected adjust, want 20", got)
		}
	})

	t.Run("accepts boundary values", func(t *testing.T) {
		c := NewSignalController(90)
		if _, err := c.Adjust(domain.ApproachNorth, 25); err != nil { // exactly 70
			t.Errorf("Adjust to max green failed: %v", err)
		}
		if _, err := c.Adjust(domain.ApproachSouth, -25); err != nil { // exactly 20
			t.Errorf("Adjust to min green failed: %v", err)
		}
	})
}

func TestControllerSetGreen(t *testing.T) {
	c := NewSignalController(90)
	res, err := c.SetGreen(domain.ApproachWest, 64)
	if err != nil {
		t.Fatalf("SetGreen failed: %v", err)
	}
	if res.NewGreenSeconds != 64 {
		t.Errorf("NewGreenSeconds = %d, want 64", res.NewGreenSeconds)
	}
	if got := c.Green(domain.ApproachWest); got != 64 {
		t.Errorf("Green(W) = %d, want 64", got)
	}
}

func TestControllerRevertBaseline(t *testing.T) {
	c := NewSignalController(90)
	if _, err := c.SetGreen(domain.ApproachNorth, 60); err != nil {
		t.Fatalf("SetGreen failed: %v", err)
	}
	c.RevertBaseline()
	for a, want := range map[domain.Approach]int{
		domain.ApproachNorth: 45,
		domain.ApproachEast:  20,
		domain.ApproachSouth: 45,
		domain.ApproachWest:  20,
	} {
		if got := c.Green(a); got != want {
			t.Errorf("Green(%s) = %d after revert, want %d", a, got, want)
		}
	}
}

func TestControllerPlan(t *testing.T) {
	c := NewSignalController(90)
	plan := c.Plan()
	n := plan[domain.ApproachNorth]
	if n.GreenSeconds != 45 || n.YellowSeconds != 5 || n.RedSeconds != 40 {
		t.Errorf("Plan(N) = %+v, want green 45 yellow 5 red 40", n)
	}

	if _, err := c.SetGreen(domain.ApproachNorth, 70); err != nil {
		t.Fatalf("SetGreen failed: %v", err)
	}
	if got := c.Plan()[domain.ApproachNorth].RedSeconds; got != 15 {
		t.Errorf("Plan(N).RedSeconds = %d, want 15", got)
	}
}
