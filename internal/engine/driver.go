package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

// Driver runs the engine's tick loop on a wall-clock ticker. Ticks are
// strictly sequential: the next tick waits until the previous RunTick
// returns, and cancelling the context lets an in-flight tick finish
// before Run returns.
type Driver struct {
	engine   *Engine
	interval time.Duration
}

// NewDriver wires a driver around an engine, ticking at the engine's
// configured interval.
func NewDriver(e *Engine) *Driver {
	interval := e.cfg.TickInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Driver{engine: e, interval: interval}
}

// Run blocks, ticking until the context is cancelled or the engine
// reports a fatal state. Context cancellation is a clean stop.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("engine: tick loop started, interval %s", d.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("engine: tick loop stopped")
			return nil
		case <-ticker.C:
			if err := d.engine.RunTick(ctx); err != nil {
				if errors.Is(err, domain.ErrFatal) {
					return err
				}
				log.Printf("engine: tick failed: %v", err)
			}
		}
	}
}
