package controller

import (
	"context"
	"time"
)

// TickObserver is told how each periodic refresh went.
type TickObserver interface {
	RecordSuccess()
	RecordFailure(err error)
}

// Run emits a PeriodicTick every interval until ctx is cancelled. Ticks are
// handled on this goroutine, so a tick never starts before the previous one
// finished; ticks that fall due meanwhile are dropped by the ticker.
func (c *Controller) Run(ctx context.Context, interval time.Duration, observer TickObserver) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info().Dur("interval", interval).Msg("dashboard refresh ticker started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("stopping dashboard refresh ticker")
			return
		case <-ticker.C:
			err := c.Refresh(ctx)
			if observer == nil {
				continue
			}
			if err != nil {
				observer.RecordFailure(err)
			} else {
				observer.RecordSuccess()
			}
		}
	}
}
