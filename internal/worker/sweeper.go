// Package worker runs background maintenance for the queue.
package worker

import (
	"context"
	"time"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/logger"
)

// Expirer moves overdue PENDING swap requests to EXPIRED.
type Expirer interface {
	ExpireDue(ctx context.Context, now clock.Snapshot) (int64, error)
}

type Sweeper struct {
	expirer  Expirer
	clock    clock.Clock
	loc      *time.Location
	interval time.Duration
}

func NewSweeper(expirer Expirer, c clock.Clock, loc *time.Location, interval time.Duration) *Sweeper {
	return &Sweeper{expirer: expirer, clock: c, loc: loc, interval: interval}
}

// SweepOnce runs one expiry pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.expirer.ExpireDue(ctx, clock.Snap(s.clock, s.loc))
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Logger.WithField("interval", s.interval).Info("[sweeper] started")

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("[sweeper] stopped")
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				logger.Logger.WithError(err).Error("[sweeper] expire swap gagal")
				continue
			}
			if n > 0 {
				logger.Logger.WithField("expired", n).Info("[sweeper] swap requests expired")
			}
		}
	}
}
