package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ExpirySweeper interface {
	SweepExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// Sweeper periodically fails orders that stayed pending past maxAge.
type Sweeper struct {
	svc      ExpirySweeper
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
}

func NewSweeper(svc ExpirySweeper, interval, maxAge time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, maxAge: maxAge, logger: logger}
}

// Run blocks until ctx is done. A non-positive interval disables sweeping.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Debug("sweeper disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.logger.Debug("Finished sweeper")
			return nil
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.SweepExpired(ctx, s.maxAge)
	if err != nil {
		// retried on the next tick
		s.logger.Error("sweep failed", zap.Int("swept", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("expired pending orders", zap.Int("swept", n))
	}
}
