package sweeper

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"swiftdrop/internal/logx"
)

type expirer interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically drives stale pending rides into expired.
type Sweeper struct {
	svc      expirer
	interval time.Duration
	logger   logx.Logger
	expired  prometheus.Counter
}

// New creates a Sweeper. The counter may be nil.
func New(svc expirer, interval time.Duration, logger logx.Logger, expired prometheus.Counter) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger, expired: expired}
}

// Run loops until ctx is cancelled. A failed sweep is logged and retried on
// the next tick; rides stay pending at worst one interval longer.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.svc.SweepExpired(ctx)
			if err != nil {
				s.logger.Error("sweep failed", logx.Err(err))
				continue
			}
			if n > 0 && s.expired != nil {
				s.expired.Add(float64(n))
			}
		}
	}
}
