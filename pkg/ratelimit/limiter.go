// Package ratelimit implements the pacing gate used between batched BLS
// requests. The BLS public API documents a per-day query ceiling and asks
// clients not to hammer the endpoint; a fixed inter-batch delay is enough
// for a sequential one-shot run.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pacing.
var (
	blsRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bls_rate_limit_waits_total",
		Help: "Total number of inter-batch pacing waits",
	})

	blsRateLimitWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bls_rate_limit_wait_seconds_total",
		Help: "Total time spent waiting on the pacing gate, in seconds",
	})
)

// DefaultInterval is the documented-safe pause between batched calls.
const DefaultInterval = 1 * time.Second

// Gate paces consecutive requests. Implementations must honor context
// cancellation while waiting.
type Gate interface {
	// Wait blocks until the next request may be issued.
	Wait(ctx context.Context) error
}

// FixedDelay is a Gate that enforces a fixed pause between consecutive
// waits. The first Wait returns immediately; every subsequent Wait blocks
// until Interval has elapsed since the previous one.
type FixedDelay struct {
	interval time.Duration
	logger   zerolog.Logger
	last     time.Time
}

// NewFixedDelay creates a fixed-delay gate. A non-positive interval falls
// back to DefaultInterval.
func NewFixedDelay(interval time.Duration, logger zerolog.Logger) *FixedDelay {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &FixedDelay{
		interval: interval,
		logger:   logger,
	}
}

// Wait blocks until the configured interval has elapsed since the previous
// call. Returns the context error if cancelled while waiting.
func (g *FixedDelay) Wait(ctx context.Context) error {
	if g.last.IsZero() {
		g.last = time.Now()
		return nil
	}

	remaining := g.interval - time.Since(g.last)
	if remaining > 0 {
		blsRateLimitWaitsTotal.Inc()
		blsRateLimitWaitSeconds.Add(remaining.Seconds())

		g.logger.Debug().
			Dur("wait", remaining).
			Msg("Pacing next batch request")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
		}
	}

	g.last = time.Now()
	return nil
}

// Nop is a Gate that never waits. Used in tests to keep batched fetches fast.
type Nop struct{}

// Wait returns immediately.
func (Nop) Wait(ctx context.Context) error {
	return ctx.Err()
}
