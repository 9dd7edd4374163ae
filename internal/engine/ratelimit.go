package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Delayer pauses between detail page visits for a random duration drawn
// uniformly from [Min, Max].
type Delayer struct {
	Min time.Duration
	Max time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
}

// NewDelayer creates a Delayer. Bounds are swapped if given out of order.
func NewDelayer(min, max time.Duration, logger *slog.Logger) *Delayer {
	if max < min {
		min, max = max, min
	}
	return &Delayer{
		Min:    min,
		Max:    max,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.With("component", "delayer"),
	}
}

// Next draws the next delay without sleeping.
func (d *Delayer) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Min + time.Duration(d.rng.Int63n(int64(d.Max-d.Min)+1))
}

// Wait sleeps for the next drawn delay or until ctx is done. It returns the
// drawn delay and ctx.Err() if the sleep was interrupted.
func (d *Delayer) Wait(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	delay := d.Next()
	d.logger.Info("sleep started", "seconds", delay.Seconds())

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.logger.Info("sleep interrupted")
		return delay, ctx.Err()
	case <-timer.C:
		d.logger.Info("sleep finished")
		return delay, nil
	}
}
