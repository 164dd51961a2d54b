package transfer

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer sleeps for a random duration in [min, max] before each request.
type Pacer struct {
	min, max time.Duration
	jitter   func(n int64) int64
}

// NewPacer builds a pacer; max below min is raised to min.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, jitter: rand.Int64N}
}

// Next returns the delay for the next request.
func (p *Pacer) Next() time.Duration {
	if p == nil {
		return 0
	}
	span := int64(p.max - p.min)
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.jitter(span+1))
}

// Wait blocks for the next delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
