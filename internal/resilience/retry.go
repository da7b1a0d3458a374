// Package resilience retries calls to the external venue sources (Overpass,
// Nominatim) with exponential backoff.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Backoff describes how long to wait between attempts.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is a fraction of the computed delay, applied in both directions.
	Jitter float64
}

// Delay returns the wait before retry number attempt (zero-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	d = math.Min(d, float64(b.Max))
	if b.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * b.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

// Policy controls Do and DoVal.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	Backoff  Backoff
	// Retryable decides whether an error is worth another attempt.
	// IsTransient is used when nil.
	Retryable func(error) bool
	// Name labels retry log lines.
	Name string
}

// DefaultPolicy suits the public OpenStreetMap endpoints, which throttle
// aggressively and recover within tens of seconds.
func DefaultPolicy(name string) Policy {
	return Policy{
		Attempts: 4,
		Backoff: Backoff{
			Initial:    2 * time.Second,
			Max:        60 * time.Second,
			Multiplier: 2,
			Jitter:     0.2,
		},
		Name: name,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff.Initial <= 0 {
		p.Backoff.Initial = 500 * time.Millisecond
	}
	if p.Backoff.Max < p.Backoff.Initial {
		p.Backoff.Max = p.Backoff.Initial
	}
	if p.Backoff.Multiplier < 1 {
		p.Backoff.Multiplier = 2
	}
	if p.Backoff.Jitter < 0 {
		p.Backoff.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx ends. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for calls that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt+1 >= p.Attempts {
			return zero, err
		}

		delay := p.Backoff.Delay(attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("call", p.Name),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}
