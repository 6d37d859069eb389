// Package retry runs an operation with exponential backoff. Whether a failure
// is worth another attempt is decided by a caller-supplied classifier, so the
// same policy wraps search calls and LLM calls alike.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Classifier reports whether err is transient.
type Classifier func(err error) bool

// Policy configures retries. MaxRetries counts additional attempts after the
// first one, so MaxRetries=2 means at most three calls.
type Policy struct {
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// Jitter spreads each delay by +/- the given fraction (0 disables).
	Jitter float64
	// Retryable decides whether a failed attempt is retried. Nil retries nothing.
	Retryable Classifier

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Result describes how an operation finished.
type Result struct {
	// Attempts is the number of calls made, including the first.
	Attempts int
	// Err is the last error, nil on success.
	Err error
}

// Do calls fn until it succeeds, fails permanently, retries are exhausted or
// ctx is done. Each call receives the zero-based attempt number.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, Result) {
	var zero T
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var res Result
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		v, err := fn(ctx, attempt)
		res.Attempts = attempt + 1
		res.Err = err
		if err == nil {
			return v, res
		}
		if attempt == p.MaxRetries || p.Retryable == nil || !p.Retryable(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
			break
		}
	}
	return zero, res
}

// Backoff returns the delay before retry number attempt+1.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.MinBackoff
	if d <= 0 {
		return 0
	}
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			d = p.MaxBackoff
			break
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	if p.Jitter > 0 {
		spread := (rand.Float64()*2 - 1) * p.Jitter
		d = time.Duration(float64(d) * (1 + spread))
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
