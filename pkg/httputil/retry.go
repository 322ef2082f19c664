package httputil

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

const (
	// MaxDelay caps the wait between two attempts, including server hints.
	MaxDelay = 30 * time.Second

	// jitter is the fraction of each delay that is randomized.
	jitter = 0.1
)

// RetryableError marks a transient failure such as a 5xx response, a rate
// limit or a dropped connection. After carries the server's Retry-After
// hint when one was sent.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times. Only errors wrapping [RetryableError]
// are retried; any other error is returned at once. The delay doubles after
// every failure, never drops below a Retry-After hint and never exceeds
// [MaxDelay]. A cancelled ctx ends the wait with ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)

	var err error
	for i := range attempts {
		if err = fn(); err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := min(max(withJitter(delay), re.After), MaxDelay)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}

// withJitter spreads d by up to ±10%.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) * jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
