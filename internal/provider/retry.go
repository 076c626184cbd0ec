package provider

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy configures exponential backoff between attempts.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // fraction of the delay, 0 disables
}

// DefaultPolicy mirrors the default retry settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// NextDelay returns the wait before attempt+1, where attempt is zero-based.
func (p Policy) NextDelay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	delay := float64(p.InitialDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Retrier runs an operation until it succeeds, fails permanently, or runs out
// of attempts.
type Retrier struct {
	Policy    Policy
	Retryable func(error) bool
	OnRetry   func(attempt int, err error, delay time.Duration)

	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
}

// NewRetrier creates a Retrier. A nil retryable treats every error as transient.
func NewRetrier(policy Policy, retryable func(error) bool) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &Retrier{
		Policy:    policy,
		Retryable: retryable,
		sleep:     sleepContext,
		rand:      rand.Float64,
	}
}

// Outcome describes how a retried operation ended.
type Outcome struct {
	Attempts  int
	Transient bool // last error was retryable
}

// Do executes op with retries. On failure it returns the last error together
// with the attempt count and whether that error was transient.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context, attempt int) (T, error)) (T, Outcome, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.Policy.MaxAttempts; attempt++ {
		result, err := op(ctx, attempt+1)
		if err == nil {
			return result, Outcome{Attempts: attempt + 1}, nil
		}
		lastErr = err

		if !r.Retryable(err) {
			return zero, Outcome{Attempts: attempt + 1}, err
		}
		if attempt == r.Policy.MaxAttempts-1 {
			break
		}

		delay := r.applyJitter(r.Policy.NextDelay(attempt))
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, err, delay)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return zero, Outcome{Attempts: attempt + 1}, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return zero, Outcome{Attempts: r.Policy.MaxAttempts, Transient: true}, lastErr
}

func (r *Retrier) applyJitter(delay time.Duration) time.Duration {
	if r.Policy.Jitter <= 0 {
		return delay
	}
	jitter := float64(delay) * r.Policy.Jitter
	final := float64(delay) + (r.rand()-0.5)*2*jitter
	if final < 0 {
		return 0
	}
	return time.Duration(final)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
