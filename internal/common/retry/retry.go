package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
)

const DefaultMaxRetries uint64 = 3

// DLQCallback receives the last error and the number of attempts made.
type DLQCallback func(lastErr error, attempts int) error

type Retryer interface {
	Retry(ctx context.Context, operation func() error, dlqCallback DLQCallback) error
	StopRetryWithErr(err error) error
}

type exponentialBackoff struct {
	ebCfg           config.ExponentialBackOffConfig
	initialInterval time.Duration
}

type Option func(*exponentialBackoff)

// WithInitialInterval overrides the first wait, mostly for tests.
func WithInitialInterval(d time.Duration) Option {
	return func(eb *exponentialBackoff) { eb.initialInterval = d }
}

/*
NewExponentialBackOff will init Retryer interface.
This retryer implement exponential backoff mechanism.

Example:

Retry(ctx, func() error { return reconcile() }, func(err error, n int) error { return parkOnDLQ(err, n) })
*/
func NewExponentialBackOff(ebCfg config.ExponentialBackOffConfig, opts ...Option) Retryer {
	if ebCfg.MaxBackoffTime < 0 {
		ebCfg.MaxBackoffTime = backoff.DefaultMaxElapsedTime
	}

	if ebCfg.BackoffMultiplier <= 0 {
		ebCfg.BackoffMultiplier = backoff.DefaultMultiplier
	}

	if ebCfg.MaxRetries <= 0 {
		ebCfg.MaxRetries = DefaultMaxRetries
	}

	eb := &exponentialBackoff{ebCfg: ebCfg, initialInterval: backoff.DefaultInitialInterval}
	for _, opt := range opts {
		opt(eb)
	}
	return eb
}

/*
Retry runs operation until it succeeds, returns a permanent error or the
attempts are used up. In the last two cases dlqCallback is called and its
error is returned.
*/
func (r *exponentialBackoff) Retry(ctx context.Context, operation func() error, dlqCallback DLQCallback) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initialInterval
	eb.MaxElapsedTime = r.ebCfg.MaxBackoffTime
	eb.Multiplier = r.ebCfg.BackoffMultiplier

	attempts := 0
	counted := func() error {
		attempts++
		return operation()
	}

	err := backoff.Retry(counted, backoff.WithContext(backoff.WithMaxRetries(eb, r.ebCfg.MaxRetries), ctx))
	if err != nil {
		xlog.Warn(ctx, "[RETRY] giving up",
			xlog.Int("attempts", attempts),
			xlog.Err(err))
		return dlqCallback(err, attempts)
	}

	return nil
}

// StopRetryWithErr will stop retrying and return the error.
// This function should be called inside "operation" func.
func (r *exponentialBackoff) StopRetryWithErr(err error) error {
	return backoff.Permanent(err)
}
