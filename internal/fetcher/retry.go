package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/comp-scout/internal/logger"
)

// RetryOptions configures Retrying.
type RetryOptions struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// BaseDelay is the wait before the second try; each later wait doubles.
	BaseDelay time.Duration
	Metrics   *logger.Metrics
}

// Retrying retries failed fetches with exponential backoff. Client errors
// other than 429 are not retried, nor is anything after ctx is done.
type Retrying struct {
	next Fetcher
	opts RetryOptions
}

// WithRetry wraps next.
func WithRetry(next Fetcher, opts RetryOptions) *Retrying {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}
	return &Retrying{next: next, opts: opts}
}

func (r *Retrying) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 8 * r.opts.BaseDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.opts.Attempts-1)), ctx)
}

// Fetch implements Fetcher.
func (r *Retrying) Fetch(ctx context.Context, req Request) (string, error) {
	var body string
	attempt := 0

	operation := func() error {
		attempt++
		start := time.Now()
		html, err := r.next.Fetch(ctx, req)
		r.opts.Metrics.RecordTiming("fetch.duration", time.Since(start))
		if err != nil {
			if ctx.Err() != nil || !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = html
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.opts.Metrics.IncrCounter("fetch.retry")
		logger.Warn("Fetch attempt failed, retrying", logger.Fields{
			"url":     req.URL,
			"site":    string(req.Site),
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	if err := backoff.RetryNotify(operation, r.newBackOff(ctx), notify); err != nil {
		r.opts.Metrics.IncrCounter("fetch.error")
		return "", AsFetchError(req, err)
	}

	r.opts.Metrics.IncrCounter("fetch.ok")
	return body, nil
}

func retryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == ErrStatus {
		return fe.StatusCode == http.StatusTooManyRequests || fe.StatusCode >= http.StatusInternalServerError
	}
	return true
}
