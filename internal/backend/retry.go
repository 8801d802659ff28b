package backend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/metrics"
)

// LinearRetryPolicy retries transient failures with a wait that grows by a
// fixed step per retry: step, 2*step, 3*step, ...
type LinearRetryPolicy struct {
	maxRetries int
	step       time.Duration
}

// NewLinearRetryPolicy builds the RT-CV default: 3 retries, waiting 3s, 6s and 9s.
func NewLinearRetryPolicy() *LinearRetryPolicy {
	return &LinearRetryPolicy{
		maxRetries: 3,
		step:       3 * time.Second,
	}
}

// ShouldRetry decides whether another attempt is allowed after err, given the
// number of retries already made.
func (p *LinearRetryPolicy) ShouldRetry(err error, retries int) bool {
	if err == nil {
		return false
	}
	if retries >= p.maxRetries {
		return false
	}
	return !IsPermanent(err)
}

// Backoff returns the wait before the given retry (1-based).
func (p *LinearRetryPolicy) Backoff(retry int) time.Duration {
	return time.Duration(retry) * p.step
}

// CallWithRetry behaves like Call but retries transient failures following
// the client's retry policy. Permanent backend errors are returned at once.
func (c *Client) CallWithRetry(ctx context.Context, path string, req Request, out any) error {
	retries := 0
	for {
		err := c.Call(ctx, path, req, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !c.retry.ShouldRetry(err, retries) {
			return err
		}

		retries++
		wait := c.retry.Backoff(retries)
		c.logger.Warn("rtcv call failed, retrying",
			zap.String("path", path),
			zap.Int("retry", retries),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		metrics.ObserveRetry(c.backend)
		if sleepErr := c.clock.Sleep(ctx, wait); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
}
