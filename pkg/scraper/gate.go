package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/metrics"
)

const (
	// cvSendInterval is the minimum spacing between gated CV submissions.
	cvSendInterval = 4 * time.Second
	// aliveCheckInterval is how long a confirmed active status is trusted.
	aliveCheckInterval = 60 * time.Second
	// inactiveWait is the pause between status polls while the scraper is inactive.
	inactiveWait = 5 * time.Minute
)

// Alive blocks until RT-CV confirms this scraper may run. A confirmation is
// reused for a minute. While RT-CV reports the scraper inactive, or cannot be
// reached, the status is polled every five minutes. Only a cancelled ctx
// makes Alive return an error.
func (s *Server) Alive(ctx context.Context) error {
	if s.skipAliveCheck || s.isAlternative {
		return nil
	}

	s.mu.Lock()
	last := s.lastAliveCheck
	s.mu.Unlock()
	if !last.IsZero() && s.clock.Now().Sub(last) < aliveCheckInterval {
		return nil
	}

	logger := s.logger.Named("gate")
	for {
		var status struct {
			Active bool `json:"active"`
		}
		err := s.FetchWithRetry(ctx, "/api/v1/scraper/status", FetchOptions{}, &status)
		switch {
		case err == nil && status.Active:
			s.mu.Lock()
			s.lastAliveCheck = s.clock.Now()
			s.mu.Unlock()
			metrics.ObserveAliveCheck("active")
			return nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			metrics.ObserveAliveCheck("error")
			logger.Warn("failed to check scraper status, waiting 5 minutes", zap.Error(err))
		default:
			metrics.ObserveAliveCheck("inactive")
			logger.Info("scraper is not active, waiting 5 minutes")
		}

		if err := s.clock.Sleep(ctx, inactiveWait); err != nil {
			return err
		}
	}
}

// throttle waits the full send interval when the last CV went out less than
// that interval ago.
func (s *Server) throttle(ctx context.Context) error {
	last, sent := s.LastSentCV()
	if !sent || s.clock.Now().Sub(last) >= cvSendInterval {
		return nil
	}
	metrics.ObserveThrottleDelay()
	return s.clock.Sleep(ctx, cvSendInterval)
}
