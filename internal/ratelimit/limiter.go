// Package ratelimit throttles API calls made by the client.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/logging"
)

// RateLimiter is a token bucket shared by every request of one API client.
// A nil *RateLimiter never waits.
type RateLimiter struct {
	limiter      *rate.Limiter
	logger       *logging.Logger
	mu           sync.Mutex
	lastWarnTime time.Time // Last time we warned user about rate limiting
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst.
// perSecond <= 0 disables limiting.
func NewRateLimiter(perSecond float64, burst int, logger *logging.Logger) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Wait blocks until a request may proceed or ctx is done.
// Waits longer than constants.RateLimitWarningThreshold are logged, at most
// once every 30 seconds.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited >= constants.RateLimitWarningThreshold {
		r.mu.Lock()
		if time.Since(r.lastWarnTime) >= 30*time.Second {
			r.lastWarnTime = time.Now()
			r.logger.Warn().Dur("waited", waited).Msg("Rate limited: requests are being delayed")
		}
		r.mu.Unlock()
	}
	return nil
}

// Limit returns the configured requests per second (rate.Inf when unlimited).
func (r *RateLimiter) Limit() rate.Limit {
	if r == nil {
		return rate.Inf
	}
	return r.limiter.Limit()
}
