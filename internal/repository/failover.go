package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"butterfly/internal/domain"

	"github.com/rs/zerolog"
)

const failoverRecheck = time.Minute

// FailoverLimiter uses primary until it errors, then serves from fallback
// and retries primary once per recheck interval.
type FailoverLimiter struct {
	primary  domain.SubmissionLimiter
	fallback domain.SubmissionLimiter
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverLimiter(primary, fallback domain.SubmissionLimiter, logger *zerolog.Logger) *FailoverLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverLimiter) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary submission limiter failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverLimiter) shouldRecheck() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) > failoverRecheck {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	} else if r.shouldRecheck() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary submission limiter recovered")
			return allowed, nil
		}
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

// Degraded reports whether the fallback is currently serving.
func (r *FailoverLimiter) Degraded() bool {
	return r.isDown.Load()
}
