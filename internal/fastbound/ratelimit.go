package fastbound

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the optimistic assumption before the first
	// response reports the real window size.
	DefaultRateLimit = 60

	// DefaultRateMargin is how many requests we leave unspent in the
	// window. The quota is shared per account, so burning it to zero
	// starves any other integration running against the same account.
	DefaultRateMargin = 5

	// pacerRate bounds request frequency between header updates, so a
	// burst of cheap calls cannot outrun the server's counters.
	pacerRate = 10 // requests per second
)

// RateLimiter tracks the account's remaining request quota from the
// X-RateLimit-* response headers and decides when to pause. Server-reported
// state always overwrites local bookkeeping.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	remaining int
	reset     time.Time
	margin    int

	pacer  *rate.Limiter
	logger *zap.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter that pauses when fewer than margin
// requests remain in the current window.
func NewRateLimiter(margin int, logger *zap.Logger) *RateLimiter {
	if margin <= 0 {
		margin = DefaultRateMargin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		limit:     DefaultRateLimit,
		remaining: DefaultRateLimit,
		margin:    margin,
		pacer:     rate.NewLimiter(rate.Limit(pacerRate), 1),
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// ShouldWait reports whether the next request would dip into the safety
// margin.
func (r *RateLimiter) ShouldWait() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining < r.margin
}

// Remaining returns the last known remaining quota.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// RecordHeaders updates local state from a response's rate-limit headers.
// Responses without the headers (proxies, error pages) leave state alone.
func (r *RateLimiter) RecordHeaders(h http.Header) {
	limit, okLimit := headerInt(h, "X-RateLimit-Limit")
	remaining, okRemaining := headerInt(h, "X-RateLimit-Remaining")
	resetEpoch, okReset := headerInt(h, "X-RateLimit-Reset")

	r.mu.Lock()
	defer r.mu.Unlock()
	if okLimit {
		r.limit = limit
	}
	if okRemaining {
		r.remaining = remaining
	}
	if okReset {
		r.reset = time.Unix(int64(resetEpoch), 0)
	}
}

// WaitIfNeeded paces the request and, when the remaining quota is under the
// margin, sleeps until one second past the window reset. The real remaining
// count is unknown until the next response, so it is optimistically reset
// to the full limit.
func (r *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	if err := r.pacer.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if r.remaining >= r.margin {
		r.mu.Unlock()
		return nil
	}
	wait := r.reset.Sub(r.now()) + time.Second
	limit := r.limit
	remaining := r.remaining
	r.mu.Unlock()

	if wait > 0 {
		r.logger.Info("rate limit low, pausing until window reset",
			zap.Int("remaining", remaining),
			zap.Duration("wait", wait),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.remaining = limit
	r.mu.Unlock()
	return nil
}

// BlockUntilReset sleeps until one second past the window reset regardless
// of cached state. A 429 is authoritative: whatever we thought remained,
// the server says zero.
func (r *RateLimiter) BlockUntilReset(ctx context.Context) error {
	r.mu.Lock()
	r.remaining = 0
	wait := r.reset.Sub(r.now()) + time.Second
	limit := r.limit
	r.mu.Unlock()

	if wait <= 0 {
		wait = time.Second
	}
	r.logger.Warn("throttled by server, blocking until window reset",
		zap.Duration("wait", wait),
	)
	if err := r.sleep(ctx, wait); err != nil {
		return err
	}

	r.mu.Lock()
	r.remaining = limit
	r.mu.Unlock()
	return nil
}

func headerInt(h http.Header, name string) (int, bool) {
	v := h.Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
