package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_rate_limit_waits_total",
		Help: "Total number of times a request waited for the next rate window",
	})

	rateLimitFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_rate_limit_fallbacks_total",
		Help: "Total number of Redis failures answered by the in-process window",
	})
)

// Tracker admits at most limit requests per second and makes the rest wait.
type Tracker struct {
	redis  *redis.Client
	limit  int
	logger zerolog.Logger

	mu    sync.Mutex
	local Window

	now func() time.Time
}

// NewTracker creates a new rate limit tracker. redisClient may be nil, in
// which case the window is kept in process.
func NewTracker(redisClient *redis.Client, limit int, logger zerolog.Logger) *Tracker {
	if limit < 1 {
		limit = 1
	}
	return &Tracker{
		redis:  redisClient,
		limit:  limit,
		logger: logger,
		local:  Window{Limit: limit},
		now:    time.Now,
	}
}

// Limit returns the number of requests admitted per second.
func (t *Tracker) Limit() int {
	return t.limit
}

// Wait blocks until the current window admits one more request or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := t.acquire(ctx)
		if ok {
			return nil
		}

		rateLimitWaitsTotal.Inc()
		t.logger.Debug().
			Dur("wait", wait).
			Int("limit", t.limit).
			Msg("Rate window exhausted, waiting")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// acquire takes one slot of the current window. When the window is full it
// returns how long until the next one.
func (t *Tracker) acquire(ctx context.Context) (time.Duration, bool) {
	now := t.now()
	if t.redis != nil {
		w, err := t.incrRedis(ctx, now)
		if err == nil {
			if w.Count <= w.Limit {
				return 0, true
			}
			return w.TimeUntilReset(now), false
		}
		rateLimitFallbacksTotal.Inc()
		t.logger.Warn().Err(err).Msg("Redis rate window unavailable, using in-process window")
	}
	return t.incrLocal(now)
}

func (t *Tracker) incrLocal(now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.local.Contains(now) {
		t.local = Window{Start: windowStart(now), Limit: t.limit}
	}
	if t.local.Exhausted() {
		return t.local.TimeUntilReset(now), false
	}
	t.local.Count++
	return 0, true
}

// incrRedis counts one request against the shared window. The counter may
// exceed the limit; callers over the limit wait and try the next window.
func (t *Tracker) incrRedis(ctx context.Context, now time.Time) (Window, error) {
	start := windowStart(now)
	key := windowKey(start)

	pipe := t.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, windowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return Window{}, fmt.Errorf("incr rate window: %w", err)
	}

	return Window{Start: start, Count: int(incr.Val()), Limit: t.limit}, nil
}

// State returns the current window without consuming a slot.
func (t *Tracker) State(ctx context.Context) (Window, error) {
	now := t.now()
	start := windowStart(now)

	if t.redis != nil {
		count, err := t.redis.Get(ctx, windowKey(start)).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Window{}, fmt.Errorf("get rate window: %w", err)
		}
		return Window{Start: start, Count: count, Limit: t.limit}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.local.Contains(now) {
		return Window{Start: start, Limit: t.limit}, nil
	}
	return t.local, nil
}
