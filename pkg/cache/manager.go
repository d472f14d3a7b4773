package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when no live entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned for a key that does not hold a cache entry.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Hash fields of a stored entry. The key's own expiry carries Expires.
const (
	fieldData     = "data"
	fieldCachedAt = "cached_at"
)

// Manager stores CacheEntry values as Redis hashes that expire with the entry.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a cache manager. It panics on a nil client.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the live entry for key, or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	k := key.String()

	var fields *redis.MapStringStringCmd
	var pttl *redis.DurationCmd
	_, err := m.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		if isWrongType(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEntry, k)
		}
		return nil, fmt.Errorf("redis get %s: %w", k, err)
	}

	values := fields.Val()
	if len(values) == 0 || pttl.Val() <= 0 {
		cacheMisses.WithLabelValues(key.Module).Inc()
		return nil, ErrCacheMiss
	}

	data, ok := values[fieldData]
	if !ok {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %s has no %s field", ErrInvalidEntry, k, fieldData)
	}
	cachedAt, err := strconv.ParseInt(values[fieldCachedAt], 10, 64)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, fieldCachedAt, err)
	}

	cacheHits.WithLabelValues(key.Module).Inc()
	return &CacheEntry{
		Data:     []byte(data),
		Expires:  time.Now().Add(pttl.Val()),
		CachedAt: time.UnixMilli(cachedAt),
	}, nil
}

// Set stores entry until entry.Expires. Entries that are already stale are
// not written.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.Stale(time.Now()) {
		return nil
	}

	k := key.String()
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			fieldData, []byte(entry.Data),
			fieldCachedAt, entry.CachedAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, entry.Expires)
		return nil
	})
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Delete removes the entry for key.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// isWrongType reports a key written by something other than Set.
func isWrongType(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.HasPrefix(rerr.Error(), "WRONGTYPE")
}
