package cache

import (
	"encoding/json"
	"time"
)

// CacheEntry is a cached explorer result.
type CacheEntry struct {
	// Data is the raw result member of the response.
	Data json.RawMessage

	// Expires is when the entry becomes stale. Derived from the key's TTL on read.
	Expires time.Time

	// CachedAt is when the result was fetched.
	CachedAt time.Time
}

// NewEntry wraps a result fetched now that may be reused for ttl.
func NewEntry(data json.RawMessage, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// Stale reports whether the entry has expired at now.
func (e *CacheEntry) Stale(now time.Time) bool {
	return !now.Before(e.Expires)
}

// TTL returns the time until expiration, or 0 once expired.
func (e *CacheEntry) TTL() time.Duration {
	return max(time.Until(e.Expires), 0)
}

// Age returns how long ago the result was fetched.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
