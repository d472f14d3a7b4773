// Package ratelimit gates explorer requests to a fixed number per second.
// The window is shared through Redis when a client is configured, so several
// processes using the same API key stay under the explorer's limit together.
package ratelimit

import (
	"strconv"
	"time"
)

// RedisKeyWindowPrefix prefixes the per-second counters stored in Redis.
const RedisKeyWindowPrefix = "scan:rate_limit:window:"

// WindowLength is the length of one rate window.
const WindowLength = time.Second

// windowTTL keeps a counter around a little longer than its window so late
// INCRs from slow clocks still land on a live key.
const windowTTL = 2 * WindowLength

// Window is the state of the current one-second rate window.
type Window struct {
	// Start is the beginning of the window, truncated to the second.
	Start time.Time `json:"start"`

	// Count is the number of requests admitted in this window.
	Count int `json:"count"`

	// Limit is the number of requests allowed per window.
	Limit int `json:"limit"`
}

// Remaining returns how many more requests this window admits.
func (w Window) Remaining() int {
	if w.Count >= w.Limit {
		return 0
	}
	return w.Limit - w.Count
}

// Exhausted returns true if no more requests are admitted in this window.
func (w Window) Exhausted() bool {
	return w.Remaining() == 0
}

// TimeUntilReset returns the duration until the next window opens.
// Returns 0 if now is already past the window.
func (w Window) TimeUntilReset(now time.Time) time.Duration {
	d := w.Start.Add(WindowLength).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Contains reports whether now falls inside the window.
func (w Window) Contains(now time.Time) bool {
	return w.Start.Equal(windowStart(now))
}

func windowStart(now time.Time) time.Time {
	return now.Truncate(WindowLength)
}

func windowKey(start time.Time) string {
	return RedisKeyWindowPrefix + strconv.FormatInt(start.Unix(), 10)
}
