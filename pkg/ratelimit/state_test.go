package ratelimit

import (
	"testing"
	"time"
)

func TestWindow_Remaining(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		limit     int
		want      int
		exhausted bool
	}{
		{
			name:  "empty window",
			count: 0,
			limit: 5,
			want:  5,
		},
		{
			name:  "partially used",
			count: 3,
			limit: 5,
			want:  2,
		},
		{
			name:      "at limit",
			count:     5,
			limit:     5,
			want:      0,
			exhausted: true,
		},
		{
			name:      "over limit in shared window",
			count:     9,
			limit:     5,
			want:      0,
			exhausted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Window{Count: tt.count, Limit: tt.limit}
			if got := w.Remaining(); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
			if got := w.Exhausted(); got != tt.exhausted {
				t.Errorf("Exhausted() = %v, want %v", got, tt.exhausted)
			}
		})
	}
}

func TestWindow_TimeUntilReset(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "start of window",
			now:  start,
			want: time.Second,
		},
		{
			name: "mid window",
			now:  start.Add(400 * time.Millisecond),
			want: 600 * time.Millisecond,
		},
		{
			name: "past window",
			now:  start.Add(3 * time.Second),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Window{Start: start, Limit: 5}
			if got := w.TimeUntilReset(tt.now); got != tt.want {
				t.Errorf("TimeUntilReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	w := Window{Start: start}

	if !w.Contains(start.Add(999 * time.Millisecond)) {
		t.Error("Contains() = false for time inside the window")
	}
	if w.Contains(start.Add(time.Second)) {
		t.Error("Contains() = true for start of next window")
	}
}

func TestWindowKey(t *testing.T) {
	got := windowKey(time.Unix(1_700_000_000, 0))
	want := "scan:rate_limit:window:1700000000"
	if got != want {
		t.Errorf("windowKey() = %q, want %q", got, want)
	}
}
