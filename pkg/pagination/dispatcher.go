package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "scan_dispatch_duration_seconds",
	Help:    "Duration of partitioned fetches from dispatch to merge",
	Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
})

// RangeFunc fetches every record of one range. args is passed through as is.
type RangeFunc[T, A any] func(ctx context.Context, r Range, args A) ([]T, error)

// collector gathers per-range results. Each worker stores its whole slice in
// its own slot under mu.
type collector[T any] struct {
	mu    sync.Mutex
	slots [][]T
	count int
}

func (c *collector[T]) put(i int, records []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[i] = records
	c.count += len(records)
}

func (c *collector[T]) merge() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]T, 0, c.count)
	for _, s := range c.slots {
		merged = append(merged, s...)
	}
	return merged
}

// Dispatch runs fn for every range on its own goroutine and waits for all of
// them. Results are concatenated in range order. The first error cancels the
// context given to the remaining workers and is returned without any records.
func Dispatch[T, A any](ctx context.Context, fn RangeFunc[T, A], ranges []Range, args A) ([]T, error) {
	start := time.Now()
	logger := logging.NewLogger(logging.ComponentPagination)
	defer func() {
		dispatchDuration.Observe(time.Since(start).Seconds())
	}()

	logger.Info().
		Int("workers", len(ranges)).
		Msg("Starting partitioned fetch")

	col := &collector[T]{slots: make([][]T, len(ranges))}
	g, gctx := errgroup.WithContext(ctx)

	for i, r := range ranges {
		g.Go(func() error {
			if r.IsEmpty() {
				return nil
			}
			records, err := fn(gctx, r, args)
			if err != nil {
				logger.Warn().
					Err(err).
					Int("worker_id", i).
					Str("range", r.String()).
					Msg("Range fetch failed")
				return fmt.Errorf("range %s: %w", r, err)
			}
			col.put(i, records)
			logger.Debug().
				Int("worker_id", i).
				Str("range", r.String()).
				Int("records", len(records)).
				Msg("Worker completed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := col.merge()
	logger.Info().
		Int("workers", len(ranges)).
		Int("records", len(merged)).
		Dur("duration", time.Since(start)).
		Msg("Partitioned fetch complete")

	return merged, nil
}
