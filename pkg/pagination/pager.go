package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PageSizeCeiling is the maximum number of items the explorer returns for a
// single list request.
const PageSizeCeiling = 1000

// ErrCursorRegression is returned when a page ends below the height it was
// requested from, which means the endpoint is not sorting ascending.
var ErrCursorRegression = errors.New("page ended below cursor")

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scan_pages_fetched_total",
	Help: "Total list pages fetched, by whether the page hit the size ceiling",
}, []string{"full"})

// PageFunc fetches one page of raw items with heights in [from, to], ascending.
type PageFunc[R any] func(ctx context.Context, from, to uint64) ([]R, error)

// HeightFunc extracts the block height of a raw item.
type HeightFunc[R any] func(item R) (uint64, error)

// ConvertFunc decodes a raw item and applies filters. keep is false for items
// that decoded fine but did not match.
type ConvertFunc[R, T any] func(ctx context.Context, item R) (rec T, keep bool, err error)

// Pager drives exhaustive pagination over one Range.
type Pager[R, T any] struct {
	Fetch   PageFunc[R]
	Height  HeightFunc[R]
	Convert ConvertFunc[R, T]

	// PageSize is the ceiling that marks a page as full. Zero means PageSizeCeiling.
	PageSize int
}

// pageState is the per-call state of one range walk. Each FetchRange call owns
// a fresh one.
type pageState[T any] struct {
	cursor      uint64
	end         uint64
	accumulated []T
	done        bool
	requests    int
}

// FetchRange pages through r until a short page is returned or the cursor
// passes r.End, and returns the kept records in fetch order.
func (p *Pager[R, T]) FetchRange(ctx context.Context, r Range) ([]T, error) {
	if p.Fetch == nil || p.Height == nil || p.Convert == nil {
		return nil, fmt.Errorf("pager is missing fetch, height or convert func")
	}

	st := &pageState[T]{
		cursor: r.Start,
		end:    r.End,
		done:   r.IsEmpty(),
	}

	for !st.done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.step(ctx, st); err != nil {
			return nil, err
		}
	}

	logger := logging.NewLogger(logging.ComponentPagination)
	logger.Debug().
		Str("range", r.String()).
		Int("requests", st.requests).
		Int("records", len(st.accumulated)).
		Msg("Range exhausted")

	return st.accumulated, nil
}

// step issues one request at the current cursor and advances the state.
func (p *Pager[R, T]) step(ctx context.Context, st *pageState[T]) error {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = PageSizeCeiling
	}

	page, err := p.Fetch(ctx, st.cursor, st.end)
	if err != nil {
		return fmt.Errorf("fetch page [%d,%d]: %w", st.cursor, st.end, err)
	}
	st.requests++

	if len(page) < pageSize {
		pagesFetchedTotal.WithLabelValues("false").Inc()
		if err := p.appendConverted(ctx, st, page); err != nil {
			return err
		}
		st.done = true
		return nil
	}
	pagesFetchedTotal.WithLabelValues("true").Inc()

	// The cursor always moves from the last raw item, whatever the filters kept.
	last, err := p.Height(page[len(page)-1])
	if err != nil {
		return fmt.Errorf("height of last item on page [%d,%d]: %w", st.cursor, st.end, err)
	}

	switch {
	case last < st.cursor:
		return fmt.Errorf("%w: cursor %d, last item height %d", ErrCursorRegression, st.cursor, last)

	case last == st.cursor:
		// One block filled the whole page. The window cannot be narrowed further,
		// so keep what was returned and move past the block.
		logger := logging.NewLogger(logging.ComponentPagination)
		logger.Warn().
			Uint64("block", last).
			Int("page_size", pageSize).
			Msg("Block holds a full page of items, remaining items in this block are not retrievable")
		if err := p.appendConverted(ctx, st, page); err != nil {
			return err
		}
		st.cursor = last + 1

	default:
		// Items at the last height are fetched again by the next request in full,
		// so only the items strictly below it are kept from this page.
		cut := len(page)
		for cut > 0 {
			h, err := p.Height(page[cut-1])
			if err != nil {
				return fmt.Errorf("height of item %d: %w", cut-1, err)
			}
			if h < last {
				break
			}
			cut--
		}
		if err := p.appendConverted(ctx, st, page[:cut]); err != nil {
			return err
		}
		st.cursor = last
	}

	if st.cursor > st.end {
		st.done = true
	}
	return nil
}

func (p *Pager[R, T]) appendConverted(ctx context.Context, st *pageState[T], items []R) error {
	for i, item := range items {
		rec, keep, err := p.Convert(ctx, item)
		if err != nil {
			return fmt.Errorf("convert item %d at cursor %d: %w", i, st.cursor, err)
		}
		if keep {
			st.accumulated = append(st.accumulated, rec)
		}
	}
	return nil
}
