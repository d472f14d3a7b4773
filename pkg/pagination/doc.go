// Package pagination implements range-partitioned, paginated retrieval for
// explorer endpoints that cap every response at a fixed number of items.
//
// Explorer list endpoints (account/txlist, logs/getLogs) accept a block window
// and return at most PageSizeCeiling items in ascending height order. A full
// page means the window may hold more data, so the Pager re-queries from the
// height of the last raw item until a short page proves the window is drained.
//
// Example usage:
//
//	ranges, err := pagination.Partition(from, to, threads)
//	if err != nil {
//		return nil, err
//	}
//	records, err := pagination.Dispatch(ctx, fetchRange, ranges, args)
//
// The dispatcher:
//   - Runs one goroutine per range, created for this call only
//   - Lets each worker page through its range to exhaustion
//   - Collects whole per-range results under a single mutex
//   - Returns results concatenated in range order
//   - Fails the whole call on the first worker error (no partial data)
package pagination
