package pagination

import (
	"fmt"
	"math"
)

// Range is an inclusive block-height interval. A range with Start > End is
// empty; Partition produces those when asked for more ranges than heights.
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// IsEmpty reports whether the range holds no heights.
func (r Range) IsEmpty() bool {
	return r.Start > r.End
}

// Len returns the number of heights in the range. The full uint64 domain
// reports math.MaxUint64.
func (r Range) Len() uint64 {
	if r.IsEmpty() {
		return 0
	}
	if r.End-r.Start == math.MaxUint64 {
		return math.MaxUint64
	}
	return r.End - r.Start + 1
}

// String implements fmt.Stringer.
func (r Range) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("[%d,%d](empty)", r.Start, r.End)
	}
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// MaxPartitions bounds the number of ranges Partition will allocate.
const MaxPartitions = 1 << 16

// InvalidRangeError is returned by Partition for a malformed request.
type InvalidRangeError struct {
	Start uint64
	End   uint64
	N     int
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	switch {
	case e.N <= 0:
		return fmt.Sprintf("invalid range partition: n must be positive (got %d)", e.N)
	case e.N > MaxPartitions:
		return fmt.Sprintf("invalid range partition: n must be at most %d (got %d)", MaxPartitions, e.N)
	default:
		return fmt.Sprintf("invalid range partition: start %d > end %d", e.Start, e.End)
	}
}

// Partition splits [start, end] into exactly n contiguous ranges. Sizes differ
// by at most one; the first span%n ranges hold the extra height. When n exceeds
// the span the trailing ranges are empty and start at end+1, or are
// {MaxUint64, MaxUint64-1} when end is MaxUint64.
func Partition(start, end uint64, n int) ([]Range, error) {
	if n <= 0 || n > MaxPartitions || start > end {
		return nil, &InvalidRangeError{Start: start, End: end, N: n}
	}

	// span = end-start+1 overflows for the full domain, so derive size and
	// remainder from span-1.
	last := end - start
	size := last / uint64(n)
	rem := last%uint64(n) + 1
	if rem == uint64(n) {
		size++
		rem = 0
	}

	ranges := make([]Range, 0, n)
	next := start
	exhausted := false
	for i := 0; i < n; i++ {
		length := size
		if uint64(i) < rem {
			length++
		}
		if exhausted {
			ranges = append(ranges, Range{Start: math.MaxUint64, End: math.MaxUint64 - 1})
			continue
		}
		if length == 0 {
			// next > start here, so next-1 does not underflow.
			ranges = append(ranges, Range{Start: next, End: next - 1})
			continue
		}
		r := Range{Start: next, End: next + length - 1}
		ranges = append(ranges, r)
		if r.End == math.MaxUint64 {
			exhausted = true
		} else {
			next = r.End + 1
		}
	}

	return ranges, nil
}
