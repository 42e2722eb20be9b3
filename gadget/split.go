package gadget

import "fmt"

// ShareOps bundles the three SIMD-lane primitives SplitAccumulate and the
// quotient folder need for a concrete share type: NVals to measure the
// batch width, Slice to narrow to a sub-range of lanes, Concat to
// recombine two batches into one (the inverse of Slice). share.BoolShare
// and share.ArithShare each satisfy this via their NVals/SliceVals and
// VcombineBool/VcombineArith.
type ShareOps[T any] struct {
	NVals  func(T) int
	Slice  func(t T, lo, hi int) T
	Concat func(a, b T) (T, error)
}

// SplitAccumulate reduces a single SIMD share of width N to width 1 by
// repeatedly halving and combining with op, depth ceil(log2 N). An odd
// half's leftover lane is concatenated onto the result of the current
// level so it participates in the next split — the "stack" spec §4.2
// describes never holds more than one carried lane at a time.
func SplitAccumulate[T any](s T, ops ShareOps[T], op Op[T]) (T, error) {
	cur := s
	for ops.NVals(cur) > 1 {
		n := ops.NVals(cur)
		half := n / 2
		lo := ops.Slice(cur, 0, half)
		hi := ops.Slice(cur, half, 2*half)
		combined, err := op(lo, hi)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("gadget: split_accumulate: %w", err)
		}
		if n%2 == 1 {
			rem := ops.Slice(cur, n-1, n)
			combined, err = ops.Concat(combined, rem)
			if err != nil {
				var zero T
				return zero, fmt.Errorf("gadget: split_accumulate: %w", err)
			}
		}
		cur = combined
	}
	return cur, nil
}
