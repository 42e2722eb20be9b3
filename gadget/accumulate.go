// Package gadget provides the reusable circuit-shape building blocks the
// circuit builder composes EpiLink scoring out of: balanced-tree and
// left-fold reductions over independent shares, SIMD-width halving
// reduction of a single batched share, and the argmax/best-of quotient
// folder used for both exchange-group permutation search and
// database-wide argmax. None of these know what a "score" is; they are
// pure shape, parameterized by the caller's combining operator.
package gadget

import "fmt"

// Op combines two values of the same share type into one, the single
// primitive every accumulate variant below is built from.
type Op[T any] func(a, b T) (T, error)

// BinaryAccumulate reduces vals with a balanced tree of depth
// ceil(log2(n)): pairs are combined level by level, and an odd trailing
// element is carried to the next level unchanged.
func BinaryAccumulate[T any](vals []T, op Op[T]) (T, error) {
	var zero T
	if len(vals) == 0 {
		return zero, fmt.Errorf("gadget: binary_accumulate: empty input")
	}
	cur := vals
	for len(cur) > 1 {
		next := make([]T, 0, (len(cur)+1)/2)
		i := 0
		for ; i+1 < len(cur); i += 2 {
			r, err := op(cur[i], cur[i+1])
			if err != nil {
				return zero, err
			}
			next = append(next, r)
		}
		if i < len(cur) {
			next = append(next, cur[i])
		}
		cur = next
	}
	return cur[0], nil
}

// LFoldAccumulate is a simple left fold, depth n-1: the deepest variant,
// which costs nothing extra under garbled-circuit (Yao) evaluation, where
// round count matters less than gate count.
func LFoldAccumulate[T any](vals []T, op Op[T]) (T, error) {
	var zero T
	if len(vals) == 0 {
		return zero, fmt.Errorf("gadget: lfold_accumulate: empty input")
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		r, err := op(acc, v)
		if err != nil {
			return zero, err
		}
		acc = r
	}
	return acc, nil
}

// BestAccumulate picks lfold for a Yao share (cheap depth for garbled
// circuits) and binary otherwise, per spec §4.2.
func BestAccumulate[T any](vals []T, op Op[T], yao bool) (T, error) {
	if yao {
		return LFoldAccumulate(vals, op)
	}
	return BinaryAccumulate(vals, op)
}

// Sum is BestAccumulate specialised to an additive op; a named alias so
// call sites read like the operation they perform.
func Sum[T any](vals []T, add Op[T], yao bool) (T, error) {
	return BestAccumulate(vals, add, yao)
}

// Max is BestAccumulate specialised to a max-selecting op.
func Max[T any](vals []T, max Op[T], yao bool) (T, error) {
	return BestAccumulate(vals, max, yao)
}
