package gadget

import (
	"fmt"

	"github.com/markkurossi/sepilinker/share"
)

// Selector picks which of two quotients a QuotientFolder keeps at each
// fold step.
type Selector int

// Selectors. The _Tie variants break an equal-quotient tie by preferring
// the larger denominator, per spec §4.2; a full tie (equal quotient and
// equal denominator) keeps the first operand, matching
// oracle.maxTie's non-strict a.den >= b.den and the original
// implementation's "first seen wins" ordering.
const (
	SelectMax Selector = iota
	SelectMin
	SelectMaxTie
	SelectMinTie
)

// Quotient is a (numerator, denominator) pair in the builder's native
// multiplication space — ShareT is *share.ArithShare when the circuit
// configuration uses arithmetic multiplication, *share.BoolShare
// otherwise (spec §4.5.4's ShareT polymorphism).
type Quotient[ShareT any] struct {
	Num ShareT
	Den ShareT
}

// NativeOps bundles the three native-space primitives a quotient
// comparison needs beyond plain SIMD slicing: multiplication (to form the
// cross products num_a·den_b and num_b·den_a), conversion to Boolean
// space (comparisons only exist there), and multiplexing by a Boolean
// selector bit back in the native space. These three differ between the
// Boolean and Arithmetic multiplication spaces; everything else about the
// fold does not.
type NativeOps[ShareT any] struct {
	Mul    Op[ShareT]
	ToBool func(ShareT) (*share.BoolShare, error)
	Mux    func(sel *share.BoolShare, t, f ShareT) (ShareT, error)
}

// CompareAndMux folds one pairwise level of a QuotientFolder: given two
// equal-width halves of the running quotient and their accompanying
// target shares, it picks per-lane according to sel and returns the
// folded quotient and targets.
type CompareAndMux[ShareT any] func(a, b Quotient[ShareT], aTargets, bTargets []*share.BoolShare) (Quotient[ShareT], []*share.BoolShare, error)

// MakeSelector builds the CompareAndMux for selector sel over a given
// native-space, the "make_{min,max}[_tie]_selector(to_bool_converter)"
// helper of spec §4.2: it factors the comparator out from the halving
// bookkeeping in Folder.Fold.
func MakeSelector[ShareT any](sel Selector, ops NativeOps[ShareT]) CompareAndMux[ShareT] {
	return func(a, b Quotient[ShareT], aTargets, bTargets []*share.BoolShare) (Quotient[ShareT], []*share.BoolShare, error) {
		var zero Quotient[ShareT]
		crossA, err := ops.Mul(a.Num, b.Den) // num_a * den_b
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
		}
		crossB, err := ops.Mul(b.Num, a.Den) // num_b * den_a
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
		}
		boolA, err := ops.ToBool(crossA)
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
		}
		boolB, err := ops.ToBool(crossB)
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
		}

		// keepA is 1 where a should be kept.
		var keepA *share.BoolShare
		switch sel {
		case SelectMax:
			keepA, err = boolA.Gt(boolB)
		case SelectMin:
			keepA, err = boolB.Gt(boolA)
		case SelectMaxTie, SelectMinTie:
			var base *share.BoolShare
			if sel == SelectMaxTie {
				base, err = boolA.Gt(boolB)
			} else {
				base, err = boolB.Gt(boolA)
			}
			if err != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
			}
			eq, eerr := boolA.Eq(boolB)
			if eerr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", eerr)
			}
			denA, derr := ops.ToBool(a.Den)
			if derr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", derr)
			}
			denB, derr := ops.ToBool(b.Den)
			if derr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", derr)
			}
			// Non-strict: a.den >= b.den keeps a on a full tie, matching
			// oracle.maxTie's convention (and the original implementation's
			// operator<) that the first-seen operand wins rather than the
			// second. denB.Gt(denA) is strict less-than-reversed, so its
			// negation is exactly >=.
			denBGtA, derr := denB.Gt(denA)
			if derr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", derr)
			}
			denAGeB := denBGtA.Not()
			tieWin, terr := eq.And(denAGeB)
			if terr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient compare: %w", terr)
			}
			keepA, err = base.Or(tieWin)
		default:
			return zero, nil, fmt.Errorf("gadget: quotient compare: unknown selector %d", sel)
		}
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient compare: %w", err)
		}

		numSel, err := ops.Mux(keepA, a.Num, b.Num)
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient mux: %w", err)
		}
		denSel, err := ops.Mux(keepA, a.Den, b.Den)
		if err != nil {
			return zero, nil, fmt.Errorf("gadget: quotient mux: %w", err)
		}
		targets := make([]*share.BoolShare, len(aTargets))
		for i := range aTargets {
			t, terr := aTargets[i].Mux(keepA, bTargets[i])
			if terr != nil {
				return zero, nil, fmt.Errorf("gadget: quotient target mux: %w", terr)
			}
			targets[i] = t
		}
		return Quotient[ShareT]{Num: numSel, Den: denSel}, targets, nil
	}
}

// Folder folds a batch of SIMD quotients of identical nvals down to a
// single pair, carrying along zero or more parallel target Boolean
// shares (e.g. a database-row index, for argmax), per spec §4.2's
// QuotientFolder.
type Folder[ShareT any] struct {
	Ops     ShareOps[ShareT]
	Targets ShareOps[*share.BoolShare]
	Combine CompareAndMux[ShareT]
}

// Fold runs the halving reduction: at each level it splits the quotient
// (and every target) into two equal halves plus at most one carried
// remainder lane (for odd widths), folds the halves with Combine, and
// concatenates the remainder into the next level.
func (f *Folder[ShareT]) Fold(q Quotient[ShareT], targets []*share.BoolShare) (Quotient[ShareT], []*share.BoolShare, error) {
	for f.Ops.NVals(q.Num) > 1 {
		n := f.Ops.NVals(q.Num)
		half := n / 2

		loNum := f.Ops.Slice(q.Num, 0, half)
		loDen := f.Ops.Slice(q.Den, 0, half)
		hiNum := f.Ops.Slice(q.Num, half, 2*half)
		hiDen := f.Ops.Slice(q.Den, half, 2*half)

		loTargets := make([]*share.BoolShare, len(targets))
		hiTargets := make([]*share.BoolShare, len(targets))
		for i, t := range targets {
			loTargets[i] = f.Targets.Slice(t, 0, half)
			hiTargets[i] = f.Targets.Slice(t, half, 2*half)
		}

		folded, foldedTargets, err := f.Combine(
			Quotient[ShareT]{Num: loNum, Den: loDen},
			Quotient[ShareT]{Num: hiNum, Den: hiDen},
			loTargets, hiTargets)
		if err != nil {
			return q, nil, fmt.Errorf("gadget: quotient fold: %w", err)
		}

		if n%2 == 1 {
			remNum := f.Ops.Slice(q.Num, n-1, n)
			remDen := f.Ops.Slice(q.Den, n-1, n)
			cNum, cerr := f.Ops.Concat(folded.Num, remNum)
			if cerr != nil {
				return q, nil, fmt.Errorf("gadget: quotient fold: %w", cerr)
			}
			cDen, cerr := f.Ops.Concat(folded.Den, remDen)
			if cerr != nil {
				return q, nil, fmt.Errorf("gadget: quotient fold: %w", cerr)
			}
			newTargets := make([]*share.BoolShare, len(foldedTargets))
			for i, t := range foldedTargets {
				remT := f.Targets.Slice(targets[i], n-1, n)
				m, merr := f.Targets.Concat(t, remT)
				if merr != nil {
					return q, nil, fmt.Errorf("gadget: quotient fold: %w", merr)
				}
				newTargets[i] = m
			}
			folded = Quotient[ShareT]{Num: cNum, Den: cDen}
			foldedTargets = newTargets
		}

		q = folded
		targets = foldedTargets
	}
	return q, targets, nil
}
