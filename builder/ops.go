// Package builder assembles the EpiLink scoring circuit out of share,
// gadget, config, and epilinkio: per-comparison field weights, exchange-
// group permutation search, database-wide argmax, and threshold tests,
// polymorphic over the multiplication space (spec §4.5.4).
package builder

import (
	"math/big"

	"github.com/markkurossi/sepilinker/share"
)

// Ops bundles every primitive the builder needs in its native
// multiplication space (ShareT = *share.ArithShare when the circuit
// configuration uses conversion, *share.BoolShare otherwise). This is the
// "runtime strategy object" spec §4.5.4 sanctions in place of a
// compile-time switch: driver constructs one of ArithOps()/BoolOps(ccfg)
// depending on CircuitConfig.UseConversion and hands it to Builder.
type Ops[ShareT any] struct {
	Add      func(a, b ShareT) (ShareT, error)
	Mul      func(a, b ShareT) (ShareT, error)
	MakeConst func(value *big.Int, nvals int) ShareT
	ToBool   func(ShareT) (*share.BoolShare, error)
	FromBool func(*share.BoolShare) (ShareT, error)
	Mux      func(cond *share.BoolShare, t, f ShareT) (ShareT, error)
	SliceVals func(s ShareT, lo, hi int) ShareT
	Repeat   func(s ShareT, n int) ShareT
	NVals    func(s ShareT) int
	Concat   func(a, b ShareT) (ShareT, error)

	// PromoteEq lifts a 1-bit BINARY-comparator equality share to the
	// dice_prec fixed-point scale field_weight multiplication uses: a free
	// left shift in Boolean mode, a multiplication by the cached
	// 2^dice_prec constant in arithmetic mode (spec §4.5.1 step 1).
	PromoteEq func(eq *share.BoolShare, dicePrec int) (ShareT, error)
}

// MulConst multiplies a share by a public constant. This always goes
// through a full secure Mul against a broadcast constant share rather
// than exploiting arithmetic sharing's free constant-multiplication
// (ArithShare.MulConst) — a documented simplification that keeps one code
// path for both multiplication spaces at the cost of a wasted Beaver
// triple per weight multiplication in arithmetic mode.
func (o Ops[ShareT]) MulConst(s ShareT, value *big.Int) (ShareT, error) {
	c := o.MakeConst(value, o.NVals(s))
	return o.Mul(s, c)
}

// ArithOps is the Ops[*share.ArithShare] realization: native arithmetic
// add/mul, with Boolean conversion going through A2B/B2A (share.A2B,
// share.B2A) at the configured bitlen.
func ArithOps(circ *share.Circuit, boolCircuit *share.Circuit, bitlen int) Ops[*share.ArithShare] {
	return Ops[*share.ArithShare]{
		Add: func(a, b *share.ArithShare) (*share.ArithShare, error) { return a.Add(b) },
		Mul: func(a, b *share.ArithShare) (*share.ArithShare, error) { return a.Mul(b) },
		MakeConst: func(value *big.Int, nvals int) *share.ArithShare {
			return share.ConstantArithSIMD(circ, value, nvals)
		},
		ToBool: func(a *share.ArithShare) (*share.BoolShare, error) {
			return share.A2B(boolCircuit, a, bitlen)
		},
		FromBool: func(b *share.BoolShare) (*share.ArithShare, error) {
			return share.B2A(circ, b)
		},
		Mux: func(cond *share.BoolShare, t, f *share.ArithShare) (*share.ArithShare, error) {
			return share.MuxArith(cond, t, f)
		},
		SliceVals: func(s *share.ArithShare, lo, hi int) *share.ArithShare { return s.SliceVals(lo, hi) },
		Repeat:    func(s *share.ArithShare, n int) *share.ArithShare { return s.Repeat(n) },
		NVals:     func(s *share.ArithShare) int { return s.NVals() },
		Concat: func(a, b *share.ArithShare) (*share.ArithShare, error) {
			return share.VcombineArith([]*share.ArithShare{a, b})
		},
		PromoteEq: func(eq *share.BoolShare, dicePrec int) (*share.ArithShare, error) {
			a, err := share.B2A(circ, eq)
			if err != nil {
				return nil, err
			}
			factor := share.ConstantArithSIMD(circ, new(big.Int).Lsh(big.NewInt(1), uint(dicePrec)), a.NVals())
			return a.Mul(factor)
		},
	}
}

// BoolOps is the Ops[*share.BoolShare] realization: all arithmetic is
// done in Boolean space directly (no conversion needed for ToBool/
// FromBool — both are the identity), at the given bit width.
func BoolOps(circ *share.Circuit, bitlen int) Ops[*share.BoolShare] {
	return Ops[*share.BoolShare]{
		Add: func(a, b *share.BoolShare) (*share.BoolShare, error) { return a.Add(b) },
		Mul: func(a, b *share.BoolShare) (*share.BoolShare, error) { return a.Mul(b) },
		MakeConst: func(value *big.Int, nvals int) *share.BoolShare {
			return share.ConstantBoolSIMD(circ, value, bitlen, nvals)
		},
		ToBool:   func(a *share.BoolShare) (*share.BoolShare, error) { return a, nil },
		FromBool: func(b *share.BoolShare) (*share.BoolShare, error) { return b, nil },
		Mux:      func(cond *share.BoolShare, t, f *share.BoolShare) (*share.BoolShare, error) { return t.Mux(cond, f) },
		SliceVals: func(s *share.BoolShare, lo, hi int) *share.BoolShare { return s.SliceVals(lo, hi) },
		Repeat:    func(s *share.BoolShare, n int) *share.BoolShare { return s.Repeat(n) },
		NVals:     func(s *share.BoolShare) int { return s.NVals() },
		Concat: func(a, b *share.BoolShare) (*share.BoolShare, error) {
			return share.VcombineBool([]*share.BoolShare{a, b})
		},
		PromoteEq: func(eq *share.BoolShare, dicePrec int) (*share.BoolShare, error) {
			padded, err := eq.Zeropad(dicePrec + 1)
			if err != nil {
				return nil, err
			}
			return padded.Shl(dicePrec), nil
		},
	}
}
