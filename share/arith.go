package share

import (
	"fmt"
	"math/big"
)

// ArithShare is a SIMD-batched additively-shared value mod 2^bitlen.
type ArithShare struct {
	C    *Circuit
	Vals []*big.Int
}

// NewArithShare wraps raw local additive-share components.
func NewArithShare(c *Circuit, vals []*big.Int) *ArithShare {
	return &ArithShare{C: c, Vals: vals}
}

// NVals is this share's SIMD width.
func (s *ArithShare) NVals() int { return len(s.Vals) }

func (s *ArithShare) checkCompat(op string, o *ArithShare) error {
	if !s.C.sameAs(o.C) {
		return mismatchedCircuit(op)
	}
	if s.NVals() != o.NVals() {
		return mismatchedNVals(op, s.NVals(), o.NVals())
	}
	return nil
}

// Add is local, as in any additive sharing.
func (s *ArithShare) Add(o *ArithShare) (*ArithShare, error) {
	if err := s.checkCompat("add", o); err != nil {
		return nil, err
	}
	m := s.C.Modulus()
	out := make([]*big.Int, s.NVals())
	for i := range out {
		out[i] = new(big.Int).Add(s.Vals[i], o.Vals[i])
		out[i].Mod(out[i], m)
	}
	return &ArithShare{C: s.C, Vals: out}, nil
}

// Sub is local, as in any additive sharing.
func (s *ArithShare) Sub(o *ArithShare) (*ArithShare, error) {
	if err := s.checkCompat("sub", o); err != nil {
		return nil, err
	}
	m := s.C.Modulus()
	out := make([]*big.Int, s.NVals())
	for i := range out {
		out[i] = new(big.Int).Sub(s.Vals[i], o.Vals[i])
		out[i].Mod(out[i], m)
		if out[i].Sign() < 0 {
			out[i].Add(out[i], m)
		}
	}
	return &ArithShare{C: s.C, Vals: out}, nil
}

// MulConst scales by a public constant; free, like any linear operation
// on an additive sharing.
func (s *ArithShare) MulConst(c *big.Int) *ArithShare {
	m := s.C.Modulus()
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		out[i] = new(big.Int).Mul(v, c)
		out[i].Mod(out[i], m)
	}
	return &ArithShare{C: s.C, Vals: out}
}

// Mul multiplies two secret-shared operands via a fresh Beaver triple per
// SIMD lane.
func (s *ArithShare) Mul(o *ArithShare) (*ArithShare, error) {
	if err := s.checkCompat("mul", o); err != nil {
		return nil, err
	}
	m := s.C.Modulus()
	out := make([]*big.Int, s.NVals())
	for i := range out {
		triple, err := s.C.Party.GenerateTriple(m, s.C.Party.Bitlen)
		if err != nil {
			return nil, fmt.Errorf("share: mul: %w", err)
		}
		v, err := s.C.Party.MulLocal(s.Vals[i], o.Vals[i], triple, m)
		if err != nil {
			return nil, fmt.Errorf("share: mul: %w", err)
		}
		out[i] = v
	}
	return &ArithShare{C: s.C, Vals: out}, nil
}

// SliceVals narrows s to the SIMD lane range [lo, hi), for the gadget
// package's halving reductions.
func (s *ArithShare) SliceVals(lo, hi int) *ArithShare {
	return &ArithShare{C: s.C, Vals: append([]*big.Int{}, s.Vals[lo:hi]...)}
}

// Repeat produces a SIMD share whose NVals is n*NVals by repeating the
// wire bundle.
func (s *ArithShare) Repeat(n int) *ArithShare {
	out := make([]*big.Int, 0, n*s.NVals())
	for i := 0; i < n; i++ {
		for _, v := range s.Vals {
			out = append(out, new(big.Int).Set(v))
		}
	}
	return &ArithShare{C: s.C, Vals: out}
}

// Split partitions a SIMD share of NVals N into ceil(N/k) shares of NVals
// k (the last possibly shorter).
func (s *ArithShare) Split(k int) []*ArithShare {
	var out []*ArithShare
	for i := 0; i < len(s.Vals); i += k {
		end := i + k
		if end > len(s.Vals) {
			end = len(s.Vals)
		}
		out = append(out, &ArithShare{C: s.C, Vals: append([]*big.Int{}, s.Vals[i:end]...)})
	}
	return out
}

// VcombineArith concatenates SIMD batches belonging to the same circuit.
func VcombineArith(parts []*ArithShare) (*ArithShare, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("share: vcombine: empty input")
	}
	c := parts[0].C
	var vals []*big.Int
	for _, p := range parts {
		if !p.C.sameAs(c) {
			return nil, mismatchedCircuit("vcombine")
		}
		vals = append(vals, p.Vals...)
	}
	return &ArithShare{C: c, Vals: vals}, nil
}
