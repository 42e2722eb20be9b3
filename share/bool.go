package share

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// BoolShare is a SIMD-batched Boolean (XOR-shared) wire bundle: NVals
// independent Bitlen-wide values, one local XOR-share component per
// lane, exactly as spec §4.1 describes it. Its Circuit.Kind is always
// KindYao or KindGMW.
type BoolShare struct {
	C    *Circuit
	Bits int
	Vals []*big.Int // len == NVals(), each in [0, 2^Bits)
}

// NewBoolShare wraps raw local XOR-share components.
func NewBoolShare(c *Circuit, bits int, vals []*big.Int) *BoolShare {
	return &BoolShare{C: c, Bits: bits, Vals: vals}
}

// NVals is this share's SIMD width.
func (s *BoolShare) NVals() int { return len(s.Vals) }

// Bitlen is this share's per-lane wire width.
func (s *BoolShare) Bitlen() int { return s.Bits }

func (s *BoolShare) checkCompat(op string, o *BoolShare) error {
	if !s.C.sameAs(o.C) {
		return mismatchedCircuit(op)
	}
	if s.NVals() != o.NVals() {
		return mismatchedNVals(op, s.NVals(), o.NVals())
	}
	if s.Bits != o.Bits {
		return mismatchedBitlen(op, s.Bits, o.Bits)
	}
	return nil
}

func maskBits(v *big.Int, bits int) *big.Int {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	return new(big.Int).And(v, mask)
}

// Xor is local: no interaction needed for a linear (additive, over GF(2))
// operation in an XOR sharing.
func (s *BoolShare) Xor(o *BoolShare) (*BoolShare, error) {
	if err := s.checkCompat("xor", o); err != nil {
		return nil, err
	}
	out := make([]*big.Int, s.NVals())
	for i := range out {
		out[i] = maskBits(new(big.Int).Xor(s.Vals[i], o.Vals[i]), s.Bits)
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}, nil
}

// Not flips every bit; only the Garbler applies the public all-ones mask
// so the two local shares still XOR to the flipped value exactly once.
func (s *BoolShare) Not() *BoolShare {
	out := make([]*big.Int, s.NVals())
	ones := maskBits(big.NewInt(-1), s.Bits)
	for i := range out {
		if s.C.Party.Role == engine.Garbler {
			out[i] = maskBits(new(big.Int).Xor(s.Vals[i], ones), s.Bits)
		} else {
			out[i] = new(big.Int).Set(s.Vals[i])
		}
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}
}

// And runs one GMW AND gate per bit lane per SIMD element, consuming
// fresh triples from the engine for every bit.
func (s *BoolShare) And(o *BoolShare) (*BoolShare, error) {
	if err := s.checkCompat("and", o); err != nil {
		return nil, err
	}
	out := make([]*big.Int, s.NVals())
	for i := range out {
		triples, err := s.C.Party.GenerateBoolTriples(s.Bits)
		if err != nil {
			return nil, fmt.Errorf("share: and: %w", err)
		}
		v, err := s.C.Party.BoolAnd(s.Vals[i], o.Vals[i], triples, s.Bits)
		if err != nil {
			return nil, fmt.Errorf("share: and: %w", err)
		}
		out[i] = v
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}, nil
}

// Mul computes the secure product of two XOR-shared integers via a
// shift-add multiplier: each bit of o is broadcast across a full-width
// lane (the same condReplicate trick Mux uses for its selector bit), ANDed
// against s, shifted into place, and accumulated with the secure adder.
// The result is truncated to max(s.Bits, o.Bits) bits, matching
// ArithShare.Mul's modular truncation convention.
func (s *BoolShare) Mul(o *BoolShare) (*BoolShare, error) {
	if !s.C.sameAs(o.C) {
		return nil, mismatchedCircuit("mul")
	}
	if s.NVals() != o.NVals() {
		return nil, mismatchedNVals("mul", s.NVals(), o.NVals())
	}
	width := s.Bits
	if o.Bits > width {
		width = o.Bits
	}
	sw, err := s.Zeropad(width)
	if err != nil {
		return nil, fmt.Errorf("share: mul: %w", err)
	}
	ow, err := o.Zeropad(width)
	if err != nil {
		return nil, fmt.Errorf("share: mul: %w", err)
	}
	acc := &BoolShare{C: s.C, Bits: width, Vals: make([]*big.Int, s.NVals())}
	for i := range acc.Vals {
		acc.Vals[i] = big.NewInt(0)
	}
	for i := 0; i < width; i++ {
		bBit, err := ow.sliceBits(i, i+1)
		if err != nil {
			return nil, fmt.Errorf("share: mul: %w", err)
		}
		bWide := &BoolShare{C: ow.C, Bits: width, Vals: condReplicate(bBit.Vals, width)}
		partial, err := sw.And(bWide)
		if err != nil {
			return nil, fmt.Errorf("share: mul: %w", err)
		}
		shifted := partial.Shl(i)
		acc, err = acc.Add(shifted)
		if err != nil {
			return nil, fmt.Errorf("share: mul: %w", err)
		}
	}
	return acc, nil
}

// Or is derived from And/Xor the standard way: a|b = a^b^(a&b).
func (s *BoolShare) Or(o *BoolShare) (*BoolShare, error) {
	x, err := s.Xor(o)
	if err != nil {
		return nil, err
	}
	a, err := s.And(o)
	if err != nil {
		return nil, err
	}
	return x.Xor(a)
}

// Eq reduces to a single bit: NOT(OR-reduce(a XOR b)).
func (s *BoolShare) Eq(o *BoolShare) (*BoolShare, error) {
	x, err := s.Xor(o)
	if err != nil {
		return nil, err
	}
	orAll, err := x.orReduceBits()
	if err != nil {
		return nil, err
	}
	return orAll.Not(), nil
}

// orReduceBits collapses each lane's Bits-wide value to a single bit that
// is 1 iff any bit of the lane is 1, via a balanced-tree OR fold over the
// bit positions (gadget.BinaryAccumulate operates on whole shares; this is
// the bit-granular analogue used internally by comparisons).
func (s *BoolShare) orReduceBits() (*BoolShare, error) {
	cur := s
	width := s.Bits
	for width > 1 {
		half := (width + 1) / 2
		lo, err := cur.sliceBits(0, half)
		if err != nil {
			return nil, err
		}
		hiWidth := width - half
		if hiWidth == 0 {
			cur = lo
			width = half
			continue
		}
		hi, err := cur.sliceBits(half, width)
		if err != nil {
			return nil, err
		}
		padded, err := hi.zeropadTo(half)
		if err != nil {
			return nil, err
		}
		cur, err = lo.Or(padded)
		if err != nil {
			return nil, err
		}
		width = half
	}
	return cur, nil
}

func (s *BoolShare) sliceBits(lo, hi int) (*BoolShare, error) {
	out := make([]*big.Int, s.NVals())
	width := hi - lo
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
	for i, v := range s.Vals {
		out[i] = new(big.Int).And(new(big.Int).Rsh(v, uint(lo)), mask)
	}
	return &BoolShare{C: s.C, Bits: width, Vals: out}, nil
}

func (s *BoolShare) zeropadTo(width int) (*BoolShare, error) {
	return s.Zeropad(width)
}

// Gt computes the unsigned "s > o" bit via the standard GMW
// greater-than circuit: scan from the most significant bit, tracking
// whether the prefix compared equal so far and ORing in the first
// differing bit where s is 1 and o is 0.
func (s *BoolShare) Gt(o *BoolShare) (*BoolShare, error) {
	if err := s.checkCompat("gt", o); err != nil {
		return nil, err
	}
	out := make([]*big.Int, s.NVals())
	for i := range out {
		v, err := s.C.Party.GreaterThanBit(s.Vals[i], o.Vals[i], s.Bits)
		if err != nil {
			return nil, fmt.Errorf("share: gt: %w", err)
		}
		out[i] = v
	}
	return &BoolShare{C: s.C, Bits: 1, Vals: out}, nil
}

// Lt is Gt with operands swapped.
func (s *BoolShare) Lt(o *BoolShare) (*BoolShare, error) {
	return o.Gt(s)
}

// Add computes the secure sum of two equal-width XOR-shared values via a
// ripple-carry full adder over individual bit shares — the same
// carry-propagation formula engine.Party.RippleCarryAdd uses for A2B
// conversion, applied here directly to two already-Boolean-shared
// operands instead of two parties' plaintext halves.
func (s *BoolShare) Add(o *BoolShare) (*BoolShare, error) {
	if err := s.checkCompat("add", o); err != nil {
		return nil, err
	}
	bits := s.Bits
	carry := &BoolShare{C: s.C, Bits: 1, Vals: make([]*big.Int, s.NVals())}
	for i := range carry.Vals {
		carry.Vals[i] = big.NewInt(0)
	}
	result := make([]*big.Int, s.NVals())
	for i := range result {
		result[i] = big.NewInt(0)
	}
	for i := 0; i < bits; i++ {
		aBit, err := s.sliceBits(i, i+1)
		if err != nil {
			return nil, err
		}
		bBit, err := o.sliceBits(i, i+1)
		if err != nil {
			return nil, err
		}
		sumBit, err := aBit.Xor(bBit)
		if err != nil {
			return nil, err
		}
		sumBit, err = sumBit.Xor(carry)
		if err != nil {
			return nil, err
		}
		andAB, err := aBit.And(bBit)
		if err != nil {
			return nil, err
		}
		xorAB, err := aBit.Xor(bBit)
		if err != nil {
			return nil, err
		}
		andXorCarry, err := xorAB.And(carry)
		if err != nil {
			return nil, err
		}
		carry, err = andAB.Xor(andXorCarry)
		if err != nil {
			return nil, err
		}
		for lane, v := range sumBit.Vals {
			if v.Bit(0) == 1 {
				result[lane].SetBit(result[lane], i, 1)
			}
		}
	}
	return &BoolShare{C: s.C, Bits: bits, Vals: result}, nil
}

// Shl shifts every lane left by k bits within the current bit width,
// dropping bits that overflow; purely local, like Xor.
func (s *BoolShare) Shl(k int) *BoolShare {
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		out[i] = maskBits(new(big.Int).Lsh(v, uint(k)), s.Bits)
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}
}

// Mux selects t where cond (a 1-bit share broadcast over the same nvals)
// is 1 and f otherwise: mux = f XOR (cond_broadcast AND (t XOR f)).
func (s *BoolShare) Mux(cond, f *BoolShare) (*BoolShare, error) {
	t := s
	if err := t.checkCompat("mux", f); err != nil {
		return nil, err
	}
	if cond.NVals() != t.NVals() {
		return nil, mismatchedNVals("mux", cond.NVals(), t.NVals())
	}
	diff, err := t.Xor(f)
	if err != nil {
		return nil, err
	}
	// cond's per-party local bit is replicated into every wire of diff's
	// bit width so a single And call picks diff where cond is 1.
	condWide := &BoolShare{C: cond.C, Bits: diff.Bits, Vals: condReplicate(cond.Vals, diff.Bits)}
	picked, err := diff.And(condWide)
	if err != nil {
		return nil, err
	}
	return f.Xor(picked)
}

func condReplicate(vals []*big.Int, bits int) []*big.Int {
	out := make([]*big.Int, len(vals))
	ones := maskBits(big.NewInt(-1), bits)
	for i, c := range vals {
		if c.Bit(0) == 1 {
			out[i] = new(big.Int).Set(ones)
		} else {
			out[i] = big.NewInt(0)
		}
	}
	return out
}

// HammingWeight returns a share whose value is popcount(s), widened to
// ceil(log2(bits+1)) bits as spec §4.1 requires.
func (s *BoolShare) HammingWeight() (*BoolShare, error) {
	width := hwWidth(s.Bits)
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		// Hamming weight of an XOR-shared value is NOT simply
		// popcount(local share) — it must be computed securely bit by
		// bit via a secure adder tree over the individual bit shares.
		sum, err := s.C.Party.SecureHammingWeight(v, s.Bits, width)
		if err != nil {
			return nil, fmt.Errorf("share: hammingweight: %w", err)
		}
		out[i] = sum
	}
	return &BoolShare{C: s.C, Bits: width, Vals: out}, nil
}

func hwWidth(bits int) int {
	w := 0
	for (1 << w) < bits+1 {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// Shr shifts every lane right by k bits (an unsigned logical shift),
// local and free like Shl.
func (s *BoolShare) Shr(k int) *BoolShare {
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		out[i] = new(big.Int).Rsh(v, uint(k))
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}
}

// Zeropad appends constant-zero wires up to width; local and free.
func (s *BoolShare) Zeropad(width int) (*BoolShare, error) {
	if s.Bits > width {
		return nil, fmt.Errorf("share: zeropad: %d > target width %d", s.Bits, width)
	}
	if s.Bits == width {
		return s, nil
	}
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		out[i] = new(big.Int).Set(v)
	}
	return &BoolShare{C: s.C, Bits: width, Vals: out}, nil
}

// SliceVals narrows s to the SIMD lane range [lo, hi), for the gadget
// package's halving reductions.
func (s *BoolShare) SliceVals(lo, hi int) *BoolShare {
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: append([]*big.Int{}, s.Vals[lo:hi]...)}
}

// Repeat produces a SIMD share whose NVals is n*NVals by repeating the
// wire bundle, per spec §4.1.
func (s *BoolShare) Repeat(n int) *BoolShare {
	out := make([]*big.Int, 0, n*s.NVals())
	for i := 0; i < n; i++ {
		for _, v := range s.Vals {
			out = append(out, new(big.Int).Set(v))
		}
	}
	return &BoolShare{C: s.C, Bits: s.Bits, Vals: out}
}

// Split partitions a SIMD share of NVals N into ceil(N/k) shares of NVals
// k (the last possibly shorter), the inverse of Vcombine.
func (s *BoolShare) Split(k int) []*BoolShare {
	var out []*BoolShare
	for i := 0; i < len(s.Vals); i += k {
		end := i + k
		if end > len(s.Vals) {
			end = len(s.Vals)
		}
		out = append(out, &BoolShare{C: s.C, Bits: s.Bits, Vals: append([]*big.Int{}, s.Vals[i:end]...)})
	}
	return out
}

// VcombineBool concatenates SIMD batches of identical bitlen.
func VcombineBool(parts []*BoolShare) (*BoolShare, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("share: vcombine: empty input")
	}
	bits := parts[0].Bits
	c := parts[0].C
	var vals []*big.Int
	for _, p := range parts {
		if p.Bits != bits {
			return nil, mismatchedBitlen("vcombine", p.Bits, bits)
		}
		if !p.C.sameAs(c) {
			return nil, mismatchedCircuit("vcombine")
		}
		vals = append(vals, p.Vals...)
	}
	return &BoolShare{C: c, Bits: bits, Vals: vals}, nil
}
