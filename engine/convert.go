package engine

import (
	"fmt"
	"math/big"
)

// RippleCarryAdd computes this party's local XOR-share component of
// ownShare (this party's additive contribution, injected as a trivial
// Boolean input per BoolInputOwn/BoolInputDummy) added to the peer's
// additive contribution, via a standard ripple-carry full-adder built
// from the same andBit/xorBit gates GreaterThanBit and
// SecureHammingWeight use. This is the A2B conversion: the result, once
// XOR-combined across both parties, equals the sum of the two additive
// shares mod 2^bitlen.
func (p *Party) RippleCarryAdd(ownShare *big.Int, bitlen int) (*big.Int, error) {
	var aLocal, bLocal *big.Int
	if p.Role == Garbler {
		aLocal, bLocal = ownShare, big.NewInt(0)
	} else {
		aLocal, bLocal = big.NewInt(0), ownShare
	}

	carry := big.NewInt(0)
	result := new(big.Int)
	for i := 0; i < bitlen; i++ {
		ai, bi := bit(aLocal, i), bit(bLocal, i)
		sum := xorBit(xorBit(ai, bi), carry)
		if sum.Bit(0) == 1 {
			result.SetBit(result, i, 1)
		}
		if i == bitlen-1 {
			break
		}
		abTerm, err := p.andBit(ai, bi)
		if err != nil {
			return nil, fmt.Errorf("engine: ripple-carry-add: %w", err)
		}
		carryTerm, err := p.andBit(xorBit(ai, bi), carry)
		if err != nil {
			return nil, fmt.Errorf("engine: ripple-carry-add: %w", err)
		}
		carry = xorBit(abTerm, carryTerm)
	}
	return result, nil
}

// BitInjectionSum converts a bits-wide XOR-shared value into an additive
// share mod modulus, via the standard per-bit OT-based bit-injection
// identity bit = xG + xE - 2*xG*xE (xG, xE in {0,1}), with the xG*xE
// cross term computed by the same CrossMultiply machinery Beaver-triple
// generation uses, then a local weighted sum by powers of two. This is
// the B2A conversion.
func (p *Party) BitInjectionSum(v *big.Int, bits int, modulus *big.Int) (*big.Int, error) {
	sum := new(big.Int)
	for i := 0; i < bits; i++ {
		own := bit(v, i)
		var aLocal, bLocal *big.Int
		if p.Role == Garbler {
			aLocal, bLocal = own, big.NewInt(0)
		} else {
			aLocal, bLocal = big.NewInt(0), own
		}
		cross, err := p.CrossMultiply(aLocal, bLocal, modulus, p.Bitlen)
		if err != nil {
			return nil, fmt.Errorf("engine: bit-injection: %w", err)
		}
		bitShare := new(big.Int).Add(aLocal, bLocal)
		bitShare.Sub(bitShare, new(big.Int).Lsh(cross, 1))
		bitShare = mod(bitShare, modulus)

		weight := new(big.Int).Lsh(big.NewInt(1), uint(i))
		sum.Add(sum, new(big.Int).Mul(bitShare, weight))
	}
	return mod(sum, modulus), nil
}
