package engine

import "math/big"

// This file implements the single-bit GMW gates the Boolean comparison
// and Hamming-weight gadgets reduce to: a secure AND per interacting bit
// pair, with XOR and constant injection done locally. Multi-bit BoolShare
// operations (share.BoolShare.Gt/HammingWeight) call into these rather
// than reimplementing the bit-level protocol themselves.

func bit(v *big.Int, i int) *big.Int {
	if v.Bit(i) == 1 {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func xorBit(a, b *big.Int) *big.Int {
	return big.NewInt(int64(a.Bit(0) ^ b.Bit(0)))
}

// constBit injects a public constant into this party's local XOR-share
// half: only the Garbler carries the real value, the Evaluator carries 0,
// so the two shares XOR back to the constant without leaking anything
// (it was public to begin with). This mirrors BoolShare.Not applying its
// all-ones mask on exactly one side.
func (p *Party) constBit(v int) *big.Int {
	if p.Role == Garbler && v != 0 {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func (p *Party) notBit(a *big.Int) *big.Int {
	return xorBit(a, p.constBit(1))
}

func (p *Party) andBit(a, b *big.Int) (*big.Int, error) {
	triple, err := p.GenerateBoolTriple()
	if err != nil {
		return nil, err
	}
	return p.MulLocal(a, b, triple, gf2)
}

func (p *Party) orBit(a, b *big.Int) (*big.Int, error) {
	x := xorBit(a, b)
	and, err := p.andBit(a, b)
	if err != nil {
		return nil, err
	}
	return xorBit(x, and), nil
}

// GreaterThanBit computes the single XOR-shared bit "a > b" for two
// bits-wide local share components, scanning from the most significant
// bit and tracking an equal-so-far flag, the standard GMW
// greater-than circuit.
func (p *Party) GreaterThanBit(a, b *big.Int, bits int) (*big.Int, error) {
	g := big.NewInt(0)
	e := p.constBit(1)
	for i := bits - 1; i >= 0; i-- {
		ai, bi := bit(a, i), bit(b, i)
		gi, err := p.andBit(ai, p.notBit(bi))
		if err != nil {
			return nil, err
		}
		t, err := p.andBit(e, gi)
		if err != nil {
			return nil, err
		}
		g, err = p.orBit(g, t)
		if err != nil {
			return nil, err
		}
		ei := p.notBit(xorBit(ai, bi))
		e, err = p.andBit(e, ei)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// SecureHammingWeight computes the popcount of a bits-wide XOR-shared
// value as a width-bit XOR-shared counter, by ripple-adding each input
// bit into a running counter with a chain of secure half-adders.
func (p *Party) SecureHammingWeight(v *big.Int, bits, width int) (*big.Int, error) {
	counter := make([]*big.Int, width)
	for j := range counter {
		counter[j] = big.NewInt(0)
	}
	for i := 0; i < bits; i++ {
		carry := bit(v, i)
		for j := 0; j < width; j++ {
			sumBit := xorBit(counter[j], carry)
			nextCarry, err := p.andBit(counter[j], carry)
			if err != nil {
				return nil, err
			}
			counter[j] = sumBit
			carry = nextCarry
		}
	}
	out := new(big.Int)
	for j, c := range counter {
		if c.Bit(0) == 1 {
			out.SetBit(out, j, 1)
		}
	}
	return out, nil
}
