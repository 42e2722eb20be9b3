package engine

import "math/big"

// Triple is this party's local share of a Beaver multiplication triple
// (a, b, c=a*b mod modulus), the standard building block both Arithmetic
// multiplication and Boolean AND are reduced to in this engine. A and B are
// sampled independently by each side (no interaction needed, since any
// fresh local randomness is a valid additive share); C is derived via
// CrossMultiply so it is correlated correctly with the peer's A, B.
type Triple struct {
	A, B, C *big.Int
}

// GenerateTriple produces one Beaver triple over the given modulus/width,
// mirroring crypto/spdz's per-triple construction but generalized away
// from the fixed P-256 field.
func (p *Party) GenerateTriple(modulus *big.Int, bitWidth int) (*Triple, error) {
	a, err := randomRingElement(p.rand, modulus)
	if err != nil {
		return nil, err
	}
	b, err := randomRingElement(p.rand, modulus)
	if err != nil {
		return nil, err
	}
	c, err := p.CrossMultiply(a, b, modulus, bitWidth)
	if err != nil {
		return nil, err
	}
	return &Triple{A: a, B: b, C: c}, nil
}

// GenerateTriples produces n independent Beaver triples.
func (p *Party) GenerateTriples(n int, modulus *big.Int, bitWidth int) ([]*Triple, error) {
	out := make([]*Triple, n)
	for i := 0; i < n; i++ {
		t, err := p.GenerateTriple(modulus, bitWidth)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// GenerateBoolTriple produces one GF(2) AND triple: a, b are single bits
// held locally and c = a&b mod 2, additively (XOR-)shared the same way.
// This is the GMW AND-gate primitive every BoolShare.And reduces to.
func (p *Party) GenerateBoolTriple() (*Triple, error) {
	return p.GenerateTriple(gf2, 1)
}

// GenerateBoolTriples produces n independent GF(2) AND triples, one per
// bit lane of a width-n bitwise AND gate.
func (p *Party) GenerateBoolTriples(n int) ([]*Triple, error) {
	return p.GenerateTriples(n, gf2, 1)
}

var gf2 = big.NewInt(2)
