package engine

import (
	"fmt"
	"math/big"
)

// BoolAnd computes this party's XOR-share of the bitwise AND of two
// width-bit XOR-shared values, given one fresh GF(2) triple per bit lane.
// XOR, NOT and constant-combination are all local (see share.BoolShare);
// AND is the only Boolean gate that needs interaction, exactly as in GMW.
func (p *Party) BoolAnd(a, b *big.Int, triples []*Triple, width int) (*big.Int, error) {
	if len(triples) < width {
		return nil, fmt.Errorf("engine: not enough bool triples for AND: want %d got %d", width, len(triples))
	}
	result := new(big.Int)
	for i := 0; i < width; i++ {
		abit := big.NewInt(int64(a.Bit(i)))
		bbit := big.NewInt(int64(b.Bit(i)))
		c, err := p.MulLocal(abit, bbit, triples[i], gf2)
		if err != nil {
			return nil, err
		}
		if c.Bit(0) == 1 {
			result.SetBit(result, i, 1)
		}
	}
	return result, nil
}

// BoolInputOwn turns a locally-known width-bit value into a trivial XOR
// share: this party's share is the value itself, the peer's share is
// implicitly zero. This is the standard "free" input gate of a secret
// sharing scheme and needs no interaction — the peer simply never calls
// this for its own inputs, it calls BoolInputDummy instead to hold its
// (zero) half of the wire bundle.
func BoolInputOwn(v *big.Int) *big.Int {
	return new(big.Int).Set(v)
}

// BoolInputDummy returns the non-owning party's half of an input gate.
func BoolInputDummy() *big.Int {
	return big.NewInt(0)
}
