package share

import (
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// ConstantBool creates a public Boolean constant: the Garbler's local
// share is the value, the Evaluator's is zero, so they XOR back to the
// (already public) value without any interaction or information leak.
func ConstantBool(c *Circuit, value *big.Int, bitlen int) *BoolShare {
	return ConstantBoolSIMD(c, value, bitlen, 1)
}

// ConstantBoolSIMD is ConstantBool broadcast over nvals SIMD lanes.
func ConstantBoolSIMD(c *Circuit, value *big.Int, bitlen, nvals int) *BoolShare {
	v := maskBits(value, bitlen)
	vals := make([]*big.Int, nvals)
	for i := range vals {
		if c.Party.Role == engine.Garbler {
			vals[i] = new(big.Int).Set(v)
		} else {
			vals[i] = big.NewInt(0)
		}
	}
	return &BoolShare{C: c, Bits: bitlen, Vals: vals}
}

// ConstantArith creates a public Arithmetic constant the same way.
func ConstantArith(c *Circuit, value *big.Int) *ArithShare {
	return ConstantArithSIMD(c, value, 1)
}

// ConstantArithSIMD is ConstantArith broadcast over nvals SIMD lanes.
func ConstantArithSIMD(c *Circuit, value *big.Int, nvals int) *ArithShare {
	m := c.Modulus()
	v := new(big.Int).Mod(value, m)
	vals := make([]*big.Int, nvals)
	for i := range vals {
		if c.Party.Role == engine.Garbler {
			vals[i] = new(big.Int).Set(v)
		} else {
			vals[i] = big.NewInt(0)
		}
	}
	return &ArithShare{C: c, Vals: vals}
}
