package share

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// ApplyFileBinary's underlying circuit.Garbler/circuit.Evaluator call opens
// its output wires to both parties (that is how the host circuit package
// runs a garbled evaluation) rather than returning a fresh sharing of it.
// To turn that opened value into a genuine XOR sharing, the divider
// circuit's Evaluator input bundle carries one extra operand: a random
// mask the Evaluator samples locally and never reveals. The circuit
// computes quotient XOR mask, not the plain quotient, so the value both
// parties observe on open is pseudorandom to anyone who doesn't already
// hold mask. The Evaluator keeps mask as its share; the Garbler keeps the
// opened (masked) value as its share. XORing the two recovers the real
// quotient, exactly like any other two-out-of-two Boolean sharing — the
// masked value alone leaks nothing (spec §1, §4.5.1 step 1).
//
// ApplyFileBinary zeropads a and b to aw/bw respectively (spec §4.1),
// then instantiates the prebuilt binary sub-circuit keyed by
// (bitsize, dicePrec) to compute the rounding fixed-point division the
// Dice coefficient needs. It is the one gate in this module backed by a
// pre-synthesised circuit file rather than a gate built from the other
// primitives in this package — exactly the role apply_file_binary plays
// in the original specification.
func ApplyFileBinary(a, b *BoolShare, aw, bw int, divider *engine.Divider) (*BoolShare, error) {
	if a.NVals() != b.NVals() {
		return nil, mismatchedNVals("apply_file_binary", a.NVals(), b.NVals())
	}
	if !a.C.sameAs(b.C) {
		return nil, mismatchedCircuit("apply_file_binary")
	}
	pa, err := a.Zeropad(aw)
	if err != nil {
		return nil, fmt.Errorf("share: apply_file_binary: %w", err)
	}
	pb, err := b.Zeropad(bw)
	if err != nil {
		return nil, fmt.Errorf("share: apply_file_binary: %w", err)
	}

	maskLimit := new(big.Int).Lsh(big.NewInt(1), uint(aw))

	out := make([]*big.Int, a.NVals())
	for i := range out {
		switch a.C.Party.Role {
		case engine.Garbler:
			operands := []string{hexOperand(pa.Vals[i])}
			masked, err := a.C.Party.Divide(divider, operands, false)
			if err != nil {
				return nil, fmt.Errorf("share: apply_file_binary: %w", err)
			}
			out[i] = masked
		default:
			mask, err := rand.Int(rand.Reader, maskLimit)
			if err != nil {
				return nil, fmt.Errorf("share: apply_file_binary: mask: %w", err)
			}
			operands := []string{hexOperand(pb.Vals[i]), hexOperand(mask)}
			if _, err := a.C.Party.Divide(divider, operands, false); err != nil {
				return nil, fmt.Errorf("share: apply_file_binary: %w", err)
			}
			out[i] = mask
		}
	}
	return &BoolShare{C: a.C, Bits: aw, Vals: out}, nil
}

func hexOperand(v *big.Int) string {
	return fmt.Sprintf("0x%x", v)
}
