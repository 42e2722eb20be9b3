package share

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// This engine realizes both Boolean sharings (Yao-primary and
// GMW-conversion) with the identical XOR-share / GMW-AND representation
// (see engine package doc and DESIGN.md): the two Boolean circuits differ
// only in which one best_accumulate treats as "cheap for depth", not in
// wire format. B2Y and Y2B are therefore free relabelings rather than
// protocol runs — the one simplification spec §4.5.4 explicitly allows
// ("the implementation must invoke the correct conversion lazily...";
// nothing requires the two Boolean sharings to be wire-incompatible).
//
// A2B and B2A are real protocols: A2B runs a ripple-carry adder over a
// Boolean-shared pair of addends (each party's additive share injected as
// a trivial Boolean input), and B2A runs per-bit OT-based bit injection
// and recombines with local weighted sums, the standard 2PC constructions.

// B2Y reinterprets a GMW BoolShare as belonging to the Yao-primary
// circuit. yaoCircuit must share the same underlying Party.
func B2Y(yaoCircuit *Circuit, s *BoolShare) *BoolShare {
	return &BoolShare{C: yaoCircuit, Bits: s.Bits, Vals: s.Vals}
}

// Y2B reinterprets a Yao BoolShare as belonging to the GMW-conversion
// circuit.
func Y2B(gmwCircuit *Circuit, s *BoolShare) *BoolShare {
	return &BoolShare{C: gmwCircuit, Bits: s.Bits, Vals: s.Vals}
}

// A2B converts an Arithmetic share to a Boolean share on boolCircuit via a
// ripple-carry adder over each party's additive share injected as a
// trivial (free) Boolean input.
func A2B(boolCircuit *Circuit, s *ArithShare, bitlen int) (*BoolShare, error) {
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		own := engine.BoolInputOwn(v)
		sum, err := boolCircuit.Party.RippleCarryAdd(own, bitlen)
		if err != nil {
			return nil, fmt.Errorf("share: a2b: %w", err)
		}
		out[i] = sum
	}
	return &BoolShare{C: boolCircuit, Bits: bitlen, Vals: out}, nil
}

// B2A converts a Boolean share to an Arithmetic share on arithCircuit via
// per-bit OT-based bit injection (x = a XOR b = a+b-2ab over the
// integers) followed by a local weighted sum.
func B2A(arithCircuit *Circuit, s *BoolShare) (*ArithShare, error) {
	m := arithCircuit.Modulus()
	out := make([]*big.Int, s.NVals())
	for i, v := range s.Vals {
		sum, err := arithCircuit.Party.BitInjectionSum(v, s.Bits, m)
		if err != nil {
			return nil, fmt.Errorf("share: b2a: %w", err)
		}
		out[i] = sum
	}
	return &ArithShare{C: arithCircuit, Vals: out}, nil
}
