package engine

import (
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/markkurossi/mpc"
	"github.com/markkurossi/mpc/circuit"
)

// Divider is a parsed, reusable prebuilt binary sub-circuit computing the
// rounding fixed-point integer division the Dice coefficient needs
// (share.ApplyFileBinary, apply_file_binary in spec §4.1). Division sub-circuits are
// keyed by (bitsize, dicePrec) and named "<bitsize>_<dicePrec>.circ" in a
// shared directory both parties must have a byte-identical copy of, the
// same contract spec.md's Design Notes places on the ".aby" blobs of the
// original implementation.
//
// The Evaluator's input bundle (Inputs[1]) carries the denominator plus a
// second operand: a mask sampled fresh for every call. The circuit's sole
// output is quotient XOR mask, not the plain quotient, so opening it
// (which circuit.Garbler/circuit.Evaluator do unconditionally) never
// reveals the quotient itself — only a value indistinguishable from
// random to whichever side doesn't already hold mask.
type Divider struct {
	Circ *circuit.Circuit
}

// DividerFilename returns the canonical filename for a divider circuit of
// the given bit size and dice precision.
func DividerFilename(bitsize, dicePrec int) string {
	return fmt.Sprintf("%d_%d.circ", bitsize, dicePrec)
}

// LoadDivider parses the prebuilt divider circuit for (bitsize, dicePrec)
// out of dir.
func LoadDivider(dir string, bitsize, dicePrec int) (*Divider, error) {
	path := filepath.Join(dir, DividerFilename(bitsize, dicePrec))
	c, err := circuit.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("engine: load divider %s: %w", path, err)
	}
	return &Divider{Circ: c}, nil
}

// Divide runs the two-party garbled evaluation of the divider circuit for
// one (numerator, denominator) pair, each operand supplied as this party's
// local hex-encoded wire values; the Garbler supplies input bundle 0 (the
// numerator alone), the Evaluator input bundle 1 (the denominator followed
// by its locally-sampled mask), matching circuit.Circuit.Inputs' layout
// the same way kernel.Process.runGarbler/runEvaluator parse theirs. The
// returned value is quotient XOR mask (see Divider), never the plain
// quotient; callers combine it with the mask to form a real sharing
// rather than treating it as a final answer.
func (p *Party) Divide(d *Divider, localOperands []string, verbose bool) (*big.Int, error) {
	var (
		result []*big.Int
		err    error
	)
	switch p.Role {
	case Garbler:
		input, perr := d.Circ.Inputs[0].Parse(localOperands)
		if perr != nil {
			return nil, fmt.Errorf("engine: parse garbler divider input: %w", perr)
		}
		result, err = circuit.Garbler(p.Conn, p.OTI, d.Circ, input, verbose)
	case Evaluator:
		input, perr := d.Circ.Inputs[1].Parse(localOperands)
		if perr != nil {
			return nil, fmt.Errorf("engine: parse evaluator divider input: %w", perr)
		}
		result, err = circuit.Evaluator(p.Conn, p.OTI, d.Circ, input, verbose)
	default:
		return nil, fmt.Errorf("engine: invalid role %v", p.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: run divider circuit: %w", err)
	}

	values := mpc.Results(result, d.Circ.Outputs)
	if len(values) == 0 {
		return nil, fmt.Errorf("engine: divider produced no outputs")
	}
	switch v := values[0].(type) {
	case *big.Int:
		return v, nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("engine: unexpected divider output type %T", v)
	}
}
