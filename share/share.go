// Package share provides typed, algebraic wrappers over the two-party
// engine's raw wire values: BoolShare, ArithShare and OutShare, each
// carrying its own SIMD width (NVals) and bit width (Bitlen) the way
// spec §4.1 requires of the "Share wrappers" component. Every wrapper
// holds a reference to its owning Circuit rather than owning it — Circuit
// is the single-owner resource (the party's engine connection), shares are
// cheap, copyable value-ish handles over it, per spec §9's borrow note.
package share

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// Kind names which of the three sharings a Circuit/Share belongs to.
type Kind int

// Sharing kinds.
const (
	KindYao Kind = iota
	KindGMW
	KindArith
)

func (k Kind) String() string {
	switch k {
	case KindYao:
		return "yao"
	case KindGMW:
		return "gmw"
	case KindArith:
		return "arith"
	default:
		return "unknown"
	}
}

// Circuit is the single owner of one of the three sharings' engine state:
// one per party per computation, the Boolean-primary sharing, the
// Boolean-conversion sharing and the Arithmetic sharing (spec §5's "single
// party object owns the three circuit instances"). All Share values that
// belong to the same Circuit may be freely combined; combining shares from
// different Circuits without an explicit conversion is an error.
type Circuit struct {
	Kind  Kind
	Party *engine.Party
	id    int
}

var circuitSeq int

// NewCircuit creates a Circuit of the given kind bound to party.
func NewCircuit(kind Kind, party *engine.Party) *Circuit {
	circuitSeq++
	return &Circuit{Kind: kind, Party: party, id: circuitSeq}
}

func (c *Circuit) sameAs(o *Circuit) bool {
	return c != nil && o != nil && c.id == o.id
}

// Modulus returns the ring modulus gates in this circuit compute over: the
// arithmetic ring 2^bitlen for KindArith, or 2 (plain XOR/AND, i.e. GF(2))
// for the two Boolean kinds.
func (c *Circuit) Modulus() *big.Int {
	if c.Kind == KindArith {
		return c.Party.ArithModulus
	}
	return big.NewInt(2)
}

func mismatchedCircuit(op string) error {
	return fmt.Errorf("share: %s: operands belong to different circuits", op)
}

func mismatchedNVals(op string, a, b int) error {
	return fmt.Errorf("share: %s: nvals mismatch: %d vs %d", op, a, b)
}

func mismatchedBitlen(op string, a, b int) error {
	return fmt.Errorf("share: %s: bitlen mismatch: %d vs %d", op, a, b)
}
