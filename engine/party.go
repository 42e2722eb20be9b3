// Package engine is the concrete two-party secure-computation engine that
// realizes the Boolean, Yao and Arithmetic sharings the rest of this module
// assumes as a host-framework boundary (spec §1 Non-goals). It is built
// directly on github.com/markkurossi/mpc's OT, OT-extension and garbled
// circuit primitives, generalizing the P-256 field arithmetic of
// crypto/spdz to an arbitrary 2^k ring and a GF(2) ring for Boolean gates.
//
// engine is intentionally the one place in this repository where a real
// cryptographic protocol (rather than circuit *construction*) lives; every
// other package only ever calls through Party's small algebraic surface.
package engine

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"
)

// Role is this party's role in the two-party OT-extension protocols that
// back every cross-term multiplication. It plays the same part that
// Sender/Receiver plays in crypto/spdz and Garbler/Evaluator plays in
// kernel.Process: a fixed, asymmetric choice of who drives each OT.
type Role int

// Party roles.
const (
	// Garbler is the OT sender in the first direction of every cross
	// multiplication and owns the Yao garbled evaluation of divider
	// sub-circuits.
	Garbler Role = iota
	// Evaluator is the OT sender in the second direction and evaluates
	// garbled divider sub-circuits sent by the Garbler.
	Evaluator
)

func (r Role) String() string {
	if r == Garbler {
		return "garbler"
	}
	return "evaluator"
}

// Other returns the peer's role.
func (r Role) Other() Role {
	if r == Garbler {
		return Evaluator
	}
	return Garbler
}

// Party is one side of a running two-party computation: a network
// connection, a base-OT instance and the ring parameters both sides agreed
// on out of band (CircuitConfig.Bitlen). A Party is not safe for concurrent
// use — exactly one circuit build+execute cycle may be in flight at a time,
// per spec §5.
type Party struct {
	Conn   *p2p.Conn
	OTI    ot.OT
	Role   Role
	Bitlen int

	// ArithModulus is 2^Bitlen, the ring the Arithmetic sharing works over.
	ArithModulus *big.Int

	rand io.Reader
}

// NewParty creates a Party and runs the base-OT setup for role. bitlen is
// the circuit's working bit width (CircuitConfig.Bitlen); it bounds the
// Arithmetic ring and the GF(2) Boolean wire width used by this engine.
func NewParty(conn *p2p.Conn, oti ot.OT, role Role, bitlen int) (*Party, error) {
	if bitlen <= 0 || bitlen > 256 {
		return nil, fmt.Errorf("engine: invalid bitlen %d", bitlen)
	}
	p := &Party{
		Conn:         conn,
		OTI:          oti,
		Role:         role,
		Bitlen:       bitlen,
		ArithModulus: new(big.Int).Lsh(big.NewInt(1), uint(bitlen)),
		rand:         rand.Reader,
	}
	switch role {
	case Garbler:
		if err := oti.InitSender(conn); err != nil {
			return nil, fmt.Errorf("engine: base OT init (garbler): %w", err)
		}
	case Evaluator:
		if err := oti.InitReceiver(conn); err != nil {
			return nil, fmt.Errorf("engine: base OT init (evaluator): %w", err)
		}
	default:
		return nil, fmt.Errorf("engine: invalid role %v", role)
	}
	return p, nil
}

// mod reduces x into [0, m) the way crypto/spdz's modReduce does.
func mod(x, m *big.Int) *big.Int {
	z := new(big.Int).Mod(x, m)
	if z.Sign() < 0 {
		z.Add(z, m)
	}
	return z
}

func randomRingElement(r io.Reader, modulus *big.Int) (*big.Int, error) {
	// modulus is always a power of two here (ArithModulus or GF(2)'s 2),
	// so rejection sampling never triggers; rand.Int already rejects bias.
	return rand.Int(r, modulus)
}
