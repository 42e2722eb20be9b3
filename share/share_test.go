package share

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"

	"github.com/markkurossi/sepilinker/engine"
)

// newCircuitPair wires up two in-process Garbler/Evaluator Circuits of the
// given kind over p2p.Pipe, the share-package analogue of
// engine's own newPartyPair test helper.
func newCircuitPair(t *testing.T, kind Kind, bitlen int) (g, e *Circuit) {
	t.Helper()
	gConn, eConn := p2p.Pipe()

	var wg sync.WaitGroup
	var eParty *engine.Party
	var eErr error
	wg.Go(func() {
		eParty, eErr = engine.NewParty(eConn, ot.NewCO(rand.Reader), engine.Evaluator, bitlen)
	})
	gParty, gErr := engine.NewParty(gConn, ot.NewCO(rand.Reader), engine.Garbler, bitlen)
	wg.Wait()

	if gErr != nil {
		t.Fatalf("garbler setup: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator setup: %v", eErr)
	}
	return NewCircuit(kind, gParty), NewCircuit(kind, eParty)
}
