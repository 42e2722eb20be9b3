package engine

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"
)

// newPartyPair wires up two in-process Parties over p2p.Pipe, mirroring
// crypto/spdz's spdz_test.go testAdd helper.
func newPartyPair(t *testing.T, bitlen int) (garbler, evaluator *Party) {
	t.Helper()
	gConn, eConn := p2p.Pipe()

	var wg sync.WaitGroup
	var eErr error
	wg.Go(func() {
		evaluator, eErr = NewParty(eConn, ot.NewCO(rand.Reader), Evaluator, bitlen)
	})

	var gErr error
	garbler, gErr = NewParty(gConn, ot.NewCO(rand.Reader), Garbler, bitlen)
	wg.Wait()

	if gErr != nil {
		t.Fatalf("garbler setup: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator setup: %v", eErr)
	}
	return garbler, evaluator
}
