package epilinkio

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/engine"
	"github.com/markkurossi/sepilinker/share"
)

func newCircuitPair(t *testing.T, bitlen int) (g, e *share.Circuit) {
	t.Helper()
	gConn, eConn := p2p.Pipe()

	var wg sync.WaitGroup
	var eParty *engine.Party
	var eErr error
	wg.Go(func() { eParty, eErr = engine.NewParty(eConn, ot.NewCO(rand.Reader), engine.Evaluator, bitlen) })
	gParty, gErr := engine.NewParty(gConn, ot.NewCO(rand.Reader), engine.Garbler, bitlen)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler setup: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator setup: %v", eErr)
	}
	return share.NewCircuit(share.KindGMW, gParty), share.NewCircuit(share.KindGMW, eParty)
}

func identityToMult(b *share.BoolShare) (*share.BoolShare, error) { return b, nil }

func xorCombine(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) }

func TestShapeOwnBuildsValueDeltaAndHW(t *testing.T) {
	cg, ce := newCircuitPair(t, 32)

	spec := config.FieldSpec{Name: "f", Comparator: config.Dice, Kind: config.Bitmask, Bitsize: 8}
	entries := []FieldEntry{NewFieldEntry(big.NewInt(0b1011)), Missing}

	owner, err := ShapeOwn(cg, entries, spec, identityToMult)
	if err != nil {
		t.Fatal(err)
	}
	dummy, err := ShapeDummy(ce, len(entries), spec, identityToMult)
	if err != nil {
		t.Fatal(err)
	}

	if v := xorCombine(owner.Value.Vals[0], dummy.Value.Vals[0]); v.Cmp(big.NewInt(0b1011)) != 0 {
		t.Errorf("value[0] = %v, want 0b1011", v)
	}
	if v := xorCombine(owner.Value.Vals[1], dummy.Value.Vals[1]); v.Sign() != 0 {
		t.Errorf("value[1] = %v, want 0 (missing entry)", v)
	}
	if v := xorCombine(owner.Delta.Vals[0], dummy.Delta.Vals[0]); v.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("delta[0] = %v, want 1", v)
	}
	if v := xorCombine(owner.Delta.Vals[1], dummy.Delta.Vals[1]); v.Sign() != 0 {
		t.Errorf("delta[1] = %v, want 0", v)
	}
	if v := xorCombine(owner.HW.Vals[0], dummy.HW.Vals[0]); v.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("hw[0] = %v, want 3 (popcount of 0b1011)", v)
	}
	if v := xorCombine(owner.HW.Vals[1], dummy.HW.Vals[1]); v.Sign() != 0 {
		t.Errorf("hw[1] = %v, want 0", v)
	}
}

func TestShapeOwnBinaryFieldHasNoHW(t *testing.T) {
	cg, _ := newCircuitPair(t, 32)
	spec := config.FieldSpec{Name: "f", Comparator: config.Binary, Kind: config.String, Bitsize: 16}
	es, err := ShapeOwn(cg, []FieldEntry{NewFieldEntry(big.NewInt(42))}, spec, identityToMult)
	if err != nil {
		t.Fatal(err)
	}
	if es.HW != nil {
		t.Error("binary-comparator field should not carry a hamming-weight share")
	}
}

func TestReplicateEntry(t *testing.T) {
	e := NewFieldEntry(big.NewInt(7))
	rows := ReplicateEntry(e, 3)
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Bitmask.Cmp(big.NewInt(7)) != 0 || !r.Present {
			t.Error("replicated row does not match source entry")
		}
	}
}
