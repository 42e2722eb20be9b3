package builder

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/engine"
	"github.com/markkurossi/sepilinker/epilinkio"
	"github.com/markkurossi/sepilinker/share"
)

const testBitlen = 32

func newCircuitPair(t *testing.T) (g, e *share.Circuit) {
	t.Helper()
	gConn, eConn := p2p.Pipe()

	var wg sync.WaitGroup
	var eParty *engine.Party
	var eErr error
	wg.Go(func() { eParty, eErr = engine.NewParty(eConn, ot.NewCO(rand.Reader), engine.Evaluator, testBitlen) })
	gParty, gErr := engine.NewParty(gConn, ot.NewCO(rand.Reader), engine.Garbler, testBitlen)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler setup: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator setup: %v", eErr)
	}
	return share.NewCircuit(share.KindGMW, gParty), share.NewCircuit(share.KindGMW, eParty)
}

// twoBinaryFieldConfig builds a config with two equally-weighted BINARY
// fields in one exchange group, so neither divider circuits nor
// conversion are needed to exercise BuildLinkageCircuit/BuildCountCircuit.
func twoBinaryFieldConfig(t *testing.T) *config.CircuitConfig {
	t.Helper()
	cfg := &config.EpilinkConfig{
		Fields: map[string]config.FieldSpec{
			"a": {Name: "a", Frequency: 0.01, ErrorRate: 0.05, Comparator: config.Binary, Kind: config.String, Bitsize: 8},
			"b": {Name: "b", Frequency: 0.01, ErrorRate: 0.05, Comparator: config.Binary, Kind: config.String, Bitsize: 8},
		},
		ExchangeGroups:     [][]string{{"a", "b"}},
		Threshold:          0.9,
		TentativeThreshold: 0.7,
		Algorithm:          "epilink",
	}
	cc, err := config.NewCircuitConfig(cfg, false, testBitlen)
	if err != nil {
		t.Fatal(err)
	}
	return cc
}

func noDividers(bitsize int) (*engine.Divider, error) {
	return nil, nil
}

func identity(b *share.BoolShare) (*share.BoolShare, error) { return b, nil }

// buildParty sets up one side's Builder (client record broadcast against a
// server database) over Boolean-space Ops, with no conversion.
func buildParty[ShareT any](circ *share.Circuit, cc *config.CircuitConfig, clientRows map[string][]epilinkio.FieldEntry, serverRows map[string][]epilinkio.FieldEntry, databaseSize int, ops Ops[ShareT], makeConst epilinkio.MakeConst[ShareT], own bool) (*Builder[ShareT], error) {
	consts := epilinkio.NewConstants(circ, cc, databaseSize, makeConst)
	b := NewBuilder(ops, circ, cc, consts, noDividers)

	client := make(map[string]*epilinkio.EntryShare[ShareT])
	server := make(map[string]*epilinkio.EntryShare[ShareT])
	for name, spec := range cc.Epilink.Fields {
		var (
			cEntry *epilinkio.EntryShare[ShareT]
			sEntry *epilinkio.EntryShare[ShareT]
			err    error
		)
		if own {
			cEntry, err = epilinkio.ShapeOwn(circ, clientRows[name], spec, identity)
		} else {
			cEntry, err = epilinkio.ShapeDummy[ShareT](circ, len(clientRows[name]), spec, identity)
		}
		if err != nil {
			return nil, err
		}
		if own {
			sEntry, err = epilinkio.ShapeOwn(circ, serverRows[name], spec, identity)
		} else {
			sEntry, err = epilinkio.ShapeDummy[ShareT](circ, len(serverRows[name]), spec, identity)
		}
		if err != nil {
			return nil, err
		}
		client[name] = cEntry
		server[name] = sEntry
	}

	if err := b.SetInput(client, server, databaseSize); err != nil {
		return nil, err
	}
	return b, nil
}

func boolMakeConstAt(c *share.Circuit, bits int) epilinkio.MakeConst[*share.BoolShare] {
	return func(value *big.Int, nvals int) *share.BoolShare {
		return share.ConstantBoolSIMD(c, value, bits, nvals)
	}
}

// runLinkagePair runs BuildLinkageCircuit on both sides concurrently (one
// side owns the real client/server rows, the other supplies the
// zero-filled dummy counterpart), and XOR-combines the revealed index/
// match/tmatch bits.
func runLinkagePair(t *testing.T, cc *config.CircuitConfig, client, server map[string][]epilinkio.FieldEntry, databaseSize int) (index uint64, match, tmatch bool) {
	t.Helper()
	cg, ce := newCircuitPair(t)

	opsG := BoolOps(cg, testBitlen)
	opsE := BoolOps(ce, testBitlen)

	bg, err := buildParty(cg, cc, client, server, databaseSize, opsG, boolMakeConstAt(cg, testBitlen), true)
	if err != nil {
		t.Fatalf("garbler build: %v", err)
	}
	be, err := buildParty(ce, cc, client, server, databaseSize, opsE, boolMakeConstAt(ce, testBitlen), false)
	if err != nil {
		t.Fatalf("evaluator build: %v", err)
	}

	var wg sync.WaitGroup
	var gRes, eRes *LinkageShare[*share.BoolShare]
	var gErr, eErr error
	wg.Go(func() { eRes, eErr = be.BuildLinkageCircuit() })
	gRes, gErr = bg.BuildLinkageCircuit()
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler run: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator run: %v", eErr)
	}

	idx := new(big.Int).Xor(gRes.Index.Vals[0], eRes.Index.Vals[0])
	m := new(big.Int).Xor(gRes.Match.Vals[0], eRes.Match.Vals[0])
	tm := new(big.Int).Xor(gRes.TMatch.Vals[0], eRes.TMatch.Vals[0])
	return idx.Uint64(), m.Sign() != 0, tm.Sign() != 0
}

func TestBuildLinkageCircuitExactMatch(t *testing.T) {
	cc := twoBinaryFieldConfig(t)
	client := map[string][]epilinkio.FieldEntry{
		"a": epilinkio.ReplicateEntry(epilinkio.NewFieldEntry(big.NewInt(5)), 1),
		"b": epilinkio.ReplicateEntry(epilinkio.NewFieldEntry(big.NewInt(9)), 1),
	}
	server := map[string][]epilinkio.FieldEntry{
		"a": {epilinkio.NewFieldEntry(big.NewInt(5))},
		"b": {epilinkio.NewFieldEntry(big.NewInt(9))},
	}
	idx, match, _ := runLinkagePair(t, cc, client, server, 1)
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
	if !match {
		t.Error("exact match on every field should clear the match threshold")
	}
}

// TestExchangeGroupPermutationInvariance is Property 3: swapping the
// server's values for two same-comparator, same-stats exchange-group
// fields should not change the linkage outcome, since groupQuotient
// searches every permutation for the best pairing.
func TestExchangeGroupPermutationInvariance(t *testing.T) {
	cc := twoBinaryFieldConfig(t)
	client := map[string][]epilinkio.FieldEntry{
		"a": epilinkio.ReplicateEntry(epilinkio.NewFieldEntry(big.NewInt(5)), 1),
		"b": epilinkio.ReplicateEntry(epilinkio.NewFieldEntry(big.NewInt(9)), 1),
	}
	straight := map[string][]epilinkio.FieldEntry{
		"a": {epilinkio.NewFieldEntry(big.NewInt(5))},
		"b": {epilinkio.NewFieldEntry(big.NewInt(9))},
	}
	swapped := map[string][]epilinkio.FieldEntry{
		"a": {epilinkio.NewFieldEntry(big.NewInt(9))},
		"b": {epilinkio.NewFieldEntry(big.NewInt(5))},
	}

	_, match1, tmatch1 := runLinkagePair(t, cc, client, straight, 1)
	_, match2, tmatch2 := runLinkagePair(t, cc, client, swapped, 1)

	if match1 != match2 || tmatch1 != tmatch2 {
		t.Errorf("permuted exchange-group values changed outcome: (%v,%v) vs (%v,%v)",
			match1, tmatch1, match2, tmatch2)
	}
	if !match1 {
		t.Error("expected a match once the best pairing is found")
	}
}

// TestMissingFieldIsNeutral is Property 4: a missing field (delta=0 on
// one side) contributes zero to both numerator and denominator, so it
// never penalizes or inflates the score relative to leaving it out
// entirely.
func TestMissingFieldIsNeutral(t *testing.T) {
	cc := twoBinaryFieldConfig(t)
	client := map[string][]epilinkio.FieldEntry{
		"a": epilinkio.ReplicateEntry(epilinkio.NewFieldEntry(big.NewInt(5)), 1),
		"b": epilinkio.ReplicateEntry(epilinkio.Missing, 1),
	}
	server := map[string][]epilinkio.FieldEntry{
		"a": {epilinkio.NewFieldEntry(big.NewInt(5))},
		"b": {epilinkio.NewFieldEntry(big.NewInt(200))},
	}
	_, match, _ := runLinkagePair(t, cc, client, server, 1)
	if !match {
		t.Error("a missing field should not drag down a perfect match on the remaining field")
	}
}

func TestBuildLinkageCircuitRejectsWrongState(t *testing.T) {
	cc := twoBinaryFieldConfig(t)
	cg, _ := newCircuitPair(t)
	consts := epilinkio.NewConstants(cg, cc, 1, boolMakeConstAt(cg, testBitlen))
	b := NewBuilder(BoolOps(cg, testBitlen), cg, cc, consts, noDividers)
	if _, err := b.BuildLinkageCircuit(); err == nil {
		t.Error("expected an error building before SetInput")
	}
}
