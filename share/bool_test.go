package share

import (
	"math/big"
	"sync"
	"testing"
)

// combine runs fg on the garbler circuit and fe on the evaluator circuit
// concurrently and returns both results, mirroring the concurrent-party
// pattern used throughout engine's own tests.
func combine(t *testing.T, fg, fe func() (*BoolShare, error)) (g, e *BoolShare) {
	t.Helper()
	var wg sync.WaitGroup
	var eErr error
	wg.Go(func() { e, eErr = fe() })
	var gErr error
	g, gErr = fg()
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator: %v", eErr)
	}
	return g, e
}

func xorVal(g, e *BoolShare) *big.Int {
	return new(big.Int).Xor(g.Vals[0], e.Vals[0])
}

func TestBoolAndOrXor(t *testing.T) {
	cg, ce := newCircuitPair(t, KindGMW, 8)

	a := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b1010)})
	b := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b0110)})
	ae := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})
	be := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})

	g, e := combine(t,
		func() (*BoolShare, error) { return a.And(b) },
		func() (*BoolShare, error) { return ae.And(be) })
	if xorVal(g, e).Cmp(big.NewInt(0b0010)) != 0 {
		t.Errorf("and = %s, want 2", xorVal(g, e).Text(2))
	}

	g, e = combine(t,
		func() (*BoolShare, error) { return a.Or(b) },
		func() (*BoolShare, error) { return ae.Or(be) })
	if xorVal(g, e).Cmp(big.NewInt(0b1110)) != 0 {
		t.Errorf("or = %s, want 0b1110", xorVal(g, e).Text(2))
	}

	xg, err := a.Xor(b)
	if err != nil {
		t.Fatal(err)
	}
	if xg.Vals[0].Cmp(new(big.Int).Xor(a.Vals[0], b.Vals[0])) != 0 {
		t.Errorf("xor should be purely local")
	}
}

func TestBoolEq(t *testing.T) {
	cg, ce := newCircuitPair(t, KindGMW, 8)

	// equal case: garbler 0b1100, evaluator contributes 0 on both sides,
	// so the cleartext values are both 0b1100.
	a := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b1100)})
	b := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b1100)})
	ae := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})
	be := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})

	g, e := combine(t,
		func() (*BoolShare, error) { return a.Eq(b) },
		func() (*BoolShare, error) { return ae.Eq(be) })
	if xorVal(g, e).Bit(0) != 1 {
		t.Errorf("eq(equal) = %d, want 1", xorVal(g, e).Bit(0))
	}

	b2 := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b1101)})
	g, e = combine(t,
		func() (*BoolShare, error) { return a.Eq(b2) },
		func() (*BoolShare, error) { return ae.Eq(be) })
	if xorVal(g, e).Bit(0) != 0 {
		t.Errorf("eq(unequal) = %d, want 0", xorVal(g, e).Bit(0))
	}
}

func TestBoolGtLt(t *testing.T) {
	cg, ce := newCircuitPair(t, KindGMW, 8)

	a := NewBoolShare(cg, 4, []*big.Int{big.NewInt(9)})
	b := NewBoolShare(cg, 4, []*big.Int{big.NewInt(5)})
	ae := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})
	be := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})

	g, e := combine(t,
		func() (*BoolShare, error) { return a.Gt(b) },
		func() (*BoolShare, error) { return ae.Gt(be) })
	if xorVal(g, e).Bit(0) != 1 {
		t.Errorf("9 > 5 should be true")
	}

	g, e = combine(t,
		func() (*BoolShare, error) { return a.Lt(b) },
		func() (*BoolShare, error) { return ae.Lt(be) })
	if xorVal(g, e).Bit(0) != 0 {
		t.Errorf("9 < 5 should be false")
	}
}

func TestBoolMux(t *testing.T) {
	cg, ce := newCircuitPair(t, KindGMW, 8)

	tVal := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b1111)})
	fVal := NewBoolShare(cg, 4, []*big.Int{big.NewInt(0b0000)})
	cond := NewBoolShare(cg, 1, []*big.Int{big.NewInt(1)})
	tValE := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})
	fValE := NewBoolShare(ce, 4, []*big.Int{big.NewInt(0)})
	condE := NewBoolShare(ce, 1, []*big.Int{big.NewInt(0)})

	g, e := combine(t,
		func() (*BoolShare, error) { return tVal.Mux(cond, fVal) },
		func() (*BoolShare, error) { return tValE.Mux(condE, fValE) })
	if xorVal(g, e).Cmp(big.NewInt(0b1111)) != 0 {
		t.Errorf("mux(1,t,f) = %s, want t", xorVal(g, e).Text(2))
	}
}

func TestBoolHammingWeight(t *testing.T) {
	cg, ce := newCircuitPair(t, KindGMW, 8)

	v := NewBoolShare(cg, 5, []*big.Int{big.NewInt(0b10110)}) // popcount 3
	ve := NewBoolShare(ce, 5, []*big.Int{big.NewInt(0)})

	g, e := combine(t,
		func() (*BoolShare, error) { return v.HammingWeight() },
		func() (*BoolShare, error) { return ve.HammingWeight() })
	if xorVal(g, e).Cmp(big.NewInt(3)) != 0 {
		t.Errorf("hw = %s, want 3", xorVal(g, e).Text(10))
	}
}

func TestBoolZeropadAndSplit(t *testing.T) {
	cg, _ := newCircuitPair(t, KindGMW, 8)

	s := NewBoolShare(cg, 4, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)})
	padded, err := s.Zeropad(8)
	if err != nil {
		t.Fatal(err)
	}
	if padded.Bits != 8 {
		t.Errorf("zeropad width = %d, want 8", padded.Bits)
	}

	parts := s.Split(2)
	if len(parts) != 2 || parts[0].NVals() != 2 || parts[1].NVals() != 1 {
		t.Errorf("split shapes unexpected: %v", parts)
	}
	back, err := VcombineBool(parts)
	if err != nil {
		t.Fatal(err)
	}
	if back.NVals() != 3 {
		t.Errorf("vcombine nvals = %d, want 3", back.NVals())
	}

	if _, err := s.Zeropad(2); err == nil {
		t.Error("expected error narrowing bitlen via zeropad")
	}
}
