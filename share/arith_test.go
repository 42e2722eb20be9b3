package share

import (
	"math/big"
	"sync"
	"testing"
)

func combineArith(t *testing.T, fg, fe func() (*ArithShare, error)) (g, e *ArithShare) {
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

func sumArith(c *Circuit, g, e *ArithShare) *big.Int {
	return mod2(new(big.Int).Add(g.Vals[0], e.Vals[0]), c.Modulus())
}

func mod2(x, m *big.Int) *big.Int {
	z := new(big.Int).Mod(x, m)
	if z.Sign() < 0 {
		z.Add(z, m)
	}
	return z
}

func TestArithAddSubMulConst(t *testing.T) {
	cg, ce := newCircuitPair(t, KindArith, 16)

	a := NewArithShare(cg, []*big.Int{big.NewInt(7)})
	b := NewArithShare(cg, []*big.Int{big.NewInt(3)})
	ae := NewArithShare(ce, []*big.Int{big.NewInt(11)})
	be := NewArithShare(ce, []*big.Int{big.NewInt(13)})

	g, e := combineArith(t,
		func() (*ArithShare, error) { return a.Add(b) },
		func() (*ArithShare, error) { return ae.Add(be) })
	if sumArith(cg, g, e).Cmp(big.NewInt(34)) != 0 {
		t.Errorf("add = %s, want 34", sumArith(cg, g, e).Text(10))
	}

	scaled := a.MulConst(big.NewInt(5))
	scaledE := ae.MulConst(big.NewInt(5))
	if sumArith(cg, scaled, scaledE).Cmp(big.NewInt(90)) != 0 {
		t.Errorf("mulconst = %s, want 90", sumArith(cg, scaled, scaledE).Text(10))
	}
}

func TestArithMul(t *testing.T) {
	cg, ce := newCircuitPair(t, KindArith, 16)

	a := NewArithShare(cg, []*big.Int{big.NewInt(7)})
	b := NewArithShare(cg, []*big.Int{big.NewInt(3)})
	ae := NewArithShare(ce, []*big.Int{big.NewInt(11)})
	be := NewArithShare(ce, []*big.Int{big.NewInt(13)})

	g, e := combineArith(t,
		func() (*ArithShare, error) { return a.Mul(b) },
		func() (*ArithShare, error) { return ae.Mul(be) })

	want := mod2(new(big.Int).Mul(big.NewInt(18), big.NewInt(16)), cg.Modulus())
	if sumArith(cg, g, e).Cmp(want) != 0 {
		t.Errorf("mul = %s, want %s", sumArith(cg, g, e).Text(10), want.Text(10))
	}
}

func TestArithSplitVcombine(t *testing.T) {
	cg, _ := newCircuitPair(t, KindArith, 16)

	s := NewArithShare(cg, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)})
	parts := s.Split(3)
	if len(parts) != 2 || parts[0].NVals() != 3 || parts[1].NVals() != 1 {
		t.Errorf("unexpected split shapes: %v", parts)
	}
	back, err := VcombineArith(parts)
	if err != nil {
		t.Fatal(err)
	}
	if back.NVals() != 4 {
		t.Errorf("vcombine nvals = %d, want 4", back.NVals())
	}
}
