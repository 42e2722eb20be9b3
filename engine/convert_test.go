package engine

import (
	"math/big"
	"sync"
	"testing"
)

func TestRippleCarryAdd(t *testing.T) {
	g, e := newPartyPair(t, 8)
	bitlen := 8

	var wg sync.WaitGroup
	var eSum *big.Int
	var eErr error
	wg.Go(func() { eSum, eErr = e.RippleCarryAdd(big.NewInt(200), bitlen) })
	gSum, gErr := g.RippleCarryAdd(big.NewInt(100), bitlen)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator: %v", eErr)
	}

	got := new(big.Int).Xor(gSum, eSum)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bitlen)), big.NewInt(1))
	got.And(got, mask)
	want := new(big.Int).And(big.NewInt(300), mask) // 300 mod 256 = 44
	if got.Cmp(want) != 0 {
		t.Errorf("sum = %s, want %s", got.Text(10), want.Text(10))
	}
}

func TestBitInjectionSum(t *testing.T) {
	g, e := newPartyPair(t, 16)
	modulus := g.ArithModulus

	// garbler's XOR-share half is 0b1011, evaluator's is 0b0101;
	// combined value is 0b1110 = 14.
	gv := big.NewInt(0b1011)
	ev := big.NewInt(0b0101)

	var wg sync.WaitGroup
	var eArith *big.Int
	var eErr error
	wg.Go(func() { eArith, eErr = e.BitInjectionSum(ev, 4, modulus) })
	gArith, gErr := g.BitInjectionSum(gv, 4, modulus)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator: %v", eErr)
	}

	sum := mod(new(big.Int).Add(gArith, eArith), modulus)
	want := new(big.Int).Xor(gv, ev)
	if sum.Cmp(want) != 0 {
		t.Errorf("bit-injection sum = %s, want %s", sum.Text(10), want.Text(10))
	}
}
