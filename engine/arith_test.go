package engine

import (
	"math/big"
	"sync"
	"testing"
)

func revealPair(t *testing.T, g, e *Party, gv, ev, modulus *big.Int) (gr, er *big.Int) {
	t.Helper()
	var wg sync.WaitGroup
	var eErr error
	wg.Go(func() {
		er, eErr = e.Reveal(ev, modulus)
	})
	var gErr error
	gr, gErr = g.Reveal(gv, modulus)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler reveal: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator reveal: %v", eErr)
	}
	return gr, er
}

func TestMulLocal(t *testing.T) {
	g, e := newPartyPair(t, 16)
	modulus := g.ArithModulus

	var wg sync.WaitGroup
	var et *Triple
	var eErr error
	wg.Go(func() { et, eErr = e.GenerateTriple(modulus, 16) })
	gt, gErr := g.GenerateTriple(modulus, 16)
	wg.Wait()
	if gErr != nil || eErr != nil {
		t.Fatalf("triple gen: %v %v", gErr, eErr)
	}

	gA, gB := big.NewInt(7), big.NewInt(3)
	eA, eB := big.NewInt(11), big.NewInt(13)

	var ec *big.Int
	wg.Go(func() { ec, eErr = e.MulLocal(eA, eB, et, modulus) })
	gc, gErr := g.MulLocal(gA, gB, gt, modulus)
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler mul: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator mul: %v", eErr)
	}

	a := mod(new(big.Int).Add(gA, eA), modulus)
	b := mod(new(big.Int).Add(gB, eB), modulus)
	c := mod(new(big.Int).Add(gc, ec), modulus)
	want := mod(new(big.Int).Mul(a, b), modulus)
	if c.Cmp(want) != 0 {
		t.Errorf("c = %s, want %s", c.Text(16), want.Text(16))
	}
}

func TestReveal(t *testing.T) {
	g, e := newPartyPair(t, 16)
	modulus := g.ArithModulus

	gr, er := revealPair(t, g, e, big.NewInt(40), big.NewInt(2), modulus)
	if gr.Cmp(er) != 0 {
		t.Errorf("garbler/evaluator disagree: %s vs %s", gr.Text(16), er.Text(16))
	}
	if gr.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("revealed %s, want 42", gr.Text(16))
	}
}
