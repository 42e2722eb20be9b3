package engine

import (
	"fmt"
	"math/big"
)

// AddLocal adds two local share components mod modulus. Addition never
// needs interaction in an additive sharing, exactly as crypto/spdz's
// AddShare/SubShare are purely local.
func AddLocal(a, b, modulus *big.Int) *big.Int {
	return mod(new(big.Int).Add(a, b), modulus)
}

// SubLocal subtracts two local share components mod modulus.
func SubLocal(a, b, modulus *big.Int) *big.Int {
	return mod(new(big.Int).Sub(a, b), modulus)
}

// ScaleLocal multiplies a local share by a public constant mod modulus;
// free in any additive sharing since both parties apply it unilaterally.
func ScaleLocal(a, c, modulus *big.Int) *big.Int {
	return mod(new(big.Int).Mul(a, c), modulus)
}

// openLocal implements a round-trip opening of one local share
// value, the two-value-at-once shape of crypto/spdz's openTwoShares
// collapsed to a single value since this engine opens operands one
// multiplication at a time.
func (p *Party) openLocal(v *big.Int, modulus *big.Int) (*big.Int, error) {
	width := (modulus.BitLen() + 7) / 8
	if width == 0 {
		width = 1
	}
	if p.Role == Garbler {
		if err := p.Conn.SendData(bigIntToBytes(v, width)); err != nil {
			return nil, err
		}
		if err := p.Conn.Flush(); err != nil {
			return nil, err
		}
		peer, err := p.Conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		return mod(new(big.Int).Add(v, new(big.Int).SetBytes(peer)), modulus), nil
	}
	peer, err := p.Conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	if err := p.Conn.SendData(bigIntToBytes(v, width)); err != nil {
		return nil, err
	}
	if err := p.Conn.Flush(); err != nil {
		return nil, err
	}
	return mod(new(big.Int).Add(v, new(big.Int).SetBytes(peer)), modulus), nil
}

// openTwoLocal opens two local values in a single round trip, the same
// batching crypto/spdz's openTwoShares uses for the Beaver d/e pair.
func (p *Party) openTwoLocal(a, b, modulus *big.Int) (*big.Int, *big.Int, error) {
	width := (modulus.BitLen() + 7) / 8
	if width == 0 {
		width = 1
	}
	if p.Role == Garbler {
		if err := p.Conn.SendData(bigIntToBytes(a, width)); err != nil {
			return nil, nil, err
		}
		if err := p.Conn.SendData(bigIntToBytes(b, width)); err != nil {
			return nil, nil, err
		}
		if err := p.Conn.Flush(); err != nil {
			return nil, nil, err
		}
		pa, err := p.Conn.ReceiveData()
		if err != nil {
			return nil, nil, err
		}
		pb, err := p.Conn.ReceiveData()
		if err != nil {
			return nil, nil, err
		}
		return mod(new(big.Int).Add(a, new(big.Int).SetBytes(pa)), modulus),
			mod(new(big.Int).Add(b, new(big.Int).SetBytes(pb)), modulus), nil
	}
	pa, err := p.Conn.ReceiveData()
	if err != nil {
		return nil, nil, err
	}
	pb, err := p.Conn.ReceiveData()
	if err != nil {
		return nil, nil, err
	}
	if err := p.Conn.SendData(bigIntToBytes(a, width)); err != nil {
		return nil, nil, err
	}
	if err := p.Conn.SendData(bigIntToBytes(b, width)); err != nil {
		return nil, nil, err
	}
	if err := p.Conn.Flush(); err != nil {
		return nil, nil, err
	}
	return mod(new(big.Int).Add(a, new(big.Int).SetBytes(pa)), modulus),
		mod(new(big.Int).Add(b, new(big.Int).SetBytes(pb)), modulus), nil
}

// MulLocal computes this party's share of a*b mod modulus given a Beaver
// triple, following the same Beaver-multiplication shape as crypto/spdz's
// MulShare: mask both operands against the triple, open the masks, then
// recombine. Only the Garbler folds in the d*e cross term so it is counted
// exactly once across both parties.
func (p *Party) MulLocal(a, b *big.Int, triple *Triple, modulus *big.Int) (*big.Int, error) {
	d := SubLocal(a, triple.A, modulus)
	e := SubLocal(b, triple.B, modulus)

	dv, ev, err := p.openTwoLocal(d, e, modulus)
	if err != nil {
		return nil, fmt.Errorf("engine: open d,e: %w", err)
	}

	term := new(big.Int).Set(triple.C)
	term.Add(term, new(big.Int).Mul(dv, triple.B))
	term.Add(term, new(big.Int).Mul(ev, triple.A))
	if p.Role == Garbler {
		term.Add(term, new(big.Int).Mul(dv, ev))
	}
	return mod(term, modulus), nil
}

// Reveal opens a local share to both parties.
func (p *Party) Reveal(v *big.Int, modulus *big.Int) (*big.Int, error) {
	return p.openLocal(v, modulus)
}
