package engine

import "math/big"

// RevealTo opens v to a single named recipient only: the sender of the
// share sends its component, the recipient combines locally and the
// sender learns nothing back. Used when an OutShare's target is a single
// party rather than ALL (spec §4.1).
func (p *Party) RevealTo(v, modulus *big.Int, recipient Role) (*big.Int, error) {
	width := (modulus.BitLen() + 7) / 8
	if width == 0 {
		width = 1
	}
	if p.Role == recipient {
		peer, err := p.Conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		return mod(new(big.Int).Add(v, new(big.Int).SetBytes(peer)), modulus), nil
	}
	if err := p.Conn.SendData(bigIntToBytes(v, width)); err != nil {
		return nil, err
	}
	return nil, p.Conn.Flush()
}
