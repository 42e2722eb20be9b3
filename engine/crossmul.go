package engine

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/otext"
)

// chunkBytes is the label-PRG output size used to mask one OT-selected
// value; 32 bytes covers every ring this engine multiplies over
// (Bitlen <= 256 bits), with labelPRG expanding each OT label to that
// length.
const chunkBytes = 32

// CrossMultiply computes this party's additive share of (aG+aE)*(bG+bE)
// mod modulus, where each party passes its own local pair (aLocal,
// bLocal) — i.e. it is the core two-party OT
// cross-multiplication that the original crypto/spdz package performs
// against the fixed P-256 field, generalized to an arbitrary power-of-two
// modulus of bitWidth bits. It runs two independent OT-extension
// directions (this party as sender, then as receiver) so each side
// contributes one cross term, plus the locally-known product term.
func (p *Party) CrossMultiply(aLocal, bLocal, modulus *big.Int, bitWidth int) (*big.Int, error) {
	dir1IsSender := p.Role == Garbler
	dir2IsSender := p.Role == Evaluator

	share1, err := p.bitwiseDirection(dir1IsSender, aLocal, bLocal, modulus, bitWidth)
	if err != nil {
		return nil, fmt.Errorf("engine: cross-multiply direction 1: %w", err)
	}
	share2, err := p.bitwiseDirection(dir2IsSender, aLocal, bLocal, modulus, bitWidth)
	if err != nil {
		return nil, fmt.Errorf("engine: cross-multiply direction 2: %w", err)
	}

	localProd := mod(new(big.Int).Mul(aLocal, bLocal), modulus)
	out := new(big.Int).Add(localProd, share1)
	out.Add(out, share2)
	return mod(out, modulus), nil
}

func (p *Party) bitwiseDirection(localIsSender bool, a, b, modulus *big.Int, bitWidth int) (*big.Int, error) {
	role := otext.ReceiverRole
	if localIsSender {
		role = otext.SenderRole
	}
	ext := otext.NewIKNPExt(p.OTI, p.Conn, role)
	if err := ext.Setup(rand.Reader); err != nil {
		return nil, err
	}
	if localIsSender {
		return bitwiseSend(p.Conn, ext, a, modulus, bitWidth)
	}
	return bitwiseReceive(p.Conn, ext, b, modulus, bitWidth)
}

func bitwiseSend(conn connSender, ext *otext.IKNPExt, a, modulus *big.Int, bitWidth int) (*big.Int, error) {
	powers := make([]*big.Int, bitWidth)
	powers[0] = big.NewInt(1)
	for j := 1; j < bitWidth; j++ {
		powers[j] = mod(new(big.Int).Lsh(powers[j-1], 1), modulus)
	}

	type pair struct {
		r      *big.Int
		u0, u1 []byte
	}
	pairs := make([]pair, bitWidth)
	sumR := big.NewInt(0)

	for j := 0; j < bitWidth; j++ {
		rj, err := randomRingElement(ra, modulus)
		if err != nil {
			return nil, err
		}
		aj := mod(new(big.Int).Mul(a, powers[j]), modulus)
		u1 := mod(new(big.Int).Add(rj, aj), modulus)

		pairs[j] = pair{r: rj, u0: bigIntToBytes(rj, chunkBytes), u1: bigIntToBytes(u1, chunkBytes)}
		sumR.Add(sumR, rj)
		sumR = mod(sumR, modulus)
	}

	wires, err := ext.ExpandSend(bitWidth)
	if err != nil {
		return nil, err
	}
	if len(wires) != bitWidth {
		return nil, fmt.Errorf("engine: ExpandSend returned %d wires, want %d", len(wires), bitWidth)
	}

	out := make([]byte, 0, bitWidth*chunkBytes*2)
	for j := 0; j < bitWidth; j++ {
		var d0, d1 ot.LabelData
		wires[j].L0.GetData(&d0)
		wires[j].L1.GetData(&d1)

		pad0 := labelPRG(d0[:], chunkBytes)
		pad1 := labelPRG(d1[:], chunkBytes)

		out = append(out, xorBytes(pairs[j].u0, pad0)...)
		out = append(out, xorBytes(pairs[j].u1, pad1)...)
	}
	if err := conn.SendData(out); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	neg := new(big.Int).Neg(sumR)
	return mod(neg, modulus), nil
}

func bitwiseReceive(conn connReceiver, ext *otext.IKNPExt, b, modulus *big.Int, bitWidth int) (*big.Int, error) {
	flags := make([]bool, bitWidth)
	for j := 0; j < bitWidth; j++ {
		flags[j] = b.Bit(j) == 1
	}

	labels, err := ext.ExpandReceive(flags)
	if err != nil {
		return nil, err
	}
	if len(labels) != bitWidth {
		return nil, fmt.Errorf("engine: ExpandReceive returned %d labels, want %d", len(labels), bitWidth)
	}

	deltaBuf, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	want := bitWidth * 2 * chunkBytes
	if len(deltaBuf) != want {
		return nil, fmt.Errorf("engine: short delta buffer: got %d want %d", len(deltaBuf), want)
	}

	sum := big.NewInt(0)
	for j := 0; j < bitWidth; j++ {
		off := j * 2 * chunkBytes
		D0 := deltaBuf[off : off+chunkBytes]
		D1 := deltaBuf[off+chunkBytes : off+2*chunkBytes]

		var ld ot.LabelData
		labels[j].GetData(&ld)
		pad := labelPRG(ld[:], chunkBytes)

		var chosen []byte
		if flags[j] {
			chosen = xorBytes(D1, pad)
		} else {
			chosen = xorBytes(D0, pad)
		}
		u := new(big.Int).SetBytes(chosen)
		sum.Add(sum, mod(u, modulus))
		sum = mod(sum, modulus)
	}
	return sum, nil
}

// connSender/connReceiver narrow *p2p.Conn down to what the bitwise OT
// protocol needs, so unit tests can wire up in-memory doubles if needed.
type connSender interface {
	SendData([]byte) error
	Flush() error
}

type connReceiver interface {
	ReceiveData() ([]byte, error)
}

var ra = rand.Reader

func bigIntToBytes(x *big.Int, n int) []byte {
	b := x.Bytes()
	out := make([]byte, n)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	copy(out[n-len(b):], b)
	return out
}

func labelPRG(key []byte, n int) []byte {
	out := make([]byte, n)
	block, _ := aes.NewCipher(padKey(key))
	var ctr, tmp [16]byte
	blocks := (n + 15) / 16
	for i := 0; i < blocks; i++ {
		binary.BigEndian.PutUint64(ctr[8:], uint64(i))
		block.Encrypt(tmp[:], ctr[:])
		start := i * 16
		end := start + 16
		if end > n {
			end = n
		}
		copy(out[start:end], tmp[:end-start])
	}
	return out
}

// padKey extends/truncates a label to a valid AES key size (16 bytes).
func padKey(key []byte) []byte {
	out := make([]byte, 16)
	copy(out, key)
	return out
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
