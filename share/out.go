package share

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/engine"
)

// RevealTarget names who learns the plaintext behind an OutShare, per
// spec §4.1: one distinguished party, both parties (ALL), or nobody —
// the value stays secret-shared (out_shared) for further composition by
// the caller.
type RevealTarget int

// Reveal targets.
const (
	RevealAll RevealTarget = iota
	RevealGarbler
	RevealEvaluator
	RevealNone
)

// OutShare wraps a reveal gate over a Bool- or ArithShare. Only one of
// Bool/Arith is set.
type OutShare struct {
	Target RevealTarget
	Bool   *BoolShare
	Arith  *ArithShare
}

// NewBoolOut wraps s behind a reveal gate targeting t.
func NewBoolOut(s *BoolShare, t RevealTarget) *OutShare {
	return &OutShare{Target: t, Bool: s}
}

// NewArithOut wraps s behind a reveal gate targeting t.
func NewArithOut(s *ArithShare, t RevealTarget) *OutShare {
	return &OutShare{Target: t, Arith: s}
}

// Reveal executes the wrapped gate. For RevealNone it returns nil, nil:
// the caller already holds the share and should keep composing with it
// rather than calling Reveal at all. For a single-party target, the
// non-recipient gets a nil slice with no error — it contributed its half
// of the opening but learns nothing.
func (o *OutShare) Reveal() ([]*big.Int, error) {
	if o.Target == RevealNone {
		return nil, nil
	}
	switch {
	case o.Bool != nil:
		return revealLoop(o.Bool.C.Party, o.Bool.Vals, big.NewInt(2), o.Target)
	case o.Arith != nil:
		return revealLoop(o.Arith.C.Party, o.Arith.Vals, o.Arith.C.Modulus(), o.Target)
	default:
		return nil, fmt.Errorf("share: reveal: empty OutShare")
	}
}

func revealLoop(p *engine.Party, vals []*big.Int, modulus *big.Int, target RevealTarget) ([]*big.Int, error) {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		var (
			r   *big.Int
			err error
		)
		switch target {
		case RevealAll:
			r, err = p.Reveal(v, modulus)
		case RevealGarbler:
			r, err = p.RevealTo(v, modulus, engine.Garbler)
		case RevealEvaluator:
			r, err = p.RevealTo(v, modulus, engine.Evaluator)
		default:
			return nil, fmt.Errorf("share: reveal: unknown target %d", target)
		}
		if err != nil {
			return nil, fmt.Errorf("share: reveal: %w", err)
		}
		out[i] = r
	}
	return out, nil
}
