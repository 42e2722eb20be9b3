package epilinkio

import (
	"math/big"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/engine"
	"github.com/markkurossi/sepilinker/share"
)

// MakeConst builds a public SIMD-broadcast constant in the builder's
// multiplication space, nvals lanes wide.
type MakeConst[ShareT any] func(value *big.Int, nvals int) ShareT

type weightKey struct {
	Left, Right string
}

// Constants is the small set of values a computation needs once, cached
// rather than rebuilt per comparison: the row-index share argmax needs as
// its QuotientFolder target, the dice-precision rescale factor, the two
// rescaled thresholds, and a per-field-pair weight cache (spec §4.4: "Weights
// are cached per (name_left, name_right) pair on first use").
type Constants[ShareT any] struct {
	ConstIdx           *share.BoolShare
	DicePrecFactor     ShareT
	Threshold          ShareT
	TentativeThreshold ShareT

	cc          *config.CircuitConfig
	makeConst   MakeConst[ShareT]
	weightCache map[weightKey]ShareT
}

// NewConstants builds the constant set for a computation over databaseSize
// rows.
func NewConstants[ShareT any](boolCircuit *share.Circuit, cc *config.CircuitConfig, databaseSize int, makeConst MakeConst[ShareT]) *Constants[ShareT] {
	c := &Constants[ShareT]{
		cc:          cc,
		makeConst:   makeConst,
		weightCache: make(map[weightKey]ShareT),
	}
	c.ConstIdx = constIdx(boolCircuit, databaseSize)
	c.DicePrecFactor = makeConst(new(big.Int).Lsh(big.NewInt(1), uint(cc.DicePrec)), databaseSize)
	c.Threshold = makeConst(new(big.Int).SetUint64(cc.ThresholdRescaled()), databaseSize)
	c.TentativeThreshold = makeConst(new(big.Int).SetUint64(cc.TentativeThresholdRescaled()), databaseSize)
	return c
}

// Weight returns the rescaled weight constant for a field (or, when left
// != right, an exchange-group pair's mean weight), building and caching it
// on first use.
func (c *Constants[ShareT]) Weight(left, right string, nvals int) (ShareT, error) {
	key := weightKey{left, right}
	if v, ok := c.weightCache[key]; ok {
		return v, nil
	}
	var (
		w   uint64
		err error
	)
	if left == right {
		w, err = c.cc.RescaledWeight(left)
	} else {
		w, err = c.cc.RescaledWeightPair(left, right)
	}
	if err != nil {
		var zero ShareT
		return zero, err
	}
	v := c.makeConst(new(big.Int).SetUint64(w), nvals)
	c.weightCache[key] = v
	return v, nil
}

// constIdx builds the public per-lane row index [0, n) as a Boolean share,
// the QuotientFolder target that survives the argmax fold (spec §4.2). Each
// lane carries a distinct public value, so it is built directly rather than
// through ConstantBoolSIMD (which broadcasts a single repeated constant).
func constIdx(c *share.Circuit, n int) *share.BoolShare {
	width := bitsFor(n - 1)
	vals := make([]*big.Int, n)
	for i := range vals {
		if c.Party.Role == engine.Garbler {
			vals[i] = big.NewInt(int64(i))
		} else {
			vals[i] = big.NewInt(0)
		}
	}
	return share.NewBoolShare(c, width, vals)
}

func bitsFor(maxVal int) int {
	if maxVal < 1 {
		return 1
	}
	w := 0
	for (1 << w) <= maxVal {
		w++
	}
	return w
}
