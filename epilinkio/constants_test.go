package epilinkio

import (
	"math/big"
	"testing"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/share"
)

func boolMakeConst(c *share.Circuit) MakeConst[*share.BoolShare] {
	return func(value *big.Int, nvals int) *share.BoolShare {
		return share.ConstantBoolSIMD(c, value, 32, nvals)
	}
}

func sampleCircuitConfig(t *testing.T) *config.CircuitConfig {
	t.Helper()
	cfg := &config.EpilinkConfig{
		Fields: map[string]config.FieldSpec{
			"firstname": {Name: "firstname", Frequency: 0.01, ErrorRate: 0.05, Comparator: config.Dice, Kind: config.Bitmask, Bitsize: 500},
			"lastname":  {Name: "lastname", Frequency: 0.01, ErrorRate: 0.05, Comparator: config.Dice, Kind: config.Bitmask, Bitsize: 500},
		},
		Threshold:          0.9,
		TentativeThreshold: 0.7,
		Algorithm:          "epilink",
	}
	cc, err := config.NewCircuitConfig(cfg, false, config.DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	return cc
}

func TestConstIdxDistinctPerLane(t *testing.T) {
	cg, ce := newCircuitPair(t, 32)
	cc := sampleCircuitConfig(t)

	gConsts := NewConstants(cg, cc, 4, boolMakeConst(cg))
	eConsts := NewConstants(ce, cc, 4, boolMakeConst(ce))

	for i := 0; i < 4; i++ {
		v := xorCombine(gConsts.ConstIdx.Vals[i], eConsts.ConstIdx.Vals[i])
		if v.Cmp(big.NewInt(int64(i))) != 0 {
			t.Errorf("const_idx[%d] = %v, want %d", i, v, i)
		}
	}
}

func TestWeightCacheIsStable(t *testing.T) {
	cg, _ := newCircuitPair(t, 32)
	cc := sampleCircuitConfig(t)
	consts := NewConstants(cg, cc, 1, boolMakeConst(cg))

	w1, err := consts.Weight("firstname", "firstname", 1)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := consts.Weight("firstname", "firstname", 1)
	if err != nil {
		t.Fatal(err)
	}
	if w1.Vals[0].Cmp(w2.Vals[0]) != 0 {
		t.Error("cached weight lookup should return the identical value")
	}

	pair, err := consts.Weight("firstname", "lastname", 1)
	if err != nil {
		t.Fatal(err)
	}
	// Identical field stats, so the pair's mean weight matches the single
	// field's rescaled weight exactly.
	if pair.Vals[0].Cmp(w1.Vals[0]) != 0 {
		t.Error("pair weight for identically-distributed fields should equal the single-field weight")
	}
}

func TestDicePrecFactorAndThresholds(t *testing.T) {
	cg, _ := newCircuitPair(t, 32)
	cc := sampleCircuitConfig(t)
	consts := NewConstants(cg, cc, 2, boolMakeConst(cg))

	want := new(big.Int).Lsh(big.NewInt(1), uint(cc.DicePrec))
	if consts.DicePrecFactor.Vals[0].Cmp(want) != 0 {
		t.Errorf("dice_prec_factor = %v, want %v", consts.DicePrecFactor.Vals[0], want)
	}
	if consts.Threshold.NVals() != 2 || consts.TentativeThreshold.NVals() != 2 {
		t.Error("threshold constants should broadcast to the requested nvals")
	}
}
