package oracle

import (
	"math/big"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/epilinkio"
)

type fquotient struct {
	num, den float64
}

func fmaxTie(a, b fquotient) fquotient {
	crossA := a.num * b.den
	crossB := b.num * a.den
	if crossA > crossB {
		return a
	}
	if crossB > crossA {
		return b
	}
	if a.den >= b.den {
		return a
	}
	return b
}

// fieldComparisonExact is fieldComparisonInteger's real-arithmetic
// counterpart: exact dice coefficient `2·|v_c∩v_s| / (|v_c|+|v_s|)`, no
// fixed-point rescaling (spec §4.6: "uses exact real weights and dice
// coefficients").
func fieldComparisonExact(spec config.FieldSpec, c, s epilinkio.FieldEntry) float64 {
	if spec.Comparator == config.Binary {
		if !c.Present || !s.Present {
			return 0
		}
		if c.Bitmask.Cmp(s.Bitmask) == 0 {
			return 1
		}
		return 0
	}

	hwPlus := c.HammingWeight() + s.HammingWeight()
	if hwPlus == 0 {
		return 0
	}
	var hwAnd int
	if c.Present && s.Present {
		hwAnd = popcountAnd(c.Bitmask, s.Bitmask)
	}
	return 2 * float64(hwAnd) / float64(hwPlus)
}

func fieldQuotientExact(cfg *config.EpilinkConfig, left, right string, client, row map[string]epilinkio.FieldEntry) fquotient {
	spec := cfg.Fields[left]
	c, s := client[left], row[right]
	if !c.Present || !s.Present {
		return fquotient{}
	}
	w := spec.Weight()
	if left != right {
		w = (cfg.Fields[left].Weight() + cfg.Fields[right].Weight()) / 2
	}
	comp := fieldComparisonExact(spec, c, s)
	return fquotient{num: w * comp, den: w}
}

func groupQuotientExact(cfg *config.EpilinkConfig, names []string, client, row map[string]epilinkio.FieldEntry) fquotient {
	var best fquotient
	first := true
	for _, perm := range permutations(len(names)) {
		var sum fquotient
		for j, left := range names {
			right := names[perm[j]]
			fq := fieldQuotientExact(cfg, left, right, client, row)
			sum.num += fq.num
			sum.den += fq.den
		}
		if first {
			best, first = sum, false
			continue
		}
		best = fmaxTie(best, sum)
	}
	return best
}

func linkageQuotientExact(cfg *config.EpilinkConfig, client, row map[string]epilinkio.FieldEntry) fquotient {
	covered := exchangeGroupMembers(cfg)
	var acc fquotient
	for _, group := range cfg.ExchangeGroups {
		q := groupQuotientExact(cfg, group, client, row)
		acc.num += q.num
		acc.den += q.den
	}
	for _, name := range cfg.FieldNames() {
		if covered[name] {
			continue
		}
		q := fieldQuotientExact(cfg, name, name, client, row)
		acc.num += q.num
		acc.den += q.den
	}
	return acc
}

func thresholdTestExact(cfg *config.EpilinkConfig, q fquotient) (match, tmatch bool) {
	return cfg.Threshold*q.den < q.num, cfg.TentativeThreshold*q.den < q.num
}

// CalcExact is calc_exact (spec §4.6): the same linkage algorithm over
// exact double-precision real weights and dice coefficients, with no
// fixed-point rescaling or integer overflow, used as the ground truth
// Property 2 bounds the integer circuit's precision loss against.
func CalcExact(cfg *config.EpilinkConfig, r epilinkio.Record, db epilinkio.Database) (*ExactResult, error) {
	size, err := db.Size()
	if err != nil {
		return nil, err
	}
	best := fquotient{}
	bestIdx := 0
	for i := 0; i < size; i++ {
		row := rowOf(db, i)
		if err := checkFields(cfg, r, row); err != nil {
			return nil, err
		}
		q := linkageQuotientExact(cfg, r, row)
		if i == 0 {
			best, bestIdx = q, i
			continue
		}
		if merged := fmaxTie(best, q); merged != best {
			best, bestIdx = q, i
		}
	}
	match, tmatch := thresholdTestExact(cfg, best)
	return &ExactResult{
		Index:           bestIdx,
		Match:           match,
		TMatch:          tmatch,
		SumFieldWeights: best.num,
		SumWeights:      best.den,
	}, nil
}

// Score returns the exact real-valued dice/weight score num/den, the
// quantity Property 2 compares against the integer oracle's rescaled
// score.
func (r *ExactResult) Score() float64 {
	if r.SumWeights == 0 {
		return 0
	}
	return r.SumFieldWeights / r.SumWeights
}

// Score returns the integer oracle's num/den rescaled back to a real
// value (dividing out the 2^dice_prec fixed-point factor).
func (r *Result) Score(dicePrec int) float64 {
	if r.SumWeights == 0 {
		return 0
	}
	factor := new(big.Int).Lsh(big.NewInt(1), uint(dicePrec))
	f, _ := new(big.Float).SetInt(factor).Float64()
	return (float64(r.SumFieldWeights) / float64(r.SumWeights)) / f
}
