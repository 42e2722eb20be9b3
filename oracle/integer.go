package oracle

import (
	"math/big"
	"math/bits"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/epilinkio"
)

// mask64 truncates v to the low bitlen bits, mirroring the circuit's
// fixed-width wraparound (spec §4.6: "same overflow semantics at
// sizeof(T)·8 bits").
func mask64(v uint64, bitlen int) uint64 {
	if bitlen >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(bitlen)) - 1)
}

func popcountAnd(a, b *big.Int) int {
	and := new(big.Int).And(a, b)
	sum := 0
	for _, w := range and.Bits() {
		sum += bits.OnesCount(uint(w))
	}
	return sum
}

// fieldComparisonInteger computes comp for one field pair at the
// configured fixed-point scale: a dice_prec-scaled equality bit for
// BINARY fields, or the rounding popcount-ratio `(2·hw_and·2^dice_prec +
// hw_plus/2) / hw_plus` the apply_file_binary divider circuit realizes
// for DICE fields (spec §4.6).
func fieldComparisonInteger(cc *config.CircuitConfig, spec config.FieldSpec, c, s epilinkio.FieldEntry) uint64 {
	if spec.Comparator == config.Binary {
		if !c.Present || !s.Present {
			return 0
		}
		if c.Bitmask.Cmp(s.Bitmask) == 0 {
			return mask64(uint64(1)<<uint(cc.DicePrec), cc.Bitlen)
		}
		return 0
	}

	hwPlus := uint64(c.HammingWeight() + s.HammingWeight())
	if hwPlus == 0 {
		return 0
	}
	var hwAnd int
	if c.Present && s.Present {
		hwAnd = popcountAnd(c.Bitmask, s.Bitmask)
	}
	doubled := mask64(uint64(hwAnd)*2, cc.Bitlen)
	scaled := mask64(doubled<<uint(cc.DicePrec), cc.Bitlen)
	rounding := hwPlus / 2
	return mask64(scaled+rounding, cc.Bitlen) / hwPlus
}

// fieldQuotientInteger is the per-comparison-position (field_weight,
// weight) pair in integer arithmetic, masked to cc.Bitlen at every step
// like the circuit's fixed-width additions/multiplications.
func fieldQuotientInteger(cc *config.CircuitConfig, left, right string, client, row map[string]epilinkio.FieldEntry) (quotient, error) {
	spec := cc.Epilink.Fields[left]
	c, s := client[left], row[right]

	delta := uint64(0)
	if c.Present && s.Present {
		delta = 1
	}
	var w uint64
	var err error
	if left == right {
		w, err = cc.RescaledWeight(left)
	} else {
		w, err = cc.RescaledWeightPair(left, right)
	}
	if err != nil {
		return quotient{}, err
	}
	weight := mask64(delta*w, cc.Bitlen)
	comp := fieldComparisonInteger(cc, spec, c, s)
	fieldWeight := mask64(weight*comp, cc.Bitlen)
	return quotient{num: fieldWeight, den: weight}, nil
}

func groupQuotientInteger(cc *config.CircuitConfig, names []string, client, row map[string]epilinkio.FieldEntry) (quotient, error) {
	best := quotient{}
	first := true
	for _, perm := range permutations(len(names)) {
		var sum quotient
		for j, left := range names {
			right := names[perm[j]]
			fq, err := fieldQuotientInteger(cc, left, right, client, row)
			if err != nil {
				return quotient{}, err
			}
			sum.num = mask64(sum.num+fq.num, cc.Bitlen)
			sum.den = mask64(sum.den+fq.den, cc.Bitlen)
		}
		if first {
			best, first = sum, false
			continue
		}
		best = maxTie(best, sum)
	}
	return best, nil
}

func linkageQuotientInteger(cc *config.CircuitConfig, client, row map[string]epilinkio.FieldEntry) (quotient, error) {
	covered := exchangeGroupMembers(cc.Epilink)
	var acc quotient
	first := true
	for _, group := range cc.Epilink.ExchangeGroups {
		q, err := groupQuotientInteger(cc, group, client, row)
		if err != nil {
			return quotient{}, err
		}
		if first {
			acc, first = q, false
			continue
		}
		acc.num = mask64(acc.num+q.num, cc.Bitlen)
		acc.den = mask64(acc.den+q.den, cc.Bitlen)
	}
	for _, name := range cc.Epilink.FieldNames() {
		if covered[name] {
			continue
		}
		q, err := fieldQuotientInteger(cc, name, name, client, row)
		if err != nil {
			return quotient{}, err
		}
		if first {
			acc, first = q, false
			continue
		}
		acc.num = mask64(acc.num+q.num, cc.Bitlen)
		acc.den = mask64(acc.den+q.den, cc.Bitlen)
	}
	return acc, nil
}

func thresholdTestInteger(cc *config.CircuitConfig, q quotient) (match, tmatch bool) {
	tDen := mask64(cc.ThresholdRescaled()*q.den, cc.Bitlen)
	ttDen := mask64(cc.TentativeThresholdRescaled()*q.den, cc.Bitlen)
	return q.num > tDen, q.num > ttDen
}

// CalcInteger is calc_integer (spec §4.6): the single client record r
// scored against every row of db, returning the argmax result exactly as
// builder.BuildLinkageCircuit would (bit-identical fixed-point scale and
// overflow behavior).
func CalcInteger(cc *config.CircuitConfig, r epilinkio.Record, db epilinkio.Database) (*Result, error) {
	size, err := db.Size()
	if err != nil {
		return nil, err
	}
	best := quotient{}
	bestIdx := 0
	for i := 0; i < size; i++ {
		row := rowOf(db, i)
		if err := checkFields(cc.Epilink, r, row); err != nil {
			return nil, err
		}
		q, err := linkageQuotientInteger(cc, r, row)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			best, bestIdx = q, i
			continue
		}
		if merged := maxTie(best, q); merged != best {
			best, bestIdx = q, i
		}
	}
	match, tmatch := thresholdTestInteger(cc, best)
	return &Result{
		Index:           bestIdx,
		Match:           match,
		TMatch:          tmatch,
		SumFieldWeights: best.num,
		SumWeights:      best.den,
	}, nil
}

// CalcCountInteger is calc_count<int> (spec §4.6/§4.5.3): per-row match/
// tmatch tallied across the whole database, discarding indices.
func CalcCountInteger(cc *config.CircuitConfig, r epilinkio.Record, db epilinkio.Database) (*CountResult, error) {
	size, err := db.Size()
	if err != nil {
		return nil, err
	}
	out := &CountResult{}
	for i := 0; i < size; i++ {
		row := rowOf(db, i)
		if err := checkFields(cc.Epilink, r, row); err != nil {
			return nil, err
		}
		q, err := linkageQuotientInteger(cc, r, row)
		if err != nil {
			return nil, err
		}
		match, tmatch := thresholdTestInteger(cc, q)
		if match {
			out.Matches++
		}
		if tmatch {
			out.TMatches++
		}
	}
	return out, nil
}
