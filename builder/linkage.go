package builder

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/epilinkio"
	"github.com/markkurossi/sepilinker/gadget"
	"github.com/markkurossi/sepilinker/seerr"
	"github.com/markkurossi/sepilinker/share"
)

// LinkageShare is one client record's result: a database-row index and
// two threshold bits, all secret-shared (spec §4.5.2's default policy),
// plus the score quotient (only meaningful to reveal in debug mode).
type LinkageShare[ShareT any] struct {
	Index  *share.BoolShare
	Match  *share.BoolShare
	TMatch *share.BoolShare
	Num    ShareT
	Den    ShareT
}

// fieldQuotient is the per-comparison-position (field_weight, weight)
// pair for one (left, right) field-name combination. groupQuotient
// memoizes it per pair across a group's permutations, and no pair is
// requested twice outside a group, so each is computed once per
// BuildLinkageCircuit/BuildCountCircuit call (spec §4.5.1 step 1's
// "memoized on (record_index, left, right)" — record_index is implicit
// here since the whole column is batched SIMD).
func (b *Builder[ShareT]) fieldQuotient(left, right string) (gadget.Quotient[ShareT], error) {
	var zero gadget.Quotient[ShareT]
	spec, ok := b.CC.Epilink.Fields[left]
	if !ok {
		return zero, seerr.Inputf("builder.fieldquotient", "unknown field %q", left)
	}
	clientEntry := b.client[left]
	serverEntry := b.server[right]

	delta, err := b.Ops.Mul(clientEntry.Delta, serverEntry.Delta)
	if err != nil {
		return zero, fmt.Errorf("builder: field %s/%s delta: %w", left, right, err)
	}
	b.Stats.MulGates++

	weightConst, err := b.Consts.Weight(left, right, b.Ops.NVals(delta))
	if err != nil {
		return zero, err
	}
	weight, err := b.Ops.Mul(delta, weightConst)
	if err != nil {
		return zero, fmt.Errorf("builder: field %s/%s weight: %w", left, right, err)
	}
	b.Stats.MulGates++

	comp, err := b.fieldComparison(spec, clientEntry, serverEntry)
	if err != nil {
		return zero, fmt.Errorf("builder: field %s/%s comparison: %w", left, right, err)
	}

	fieldWeight, err := b.Ops.Mul(weight, comp)
	if err != nil {
		return zero, fmt.Errorf("builder: field %s/%s field_weight: %w", left, right, err)
	}
	b.Stats.MulGates++

	if b.Trace != nil {
		b.Trace.FieldWeight[left+"/"+right] = fieldWeight
		b.Trace.Weight[left+"/"+right] = weight
	}

	return gadget.Quotient[ShareT]{Num: fieldWeight, Den: weight}, nil
}

// fieldComparison computes `comp` for one field pair: a rounding dice
// coefficient for DICE fields (via the prebuilt divider circuit) or a
// dice_prec-scaled equality bit for BINARY fields (spec §4.5.1 step 1).
func (b *Builder[ShareT]) fieldComparison(spec config.FieldSpec, c, s *epilinkio.EntryShare[ShareT]) (ShareT, error) {
	var zero ShareT
	if spec.Comparator == config.Binary {
		eq, err := c.Value.Eq(s.Value)
		if err != nil {
			return zero, err
		}
		return b.Ops.PromoteEq(eq, b.CC.DicePrec)
	}

	andVal, err := c.Value.And(s.Value)
	if err != nil {
		return zero, err
	}
	b.Stats.AndGates++
	hwAnd, err := andVal.HammingWeight()
	if err != nil {
		return zero, err
	}

	width := hwAnd.Bits + 1
	hwcPad, err := c.HW.Zeropad(width)
	if err != nil {
		return zero, err
	}
	hwsPad, err := s.HW.Zeropad(width)
	if err != nil {
		return zero, err
	}
	hwPlus, err := hwcPad.Add(hwsPad)
	if err != nil {
		return zero, err
	}

	hwAndPad, err := hwAnd.Zeropad(width)
	if err != nil {
		return zero, err
	}
	doubled := hwAndPad.Shl(1)

	divider, err := b.Dividers(spec.Bitsize)
	if err != nil {
		return zero, err
	}
	diceBool, err := share.ApplyFileBinary(doubled, hwPlus, width, width, divider)
	if err != nil {
		return zero, err
	}
	b.Stats.DivGates++

	result, err := b.Ops.FromBool(diceBool)
	if err != nil {
		return zero, err
	}
	b.Stats.ConvGates++
	return result, nil
}

func addQuotients[ShareT any](ops Ops[ShareT]) gadget.Op[gadget.Quotient[ShareT]] {
	return func(a, b gadget.Quotient[ShareT]) (gadget.Quotient[ShareT], error) {
		num, err := ops.Add(a.Num, b.Num)
		if err != nil {
			return gadget.Quotient[ShareT]{}, err
		}
		den, err := ops.Add(a.Den, b.Den)
		if err != nil {
			return gadget.Quotient[ShareT]{}, err
		}
		return gadget.Quotient[ShareT]{Num: num, Den: den}, nil
	}
}

// permutations returns every permutation of 0..n-1.
func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	var permute func(prefix, rest []int)
	permute = func(prefix, rest []int) {
		if len(rest) == 0 {
			out = append(out, append([]int{}, prefix...))
			return
		}
		for i, v := range rest {
			next := append([]int{}, rest[:i]...)
			next = append(next, rest[i+1:]...)
			permute(append(prefix, v), next)
		}
	}
	permute(nil, idx)
	return out
}

// groupQuotient folds every permutation of exchange group names down to
// the single best (field_weight, weight) pair via QuotientFolder in
// MAX_TIE mode (spec §4.5.1 step 2).
func (b *Builder[ShareT]) groupQuotient(names []string) (gadget.Quotient[ShareT], error) {
	var zero gadget.Quotient[ShareT]
	perms := permutations(len(names))
	quotients := make([]gadget.Quotient[ShareT], len(perms))
	memo := make(map[[2]string]gadget.Quotient[ShareT])
	for i, perm := range perms {
		var sum gadget.Quotient[ShareT]
		for j, left := range names {
			right := names[perm[j]]
			key := [2]string{left, right}
			fq, ok := memo[key]
			var err error
			if !ok {
				fq, err = b.fieldQuotient(left, right)
				if err != nil {
					return zero, err
				}
				memo[key] = fq
			}
			if j == 0 {
				sum = fq
				continue
			}
			sum, err = addQuotients[ShareT](b.Ops)(sum, fq)
			if err != nil {
				return zero, err
			}
		}
		quotients[i] = sum
	}

	selector := gadget.MakeSelector(gadget.SelectMaxTie, gadget.NativeOps[ShareT]{
		Mul:    b.Ops.Mul,
		ToBool: b.Ops.ToBool,
		Mux:    b.Ops.Mux,
	})
	return gadget.BinaryAccumulate(quotients, func(a, b gadget.Quotient[ShareT]) (gadget.Quotient[ShareT], error) {
		merged, _, err := selector(a, b, nil, nil)
		return merged, err
	})
}

// exchangeGroupMembers returns the set of field names covered by any
// configured exchange group.
func exchangeGroupMembers(cc *config.EpilinkConfig) map[string]bool {
	members := make(map[string]bool)
	for _, g := range cc.ExchangeGroups {
		for _, name := range g {
			members[name] = true
		}
	}
	return members
}

// BuildLinkageCircuit runs spec §4.5.1 end to end for the currently-set
// client record against the whole server database, returning the single
// reduced LinkageShare (index, match, tmatch).
func (b *Builder[ShareT]) BuildLinkageCircuit() (*LinkageShare[ShareT], error) {
	if err := b.requireState("builder.buildlinkagecircuit", InputSet); err != nil {
		return nil, err
	}
	if b.ResultDebug {
		b.Trace = newTrace[ShareT]()
	}
	b.state = Built

	covered := exchangeGroupMembers(b.CC.Epilink)
	var quotients []gadget.Quotient[ShareT]

	for _, group := range b.CC.Epilink.ExchangeGroups {
		q, err := b.groupQuotient(group)
		if err != nil {
			return nil, err
		}
		quotients = append(quotients, q)
	}
	for _, name := range b.CC.Epilink.FieldNames() {
		if covered[name] {
			continue
		}
		q, err := b.fieldQuotient(name, name)
		if err != nil {
			return nil, err
		}
		quotients = append(quotients, q)
	}
	if len(quotients) == 0 {
		return nil, seerr.Configf("builder.buildlinkagecircuit", "no fields configured")
	}

	aggregate, err := gadget.BinaryAccumulate(quotients, addQuotients[ShareT](b.Ops))
	if err != nil {
		return nil, err
	}

	folder := &gadget.Folder[ShareT]{
		Ops:     b.shareOps(),
		Targets: gadget.BoolOps(),
		Combine: gadget.MakeSelector(gadget.SelectMaxTie, gadget.NativeOps[ShareT]{
			Mul:    b.Ops.Mul,
			ToBool: b.Ops.ToBool,
			Mux:    b.Ops.Mux,
		}),
	}
	best, targets, err := folder.Fold(aggregate, []*share.BoolShare{b.Consts.ConstIdx})
	if err != nil {
		return nil, err
	}

	match, tmatch, err := b.thresholdTests(best)
	if err != nil {
		return nil, err
	}

	b.state = Executed
	return &LinkageShare[ShareT]{
		Index:  targets[0],
		Match:  match,
		TMatch: tmatch,
		Num:    best.Num,
		Den:    best.Den,
	}, nil
}

// thresholdTests computes match = (T_rescaled*den < num) and
// tmatch = (T_tent_rescaled*den < num) in Boolean space (spec §4.5.1 step
// 6).
func (b *Builder[ShareT]) thresholdTests(q gadget.Quotient[ShareT]) (match, tmatch *share.BoolShare, err error) {
	numBool, err := b.Ops.ToBool(q.Num)
	if err != nil {
		return nil, nil, err
	}
	denBool, err := b.Ops.ToBool(q.Den)
	if err != nil {
		return nil, nil, err
	}

	nvals := denBool.NVals()
	threshold := share.ConstantBoolSIMD(b.BoolCircuit, bigUint(b.CC.ThresholdRescaled()), denBool.Bits, nvals)
	tentative := share.ConstantBoolSIMD(b.BoolCircuit, bigUint(b.CC.TentativeThresholdRescaled()), denBool.Bits, nvals)

	tDen, err := threshold.Mul(denBool)
	if err != nil {
		return nil, nil, err
	}
	ttDen, err := tentative.Mul(denBool)
	if err != nil {
		return nil, nil, err
	}

	match, err = numBool.Gt(tDen)
	if err != nil {
		return nil, nil, err
	}
	tmatch, err = numBool.Gt(ttDen)
	if err != nil {
		return nil, nil, err
	}
	return match, tmatch, nil
}

func (b *Builder[ShareT]) shareOps() gadget.ShareOps[ShareT] {
	return gadget.ShareOps[ShareT]{
		NVals:  b.Ops.NVals,
		Slice:  b.Ops.SliceVals,
		Concat: b.Ops.Concat,
	}
}

func bigUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
