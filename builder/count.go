package builder

import (
	"github.com/markkurossi/sepilinker/gadget"
	"github.com/markkurossi/sepilinker/share"
)

// CountResult is build_count_circuit's output: how many of the
// currently-set server database's rows match (or tentatively match) the
// currently-set client record, both revealed to both parties (spec
// §4.5.3). Builder is scoped to one client record at a time (like
// BuildLinkageCircuit); a caller tallying an entire client-side database
// calls SetInput/BuildCountCircuit once per client record and sums the
// revealed totals across calls.
type CountResult struct {
	Matches  uint64
	TMatches uint64
}

// BuildCountCircuit runs the same per-row field scoring and threshold
// tests BuildLinkageCircuit does, but skips the cross-database argmax
// reduction: every server row's match/tmatch bit is kept, summed in
// Boolean space, and the two totals are revealed to both parties.
func (b *Builder[ShareT]) BuildCountCircuit() (*CountResult, error) {
	if err := b.requireState("builder.buildcountcircuit", InputSet); err != nil {
		return nil, err
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

	aggregate, err := gadget.BinaryAccumulate(quotients, addQuotients[ShareT](b.Ops))
	if err != nil {
		return nil, err
	}

	match, tmatch, err := b.thresholdTests(aggregate)
	if err != nil {
		return nil, err
	}

	countWidth := bitsForCount(b.databaseSize)
	matchWide, err := match.Zeropad(countWidth)
	if err != nil {
		return nil, err
	}
	tmatchWide, err := tmatch.Zeropad(countWidth)
	if err != nil {
		return nil, err
	}

	totalMatch, err := gadget.SplitAccumulate(matchWide, gadget.BoolOps(), boolAddOp)
	if err != nil {
		return nil, err
	}
	totalTMatch, err := gadget.SplitAccumulate(tmatchWide, gadget.BoolOps(), boolAddOp)
	if err != nil {
		return nil, err
	}

	out := share.NewBoolOut(totalMatch, share.RevealAll)
	matchVals, err := out.Reveal()
	if err != nil {
		return nil, err
	}
	out = share.NewBoolOut(totalTMatch, share.RevealAll)
	tmatchVals, err := out.Reveal()
	if err != nil {
		return nil, err
	}

	b.state = Executed
	return &CountResult{
		Matches:  matchVals[0].Uint64(),
		TMatches: tmatchVals[0].Uint64(),
	}, nil
}

func boolAddOp(a, b *share.BoolShare) (*share.BoolShare, error) { return a.Add(b) }

func bitsForCount(n int) int {
	w := 1
	for (1 << w) < n+1 {
		w++
	}
	return w
}
