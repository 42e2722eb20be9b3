package epilinkio

import (
	"math/big"

	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/share"
)

// EntryShare is one field's shared input for one side: a value share
// (Boolean, bitsize wide, batched over nvals rows), a delta share (1 if
// non-empty, 0 otherwise, stored in the multiplication space), and a
// precomputed hamming-weight share (only when the field's comparator is
// DICE). ShareT is whichever multiplication space the circuit builder is
// configured for — *share.ArithShare or *share.BoolShare.
type EntryShare[ShareT any] struct {
	Value *share.BoolShare
	Delta ShareT
	HW    *share.BoolShare
}

// ToMult converts a Boolean 1-bit-wide share into the builder's
// multiplication space. The circuit builder supplies this, since only it
// knows which conversion (identity, a2b-then-relabel, or a2y/y2a) applies
// for the configured CircuitConfig.UseConversion / BooleanSharing.
type ToMult[ShareT any] func(*share.BoolShare) (ShareT, error)

// ReplicateEntry repeats a single client record's FieldEntry n times, the
// "client input... replicated database_size times" broadcast spec §4.4
// describes.
func ReplicateEntry(e FieldEntry, n int) []FieldEntry {
	out := make([]FieldEntry, n)
	for i := range out {
		out[i] = e
	}
	return out
}

// ShapeOwn builds this party's real EntryShare for one field across the
// given entries (one broadcast client record, or one full server column).
func ShapeOwn[ShareT any](circ *share.Circuit, entries []FieldEntry, spec config.FieldSpec, toMult ToMult[ShareT]) (*EntryShare[ShareT], error) {
	n := len(entries)
	vals := make([]*big.Int, n)
	deltaBits := make([]*big.Int, n)
	var hwVals []*big.Int
	if spec.Comparator == config.Dice {
		hwVals = make([]*big.Int, n)
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(spec.Bitsize)), big.NewInt(1))
	for i, e := range entries {
		if e.Present {
			vals[i] = new(big.Int).And(e.Bitmask, mask)
			deltaBits[i] = big.NewInt(1)
		} else {
			vals[i] = big.NewInt(0)
			deltaBits[i] = big.NewInt(0)
		}
		if hwVals != nil {
			hwVals[i] = big.NewInt(int64(e.HammingWeight()))
		}
	}

	value := share.NewBoolShare(circ, spec.Bitsize, vals)
	deltaBool := share.NewBoolShare(circ, 1, deltaBits)
	delta, err := toMult(deltaBool)
	if err != nil {
		return nil, err
	}
	es := &EntryShare[ShareT]{Value: value, Delta: delta}
	if hwVals != nil {
		es.HW = share.NewBoolShare(circ, hwWidth(spec.Bitsize), hwVals)
	}
	return es, nil
}

// ShapeDummy builds the non-owning party's zero-filled counterpart of the
// same shape — the MPC framework's "dummy gate of the same shape" spec
// §4.4 requires.
func ShapeDummy[ShareT any](circ *share.Circuit, nvals int, spec config.FieldSpec, toMult ToMult[ShareT]) (*EntryShare[ShareT], error) {
	zeros := func() []*big.Int {
		z := make([]*big.Int, nvals)
		for i := range z {
			z[i] = big.NewInt(0)
		}
		return z
	}

	value := share.NewBoolShare(circ, spec.Bitsize, zeros())
	deltaBool := share.NewBoolShare(circ, 1, zeros())
	delta, err := toMult(deltaBool)
	if err != nil {
		return nil, err
	}
	es := &EntryShare[ShareT]{Value: value, Delta: delta}
	if spec.Comparator == config.Dice {
		es.HW = share.NewBoolShare(circ, hwWidth(spec.Bitsize), zeros())
	}
	return es, nil
}

func hwWidth(bitsize int) int {
	w := 0
	for (1 << w) < bitsize+1 {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}
